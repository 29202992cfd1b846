package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(resetPasswordCmd)
	rootCmd.AddCommand(sitesCmd)

	resetPasswordCmd.Flags().StringP("password", "p", "", "New password (at least 8 characters)")
	_ = resetPasswordCmd.MarkFlagRequired("password")
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password EMAIL",
	Short: "Set a user's password without the old one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		if err := app.auth.SetPassword(args[0], password); err != nil {
			return err
		}
		fmt.Fprintf(app.out, "Password for %s has been reset\n", args[0])
		return nil
	},
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List sites and their codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := app.sites.FindAll(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tNAME\tLOCATION\tID")
		for _, s := range sites {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Code, s.Name, s.Location, s.ID)
		}
		return tw.Flush()
	},
}
