package main

import (
	"fmt"
	"io"
	"os"

	"go-site-inventory/internal/export"
	"go-site-inventory/internal/ledger"
	"go-site-inventory/internal/service"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("report", "history", "history or summary")
	exportCmd.Flags().StringP("format", "f", "csv", "csv or xlsx")
	exportCmd.Flags().String("period", "all", "last7days, last30days, last90days, lastYear, custom or all")
	exportCmd.Flags().String("start", "", "Start date (YYYY-MM-DD) for a custom period")
	exportCmd.Flags().String("end", "", "End date (YYYY-MM-DD) for a custom period")
	exportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}

var exportCmd = &cobra.Command{
	Use:   "export MATERIAL",
	Short: "Export transaction history or a stock summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	m, err := ledger.ParseMaterial(args[0])
	if err != nil {
		return err
	}
	site, err := siteFlag(ctx, cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	report, _ := flags.GetString("report")
	formatFlag, _ := flags.GetString("format")
	periodFlag, _ := flags.GetString("period")
	start, _ := flags.GetString("start")
	end, _ := flags.GetString("end")
	output, _ := flags.GetString("output")

	format, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	period, err := ledger.ParsePeriod(periodFlag, start, end)
	if err != nil {
		return err
	}

	var tables []export.Table
	switch report {
	case "history":
		records, err := app.inventory.Transactions(ctx, service.TransactionQuery{Material: m, SiteID: site.ID, Period: period})
		if err != nil {
			return err
		}
		tables = []export.Table{service.HistoryTable(m, records)}
	case "summary":
		summary, err := app.reports.Summary(ctx, m, site.ID, period)
		if err != nil {
			return err
		}
		tables = service.SummaryTables(summary)
	default:
		return fmt.Errorf("unknown report %q: use history or summary", report)
	}

	var w io.Writer = app.out
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := export.Write(w, format, tables...); err != nil {
		return err
	}
	if output != "" {
		app.log.Info("export written", "site", site.Code, "material", m, "report", report, "file", output)
	}
	return nil
}
