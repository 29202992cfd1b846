// Command ledgerctl runs maintenance jobs against the inventory database:
// steel tally checks, level reconciliation, exports and password resets.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
