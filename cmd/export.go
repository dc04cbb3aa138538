package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/songdb/internal/db"
	"github.com/agentic-research/songdb/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <output.sqlite> [uri]",
	Short: "Export the library into a SQLite file for external querying",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		output := args[0]
		uri := ""
		if len(args) == 2 {
			uri = args[1]
		}

		d, err := openDatabase()
		if err != nil {
			return err
		}
		defer func() { _ = d.Close() }()

		start := time.Now()
		if err := export.ToSQLite(d, db.Selection{URI: uri, Recursive: true}, output); err != nil {
			return err
		}
		fmt.Printf("Exported to %s in %v.\n", output, time.Since(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
