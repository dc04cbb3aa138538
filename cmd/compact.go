package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var compactCmd = &cobra.Command{
	Use:   "compact",
	Short: "Rewrite the database file (prunes empty directories, sorts, recompresses)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDatabase()
		if err != nil {
			return err
		}
		defer func() { _ = d.Close() }()

		start := time.Now()
		if err := d.Save(); err != nil {
			return err
		}
		fmt.Printf("Compacted in %v.\n", time.Since(start))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compactCmd)
}
