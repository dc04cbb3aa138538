package cmd

import (
	"fmt"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/songdb/internal/db"
)

var statsCmd = &cobra.Command{
	Use:   "stats [uri]",
	Short: "Aggregate song, directory and tag statistics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uri := ""
		if len(args) == 1 {
			uri = args[0]
		}

		d, err := openDatabase()
		if err != nil {
			return err
		}
		defer func() { _ = d.Close() }()

		stats, err := d.Stats(db.Selection{URI: uri, Recursive: true})
		if err != nil {
			return err
		}

		out := map[string]any{
			"songs":            stats.Songs,
			"directories":      stats.Directories,
			"playlists":        stats.Playlists,
			"duration_seconds": stats.TotalDuration.Seconds(),
			"artists":          stats.Artists,
			"albums":           stats.Albums,
		}
		if !d.Mtime().IsZero() {
			out["db_updated"] = d.Mtime().UTC().Format("2006-01-02T15:04:05Z")
		}
		fmt.Println(oj.JSON(out, 2))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
