package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentic-research/songdb/internal/db"
	"github.com/agentic-research/songdb/internal/tag"
)

var tagsCmd = &cobra.Command{
	Use:   "tags <type> [uri]",
	Short: "List distinct values of a tag type (e.g. Artist, Album, Genre)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tt, ok := tag.ParseType(args[0])
		if !ok {
			return fmt.Errorf("unknown tag type %q", args[0])
		}
		uri := ""
		if len(args) == 2 {
			uri = args[1]
		}

		d, err := openDatabase()
		if err != nil {
			return err
		}
		defer func() { _ = d.Close() }()

		return d.VisitUniqueTags(db.Selection{URI: uri, Recursive: true}, tt,
			func(value string) error {
				fmt.Println(value)
				return nil
			})
	},
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}
