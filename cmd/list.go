package cmd

import (
	"fmt"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/songdb/internal/db"
)

var (
	listJSON      bool
	listRecursive bool
)

var listCmd = &cobra.Command{
	Use:   "list [uri]",
	Short: "List songs under a path",
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

		var entries []map[string]any
		err = d.Visit(db.Selection{URI: uri, Recursive: listRecursive}, nil,
			func(s *db.LightSong) error {
				if !listJSON {
					fmt.Println(s.URI())
					return nil
				}
				e := map[string]any{"uri": s.URI()}
				if s.Target != "" {
					e["target"] = s.Target
				}
				if s.Tag != nil {
					if s.Tag.Duration > 0 {
						e["duration_seconds"] = s.Tag.Duration.Seconds()
					}
					for _, it := range s.Tag.Items {
						e[it.Type.String()] = it.Value
					}
				}
				entries = append(entries, e)
				return nil
			}, nil)
		if err != nil {
			return err
		}

		if listJSON {
			fmt.Println(oj.JSON(entries, 2))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Emit JSON instead of plain URIs")
	listCmd.Flags().BoolVarP(&listRecursive, "recursive", "r", true, "Descend into subdirectories")
	rootCmd.AddCommand(listCmd)
}
