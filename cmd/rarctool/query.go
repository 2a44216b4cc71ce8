package main

import (
	"fmt"

	"github.com/cristian64/rarctool/internal/catalog"
	"github.com/cristian64/rarctool/internal/utils"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <pattern>",
	Short: "Search cataloged archives by file path",
	Long: `Query searches the catalog database for files whose path matches the SQL
LIKE pattern, e.g. '%.bmd' or 'Race/%Lap%'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := catalog.Open(catalog.DefaultOptions(cfg.Catalog))
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer db.Close()

		results, err := db.Query(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("querying catalog: %w", err)
		}

		for _, r := range results {
			line := fmt.Sprintf("%s: %s %d %s", r.Archive, r.Path, r.FileID, utils.Bytes(r.Size))
			if r.Flags != "" {
				line += " " + r.Flags
			}
			fmt.Println(line)
		}
		fmt.Printf("%d matches\n", len(results))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
}
