package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cristian64/rarctool/internal/catalog"
	"github.com/cristian64/rarctool/internal/rarc"
	"github.com/cristian64/rarctool/internal/utils"
	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog <archive...>",
	Short: "Ingest archives into the searchable catalog database",
	Long: `Catalog decodes the given archives and records their file paths, ids,
flags and sizes in a SQLite database, so a whole game image can be searched
with the query command without re-decoding every container.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := catalog.Open(catalog.DefaultOptions(cfg.Catalog))
		if err != nil {
			return fmt.Errorf("opening catalog: %w", err)
		}
		defer db.Close()

		progress := utils.NewProgress(len(args), !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug"))

		ingested := 0
		failed := 0
		for i, archivePath := range args {
			progress.Update(i+1, filepath.Base(archivePath))

			data, err := os.ReadFile(archivePath)
			if err != nil {
				slog.Error("Failed to read archive", "path", archivePath, "error", err)
				failed++
				continue
			}

			archive, stats, err := rarc.Decode(data)
			if err != nil {
				slog.Error("Failed to decode archive", "path", archivePath, "error", err)
				failed++
				continue
			}

			if err := db.Ingest(cmd.Context(), archivePath, archive, stats); err != nil {
				slog.Error("Failed to ingest archive", "path", archivePath, "error", err)
				failed++
				continue
			}
			ingested++
		}
		progress.Finish()

		fmt.Printf("Ingested %d archives into %s (%d failed)\n", ingested, cfg.Catalog, failed)
		fmt.Printf("Try running: rarctool query '%%.bti'\n")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
