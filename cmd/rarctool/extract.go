package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cristian64/rarctool/internal/rarc"
	"github.com/cristian64/rarctool/internal/utils"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive> [dest]",
	Short: "Extract an archive into a directory tree",
	Long: `Extract decodes a RARC archive (decompressing a Yaz0 wrapper if present)
and writes its directory tree to disk, together with a filelisting.txt
sidecar recording each file's id and flags. Repacking the destination
directory with those ids reproduces the source archive byte-for-byte.

Without an explicit destination the tree is written to "<archive>_ext".`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		startTime := time.Now()

		archivePath := args[0]
		dest := archivePath + "_ext"
		if len(args) == 2 {
			dest = args[1]
		}

		data, err := os.ReadFile(archivePath)
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		archive, stats, err := rarc.Decode(data)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", archivePath, err)
		}

		if stats.CyclesSkipped > 0 {
			slog.Warn("Archive contained recursive directory references",
				"skipped", stats.CyclesSkipped)
		}

		if err := os.MkdirAll(dest, 0755); err != nil {
			return fmt.Errorf("creating destination: %w", err)
		}

		total := archive.FileCount()
		progress := utils.NewProgress(total, !(noProgress || cfg.LogFormat == "json" || cfg.LogLevel == "debug"))

		written := 0
		err = archive.ExtractTo(dest, func(path string) {
			written++
			progress.Update(written, filepath.Base(path))
		})
		progress.Finish()
		if err != nil {
			return fmt.Errorf("extracting to %s: %w", dest, err)
		}

		listingFile, err := os.Create(filepath.Join(dest, rarc.FileListingName))
		if err != nil {
			return fmt.Errorf("creating filelisting: %w", err)
		}
		defer listingFile.Close()
		if err := rarc.WriteFileListing(listingFile, archive); err != nil {
			return fmt.Errorf("writing filelisting: %w", err)
		}

		fmt.Printf("Extracted %s files (%s) to %s in %.1fms\n",
			utils.Number(int64(total)),
			utils.Bytes(stats.DataBytes),
			dest,
			float64(time.Since(startTime).Nanoseconds())/1000000.0)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
