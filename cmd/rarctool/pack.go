package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cristian64/rarctool/internal/rarc"
	"github.com/cristian64/rarctool/internal/utils"
	"github.com/cristian64/rarctool/internal/wszst"
	"github.com/cristian64/rarctool/internal/yaz0"
	"github.com/spf13/cobra"
)

var (
	packYaz0  bool
	packWszst bool
)

var packCmd = &cobra.Command{
	Use:   "pack <dir> [out]",
	Short: "Pack an extracted directory tree into an archive",
	Long: `Pack builds a RARC archive from a directory previously produced by
extract (or laid out the same way): the directory must contain exactly one
folder, which becomes the archive root. A filelisting.txt sidecar, when
present, pins every file's id and flags so the original archive is
reproduced byte-for-byte.

--yaz0 compresses the finished archive in-process; --wszst shells out to
Wiimm's SZS tools for a higher ratio. Either way the uncompressed archive
is kept whenever compression would not make it smaller.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := filepath.Clean(args[0])

		rootDir, err := findArchiveRoot(inputPath)
		if err != nil {
			return err
		}

		archive, err := rarc.FromDirectory(filepath.Join(inputPath, rootDir))
		if err != nil {
			return fmt.Errorf("scanning %s: %w", inputPath, err)
		}

		opts := &rarc.EncodeOptions{}

		listingPath := filepath.Join(inputPath, rarc.FileListingName)
		if listingFile, err := os.Open(listingPath); err == nil {
			opts.FileListing, err = rarc.ReadFileListing(listingFile)
			listingFile.Close()
			if err != nil {
				return fmt.Errorf("reading %s: %w", listingPath, err)
			}
			slog.Debug("Loaded filelisting", "entries", len(opts.FileListing))
		} else {
			slog.Debug("No filelisting, using default flags and sequential ids")
		}

		if packWszst {
			opts.CompressFile = func(data []byte) ([]byte, error) {
				return wszst.Compress(cmd.Context(), data, wszst.Settings{Level: cfg.WszstLevel})
			}
		}

		encoded, err := rarc.Encode(archive, opts)
		if err != nil {
			return fmt.Errorf("encoding archive: %w", err)
		}

		out := encoded
		switch {
		case packWszst:
			out, err = wszst.Compress(cmd.Context(), encoded, wszst.Settings{Level: cfg.WszstLevel})
			if err != nil {
				return fmt.Errorf("compressing archive: %w", err)
			}
		case packYaz0:
			var shrunk bool
			out, shrunk = yaz0.CompressIfSmaller(encoded)
			if !shrunk {
				slog.Warn("Compressed archive not smaller than original, keeping uncompressed data")
			}
		}

		outputPath := defaultPackedName(inputPath, packYaz0 || packWszst)
		if len(args) == 2 {
			outputPath = args[1]
		}

		if err := os.WriteFile(outputPath, out, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}

		fmt.Printf("Packed %s files into %s (%s)\n",
			utils.Number(int64(archive.FileCount())), outputPath, utils.Bytes(int64(len(out))))

		return nil
	},
}

// findArchiveRoot locates the single folder inside the extraction directory
// that becomes the archive root.
func findArchiveRoot(inputPath string) (string, error) {
	entries, err := os.ReadDir(inputPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", inputPath, err)
	}

	root := ""
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if root != "" {
			return "", fmt.Errorf("directory %s contains multiple folders, exactly one should exist", inputPath)
		}
		root = entry.Name()
	}
	if root == "" {
		return "", fmt.Errorf("directory %s contains no folders, exactly one should exist", inputPath)
	}

	return root, nil
}

// defaultPackedName mirrors the naming convention extraction introduces:
// a "_ext" suffix is stripped, anything else gains the archive extension.
func defaultPackedName(inputPath string, compressed bool) string {
	if strings.HasSuffix(inputPath, "_ext") {
		return strings.TrimSuffix(inputPath, "_ext")
	}
	if compressed {
		return inputPath + ".szs"
	}
	return inputPath + ".arc"
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().BoolVar(&packYaz0, "yaz0", false, "compress the packed archive with yaz0")
	packCmd.Flags().BoolVar(&packWszst, "wszst", false, "compress with wszst (must be installed separately)")
}
