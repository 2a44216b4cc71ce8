package main

import (
	"fmt"
	"os"

	"github.com/cristian64/rarctool/internal/rarc"
	"github.com/cristian64/rarctool/internal/utils"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <archive>",
	Short: "List the files inside an archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading archive: %w", err)
		}

		archive, stats, err := rarc.Decode(data)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", args[0], err)
		}

		archive.WalkFiles(func(path string, file *rarc.File) {
			line := fmt.Sprintf("%s %d %s", path, file.ID, utils.Bytes(int64(len(file.Data))))
			if tokens := file.Flags.String(); tokens != "" {
				line += " " + tokens
			}
			fmt.Println(line)
		})

		fmt.Printf("%s files, %s stored data\n",
			utils.Number(int64(archive.FileCount())), utils.Bytes(stats.DataBytes))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
