package main

import (
	"fmt"

	"github.com/cristian64/rarctool/internal/baa"
	"github.com/spf13/cobra"
)

var baaCmd = &cobra.Command{
	Use:   "baa",
	Short: "Work with BAA audio-archive containers",
}

var baaUnpackCmd = &cobra.Command{
	Use:   "unpack <file.baa> <dest>",
	Short: "Split a BAA container into section files",
	Long: `Unpack splits a BAA audio archive into its numbered section files and
writes a JSON sidecar describing the original header, which pack uses to
rebuild the container.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := baa.Unpack(args[0], args[1]); err != nil {
			return fmt.Errorf("unpacking %s: %w", args[0], err)
		}
		fmt.Printf("Unpacked %s to %s\n", args[0], args[1])
		return nil
	},
}

var baaPackCmd = &cobra.Command{
	Use:   "pack <info.json> <out.baa>",
	Short: "Rebuild a BAA container from unpacked sections",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := baa.Pack(args[0], args[1]); err != nil {
			return fmt.Errorf("packing %s: %w", args[1], err)
		}
		fmt.Printf("Packed %s\n", args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(baaCmd)
	baaCmd.AddCommand(baaUnpackCmd)
	baaCmd.AddCommand(baaPackCmd)
}
