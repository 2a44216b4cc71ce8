package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cristian64/rarctool/internal/config"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	cfgFile string

	catalogPath string
	wszstLevel  string
	logLevel    string
	logFormat   string
	noProgress  bool
)

var rootCmd = &cobra.Command{
	Use:   "rarctool",
	Short: "GameCube/Wii RARC archive packing and extraction tool",
	Long: `rarctool reads and writes RARC archive containers (.arc/.szs) as used by
GameCube and Wii games.

Archives can be extracted to a plain directory tree and repacked
byte-for-byte using the filelisting.txt sidecar that extraction leaves
behind. Yaz0-compressed archives are handled transparently; wszst (Wiimm's
SZS tools) can be used for high-ratio compression when installed.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if cmd.Flags().Changed("catalog") {
			cfg.Catalog = catalogPath
		}
		if cmd.Flags().Changed("wszst-level") {
			cfg.WszstLevel = wszstLevel
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			cfg.LogFormat = logFormat
		}

		var level slog.Level
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		default:
			level = slog.LevelInfo
		}

		var handler slog.Handler
		if cfg.LogFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level: level,
			})
		} else {
			handler = tint.NewHandler(os.Stderr, &tint.Options{
				Level: level,
			})
		}

		slog.SetDefault(slog.New(handler))

		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is rarctool.yaml in pwd)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog database file path")
	rootCmd.PersistentFlags().StringVar(&wszstLevel, "wszst-level", "", "wszst compression level (0..10)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "disable progress bar")
}
