// Package wszst shells out to Wiimm's SZS tool for high-ratio Yaz0
// compression. The round trip goes through temporary files that are removed
// on every exit path.
package wszst

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// DefaultLevel matches wszst's own default and best setting.
const DefaultLevel = "9"

// Settings configure an external compression run.
type Settings struct {
	// Level is the wszst --compr argument, "0".."10".
	Level string
}

// Available reports whether the wszst binary can be found on PATH.
func Available() bool {
	_, err := exec.LookPath("wszst")
	return err == nil
}

// Compress runs "wszst COMPRESS" over the buffer and returns the compressed
// stream. When the result is not smaller than the input, the input is
// returned unchanged; compression never grows the output.
func Compress(ctx context.Context, data []byte, settings Settings) ([]byte, error) {
	if settings.Level == "" {
		settings.Level = DefaultLevel
	}

	in, err := os.CreateTemp("", "rarctool-*.arc")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	inPath := in.Name()
	outPath := inPath + ".yaz0_tmp"
	defer func() {
		os.Remove(inPath)
		os.Remove(outPath)
	}()

	if _, err := in.Write(data); err != nil {
		in.Close()
		return nil, fmt.Errorf("writing temp file: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("closing temp file: %w", err)
	}

	cmd := exec.CommandContext(ctx, "wszst", "COMPRESS", inPath,
		"--dest", outPath, "--compr", settings.Level)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("running wszst (%v): %s", err, output)
	}

	compressed, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("reading wszst output: %w", err)
	}

	if len(compressed) >= len(data) {
		slog.Warn("Compressed data not smaller than original, using uncompressed data",
			"original", len(data), "compressed", len(compressed))
		return data, nil
	}

	return compressed, nil
}
