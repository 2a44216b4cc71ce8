package rarc

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cristian64/rarctool/internal/yaz0"
)

// FromDirectory builds an archive tree from a native directory. Entries are
// taken in directory order as reported by the OS, sorted by name, so a scan
// of the same tree is deterministic.
func FromDirectory(path string) (*Archive, error) {
	root, err := scanDirectory(path)
	if err != nil {
		return nil, err
	}
	return &Archive{Root: root}, nil
}

func scanDirectory(path string) (*Directory, error) {
	dir := NewDirectory(filepath.Base(path))

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}

	for _, entry := range entries {
		entryPath := filepath.Join(path, entry.Name())
		if entry.IsDir() {
			sub, err := scanDirectory(entryPath)
			if err != nil {
				return nil, err
			}
			if err := dir.AddSubdir(sub); err != nil {
				return nil, err
			}
			continue
		}

		if !entry.Type().IsRegular() {
			slog.Debug("Skipping irregular entry", "path", entryPath)
			continue
		}

		data, err := os.ReadFile(entryPath)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", entryPath, err)
		}
		if err := dir.AddFile(NewFile(entry.Name(), data)); err != nil {
			return nil, err
		}
	}

	return dir, nil
}

// ExtractTo projects the archive onto the filesystem below dest: each
// directory becomes a real directory and each file a real file, with
// yaz0-compressed content expanded. visit, when non-nil, is called once per
// written file.
func (a *Archive) ExtractTo(dest string, visit func(path string)) error {
	return extractDirectory(a.Root, dest, visit)
}

func extractDirectory(dir *Directory, dest string, visit func(path string)) error {
	dirPath := filepath.Join(dest, dir.Name())
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dirPath, err)
	}

	for _, file := range dir.Files() {
		filePath := filepath.Join(dirPath, file.Name())

		data := file.Data
		if file.Flags.IsCompressed && file.Flags.IsYaz0 {
			decompressed, err := yaz0.Decompress(data)
			if err != nil {
				// Some shipped archives flag files compressed that are
				// stored plain. Keep the stored bytes.
				slog.Warn("Flagged file did not decompress, writing stored bytes",
					"path", filePath, "error", err)
			} else {
				data = decompressed
			}
		} else if file.Flags.IsCompressed {
			slog.Warn("File is compressed but not with yaz0", "path", filePath)
		}

		if err := os.WriteFile(filePath, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", filePath, err)
		}
		if visit != nil {
			visit(filePath)
		}
	}

	for _, sub := range dir.Subdirs() {
		if err := extractDirectory(sub, dirPath, visit); err != nil {
			return err
		}
	}

	return nil
}

// FileCount returns the number of files in the whole tree.
func (a *Archive) FileCount() int {
	count := 0
	a.Root.walk(func(dir *Directory) {
		count += len(dir.Files())
	})
	return count
}
