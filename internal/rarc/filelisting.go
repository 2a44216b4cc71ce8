package rarc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FileListingName is the sidecar written next to an extracted tree. It pins
// ids and flags so a repack reproduces the source archive byte-for-byte.
const FileListingName = "filelisting.txt"

// ReadFileListing parses the sidecar: one "path id [flags]" line per file,
// "#" comment lines ignored.
func ReadFileListing(r io.Reader) (map[string]ListedFile, error) {
	listing := make(map[string]ListedFile)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, " ")
		if len(fields) != 2 && len(fields) != 3 {
			return nil, fmt.Errorf("filelisting line %d: expected \"path id [flags]\", got %q", lineNo, line)
		}

		id, err := strconv.ParseUint(fields[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("filelisting line %d: bad file id %q: %w", lineNo, fields[1], err)
		}

		flags := DefaultFileListing()
		if len(fields) == 3 {
			flags, err = ParseFileListing(fields[2])
			if err != nil {
				return nil, fmt.Errorf("filelisting line %d: %w", lineNo, err)
			}
		}

		listing[fields[0]] = ListedFile{ID: uint16(id), Flags: flags}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading filelisting: %w", err)
	}

	return listing, nil
}

// WriteFileListing emits the sidecar for a decoded archive, one file per
// line in walk order.
func WriteFileListing(w io.Writer, archive *Archive) error {
	if _, err := fmt.Fprintln(w, "# DO NOT TOUCH THIS FILE"); err != nil {
		return err
	}

	var walkErr error
	archive.WalkFiles(func(path string, file *File) {
		if walkErr != nil {
			return
		}
		line := fmt.Sprintf("%s %d", path, file.ID)
		if tokens := file.Flags.String(); tokens != "" {
			line += " " + tokens
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			walkErr = err
		}
	})

	return walkErr
}

// ListingFromArchive rebuilds the override table a decoded archive would
// round-trip with, keyed by full path.
func ListingFromArchive(archive *Archive) map[string]ListedFile {
	listing := make(map[string]ListedFile)
	archive.WalkFiles(func(path string, file *File) {
		listing[path] = ListedFile{ID: file.ID, Flags: file.Flags}
	})
	return listing
}
