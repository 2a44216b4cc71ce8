package rarc

import (
	"fmt"
	"log/slog"
	"strings"
)

// Entry flag bits as stored on disk.
const (
	flagFile       = 0x01
	flagDirectory  = 0x02
	flagCompressed = 0x04
	flagDataFile   = 0x10 // opposed to REL
	flagRelFile    = 0x20 // REL = relocatable module
	flagYaz0       = 0x80 // if clear while compressed is set, yay0
)

// FileListing describes the per-file attribute byte. Two additional bits
// (0x40 and 0x08) show up in shipped archives; they are tolerated on read and
// always cleared on write.
type FileListing struct {
	IsFile       bool
	IsDir        bool
	IsCompressed bool
	IsData       bool
	IsRel        bool
	IsYaz0       bool
}

// DefaultFileListing is an ordinary uncompressed data file.
func DefaultFileListing() FileListing {
	return FileListing{IsFile: true, IsData: true}
}

// FileListingFromFlags decodes the on-disk attribute byte.
func FileListingFromFlags(flags uint8) FileListing {
	if flags&0x40 != 0 {
		slog.Info("Unknown flag 0x40 set")
	}
	if flags&0x08 != 0 {
		slog.Info("Unknown flag 0x8 set")
	}

	return FileListing{
		IsFile:       flags&flagFile != 0,
		IsDir:        flags&flagDirectory != 0,
		IsCompressed: flags&flagCompressed != 0,
		IsData:       flags&flagDataFile != 0,
		IsRel:        flags&flagRelFile != 0,
		IsYaz0:       flags&flagYaz0 != 0,
	}
}

// ToFlags encodes the attribute byte. Unknown bits are never produced.
func (l FileListing) ToFlags() uint8 {
	var result uint8
	if l.IsFile {
		result |= flagFile
	}
	if l.IsDir {
		result |= flagDirectory
	}
	if l.IsCompressed {
		result |= flagCompressed
	}
	if l.IsData {
		result |= flagDataFile
	}
	if l.IsRel {
		result |= flagRelFile
	}
	if l.IsYaz0 {
		result |= flagYaz0
	}
	return result
}

// String renders the sidecar token form: "|"-joined tokens, empty for the
// default baseline.
func (l FileListing) String() string {
	var result []string
	if l.IsCompressed && l.IsYaz0 {
		result = append(result, "yaz0_compressed")
	}
	if l.IsRel {
		result = append(result, "rel")
	}
	return strings.Join(result, "|")
}

// ParseFileListing parses the sidecar token form. An empty string yields the
// default listing; an unrecognized token is an error.
func ParseFileListing(s string) (FileListing, error) {
	listing := DefaultFileListing()
	if s == "" {
		return listing, nil
	}

	for _, token := range strings.Split(s, "|") {
		switch token {
		case "yaz0_compressed":
			listing.IsCompressed = true
			listing.IsYaz0 = true
		case "rel":
			listing.IsData = false
			listing.IsRel = true
		default:
			return FileListing{}, fmt.Errorf("unrecognized file flag %q", token)
		}
	}

	return listing, nil
}
