package rarc

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

// ListedFile is one override from the sidecar filelisting: the id and flag
// byte a path must be written with.
type ListedFile struct {
	ID    uint16
	Flags FileListing
}

// EncodeOptions control archive serialization.
type EncodeOptions struct {
	// FileListing maps full paths (root name included) to explicit ids and
	// flags. Files not present get default flags and the next fallback id.
	FileListing map[string]ListedFile

	// Less orders the files of each directory before their entries are
	// written. Nil keeps insertion order, which is what shipped archives
	// use.
	Less func(a, b *File) bool

	// CompressFile, when set, is applied to the content of every file whose
	// listing marks it yaz0-compressed. The adapter is expected to return
	// the original bytes when compression would not shrink them.
	CompressFile func(data []byte) ([]byte, error)
}

// Encode serializes the tree into an archive buffer. Identical trees and
// options always produce byte-identical output.
func Encode(archive *Archive, opts *EncodeOptions) ([]byte, error) {
	if opts == nil {
		opts = &EncodeOptions{}
	}
	if archive == nil || archive.Root == nil {
		return nil, fmt.Errorf("archive has no root directory")
	}

	var dirs []*Directory
	archive.Root.walk(func(d *Directory) {
		dirs = append(dirs, d)
	})

	names := newStringTable()
	for _, s := range []string{".", "..", archive.Root.Name()} {
		if err := names.Intern(s); err != nil {
			return nil, err
		}
	}
	for _, dir := range dirs {
		for _, sub := range dir.Subdirs() {
			if err := names.Intern(sub.Name()); err != nil {
				return nil, err
			}
		}
		for _, file := range dir.Files() {
			if err := names.Intern(file.Name()); err != nil {
				return nil, err
			}
		}
	}

	out := &wbuf{}

	// Header. Size and section offsets are sentinels until backpatching.
	out.raw([]byte(archiveMagic))
	out.u32(0xFFFFFFFF) // total size
	out.u32(0x20)
	out.u32(0xFFFFFFFF) // data offset
	out.zeros(16)
	out.u32(uint32(len(dirs)))
	out.u32(0x20)
	out.zeros(4)
	out.u32(0xF0F0F0F0) // file-entry-table offset
	out.zeros(4)
	out.u32(0xF0F0F0F0) // string-table offset
	out.zeros(8)

	// Node table, one 16-byte record per directory in walk order.
	firstEntryIndex := 0
	for i, dir := range dirs {
		dir.nodeIndex = i

		tag, err := nodeTypeTag(i, dir.Name())
		if err != nil {
			return nil, err
		}
		out.raw(tag)
		out.u32(names.Offset(dir.Name()))
		out.u16(HashName(dir.Name()))

		entryCount := len(dir.Subdirs()) + len(dir.Files())
		out.u16(uint16(entryCount + 2))
		out.u32(uint32(firstEntryIndex))
		firstEntryIndex += entryCount + 2 // "." and ".." per directory
	}

	out.pad32()
	entryTableOffset := out.len()

	fileID := nextFallbackID(opts.FileListing)
	data := &wbuf{}

	for _, dir := range dirs {
		files := dir.Files()
		if opts.Less != nil {
			files = append([]*File(nil), files...)
			sort.SliceStable(files, func(i, j int) bool {
				return opts.Less(files[i], files[j])
			})
		}

		dirPath := dir.AbsolutePath()
		for _, file := range files {
			meta := DefaultFileListing()
			if listed, ok := opts.FileListing[dirPath+"/"+file.Name()]; ok {
				fileID = listed.ID
				meta = listed.Flags
			}

			payload := file.Data
			if meta.IsYaz0 && meta.IsCompressed && opts.CompressFile != nil {
				compressed, err := opts.CompressFile(file.Data)
				if err != nil {
					return nil, fmt.Errorf("compressing %q: %w", file.Name(), err)
				}
				payload = compressed
			}

			out.u16(fileID)
			out.u16(HashName(file.Name()))
			out.u8(meta.ToFlags())
			out.u8(0)
			out.u16(uint16(names.Offset(file.Name())))
			out.u32(uint32(data.len()))
			out.u32(uint32(len(payload)))
			out.u32(0)

			data.raw(payload)
			data.pad32()

			fileID++
		}

		// The two synthetic entries, then the real subdirectories.
		type dirEntry struct {
			name   string
			target *Directory
		}
		entries := []dirEntry{{".", dir}, {"..", dir.Parent()}}
		for _, sub := range dir.Subdirs() {
			entries = append(entries, dirEntry{sub.Name(), sub})
		}

		for _, entry := range entries {
			childIndex := uint32(0xFFFFFFFF)
			if entry.target != nil {
				childIndex = uint32(entry.target.nodeIndex)
			}

			out.u16(0xFFFF)
			out.u16(HashName(entry.name))
			out.u8(flagDirectory)
			out.u8(0)
			out.u16(uint16(names.Offset(entry.name)))
			out.u32(childIndex)
			out.u32(0x10)
			out.u32(0)
		}
	}

	out.pad32()
	stringTableOffset := out.len()
	out.raw(names.Bytes())
	out.pad32()
	stringTableSize := out.len() - stringTableOffset

	dataOffset := out.len()
	out.raw(data.b)
	totalSize := out.len()

	// Backpatch every sentinel.
	out.patchU32(0x04, uint32(totalSize))
	out.patchU32(0x0C, uint32(dataOffset-0x20))
	out.patchU32(0x10, uint32(totalSize-dataOffset))
	out.patchU32(0x14, uint32(totalSize-dataOffset))
	out.patchU32(0x28, uint32(firstEntryIndex))
	out.patchU32(0x2C, uint32(entryTableOffset-0x20))
	out.patchU32(0x30, uint32(stringTableSize))
	out.patchU32(0x34, uint32(stringTableOffset-0x20))

	return out.b, nil
}

// nodeTypeTag builds the 4-byte tag of a node record: "ROOT" for node 0,
// otherwise the upper-cased Shift-JIS name truncated or zero-padded to 4.
func nodeTypeTag(index int, name string) ([]byte, error) {
	if index == 0 {
		return []byte("ROOT"), nil
	}

	encoded, err := encodeShiftJIS(strings.ToUpper(name))
	if err != nil {
		return nil, fmt.Errorf("encoding node tag for %q: %w", name, err)
	}
	tag := make([]byte, 4)
	copy(tag, encoded)
	return tag, nil
}

// nextFallbackID seeds the id counter one past the largest listed id, or at
// zero without a listing.
func nextFallbackID(listing map[string]ListedFile) uint16 {
	if len(listing) == 0 {
		return 0
	}
	var max uint16
	for _, listed := range listing {
		if listed.ID > max {
			max = listed.ID
		}
	}
	return max + 1
}

// wbuf is an append-only buffer with big-endian writers and in-place
// patching for the backpatch pass.
type wbuf struct {
	b []byte
}

func (w *wbuf) raw(p []byte) {
	w.b = append(w.b, p...)
}

func (w *wbuf) u8(v uint8) {
	w.b = append(w.b, v)
}

func (w *wbuf) u16(v uint16) {
	w.b = binary.BigEndian.AppendUint16(w.b, v)
}

func (w *wbuf) u32(v uint32) {
	w.b = binary.BigEndian.AppendUint32(w.b, v)
}

func (w *wbuf) zeros(n int) {
	w.b = append(w.b, make([]byte, n)...)
}

func (w *wbuf) pad32() {
	aligned := (len(w.b) + 0x1F) &^ 0x1F
	w.zeros(aligned - len(w.b))
}

func (w *wbuf) patchU32(offset int, v uint32) {
	binary.BigEndian.PutUint32(w.b[offset:], v)
}

func (w *wbuf) len() int {
	return len(w.b)
}
