package rarc

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/japanese"
)

// stringTable interns NUL-terminated Shift-JIS strings into a single blob and
// remembers the offset of each string's first occurrence. The encoder interns
// every name in a fixed walk order before querying any offset, so repeated
// encodes of the same tree lay the table out identically.
type stringTable struct {
	blob    bytes.Buffer
	offsets map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{offsets: make(map[string]uint32)}
}

// Intern appends s to the blob unless it is already present.
func (st *stringTable) Intern(s string) error {
	if _, ok := st.offsets[s]; ok {
		return nil
	}

	encoded, err := encodeShiftJIS(s)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", s, err)
	}

	st.offsets[s] = uint32(st.blob.Len())
	st.blob.Write(encoded)
	st.blob.WriteByte(0)
	return nil
}

// Offset returns the blob offset of an interned string. Querying a string
// that was never interned is a bug in the caller.
func (st *stringTable) Offset(s string) uint32 {
	off, ok := st.offsets[s]
	if !ok {
		panic(fmt.Sprintf("rarc: string %q not interned", s))
	}
	return off
}

func (st *stringTable) Size() int {
	return st.blob.Len()
}

func (st *stringTable) Bytes() []byte {
	return st.blob.Bytes()
}

func encodeShiftJIS(s string) ([]byte, error) {
	return japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
}

func decodeShiftJIS(b []byte) (string, error) {
	decoded, err := japanese.ShiftJIS.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// tableString reads the NUL-terminated string at off within the string-table
// region of an archive buffer.
func tableString(table []byte, off int) (string, error) {
	if off < 0 || off >= len(table) {
		return "", fmt.Errorf("%w: string offset 0x%X outside string table", ErrFormat, off)
	}

	end := bytes.IndexByte(table[off:], 0)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated string at offset 0x%X", ErrFormat, off)
	}

	name, err := decodeShiftJIS(table[off : off+end])
	if err != nil {
		return "", fmt.Errorf("%w: undecodable name at offset 0x%X: %v", ErrFormat, off, err)
	}
	return name, nil
}
