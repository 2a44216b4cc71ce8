package baa

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var bsftMagic = []byte("bsft")

// ParseBSFT reads a stream file table: magic, u32 string count, u32 offsets,
// then NUL-terminated ASCII strings.
func ParseBSFT(data []byte) ([]string, error) {
	if len(data) < 8 || !bytes.Equal(data[:4], bsftMagic) {
		return nil, fmt.Errorf("not a BSFT table")
	}

	count := int(binary.BigEndian.Uint32(data[4:]))
	if 8+4*count > len(data) {
		return nil, fmt.Errorf("BSFT offset table for %d strings outside buffer", count)
	}

	strings := make([]string, count)
	for i := range strings {
		offset := int(binary.BigEndian.Uint32(data[8+4*i:]))
		if offset >= len(data) {
			return nil, fmt.Errorf("BSFT string %d at 0x%X outside buffer", i, offset)
		}
		end := bytes.IndexByte(data[offset:], 0)
		if end < 0 {
			return nil, fmt.Errorf("unterminated BSFT string %d", i)
		}
		strings[i] = string(data[offset : offset+end])
	}

	return strings, nil
}

// WriteBSFT builds a stream file table, backpatching the offset table once
// the strings are appended.
func WriteBSFT(strings []string) []byte {
	out := append([]byte(nil), bsftMagic...)
	out = binary.BigEndian.AppendUint32(out, uint32(len(strings)))
	for range strings {
		out = binary.BigEndian.AppendUint32(out, 0)
	}

	for i, s := range strings {
		binary.BigEndian.PutUint32(out[8+4*i:], uint32(len(out)))
		out = append(out, s...)
		out = append(out, 0)
	}

	return out
}
