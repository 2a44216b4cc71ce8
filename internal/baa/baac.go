package baa

import (
	"encoding/binary"
	"fmt"
)

// SplitBAAC splits a BAAC sub-container into its member blobs. The format is
// a u32 count followed by that many absolute offsets; each member runs to
// the next offset, the last to the end of the buffer.
func SplitBAAC(data []byte) ([][]byte, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("truncated BAAC container (%d bytes)", len(data))
	}
	count := int(binary.BigEndian.Uint32(data))
	if 4+4*count > len(data) {
		return nil, fmt.Errorf("BAAC offset table for %d members outside buffer", count)
	}

	offsets := make([]int, count)
	for i := range offsets {
		offsets[i] = int(binary.BigEndian.Uint32(data[4+4*i:]))
	}

	members := make([][]byte, count)
	for i, offset := range offsets {
		end := len(data)
		if i+1 < count {
			end = offsets[i+1]
		}
		if offset < 0 || offset > end || end > len(data) {
			return nil, fmt.Errorf("BAAC member %d spans 0x%X..0x%X outside buffer", i, offset, end)
		}
		members[i] = append([]byte(nil), data[offset:end]...)
	}

	return members, nil
}

// PackBAAC builds a BAAC sub-container. Offsets are written as placeholders
// first and backpatched once the members are laid out.
func PackBAAC(members [][]byte) []byte {
	out := binary.BigEndian.AppendUint32(nil, uint32(len(members)))
	for range members {
		out = binary.BigEndian.AppendUint32(out, 0)
	}

	offsets := make([]uint32, len(members))
	for i, member := range members {
		offsets[i] = uint32(len(out))
		out = append(out, member...)
	}

	for i, offset := range offsets {
		binary.BigEndian.PutUint32(out[4+4*i:], offset)
	}
	return out
}
