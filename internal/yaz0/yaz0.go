// Package yaz0 implements the Yaz0 run-length compression scheme used to
// wrap whole archives and individual files on the GameCube and Wii.
//
// A stream is a 16-byte header ("Yaz0" magic, big-endian decompressed size,
// eight reserved bytes) followed by groups of one code byte and eight chunks.
// A set code bit copies one literal byte; a clear bit encodes a
// back-reference of up to 0x111 bytes reaching up to 0x1000 bytes back.
package yaz0

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const magic = "Yaz0"

const (
	headerSize  = 16
	maxDistance = 0x1000
	maxRunShort = 0x11  // 2-byte chunk
	maxRunLong  = 0x111 // 3-byte chunk
)

// ErrCorrupt reports a stream that cannot be decompressed.
var ErrCorrupt = errors.New("corrupt yaz0 stream")

// IsCompressed reports whether the buffer starts with the Yaz0 magic.
func IsCompressed(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == magic
}

// Decompress expands a full Yaz0 stream into a new buffer.
func Decompress(data []byte) ([]byte, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: truncated header", ErrCorrupt)
	}
	if !IsCompressed(data) {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[:4])
	}

	size := binary.BigEndian.Uint32(data[4:])
	out := make([]byte, 0, size)
	src := headerSize

	var code byte
	var codeBits int

	for uint32(len(out)) < size {
		if codeBits == 0 {
			if src >= len(data) {
				return nil, fmt.Errorf("%w: truncated stream", ErrCorrupt)
			}
			code = data[src]
			src++
			codeBits = 8
		}

		if code&0x80 != 0 {
			if src >= len(data) {
				return nil, fmt.Errorf("%w: truncated literal", ErrCorrupt)
			}
			out = append(out, data[src])
			src++
		} else {
			if src+2 > len(data) {
				return nil, fmt.Errorf("%w: truncated back-reference", ErrCorrupt)
			}
			b1, b2 := data[src], data[src+1]
			src += 2

			distance := (int(b1&0x0F)<<8 | int(b2)) + 1
			count := int(b1 >> 4)
			if count == 0 {
				if src >= len(data) {
					return nil, fmt.Errorf("%w: truncated long back-reference", ErrCorrupt)
				}
				count = int(data[src]) + 0x12
				src++
			} else {
				count += 2
			}

			pos := len(out) - distance
			if pos < 0 {
				return nil, fmt.Errorf("%w: back-reference before stream start", ErrCorrupt)
			}
			for i := 0; i < count; i++ {
				out = append(out, out[pos+i])
			}
		}

		code <<= 1
		codeBits--
	}

	return out[:size], nil
}

// Compress produces a valid Yaz0 stream for the buffer using a greedy
// longest-match search. Output for a given input is deterministic.
func Compress(data []byte) []byte {
	out := make([]byte, headerSize, headerSize+len(data)/2)
	copy(out, magic)
	binary.BigEndian.PutUint32(out[4:], uint32(len(data)))

	var group [3 * 8]byte
	groupLen := 0
	var code byte
	chunks := 0

	flush := func() {
		out = append(out, code)
		out = append(out, group[:groupLen]...)
		code = 0
		groupLen = 0
		chunks = 0
	}

	pos := 0
	for pos < len(data) {
		distance, length := findMatch(data, pos)

		if length >= 3 {
			// Clear bit: back-reference chunk.
			if length <= maxRunShort {
				group[groupLen] = byte(length-2)<<4 | byte((distance-1)>>8)
				group[groupLen+1] = byte(distance - 1)
				groupLen += 2
			} else {
				group[groupLen] = byte((distance - 1) >> 8)
				group[groupLen+1] = byte(distance - 1)
				group[groupLen+2] = byte(length - 0x12)
				groupLen += 3
			}
			pos += length
		} else {
			code |= 0x80 >> chunks
			group[groupLen] = data[pos]
			groupLen++
			pos++
		}

		chunks++
		if chunks == 8 {
			flush()
		}
	}

	if chunks > 0 {
		flush()
	}

	return out
}

// CompressIfSmaller compresses the buffer and reports whether the result is
// actually smaller. When it is not, the original buffer is returned unchanged.
func CompressIfSmaller(data []byte) ([]byte, bool) {
	compressed := Compress(data)
	if len(compressed) >= len(data) {
		return data, false
	}
	return compressed, true
}

// findMatch returns the longest back-reference at pos within the sliding
// window, favoring the closest occurrence on ties.
func findMatch(data []byte, pos int) (distance, length int) {
	windowStart := pos - maxDistance
	if windowStart < 0 {
		windowStart = 0
	}

	maxLength := len(data) - pos
	if maxLength > maxRunLong {
		maxLength = maxRunLong
	}
	if maxLength < 3 {
		return 0, 0
	}

	for candidate := pos - 1; candidate >= windowStart; candidate-- {
		if data[candidate] != data[pos] {
			continue
		}

		run := 1
		for run < maxLength && data[candidate+run] == data[pos+run] {
			run++
		}

		if run > length {
			length = run
			distance = pos - candidate
			if length == maxLength {
				break
			}
		}
	}

	if length < 3 {
		return 0, 0
	}
	return distance, length
}
