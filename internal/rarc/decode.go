package rarc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/cristian64/rarctool/internal/yaz0"
)

const (
	archiveMagic = "RARC"

	headerSize    = 0x40
	nodeRecordLen = 16
	fileEntryLen  = 20
)

// DecodeStats reports what the decoder walked over. DataBytes counts the
// stored (possibly compressed) payload bytes materialized into files.
type DecodeStats struct {
	DataBytes     int64
	CyclesSkipped int
}

// node is one 16-byte directory record from the node table.
type node struct {
	name       string // resolved for node 0 only
	hash       uint16
	entryCount int
	entryStart int // in 20-byte entry units
}

// Decode parses an archive buffer into a tree. A Yaz0-wrapped buffer is
// transparently decompressed first.
func Decode(data []byte) (*Archive, *DecodeStats, error) {
	if yaz0.IsCompressed(data) {
		slog.Info("Yaz0 header detected, decompressing")
		decompressed, err := yaz0.Decompress(data)
		if err != nil {
			return nil, nil, fmt.Errorf("decompressing archive: %w", err)
		}
		data = decompressed
	}

	if len(data) < headerSize {
		return nil, nil, fmt.Errorf("%w: truncated header (%d bytes)", ErrFormat, len(data))
	}
	if !bytes.Equal(data[:4], []byte(archiveMagic)) {
		return nil, nil, fmt.Errorf("%w: bad magic %q, expected Yaz0 or RARC", ErrFormat, data[:4])
	}

	dataOffset := int(binary.BigEndian.Uint32(data[0x0C:])) + 0x20
	nodeCount := int(binary.BigEndian.Uint32(data[0x20:]))
	entryOffset := int(binary.BigEndian.Uint32(data[0x2C:])) + 0x20
	stringOffset := int(binary.BigEndian.Uint32(data[0x34:])) + 0x20

	if stringOffset > len(data) || entryOffset > len(data) || dataOffset > len(data) {
		return nil, nil, fmt.Errorf("%w: section offsets outside buffer", ErrFormat)
	}
	stringTable := data[stringOffset:]

	if headerSize+nodeCount*nodeRecordLen > len(data) {
		return nil, nil, fmt.Errorf("%w: truncated node table (%d nodes)", ErrFormat, nodeCount)
	}
	if nodeCount == 0 {
		return nil, nil, fmt.Errorf("%w: archive has no root node", ErrFormat)
	}

	slog.Debug("Decoding archive", "nodes", nodeCount, "data_offset", dataOffset)

	nodes := make([]node, nodeCount)
	for i := range nodes {
		record := data[headerSize+i*nodeRecordLen:]
		nodes[i] = node{
			hash:       binary.BigEndian.Uint16(record[8:]),
			entryCount: int(binary.BigEndian.Uint16(record[10:])),
			entryStart: int(binary.BigEndian.Uint32(record[12:])),
		}
		if i == 0 {
			nameOffset := int(binary.BigEndian.Uint32(record[4:]))
			name, err := tableString(stringTable, nameOffset)
			if err != nil {
				return nil, nil, fmt.Errorf("resolving root name: %w", err)
			}
			nodes[i].name = name
		}
	}

	dec := &decoder{
		data:        data,
		nodes:       nodes,
		stringTable: stringTable,
		entryOffset: entryOffset,
		dataOffset:  dataOffset,
		stats:       &DecodeStats{},
	}

	root, err := dec.expandNode(0, nodes[0].name, nil)
	if err != nil {
		return nil, nil, err
	}

	return &Archive{Root: root}, dec.stats, nil
}

type decoder struct {
	data        []byte
	nodes       []node
	stringTable []byte
	entryOffset int
	dataOffset  int
	stats       *DecodeStats
}

// expandNode materializes one node and, recursively, every reachable child
// node. ancestors holds the node indices on the current expansion path; a
// child referencing any of them is skipped so a malformed archive cannot
// recurse forever.
func (dec *decoder) expandNode(index int, name string, ancestors []int) (*Directory, error) {
	nd := dec.nodes[index]
	dir := NewDirectory(name)
	dir.nodeIndex = index

	ancestors = append(ancestors, index)

	for i := 0; i < nd.entryCount; i++ {
		offset := dec.entryOffset + (nd.entryStart+i)*fileEntryLen
		if offset+fileEntryLen > len(dec.data) {
			return nil, fmt.Errorf("%w: file entry %d of node %d outside buffer", ErrFormat, i, index)
		}
		entry := dec.data[offset : offset+fileEntryLen]

		id := binary.BigEndian.Uint16(entry[0:])
		hash := binary.BigEndian.Uint16(entry[2:])
		flags := entry[4]
		nameOffset := int(binary.BigEndian.Uint16(entry[6:]))
		dataOrChild := binary.BigEndian.Uint32(entry[8:])
		dataSize := int(binary.BigEndian.Uint32(entry[12:]))

		entryName, err := tableString(dec.stringTable, nameOffset)
		if err != nil {
			return nil, fmt.Errorf("resolving entry name in node %d: %w", index, err)
		}

		// "." and ".." only exist in the binary form.
		if entryName == "." || entryName == ".." || entryName == "" {
			continue
		}

		if flags&flagDirectory != 0 && flags&flagFile == 0 {
			child := int(dataOrChild)
			if child < 0 || child >= len(dec.nodes) {
				slog.Warn("Directory entry references nonexistent node, skipping",
					"name", entryName, "node", child)
				continue
			}

			if containsIndex(ancestors, child) {
				slog.Warn("Detected recursive directory, skipping",
					"name", entryName, "node", child, "path", ancestors)
				dec.stats.CyclesSkipped++
				continue
			}

			sub, err := dec.expandNode(child, entryName, ancestors)
			if err != nil {
				return nil, err
			}
			if err := dir.AddSubdir(sub); err != nil {
				slog.Warn("Skipping conflicting directory entry", "name", entryName, "error", err)
			}
			continue
		}

		if flags&flagCompressed != 0 {
			slog.Debug("File is compressed", "name", entryName, "yaz0", flags&flagYaz0 != 0)
		}

		start := dec.dataOffset + int(dataOrChild)
		if start+dataSize > len(dec.data) {
			return nil, fmt.Errorf("%w: data of %q outside buffer", ErrFormat, entryName)
		}

		file := &File{
			name:  entryName,
			ID:    id,
			Hash:  hash,
			Flags: FileListingFromFlags(flags),
			Data:  append([]byte(nil), dec.data[start:start+dataSize]...),
		}
		dec.stats.DataBytes += int64(dataSize)

		if err := dir.AddFile(file); err != nil {
			slog.Warn("Skipping conflicting file entry", "name", entryName, "error", err)
		}
	}

	return dir, nil
}

func containsIndex(indices []int, index int) bool {
	for _, i := range indices {
		if i == index {
			return true
		}
	}
	return false
}
