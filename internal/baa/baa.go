// Package baa packs and unpacks the BAA audio-archive container found in
// some GameCube games. Unlike RARC it is a flat list of typed sections; the
// header stores absolute offsets that are backpatched once the section data
// has been laid out.
package baa

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

const (
	// "<_AA" and "AA_>" in big-endian byte order.
	headerMagic = 0x41415F3C
	footerMagic = 0x3E5F4141
)

// SectionType identifies one section of the container.
type SectionType uint32

const (
	TypeBAAC SectionType = 0x62616163 // custom sub-container
	TypeBFCA SectionType = 0x62666361
	TypeBMS  SectionType = 0x626D7320 // music sequence
	TypeBNK  SectionType = 0x626E6B20 // instrument bank
	TypeBSC  SectionType = 0x62736320 // sequence collection
	TypeBSFT SectionType = 0x62736674 // stream file table
	TypeBST  SectionType = 0x62737420 // sound table
	TypeBSTN SectionType = 0x6273746E // sound table names
	TypeWSYS SectionType = 0x77732020 // wave system
)

var fileExtensions = map[SectionType]string{
	TypeBAAC: ".baac",
	TypeBFCA: ".bfca",
	TypeBMS:  ".bms",
	TypeBNK:  ".bnk",
	TypeBSC:  ".bsc",
	TypeBSFT: ".bsft",
	TypeBST:  ".bst",
	TypeBSTN: ".bstn",
	TypeWSYS: ".wsy",
}

// Section is one header record. Which fields are present depends on the
// type; pointers distinguish absent fields in the JSON sidecar.
type Section struct {
	Type   SectionType `json:"type"`
	Number *uint32     `json:"number,omitempty"`
	Start  uint32      `json:"start"`
	End    *uint32     `json:"end,omitempty"`
	Flags  *uint32     `json:"flags,omitempty"`
}

// hasNumber and hasEnd describe the record shape per section type.
func (t SectionType) hasNumber() bool {
	return t == TypeWSYS || t == TypeBNK || t == TypeBMS
}

func (t SectionType) hasEnd() bool {
	switch t {
	case TypeBST, TypeBSTN, TypeBSC, TypeBMS, TypeBAAC:
		return true
	}
	return false
}

func (t SectionType) hasFlags() bool {
	return t == TypeWSYS
}

func (t SectionType) valid() bool {
	_, ok := fileExtensions[t]
	return ok
}

// ParseHeader reads the section records of a BAA buffer.
func ParseHeader(data []byte) ([]Section, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("truncated BAA header (%d bytes)", len(data))
	}
	if magic := binary.BigEndian.Uint32(data); magic != headerMagic {
		return nil, fmt.Errorf("bad magic in BAA file: 0x%08X (expected 0x%08X)", magic, uint32(headerMagic))
	}

	var sections []Section
	p := 4

	readU32 := func() (uint32, error) {
		if p+4 > len(data) {
			return 0, fmt.Errorf("truncated BAA header at offset 0x%X", p)
		}
		v := binary.BigEndian.Uint32(data[p:])
		p += 4
		return v, nil
	}

	for {
		raw, err := readU32()
		if err != nil {
			return nil, err
		}
		if raw == footerMagic {
			break
		}

		sectionType := SectionType(raw)
		if !sectionType.valid() {
			return nil, fmt.Errorf("unexpected section type in BAA file: 0x%08X", raw)
		}

		section := Section{Type: sectionType}
		if sectionType.hasNumber() {
			n, err := readU32()
			if err != nil {
				return nil, err
			}
			section.Number = &n
		}
		if section.Start, err = readU32(); err != nil {
			return nil, err
		}
		if sectionType.hasEnd() {
			end, err := readU32()
			if err != nil {
				return nil, err
			}
			section.End = &end
		}
		if sectionType.hasFlags() {
			flags, err := readU32()
			if err != nil {
				return nil, err
			}
			section.Flags = &flags
		}

		sections = append(sections, section)
	}

	return sections, nil
}

// sectionSize determines how many bytes a section occupies. Sections without
// an end offset embed their size (BNK/WSYS) or require walking their string
// table (BSFT). BFCA has no known size.
func sectionSize(section Section, data []byte) (int, error) {
	start := int(section.Start)

	switch section.Type {
	case TypeBNK, TypeWSYS:
		if start+8 > len(data) {
			return 0, fmt.Errorf("section start 0x%X outside buffer", start)
		}
		// Embedded u32 size just past the section magic.
		return int(binary.BigEndian.Uint32(data[start+4:])), nil

	case TypeBSFT:
		if start+8 > len(data) {
			return 0, fmt.Errorf("section start 0x%X outside buffer", start)
		}
		stringCount := int(binary.BigEndian.Uint32(data[start+4:]))
		maxOffset := 4 + 4 + 4*stringCount
		for i := 0; i < stringCount; i++ {
			off := start + 8 + 4*i
			if off+4 > len(data) {
				return 0, fmt.Errorf("BSFT offset table outside buffer")
			}
			if v := int(binary.BigEndian.Uint32(data[off:])); v > maxOffset {
				maxOffset = v
			}
		}
		size := maxOffset
		if stringCount > 0 {
			// The table ends where the farthest string's terminator does.
			for p := start + maxOffset; ; p++ {
				if p >= len(data) {
					return 0, fmt.Errorf("unterminated BSFT string")
				}
				size++
				if data[p] == 0 {
					break
				}
			}
		}
		return size, nil

	case TypeBFCA:
		return 0, fmt.Errorf("unable to calculate size for unknown BFCA type")

	default:
		if section.End == nil {
			return 0, fmt.Errorf("section 0x%08X has no end offset", uint32(section.Type))
		}
		return int(*section.End) - start, nil
	}
}

// InfoSuffix names the JSON sidecar written next to unpacked sections.
const InfoSuffix = "_info.json"

// Unpack splits a BAA file into numbered section files plus a JSON sidecar
// describing the original header.
func Unpack(srcPath, destDir string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", srcPath, err)
	}

	sections, err := ParseHeader(data)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", destDir, err)
	}

	for i, section := range sections {
		size, err := sectionSize(section, data)
		if err != nil {
			return fmt.Errorf("section %d: %w", i, err)
		}
		start := int(section.Start)
		if start+size > len(data) || size < 0 {
			return fmt.Errorf("section %d spans 0x%X..0x%X outside buffer", i, start, start+size)
		}

		name := fmt.Sprintf("%d%s", i, fileExtensions[section.Type])
		if err := os.WriteFile(filepath.Join(destDir, name), data[start:start+size], 0644); err != nil {
			return fmt.Errorf("writing section %d: %w", i, err)
		}
	}

	info, err := json.MarshalIndent(sections, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding section info: %w", err)
	}
	infoName := filepath.Base(srcPath) + InfoSuffix
	if err := os.WriteFile(filepath.Join(destDir, infoName), info, 0644); err != nil {
		return fmt.Errorf("writing section info: %w", err)
	}

	return nil
}

// Pack rebuilds a BAA file from an unpacked directory and its JSON sidecar.
// Section data keeps the original file order (sorted by the recorded start
// offsets) and the alignment quirks observed in shipped archives.
func Pack(infoPath, destPath string) error {
	info, err := os.ReadFile(infoPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", infoPath, err)
	}

	var sections []Section
	if err := json.Unmarshal(info, &sections); err != nil {
		return fmt.Errorf("decoding section info: %w", err)
	}

	srcDir := filepath.Dir(infoPath)

	out := []byte{}
	putU32 := func(v uint32) {
		out = binary.BigEndian.AppendUint32(out, v)
	}

	putU32(headerMagic)

	type pending struct {
		originalStart uint32
		data          []byte
		startPatch    int
		endPatch      int // -1 when the record has no end field
		sectionType   SectionType
	}
	var blobs []pending

	for i, section := range sections {
		if !section.Type.valid() {
			return fmt.Errorf("section %d: unknown type 0x%08X", i, uint32(section.Type))
		}
		putU32(uint32(section.Type))

		if section.Number != nil {
			putU32(*section.Number)
		}

		startPatch := len(out)
		putU32(0xBAAAAAAD)

		endPatch := -1
		if section.End != nil {
			endPatch = len(out)
			putU32(0xBAAAAAAD)
		}

		if section.Flags != nil {
			putU32(*section.Flags)
		}

		name := fmt.Sprintf("%d%s", i, fileExtensions[section.Type])
		data, err := os.ReadFile(filepath.Join(srcDir, name))
		if err != nil {
			return fmt.Errorf("reading section %d: %w", i, err)
		}

		blobs = append(blobs, pending{
			originalStart: section.Start,
			data:          data,
			startPatch:    startPatch,
			endPatch:      endPatch,
			sectionType:   section.Type,
		})
	}

	putU32(footerMagic)

	sort.SliceStable(blobs, func(i, j int) bool {
		return blobs[i].originalStart < blobs[j].originalStart
	})

	for _, blob := range blobs {
		start := len(out)
		out = append(out, blob.data...)
		end := len(out)

		// GCKart.baa aligns these types; the game does not care, but the
		// alignment is needed to reconstruct it identically.
		alignment := 0
		switch blob.sectionType {
		case TypeBNK:
			alignment = 16
		case TypeWSYS:
			alignment = 32
		}
		if alignment > 0 {
			aligned := (end + alignment - 1) / alignment * alignment
			out = append(out, make([]byte, aligned-end)...)
		}

		binary.BigEndian.PutUint32(out[blob.startPatch:], uint32(start))
		if blob.endPatch >= 0 {
			binary.BigEndian.PutUint32(out[blob.endPatch:], uint32(end))
		}
	}

	if err := os.WriteFile(destPath, out, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", destPath, err)
	}
	return nil
}
