package rarc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristian64/rarctool/internal/yaz0"
)

// buildTestArchive is the 3-level tree used across the codec tests:
// root/a.bin and root/sub/b.bin.
func buildTestArchive(t *testing.T) *Archive {
	t.Helper()

	root := NewDirectory("root")
	require.NoError(t, root.AddFile(NewFile("a.bin", []byte("contents of a"))))

	sub := NewDirectory("sub")
	require.NoError(t, root.AddSubdir(sub))
	require.NoError(t, sub.AddFile(NewFile("b.bin", bytes.Repeat([]byte{0xAB, 0xCD}, 20))))

	return &Archive{Root: root}
}

func testListing(t *testing.T) map[string]ListedFile {
	t.Helper()

	compressed, err := ParseFileListing("yaz0_compressed")
	require.NoError(t, err)

	return map[string]ListedFile{
		"root/a.bin":     {ID: 0, Flags: DefaultFileListing()},
		"root/sub/b.bin": {ID: 1, Flags: compressed},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	archive := buildTestArchive(t)
	encoded, err := Encode(archive, nil)
	require.NoError(t, err)

	decoded, stats, err := Decode(encoded)
	require.NoError(t, err)

	assert.Equal(t, "root", decoded.Root.Name())
	require.Len(t, decoded.Root.Files(), 1)
	require.Len(t, decoded.Root.Subdirs(), 1)

	a := decoded.Root.Files()[0]
	assert.Equal(t, "a.bin", a.Name())
	assert.Equal(t, uint16(0), a.ID)
	assert.Equal(t, HashName("a.bin"), a.Hash)
	assert.Equal(t, DefaultFileListing(), a.Flags)
	assert.Equal(t, []byte("contents of a"), a.Data)

	sub := decoded.Root.Subdirs()[0]
	assert.Equal(t, "sub", sub.Name())
	assert.Same(t, decoded.Root, sub.Parent())
	require.Len(t, sub.Files(), 1)

	b := sub.Files()[0]
	assert.Equal(t, "b.bin", b.Name())
	assert.Equal(t, uint16(1), b.ID, "fallback ids are sequential in walk order")
	assert.Equal(t, bytes.Repeat([]byte{0xAB, 0xCD}, 20), b.Data)

	assert.Equal(t, int64(13+40), stats.DataBytes)
	assert.Zero(t, stats.CyclesSkipped)
}

func TestEncodeDeterministic(t *testing.T) {
	t.Parallel()

	archive := buildTestArchive(t)
	listing := testListing(t)

	first, err := Encode(archive, &EncodeOptions{FileListing: listing})
	require.NoError(t, err)
	second, err := Encode(archive, &EncodeOptions{FileListing: listing})
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical tree and options must encode byte-identically")
}

func TestRoundTripWithListingReproducesBytes(t *testing.T) {
	t.Parallel()

	archive := buildTestArchive(t)
	listing := testListing(t)

	original, err := Encode(archive, &EncodeOptions{FileListing: listing})
	require.NoError(t, err)

	decoded, _, err := Decode(original)
	require.NoError(t, err)

	b := decoded.Root.Subdirs()[0].Files()[0]
	assert.True(t, b.Flags.IsCompressed)
	assert.True(t, b.Flags.IsYaz0)

	// The listing a decode reconstructs must round-trip the bytes exactly.
	recovered := ListingFromArchive(decoded)
	assert.Equal(t, listing, recovered)

	repacked, err := Encode(decoded, &EncodeOptions{FileListing: recovered})
	require.NoError(t, err)
	assert.Equal(t, original, repacked)
}

func TestEncodeHeaderLayout(t *testing.T) {
	t.Parallel()

	archive := buildTestArchive(t)
	encoded, err := Encode(archive, nil)
	require.NoError(t, err)

	assert.Equal(t, []byte("RARC"), encoded[:4])
	assert.Equal(t, uint32(len(encoded)), binary.BigEndian.Uint32(encoded[0x04:]))
	assert.Equal(t, uint32(0x20), binary.BigEndian.Uint32(encoded[0x08:]))
	assert.Equal(t, uint32(2), binary.BigEndian.Uint32(encoded[0x20:]), "one node per directory")

	// Three real entries plus two synthetic ones per directory.
	assert.Equal(t, uint32(3+4), binary.BigEndian.Uint32(encoded[0x28:]))

	dataOffset := binary.BigEndian.Uint32(encoded[0x0C:]) + 0x20
	entryOffset := binary.BigEndian.Uint32(encoded[0x2C:]) + 0x20
	stringOffset := binary.BigEndian.Uint32(encoded[0x34:]) + 0x20
	assert.Zero(t, dataOffset%0x20)
	assert.Zero(t, entryOffset%0x20)
	assert.Zero(t, stringOffset%0x20)

	// The data-section size is stored twice.
	dataSize := binary.BigEndian.Uint32(encoded[0x10:])
	assert.Equal(t, dataSize, binary.BigEndian.Uint32(encoded[0x14:]))
	assert.Equal(t, uint32(len(encoded))-dataOffset, dataSize)

	// Node 0 carries the fixed root tag; node 1 the upper-cased name.
	assert.Equal(t, []byte("ROOT"), encoded[0x40:0x44])
	assert.Equal(t, []byte("SUB\x00"), encoded[0x50:0x54])
}

func TestDecodeRejectsBadInput(t *testing.T) {
	t.Parallel()

	_, _, err := Decode([]byte("WXYZ then some garbage that is long enough to pass the header check"))
	assert.ErrorIs(t, err, ErrFormat)

	_, _, err = Decode([]byte("RARC"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDecodeYaz0Wrapped(t *testing.T) {
	t.Parallel()

	archive := buildTestArchive(t)
	encoded, err := Encode(archive, nil)
	require.NoError(t, err)

	wrapped := yaz0.Compress(encoded)
	require.True(t, yaz0.IsCompressed(wrapped))

	decoded, _, err := Decode(wrapped)
	require.NoError(t, err)
	assert.Equal(t, "root", decoded.Root.Name())
	assert.Equal(t, []byte("contents of a"), decoded.Root.Files()[0].Data)
}

func TestDecodeCycleGuard(t *testing.T) {
	t.Parallel()

	archive := buildTestArchive(t)
	encoded, err := Encode(archive, nil)
	require.NoError(t, err)

	// Root's entries are a.bin, ".", "..", "sub"; repoint the "sub" entry's
	// child node index back at the root itself.
	entryOffset := int(binary.BigEndian.Uint32(encoded[0x2C:])) + 0x20
	subEntry := entryOffset + 3*fileEntryLen
	binary.BigEndian.PutUint32(encoded[subEntry+8:], 0)

	decoded, stats, err := Decode(encoded)
	require.NoError(t, err, "a cyclic archive must decode, not loop")
	assert.Equal(t, 1, stats.CyclesSkipped)
	assert.Empty(t, decoded.Root.Subdirs(), "the recursive subtree is skipped")
	assert.Len(t, decoded.Root.Files(), 1)
}

func TestEncodeLessComparator(t *testing.T) {
	t.Parallel()

	root := NewDirectory("root")
	require.NoError(t, root.AddFile(NewFile("z.bin", []byte("z"))))
	require.NoError(t, root.AddFile(NewFile("a.bin", []byte("a"))))
	archive := &Archive{Root: root}

	byName := func(a, b *File) bool { return a.Name() < b.Name() }
	encoded, err := Encode(archive, &EncodeOptions{Less: byName})
	require.NoError(t, err)

	decoded, _, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Root.Files(), 2)
	assert.Equal(t, "a.bin", decoded.Root.Files()[0].Name())
	assert.Equal(t, "z.bin", decoded.Root.Files()[1].Name())

	// Without a comparator, insertion order is preserved.
	encoded, err = Encode(archive, nil)
	require.NoError(t, err)
	decoded, _, err = Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, "z.bin", decoded.Root.Files()[0].Name())
}

func TestEncodeFallbackIDSeed(t *testing.T) {
	t.Parallel()

	root := NewDirectory("root")
	require.NoError(t, root.AddFile(NewFile("listed.bin", []byte("l"))))
	require.NoError(t, root.AddFile(NewFile("unlisted.bin", []byte("u"))))
	archive := &Archive{Root: root}

	listing := map[string]ListedFile{
		"root/listed.bin": {ID: 7, Flags: DefaultFileListing()},
	}
	encoded, err := Encode(archive, &EncodeOptions{FileListing: listing})
	require.NoError(t, err)

	decoded, _, err := Decode(encoded)
	require.NoError(t, err)
	require.Len(t, decoded.Root.Files(), 2)
	assert.Equal(t, uint16(7), decoded.Root.Files()[0].ID)
	assert.Equal(t, uint16(8), decoded.Root.Files()[1].ID, "fallback counter continues past the override")
}

func TestEncodePerFileCompressionAdapter(t *testing.T) {
	t.Parallel()

	payload := bytes.Repeat([]byte("abcd"), 64)
	root := NewDirectory("root")
	require.NoError(t, root.AddFile(NewFile("c.bin", payload)))
	archive := &Archive{Root: root}

	compressed, err := ParseFileListing("yaz0_compressed")
	require.NoError(t, err)
	listing := map[string]ListedFile{"root/c.bin": {ID: 0, Flags: compressed}}

	encoded, err := Encode(archive, &EncodeOptions{
		FileListing: listing,
		CompressFile: func(data []byte) ([]byte, error) {
			return yaz0.Compress(data), nil
		},
	})
	require.NoError(t, err)

	decoded, _, err := Decode(encoded)
	require.NoError(t, err)

	stored := decoded.Root.Files()[0].Data
	require.True(t, yaz0.IsCompressed(stored), "stored form keeps the compressed stream")
	expanded, err := yaz0.Decompress(stored)
	require.NoError(t, err)
	assert.Equal(t, payload, expanded)
}
