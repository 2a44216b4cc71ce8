package baa

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTestBAA lays out a container with one section of each record shape:
// BST (start+end), BNK (number+start, embedded size), BSFT (start only,
// sized by walking its string table).
func buildTestBAA(t *testing.T) []byte {
	t.Helper()

	u32 := binary.BigEndian.AppendUint32

	var out []byte
	out = u32(out, headerMagic)

	out = u32(out, uint32(TypeBST))
	out = u32(out, 40) // start
	out = u32(out, 48) // end

	out = u32(out, uint32(TypeBNK))
	out = u32(out, 1)  // bank number
	out = u32(out, 48) // start

	out = u32(out, uint32(TypeBSFT))
	out = u32(out, 64) // start

	out = u32(out, footerMagic)
	require.Len(t, out, 40)

	// BST payload, 8 bytes.
	out = append(out, []byte("BSTDATA\x00")...)

	// BNK payload with the embedded size word at +4.
	bnk := make([]byte, 16)
	copy(bnk, "IBNK")
	binary.BigEndian.PutUint32(bnk[4:], 16)
	out = append(out, bnk...)

	out = append(out, WriteBSFT([]string{"se.aw", "bgm.aw"})...)

	return out
}

func TestParseHeader(t *testing.T) {
	t.Parallel()

	sections, err := ParseHeader(buildTestBAA(t))
	require.NoError(t, err)
	require.Len(t, sections, 3)

	bst := sections[0]
	assert.Equal(t, TypeBST, bst.Type)
	assert.Equal(t, uint32(40), bst.Start)
	require.NotNil(t, bst.End)
	assert.Equal(t, uint32(48), *bst.End)
	assert.Nil(t, bst.Number)

	bnk := sections[1]
	assert.Equal(t, TypeBNK, bnk.Type)
	require.NotNil(t, bnk.Number)
	assert.Equal(t, uint32(1), *bnk.Number)
	assert.Equal(t, uint32(48), bnk.Start)
	assert.Nil(t, bnk.End)

	bsft := sections[2]
	assert.Equal(t, TypeBSFT, bsft.Type)
	assert.Equal(t, uint32(64), bsft.Start)
	assert.Nil(t, bsft.End)
}

func TestParseHeaderErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseHeader([]byte{0x00})
	assert.Error(t, err)

	bad := binary.BigEndian.AppendUint32(nil, 0x12345678)
	bad = binary.BigEndian.AppendUint32(bad, footerMagic)
	_, err = ParseHeader(bad)
	assert.ErrorContains(t, err, "bad magic")

	unknown := binary.BigEndian.AppendUint32(nil, headerMagic)
	unknown = binary.BigEndian.AppendUint32(unknown, 0x64656164)
	_, err = ParseHeader(unknown)
	assert.ErrorContains(t, err, "unexpected section type")

	// Header that never reaches a footer.
	unterminated := binary.BigEndian.AppendUint32(nil, headerMagic)
	_, err = ParseHeader(unterminated)
	assert.Error(t, err)
}

func TestSectionSize(t *testing.T) {
	t.Parallel()

	data := buildTestBAA(t)
	sections, err := ParseHeader(data)
	require.NoError(t, err)

	size, err := sectionSize(sections[0], data)
	require.NoError(t, err)
	assert.Equal(t, 8, size)

	size, err = sectionSize(sections[1], data)
	require.NoError(t, err)
	assert.Equal(t, 16, size)

	size, err = sectionSize(sections[2], data)
	require.NoError(t, err)
	assert.Equal(t, len(WriteBSFT([]string{"se.aw", "bgm.aw"})), size)

	_, err = sectionSize(Section{Type: TypeBFCA}, data)
	assert.Error(t, err, "BFCA sections have no computable size")
}

func TestUnpackPackRoundTrip(t *testing.T) {
	t.Parallel()

	original := buildTestBAA(t)

	srcDir := t.TempDir()
	srcPath := filepath.Join(srcDir, "sound.baa")
	require.NoError(t, os.WriteFile(srcPath, original, 0644))

	destDir := filepath.Join(srcDir, "unpacked")
	require.NoError(t, Unpack(srcPath, destDir))

	bst, err := os.ReadFile(filepath.Join(destDir, "0.bst"))
	require.NoError(t, err)
	assert.Equal(t, []byte("BSTDATA\x00"), bst)

	bnk, err := os.ReadFile(filepath.Join(destDir, "1.bnk"))
	require.NoError(t, err)
	assert.Len(t, bnk, 16)

	bsft, err := os.ReadFile(filepath.Join(destDir, "2.bsft"))
	require.NoError(t, err)
	names, err := ParseBSFT(bsft)
	require.NoError(t, err)
	assert.Equal(t, []string{"se.aw", "bgm.aw"}, names)

	repacked := filepath.Join(srcDir, "repacked.baa")
	require.NoError(t, Pack(filepath.Join(destDir, "sound.baa"+InfoSuffix), repacked))

	result, err := os.ReadFile(repacked)
	require.NoError(t, err)
	assert.Equal(t, original, result, "unpack followed by pack must reproduce the container")
}
