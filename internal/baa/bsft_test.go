package baa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBSFTRoundTrip(t *testing.T) {
	t.Parallel()

	names := []string{"banks/se.aw", "banks/bgm.aw", ""}
	parsed, err := ParseBSFT(WriteBSFT(names))
	require.NoError(t, err)
	assert.Equal(t, names, parsed)
}

func TestBSFTEmpty(t *testing.T) {
	t.Parallel()

	table := WriteBSFT(nil)
	assert.Len(t, table, 8)

	parsed, err := ParseBSFT(table)
	require.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestParseBSFTErrors(t *testing.T) {
	t.Parallel()

	_, err := ParseBSFT([]byte("nope"))
	assert.Error(t, err)

	// Offset table larger than the buffer.
	_, err = ParseBSFT([]byte("bsft\x00\x00\x10\x00"))
	assert.Error(t, err)

	// String offset outside the buffer.
	_, err = ParseBSFT([]byte("bsft\x00\x00\x00\x01\x00\x00\x00\xFF"))
	assert.Error(t, err)

	// Unterminated string at the end of the buffer.
	_, err = ParseBSFT([]byte("bsft\x00\x00\x00\x01\x00\x00\x00\x0Cab"))
	assert.Error(t, err)
}
