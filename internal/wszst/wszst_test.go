package wszst

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressWithoutTool(t *testing.T) {
	t.Parallel()

	if Available() {
		t.Skip("wszst is installed")
	}

	_, err := Compress(context.Background(), []byte("payload"), Settings{})
	require.Error(t, err)
}

func TestCompressCanceledContext(t *testing.T) {
	t.Parallel()

	if !Available() {
		t.Skip("wszst is not installed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Compress(ctx, []byte("payload"), Settings{})
	assert.Error(t, err)
}
