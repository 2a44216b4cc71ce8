package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", Number(0))
	assert.Equal(t, "999", Number(999))
	assert.Equal(t, "1,234", Number(1234))
	assert.Equal(t, "1,234,567", Number(1234567))
	assert.Equal(t, "-1,234", Number(-1234))
}

func TestBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512B", Bytes(512))
	assert.Equal(t, "1.5KiB", Bytes(1536))
	assert.Equal(t, "5.0MiB", Bytes(5*1024*1024))
	assert.Equal(t, "2.0GiB", Bytes(2*1024*1024*1024))
}
