package rarc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Path{"root", "sub", "a.bin"}, SplitPath("root/sub/a.bin"))
	assert.Equal(t, Path{"root", "sub"}, SplitPath(`root\sub`))
	assert.Equal(t, Path{"root"}, SplitPath("root/"))
	assert.Empty(t, SplitPath(""))
}

func TestDirectoryInsertConflicts(t *testing.T) {
	t.Parallel()

	dir := NewDirectory("root")
	require.NoError(t, dir.AddFile(NewFile("entry", []byte("x"))))

	err := dir.AddSubdir(NewDirectory("entry"))
	assert.ErrorIs(t, err, ErrExists)
	assert.Empty(t, dir.Subdirs(), "conflicting insert must leave the tree unmodified")

	require.NoError(t, dir.AddSubdir(NewDirectory("sub")))
	err = dir.AddFile(NewFile("sub", nil))
	assert.ErrorIs(t, err, ErrExists)
	assert.Len(t, dir.Files(), 1)
}

func TestDirectoryReplaceSameKind(t *testing.T) {
	t.Parallel()

	dir := NewDirectory("root")
	require.NoError(t, dir.AddFile(NewFile("a.bin", []byte("old"))))
	require.NoError(t, dir.AddFile(NewFile("a.bin", []byte("new"))))

	require.Len(t, dir.Files(), 1)
	assert.Equal(t, []byte("new"), dir.Files()[0].Data)
}

func TestArchiveLookup(t *testing.T) {
	t.Parallel()

	root := NewDirectory("root")
	sub := NewDirectory("sub")
	require.NoError(t, root.AddSubdir(sub))
	file := NewFile("a.bin", []byte("payload"))
	require.NoError(t, sub.AddFile(file))

	archive := &Archive{Root: root}

	entry, err := archive.Lookup("root/sub/a.bin")
	require.NoError(t, err)
	assert.Same(t, file, entry)

	entry, err = archive.Lookup("root/sub")
	require.NoError(t, err)
	assert.Same(t, sub, entry)

	_, err = archive.Lookup("root/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = archive.Lookup("other/sub")
	assert.ErrorIs(t, err, ErrNotFound)

	// A file in the middle of a path is a lookup failure, not a panic.
	_, err = archive.Lookup("root/sub/a.bin/deeper")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAbsolutePath(t *testing.T) {
	t.Parallel()

	root := NewDirectory("root")
	sub := NewDirectory("sub")
	inner := NewDirectory("inner")
	require.NoError(t, root.AddSubdir(sub))
	require.NoError(t, sub.AddSubdir(inner))

	assert.Equal(t, "root/sub/inner", inner.AbsolutePath())
	assert.Equal(t, "root", root.AbsolutePath())
}

func TestWalkFilesOrder(t *testing.T) {
	t.Parallel()

	root := NewDirectory("root")
	sub := NewDirectory("sub")
	require.NoError(t, root.AddFile(NewFile("a.bin", nil)))
	require.NoError(t, root.AddSubdir(sub))
	require.NoError(t, sub.AddFile(NewFile("b.bin", nil)))
	require.NoError(t, root.AddFile(NewFile("c.bin", nil)))

	var paths []string
	(&Archive{Root: root}).WalkFiles(func(path string, _ *File) {
		paths = append(paths, path)
	})

	assert.Equal(t, []string{"root/a.bin", "root/c.bin", "root/sub/b.bin"}, paths)
}
