package rarc

import (
	"fmt"
	"strings"
)

// Entry is either a *Directory or a *File.
type Entry interface {
	Name() string
}

// Path is an ordered sequence of path segments.
type Path []string

// SplitPath splits a path on forward or backward slashes, dropping empty
// segments.
func SplitPath(path string) Path {
	segments := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	return Path(segments)
}

// File is a named blob inside an archive. Data holds the stored
// representation: if the listing marks the file compressed, Data is the
// compressed stream.
type File struct {
	name string

	// ID is the 16-bit disk identity. Not required to be unique.
	ID uint16

	// Hash is the stored name hash. Advisory; never validated on decode.
	Hash uint16

	// Flags is the decoded attribute byte.
	Flags FileListing

	Data []byte
}

// NewFile creates a file with default flags and the name hash precomputed.
func NewFile(name string, data []byte) *File {
	return &File{
		name:  name,
		Hash:  HashName(name),
		Flags: DefaultFileListing(),
		Data:  data,
	}
}

func (f *File) Name() string { return f.name }

// Directory is an owned tree node. Children keep insertion order, which is
// also the deterministic encode order.
type Directory struct {
	name      string
	parent    *Directory
	nodeIndex int // assigned transiently during decode/encode

	subdirs []*Directory
	files   []*File
	byName  map[string]Entry
}

// NewDirectory creates an empty directory.
func NewDirectory(name string) *Directory {
	return &Directory{name: name, byName: make(map[string]Entry)}
}

func (d *Directory) Name() string { return d.name }

// Parent returns the containing directory, or nil for the root.
func (d *Directory) Parent() *Directory { return d.parent }

// Subdirs returns the child directories in insertion order.
func (d *Directory) Subdirs() []*Directory { return d.subdirs }

// Files returns the child files in insertion order.
func (d *Directory) Files() []*File { return d.files }

// AddFile inserts a file. A file may replace an existing file of the same
// name, but a name already taken by a subdirectory is a conflict.
func (d *Directory) AddFile(f *File) error {
	if existing, ok := d.byName[f.Name()]; ok {
		if _, isDir := existing.(*Directory); isDir {
			return fmt.Errorf("%w: %q is a directory", ErrExists, f.Name())
		}
		for i, old := range d.files {
			if old.Name() == f.Name() {
				d.files[i] = f
				break
			}
		}
		d.byName[f.Name()] = f
		return nil
	}

	d.files = append(d.files, f)
	d.byName[f.Name()] = f
	return nil
}

// AddSubdir inserts a child directory and sets its parent back-reference. A
// name already taken by a file is a conflict.
func (d *Directory) AddSubdir(sub *Directory) error {
	if existing, ok := d.byName[sub.Name()]; ok {
		if _, isFile := existing.(*File); isFile {
			return fmt.Errorf("%w: %q is a file", ErrExists, sub.Name())
		}
		for i, old := range d.subdirs {
			if old.Name() == sub.Name() {
				d.subdirs[i] = sub
				break
			}
		}
		sub.parent = d
		d.byName[sub.Name()] = sub
		return nil
	}

	sub.parent = d
	d.subdirs = append(d.subdirs, sub)
	d.byName[sub.Name()] = sub
	return nil
}

// Lookup descends the remaining path segments below this directory.
func (d *Directory) Lookup(path Path) (Entry, error) {
	current := d
	for i, segment := range path {
		entry, ok := current.byName[segment]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, strings.Join(path, "/"))
		}

		if i == len(path)-1 {
			return entry, nil
		}

		sub, ok := entry.(*Directory)
		if !ok {
			return nil, fmt.Errorf("%w: %q is a file, not a directory", ErrNotFound, segment)
		}
		current = sub
	}

	return current, nil
}

// AbsolutePath reconstructs the slash-joined path from the root down to this
// directory, root name included.
func (d *Directory) AbsolutePath() string {
	name := d.name
	for parent := d.parent; parent != nil; parent = parent.parent {
		name = parent.name + "/" + name
	}
	return name
}

// walk visits this directory and every descendant in pre-order.
func (d *Directory) walk(visit func(*Directory)) {
	visit(d)
	for _, sub := range d.subdirs {
		sub.walk(visit)
	}
}

// Archive owns exactly one root directory.
type Archive struct {
	Root *Directory
}

// WalkFiles visits every file in deterministic pre-order with its full
// slash-joined path, root name included.
func (a *Archive) WalkFiles(visit func(path string, file *File)) {
	a.Root.walk(func(dir *Directory) {
		dirPath := dir.AbsolutePath()
		for _, file := range dir.files {
			visit(dirPath+"/"+file.Name(), file)
		}
	})
}

// Lookup resolves a full path. The first segment must name the root.
func (a *Archive) Lookup(path string) (Entry, error) {
	segments := SplitPath(path)
	if len(segments) == 0 || segments[0] != a.Root.Name() {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	return a.Root.Lookup(segments[1:])
}
