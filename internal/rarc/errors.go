package rarc

import "errors"

var (
	// ErrFormat reports an archive that cannot be decoded: bad magic,
	// truncated header or name bytes that are not valid Shift-JIS.
	ErrFormat = errors.New("invalid archive format")

	// ErrExists reports an insertion that would reuse a name already taken
	// by an entry of the other kind in the same directory.
	ErrExists = errors.New("entry already exists")

	// ErrNotFound reports a path that does not resolve to an entry.
	ErrNotFound = errors.New("entry not found")
)
