package archive

import (
	"fmt"
	"io"
)

// Entry is one member of an archive, as seen while walking it.
type Entry struct {
	// Name is the slash separated member path, decoded to UTF-8.
	Name  string
	IsDir bool
}

// WalkFunc receives each archive member in stored order. r is only valid
// until the function returns and is nil for directories.
type WalkFunc func(entry Entry, r io.Reader) error

// Archive is a readable archive container.
type Archive interface {
	Kind() Kind
	Walk(fn WalkFunc) error
	Close() error
}

// Open sniffs the file at path and returns the matching Archive.
func Open(path string) (Archive, error) {
	kind, err := Sniff(path)
	if err != nil {
		return nil, err
	}
	switch kind {
	case Zip:
		return openZip(path)
	case Rar:
		return openRar(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
}
