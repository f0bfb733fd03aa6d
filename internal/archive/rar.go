package archive

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nwaples/rardecode"
)

type rarArchive struct {
	path string
	file *os.File
}

func openRar(path string) (*rarArchive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rar %s: %w", path, err)
	}
	return &rarArchive{path: path, file: f}, nil
}

func (a *rarArchive) Kind() Kind { return Rar }

// Walk streams the archive from the start; RAR members can only be read in
// stored order.
func (a *rarArchive) Walk(fn WalkFunc) error {
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind rar %s: %w", a.path, err)
	}
	reader, err := rardecode.NewReader(a.file, "")
	if err != nil {
		return fmt.Errorf("%w: open rar %s: %v", ErrArchiveCorrupt, a.path, err)
	}
	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: read rar %s: %v", ErrArchiveCorrupt, a.path, err)
		}
		entry := Entry{Name: decodeName(header.Name), IsDir: header.IsDir}
		var r io.Reader
		if !entry.IsDir {
			r = reader
		}
		if err := fn(entry, r); err != nil {
			return err
		}
	}
}

func (a *rarArchive) Close() error {
	return a.file.Close()
}
