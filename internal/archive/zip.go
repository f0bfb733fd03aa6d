package archive

import (
	"archive/zip"
	"fmt"
)

type zipArchive struct {
	reader *zip.ReadCloser
}

func openZip(path string) (*zipArchive, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open zip %s: %v", ErrArchiveCorrupt, path, err)
	}
	return &zipArchive{reader: reader}, nil
}

func (a *zipArchive) Kind() Kind { return Zip }

func (a *zipArchive) Walk(fn WalkFunc) error {
	for _, file := range a.reader.File {
		entry := Entry{Name: decodeName(file.Name), IsDir: file.FileInfo().IsDir()}
		if entry.IsDir {
			if err := fn(entry, nil); err != nil {
				return err
			}
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("%w: open zip member %s: %v", ErrArchiveCorrupt, entry.Name, err)
		}
		err = fn(entry, rc)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *zipArchive) Close() error {
	return a.reader.Close()
}
