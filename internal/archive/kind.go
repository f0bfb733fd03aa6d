package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Kind identifies an archive container format.
type Kind int

const (
	Unsupported Kind = iota
	Zip
	Rar
)

func (k Kind) String() string {
	switch k {
	case Zip:
		return "zip"
	case Rar:
		return "rar"
	default:
		return "unsupported"
	}
}

var (
	// ErrArchiveCorrupt marks archives that cannot be read or yield no usable
	// files.
	ErrArchiveCorrupt = errors.New("archive corrupt")
	// ErrUnsupported is returned for content that is neither ZIP nor RAR.
	ErrUnsupported = fmt.Errorf("%w: unsupported archive format", ErrArchiveCorrupt)
)

var (
	zipLocalMagic = []byte("PK\x03\x04")
	zipEmptyMagic = []byte("PK\x05\x06")
	rar4Magic     = []byte("Rar!\x1a\x07\x00")
	rar5Magic     = []byte("Rar!\x1a\x07\x01\x00")
)

// SniffBytes classifies an archive from its leading bytes.
func SniffBytes(head []byte) Kind {
	switch {
	case bytes.HasPrefix(head, zipLocalMagic), bytes.HasPrefix(head, zipEmptyMagic):
		return Zip
	case bytes.HasPrefix(head, rar4Magic), bytes.HasPrefix(head, rar5Magic):
		return Rar
	default:
		return Unsupported
	}
}

// Sniff reads the first bytes of the file at path and classifies it.
func Sniff(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unsupported, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	head := make([]byte, len(rar5Magic))
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Unsupported, fmt.Errorf("read archive header: %w", err)
	}
	return SniffBytes(head[:n]), nil
}
