package opensubtitles

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
)

const hashChunkSize = 64 * 1024

// ErrFileTooSmall is returned by Hash for files shorter than one chunk.
var ErrFileTooSmall = errors.New("opensubtitles: file too small to hash")

// Hash computes the OpenSubtitles movie hash of the file at path: the file
// size plus the little-endian uint64 words of the first and last 64KiB,
// with wrapping addition, rendered as 16 hex digits.
func Hash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opensubtitles: open for hash: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("opensubtitles: stat for hash: %w", err)
	}
	size := info.Size()
	if size < hashChunkSize {
		return "", ErrFileTooSmall
	}

	sum := uint64(size)
	buf := make([]byte, hashChunkSize)
	for _, offset := range []int64{0, size - hashChunkSize} {
		if _, err := f.ReadAt(buf, offset); err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("opensubtitles: read for hash: %w", err)
		}
		for i := 0; i < hashChunkSize; i += 8 {
			sum += binary.LittleEndian.Uint64(buf[i:])
		}
	}
	return fmt.Sprintf("%016x", sum), nil
}
