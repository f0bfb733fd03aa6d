package cache

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Archives keeps downloaded subtitle archives keyed by provider and
// subtitle id. Entries are never overwritten once stored.
type Archives struct {
	dir    string
	logger *slog.Logger
}

// NewArchives initialises an archive store rooted at dir.
func NewArchives(dir string, logger *slog.Logger) (*Archives, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("archive cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create archive cache dir: %w", err)
	}
	return &Archives{dir: dir, logger: logger}, nil
}

// Dir exposes the backing directory for inspection.
func (a *Archives) Dir() string {
	if a == nil {
		return ""
	}
	return a.dir
}

// Path returns where the archive for provider/id lives, whether or not it
// has been stored yet.
func (a *Archives) Path(provider, id string) string {
	return filepath.Join(a.dir, safeKey(provider), safeKey(id))
}

// Has reports whether the archive for provider/id is already stored.
func (a *Archives) Has(provider, id string) bool {
	if a == nil {
		return false
	}
	info, err := os.Stat(a.Path(provider, id))
	return err == nil && info.Mode().IsRegular() && info.Size() > 0
}

// Store moves the downloaded file at src into the cache and returns the
// cached path. When an entry already exists src is discarded and the
// existing entry is returned.
func (a *Archives) Store(provider, id, src string) (string, error) {
	if a == nil {
		return "", errors.New("archive cache unavailable")
	}
	if strings.TrimSpace(id) == "" {
		return "", errors.New("invalid subtitle id")
	}
	target := a.Path(provider, id)
	if a.Has(provider, id) {
		_ = os.Remove(src)
		return target, nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("ensure archive cache dir: %w", err)
	}
	if err := os.Rename(src, target); err != nil {
		// cross-device moves fall back to a copy
		if err := copyFileAtomic(src, target); err != nil {
			return "", err
		}
		_ = os.Remove(src)
	}
	if a.logger != nil {
		a.logger.Debug("archive cache stored",
			slog.String("provider", provider),
			slog.String("subtitle_id", id),
			slog.String("path", target),
		)
	}
	return target, nil
}

func safeKey(value string) string {
	value = unsafeKeyChars.ReplaceAllString(strings.TrimSpace(value), "_")
	if value == "" || value == "." || value == ".." {
		return "_"
	}
	return value
}

func copyFileAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()
	return WriteFileAtomic(dst, in, 0o644)
}

// WriteFileAtomic writes r to path through a temporary file in the same
// directory followed by a rename, so readers never observe partial files.
func WriteFileAtomic(path string, r io.Reader, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".legendastv-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
