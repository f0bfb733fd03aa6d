package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Options control Extract.
type Options struct {
	// Dest is the extraction directory. Defaults to the archive path without
	// its extension.
	Dest string
	// Extensions filters the returned files (case-insensitive, with or
	// without the leading dot). Empty returns every extracted file.
	Extensions []string
	// Keep retains the source archive after a successful extraction.
	Keep bool
}

// Extract unpacks the archive at archivePath and returns the extracted files
// matching opts.Extensions, in archive order. Nested ZIP and RAR members that
// do not match the filter are unpacked next to themselves with the same
// filter and their results are included.
func Extract(archivePath string, opts Options) ([]string, error) {
	dest := opts.Dest
	if dest == "" {
		dest = strings.TrimSuffix(archivePath, filepath.Ext(archivePath))
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}

	arc, err := Open(archivePath)
	if err != nil {
		return nil, err
	}

	var written []string
	walkErr := arc.Walk(func(entry Entry, r io.Reader) error {
		target, err := memberPath(dest, entry.Name)
		if err != nil {
			return err
		}
		if entry.IsDir {
			return os.MkdirAll(target, 0o755)
		}
		if err := writeMember(target, r); err != nil {
			return err
		}
		written = append(written, target)
		return nil
	})
	closeErr := arc.Close()
	if walkErr != nil {
		return nil, walkErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close archive: %w", closeErr)
	}

	filter := extensionSet(opts.Extensions)
	var matched []string
	for _, path := range written {
		ext := extension(path)
		switch {
		case len(filter) == 0 || filter[ext]:
			matched = append(matched, path)
		case ext == "zip" || ext == "rar":
			nested, err := Extract(path, Options{Extensions: opts.Extensions, Keep: true})
			if err != nil {
				return nil, fmt.Errorf("nested archive %s: %w", filepath.Base(path), err)
			}
			matched = append(matched, nested...)
		}
	}

	if !opts.Keep {
		if err := os.Remove(archivePath); err != nil {
			return nil, fmt.Errorf("remove archive: %w", err)
		}
	}
	return matched, nil
}

func writeMember(target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create member dir: %w", err)
	}
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("%w: extract %s: %v", ErrArchiveCorrupt, filepath.Base(target), err)
	}
	return out.Close()
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = true
		}
	}
	return set
}

func extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
