package archive

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// decodeName converts member names written by legacy Windows and DOS tools to
// UTF-8. Bytes in 0x80-0xA5 indicate the DOS code page 850; anything higher
// is read as ISO-8859-15.
func decodeName(name string) string {
	if utf8.ValidString(name) {
		return name
	}
	decoder := charmap.ISO8859_15.NewDecoder()
	for i := 0; i < len(name); i++ {
		b := name[i]
		if b < 0x80 {
			continue
		}
		if b <= 0xA5 {
			decoder = charmap.CodePage850.NewDecoder()
		}
		break
	}
	decoded, err := decoder.String(name)
	if err != nil {
		return strings.ToValidUTF8(name, "_")
	}
	return decoded
}

// memberPath resolves an archive member name below dest, rejecting names that
// would escape it.
func memberPath(dest, name string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	cleaned = strings.TrimLeft(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("%w: empty member name", ErrArchiveCorrupt)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: member %q escapes destination", ErrArchiveCorrupt, name)
	}
	return filepath.Join(dest, filepath.FromSlash(cleaned)), nil
}
