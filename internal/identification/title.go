package identification

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayTitle renders a guessed title for humans. Titles that arrive all
// lowercase (common in scene release names) are title-cased; anything with
// existing capitalisation is left alone.
func DisplayTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Unknown Title"
	}
	if strings.ToLower(title) != title {
		return title
	}
	return cases.Title(language.Und).String(title)
}
