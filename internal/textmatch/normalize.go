package textmatch

import (
	"regexp"
	"strings"
)

var (
	leadingGroupPattern = regexp.MustCompile(`^\[.+?]`)
	separatorPattern    = regexp.MustCompile(`[\]\[}{)(.,:_-]`)
	spaceRunPattern     = regexp.MustCompile(`\s+`)
)

// Normalize converts a free-form title or release string into its comparable
// form. A leading bracketed group (usually a release group tag) is dropped,
// brackets, braces, parentheses, dots, commas, colons, underscores and
// hyphens become spaces, and whitespace runs collapse to one space. Case is preserved.
func Normalize(text string) string {
	text = leadingGroupPattern.ReplaceAllString(text, "")
	text = separatorPattern.ReplaceAllString(text, " ")
	text = spaceRunPattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ForbiddenChars lists the characters Normalize never leaves in its output.
const ForbiddenChars = "[]{}().,:_-"
