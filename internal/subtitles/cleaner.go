package subtitles

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"legendastv/internal/cache"
)

var adPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)legendas\.?tv`),
	regexp.MustCompile(`(?i)opensubtitles`),
	regexp.MustCompile(`(?i)subtitles? by`),
	regexp.MustCompile(`(?i)legendas? (?:por|by)`),
	regexp.MustCompile(`(?i)synced? and corrected`),
	regexp.MustCompile(`(?i)sincroniza(?:do|ção|cao)`),
	regexp.MustCompile(`(?i)advertise (your|yours?) product`),
	regexp.MustCompile(`(?i)http(s)?://`),
	regexp.MustCompile(`(?i)\bwww\.`),
	regexp.MustCompile(`(?i)\bsubscene\b`),
	regexp.MustCompile(`(?i)\byts\b`),
	regexp.MustCompile(`(?i)\byify\b`),
}

var (
	utf8BOM        = []byte{0xEF, 0xBB, 0xBF}
	blockSeparator = regexp.MustCompile(`\n[ \t]*\n+`)
)

// CleanStats reports the effects of subtitle cleanup operations.
type CleanStats struct {
	RemovedCues int
	// Transcoded is set when the input was not UTF-8 and was decoded as
	// Windows-1252.
	Transcoded bool
}

// Cleaner removes advertisement cues from SRT subtitles. Cues match when
// their text hits a built-in pattern or contains a blacklisted snippet.
type Cleaner struct {
	blacklist []string
	// Renumber rewrites cue indexes sequentially after removals.
	Renumber bool
}

// NewCleaner builds a cleaner using the snippets in blacklistPath, one per
// line. Blank lines and lines starting with # are ignored. A missing file
// yields a cleaner with only the built-in patterns.
func NewCleaner(blacklistPath string) (*Cleaner, error) {
	c := &Cleaner{Renumber: true}
	if strings.TrimSpace(blacklistPath) == "" {
		return c, nil
	}
	data, err := os.ReadFile(blacklistPath)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read blacklist: %w", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c.blacklist = append(c.blacklist, strings.ToLower(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse blacklist: %w", err)
	}
	return c, nil
}

// CleanSRT removes advertisement cues using only the built-in patterns.
func CleanSRT(raw []byte) ([]byte, CleanStats) {
	return (&Cleaner{Renumber: true}).Clean(raw)
}

// Clean returns raw as UTF-8 SRT without advertisement cues.
func (c *Cleaner) Clean(raw []byte) ([]byte, CleanStats) {
	var stats CleanStats
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if !utf8.Valid(raw) {
		if decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw); err == nil {
			raw = decoded
			stats.Transcoded = true
		}
	}

	normalized := strings.ReplaceAll(string(raw), "\r\n", "\n")
	blocks := splitBlocks(normalized)
	cleaned := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if c.isAdvertisement(block) {
			stats.RemovedCues++
			continue
		}
		cleaned = append(cleaned, normalizeBlock(block))
	}
	if c.Renumber {
		for i, block := range cleaned {
			cleaned[i] = renumberBlock(block, i+1)
		}
	}
	output := strings.Join(cleaned, "\n\n")
	if !strings.HasSuffix(output, "\n") {
		output += "\n"
	}
	return []byte(output), stats
}

// CleanFile cleans the subtitle at path in place.
func (c *Cleaner) CleanFile(path string) (CleanStats, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return CleanStats{}, fmt.Errorf("read subtitle: %w", err)
	}
	cleaned, stats := c.Clean(raw)
	if err := cache.WriteFileAtomic(path, bytes.NewReader(cleaned), 0o644); err != nil {
		return CleanStats{}, err
	}
	return stats, nil
}

func splitBlocks(content string) []string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	return blockSeparator.Split(trimmed, -1)
}

func (c *Cleaner) isAdvertisement(block string) bool {
	textLines := subtitleTextLines(strings.Split(block, "\n"))
	if len(textLines) == 0 {
		return false
	}
	payload := strings.TrimSpace(strings.ToLower(strings.Join(textLines, " ")))
	if payload == "" {
		return false
	}
	for _, pattern := range adPatterns {
		if pattern.MatchString(payload) {
			return true
		}
	}
	for _, snippet := range c.blacklist {
		if strings.Contains(payload, snippet) {
			return true
		}
	}
	return false
}

func subtitleTextLines(lines []string) []string {
	start := 0
	if start < len(lines) && isNumeric(lines[start]) {
		start++
	}
	if start < len(lines) && strings.Contains(lines[start], "-->") {
		start++
	}
	if start >= len(lines) {
		return nil
	}
	text := make([]string, 0, len(lines)-start)
	for _, line := range lines[start:] {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			text = append(text, trimmed)
		}
	}
	return text
}

func normalizeBlock(block string) string {
	lines := strings.Split(block, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.Join(lines, "\n")
}

// renumberBlock replaces or inserts the cue index of a block.
func renumberBlock(block string, index int) string {
	lines := strings.Split(block, "\n")
	switch {
	case isNumeric(lines[0]):
		lines[0] = strconv.Itoa(index)
	case strings.Contains(lines[0], "-->"):
		lines = append([]string{strconv.Itoa(index)}, lines...)
	}
	return strings.Join(lines, "\n")
}

func isNumeric(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	_, err := strconv.Atoi(value)
	return err == nil
}
