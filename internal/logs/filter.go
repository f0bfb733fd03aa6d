package logs

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Filter selects JSON log records. Zero values match everything. Lines that
// are not JSON only pass an empty filter.
type Filter struct {
	// Level is the minimum level (debug, info, warn, error).
	Level         string
	CorrelationID string
	// Video matches when the record's video path contains it.
	Video    string
	Provider string
}

// Empty reports whether the filter matches every line.
func (f Filter) Empty() bool {
	return f == Filter{}
}

// Record is the decoded form of one JSON log line.
type Record struct {
	Time    string
	Level   string
	Message string
	Fields  map[string]any
}

// Parse decodes a JSON log line.
func Parse(line string) (Record, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return Record{}, false
	}
	rec := Record{
		Time:    stringField(fields, "ts"),
		Level:   stringField(fields, "level"),
		Message: stringField(fields, "msg"),
		Fields:  fields,
	}
	delete(fields, "ts")
	delete(fields, "level")
	delete(fields, "msg")
	return rec, true
}

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if f.Empty() {
		return true
	}
	rec, ok := Parse(line)
	if !ok {
		return false
	}
	if f.Level != "" && levelOf(rec.Level) < levelOf(f.Level) {
		return false
	}
	if f.CorrelationID != "" && stringField(rec.Fields, "correlation_id") != f.CorrelationID {
		return false
	}
	if f.Video != "" && !strings.Contains(stringField(rec.Fields, "video"), f.Video) {
		return false
	}
	if f.Provider != "" && !strings.EqualFold(stringField(rec.Fields, "provider"), f.Provider) {
		return false
	}
	return true
}

// Format renders a JSON log line as "ts LEVEL msg key=value ...", keys
// sorted. Other lines are returned unchanged.
func Format(line string) string {
	rec, ok := Parse(line)
	if !ok {
		return line
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-5s %s", rec.Time, strings.ToUpper(rec.Level), rec.Message)
	keys := make([]string, 0, len(rec.Fields))
	for key := range rec.Fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, rec.Fields[key])
	}
	return b.String()
}

func levelOf(value string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func stringField(fields map[string]any, key string) string {
	if value, ok := fields[key].(string); ok {
		return value
	}
	return ""
}
