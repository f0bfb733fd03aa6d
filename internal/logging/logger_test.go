package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"legendastv/internal/logging"
	"legendastv/internal/services"
	"legendastv/internal/testsupport"
)

func TestNewFromConfigWritesDailyFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("resolver started", logging.String("video", "movie.mkv"))

	path := logging.DailyLogPath(cfg.Paths.LogDir, time.Now())
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", data, err)
	}
	if record["msg"] != "resolver started" || record["level"] != "info" || record["video"] != "movie.mkv" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key in %v", record)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerComponentHeader(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(base, "resolver").Info("subtitle placed", logging.Int("candidates", 4))

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(content)
	if !strings.Contains(out, "[resolver] subtitle placed") {
		t.Fatalf("expected component header, got %q", out)
	}
	if !strings.Contains(out, "    candidates: 4") {
		t.Fatalf("expected indented field, got %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithVideo(ctx, "/media/movie.mkv")
	ctx = services.WithStage(ctx, "rank_subtitles")
	ctx = services.WithRequestID(ctx, "req-xyz")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	want := map[string]string{
		logging.FieldVideo:         "/media/movie.mkv",
		logging.FieldStage:         "rank_subtitles",
		logging.FieldCorrelationID: "req-xyz",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("field %s = %v, want %s", key, record[key], value)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "title search failed", "title_search_failed")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := record[key]; !ok {
			t.Fatalf("expected %s in %v", key, record)
		}
	}
}

func TestErrorWithContextKeepsCallerHint(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	attrs := append(logging.DecisionAttrs("subtitle_selection", "skipped", "below threshold"),
		logging.String(logging.FieldErrorHint, "retry with --force"))
	logging.ErrorWithContext(logger, "download failed", "download_failed", attrs...)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	want := map[string]string{
		logging.FieldEventType:      "download_failed",
		logging.FieldErrorHint:      "retry with --force",
		logging.FieldDecisionType:   "subtitle_selection",
		logging.FieldDecisionResult: "skipped",
		logging.FieldDecisionReason: "below threshold",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("field %s = %v, want %s", key, record[key], value)
		}
	}
	if _, ok := record[logging.FieldImpact]; ok {
		t.Fatalf("error lines should not carry %s: %v", logging.FieldImpact, record)
	}
	if strings.Count(buf.String(), `"`+logging.FieldErrorHint+`"`) != 1 {
		t.Fatalf("expected a single error hint, got %s", buf.String())
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.Local)
	old := filepath.Join(dir, "legendastv-20240510.log")
	edge := logging.DailyLogPath(dir, now.AddDate(0, 0, -7))
	fresh := logging.DailyLogPath(dir, now)
	stray := filepath.Join(dir, "legendastv-notes.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, edge, fresh, stray, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	if removed := logging.CleanupOldLogs(logging.NewNop(), dir, 7, now); removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected old log to be pruned, stat err=%v", err)
	}
	for _, path := range []string{edge, fresh, stray, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to remain: %v", path, err)
		}
	}
	if removed := logging.CleanupOldLogs(nil, dir, 0, now); removed != 0 {
		t.Fatalf("expected retention 0 to disable pruning, removed %d", removed)
	}
}
