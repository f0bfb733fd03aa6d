package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const dailyLogPrefix = "legendastv-"

// CleanupOldLogs removes daily log files in dir whose date stamp is more than
// retentionDays before now. Only names produced by DailyLogPath are
// considered. A retentionDays value of 0 disables pruning. It returns the
// number of files removed.
func CleanupOldLogs(logger *slog.Logger, dir string, retentionDays int, now time.Time) int {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	matches, err := filepath.Glob(filepath.Join(dir, LogFilePattern))
	if err != nil {
		return 0
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	cutoff := today.AddDate(0, 0, -retentionDays)

	removed := 0
	for _, path := range matches {
		day, ok := logFileDay(filepath.Base(path), now.Location())
		if !ok || !day.Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on the configured log_dir"),
				String(FieldImpact, "old log file remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}

func logFileDay(name string, loc *time.Location) (time.Time, bool) {
	stamp, ok := strings.CutPrefix(name, dailyLogPrefix)
	if !ok {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation("20060102", strings.TrimSuffix(stamp, ".log"), loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
