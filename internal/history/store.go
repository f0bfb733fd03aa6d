package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one finished resolution attempt.
type Record struct {
	ID              int64
	RequestID       string
	SessionID       string
	VideoPath       string
	Status          string
	Title           string
	Year            string
	Season          int
	Episode         int
	Provider        string
	SubtitleID      string
	SubtitleRelease string
	Score           float64
	OutputPath      string
	Error           string
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Status    string
	VideoPath string
	Limit     int
}

// Store persists resolution records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the history database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Add inserts rec and returns its row id.
func (s *Store) Add(ctx context.Context, rec Record) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("history: store is closed")
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = rec.FinishedAt
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO resolutions (
            request_id, session_id, video_path, status, title, year, season, episode,
            provider, subtitle_id, subtitle_release, score, output_path, error_message,
            started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RequestID,
		nullableString(rec.SessionID),
		rec.VideoPath,
		rec.Status,
		nullableString(rec.Title),
		nullableString(rec.Year),
		rec.Season,
		rec.Episode,
		nullableString(rec.Provider),
		nullableString(rec.SubtitleID),
		nullableString(rec.SubtitleRelease),
		rec.Score,
		nullableString(rec.OutputPath),
		nullableString(rec.Error),
		formatTime(rec.StartedAt),
		formatTime(rec.FinishedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert resolution: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	query := `SELECT id, request_id, session_id, video_path, status, title, year, season, episode,
        provider, subtitle_id, subtitle_release, score, output_path, error_message,
        started_at, finished_at FROM resolutions`
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.VideoPath != "" {
		clauses = append(clauses, "video_path = ?")
		args = append(args, filter.VideoPath)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY finished_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query resolutions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolutions: %w", err)
	}
	return records, nil
}

// Prune deletes records that finished before cutoff and reports how many
// were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM resolutions WHERE finished_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune resolutions: %w", err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec                                          Record
		sessionID, title, year, provider, subtitleID sql.NullString
		subtitleRelease, outputPath, errMsg          sql.NullString
		startedAt, finishedAt                        string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.RequestID,
		&sessionID,
		&rec.VideoPath,
		&rec.Status,
		&title,
		&year,
		&rec.Season,
		&rec.Episode,
		&provider,
		&subtitleID,
		&subtitleRelease,
		&rec.Score,
		&outputPath,
		&errMsg,
		&startedAt,
		&finishedAt,
	); err != nil {
		return Record{}, fmt.Errorf("scan resolution: %w", err)
	}
	rec.SessionID = sessionID.String
	rec.Title = title.String
	rec.Year = year.String
	rec.Provider = provider.String
	rec.SubtitleID = subtitleID.String
	rec.SubtitleRelease = subtitleRelease.String
	rec.OutputPath = outputPath.String
	rec.Error = errMsg.String
	rec.StartedAt = parseTime(startedAt)
	rec.FinishedAt = parseTime(finishedAt)
	return rec, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
