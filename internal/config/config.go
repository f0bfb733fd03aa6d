package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"legendastv/internal/ranking"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file locations.
type Paths struct {
	CacheDir      string `toml:"cache_dir"`
	LogDir        string `toml:"log_dir"`
	HistoryDB     string `toml:"history_db"`
	BlacklistFile string `toml:"blacklist_file"`
}

// LegendasTV contains configuration for the Legendas.TV catalog.
type LegendasTV struct {
	Enabled        bool   `toml:"enabled"`
	Login          string `toml:"login"`
	Password       string `toml:"password"`
	BaseURL        string `toml:"base_url"`
	Language       string `toml:"language"`
	RequestTimeout int    `toml:"request_timeout"`
	MaxPages       int    `toml:"max_pages"`
}

// OpenSubtitles contains configuration for the OpenSubtitles REST API, used
// both as a secondary catalog and for content hash lookups.
type OpenSubtitles struct {
	Enabled        bool     `toml:"enabled"`
	APIKey         string   `toml:"api_key"`
	UserAgent      string   `toml:"user_agent"`
	UserToken      string   `toml:"user_token"`
	BaseURL        string   `toml:"base_url"`
	Languages      []string `toml:"languages"`
	HashLookup     bool     `toml:"hash_lookup"`
	RequestTimeout int      `toml:"request_timeout"`
}

// Matching contains title gate and archive filter settings.
type Matching struct {
	Similarity float64  `toml:"similarity"`
	Extensions []string `toml:"extensions"`
}

// Ranking holds the title and subtitle scoring weights.
type Ranking struct {
	TitleYear         float64 `toml:"title_year"`
	TitleType         float64 `toml:"title_type"`
	TitleSimilarity   float64 `toml:"title_similarity"`
	SubtitleTitle     float64 `toml:"subtitle_title"`
	SubtitleRelease   float64 `toml:"subtitle_release"`
	SubtitleHighlight float64 `toml:"subtitle_highlight"`
	SubtitlePack      float64 `toml:"subtitle_pack"`
	SubtitleRating    float64 `toml:"subtitle_rating"`
	SubtitleRecency   float64 `toml:"subtitle_recency"`
	RatingNeutral     float64 `toml:"rating_neutral"`
	RecencyWindowDays float64 `toml:"recency_window_days"`
}

// Resolver contains orchestration settings.
type Resolver struct {
	Providers      []string `toml:"providers"`
	CleanSubtitles bool     `toml:"clean_subtitles"`
	KeepArchives   bool     `toml:"keep_archives"`
	Overwrite      bool     `toml:"overwrite"`
	Jobs           int      `toml:"jobs"`
}

// Cache contains response and archive cache settings.
type Cache struct {
	Enabled          bool `toml:"enabled"`
	ResponseTTLHours int  `toml:"response_ttl_hours"`
	Posters          bool `toml:"posters"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	NtfyServer     string `toml:"ntfy_server"`
	RequestTimeout int    `toml:"request_timeout"`
	Progress       bool   `toml:"progress"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for legendastv.
//
// Configuration sections by subsystem:
//   - Paths: cache, log, history and blacklist locations
//   - LegendasTV: primary catalog credentials and search defaults
//   - OpenSubtitles: secondary catalog and content hash lookups
//   - Matching: title acceptance gate and archive extension filter
//   - Ranking: title and subtitle scoring weights
//   - Resolver: provider order, cleanup and batch parallelism
//   - Cache: response cache TTL and poster caching
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	LegendasTV    LegendasTV    `toml:"legendastv"`
	OpenSubtitles OpenSubtitles `toml:"opensubtitles"`
	Matching      Matching      `toml:"matching"`
	Ranking       Ranking       `toml:"ranking"`
	Resolver      Resolver      `toml:"resolver"`
	Cache         Cache         `toml:"cache"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(filepath.Join(xdgDir("XDG_CONFIG_HOME", "~/.config"), "legendastv", "config.toml"))
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("legendastv.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.ArchiveDir(), c.Paths.LogDir, filepath.Dir(c.Paths.HistoryDB)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ArchiveDir is where downloaded subtitle archives are kept, keyed by
// subtitle id.
func (c *Config) ArchiveDir() string {
	return filepath.Join(c.Paths.CacheDir, "archives")
}

// PosterDir is where catalog posters and flags are cached.
func (c *Config) PosterDir() string {
	return filepath.Join(c.Paths.CacheDir, "posters")
}

// ResponseCachePath is the bbolt file holding cached catalog responses.
func (c *Config) ResponseCachePath() string {
	return filepath.Join(c.Paths.CacheDir, "responses.db")
}

// LockPath is the lock file held during batch runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.CacheDir, "legendastv.lock")
}

// ResponseTTL returns the catalog response cache lifetime.
func (c *Config) ResponseTTL() time.Duration {
	return time.Duration(c.Cache.ResponseTTLHours) * time.Hour
}

// TitleWeights returns the configured title ranking weights.
func (c *Config) TitleWeights() ranking.TitleWeights {
	return ranking.TitleWeights{
		Year:  c.Ranking.TitleYear,
		Type:  c.Ranking.TitleType,
		Title: c.Ranking.TitleSimilarity,
	}
}

// SubtitleWeights returns the configured subtitle ranking weights.
func (c *Config) SubtitleWeights() ranking.SubtitleWeights {
	return ranking.SubtitleWeights{
		Title:             c.Ranking.SubtitleTitle,
		Release:           c.Ranking.SubtitleRelease,
		Highlight:         c.Ranking.SubtitleHighlight,
		Pack:              c.Ranking.SubtitlePack,
		Rating:            c.Ranking.SubtitleRating,
		Recency:           c.Ranking.SubtitleRecency,
		RatingNeutral:     c.Ranking.RatingNeutral,
		RecencyWindowDays: c.Ranking.RecencyWindowDays,
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// xdgDir returns the XDG base directory named by env, or fallback.
func xdgDir(env, fallback string) string {
	if base, ok := os.LookupEnv(env); ok && strings.TrimSpace(base) != "" {
		return strings.TrimSpace(base)
	}
	return fallback
}

// Sample returns the annotated sample configuration.
func Sample() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
