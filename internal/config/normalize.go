package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLegendasTV()
	c.normalizeOpenSubtitles()
	c.normalizeMatching()
	c.normalizeResolver()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = filepath.Join(xdgDir("XDG_CACHE_HOME", "~/.cache"), "legendastv")
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	stateDir := filepath.Join(xdgDir("XDG_STATE_HOME", "~/.local/state"), "legendastv")
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(stateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = filepath.Join(stateDir, "history.db")
	}
	if c.Paths.HistoryDB, err = expandPath(c.Paths.HistoryDB); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	if c.Paths.BlacklistFile, err = expandPath(strings.TrimSpace(c.Paths.BlacklistFile)); err != nil {
		return fmt.Errorf("paths.blacklist_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLegendasTV() {
	c.LegendasTV.Login = strings.TrimSpace(c.LegendasTV.Login)
	if c.LegendasTV.Login == "" {
		if value, ok := os.LookupEnv("LEGENDASTV_LOGIN"); ok {
			c.LegendasTV.Login = strings.TrimSpace(value)
		}
	}
	if c.LegendasTV.Password == "" {
		if value, ok := os.LookupEnv("LEGENDASTV_PASSWORD"); ok {
			c.LegendasTV.Password = value
		}
	}
	c.LegendasTV.BaseURL = strings.TrimRight(strings.TrimSpace(c.LegendasTV.BaseURL), "/")
	if c.LegendasTV.BaseURL == "" {
		c.LegendasTV.BaseURL = defaultLegendasTVBaseURL
	}
	c.LegendasTV.Language = strings.ToLower(strings.TrimSpace(c.LegendasTV.Language))
	if c.LegendasTV.Language == "" {
		c.LegendasTV.Language = defaultLegendasTVLanguage
	}
	if c.LegendasTV.MaxPages <= 0 {
		c.LegendasTV.MaxPages = defaultMaxPages
	}
}

func (c *Config) normalizeOpenSubtitles() {
	c.OpenSubtitles.APIKey = strings.TrimSpace(c.OpenSubtitles.APIKey)
	if c.OpenSubtitles.APIKey == "" {
		if value, ok := os.LookupEnv("OPENSUBTITLES_API_KEY"); ok {
			c.OpenSubtitles.APIKey = strings.TrimSpace(value)
		}
	}
	c.OpenSubtitles.UserToken = strings.TrimSpace(c.OpenSubtitles.UserToken)
	if c.OpenSubtitles.UserToken == "" {
		if value, ok := os.LookupEnv("OPENSUBTITLES_USER_TOKEN"); ok {
			c.OpenSubtitles.UserToken = strings.TrimSpace(value)
		}
	}
	c.OpenSubtitles.UserAgent = strings.TrimSpace(c.OpenSubtitles.UserAgent)
	if c.OpenSubtitles.UserAgent == "" {
		c.OpenSubtitles.UserAgent = defaultOpenSubtitlesUserAgent
	}
	c.OpenSubtitles.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenSubtitles.BaseURL), "/")
	if c.OpenSubtitles.BaseURL == "" {
		c.OpenSubtitles.BaseURL = defaultOpenSubtitlesBaseURL
	}
	c.OpenSubtitles.Languages = dedupeLower(c.OpenSubtitles.Languages)
	if len(c.OpenSubtitles.Languages) == 0 {
		c.OpenSubtitles.Languages = []string{defaultLegendasTVLanguage}
	}
}

func (c *Config) normalizeMatching() {
	exts := make([]string, 0, len(c.Matching.Extensions))
	for _, ext := range dedupeLower(c.Matching.Extensions) {
		if ext = strings.TrimPrefix(ext, "."); ext != "" {
			exts = append(exts, ext)
		}
	}
	c.Matching.Extensions = exts
}

func (c *Config) normalizeResolver() {
	c.Resolver.Providers = dedupeLower(c.Resolver.Providers)
	if len(c.Resolver.Providers) == 0 {
		c.Resolver.Providers = []string{providerLegendasTV}
	}
	if c.Resolver.Jobs <= 0 {
		c.Resolver.Jobs = defaultJobs
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Notifications.NtfyServer = strings.TrimRight(strings.TrimSpace(c.Notifications.NtfyServer), "/")
	if c.Notifications.NtfyServer == "" {
		c.Notifications.NtfyServer = defaultNtfyServer
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func dedupeLower(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
