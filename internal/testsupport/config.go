package testsupport

import (
	"path/filepath"
	"testing"

	"legendastv/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "state", "history.db")
	cfgVal.LegendasTV.Login = "tester"
	cfgVal.LegendasTV.Password = "secret"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithLegendasTVURL points the Legendas.TV provider at a test server.
func WithLegendasTVURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LegendasTV.BaseURL = url
	}
}

// WithOpenSubtitles enables the OpenSubtitles provider against url.
func WithOpenSubtitles(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenSubtitles.Enabled = true
		b.cfg.OpenSubtitles.APIKey = "test-key"
		b.cfg.OpenSubtitles.BaseURL = url
	}
}

// WithNtfy routes notifications to a test server.
func WithNtfy(url, topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyServer = url
		b.cfg.Notifications.NtfyTopic = topic
	}
}
