package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProviders(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateRanking(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProviders() error {
	for _, name := range c.Resolver.Providers {
		switch name {
		case providerLegendasTV:
			if !c.LegendasTV.Enabled {
				return errors.New("resolver.providers lists legendastv but legendastv.enabled is false")
			}
		case providerOpenSubtitles:
			if !c.OpenSubtitles.Enabled {
				return errors.New("resolver.providers lists opensubtitles but opensubtitles.enabled is false")
			}
		default:
			return fmt.Errorf("resolver.providers: unknown provider %q", name)
		}
	}
	if c.OpenSubtitles.Enabled {
		if strings.TrimSpace(c.OpenSubtitles.APIKey) == "" {
			return errors.New("opensubtitles.api_key must be set when opensubtitles.enabled is true")
		}
		if strings.TrimSpace(c.OpenSubtitles.UserAgent) == "" {
			return errors.New("opensubtitles.user_agent must be set when opensubtitles.enabled is true")
		}
	}
	if c.Resolver.Jobs <= 0 {
		return errors.New("resolver.jobs must be positive")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositive([]keyedInt{
		{"legendastv.request_timeout", c.LegendasTV.RequestTimeout},
		{"legendastv.max_pages", c.LegendasTV.MaxPages},
		{"opensubtitles.request_timeout", c.OpenSubtitles.RequestTimeout},
		{"notifications.request_timeout", c.Notifications.RequestTimeout},
		{"cache.response_ttl_hours", c.Cache.ResponseTTLHours},
	})
}

func (c *Config) validateMatching() error {
	if c.Matching.Similarity < 0 || c.Matching.Similarity > 1 {
		return errors.New("matching.similarity must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateRanking() error {
	r := c.Ranking
	weights := []struct {
		key   string
		value float64
	}{
		{"ranking.title_year", r.TitleYear},
		{"ranking.title_type", r.TitleType},
		{"ranking.title_similarity", r.TitleSimilarity},
		{"ranking.subtitle_title", r.SubtitleTitle},
		{"ranking.subtitle_release", r.SubtitleRelease},
		{"ranking.subtitle_highlight", r.SubtitleHighlight},
		{"ranking.subtitle_pack", r.SubtitlePack},
		{"ranking.subtitle_rating", r.SubtitleRating},
		{"ranking.subtitle_recency", r.SubtitleRecency},
	}
	for _, w := range weights {
		if w.value < 0 {
			return fmt.Errorf("%s must be >= 0", w.key)
		}
	}
	if r.TitleYear+r.TitleType+r.TitleSimilarity <= 0 {
		return errors.New("ranking: title weights must not all be zero")
	}
	if c.SubtitleWeights().Max() <= 0 {
		return errors.New("ranking: subtitle weights must not all be zero")
	}
	if r.RatingNeutral < 0 || r.RatingNeutral > 1 {
		return errors.New("ranking.rating_neutral must be between 0 and 1")
	}
	if r.RecencyWindowDays < 0 {
		return errors.New("ranking.recency_window_days must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Logging.Level) {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

type keyedInt struct {
	key   string
	value int
}

func ensurePositive(values []keyedInt) error {
	for _, v := range values {
		if v.value <= 0 {
			return fmt.Errorf("%s must be positive", v.key)
		}
	}
	return nil
}
