package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"legendastv/internal/logging"
	"legendastv/internal/media"
)

// ResponseStore is the subset of the response cache the decorator needs.
type ResponseStore interface {
	Get(bucket, key string, maxAge time.Duration) ([]byte, bool, error)
	Put(bucket, key string, data []byte) error
}

type cachedProvider struct {
	Provider
	store  ResponseStore
	ttl    time.Duration
	logger *slog.Logger
}

// WithResponseCache serves SearchTitles and SearchSubtitles from store when
// a fresh entry exists and records successful live responses. Downloads
// pass through. Cache failures are logged and never fail the call.
func WithResponseCache(p Provider, store ResponseStore, ttl time.Duration, logger *slog.Logger) Provider {
	if p == nil || store == nil {
		return p
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &cachedProvider{Provider: p, store: store, ttl: ttl, logger: logger}
}

func (c *cachedProvider) SearchTitles(ctx context.Context, text string) ([]media.TitleCandidate, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	return cachedCall(c, "titles", key, func() ([]media.TitleCandidate, error) {
		return c.Provider.SearchTitles(ctx, text)
	})
}

func (c *cachedProvider) SearchSubtitles(ctx context.Context, q SubtitleQuery) ([]media.SubtitleCandidate, error) {
	return cachedCall(c, "subtitles", q.Key(), func() ([]media.SubtitleCandidate, error) {
		return c.Provider.SearchSubtitles(ctx, q)
	})
}

func cachedCall[T any](c *cachedProvider, kind, key string, live func() ([]T, error)) ([]T, error) {
	bucket := c.Name() + "/" + kind
	if data, ok, err := c.store.Get(bucket, key, c.ttl); err != nil {
		c.logger.Warn("response cache read failed",
			slog.String("bucket", bucket),
			logging.Error(err),
		)
	} else if ok {
		var cached []T
		if err := json.Unmarshal(data, &cached); err == nil {
			c.logger.Debug("response cache hit", slog.String("bucket", bucket), slog.String("key", key))
			return cached, nil
		}
	}

	result, err := live()
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(result); err == nil {
		if err := c.store.Put(bucket, key, data); err != nil {
			c.logger.Warn("response cache write failed",
				slog.String("bucket", bucket),
				logging.Error(err),
			)
		}
	}
	return result, nil
}
