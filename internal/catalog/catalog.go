package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"legendastv/internal/media"
)

// ErrProviderUnavailable marks failures talking to a remote catalog:
// network errors, unexpected status codes and unparseable responses.
var ErrProviderUnavailable = errors.New("catalog provider unavailable")

// ProviderError records which provider operation failed. It matches both
// ErrProviderUnavailable and the underlying cause with errors.Is.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: provider unavailable", e.Provider, e.Op)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrProviderUnavailable, e.Err}
}

// Unavailable wraps err as a ProviderError. Context cancellation is passed
// through untouched so callers can tell a user abort from an outage.
func Unavailable(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// SubtitleQuery selects subtitles either by catalog title id or by free
// text (usually the release name). TitleID wins when both are set.
type SubtitleQuery struct {
	TitleID  string
	Text     string
	Language string
	Type     media.MediaType
}

// Key renders the query as a stable cache key.
func (q SubtitleQuery) Key() string {
	if q.TitleID != "" {
		return "id:" + q.TitleID + "|lang:" + q.Language
	}
	return "text:" + strings.ToLower(strings.TrimSpace(q.Text)) + "|lang:" + q.Language
}

// Provider is a remote subtitle catalog.
type Provider interface {
	Name() string
	SearchTitles(ctx context.Context, text string) ([]media.TitleCandidate, error)
	SearchSubtitles(ctx context.Context, q SubtitleQuery) ([]media.SubtitleCandidate, error)
	// Download saves the archive (or bare subtitle file) for subtitleID
	// inside destDir and returns its path.
	Download(ctx context.Context, subtitleID, destDir string) (string, error)
}

// MetadataLookup identifies a video from its content rather than its name.
// Lookups are best effort; callers ignore errors.
type MetadataLookup interface {
	LookupByContentHash(ctx context.Context, videoPath string) ([]media.TitleCandidate, error)
}

// Session holds the logged-in providers shared by every resolution in a
// run. Providers are tried in order.
type Session struct {
	ID        string
	Providers []Provider
	Lookup    MetadataLookup
	Language  string
}

// NewSession creates a session over providers. lookup may be nil.
func NewSession(language string, lookup MetadataLookup, providers ...Provider) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Providers: providers,
		Lookup:    lookup,
		Language:  language,
	}
}

// Close releases providers that hold resources.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	for _, p := range s.Providers {
		if closer, ok := p.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
