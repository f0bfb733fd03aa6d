package opensubtitles

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"legendastv/internal/cache"
	"legendastv/internal/catalog"
	"legendastv/internal/language"
	"legendastv/internal/logging"
	"legendastv/internal/media"
	"legendastv/internal/services"
)

const providerName = "opensubtitles"

// Provider exposes the OpenSubtitles API as a catalog.Provider and, through
// the movie hash endpoint, as a catalog.MetadataLookup.
type Provider struct {
	client     *Client
	languages  []string
	hashLookup bool
	logger     *slog.Logger
}

// NewProvider wraps client. languages are fallback short codes used when a
// query does not name one.
func NewProvider(client *Client, languages []string, hashLookup bool, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Provider{
		client:     client,
		languages:  language.NormalizeList(languages),
		hashLookup: hashLookup,
		logger:     logger,
	}
}

// Factory builds a provider from the loaded configuration.
func Factory(_ context.Context, deps catalog.Deps) (catalog.Provider, error) {
	p, err := newFromDeps(deps)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewLookup builds the content hash lookup from the loaded configuration.
// It returns nil when OpenSubtitles or hash lookups are disabled.
func NewLookup(deps catalog.Deps) (catalog.MetadataLookup, error) {
	cfg := deps.Config.OpenSubtitles
	if !cfg.Enabled || !cfg.HashLookup {
		return nil, nil
	}
	p, err := newFromDeps(deps)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newFromDeps(deps catalog.Deps) (*Provider, error) {
	cfg := deps.Config.OpenSubtitles
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.RequestTimeout) * time.Second}
	}
	client, err := New(Config{
		APIKey:     cfg.APIKey,
		UserAgent:  cfg.UserAgent,
		UserToken:  cfg.UserToken,
		BaseURL:    cfg.BaseURL,
		HTTPClient: httpClient,
		Limiter:    &services.Limiter{Name: providerName, Logger: deps.Logger},
	})
	if err != nil {
		return nil, err
	}
	return NewProvider(client, cfg.Languages, cfg.HashLookup, logging.NewComponentLogger(deps.Logger, providerName)), nil
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) SearchTitles(ctx context.Context, text string) ([]media.TitleCandidate, error) {
	features, err := p.client.Features(ctx, text)
	if err != nil {
		return nil, catalog.Unavailable(providerName, "search titles", err)
	}
	titles := make([]media.TitleCandidate, 0, len(features))
	for _, f := range features {
		if f.ID == "" {
			continue
		}
		titles = append(titles, media.TitleCandidate{
			ID:             f.ID,
			Title:          firstNonEmpty(f.OriginalTitle, f.Title),
			LocalizedTitle: f.Title,
			Year:           f.Year,
			Type:           media.ParseMediaType(f.Type),
			Raw:            f,
		})
	}
	return titles, nil
}

func (p *Provider) SearchSubtitles(ctx context.Context, q catalog.SubtitleQuery) ([]media.SubtitleCandidate, error) {
	req := SearchRequest{Languages: p.requestLanguages(q.Language)}
	switch {
	case q.TitleID != "" && q.Type == media.Series:
		req.ParentFeatureID = q.TitleID
	case q.TitleID != "":
		req.FeatureID = q.TitleID
	case strings.TrimSpace(q.Text) != "":
		req.Query = strings.TrimSpace(q.Text)
	default:
		return nil, errors.New("opensubtitles: empty subtitle query")
	}

	resp, err := p.client.Search(ctx, req)
	if err != nil {
		return nil, catalog.Unavailable(providerName, "search subtitles", err)
	}
	subs := make([]media.SubtitleCandidate, 0, len(resp.Subtitles))
	for _, s := range resp.Subtitles {
		subs = append(subs, toCandidate(s))
	}
	return subs, nil
}

// Download saves the subtitle for file id subtitleID as an SRT file inside
// destDir.
func (p *Provider) Download(ctx context.Context, subtitleID, destDir string) (string, error) {
	fileID, err := strconv.ParseInt(strings.TrimSpace(subtitleID), 10, 64)
	if err != nil || fileID <= 0 {
		return "", fmt.Errorf("opensubtitles: invalid subtitle id %q", subtitleID)
	}
	result, err := p.client.Download(ctx, fileID, DownloadOptions{Format: "srt"})
	if err != nil {
		return "", catalog.Unavailable(providerName, "download", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	name := downloadFileName(result.FileName, subtitleID)
	target := filepath.Join(destDir, name)
	if err := cache.WriteFileAtomic(target, bytes.NewReader(result.Data), 0o644); err != nil {
		return "", err
	}
	p.logger.Debug("subtitle downloaded",
		logging.String("subtitle_id", subtitleID),
		logging.String("path", target),
	)
	return target, nil
}

// LookupByContentHash identifies the video at videoPath by its movie hash.
// Each catalog feature is reported once.
func (p *Provider) LookupByContentHash(ctx context.Context, videoPath string) ([]media.TitleCandidate, error) {
	if !p.hashLookup {
		return nil, nil
	}
	hash, err := Hash(videoPath)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Search(ctx, SearchRequest{MovieHash: hash, Languages: p.requestLanguages("")})
	if err != nil {
		return nil, catalog.Unavailable(providerName, "hash lookup", err)
	}
	seen := make(map[string]struct{}, len(resp.Subtitles))
	var titles []media.TitleCandidate
	for _, s := range resp.Subtitles {
		if s.FeatureID == "" {
			continue
		}
		if _, ok := seen[s.FeatureID]; ok {
			continue
		}
		seen[s.FeatureID] = struct{}{}
		kind := media.ParseMediaType(s.FeatureType)
		title := s.FeatureTitle
		if kind == media.Episode && s.ParentTitle != "" {
			title = s.ParentTitle
		}
		year := ""
		if s.FeatureYear > 0 {
			year = strconv.Itoa(s.FeatureYear)
		}
		titles = append(titles, media.TitleCandidate{
			ID:      s.FeatureID,
			Title:   title,
			Year:    year,
			Type:    kind,
			Season:  s.Season,
			Episode: s.Episode,
			Raw:     s,
		})
	}
	p.logger.Debug("content hash lookup",
		logging.String("hash", hash),
		logging.Int("features", len(titles)),
	)
	return titles, nil
}

func (p *Provider) requestLanguages(code string) []string {
	codes := p.languages
	if strings.TrimSpace(code) != "" {
		codes = []string{code}
	}
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if mapped := language.OpenSubtitlesCode(c); mapped != "" {
			out = append(out, strings.ToLower(mapped))
		}
	}
	return out
}

func toCandidate(s Subtitle) media.SubtitleCandidate {
	title := s.FeatureTitle
	if s.ParentTitle != "" {
		title = s.ParentTitle
	}
	var rating *int
	if s.Rating > 0 {
		rating = media.Rating(int(math.Round(s.Rating)))
	}
	return media.SubtitleCandidate{
		ID:          strconv.FormatInt(s.FileID, 10),
		Title:       title,
		Release:     s.Release,
		Language:    language.ToISO2(s.Language),
		UserName:    s.Uploader,
		Date:        s.UploadedAt,
		Downloads:   s.Downloads,
		Rating:      rating,
		Highlighted: s.Trusted,
	}
}

func downloadFileName(name, fallback string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		name = fallback
	}
	ext := filepath.Ext(name)
	if !strings.EqualFold(ext, ".srt") {
		name = strings.TrimSuffix(name, ext) + ".srt"
	}
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
