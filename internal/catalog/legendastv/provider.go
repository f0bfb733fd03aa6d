package legendastv

import (
	"context"
	"net/http"
	"time"

	"legendastv/internal/catalog"
	"legendastv/internal/media"
	"legendastv/internal/services"
)

// Provider adapts Client to catalog.Provider, classifying transport and
// parse failures as catalog.ErrProviderUnavailable.
type Provider struct {
	client *Client
}

// NewProvider wraps an existing client.
func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

// Factory builds and logs in a provider from the loaded configuration.
// Credentials are optional; anonymous sessions can search but the site
// may refuse downloads.
func Factory(ctx context.Context, deps catalog.Deps) (catalog.Provider, error) {
	cfg := deps.Config
	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Duration(cfg.LegendasTV.RequestTimeout) * time.Second}
	}
	posterDir := ""
	if cfg.Cache.Posters {
		posterDir = cfg.PosterDir()
	}
	client, err := New(Options{
		BaseURL:    cfg.LegendasTV.BaseURL,
		Language:   cfg.LegendasTV.Language,
		MaxPages:   cfg.LegendasTV.MaxPages,
		PosterDir:  posterDir,
		HTTPClient: httpClient,
		Limiter:    &services.Limiter{Name: providerName, Logger: deps.Logger},
		Logger:     deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	if cfg.LegendasTV.Login != "" && cfg.LegendasTV.Password != "" {
		if err := client.Login(ctx, cfg.LegendasTV.Login, cfg.LegendasTV.Password); err != nil {
			return nil, catalog.Unavailable(providerName, "login", err)
		}
	}
	return NewProvider(client), nil
}

func (p *Provider) Name() string { return providerName }

// Client exposes the underlying client.
func (p *Provider) Client() *Client { return p.client }

func (p *Provider) SearchTitles(ctx context.Context, text string) ([]media.TitleCandidate, error) {
	titles, err := p.client.SearchTitles(ctx, text)
	if err != nil {
		return nil, catalog.Unavailable(providerName, "search titles", err)
	}
	return titles, nil
}

func (p *Provider) SearchSubtitles(ctx context.Context, q catalog.SubtitleQuery) ([]media.SubtitleCandidate, error) {
	subs, err := p.client.SearchSubtitles(ctx, q)
	if err != nil {
		return nil, catalog.Unavailable(providerName, "search subtitles", err)
	}
	return subs, nil
}

func (p *Provider) Download(ctx context.Context, subtitleID, destDir string) (string, error) {
	path, err := p.client.Download(ctx, subtitleID, destDir)
	if err != nil {
		return "", catalog.Unavailable(providerName, "download", err)
	}
	return path, nil
}
