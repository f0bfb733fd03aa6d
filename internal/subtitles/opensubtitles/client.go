package opensubtitles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"legendastv/internal/services"
)

const (
	defaultBaseURL     = "https://api.opensubtitles.com/api/v1"
	defaultUserAgent   = "legendastv/dev"
	defaultHTTPTimeout = 45 * time.Second
)

// Config describes the OpenSubtitles client configuration.
type Config struct {
	APIKey     string
	UserAgent  string
	UserToken  string
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *services.Limiter
}

// Client wraps the OpenSubtitles REST API.
type Client struct {
	apiKey    string
	userAgent string
	userToken string
	baseURL   *url.URL
	http      *http.Client
	limiter   *services.Limiter
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("opensubtitles: api key is required")
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("opensubtitles: parse base url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = &services.Limiter{Name: "opensubtitles"}
	}
	return &Client{
		apiKey:    apiKey,
		userAgent: userAgent,
		userToken: strings.TrimSpace(cfg.UserToken),
		baseURL:   baseURL,
		http:      client,
		limiter:   limiter,
	}, nil
}

// SearchRequest describes subtitle discovery filters.
type SearchRequest struct {
	FeatureID       string
	ParentFeatureID string
	IMDBID          string
	MovieHash       string
	Query           string
	Languages       []string
	Season          int
	Episode         int
	MediaType       string
	Year            string
	Page            int
}

// Subtitle represents a subtitle candidate returned by OpenSubtitles.
type Subtitle struct {
	ID              string
	FileID          int64
	Language        string
	Release         string
	Uploader        string
	UploadedAt      time.Time
	Rating          float64
	Votes           int
	Trusted         bool
	FeatureID       string
	FeatureTitle    string
	ParentTitle     string
	FeatureYear     int
	FeatureType     string
	Season          int
	Episode         int
	Downloads       int
	HearingImpaired bool
	HashMatch       bool
	AITranslated    bool
}

// SearchResponse bundles one page of subtitles returned by a query.
type SearchResponse struct {
	Subtitles  []Subtitle
	Total      int
	Page       int
	TotalPages int
}

// Feature is a catalog entry (movie, episode or tv show).
type Feature struct {
	ID            string
	Title         string
	OriginalTitle string
	Year          string
	Type          string
	IMDBID        string
}

// DownloadOptions controls subtitle downloads.
type DownloadOptions struct {
	Format string
}

// DownloadResult captures the downloaded subtitle payload.
type DownloadResult struct {
	Data        []byte
	FileName    string
	Language    string
	DownloadURL string
}

// Search queries the OpenSubtitles API for matching subtitles.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if c == nil {
		return SearchResponse{}, errors.New("opensubtitles: client is nil")
	}
	endpoint := c.baseURL.JoinPath("subtitles")
	params := url.Values{}
	if req.FeatureID != "" {
		params.Set("id", req.FeatureID)
	}
	if req.ParentFeatureID != "" {
		params.Set("parent_feature_id", req.ParentFeatureID)
	}
	if imdb := SanitizeIMDBID(req.IMDBID); imdb != "" {
		params.Set("imdb_id", imdb)
	}
	if req.MovieHash != "" {
		params.Set("moviehash", req.MovieHash)
	}
	if req.Query != "" {
		params.Set("query", req.Query)
	}
	if len(req.Languages) > 0 {
		params.Set("languages", strings.Join(req.Languages, ","))
	}
	if req.Season > 0 {
		params.Set("season_number", strconv.Itoa(req.Season))
	}
	if req.Episode > 0 {
		params.Set("episode_number", strconv.Itoa(req.Episode))
	}
	if req.MediaType != "" {
		params.Set("type", req.MediaType)
	}
	if req.Year != "" {
		params.Set("year", req.Year)
	}
	if req.Page > 1 {
		params.Set("page", strconv.Itoa(req.Page))
	}
	params.Set("order_by", "download_count")
	params.Set("order_direction", "desc")
	endpoint.RawQuery = params.Encode()

	var payload searchResponse
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return SearchResponse{}, fmt.Errorf("opensubtitles: search: %w", err)
	}

	subtitles := make([]Subtitle, 0, len(payload.Data))
	for _, entry := range payload.Data {
		attrs := entry.Attributes
		if attrs.Language == "" {
			continue
		}
		fileID := attrs.PrimaryFileID()
		if fileID == 0 {
			continue
		}
		details := attrs.FeatureDetails
		subtitles = append(subtitles, Subtitle{
			ID:              entry.ID,
			FileID:          fileID,
			Language:        attrs.Language,
			Release:         attrs.Release,
			Uploader:        attrs.Uploader.Name,
			UploadedAt:      attrs.UploadDate,
			Rating:          attrs.Ratings,
			Votes:           attrs.Votes,
			Trusted:         attrs.FromTrusted,
			FeatureID:       details.FeatureID.String(),
			FeatureTitle:    details.Title,
			ParentTitle:     details.ParentTitle,
			FeatureYear:     details.Year,
			FeatureType:     details.FeatureType,
			Season:          details.SeasonNumber,
			Episode:         details.EpisodeNumber,
			Downloads:       attrs.DownloadCount,
			HearingImpaired: attrs.HearingImpaired,
			HashMatch:       attrs.MovieHashMatch,
			AITranslated:    attrs.AITranslated || attrs.MachineTranslated,
		})
	}

	return SearchResponse{
		Subtitles:  subtitles,
		Total:      payload.TotalCount,
		Page:       payload.Page,
		TotalPages: payload.TotalPages,
	}, nil
}

// Features searches the feature catalog by free text.
func (c *Client) Features(ctx context.Context, query string) ([]Feature, error) {
	if c == nil {
		return nil, errors.New("opensubtitles: client is nil")
	}
	endpoint := c.baseURL.JoinPath("features")
	endpoint.RawQuery = url.Values{"query": {strings.TrimSpace(query)}}.Encode()

	var payload featuresResponse
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, fmt.Errorf("opensubtitles: features: %w", err)
	}
	features := make([]Feature, 0, len(payload.Data))
	for _, entry := range payload.Data {
		attrs := entry.Attributes
		id := attrs.FeatureID.String()
		if id == "" {
			id = entry.ID
		}
		features = append(features, Feature{
			ID:            id,
			Title:         attrs.Title,
			OriginalTitle: attrs.OriginalTitle,
			Year:          attrs.Year.String(),
			Type:          attrs.FeatureType,
			IMDBID:        attrs.IMDBID.String(),
		})
	}
	return features, nil
}

// Download retrieves the subtitle contents for the specified subtitle file.
func (c *Client) Download(ctx context.Context, fileID int64, opts DownloadOptions) (DownloadResult, error) {
	if c == nil {
		return DownloadResult{}, errors.New("opensubtitles: client is nil")
	}
	if fileID <= 0 {
		return DownloadResult{}, errors.New("opensubtitles: invalid file id")
	}
	format := strings.TrimSpace(opts.Format)
	if format == "" {
		format = "srt"
	}
	payload, err := json.Marshal(map[string]any{
		"file_id":    fileID,
		"sub_format": format,
	})
	if err != nil {
		return DownloadResult{}, fmt.Errorf("opensubtitles: encode download request: %w", err)
	}

	endpoint := c.baseURL.JoinPath("download")
	var info downloadResponse
	err = c.limiter.Do(ctx, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build download request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		c.applyHeaders(httpReq)
		return c.doJSON(httpReq, &info)
	})
	if err != nil {
		return DownloadResult{}, fmt.Errorf("opensubtitles: download negotiation: %w", err)
	}
	if info.Link == "" {
		return DownloadResult{}, errors.New("opensubtitles: download response missing link")
	}

	downloadURL, err := endpoint.Parse(info.Link)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("opensubtitles: parse download url: %w", err)
	}

	var data []byte
	err = c.limiter.Do(ctx, func() error {
		dataReq, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL.String(), nil)
		if err != nil {
			return fmt.Errorf("build link request: %w", err)
		}
		dataReq.Header.Set("User-Agent", c.userAgent)
		resp, err := c.http.Do(dataReq)
		if err != nil {
			return fmt.Errorf("fetch subtitle payload: %w", err)
		}
		defer resp.Body.Close()
		if err := statusError(resp); err != nil {
			return err
		}
		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read subtitle data: %w", err)
		}
		return nil
	})
	if err != nil {
		return DownloadResult{}, fmt.Errorf("opensubtitles: subtitle download: %w", err)
	}

	return DownloadResult{
		Data:        data,
		FileName:    info.FileName,
		Language:    info.Language,
		DownloadURL: downloadURL.String(),
	}, nil
}

func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	return c.limiter.Do(ctx, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		c.applyHeaders(httpReq)
		return c.doJSON(httpReq, out)
	})
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := statusError(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(string(body)))
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.userToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.userToken)
	}
}

// SanitizeIMDBID strips the "tt" prefix and rejects non-numeric ids.
func SanitizeIMDBID(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	value = strings.TrimPrefix(value, "tt")
	if _, err := strconv.ParseInt(value, 10, 64); err != nil {
		return ""
	}
	return value
}

// flexID decodes ids the API sends as either numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	*f = flexID(data)
	return nil
}

func (f flexID) String() string {
	if f == "0" {
		return ""
	}
	return string(f)
}

type searchResponse struct {
	TotalPages int `json:"total_pages"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	Data       []struct {
		ID         string           `json:"id"`
		Attributes searchAttributes `json:"attributes"`
	} `json:"data"`
}

type searchAttributes struct {
	Language          string         `json:"language"`
	Release           string         `json:"release"`
	DownloadCount     int            `json:"download_count"`
	HearingImpaired   bool           `json:"hearing_impaired"`
	AITranslated      bool           `json:"ai_translated"`
	MachineTranslated bool           `json:"machine_translated"`
	FromTrusted       bool           `json:"from_trusted"`
	MovieHashMatch    bool           `json:"moviehash_match"`
	Ratings           float64        `json:"ratings"`
	Votes             int            `json:"votes"`
	UploadDate        time.Time      `json:"upload_date"`
	Uploader          uploader       `json:"uploader"`
	FeatureDetails    featureDetails `json:"feature_details"`
	Files             []searchFile   `json:"files"`
}

func (a searchAttributes) PrimaryFileID() int64 {
	if len(a.Files) == 0 {
		return 0
	}
	return a.Files[0].FileID
}

type uploader struct {
	Name string `json:"name"`
}

type featureDetails struct {
	FeatureID     flexID `json:"feature_id"`
	FeatureType   string `json:"feature_type"`
	Title         string `json:"title"`
	ParentTitle   string `json:"parent_title"`
	Year          int    `json:"year"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
}

type searchFile struct {
	FileID int64 `json:"file_id"`
}

type featuresResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			FeatureID     flexID `json:"feature_id"`
			Title         string `json:"title"`
			OriginalTitle string `json:"original_title"`
			Year          flexID `json:"year"`
			FeatureType   string `json:"feature_type"`
			IMDBID        flexID `json:"imdb_id"`
		} `json:"attributes"`
	} `json:"data"`
}

type downloadResponse struct {
	Link     string `json:"link"`
	FileName string `json:"file_name"`
	Language string `json:"language"`
}
