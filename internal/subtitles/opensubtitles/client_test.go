package opensubtitles

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"legendastv/internal/services"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := New(Config{
		APIKey:    "abc",
		UserAgent: "legendastv/test",
		BaseURL:   baseURL,
		Limiter:   &services.Limiter{Name: "test", MinInterval: -1, MaxRetries: -1},
	})
	if err != nil {
		t.Fatalf("New client failed: %v", err)
	}
	return client
}

func searchPayload() map[string]any {
	return map[string]any{
		"total_pages": 3,
		"total_count": 120,
		"page":        1,
		"data": []map[string]any{
			{
				"id": "1",
				"attributes": map[string]any{
					"language":       "pt-BR",
					"release":        "CSI.S12E19.720p.HDTV.X264-DIMENSION",
					"download_count": 120,
					"ratings":        7.6,
					"from_trusted":   true,
					"upload_date":    "2012-04-18T10:00:00Z",
					"uploader":       map[string]any{"name": "alice"},
					"feature_details": map[string]any{
						"feature_id":     1021,
						"feature_type":   "Episode",
						"title":          "Malice in the Palace",
						"parent_title":   "CSI: Crime Scene Investigation",
						"year":           2012,
						"season_number":  12,
						"episode_number": 19,
					},
					"files": []map[string]any{{"file_id": 555}},
				},
			},
			{
				"id": "2",
				"attributes": map[string]any{
					"language":       "en",
					"download_count": 80,
					"feature_details": map[string]any{
						"feature_id":   "1021",
						"feature_type": "Episode",
						"title":        "Malice in the Palace",
					},
					"files": []map[string]any{{"file_id": 777}},
				},
			},
			{
				"id": "3",
				"attributes": map[string]any{
					"language": "en",
					"files":    []map[string]any{},
				},
			},
		},
	}
}

func TestSearchBuildsQueryAndParsesResponse(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		if r.URL.Path == "/subtitles" {
			_ = json.NewEncoder(w).Encode(searchPayload())
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	resp, err := client.Search(context.Background(), SearchRequest{
		ParentFeatureID: "99",
		IMDBID:          "tt7654321",
		MovieHash:       "8e245d9679d31e12",
		Languages:       []string{"pt-br", "en"},
		Season:          12,
		Episode:         19,
		Page:            2,
	})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if captured == nil {
		t.Fatal("expected request to be captured")
	}
	if got := captured.Header.Get("Api-Key"); got != "abc" {
		t.Fatalf("expected Api-Key header, got %q", got)
	}
	if got := captured.Header.Get("User-Agent"); got != "legendastv/test" {
		t.Fatalf("unexpected user agent %q", got)
	}
	query := captured.URL.Query()
	want := map[string]string{
		"parent_feature_id": "99",
		"imdb_id":           "7654321",
		"moviehash":         "8e245d9679d31e12",
		"languages":         "pt-br,en",
		"season_number":     "12",
		"episode_number":    "19",
		"page":              "2",
		"order_by":          "download_count",
	}
	for key, value := range want {
		if got := query.Get(key); got != value {
			t.Fatalf("query %s = %q, want %q", key, got, value)
		}
	}
	if query.Has("query") || query.Has("id") {
		t.Fatalf("unexpected query parameters %v", query)
	}

	if resp.Total != 120 || resp.Page != 1 || resp.TotalPages != 3 {
		t.Fatalf("unexpected paging %+v", resp)
	}
	if len(resp.Subtitles) != 2 {
		t.Fatalf("expected entries without files to be skipped, got %d", len(resp.Subtitles))
	}
	first := resp.Subtitles[0]
	if first.FileID != 555 || first.Language != "pt-BR" || first.Uploader != "alice" || !first.Trusted {
		t.Fatalf("unexpected first subtitle %+v", first)
	}
	if first.FeatureID != "1021" || first.ParentTitle != "CSI: Crime Scene Investigation" || first.Season != 12 || first.Episode != 19 {
		t.Fatalf("unexpected feature details %+v", first)
	}
	if first.UploadedAt.IsZero() || first.Rating != 7.6 {
		t.Fatalf("expected upload date and rating, got %+v", first)
	}
	if resp.Subtitles[1].FeatureID != "1021" {
		t.Fatalf("expected string feature ids to decode, got %q", resp.Subtitles[1].FeatureID)
	}
}

func TestSearchReportsStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.Search(context.Background(), SearchRequest{Query: "heat"})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestFeaturesParsesCatalogEntries(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/features" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		query = r.URL.Query().Get("query")
		_, _ = io.WriteString(w, `{"data":[
			{"id":"646","type":"feature","attributes":{"feature_id":"646","title":"Fogo Contra Fogo","original_title":"Heat","year":"1995","feature_type":"Movie","imdb_id":113277}},
			{"id":"9","type":"feature","attributes":{"title":"Heat Wave","year":2009,"feature_type":"Tvshow"}}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	features, err := client.Features(context.Background(), " heat ")
	if err != nil {
		t.Fatalf("Features returned error: %v", err)
	}
	if query != "heat" {
		t.Fatalf("expected trimmed query, got %q", query)
	}
	if len(features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(features))
	}
	if features[0].ID != "646" || features[0].OriginalTitle != "Heat" || features[0].Year != "1995" || features[0].IMDBID != "113277" {
		t.Fatalf("unexpected first feature %+v", features[0])
	}
	if features[1].ID != "9" || features[1].Year != "2009" {
		t.Fatalf("expected id fallback and numeric year, got %+v", features[1])
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "valid", cfg: Config{APIKey: "key"}},
		{name: "missing key", cfg: Config{}, wantErr: true},
		{name: "blank key", cfg: Config{APIKey: "   "}, wantErr: true},
		{name: "bad url", cfg: Config{APIKey: "key", BaseURL: "://bad"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	client, err := New(Config{APIKey: "key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.userAgent != defaultUserAgent {
		t.Fatalf("expected default user agent, got %q", client.userAgent)
	}
	if client.baseURL.String() != defaultBaseURL {
		t.Fatalf("expected default base url, got %q", client.baseURL.String())
	}
	if client.limiter == nil {
		t.Fatal("expected a default limiter")
	}
}

func TestSanitizeIMDBID(t *testing.T) {
	tests := map[string]string{
		"tt0113277": "0113277",
		"113277":    "113277",
		"  tt42  ":  "42",
		"ttabc":     "",
		"":          "",
	}
	for input, want := range tests {
		if got := SanitizeIMDBID(input); got != want {
			t.Errorf("SanitizeIMDBID(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDownloadFetchesSubtitleData(t *testing.T) {
	var payload map[string]any
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/download":
			if r.Method != http.MethodPost {
				t.Fatalf("expected POST, got %s", r.Method)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer token" {
				t.Fatalf("expected bearer token, got %q", got)
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode download request: %v", err)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"link":      server.URL + "/payload",
				"file_name": "heat.srt",
				"language":  "pt-BR",
			})
		case "/payload":
			_, _ = io.WriteString(w, "1\n00:00:01,000 --> 00:00:02,000\nOlá\n")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client, err := New(Config{
		APIKey:    "abc",
		UserToken: "token",
		BaseURL:   server.URL,
		Limiter:   &services.Limiter{Name: "test", MinInterval: -1, MaxRetries: -1},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := client.Download(context.Background(), 555, DownloadOptions{})
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if payload["sub_format"] != "srt" || payload["file_id"] != float64(555) {
		t.Fatalf("unexpected download payload %v", payload)
	}
	if result.FileName != "heat.srt" || result.Language != "pt-BR" {
		t.Fatalf("unexpected result metadata %+v", result)
	}
	if !strings.Contains(string(result.Data), "Olá") {
		t.Fatalf("unexpected data %q", result.Data)
	}
}

func TestDownloadRejectsInvalidFileID(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1")
	if _, err := client.Download(context.Background(), 0, DownloadOptions{}); err == nil {
		t.Fatal("expected error for zero file id")
	}
}
