package opensubtitles

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"legendastv/internal/catalog"
	"legendastv/internal/media"
	"legendastv/internal/testsupport"
)

func writeHashFixture(t *testing.T, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "video.mkv")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func expectedHash(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	sum := uint64(len(data))
	for i := 0; i < hashChunkSize; i += 8 {
		sum += binary.LittleEndian.Uint64(data[i:])
	}
	tail := data[len(data)-hashChunkSize:]
	for i := 0; i < hashChunkSize; i += 8 {
		sum += binary.LittleEndian.Uint64(tail[i:])
	}
	return fmt.Sprintf("%016x", sum)
}

func TestHash(t *testing.T) {
	path := writeHashFixture(t, 3*hashChunkSize+24)
	got, err := Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if want := expectedHash(t, path); got != want {
		t.Fatalf("Hash = %s, want %s", got, want)
	}
	if len(got) != 16 {
		t.Fatalf("expected 16 hex digits, got %q", got)
	}
}

func TestHashSingleChunkFile(t *testing.T) {
	path := writeHashFixture(t, hashChunkSize)
	got, err := Hash(path)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if want := expectedHash(t, path); got != want {
		t.Fatalf("Hash = %s, want %s", got, want)
	}
}

func TestHashRejectsSmallFiles(t *testing.T) {
	path := writeHashFixture(t, hashChunkSize-1)
	if _, err := Hash(path); !errors.Is(err, ErrFileTooSmall) {
		t.Fatalf("expected ErrFileTooSmall, got %v", err)
	}
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewProvider(newTestClient(t, server.URL), []string{"pb"}, true, nil)
}

func TestProviderSearchSubtitlesMapsCandidates(t *testing.T) {
	var params map[string]string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		params = map[string]string{}
		for key := range r.URL.Query() {
			params[key] = r.URL.Query().Get(key)
		}
		_ = json.NewEncoder(w).Encode(searchPayload())
	})

	subs, err := p.SearchSubtitles(context.Background(), catalog.SubtitleQuery{TitleID: "1021", Type: media.Series})
	if err != nil {
		t.Fatalf("SearchSubtitles: %v", err)
	}
	if params["parent_feature_id"] != "1021" || params["languages"] != "pt-br" {
		t.Fatalf("unexpected request parameters %v", params)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subtitles, got %d", len(subs))
	}
	first := subs[0]
	if first.ID != "555" || first.Language != "pb" || first.Title != "CSI: Crime Scene Investigation" {
		t.Fatalf("unexpected candidate %+v", first)
	}
	if first.Rating == nil || *first.Rating != 8 || !first.Highlighted || first.UserName != "alice" {
		t.Fatalf("unexpected rating or flags %+v", first)
	}
	if subs[1].Rating != nil {
		t.Fatalf("expected unrated subtitle to have nil rating, got %d", *subs[1].Rating)
	}

	if _, err := p.SearchSubtitles(context.Background(), catalog.SubtitleQuery{Text: "heat", Language: "en"}); err != nil {
		t.Fatalf("text search: %v", err)
	}
	if params["query"] != "heat" || params["languages"] != "en" {
		t.Fatalf("unexpected text search parameters %v", params)
	}
}

func TestProviderClassifiesFailures(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusForbidden)
	})
	_, err := p.SearchTitles(context.Background(), "heat")
	if !errors.Is(err, catalog.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestProviderDownloadWritesSRT(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/download":
			_ = json.NewEncoder(w).Encode(map[string]any{"link": server.URL + "/payload", "file_name": "Heat.1995.txt"})
		case "/payload":
			_, _ = io.WriteString(w, "1\n00:00:01,000 --> 00:00:02,000\nhello\n")
		}
	}))
	defer server.Close()
	p := NewProvider(newTestClient(t, server.URL), nil, false, nil)

	dest := t.TempDir()
	path, err := p.Download(context.Background(), "555", dest)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != filepath.Join(dest, "Heat.1995.srt") {
		t.Fatalf("unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		t.Fatalf("expected subtitle contents, err=%v", err)
	}

	if _, err := p.Download(context.Background(), "abc", dest); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestLookupByContentHashDedupesFeatures(t *testing.T) {
	video := writeHashFixture(t, 2*hashChunkSize)
	var hash string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hash = r.URL.Query().Get("moviehash")
		_ = json.NewEncoder(w).Encode(searchPayload())
	})

	titles, err := p.LookupByContentHash(context.Background(), video)
	if err != nil {
		t.Fatalf("LookupByContentHash: %v", err)
	}
	if hash != expectedHash(t, video) {
		t.Fatalf("request hash %q does not match file hash", hash)
	}
	if len(titles) != 1 {
		t.Fatalf("expected one feature, got %+v", titles)
	}
	got := titles[0]
	if got.Title != "CSI: Crime Scene Investigation" || got.Year != "2012" || got.Type != media.Episode {
		t.Fatalf("unexpected title %+v", got)
	}
	if got.Season != 12 || got.Episode != 19 {
		t.Fatalf("unexpected numbering %+v", got)
	}
}

func TestLookupDisabledSkipsRequests(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()
	p := NewProvider(newTestClient(t, server.URL), nil, false, nil)
	titles, err := p.LookupByContentHash(context.Background(), writeHashFixture(t, hashChunkSize))
	if err != nil || titles != nil || called {
		t.Fatalf("expected no lookup, got titles=%v err=%v called=%v", titles, err, called)
	}
}

func TestNewLookupFollowsConfig(t *testing.T) {
	lookup, err := NewLookup(catalog.Deps{Config: testsupport.NewConfig(t)})
	if err != nil || lookup != nil {
		t.Fatalf("expected no lookup with opensubtitles disabled, got %v err=%v", lookup, err)
	}

	cfg := testsupport.NewConfig(t, testsupport.WithOpenSubtitles("http://127.0.0.1:1"))
	lookup, err = NewLookup(catalog.Deps{Config: cfg})
	if err != nil {
		t.Fatalf("NewLookup: %v", err)
	}
	if _, ok := lookup.(*Provider); !ok {
		t.Fatalf("expected an opensubtitles provider, got %T", lookup)
	}
}
