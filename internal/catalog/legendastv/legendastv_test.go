package legendastv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"legendastv/internal/catalog"
	"legendastv/internal/media"
	"legendastv/internal/services"
)

const firstPage = `<html><body>
<article>
  <div class="">
    <span class="number number_2">35</span>
    <div class="f_left">
      <p><a href="/download/c0c4d6418a3474b2fb4e9dae3f797bd4/Gattaca/gattaca_dvdrip_divx61_ac3_sailfish">gattaca_dvdrip_divx61_ac3_(sailfish)</a></p>
      <p class="data">1210 downloads, nota 10, enviado por <a href="/usuario/SuperEly">SuperEly</a> em 02/11/2006 - 16:13 </p>
    </div>
    <img src="/img/idioma/icon_brazil.png" alt="Portugues-BR">
  </div>
  <div class="pack">
    <div class="f_left">
      <p><a href="/download/aaaabbbb/Gattaca/gattaca_pack">(p)Gattaca.1997.Pack</a></p>
      <p class="data">15 downloads, nota , enviado por <a href="/usuario/Bob">Bob</a> em 05/01/2010 - 08:00 </p>
    </div>
    <img src="/img/idioma/icon_usa.png">
  </div>
</article>
<a class="load_more" href="/util/carrega_legendas_busca/id_filme:1234/page:2">mais</a>
</body></html>`

const secondPage = `<html><body><article>
  <div class="destaque">
    <div class="f_left">
      <p><a href="/download/ddddeeee/Gattaca/gattaca_1080p">Gattaca.1997.1080p.BluRay</a></p>
      <p class="data">99 downloads, nota 8, enviado por <a href="/usuario/Ann">Ann</a> em 10/03/2015 - 21:45 </p>
    </div>
    <img src="/img/idioma/icon_brazil.png">
  </div>
</article></body></html>`

func newTestClient(t *testing.T, server *httptest.Server, maxPages int) *Client {
	t.Helper()
	client, err := New(Options{
		BaseURL:  server.URL,
		Language: "pb",
		MaxPages: maxPages,
		Limiter:  &services.Limiter{Name: "test", MinInterval: -1, MaxRetries: -1},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestParseSubtitlePage(t *testing.T) {
	subs, next, err := parseSubtitlePage([]byte(firstPage))
	if err != nil {
		t.Fatalf("parseSubtitlePage: %v", err)
	}
	if next != "/util/carrega_legendas_busca/id_filme:1234/page:2" {
		t.Fatalf("unexpected next link %q", next)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subtitles, got %d", len(subs))
	}

	first := subs[0]
	if first.ID != "c0c4d6418a3474b2fb4e9dae3f797bd4" || first.Title != "Gattaca" {
		t.Fatalf("unexpected id/title %+v", first.SubtitleCandidate)
	}
	if first.Release != "gattaca_dvdrip_divx61_ac3_(sailfish)" {
		t.Fatalf("unexpected release %q", first.Release)
	}
	if first.Downloads != 1210 || first.Rating == nil || *first.Rating != 10 {
		t.Fatalf("unexpected stats %+v", first.SubtitleCandidate)
	}
	if first.UserName != "SuperEly" || first.Language != "pb" {
		t.Fatalf("unexpected user/language %+v", first.SubtitleCandidate)
	}
	want := time.Date(2006, 11, 2, 16, 13, 0, 0, siteLocation)
	if !first.Date.Equal(want) {
		t.Fatalf("date = %v, want %v", first.Date, want)
	}
	if first.Pack || first.Highlighted {
		t.Fatalf("plain entry flagged: %+v", first.SubtitleCandidate)
	}

	pack := subs[1]
	if !pack.Pack || pack.Release != "Gattaca.1997.Pack" {
		t.Fatalf("expected pack prefix stripped, got %+v", pack.SubtitleCandidate)
	}
	if pack.Rating != nil {
		t.Fatalf("expected missing rating, got %d", *pack.Rating)
	}
	if pack.Language != "en" {
		t.Fatalf("expected usa flag to map to en, got %q", pack.Language)
	}
}

func TestSearchSubtitlesFollowsPagination(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/util/carrega_legendas_busca/id_filme:1234/id_idioma:1":
			fmt.Fprint(w, firstPage)
		case "/util/carrega_legendas_busca/id_filme:1234/page:2":
			fmt.Fprint(w, secondPage)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, 10)
	subs, err := client.SearchSubtitles(context.Background(), catalog.SubtitleQuery{TitleID: "1234"})
	if err != nil {
		t.Fatalf("SearchSubtitles: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("expected 3 subtitles across pages, got %d (%v)", len(subs), paths)
	}
	if !subs[2].Highlighted || subs[2].Release != "Gattaca.1997.1080p.BluRay" {
		t.Fatalf("unexpected last subtitle %+v", subs[2])
	}
}

func TestSearchSubtitlesStopsAtPageLimit(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, firstPage)
	}))
	defer server.Close()

	client := newTestClient(t, server, 2)
	subs, err := client.SearchSubtitles(context.Background(), catalog.SubtitleQuery{Text: "Gattaca 1997", Language: "all"})
	if err != nil {
		t.Fatalf("SearchSubtitles: %v", err)
	}
	if calls != 2 || len(subs) != 4 {
		t.Fatalf("expected 2 pages and 4 subtitles, got %d calls and %d subs", calls, len(subs))
	}
}

func TestSearchPath(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	client := newTestClient(t, server, 1)

	tests := []struct {
		name  string
		query catalog.SubtitleQuery
		want  string
	}{
		{"title id", catalog.SubtitleQuery{TitleID: "20389"}, "/util/carrega_legendas_busca/id_filme:20389/id_idioma:1"},
		{"text is quoted", catalog.SubtitleQuery{Text: "AC/DC Live", Language: "en"}, "/util/carrega_legendas_busca/termo:AC%2FDC+Live/id_idioma:2"},
		{"all languages", catalog.SubtitleQuery{Text: "Heat", Language: "all"}, "/util/carrega_legendas_busca/termo:Heat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.searchPath(tt.query)
			if err != nil {
				t.Fatalf("searchPath: %v", err)
			}
			if got != tt.want {
				t.Fatalf("searchPath = %q, want %q", got, tt.want)
			}
		})
	}
	if _, err := client.searchPath(catalog.SubtitleQuery{}); err == nil {
		t.Fatal("expected error for empty query")
	}
	if _, err := client.searchPath(catalog.SubtitleQuery{Text: "x", Language: "ru"}); err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestSearchTitles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/util/busca_titulo/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"Filme": {"id_filme": "20389", "dsc_nome": "Wu long tian shi zhao ji gui", "dsc_nome_br": "Kung Fu Zombie", "dsc_imagen": "tt199148.jpg", "dsc_data_lancamento": "1982"}},
			{"Filme": {"id_filme": 1802, "dsc_nome": "CSI: Miami - 1st Season", "dsc_nome_br": "CSI: Miami - 1ª Temporada", "dsc_imagen": ""}},
			{"Filme": {"id_filme": "", "dsc_nome": "skipped"}}
		]`)
	}))
	defer server.Close()

	client := newTestClient(t, server, 1)
	titles, err := client.SearchTitles(context.Background(), "kung fu")
	if err != nil {
		t.Fatalf("SearchTitles: %v", err)
	}
	if len(titles) != 2 {
		t.Fatalf("expected 2 titles, got %d", len(titles))
	}
	if titles[0].ID != "20389" || titles[0].LocalizedTitle != "Kung Fu Zombie" || titles[0].Year != "1982" {
		t.Fatalf("unexpected first title %+v", titles[0])
	}
	if titles[0].ThumbnailRef != "/img/poster/tt199148.jpg" {
		t.Fatalf("unexpected thumbnail %q", titles[0].ThumbnailRef)
	}
	if titles[1].ID != "1802" || titles[1].Type != media.Series || titles[1].Season != 1 {
		t.Fatalf("expected numeric id and season entry, got %+v", titles[1])
	}
}

func TestLoginAndDownloadShareCookies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			if err := r.ParseForm(); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if r.PostForm.Get("data[User][username]") != "alice" || r.PostForm.Get("data[User][password]") != "secret" {
				fmt.Fprint(w, `<form><input name="data[User][password]"></form>`)
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "au", Value: "ok", Path: "/"})
			fmt.Fprint(w, "welcome")
		case "/downloadarquivo/abc123":
			if cookie, err := r.Cookie("au"); err != nil || cookie.Value != "ok" {
				http.Error(w, "login required", http.StatusForbidden)
				return
			}
			w.Header().Set("Content-Disposition", `attachment; filename="Gattaca.rar"`)
			fmt.Fprint(w, "Rar!\x1a\x07\x00payload")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, 1)
	if err := client.Login(context.Background(), "alice", "wrong"); !errors.Is(err, ErrLoginFailed) {
		t.Fatalf("expected login failure, got %v", err)
	}
	if err := client.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !client.LoggedIn() {
		t.Fatal("expected logged in state")
	}

	dir := t.TempDir()
	path, err := NewProvider(client).Download(context.Background(), "abc123", dir)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if path != filepath.Join(dir, "Gattaca.rar") {
		t.Fatalf("unexpected archive path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if !strings.HasPrefix(string(data), "Rar!") {
		t.Fatalf("unexpected archive contents %q", data)
	}
}

func TestProviderClassifiesFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer server.Close()

	provider := NewProvider(newTestClient(t, server, 1))
	_, err := provider.SearchTitles(context.Background(), "heat")
	if !errors.Is(err, catalog.ErrProviderUnavailable) {
		t.Fatalf("expected provider unavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestPosterCache(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, "jpeg")
	}))
	defer server.Close()

	dir := t.TempDir()
	client, err := New(Options{
		BaseURL:   server.URL,
		PosterDir: dir,
		Limiter:   &services.Limiter{MinInterval: -1, MaxRetries: -1},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	client.cachePoster(context.Background(), "/img/poster/tt1.jpg")
	client.cachePoster(context.Background(), "/img/poster/tt1.jpg")
	if hits != 1 {
		t.Fatalf("expected poster fetched once, got %d", hits)
	}
	if got := client.PosterPath("/img/poster/tt1.jpg"); got != filepath.Join(dir, "tt1.jpg") {
		t.Fatalf("unexpected poster path %q", got)
	}
}
