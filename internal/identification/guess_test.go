package identification_test

import (
	"path/filepath"
	"testing"

	"legendastv/internal/identification"
	"legendastv/internal/media"
)

func TestGuess(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		title   string
		year    string
		release string
		kind    media.MediaType
		season  int
		episode int
	}{
		{
			name:    "movie with scene tags",
			input:   "Dancer.In.The.Dark.2000.DVDRip.XviD-BLiTZKRiEG",
			title:   "Dancer In The Dark",
			year:    "2000",
			release: "Dancer In The Dark 2000 DVDRip XviD BLiTZKRiEG",
		},
		{
			name:    "bracketed year",
			input:   "Dancer.In.The.Dark.[2000].DVDRip.XviD-BLiTZKRiEG",
			title:   "Dancer In The Dark",
			year:    "2000",
			release: "Dancer In The Dark 2000 DVDRip XviD BLiTZKRiEG",
		},
		{
			name:    "episode marker",
			input:   "CSI.S12E19.720p.HDTV.X264-DIMENSION",
			title:   "CSI",
			release: "CSI S12E19 720p HDTV X264 DIMENSION",
			kind:    media.Episode,
			season:  12,
			episode: 19,
		},
		{
			name:    "group prefix is dropped",
			input:   "[YTS] Heat (1995) 1080p BluRay",
			title:   "Heat",
			year:    "1995",
			release: "Heat 1995 1080p BluRay",
		},
		{
			name:    "last year wins",
			input:   "Blade.Runner.2049.2017.2160p.WEB-DL",
			title:   "Blade Runner 2049",
			year:    "2017",
			release: "Blade Runner 2049 2017 2160p WEB DL",
		},
		{
			name:    "leading year keeps trailing title",
			input:   "1917 Sam Mendes",
			title:   "Sam Mendes",
			year:    "1917",
			release: "1917 Sam Mendes",
		},
		{
			name:    "no year and no tags",
			input:   "The Room",
			title:   "The Room",
			release: "The Room",
		},
		{
			name:    "web alone is a title word",
			input:   "Charlotte's.Web.2006.DVDRip.XviD",
			title:   "Charlotte's Web",
			year:    "2006",
			release: "Charlotte's Web 2006 DVDRip XviD",
		},
		{
			name:    "web dl is a tag",
			input:   "The.Web.2013.720p.WEB-DL",
			title:   "The Web",
			year:    "2013",
			release: "The Web 2013 720p WEB DL",
		},
		{
			name:    "tag inside a word is kept",
			input:   "Webster.1983",
			title:   "Webster",
			year:    "1983",
			release: "Webster 1983",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := identification.Guess(tt.input)
			if q.Title != tt.title {
				t.Fatalf("title = %q, want %q", q.Title, tt.title)
			}
			if q.Year != tt.year {
				t.Fatalf("year = %q, want %q", q.Year, tt.year)
			}
			if q.Release != tt.release {
				t.Fatalf("release = %q, want %q", q.Release, tt.release)
			}
			if q.Type != tt.kind || q.Season != tt.season || q.Episode != tt.episode {
				t.Fatalf("unexpected episode info %+v", q)
			}
		})
	}
}

func TestGuessFromPathPrefersLongDirectory(t *testing.T) {
	path := filepath.Join("/media", "Dancer.In.The.Dark.2000.DVDRip.XviD-BLiTZKRiEG", "bz-dd.avi")
	q := identification.GuessFromPath(path)
	if q.Title != "Dancer In The Dark" || q.Year != "2000" {
		t.Fatalf("expected directory based guess, got %+v", q)
	}
	if q.IsEpisode() {
		t.Fatalf("expected a movie guess, got %+v", q)
	}
}

func TestGuessFromPathReadsMarkerFromFilename(t *testing.T) {
	path := filepath.Join("/media", "Some.Show.Complete.Season.Two.2011.720p.HDTV.x264-GROUP", "s02e07.mkv")
	q := identification.GuessFromPath(path)
	if !q.IsEpisode() || q.Season != 2 || q.Episode != 7 {
		t.Fatalf("expected S02E07 from the file name, got %+v", q)
	}
	if q.Year != "2011" {
		t.Fatalf("expected year from the directory, got %q", q.Year)
	}
}

func TestGuessFromPathSeasonPackDirectory(t *testing.T) {
	path := filepath.Join("/tv", "Breaking.Bad.S05.COMPLETE.720p.BluRay.x264-DEMAND", "Breaking.Bad.S05E03.mkv")
	q := identification.GuessFromPath(path)
	if q.Title != "Breaking Bad" {
		t.Fatalf("title = %q, want %q", q.Title, "Breaking Bad")
	}
	if q.Release != "Breaking Bad S05E03" {
		t.Fatalf("release = %q, want the episode file name", q.Release)
	}
	if q.Season != 5 || q.Episode != 3 {
		t.Fatalf("unexpected numbering %+v", q)
	}
}

func TestGuessFromPathUsesFilenameWhenDirectoryIsShort(t *testing.T) {
	q := identification.GuessFromPath(filepath.Join("/tv", "CSI", "CSI.S12E19.720p.HDTV.X264-DIMENSION.mkv"))
	if q.Title != "CSI" || q.Season != 12 || q.Episode != 19 {
		t.Fatalf("unexpected guess %+v", q)
	}
}

func TestDisplayTitle(t *testing.T) {
	tests := map[string]string{
		"dancer in the dark": "Dancer In The Dark",
		"CSI":                "CSI",
		"  ":                 "Unknown Title",
		"iCarly":             "iCarly",
	}
	for input, want := range tests {
		if got := identification.DisplayTitle(input); got != want {
			t.Errorf("DisplayTitle(%q) = %q, want %q", input, got, want)
		}
	}
}
