package media_test

import (
	"testing"

	"legendastv/internal/media"
)

func TestFindEpisodeMarker(t *testing.T) {
	tests := []struct {
		input   string
		found   bool
		season  int
		episode int
		start   int
	}{
		{input: "CSI.S12E19.720p.HDTV.X264-DIMENSION", found: true, season: 12, episode: 19, start: 4},
		{input: "show.s1e5.hdtv", found: true, season: 1, episode: 5, start: 5},
		{input: "Show.S01x05.WEB", found: true, season: 1, episode: 5, start: 5},
		{input: "Show - 3x05 - Title", found: true, season: 3, episode: 5, start: 7},
		{input: "3x05 Pilot", found: true, season: 3, episode: 5, start: 0},
		{input: "Movie.2010.1080p.x264", found: false},
		{input: "Resolution 1920x1080", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			marker, ok := media.FindEpisodeMarker(tt.input)
			if ok != tt.found {
				t.Fatalf("FindEpisodeMarker(%q) found=%v, want %v", tt.input, ok, tt.found)
			}
			if !ok {
				return
			}
			if marker.Season != tt.season || marker.Episode != tt.episode {
				t.Fatalf("unexpected marker %+v", marker)
			}
			if marker.Start != tt.start {
				t.Fatalf("marker start = %d, want %d", marker.Start, tt.start)
			}
		})
	}
}

func TestQueryEnrich(t *testing.T) {
	base := media.Query{Title: "csi", Release: "CSI S12E19", Type: media.Episode, Season: 12, Episode: 19}
	enriched := base.Enrich(media.TitleCandidate{Title: "CSI: Crime Scene Investigation", Year: "2000", Type: media.Movie, Season: 1, Episode: 1})

	if enriched.Title != "CSI: Crime Scene Investigation" || enriched.Year != "2000" {
		t.Fatalf("expected title and year override, got %+v", enriched)
	}
	if enriched.Type != media.Episode || enriched.Season != 12 || enriched.Episode != 19 {
		t.Fatalf("expected type/season/episode to be kept, got %+v", enriched)
	}
	if base.Title != "csi" {
		t.Fatalf("Enrich mutated the receiver: %+v", base)
	}

	blank := media.Query{Title: "heat"}.Enrich(media.TitleCandidate{Type: media.Episode, Season: 2, Episode: 3})
	if blank.Title != "heat" || blank.Type != media.Episode || blank.Season != 2 || blank.Episode != 3 {
		t.Fatalf("expected empty fields to be filled, got %+v", blank)
	}
}

func TestSeasonOrdinal(t *testing.T) {
	tests := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd"}
	for season, want := range tests {
		if got := media.SeasonOrdinal(season); got != want {
			t.Errorf("SeasonOrdinal(%d) = %q, want %q", season, got, want)
		}
	}
}

func TestParseMediaType(t *testing.T) {
	tests := map[string]media.MediaType{
		"Movie":     media.Movie,
		"episode":   media.Episode,
		"tv series": media.Series,
		"":          media.Unknown,
		"other":     media.Unknown,
	}
	for input, want := range tests {
		if got := media.ParseMediaType(input); got != want {
			t.Errorf("ParseMediaType(%q) = %v, want %v", input, got, want)
		}
	}
}
