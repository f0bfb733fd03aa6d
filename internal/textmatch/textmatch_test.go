package textmatch_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"legendastv/internal/textmatch"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "dots and hyphen", input: "Dancer.In.The.Dark.[2000].DVDRip.XviD-BLiTZKRiEG", want: "Dancer In The Dark 2000 DVDRip XviD BLiTZKRiEG"},
		{name: "leading group", input: "[ReleaseGroup] Some_Show - 01", want: "Some Show 01"},
		{name: "only first bracket group", input: "[a][b]Title", want: "b Title"},
		{name: "empty brackets kept out of leading rule", input: "[]Title", want: "Title"},
		{name: "punctuation", input: "Mr. & Mrs. Smith (2005), uncut: v2", want: "Mr & Mrs Smith 2005 uncut v2"},
		{name: "case preserved", input: "CSI:Miami", want: "CSI Miami"},
		{name: "surrounding spaces", input: "   spaced   out   ", want: "spaced out"},
		{name: "tabs and newlines", input: "Heat\t1995\n\n1080p", want: "Heat 1995 1080p"},
		{name: "empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := textmatch.Normalize(tt.input); got != tt.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotentAndClean(t *testing.T) {
	inputs := []string{
		"[HorribleSubs] Show_Name - 05 [720p].mkv",
		"The.Matrix.1999.1080p.BluRay.x264-[YTS.AG]",
		"((((nested)))) {braces} [brackets]",
		"a.b,c:d_e-f",
		"[[double]]",
		"---",
		"Amélie.2001.FRENCH.DVDRip",
		"Show\t-\tS01E02\r\n",
	}
	for _, input := range inputs {
		once := textmatch.Normalize(input)
		if twice := textmatch.Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q then %q", input, once, twice)
		}
		if strings.ContainsAny(once, textmatch.ForbiddenChars) {
			t.Fatalf("Normalize(%q) = %q still contains forbidden characters", input, once)
		}
		if strings.Contains(once, "  ") {
			t.Fatalf("Normalize(%q) = %q contains repeated spaces", input, once)
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name       string
		a, b       string
		ignoreCase bool
		want       float64
	}{
		{name: "identical", a: "gattaca", b: "gattaca", ignoreCase: true, want: 1},
		{name: "both empty", a: "", b: "", ignoreCase: true, want: 1},
		{name: "one empty", a: "", b: "abc", ignoreCase: true, want: 0},
		{name: "disjoint", a: "abc", b: "xyz", ignoreCase: true, want: 0},
		{name: "shifted", a: "abcd", b: "bcde", ignoreCase: true, want: 0.75},
		{name: "case folded", a: "Hello", b: "hELLO", ignoreCase: true, want: 1},
		{name: "case sensitive", a: "hello", b: "HELLO", ignoreCase: false, want: 0},
		{name: "two blocks", a: "gattaca 1997", b: "gattaca (1997)", ignoreCase: true, want: 24.0 / 26.0},
		{name: "order independent", a: "tide", b: "diet", ignoreCase: true, want: 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := textmatch.Similarity(tt.a, tt.b, tt.ignoreCase)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilaritySymmetricAndBounded(t *testing.T) {
	pairs := [][2]string{
		{"abcd", "bcda"},
		{"The Dark Knight", "Dark Knight Rises"},
		{"CSI Miami 3", "CSI Miami 3ª Temporada"},
		{"Lost", "Lost in Translation"},
		{"tide", "diet"},
		{"Heat 1995", "1995 Heat"},
	}
	for _, pair := range pairs {
		ab := textmatch.SimilarityFold(pair[0], pair[1])
		ba := textmatch.SimilarityFold(pair[1], pair[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Fatalf("similarity not symmetric for %q/%q: %v vs %v", pair[0], pair[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Fatalf("similarity out of range for %q/%q: %v", pair[0], pair[1], ab)
		}
	}
}

func TestChooseBest(t *testing.T) {
	match, err := textmatch.ChooseBest("Gattaca 1997", []string{"Gattaca (1997)", "Gattaca 2"}, true)
	if err != nil {
		t.Fatalf("ChooseBest returned error: %v", err)
	}
	if match.Index != 0 || match.Best != "Gattaca (1997)" {
		t.Fatalf("expected first candidate, got %+v", match)
	}
	if match.Similarity <= 0.8 {
		t.Fatalf("expected similarity > 0.8, got %v", match.Similarity)
	}
}

func TestChooseBestTieKeepsFirst(t *testing.T) {
	match, err := textmatch.ChooseBest("abc", []string{"xyz", "ABC", "abc"}, true)
	if err != nil {
		t.Fatalf("ChooseBest returned error: %v", err)
	}
	if match.Index != 1 {
		t.Fatalf("expected earliest tied candidate, got index %d", match.Index)
	}
}

func TestChooseBestEmpty(t *testing.T) {
	if _, err := textmatch.ChooseBest("anything", nil, true); !errors.Is(err, textmatch.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
	type record struct{ Name string }
	if _, err := textmatch.ChooseBestByKey("x", []record{}, func(r record) string { return r.Name }, true); !errors.Is(err, textmatch.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates for keyed variant, got %v", err)
	}
}

func TestChooseBestByKeyToleratesEmptyFields(t *testing.T) {
	type record struct {
		Name string
		Year string
	}
	records := []record{
		{},
		{Name: "Heat", Year: "1995"},
		{Name: "", Year: "1995"},
	}
	match, err := textmatch.ChooseBestByKey("heat 1995", records, func(r record) string {
		return strings.TrimSpace(r.Name + " " + r.Year)
	}, true)
	if err != nil {
		t.Fatalf("ChooseBestByKey returned error: %v", err)
	}
	if match.Index != 1 || match.Best.Name != "Heat" {
		t.Fatalf("unexpected best record: %+v", match)
	}
	if match.Similarity != 1 {
		t.Fatalf("expected exact similarity, got %v", match.Similarity)
	}

	nilKey, err := textmatch.ChooseBestByKey("heat", records, nil, true)
	if err != nil {
		t.Fatalf("nil key returned error: %v", err)
	}
	if nilKey.Index != 0 || nilKey.Similarity != 0 {
		t.Fatalf("expected first record with zero similarity, got %+v", nilKey)
	}
}
