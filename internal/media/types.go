package media

import (
	"strconv"
	"strings"
	"time"
)

// MediaType classifies queries and catalog entries.
type MediaType int

const (
	Unknown MediaType = iota
	Movie
	Episode
	// Series marks catalog entries describing a whole TV series rather than
	// a single episode or season.
	Series
)

func (t MediaType) String() string {
	switch t {
	case Movie:
		return "movie"
	case Episode:
		return "episode"
	case Series:
		return "tv series"
	default:
		return "unknown"
	}
}

// ParseMediaType maps catalog kind labels onto a MediaType.
func ParseMediaType(value string) MediaType {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "movie", "film", "feature":
		return Movie
	case "episode", "tv episode":
		return Episode
	case "tv series", "tvshow", "tv", "series", "show":
		return Series
	default:
		return Unknown
	}
}

// Query is the guessed identity of a video file. Values are derived once
// per resolution attempt and only change through Enrich.
type Query struct {
	Title   string
	Year    string
	Release string
	Season  int
	Episode int
	Type    MediaType
	// Source is the raw text the query was guessed from.
	Source string
}

// IsEpisode reports whether the query targets a single TV episode.
func (q Query) IsEpisode() bool {
	return q.Type == Episode
}

// Enrich returns a copy of q updated with metadata from an auxiliary
// catalog hit. Title and year are replaced when the candidate has them;
// type, season and episode are only filled when still unset.
func (q Query) Enrich(c TitleCandidate) Query {
	out := q
	if title := strings.TrimSpace(c.Title); title != "" {
		out.Title = title
	}
	if year := strings.TrimSpace(c.Year); year != "" {
		out.Year = year
	}
	if out.Type == Unknown {
		out.Type = c.Type
	}
	if out.Season == 0 {
		out.Season = c.Season
	}
	if out.Episode == 0 {
		out.Episode = c.Episode
	}
	return out
}

// TitleCandidate is one catalog title hit.
type TitleCandidate struct {
	ID             string
	Title          string
	LocalizedTitle string
	Year           string
	Type           MediaType
	ThumbnailRef   string
	Season         int
	Episode        int
	Raw            any `json:"-"`
}

// ScoredTitle is a TitleCandidate with its ranking outcome.
type ScoredTitle struct {
	TitleCandidate
	Score      float64
	Similarity float64
	Reasons    []string
}

// SubtitleCandidate is one catalog subtitle hit.
type SubtitleCandidate struct {
	ID          string
	Title       string
	Release     string
	Language    string
	UserName    string
	Date        time.Time
	Downloads   int
	Rating      *int
	Pack        bool
	Highlighted bool
}

// ScoredSubtitle is a SubtitleCandidate with its ranking outcome.
type ScoredSubtitle struct {
	SubtitleCandidate
	Score      float64
	Similarity float64
	Reasons    []string
}

// ArchiveEntry is one extracted file that passed the extension filter.
type ArchiveEntry struct {
	Path           string
	NormalizedBase string
}

// Rating returns a pointer to value, for building SubtitleCandidate literals.
func Rating(value int) *int {
	return &value
}

// SeasonOrdinal renders a season number as an English ordinal (1st, 2nd,
// 3rd, 4th, 11th, 21st).
func SeasonOrdinal(season int) string {
	suffix := "th"
	switch {
	case season%100 >= 11 && season%100 <= 13:
	case season%10 == 1:
		suffix = "st"
	case season%10 == 2:
		suffix = "nd"
	case season%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(season) + suffix
}
