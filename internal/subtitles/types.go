package subtitles

import (
	"errors"
	"strings"
	"time"

	"legendastv/internal/catalog"
	"legendastv/internal/media"
)

// Status is the terminal state of one resolution.
type Status string

const (
	StatusDone     Status = "done"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
	// StatusSkipped marks videos that already have a subtitle and were left
	// alone because overwriting is disabled.
	StatusSkipped Status = "skipped"
)

// Resolver stages, used as the log stage field.
const (
	StageGuessQuery      = "guess_query"
	StageEnrichQuery     = "enrich_query"
	StageSearchTitles    = "search_titles"
	StageConfirmTitle    = "confirm_title"
	StageSearchSubtitles = "search_subtitles"
	StageFilterEpisode   = "filter_episode"
	StageRankSubtitles   = "rank_subtitles"
	StageDownload        = "download_archive"
	StageExtract         = "extract_archive"
	StageSelectFile      = "select_file"
	StagePlace           = "place"
)

// ErrNoMatchConfident reports that no catalog title passed the similarity
// gate. The resolver recovers from it by searching on the release name.
var ErrNoMatchConfident = errors.New("no confident title match")

// Result describes the outcome of resolving one video.
type Result struct {
	RequestID string
	VideoPath string
	Status    Status
	Query     media.Query
	// Provider is the catalog that produced the outcome.
	Provider string
	// Title is the confirmed catalog title; nil when the release search
	// was used.
	Title *media.ScoredTitle
	// Subtitle is the downloaded subtitle.
	Subtitle *media.ScoredSubtitle
	// Candidates counts the subtitles left after episode filtering.
	Candidates   int
	ArchivePath  string
	SubtitlePath string
	Cleaned      CleanStats
	Err          error
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Plan is the search and ranking outcome for one video on one provider,
// before anything is downloaded.
type Plan struct {
	// Query is the guessed query after content hash enrichment.
	Query  media.Query
	Titles []media.ScoredTitle
	// Title is the candidate that passed the gate; nil means the subtitle
	// search ran on the release name.
	Title  *media.ScoredTitle
	Search catalog.SubtitleQuery
	// Found counts the subtitles returned before episode filtering.
	Found     int
	Subtitles []media.ScoredSubtitle
}

// RankQuery is the query subtitles are scored against: the guessed query
// with title and year taken from the confirmed catalog title, when there is
// one.
func (p Plan) RankQuery() media.Query {
	q := p.Query
	if p.Title == nil {
		return q
	}
	if title := strings.TrimSpace(p.Title.Title); title != "" {
		q.Title = title
	}
	if year := strings.TrimSpace(p.Title.Year); year != "" {
		q.Year = year
	}
	return q
}

// OK reports whether a subtitle was placed.
func (r Result) OK() bool {
	return r.Status == StatusDone
}
