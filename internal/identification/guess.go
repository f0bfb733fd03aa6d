package identification

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cehbz/torrentname"

	"legendastv/internal/media"
	"legendastv/internal/textmatch"
)

var (
	digitRunPattern = regexp.MustCompile(`\d+`)
	spaceRunPattern = regexp.MustCompile(` +`)
	qualityTags     = []string{
		"2160p", "1080p", "720p", "480p",
		"hdtv", "h264", "x264", "h265", "x265", "hevc",
		"dts", "aac", "ac3",
		"bluray", "blu ray", "bdrip", "brrip",
		"dvdrip", "dvdscr", "dvd", "xvid", "divx",
		"mp4", "itunes", "web dl", "webrip",
	}
	qualityTagPattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(escapeAll(qualityTags), "|") + `)\b`)
)

func escapeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = regexp.QuoteMeta(v)
	}
	return out
}

// Guess derives a query from a file or directory name. The release year is
// the last standalone 19xx/20xx number; the title is whatever precedes it
// (or follows it, when the name starts with the year) with quality tags
// removed. An S01E02 style marker turns the query into an episode and cuts
// the title before the marker.
func Guess(text string) media.Query {
	text = strings.TrimSpace(text)
	year := lastYear(text)
	release := textmatch.Normalize(text)

	title := release
	if year != "" {
		before, after, found := strings.Cut(release, year)
		if found {
			if strings.HasPrefix(release, year) {
				title = after
			} else {
				title = before
			}
		}
	}
	title = stripQualityTags(title)

	q := media.Query{
		Title:   title,
		Year:    year,
		Release: release,
		Source:  text,
	}
	return applyEpisodeMarker(q, text)
}

// GuessFromPath guesses the query for a video file. The parent directory
// name is used instead of the file name when it is more than twice as long,
// since it then most likely carries the full release name. The episode
// marker is always read from the file name.
func GuessFromPath(videoPath string) media.Query {
	dirname := filepath.Base(filepath.Dir(videoPath))
	filename := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))

	search := filename
	if len(dirname) > 2*len(filename) {
		search = dirname
	}
	q := Guess(search)
	if search != filename {
		q.Type, q.Season, q.Episode = media.Unknown, 0, 0
		q = applyEpisodeMarker(q, filename)
	}
	if q.Type == media.Unknown {
		q = applyParsedEpisode(q, filename)
	}
	if search != filename && q.IsEpisode() {
		q = episodeFromFilename(q, filename)
	}
	return q
}

// episodeFromFilename narrows a directory based guess to the episode file.
// A season pack directory names the whole season, so the release always
// comes from the file name, and so do the title and year when the file name
// carries its own marker.
func episodeFromFilename(q media.Query, filename string) media.Query {
	file := Guess(filename)
	q.Release = file.Release
	if file.IsEpisode() && file.Title != "" {
		q.Title = file.Title
	}
	if file.Year != "" {
		q.Year = file.Year
	}
	return q
}

// lastYear returns the last digit run that is exactly a 19xx or 20xx year.
func lastYear(text string) string {
	year := ""
	for _, run := range digitRunPattern.FindAllString(text, -1) {
		if len(run) == 4 && (strings.HasPrefix(run, "19") || strings.HasPrefix(run, "20")) {
			year = run
		}
	}
	return year
}

func stripQualityTags(title string) string {
	title = qualityTagPattern.ReplaceAllString(title, "")
	title = spaceRunPattern.ReplaceAllString(title, " ")
	return strings.TrimSpace(title)
}

func applyEpisodeMarker(q media.Query, raw string) media.Query {
	marker, ok := media.FindEpisodeMarker(raw)
	if !ok {
		return q
	}
	q.Type = media.Episode
	q.Season = marker.Season
	q.Episode = marker.Episode
	if inTitle, ok := media.FindEpisodeMarker(q.Title); ok {
		q.Title = strings.TrimSpace(q.Title[:inTitle.Start])
	}
	return q
}

// applyParsedEpisode consults the torrent name parser for numbering schemes
// the marker patterns do not cover. Only complete season+episode pairs are
// accepted.
func applyParsedEpisode(q media.Query, raw string) media.Query {
	parsed := torrentname.Parse(raw)
	if parsed == nil || parsed.Season <= 0 || parsed.Episode <= 0 {
		return q
	}
	q.Type = media.Episode
	q.Season = parsed.Season
	q.Episode = parsed.Episode
	return q
}
