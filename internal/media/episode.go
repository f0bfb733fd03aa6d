package media

import (
	"regexp"
	"strconv"
)

var (
	seasonEpisodePattern = regexp.MustCompile(`(?i)S(\d{1,2})[EX](\d{1,2})`)
	crossPattern         = regexp.MustCompile(`(?i)(?:^|[^0-9a-z])(\d{1,2})x(\d{1,2})(?:[^0-9]|$)`)
)

// EpisodeMarker locates a season/episode tag inside a string. Start and End
// are byte offsets of the whole tag.
type EpisodeMarker struct {
	Season  int
	Episode int
	Start   int
	End     int
}

// FindEpisodeMarker returns the first S01E02 / S01x02 style marker in text,
// falling back to bare 1x02 markers.
func FindEpisodeMarker(text string) (EpisodeMarker, bool) {
	if loc := seasonEpisodePattern.FindStringSubmatchIndex(text); loc != nil {
		return markerFrom(text, loc[0], loc[1], loc[2:6]), true
	}
	if loc := crossPattern.FindStringSubmatchIndex(text); loc != nil {
		// the pattern consumes the surrounding separators; the tag starts at
		// the season digits and ends after the episode digits
		return markerFrom(text, loc[2], loc[5], loc[2:6]), true
	}
	return EpisodeMarker{}, false
}

func markerFrom(text string, start, end int, groups []int) EpisodeMarker {
	season, _ := strconv.Atoi(text[groups[0]:groups[1]])
	episode, _ := strconv.Atoi(text[groups[2]:groups[3]])
	return EpisodeMarker{Season: season, Episode: episode, Start: start, End: end}
}
