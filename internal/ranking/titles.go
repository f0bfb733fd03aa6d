package ranking

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"legendastv/internal/media"
	"legendastv/internal/textmatch"
)

// DefaultAcceptThreshold is the title similarity a ranked candidate must
// exceed before it is trusted for a title-based subtitle search.
const DefaultAcceptThreshold = 0.7

// TitleWeights are the point values of each title ranking component. Year
// and Type are signed: a match adds the weight, a mismatch subtracts it and
// missing information on either side contributes nothing.
type TitleWeights struct {
	Year  float64
	Type  float64
	Title float64
}

// DefaultTitleWeights returns the stock title weights.
func DefaultTitleWeights() TitleWeights {
	return TitleWeights{Year: 3, Type: 2, Title: 10}
}

var (
	seasonWordPattern    = regexp.MustCompile(`(?i)\b(?:season|temporada)\b`)
	ordinalMarkPattern   = regexp.MustCompile(`[ªº°]`)
	ordinalSuffixPattern = regexp.MustCompile(`(?i)\b(\d+)(?:st|nd|rd|th)\b`)
	spacePattern         = regexp.MustCompile(` +`)
)

// RankTitles scores every candidate against q and returns them ordered by
// score, best first. Ties keep their input order.
func RankTitles(q media.Query, candidates []media.TitleCandidate, w TitleWeights) []media.ScoredTitle {
	if len(candidates) == 0 {
		return nil
	}

	reference := textmatch.Normalize(q.Title)
	season := ""
	if q.IsEpisode() && q.Season > 0 {
		season = strconv.Itoa(q.Season)
		reference = strings.TrimSpace(reference + " " + season)
	}

	low := -w.Year - w.Type
	high := w.Year + w.Type + w.Title

	scored := make([]media.ScoredTitle, 0, len(candidates))
	for _, c := range candidates {
		compare := textmatch.Normalize(c.Title)
		if season != "" {
			compare = seasonTitle(c, season)
		}

		yearPoints, yearReason := signedComponent("year", q.Year != "" && c.Year != "", q.Year == c.Year, w.Year)
		typePoints, typeReason := signedComponent("type",
			q.Type != media.Unknown && c.Type != media.Unknown, typesAgree(q.Type, c.Type), w.Type)
		similarity := textmatch.Similarity(reference, compare, true)
		titlePoints := similarity * w.Title

		total := yearPoints + typePoints + titlePoints
		scored = append(scored, media.ScoredTitle{
			TitleCandidate: c,
			Score:          rescale(total, low, high),
			Similarity:     similarity,
			Reasons: []string{
				yearReason,
				typeReason,
				fmt.Sprintf("title %q vs %q similarity %.3f (%+.2f)", reference, compare, similarity, titlePoints),
			},
		})
	}

	slices.SortStableFunc(scored, func(a, b media.ScoredTitle) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return scored
}

// Accept reports whether the top ranked title can be trusted: either it is
// the only candidate or its similarity is strictly above threshold.
func Accept(scored []media.ScoredTitle, threshold float64) bool {
	switch len(scored) {
	case 0:
		return false
	case 1:
		return true
	default:
		return scored[0].Similarity > threshold
	}
}

// seasonTitle builds the comparison string for a series season entry. The
// localized title is preferred because catalogs name seasons there
// ("Show - 3ª Temporada"); season words are dropped and the bare season
// number is kept at the end.
func seasonTitle(c media.TitleCandidate, season string) string {
	source := c.LocalizedTitle
	if strings.TrimSpace(source) == "" {
		source = c.Title
	}
	cleaned := textmatch.Normalize(source)
	cleaned = seasonWordPattern.ReplaceAllString(cleaned, " ")
	cleaned = ordinalMarkPattern.ReplaceAllString(cleaned, "")
	cleaned = ordinalSuffixPattern.ReplaceAllString(cleaned, "$1")
	cleaned = strings.TrimSpace(spacePattern.ReplaceAllString(cleaned, " "))
	if cleaned != season && !strings.HasSuffix(cleaned, " "+season) {
		cleaned = strings.TrimSpace(cleaned + " " + season)
	}
	return cleaned
}

func signedComponent(label string, known, match bool, weight float64) (float64, string) {
	switch {
	case !known:
		return 0, label + " unknown (+0.00)"
	case match:
		return weight, fmt.Sprintf("%s match (%+.2f)", label, weight)
	default:
		return -weight, fmt.Sprintf("%s mismatch (%+.2f)", label, -weight)
	}
}

// typesAgree treats a whole-series catalog entry as compatible with an
// episode query.
func typesAgree(query, candidate media.MediaType) bool {
	if query == candidate {
		return true
	}
	return query == media.Episode && candidate == media.Series
}

func rescale(value, low, high float64) float64 {
	if high <= low {
		return 0
	}
	score := (value - low) / (high - low) * 10
	return min(max(score, 0), 10)
}
