package ranking

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"legendastv/internal/media"
	"legendastv/internal/textmatch"
)

// SubtitleWeights are the maximum contribution of each subtitle ranking
// component. The final score is the weighted sum divided by the sum of the
// weights, scaled to [0,10].
type SubtitleWeights struct {
	Title     float64
	Release   float64
	Highlight float64
	Pack      float64
	Rating    float64
	Recency   float64
	// RatingNeutral stands in for rating/10 when a subtitle was never rated.
	RatingNeutral float64
	// RecencyWindowDays is the age spread above which older subtitles start
	// losing the recency bonus.
	RecencyWindowDays float64
}

// DefaultSubtitleWeights returns the stock subtitle weights.
func DefaultSubtitleWeights() SubtitleWeights {
	return SubtitleWeights{
		Title:             10,
		Release:           5,
		Highlight:         3,
		Pack:              1,
		Rating:            1,
		Recency:           1,
		RatingNeutral:     0.8,
		RecencyWindowDays: 90,
	}
}

// Max returns the highest weighted sum a subtitle can reach.
func (w SubtitleWeights) Max() float64 {
	return w.Title + w.Release + w.Highlight + w.Pack + w.Rating + w.Recency
}

// FilterByEpisode drops subtitles published for other episodes. Season packs
// always survive; single subtitles must carry an episode marker for the
// queried episode number. Non-episode queries pass through unchanged.
func FilterByEpisode(q media.Query, subs []media.SubtitleCandidate) []media.SubtitleCandidate {
	if !q.IsEpisode() {
		return subs
	}
	kept := make([]media.SubtitleCandidate, 0, len(subs))
	for _, sub := range subs {
		if sub.Pack {
			kept = append(kept, sub)
			continue
		}
		marker, ok := media.FindEpisodeMarker(sub.Release)
		if ok && marker.Episode == q.Episode {
			kept = append(kept, sub)
		}
	}
	return kept
}

// RankSubtitles scores subs against q and returns them best first. Ties keep
// their input order. now anchors subtitle ages.
func RankSubtitles(q media.Query, subs []media.SubtitleCandidate, w SubtitleWeights, now time.Time) []media.ScoredSubtitle {
	if len(subs) == 0 {
		return nil
	}

	recency := recencyScores(subs, w.RecencyWindowDays, now)
	title := textmatch.Normalize(q.Title)
	maxPoints := w.Max()

	scored := make([]media.ScoredSubtitle, 0, len(subs))
	for i, sub := range subs {
		titleSim := textmatch.Similarity(title, textmatch.Normalize(sub.Title), true)
		releaseSim := textmatch.Similarity(q.Release, textmatch.Normalize(sub.Release), true)
		rating := ratingScore(sub.Rating, w.RatingNeutral)

		points := titleSim*w.Title + releaseSim*w.Release + rating*w.Rating + recency[i]*w.Recency
		reasons := []string{
			fmt.Sprintf("title similarity %.3f", titleSim),
			fmt.Sprintf("release similarity %.3f", releaseSim),
			fmt.Sprintf("rating %.2f", rating),
			fmt.Sprintf("recency %.2f", recency[i]),
		}
		if sub.Highlighted {
			points += w.Highlight
			reasons = append(reasons, "highlighted")
		}
		if sub.Pack {
			points += w.Pack
			reasons = append(reasons, "pack")
		}

		score := 0.0
		if maxPoints > 0 {
			score = min(max(10*points/maxPoints, 0), 10)
		}
		scored = append(scored, media.ScoredSubtitle{
			SubtitleCandidate: sub,
			Score:             score,
			Similarity:        releaseSim,
			Reasons:           reasons,
		})
	}

	slices.SortStableFunc(scored, func(a, b media.ScoredSubtitle) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return scored
}

func ratingScore(rating *int, neutral float64) float64 {
	if rating == nil {
		return neutral
	}
	return min(max(float64(*rating)/10, 0), 1)
}

// recencyScores gives every subtitle a full bonus unless the spread between
// the newest and oldest upload exceeds windowDays, in which case the bonus
// decays linearly from newest (1) to oldest (0). Undated subtitles count as
// the oldest.
func recencyScores(subs []media.SubtitleCandidate, windowDays float64, now time.Time) []float64 {
	scores := make([]float64, len(subs))
	ages := make([]float64, len(subs))
	newest, oldest := 0.0, 0.0
	dated := false
	for i, sub := range subs {
		if sub.Date.IsZero() {
			continue
		}
		age := now.Sub(sub.Date).Hours() / 24
		ages[i] = age
		if !dated || age < newest {
			newest = age
		}
		if !dated || age > oldest {
			oldest = age
		}
		dated = true
	}

	spread := oldest - newest
	for i, sub := range subs {
		switch {
		case !dated || spread <= windowDays:
			scores[i] = 1
		case sub.Date.IsZero():
			scores[i] = 0
		default:
			scores[i] = 1 - (ages[i]-newest)/spread
		}
	}
	return scores
}
