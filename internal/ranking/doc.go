// Package ranking scores catalog results against a guessed query.
//
// RankTitles picks the catalog entry for a movie or series season,
// FilterByEpisode and RankSubtitles order the subtitles published for it, and
// ChooseFile selects the right file out of a multi-file subtitle archive. All
// functions are pure and safe for concurrent use; an empty input always
// yields an empty result rather than a zero-value winner.
package ranking
