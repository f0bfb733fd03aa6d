// Package identification guesses what a video file is from its name.
//
// Guess and GuessFromPath produce a media.Query holding the title, release
// year, normalized release name and, for TV episodes, the season and episode
// numbers. The query is the input to catalog searches and ranking; nothing in
// this package performs IO.
package identification
