// Package subtitles resolves the best subtitle for a video file.
//
// Resolver walks a fixed sequence of stages for each video: guess a query
// from the file name, optionally enrich it through a content hash lookup,
// search and rank catalog titles, search and rank subtitles (by confirmed
// title or by release name), download and extract the winning archive,
// pick the file that fits the video and place it next to the video as
// <basename>.srt. Every fallback and failure is narrated through the
// notifications service and recorded in the history store.
//
// The package also carries the SRT cleaner used to strip advertisement
// cues from placed subtitles.
package subtitles
