// Package textmatch provides the string primitives every ranking step builds
// on: release-name normalization, the sequence-alignment similarity ratio,
// and best-match selection over plain strings or keyed records.
//
// All functions are pure and safe for concurrent use.
package textmatch
