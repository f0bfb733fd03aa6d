package textmatch

import (
	"errors"
	"strings"
)

// ErrNoCandidates reports a selection over an empty candidate list.
var ErrNoCandidates = errors.New("no candidates")

// Match is the outcome of ChooseBest.
type Match struct {
	Best       string
	Index      int
	Similarity float64
}

// KeyedMatch is the outcome of ChooseBestByKey.
type KeyedMatch[T any] struct {
	Best       T
	Index      int
	Similarity float64
}

// ChooseBest returns the candidate most similar to reference. Ties keep the
// earliest candidate.
func ChooseBest(reference string, candidates []string, ignoreCase bool) (Match, error) {
	result, err := ChooseBestByKey(reference, candidates, func(s string) string { return s }, ignoreCase)
	if err != nil {
		return Match{}, err
	}
	return Match{Best: result.Best, Index: result.Index, Similarity: result.Similarity}, nil
}

// ChooseBestByKey compares reference against key(record) for every record
// and returns the most similar one. A nil key function or empty field is
// scored as the empty string.
func ChooseBestByKey[T any](reference string, records []T, key func(T) string, ignoreCase bool) (KeyedMatch[T], error) {
	if len(records) == 0 {
		return KeyedMatch[T]{}, ErrNoCandidates
	}
	if ignoreCase {
		reference = strings.ToLower(reference)
	}
	best := KeyedMatch[T]{Index: -1, Similarity: -1}
	for i, record := range records {
		value := ""
		if key != nil {
			value = key(record)
		}
		score := Similarity(reference, value, ignoreCase)
		if score > best.Similarity {
			best = KeyedMatch[T]{Best: record, Index: i, Similarity: score}
		}
	}
	return best, nil
}
