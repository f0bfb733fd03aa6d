package textmatch

import "strings"

// Similarity returns the sequence-alignment ratio of a and b in [0,1]:
// twice the number of characters in the longest common matching blocks
// divided by the combined length. The block search depends on which side
// is scanned first, so both orders are measured and the larger ratio wins;
// the result does not depend on argument order. When ignoreCase is set both
// inputs are lowercased first.
func Similarity(a, b string, ignoreCase bool) float64 {
	if ignoreCase {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	ra, rb := []rune(a), []rune(b)
	return max(ratio(ra, rb), ratio(rb, ra))
}

// SimilarityFold is Similarity with case folding, the default for ranking.
func SimilarityFold(a, b string) float64 {
	return Similarity(a, b, true)
}

func ratio(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	matched := 0
	for _, block := range matchingBlocks(a, b) {
		matched += block.size
	}
	return 2 * float64(matched) / float64(total)
}

type block struct {
	i, j, size int
}

type span struct {
	alo, ahi, blo, bhi int
}

// matchingBlocks finds the longest matching block, then recurses on the
// pieces left and right of it until nothing else matches.
func matchingBlocks(a, b []rune) []block {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	var blocks []block
	queue := []span{{0, len(a), 0, len(b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		m := longestMatch(a, b2j, s)
		if m.size == 0 {
			continue
		}
		blocks = append(blocks, m)
		if s.alo < m.i && s.blo < m.j {
			queue = append(queue, span{s.alo, m.i, s.blo, m.j})
		}
		if m.i+m.size < s.ahi && m.j+m.size < s.bhi {
			queue = append(queue, span{m.i + m.size, s.ahi, m.j + m.size, s.bhi})
		}
	}
	return blocks
}

// longestMatch returns the longest common run inside the span. Among equally
// long runs the one starting earliest in a wins, then earliest in b.
func longestMatch(a []rune, b2j map[rune][]int, s span) block {
	best := block{i: s.alo, j: s.blo}
	j2len := map[int]int{}
	for i := s.alo; i < s.ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < s.blo {
				continue
			}
			if j >= s.bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > best.size {
				best = block{i: i - k + 1, j: j - k + 1, size: k}
			}
		}
		j2len = next
	}
	return best
}
