package usecase

import (
	"math"
	"sort"
)

// SimilarityScorer scores how well a query matches a catalog key, from 0 to 100
type SimilarityScorer interface {
	Score(query, candidate string) float64
}

// PartialRatioScorer rewards the shorter string being (almost) contained in the longer one.
// The shorter string is compared against windows of the longer string anchored at each
// common-substring block and the best window ratio is kept, so "vitamina c" scores 100
// against "vitamina c 1g".
type PartialRatioScorer struct{}

// Score implements SimilarityScorer
func (PartialRatioScorer) Score(query, candidate string) float64 {
	return PartialRatio(query, candidate)
}

// PartialRatio computes the best alignment ratio of the shorter string inside the longer one
func PartialRatio(s1, s2 string) float64 {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	shorter, longer := a, b
	if len(a) > len(b) {
		shorter, longer = b, a
	}

	best := 0.0
	for _, block := range matchingBlocks(shorter, longer) {
		start := block.j - block.i
		if start < 0 {
			start = 0
		}
		end := start + len(shorter)
		if end > len(longer) {
			end = len(longer)
		}

		r := ratio(shorter, longer[start:end])
		if r > 0.995 {
			return 100
		}
		if r > best {
			best = r
		}
	}

	return math.Round(best*10000) / 100
}

// ratio is 2*M/T where M is the number of matched runes and T the total length
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

// block says a[i:i+size] == b[j:j+size]
type block struct {
	i, j, size int
}

// matchingBlocks returns the non-overlapping common blocks of a and b in order,
// found by repeatedly taking the longest common substring of the unmatched ranges.
// The list always ends with the sentinel {len(a), len(b), 0}.
func matchingBlocks(a, b []rune) []block {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	var blocks []block

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		blocks = append(blocks, block{i, j, k})
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}

	sort.Slice(blocks, func(x, y int) bool {
		if blocks[x].i != blocks[y].i {
			return blocks[x].i < blocks[y].i
		}
		return blocks[x].j < blocks[y].j
	})

	return append(blocks, block{len(a), len(b), 0})
}

// longestMatch finds the longest common substring of a[alo:ahi] and b[blo:bhi].
// Ties go to the earliest start in a, then in b.
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestsize := alo, blo, 0
	j2len := make(map[int]int)

	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}

	return besti, bestj, bestsize
}
