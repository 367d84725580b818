package versioning

import "strings"

// TitleRatio scores how alike two titles are, in [0, 1]. Titles are
// lowercased and whitespace-normalized before comparison. The score is
// 2*M/T where M is the number of matching characters found by repeatedly
// taking the longest common block and T is the total length of both titles,
// the classic sequence-matcher ratio.
func TitleRatio(a, b string) float64 {
	a = normalizeTitle(a)
	b = normalizeTitle(b)
	if a == "" && b == "" {
		return 1
	}
	ra := []rune(a)
	rb := []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	matches := matchingRunes(ra, rb)
	return 2 * float64(matches) / float64(total)
}

func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// matchingRunes counts matched runes by finding the longest common block,
// then recursing into the unmatched regions on either side of it.
func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestBlock(a, b)
	if size == 0 {
		return 0
	}
	n := size
	n += matchingRunes(a[:ai], b[:bi])
	n += matchingRunes(a[ai+size:], b[bi+size:])
	return n
}

// longestBlock finds the longest run of runes common to a and b. Among
// equally long runs the leftmost in a, then leftmost in b, wins.
func longestBlock(a, b []rune) (bestA, bestB, bestSize int) {
	// positions of each rune in b
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	// j2len[j] is the length of the matching run ending at a[i-1], b[j-1]
	j2len := make(map[int]int)
	for i, r := range a {
		next := make(map[int]int, len(b2j[r]))
		for _, j := range b2j[r] {
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestSize {
				bestA, bestB, bestSize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}
	return bestA, bestB, bestSize
}
