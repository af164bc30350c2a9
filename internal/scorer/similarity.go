package scorer

import "strings"

// nameSimilarity scores two already-normalized names in [0,1]. It takes
// the larger of Jaccard word-set similarity and Dice bigram similarity:
// the word-set view handles reordered or partially overlapping
// multi-word names, the bigram view handles single-word names and
// near-typos that share no whole word.
func nameSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	j := jaccardWords(a, b)
	d := diceBigrams(a, b)
	if d > j {
		return d
	}
	return j
}

// jaccardWords computes Jaccard similarity on word sets.
func jaccardWords(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}

	union := len(wordsA)
	for w := range wordsB {
		if !wordsA[w] {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if w != "" {
			set[w] = true
		}
	}
	return set
}

// diceBigrams computes the Sørensen–Dice coefficient on character
// bigram multisets.
func diceBigrams(a, b string) float64 {
	bigramsA := bigrams(a)
	bigramsB := bigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0
	}

	counts := make(map[string]int, len(bigramsA))
	for _, g := range bigramsA {
		counts[g]++
	}

	overlap := 0
	for _, g := range bigramsB {
		if counts[g] > 0 {
			counts[g]--
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(bigramsA)+len(bigramsB))
}

func bigrams(s string) []string {
	r := []rune(s)
	if len(r) < 2 {
		return nil
	}
	out := make([]string, 0, len(r)-1)
	for i := 0; i < len(r)-1; i++ {
		out = append(out, string(r[i:i+2]))
	}
	return out
}
