package services

import (
	"math"
	"strings"
)

// Fixed blend weights for the three similarity signals.
const (
	sequenceWeight = 0.3
	vectorWeight   = 0.4
	overlapWeight  = 0.3
)

// englishStopWords are dropped before building the term-frequency vectors.
var englishStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "this": {}, "to": {}, "was": {}, "were": {}, "will": {},
	"with": {}, "you": {}, "your": {},
}

// SimilarityEngine scores how likely two normalized titles describe the same
// physical item. Pure, deterministic, and symmetric; no state is retained
// between calls.
type SimilarityEngine struct{}

// NewSimilarityEngine creates a SimilarityEngine.
func NewSimilarityEngine() *SimilarityEngine {
	return &SimilarityEngine{}
}

// Similarity returns a score in [0,1] for two normalized titles.
//
// Two fast paths fire before the blended score: containment of one title in
// the other, and a shared extracted model identifier. Both are strong
// same-item signals that marketplace phrasing differences cannot fake.
func (e *SimilarityEngine) Similarity(a, b string) float64 {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter, longer := float64(len(a)), float64(len(b))
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		return 0.8 + 0.2*(shorter/longer)
	}

	idsA := extractIdentifiers(a)
	idsB := extractIdentifiers(b)
	if len(idsA) > 0 && len(idsB) > 0 && shareIdentifier(idsA, idsB) {
		return 0.95
	}

	seq := sequenceSimilarity(a, b)
	vec := vectorSimilarity(a, b)
	word := wordOverlap(a, b)

	if seq > 0.8 || word > 0.7 {
		seq = math.Min(1.0, seq*1.2)
		word = math.Min(1.0, word*1.2)
	}

	combined := sequenceWeight*seq + vectorWeight*vec + overlapWeight*word
	if seq > 0.95 {
		combined *= 1.1
	}

	return math.Min(1.0, combined)
}

func shareIdentifier(idsA, idsB []string) bool {
	set := make(map[string]struct{}, len(idsA))
	for _, id := range idsA {
		set[id] = struct{}{}
	}
	for _, id := range idsB {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

// sequenceSimilarity is the character-level longest-common-subsequence ratio:
// 2·LCS(a,b) / (len(a)+len(b)).
func sequenceSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	// Two-row DP keeps memory linear in the shorter string.
	if len(rb) > len(ra) {
		ra, rb = rb, ra
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}

// vectorSimilarity builds a TF-IDF vector space over exactly the two input
// strings (word n-grams of length 1–3, stop words removed) and returns the
// cosine similarity of the two document vectors. The vocabulary is rebuilt
// per comparison, so the computation is stateless and order-independent.
func vectorSimilarity(a, b string) float64 {
	termsA := ngramTerms(a)
	termsB := ngramTerms(b)
	if len(termsA) == 0 || len(termsB) == 0 {
		return 0
	}

	tfA := termCounts(termsA)
	tfB := termCounts(termsB)

	// Smoothed IDF over the two-document corpus:
	// idf(t) = ln((1+N)/(1+df(t))) + 1 with N = 2.
	idf := func(term string) float64 {
		df := 0
		if tfA[term] > 0 {
			df++
		}
		if tfB[term] > 0 {
			df++
		}
		return math.Log(3.0/float64(1+df)) + 1
	}

	var dot, normA, normB float64
	for term, cnt := range tfA {
		w := float64(cnt) * idf(term)
		normA += w * w
		if other := tfB[term]; other > 0 {
			dot += w * float64(other) * idf(term)
		}
	}
	for term, cnt := range tfB {
		w := float64(cnt) * idf(term)
		normB += w * w
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// ngramTerms tokenizes on whitespace, drops stop words, and expands the
// remaining token sequence into 1-, 2- and 3-grams.
func ngramTerms(s string) []string {
	var tokens []string
	for _, tok := range strings.Fields(s) {
		if _, stop := englishStopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}

	var terms []string
	for n := 1; n <= 3; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

func termCounts(terms []string) map[string]int {
	counts := make(map[string]int, len(terms))
	for _, t := range terms {
		counts[t]++
	}
	return counts
}

// wordOverlap is the Jaccard index over the whitespace-tokenized word sets.
func wordOverlap(a, b string) float64 {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(wordsA))
	for _, w := range wordsA {
		setA[w] = struct{}{}
	}
	setB := make(map[string]struct{}, len(wordsB))
	for _, w := range wordsB {
		setB[w] = struct{}{}
	}

	common := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			common++
		}
	}

	union := len(setA) + len(setB) - common
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union)
}
