package services

import (
	"regexp"
	"strings"
)

var (
	// leadingQualifierRegexp strips marketing qualifiers from the front of a title
	leadingQualifierRegexp = regexp.MustCompile(`^(?:brand\s+new|factory\s+sealed|new|sealed)\b[\s:,\-]*`)
	// trailingConditionRegexp strips condition words stacked at the end of a title
	trailingConditionRegexp = regexp.MustCompile(`(?:[\s,\-]+(?:factory\s+sealed|brand\s+new|sealed|new|nib))+$`)
	// asideRegexp removes parenthetical and bracketed asides
	asideRegexp = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	// trailingPunctRegexp removes a dangling dash or comma
	trailingPunctRegexp = regexp.MustCompile(`[\s,\-]+$`)
	// nonAlnumRegexp replaces everything that is not a letter, digit or space
	nonAlnumRegexp = regexp.MustCompile(`[^a-z0-9\s]`)
	// whitespaceRegexp collapses runs of whitespace
	whitespaceRegexp = regexp.MustCompile(`\s+`)

	// identifier patterns: an explicit model/part/sku prefix, a SKU-like
	// letters-then-digits token, and a digits-then-letters token
	prefixedModelRegexp = regexp.MustCompile(`\b(?:model|part|sku|item|ref)\s*(?:number|no)?\s*([a-z0-9]{4,})\b`)
	alphaNumModelRegexp = regexp.MustCompile(`\b[a-z]+\d+[a-z0-9]*\b`)
	numAlphaModelRegexp = regexp.MustCompile(`\b\d{3,}[a-z]+\d*\b`)
)

// Normalizer turns raw listing titles into canonical strings used for
// cross-marketplace comparison. Normalization is deterministic and pure.
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize canonicalizes a raw title. The optional condition label is
// stripped when a marketplace leaks it into the title text. An empty result
// is legal; downstream similarity scores it as dissimilar to everything.
func (n *Normalizer) Normalize(title, condition string) string {
	t := strings.ToLower(strings.TrimSpace(title))

	t = asideRegexp.ReplaceAllString(t, " ")
	t = leadingQualifierRegexp.ReplaceAllString(t, "")
	t = trailingConditionRegexp.ReplaceAllString(t, "")
	if condition != "" {
		cond := strings.ToLower(strings.TrimSpace(condition))
		t = strings.TrimSuffix(strings.TrimSpace(t), cond)
	}
	t = trailingPunctRegexp.ReplaceAllString(t, "")

	t = nonAlnumRegexp.ReplaceAllString(t, " ")
	t = whitespaceRegexp.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)

	// Prepend extracted identifiers so model numbers dominate token-overlap
	// and sequence comparisons.
	if ids := extractIdentifiers(t); len(ids) > 0 {
		t = strings.Join(ids, " ") + " " + t
	}

	return strings.TrimSpace(whitespaceRegexp.ReplaceAllString(t, " "))
}

// extractIdentifiers pulls candidate model/part identifiers out of a cleaned
// title, deduplicated in order of first appearance.
func extractIdentifiers(title string) []string {
	var ids []string
	seen := make(map[string]struct{})

	add := func(id string) {
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for _, m := range prefixedModelRegexp.FindAllStringSubmatch(title, -1) {
		add(m[1])
	}
	for _, m := range alphaNumModelRegexp.FindAllString(title, -1) {
		add(m)
	}
	for _, m := range numAlphaModelRegexp.FindAllString(title, -1) {
		add(m)
	}

	return ids
}
