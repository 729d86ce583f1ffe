// Package dedup collapses duplicate stories within a run. Exact duplicates
// share a link; near duplicates are the same story republished under
// slightly different headlines, caught by token-set similarity.
package dedup

import (
	"regexp"
	"slices"
	"strings"

	"github.com/tomakado/containers/set"

	"github.com/obeng-labs/newswire/internal/model"
)

var (
	nonAlnumPattern   = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// shorter tokens are stopwords and connectives, noise for similarity
const minTokenLen = 2

func normalizeTitle(title string) string {
	t := strings.ToLower(title)
	t = nonAlnumPattern.ReplaceAllString(t, "")
	t = whitespacePattern.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

func titleTokens(normalized string) []string {
	var tokens []string
	for _, tok := range strings.Fields(normalized) {
		if len(tok) <= minTokenLen {
			continue
		}
		if !slices.Contains(tokens, tok) {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Similarity scores two titles in [0, 1] using Jaccard overlap of their
// normalized token sets. Exact matches after normalization score 1 even
// when both titles tokenize to nothing.
func Similarity(a, b string) float64 {
	na, nb := normalizeTitle(a), normalizeTitle(b)
	if na == nb && na != "" {
		return 1.0
	}

	ta, tb := titleTokens(na), titleTokens(nb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	sb := set.New(tb...)
	inter := 0
	for _, tok := range ta {
		if sb.Contains(tok) {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

// Dedupe removes duplicate items, keeping first-seen order. Exact link
// duplicates always collapse, with the later occurrence's fields winning
// since re-listed items tend to carry fresher metadata. Fuzzy title
// matching runs only when enabled; it keeps the first representative of
// each near-duplicate cluster.
func Dedupe(items []model.Item, fuzzy bool, threshold float64) []model.Item {
	byLink := make(map[string]int, len(items))
	unique := make([]model.Item, 0, len(items))
	for _, it := range items {
		if idx, ok := byLink[it.Link]; ok {
			unique[idx] = it
			continue
		}
		byLink[it.Link] = len(unique)
		unique = append(unique, it)
	}

	if !fuzzy {
		return unique
	}

	var kept []model.Item
	for _, candidate := range unique {
		dup := false
		for _, rep := range kept {
			if Similarity(candidate.Title, rep.Title) >= threshold {
				dup = true
				break
			}
		}
		if !dup {
			kept = append(kept, candidate)
		}
	}
	return kept
}
