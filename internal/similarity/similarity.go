// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

// Package similarity scores normalized names and numeric bands for template matching.
package similarity

import (
	"strings"
)

// stopTokens never contribute to token overlap.
var stopTokens = map[string]struct{}{
	"gtd": {},
	"the": {},
	"and": {},
	"for": {},
}

// Similarity returns a score in [0,1] for two normalized names.
//
// Equal strings score 1 and an empty side scores 0. When one string contains
// the other the score is 0.7 plus 0.3 times the length ratio; otherwise it is
// the mean of bigram Dice and token Jaccard.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		return 0.7 + 0.3*(float64(len(shorter))/float64(len(longer)))
	}

	return 0.5*Dice(a, b) + 0.5*Jaccard(Tokens(a), Tokens(b))
}

// Dice is the bigram-multiset overlap 2|A∩B|/(|A|+|B|). Whitespace is ignored.
func Dice(a, b string) float64 {
	ba := bigrams(a)
	bb := bigrams(b)
	total := 0
	for _, n := range ba {
		total += n
	}
	for _, n := range bb {
		total += n
	}
	if total == 0 {
		return 0
	}

	shared := 0
	for g, n := range ba {
		if m, ok := bb[g]; ok {
			shared += min(n, m)
		}
	}
	return 2 * float64(shared) / float64(total)
}

func bigrams(s string) map[string]int {
	r := []rune(strings.Join(strings.Fields(s), ""))
	out := make(map[string]int, len(r))
	for i := 0; i+1 < len(r); i++ {
		out[string(r[i:i+2])]++
	}
	return out
}

// Tokens splits s on whitespace, dropping tokens of length two or less and stop words.
func Tokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		if len([]rune(tok)) <= 2 {
			continue
		}
		if _, stop := stopTokens[tok]; stop {
			continue
		}
		out[tok] = struct{}{}
	}
	return out
}

// Jaccard is |A∩B|/|A∪B|, zero when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	shared := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	union := len(a) + len(b) - shared
	return float64(shared) / float64(union)
}
