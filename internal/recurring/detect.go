// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package recurring

import (
	"regexp"
	"strings"

	"github.com/tomtom215/kingsroom/internal/models"
)

type variantPattern struct {
	variant models.GameVariant
	re      *regexp.Regexp
}

// variantPatterns are checked in order; the five-card pattern must precede PLO.
var variantPatterns = []variantPattern{
	{models.VariantPLO5, regexp.MustCompile(`\b(?:plo\s?5|5[\s-]?card\s+(?:plo|omaha|pot[\s-]limit)|big\s+o)\b`)},
	{models.VariantPLO, regexp.MustCompile(`\b(?:plo\s?4?|omaha|pot[\s-]limit\s+omaha)\b`)},
	{models.VariantMixed, regexp.MustCompile(`\b(?:mixed|h\.?o\.?r\.?s\.?e|8[\s-]game|dealer'?s\s+choice)\b`)},
	{models.VariantRazz, regexp.MustCompile(`\brazz\b`)},
	{models.VariantStud, regexp.MustCompile(`\b(?:stud|7[\s-]card)\b`)},
	{models.VariantDraw, regexp.MustCompile(`\b(?:2-7|triple\s+draw|badugi|draw)\b`)},
	{models.VariantLHE, regexp.MustCompile(`\b(?:lhe|limit\s+hold[\s'’-]?em|fixed\s+limit)\b`)},
}

var noLimitRe = regexp.MustCompile(`\b(?:no[\s-]?limit|nlh|nlhe)\b`)

// DetectVariant infers the poker variant from a game name. Names without a
// recognised marker are hold'em.
func DetectVariant(name string) models.GameVariant {
	s := strings.ToLower(name)
	noLimit := noLimitRe.MatchString(s)
	for _, p := range variantPatterns {
		if p.variant == models.VariantLHE && noLimit {
			continue
		}
		if p.re.MatchString(s) {
			return p.variant
		}
	}
	return models.VariantNLHE
}

var (
	dailyRe    = regexp.MustCompile(`\b(?:daily|nightly|every\s*day)\b`)
	biweeklyRe = regexp.MustCompile(`\b(?:fortnightly|bi[\s-]?weekly|every\s+(?:second|other)\s+\w+)\b`)
	monthlyRe  = regexp.MustCompile(`\b(?:monthly|(?:first|1st|second|2nd|third|3rd|last)\s+(?:mon|tues|wednes|thurs|fri|satur|sun)day\s+of)\b`)
	weeklyRe   = regexp.MustCompile(`\b(?:weekly|every\s+(?:mon|tues|wednes|thurs|fri|satur|sun)day|(?:mon|tues|wednes|thurs|fri|satur|sun)days?)\b`)
	monthRe    = regexp.MustCompile(`\b(?:january|february|march|april|june|july|august|september|october|november|december)\b`)
)

// DetectFrequency infers how often a template recurs from its name. An
// explicit keyword wins; a month name implies MONTHLY and a day name WEEKLY.
func DetectFrequency(name string) models.Frequency {
	s := strings.ToLower(name)
	switch {
	case dailyRe.MatchString(s):
		return models.FrequencyDaily
	case biweeklyRe.MatchString(s):
		return models.FrequencyBiweekly
	case monthlyRe.MatchString(s):
		return models.FrequencyMonthly
	case weeklyRe.MatchString(s):
		return models.FrequencyWeekly
	case monthRe.MatchString(s):
		return models.FrequencyMonthly
	}
	return models.FrequencyWeekly
}

var oneOffRe = regexp.MustCompile(`\b(?:festival|main\s+event|christmas|xmas|new\s+years?|easter|anniversary|grand\s+final|charity|one[\s-]off|special\s+event|melbourne\s+cup|championships?)\b`)

// IsOneOff reports whether a name marks a single event rather than a schedule.
func IsOneOff(name string) bool {
	return oneOffRe.MatchString(strings.ToLower(name))
}
