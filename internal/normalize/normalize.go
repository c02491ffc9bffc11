// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

// Package normalize canonicalizes tournament, venue and series names for matching.
//
// Name applies, in order: prize standardization, day-name removal, time
// removal, date removal, filler removal, poker-term canonicalization and
// generic venue-suffix removal. Prize amounts and distinctive identifiers
// such as "bankroll builder" are kept; collapsing different games to the
// same string is the failure mode to avoid.
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options selects which rewrites Name applies.
type Options struct {
	StandardizePrize    bool
	RemoveDays          bool
	RemoveTimes         bool
	RemoveDates         bool
	RemoveFiller        bool
	CanonicalizeTerms   bool
	RemoveVenueSuffixes bool
}

// DefaultOptions enables every rewrite.
func DefaultOptions() Options {
	return Options{
		StandardizePrize:    true,
		RemoveDays:          true,
		RemoveTimes:         true,
		RemoveDates:         true,
		RemoveFiller:        true,
		CanonicalizeTerms:   true,
		RemoveVenueSuffixes: true,
	}
}

const guaranteeWord = `(?:gtd|guaranteed|guarantee)`

const monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	dollarPrizeRe = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?)\s*(k\b)?(\s*` + guaranteeWord + `\b)?`)
	kPrizeRe      = regexp.MustCompile(`\b(\d+(?:\.\d+)?)\s*(k)\b(\s*` + guaranteeWord + `\b)?`)
	gtdPrizeRe    = regexp.MustCompile(`\b(\d[\d,]*)()(\s*` + guaranteeWord + `\b)`)

	dayRe = regexp.MustCompile(`\b(?:mon|tues?|wed(?:nes)?|thu(?:rs?)?|fri|sat(?:ur)?|sun)(?:day)?s?\b`)

	untilRe    = regexp.MustCompile(`\b(?:until|till|til)\b(?:\s+\d{1,2}(?::\d{2})?\s*(?:am|pm)?)?`)
	lateRegoRe = regexp.MustCompile(`\blate\s*(?:rego|reg|registration)\b`)
	clockRe    = regexp.MustCompile(`\b\d{1,2}:\d{2}\s*(?:am|pm)?\b`)
	hourRe     = regexp.MustCompile(`\b\d{1,2}\s*(?:am|pm)\b`)

	numericDateRe  = regexp.MustCompile(`\b\d{1,2}/\d{1,2}(?:/\d{2,4})?\b|\b\d{1,2}\.\d{1,2}\.\d{2,4}\b`)
	ordinalMonthRe = regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `\b`)
	monthDayRe     = regexp.MustCompile(`\b` + monthPattern + `\s+\d{1,2}(?:st|nd|rd|th)?\b`)
	onOrdinalRe    = regexp.MustCompile(`\bon\s+(?:the\s+)?\d{1,2}(?:st|nd|rd|th)\b`)

	guaranteedRe = regexp.MustCompile(`\bguarantee(?:d)?\b`)
	fillerRe     = regexp.MustCompile(`\b(?:weekly|daily|regular|at|on|the|a|an)\b`)

	venueSuffixRe = regexp.MustCompile(`\b(?:leagues?\s+club|rsl(?:\s+club)?|bowl(?:s|ing)\s+club|sports\s+club|golf\s+club|workers\s+club|services\s+club|hotel|tavern|pub)\b`)

	yearRe = regexp.MustCompile(`\b(?:19|20)\d{2}\b`)

	nonAlnumRe = regexp.MustCompile(`[^a-z0-9 ]+`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

type rewrite struct {
	re   *regexp.Regexp
	with string
}

var termRewrites = []rewrite{
	{regexp.MustCompile(`\bre[\s-]?entry\b`), "reentry"},
	{regexp.MustCompile(`\bre[\s-]?entries\b`), "reentries"},
	{regexp.MustCompile(`\bre[\s-]?buys?\b`), "rebuy"},
	{regexp.MustCompile(`\bfreeze[\s-]?outs?\b`), "freezeout"},
	{regexp.MustCompile(`\bdeep[\s-]?stacks?\b`), "deepstack"},
	{regexp.MustCompile(`\bknock[\s-]?outs?\b`), "knockout"},
	{regexp.MustCompile(`\bhold[\s'’-]?em\b`), "holdem"},
	{regexp.MustCompile(`\bnlhe\b`), "nlh"},
	{regexp.MustCompile(`\bsatellites?\b`), "satty"},
}

var folder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// fold lowercases s and strips diacritics.
func fold(s string) string {
	out, _, err := transform.String(folder, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Name normalizes a game name with every rewrite enabled.
func Name(raw string) string {
	return NameWith(raw, DefaultOptions())
}

// NameWith normalizes a game name with the selected rewrites.
func NameWith(raw string, opts Options) string {
	s := fold(raw)

	if opts.StandardizePrize {
		s = standardizePrizes(s)
	}
	if opts.RemoveDays {
		s = dayRe.ReplaceAllString(s, " ")
	}
	if opts.RemoveTimes {
		s = untilRe.ReplaceAllString(s, " ")
		s = lateRegoRe.ReplaceAllString(s, " ")
		s = clockRe.ReplaceAllString(s, " ")
		s = hourRe.ReplaceAllString(s, " ")
	}
	if opts.RemoveDates {
		s = numericDateRe.ReplaceAllString(s, " ")
		s = onOrdinalRe.ReplaceAllString(s, " ")
		s = ordinalMonthRe.ReplaceAllString(s, " ")
		s = monthDayRe.ReplaceAllString(s, " ")
	}
	if opts.RemoveFiller {
		s = guaranteedRe.ReplaceAllString(s, "gtd")
		s = fillerRe.ReplaceAllString(s, " ")
	}
	if opts.CanonicalizeTerms {
		for _, r := range termRewrites {
			s = r.re.ReplaceAllString(s, r.with)
		}
	}
	if opts.RemoveVenueSuffixes {
		s = venueSuffixRe.ReplaceAllString(s, " ")
	}
	return collapse(s)
}

// collapse strips punctuation and squeezes whitespace.
func collapse(s string) string {
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func standardizePrizes(s string) string {
	for _, re := range []*regexp.Regexp{dollarPrizeRe, kPrizeRe, gtdPrizeRe} {
		s = re.ReplaceAllStringFunc(s, func(m string) string {
			parts := re.FindStringSubmatch(m)
			amount, err := strconv.ParseFloat(strings.ReplaceAll(parts[1], ",", ""), 64)
			if err != nil {
				return m
			}
			return " " + formatPrize(amount, parts[2] != "", strings.TrimSpace(parts[3]) != "") + " "
		})
	}
	return s
}

// formatPrize renders amounts of 1000 or more to the nearest thousand as "<N>k".
func formatPrize(amount float64, thousands, guaranteed bool) string {
	if thousands {
		amount *= 1000
	}
	var out string
	if amount >= 1000 {
		out = fmt.Sprintf("%dk", int64(math.Round(amount/1000)))
	} else {
		out = strconv.FormatInt(int64(math.Round(amount)), 10)
	}
	if guaranteed {
		out += " gtd"
	}
	return out
}

// VenueName normalizes a venue name for equality checks: folded, punctuation
// stripped and generic suffixes removed.
func VenueName(raw string) string {
	s := fold(raw)
	s = strings.ReplaceAll(s, "&", " and ")
	stripped := collapse(venueSuffixRe.ReplaceAllString(s, " "))
	if stripped == "" {
		return collapse(s)
	}
	return stripped
}

// SeriesName normalizes a festival name independently of its year.
func SeriesName(raw string) string {
	s := fold(raw)
	s = yearRe.ReplaceAllString(s, " ")
	return collapse(s)
}
