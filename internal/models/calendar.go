// Kingsroom - Poker Tournament Enrichment and Venue Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kingsroom

package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used in histories and instances.
const DateLayout = "2006-01-02"

var dayNames = [...]string{"SUNDAY", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"}

// DayName returns the upper-case weekday name of t in loc.
func DayName(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return dayNames[t.In(loc).Weekday()]
}

// DayOrder returns the Monday-first position of an upper-case day name, or -1.
func DayOrder(day string) int {
	for i, d := range dayNames {
		if d == strings.ToUpper(day) {
			return (i + 6) % 7
		}
	}
	return -1
}

// LocalDate returns the calendar date of t in loc as YYYY-MM-DD.
func LocalDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// WeekKey returns the ISO week of t in loc, e.g. "2024-W19".
func WeekKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	year, week := t.In(loc).ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
