package interpret

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/naze/internal/models"
)

var (
	lastDaysPattern = regexp.MustCompile(`last\s+(\d+)\s+days?`)
	monthPattern    = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december)\b(?:\s+(\d{4}))?`)
	yearPattern     = regexp.MustCompile(`\b(20\d{2})\b`)
)

var monthsByName = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// ParseTimeRange resolves a relative or named time phrase in the query into
// a concrete half-open window anchored at now. Returns nil when the query
// names no time period. Phrases are tried specific-first: "last 30 days"
// must not be swallowed by the bare-year rule.
func ParseTimeRange(query string, now time.Time) *models.TimeRange {
	lower := strings.ToLower(query)
	today := startOfDay(now)

	switch {
	case strings.Contains(lower, "yesterday"):
		return &models.TimeRange{From: today.AddDate(0, 0, -1), To: today}
	case strings.Contains(lower, "today"):
		return &models.TimeRange{From: today, To: today.AddDate(0, 0, 1)}
	case strings.Contains(lower, "last week"):
		weekStart := startOfWeek(now)
		return &models.TimeRange{From: weekStart.AddDate(0, 0, -7), To: weekStart}
	case strings.Contains(lower, "this week"):
		weekStart := startOfWeek(now)
		return &models.TimeRange{From: weekStart, To: weekStart.AddDate(0, 0, 7)}
	case strings.Contains(lower, "last month"):
		monthStart := startOfMonth(now)
		return &models.TimeRange{From: monthStart.AddDate(0, -1, 0), To: monthStart}
	case strings.Contains(lower, "this month"):
		monthStart := startOfMonth(now)
		return &models.TimeRange{From: monthStart, To: monthStart.AddDate(0, 1, 0)}
	}

	if m := lastDaysPattern.FindStringSubmatch(lower); m != nil {
		days, err := strconv.Atoi(m[1])
		if err == nil && days > 0 {
			return &models.TimeRange{From: today.AddDate(0, 0, -days), To: today.AddDate(0, 0, 1)}
		}
	}

	if m := monthPattern.FindStringSubmatch(lower); m != nil {
		month := monthsByName[m[1]]
		year := now.Year()
		if m[2] != "" {
			year, _ = strconv.Atoi(m[2])
		} else if time.Date(year, month, 1, 0, 0, 0, 0, now.Location()).After(now) {
			// A bare month name in the future means the most recent one.
			year--
		}
		from := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
		return &models.TimeRange{From: from, To: from.AddDate(0, 1, 0)}
	}

	if m := yearPattern.FindStringSubmatch(lower); m != nil {
		year, _ := strconv.Atoi(m[1])
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location())
		return &models.TimeRange{From: from, To: from.AddDate(1, 0, 0)}
	}

	return nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the Monday 00:00 of t's week.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
