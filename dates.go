package pdfstatement

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	isoDatePattern     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	numericDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?$`)
	monthDatePattern   = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]+)\.?(?:,?\s+(\d{4}))?$`)
	compactDatePattern = regexp.MustCompile(`^(\d{1,2})([A-Za-z]{3,9})$`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// lookupMonth matches full month names and their abbreviations.
func lookupMonth(name string) (time.Month, bool) {
	m, ok := monthNames[strings.ToLower(name)]
	return m, ok
}

// ParseDate parses a statement date. Numeric dates are tried month-first
// unless dayFirst is set, then the other way round. "D Month [YYYY]",
// "DDMon" and ISO dates are also accepted. A missing year is taken from
// now.
func ParseDate(raw string, now time.Time, dayFirst bool) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}

	if m := isoDatePattern.FindStringSubmatch(s); m != nil {
		return buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	if m := numericDatePattern.FindStringSubmatch(strings.ReplaceAll(s, "-", "/")); m != nil {
		year := now.Year()
		if m[3] != "" {
			year = expandYear(m[3])
		}
		first, second := atoi(m[1]), atoi(m[2])
		orders := [][2]int{{first, second}, {second, first}}
		if dayFirst {
			orders[0], orders[1] = orders[1], orders[0]
		}
		for _, o := range orders {
			if t, err := buildDate(year, o[0], o[1]); err == nil {
				return t, nil
			}
		}
		return time.Time{}, errors.Errorf("invalid date %q", raw)
	}

	if m := monthDatePattern.FindStringSubmatch(s); m != nil {
		if month, ok := lookupMonth(m[2]); ok {
			year := now.Year()
			if m[3] != "" {
				year = atoi(m[3])
			}
			return buildDate(year, int(month), atoi(m[1]))
		}
	}

	if m := compactDatePattern.FindStringSubmatch(s); m != nil {
		if month, ok := lookupMonth(m[2]); ok {
			return buildDate(now.Year(), int(month), atoi(m[1]))
		}
	}

	return time.Time{}, errors.Errorf("unrecognized date %q", raw)
}

// buildDate rejects day/month combinations that time.Date would normalize.
func buildDate(year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, errors.Errorf("invalid date %04d-%02d-%02d", year, month, day)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, errors.Errorf("invalid date %04d-%02d-%02d", year, month, day)
	}
	return t, nil
}

// expandYear maps two-digit years 69-99 to 19xx and 00-68 to 20xx.
func expandYear(s string) int {
	year := atoi(s)
	if len(s) == 2 {
		if year >= 69 {
			return 1900 + year
		}
		return 2000 + year
	}
	return year
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
