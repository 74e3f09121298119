package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dmyPattern       = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4}|\d{2})$`)
	ymdPattern       = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	monthNamePattern = regexp.MustCompile(`^(\d{1,2})[-/ ]?([A-Za-z]{3,9})[-/ ,]*(\d{4}|\d{2})$`)
	isoStampPattern  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[T ]\d{2}:\d{2}`)
)

var monthNames = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"sept": time.September, "oct": time.October, "nov": time.November,
	"dec": time.December,
}

// ExpandYear maps a two-digit year onto a century: above 50 is 19xx,
// everything else 20xx.
func ExpandYear(yy int) int {
	if yy > 50 {
		return 1900 + yy
	}
	return 2000 + yy
}

// ParseDate converts a statement date into ISO "YYYY-MM-DD". Day-first
// numeric dates, ISO dates, ISO timestamps and month-name dates are
// accepted; impossible calendar dates are rejected.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if m := isoStampPattern.FindStringSubmatch(s); m != nil {
		return ParseDate(m[1])
	}
	if m := ymdPattern.FindStringSubmatch(s); m != nil {
		return buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		return buildDate(year(m[3]), atoi(m[2]), atoi(m[1]))
	}
	if m := monthNamePattern.FindStringSubmatch(s); m != nil {
		name := strings.ToLower(m[2])
		month, ok := monthNames[name]
		if !ok && len(name) > 3 {
			month, ok = monthNames[name[:3]]
		}
		if !ok {
			return "", false
		}
		return buildDate(year(m[3]), int(month), atoi(m[1]))
	}
	return "", false
}

// IsTimestamp reports whether s is an ISO timestamp rather than a bare date.
func IsTimestamp(s string) bool {
	return isoStampPattern.MatchString(strings.TrimSpace(s))
}

// NoonTimestamp returns the placeholder timestamp used when a statement
// only carries a value date.
func NoonTimestamp(isoDate string) string {
	if isoDate == "" {
		return ""
	}
	return isoDate + "T12:00:00.000Z"
}

func buildDate(y, m, d int) (string, bool) {
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}

func year(s string) int {
	y := atoi(s)
	if len(s) == 2 {
		return ExpandYear(y)
	}
	return y
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
