package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/TrashScientist/contract-features/domain"
)

var applicationDateLayouts = buildApplicationDateLayouts()

func buildApplicationDateLayouts() []string {
	clocks := []string{"T15:04:05", "T15:04", "T15"}
	offsets := []string{"Z07:00", "-0700", "-07", ""}

	layouts := make([]string, 0, len(clocks)*len(offsets)+1)
	for _, clock := range clocks {
		for _, offset := range offsets {
			layouts = append(layouts, "2006-01-02"+clock+offset)
		}
	}
	return append(layouts, "2006-01-02")
}

// parseApplicationDate reads an ISO-8601 timestamp and returns its
// wall-clock fields with the offset dropped, not converted.
func parseApplicationDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}

	for _, layout := range applicationDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return naive(t), true
		}
	}
	return time.Time{}, false
}

// naive keeps the wall clock of t and discards its location.
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Matches a reassembled YYYY-M-D string. Month and day take an optional
// leading zero, the day also an optional leading space.
var contractDatePattern = regexp.MustCompile(
	`^(\d{4})-(1[0-2]|0[1-9]|[1-9])-(3[01]|[12]\d|0[1-9]|[1-9]| [1-9])$`,
)

// parseContractDate reads a DD.MM.YYYY contract field. Non-strings, empty
// strings, the wrong number of parts and impossible calendar dates are
// all reported as unparseable.
func parseContractDate(v domain.Value) (time.Time, bool) {
	s, ok := v.Text()
	if !ok || s == "" {
		return time.Time{}, false
	}

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return time.Time{}, false
	}

	m := contractDatePattern.FindStringSubmatch(parts[2] + "-" + parts[1] + "-" + parts[0])
	if m == nil {
		return time.Time{}, false
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(strings.TrimSpace(m[3]))
	if year < 1 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
