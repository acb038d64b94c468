package guarda

import (
	"regexp"
	"strconv"
	"time"
)

var (
	dayMonthYear = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)
	compactDate  = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
)

// ParseLegacyDate parses the date formats SIAC emits: DD/MM/YYYY and
// YYYYMMDD. Anything else, including years up to 1970, yields nil.
func ParseLegacyDate(s string) *time.Time {
	var year, month, day int

	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		day, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		year, _ = strconv.Atoi(m[3])
	} else if m := compactDate.FindStringSubmatch(s); m != nil {
		year, _ = strconv.Atoi(m[1])
		month, _ = strconv.Atoi(m[2])
		day, _ = strconv.Atoi(m[3])
		if year <= 1970 {
			return nil
		}
	} else {
		return nil
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return nil
	}
	return &t
}
