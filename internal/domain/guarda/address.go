package guarda

import (
	"regexp"
	"strconv"
	"strings"
)

var addressIDPattern = regexp.MustCompile(`^\d{1,5}$`)

// FormatCompactAddress converts a compact placement such as B49060102 into
// its dotted form B.49.06.01.02: a separator after the leading letter and
// after every following pair. Inputs shorter than two characters are
// returned unchanged.
func FormatCompactAddress(compact string) string {
	if len(compact) < 2 {
		return compact
	}

	var b strings.Builder
	b.Grow(len(compact) + len(compact)/2)
	b.WriteString(compact[:1])
	rest := compact[1:]
	for i := 0; i < len(rest); i += 2 {
		end := i + 2
		if end > len(rest) {
			end = len(rest)
		}
		b.WriteByte('.')
		b.WriteString(rest[i:end])
	}
	return b.String()
}

// StripSeparators removes the dots of a dotted address
func StripSeparators(address string) string {
	return strings.ReplaceAll(address, ".", "")
}

// ParseAddressID reports whether token is a numeric address id (one to five
// digits) and returns its value.
func ParseAddressID(token string) (int, bool) {
	if !addressIDPattern.MatchString(token) {
		return 0, false
	}
	id, err := strconv.Atoi(token)
	if err != nil {
		return 0, false
	}
	return id, true
}
