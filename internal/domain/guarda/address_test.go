package guarda

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCompactAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"B49060102", "B.49.06.01.02"},
		{"A01010002", "A.01.01.00.02"},
		{"C1", "C.1"},
		{"D123", "D.12.3"},
		{"Z", "Z"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatCompactAddress(tt.in))
		})
	}
}

func TestParseAddressID(t *testing.T) {
	tests := []struct {
		in     string
		wantID int
		wantOK bool
	}{
		{"12345", 12345, true},
		{"7", 7, true},
		{"123456", 0, false},
		{"A.01.01.00.02", 0, false},
		{"12a", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			id, ok := ParseAddressID(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestStripSeparators(t *testing.T) {
	assert.Equal(t, "B49060102", StripSeparators("B.49.06.01.02"))
}
