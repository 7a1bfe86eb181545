package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"iso", "2024-03-07", "07/03/2024"},
		{"day first dashes", "07-03-2024", "07/03/2024"},
		{"day first dots", "07.03.2024", "07/03/2024"},
		{"already canonical", "15/01/2024", "15/01/2024"},
		{"iso slashes", "2024/01/15", "15/01/2024"},
		{"two digit year", "07-03-24", "07-03-24"},
		{"free text", "next tuesday", "next tuesday"},
		{"too many parts", "2024-03-07-01", "2024-03-07-01"},
		{"padded", "  2024-03-07 ", "07/03/2024"},
		{"empty", "", ""},
		{"blank", "   ", ""},
		{"nil", nil, ""},
		{"zero", 0.0, ""},
		{"serial", 45000.0, "15/03/2023"},
		{"serial int", 45000, "15/03/2023"},
		{"serial with time", 45000.75, "15/03/2023"},
		{"small serial", 100.0, "100"},
		{"negative", -3.0, "-3"},
		{"native", time.Date(2024, time.January, 5, 23, 30, 0, 0, time.FixedZone("IST", 19800)), "05/01/2024"},
		{"zero time", time.Time{}, ""},
		{"false", false, ""},
		{"true", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeSerialYearAbove1900(t *testing.T) {
	got := Normalize(45000.0)
	parsed, err := time.Parse(Layout, got)
	assert.NoError(t, err)
	assert.Greater(t, parsed.Year(), 1900)
}
