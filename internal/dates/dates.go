// Package dates canonicalizes spreadsheet, native and delimited-string dates
// into DD/MM/YYYY.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Layout is the canonical output format.
const Layout = "02/01/2006"

var separators = regexp.MustCompile(`[-/.]`)

// Normalize converts raw into DD/MM/YYYY. It never fails: input it cannot
// interpret is returned as text so malformed dates surface downstream.
// Absent, empty, false and zero input yields "".
func Normalize(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(Layout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return Normalize(*v)
	case string:
		return fromString(strings.TrimSpace(v))
	case bool:
		if !v {
			return ""
		}
		return "true"
	}

	if f, ok := toFloat(raw); ok {
		if f == 0 {
			return ""
		}
		if t, err := excelize.ExcelDateToTime(f, false); err == nil && t.Year() > 1900 {
			return t.Format(Layout)
		}
		return fromString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	return fromString(fmt.Sprint(raw))
}

func fromString(s string) string {
	if s == "" {
		return ""
	}
	parts := separators.Split(s, -1)
	if len(parts) != 3 {
		return s
	}
	switch {
	case len(parts[0]) == 4:
		return parts[2] + "/" + parts[1] + "/" + parts[0]
	case len(parts[2]) == 4:
		return parts[0] + "/" + parts[1] + "/" + parts[2]
	}
	return s
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
