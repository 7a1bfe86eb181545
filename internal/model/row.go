package model

import (
	"fmt"
	"strconv"
	"time"
)

// RawRow maps a column header to a cell value. Values are string, float64
// (or another Go numeric kind), time.Time, or nil for an absent cell.
type RawRow map[string]any

// Value returns the cell under column, or nil when column is empty.
func (r RawRow) Value(column string) any {
	if column == "" {
		return nil
	}
	return r[column]
}

// Text returns the cell under column as a string. See Text.
func (r RawRow) Text(column string) string {
	return Text(r.Value(column))
}

// Clone returns a shallow copy of the row.
func (r RawRow) Clone() RawRow {
	out := make(RawRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Text renders a cell as text. Absent cells, empty strings, numeric zero and
// false all render as "".
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		if x == 0 {
			return ""
		}
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		if x == 0 {
			return ""
		}
		return strconv.Itoa(x)
	case int64:
		if x == 0 {
			return ""
		}
		return strconv.FormatInt(x, 10)
	case bool:
		if !x {
			return ""
		}
		return "true"
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
