package convert

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount reads a cell as a decimal amount. Strings may carry thousands
// separators; trailing text after a leading number is ignored. Anything that
// does not start with a number is zero.
func ParseAmount(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil, bool, time.Time:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(n)
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat32(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt32(n)
	case int64:
		return decimal.NewFromInt(n)
	case string:
		return parseAmountText(n)
	}
	return parseAmountText(fmt.Sprint(v))
}

func parseAmountText(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", " ", "").Replace(s)
	if s == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	prefix := numericPrefix.FindString(s)
	if prefix == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return decimal.Zero
	}
	return d
}
