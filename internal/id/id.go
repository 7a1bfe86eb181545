package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const fallbackPrefix = "VCH-"

// FallbackVoucherNumber returns the voucher number used when a row has none.
// index is zero-based: index 0 yields "VCH-1".
func FallbackVoucherNumber(index int) string {
	return fallbackPrefix + strconv.Itoa(index+1)
}

// ParseFallback returns the 1-based row position encoded in a fallback number.
func ParseFallback(number string) (int, error) {
	rest, ok := strings.CutPrefix(number, fallbackPrefix)
	if !ok {
		return 0, fmt.Errorf("not a fallback voucher number: %q", number)
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid row position in voucher number %q", number)
	}
	return n, nil
}

// VoucherKey identifies a voucher within one run.
type VoucherKey struct {
	Date   string
	Number string
}

func (k VoucherKey) String() string {
	return k.Date + " " + k.Number
}

// NewRunID returns a random identifier for a conversion run.
func NewRunID() string {
	return uuid.NewString()
}

// NewSessionID returns a random identifier for an API session.
func NewSessionID() string {
	return uuid.NewString()
}

// ValidSessionID reports whether s looks like an identifier from NewSessionID.
func ValidSessionID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
