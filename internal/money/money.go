// Package money provides fixed-point currency amounts.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Amount is a monetary value in minor units (cents, kopecks).
// All arithmetic is integer-only.
type Amount int64

const minorPerMajor = 100

// maxMajor is the largest whole part whose minor-unit value still fits in int64.
const maxMajor = (math.MaxInt64 - (minorPerMajor - 1)) / minorPerMajor

// FromMinor creates an Amount from minor units.
func FromMinor(minor int64) Amount { return Amount(minor) }

// Minor returns the amount in minor units.
func (a Amount) Minor() int64 { return int64(a) }

// Mul multiplies the amount by a quantity (e.g. seat count).
func (a Amount) Mul(qty int) Amount {
	return a * Amount(qty)
}

// Percent returns pct% of the amount, rounded half-up to the minor unit.
// Negative amounts round half away from zero.
func (a Amount) Percent(pct int64) Amount {
	v := int64(a) * pct
	if v < 0 {
		return Amount(-((-v + 50) / 100))
	}
	return Amount((v + 50) / 100)
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool { return a < 0 }

// String formats the amount as a decimal with two fractional digits.
func (a Amount) String() string {
	v := int64(a)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/minorPerMajor, v%minorPerMajor)
}

// Parse parses a decimal string like "123", "123.4" or "-123.45".
// More than two fractional digits is an error rather than a silent rounding.
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid amount: empty")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" && (!hasFrac || frac == "") {
		return 0, fmt.Errorf("invalid amount: %q", s)
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q: more than 2 decimal places", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || major < 0 {
		return 0, fmt.Errorf("invalid amount: %q", s)
	}
	if major > maxMajor {
		return 0, fmt.Errorf("invalid amount %q: out of range", s)
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || minor < 0 {
		return 0, fmt.Errorf("invalid amount: %q", s)
	}

	v := major*minorPerMajor + minor
	if neg {
		v = -v
	}
	return Amount(v), nil
}

// MustParse is Parse that panics on error. Intended for constants and tests.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts both "12.50" and 12.50.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Value implements driver.Valuer; amounts are stored as NUMERIC(12,2).
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*a = 0
		return nil
	case []byte:
		return a.scanString(string(v))
	case string:
		return a.scanString(v)
	case int64:
		*a = Amount(v * minorPerMajor)
		return nil
	case float64:
		return a.scanString(strconv.FormatFloat(v, 'f', 2, 64))
	default:
		return fmt.Errorf("cannot scan %T into money.Amount", src)
	}
}

func (a *Amount) scanString(s string) error {
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}
