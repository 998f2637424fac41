package damage

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid damage amount")

var amountPattern = regexp.MustCompile(`^([0-9]*)(?:\.([0-9]+))?([KMB]?)$`)

const (
	Thousand int64 = 1_000
	Million  int64 = 1_000_000
	Billion  int64 = 1_000_000_000
)

// Token is the result of reading an argument that may be either a damage amount
// or a player name. It is either an Amount or a NotAnAmount.
type Token interface {
	token()
}

// Amount is a parsed damage value.
type Amount int64

// NotAnAmount holds the original text when it does not read as a damage value.
type NotAnAmount string

func (Amount) token()      {}
func (NotAnAmount) token() {}

// Parse reads "1500000", "1.5M", "500k", "2B". Suffix fractions are applied
// exactly; digits beyond the unit's precision are truncated.
func Parse(text string) Token {
	s := strings.ToUpper(strings.TrimSpace(text))
	if s == "" {
		return NotAnAmount(text)
	}

	if isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return NotAnAmount(text)
		}
		return Amount(n)
	}

	intPart, fracPart, suffix, ok := split(s)
	if !ok {
		return NotAnAmount(text)
	}

	mult := multiplier(suffix)
	n, ok := scale(intPart, fracPart, mult)
	if !ok {
		return NotAnAmount(text)
	}
	return Amount(n)
}

// ParseAmount is Parse for callers that require a number.
func ParseAmount(text string) (int64, error) {
	switch t := Parse(text).(type) {
	case Amount:
		return int64(t), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, text)
	}
}

// Format renders n with the largest applicable suffix, e.g. 1500000 -> "1.5M".
func Format(n int64) string {
	switch {
	case n >= Billion:
		return withUnit(n, Billion, "B")
	case n >= Million:
		return withUnit(n, Million, "M")
	case n >= Thousand:
		return withUnit(n, Thousand, "K")
	}
	return strconv.FormatInt(n, 10)
}

func withUnit(n, unit int64, suffix string) string {
	if n%unit == 0 {
		return strconv.FormatInt(n/unit, 10) + suffix
	}
	return strconv.FormatFloat(float64(n)/float64(unit), 'f', 1, 64) + suffix
}

// split breaks "1.5M" into ("1", "5", "M").
func split(s string) (string, string, string, bool) {
	m := amountPattern.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return "", "", "", false
	}
	return m[1], m[2], m[3], true
}

func multiplier(suffix string) int64 {
	switch suffix {
	case "K":
		return Thousand
	case "M":
		return Million
	case "B":
		return Billion
	}
	return 1
}

func scale(intPart, fracPart string, mult int64) (int64, bool) {
	var whole int64
	if intPart != "" {
		v, err := strconv.ParseInt(intPart, 10, 64)
		if err != nil || v > math.MaxInt64/mult {
			return 0, false
		}
		whole = v * mult
	}

	var frac int64
	// digits of the fraction that can still contribute to an integer result
	digits := len(strconv.FormatInt(mult, 10)) - 1
	if len(fracPart) > digits {
		fracPart = fracPart[:digits]
	}
	if fracPart != "" {
		v, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, false
		}
		frac = v * (mult / pow10(len(fracPart)))
	}

	if whole > math.MaxInt64-frac {
		return 0, false
	}
	return whole + frac, true
}

func pow10(n int) int64 {
	p := int64(1)
	for range n {
		p *= 10
	}
	return p
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
