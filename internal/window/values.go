package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// MinValue and MaxValue bound every observation.
	MinValue = 0
	MaxValue = 99
	// Precision is the number of decimal places an observation may carry.
	Precision = 2
)

var (
	minDecimal = decimal.NewFromInt(MinValue)
	maxDecimal = decimal.NewFromInt(MaxValue)
)

// ParseValue parses user input into an observation. It rejects anything
// that is not a number in [MinValue, MaxValue] with at most Precision
// decimal places instead of coercing it.
func ParseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "value", Reason: "empty"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &ValidationError{Field: "value", Reason: fmt.Sprintf("%q is not a number", s)}
	}
	if err := checkDecimal("value", d); err != nil {
		return 0, err
	}
	v, _ := d.Float64()
	return v, nil
}

// CheckValue validates an already numeric observation.
func CheckValue(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &ValidationError{Field: field, Reason: "not a finite number"}
	}
	return checkDecimal(field, decimal.NewFromFloat(v))
}

func checkDecimal(field string, d decimal.Decimal) error {
	if d.LessThan(minDecimal) || d.GreaterThan(maxDecimal) {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("%s is outside [%d, %d]", d.String(), MinValue, MaxValue),
		}
	}
	if !d.Round(Precision).Equal(d) {
		return &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("%s has more than %d decimal places", d.String(), Precision),
		}
	}
	return nil
}

func checkIndex(index int) error {
	if index < 0 || index >= Size {
		return &ValidationError{
			Field:  "index",
			Reason: fmt.Sprintf("%d is outside [0, %d)", index, Size),
		}
	}
	return nil
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
