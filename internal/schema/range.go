package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// NumericRange is a closed interval [Low, High]. Bounds are kept as decimals so
// that a value typed exactly at a boundary compares equal to it.
type NumericRange struct {
	Low  decimal.Decimal
	High decimal.Decimal
}

// NewRange builds a range from floats and rejects Low > High.
func NewRange(low, high float64) (NumericRange, error) {
	if !finite(low) || !finite(high) {
		return NumericRange{}, fmt.Errorf("range bounds must be finite: %v - %v", low, high)
	}
	r := NumericRange{Low: decimal.NewFromFloat(low), High: decimal.NewFromFloat(high)}
	if r.Low.GreaterThan(r.High) {
		return NumericRange{}, fmt.Errorf("range low %s exceeds high %s", r.Low, r.High)
	}
	return r, nil
}

// ParseRange reads the "low - high" notation used by the tool tables,
// tolerating irregular spacing such as "0.014 -  0.06".
func ParseRange(text string) (NumericRange, error) {
	lowText, highText, ok := strings.Cut(strings.TrimSpace(text), "-")
	if !ok {
		return NumericRange{}, fmt.Errorf("range %q: expected \"low - high\"", text)
	}
	low, err := decimal.NewFromString(strings.TrimSpace(lowText))
	if err != nil {
		return NumericRange{}, fmt.Errorf("range %q: bad low bound: %w", text, err)
	}
	high, err := decimal.NewFromString(strings.TrimSpace(highText))
	if err != nil {
		return NumericRange{}, fmt.Errorf("range %q: bad high bound: %w", text, err)
	}
	if low.GreaterThan(high) {
		return NumericRange{}, fmt.Errorf("range %q: low exceeds high", text)
	}
	return NumericRange{Low: low, High: high}, nil
}

// Contains reports low <= v <= high. NaN and infinities are never contained.
func (r NumericRange) Contains(v float64) bool {
	if !finite(v) {
		return false
	}
	d := decimal.NewFromFloat(v)
	return d.GreaterThanOrEqual(r.Low) && d.LessThanOrEqual(r.High)
}

func (r NumericRange) LowFloat() float64 {
	f, _ := r.Low.Float64()
	return f
}

func (r NumericRange) HighFloat() float64 {
	f, _ := r.High.Float64()
	return f
}

func (r NumericRange) String() string {
	return r.Low.String() + " - " + r.High.String()
}

// MarshalJSON renders the range as {"low":..,"high":..} with plain numbers.
func (r NumericRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Low  json.Number `json:"low"`
		High json.Number `json:"high"`
	}{json.Number(r.Low.String()), json.Number(r.High.String())})
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
