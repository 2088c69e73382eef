package domain

import (
	"encoding/json"
	"fmt"
	"math"
)

// Money is a currency amount in cents. Sums are exact integer arithmetic.
type Money int64

// MaxMoney is the largest accepted amount (100 billion). Totals over fewer
// than 900k participants cannot overflow int64.
const MaxMoney Money = 10_000_000_000_000

// MoneyFromFloat converts a decimal amount to cents, rounding to the nearest cent.
// Negative, non-finite and above-MaxMoney values are rejected with ErrInvalidAmount.
func MoneyFromFloat(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	cents := math.Round(v * 100)
	if cents > float64(MaxMoney) {
		return 0, fmt.Errorf("%w: %v exceeds %s", ErrInvalidAmount, v, MaxMoney)
	}
	return Money(cents), nil
}

// Valid reports whether m is within [0, MaxMoney].
func (m Money) Valid() bool { return m >= 0 && m <= MaxMoney }

func (m Money) Float64() float64 { return float64(m) / 100 }

// String formats m with two decimal places.
func (m Money) String() string {
	sign := ""
	v := uint64(m)
	if m < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	v, err := n.Float64()
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	parsed, err := MoneyFromFloat(v)
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = parsed
	return nil
}

func (m Money) MarshalYAML() (any, error) {
	return m.Float64(), nil
}
