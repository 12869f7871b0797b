package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Bonus-malus coefficient bounds mandated by the tariff regulation.
var (
	CoefficientMin = decimal.RequireFromString("0.50")
	CoefficientMax = decimal.RequireFromString("3.50")
)

// Coefficient is a bounded bonus-malus multiplier in [0.50, 3.50].
// The zero value means "not set"; every constructed Coefficient is in
// bounds, so code holding one never re-checks the range.
type Coefficient struct {
	value decimal.Decimal
}

// NewCoefficient rejects values outside [0.50, 3.50].
func NewCoefficient(v decimal.Decimal) (Coefficient, error) {
	if v.LessThan(CoefficientMin) || v.GreaterThan(CoefficientMax) {
		return Coefficient{}, fmt.Errorf("%w: coefficient %s outside [%s, %s]",
			ErrValidation, v, CoefficientMin, CoefficientMax)
	}
	return Coefficient{value: v}, nil
}

// ClampCoefficient forces a value into [0.50, 3.50].
func ClampCoefficient(v decimal.Decimal) Coefficient {
	switch {
	case v.LessThan(CoefficientMin):
		return Coefficient{value: CoefficientMin}
	case v.GreaterThan(CoefficientMax):
		return Coefficient{value: CoefficientMax}
	default:
		return Coefficient{value: v}
	}
}

// NeutralCoefficient is the entry coefficient for a driver with no history.
func NeutralCoefficient() Coefficient {
	return Coefficient{value: decimal.RequireFromString("1.00")}
}

// Decimal returns the underlying value.
func (c Coefficient) Decimal() decimal.Decimal { return c.value }

// IsZero reports whether the coefficient was never set.
func (c Coefficient) IsZero() bool { return c.value.IsZero() }

func (c Coefficient) Equal(o Coefficient) bool { return c.value.Equal(o.value) }

func (c Coefficient) String() string { return c.value.StringFixed(2) }
