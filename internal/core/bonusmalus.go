package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Annual no-claims reduction: 5% off the current coefficient.
	bonusRate = decimal.RequireFromString("0.05")
	// Per-claim surcharge: 25%, compounded once per claim.
	malusRate = decimal.RequireFromString("0.25")
)

// CalculateNewCoefficient applies one experience-rating period to a
// bonus-malus coefficient.
//
// With no claims the coefficient is reduced by 5%, floored at 0.50. With
// claims, a 25% surcharge is applied once per claim and compounds rather
// than scaling linearly, capped at 3.50. Results are rounded half-up to
// 2 decimals after every step so the output is reproducible bit for bit.
//
// A negative claim count is not a meaningful input and is rejected.
func CalculateNewCoefficient(current Coefficient, claimCount int) (Coefficient, error) {
	if claimCount < 0 {
		return Coefficient{}, fmt.Errorf("%w: claim count must not be negative, got %d",
			ErrValidation, claimCount)
	}

	coef := current.Decimal()

	if claimCount == 0 {
		coef = coef.Sub(coef.Mul(bonusRate)).Round(2)
		return ClampCoefficient(coef), nil
	}

	for i := 0; i < claimCount; i++ {
		coef = coef.Add(coef.Mul(malusRate)).Round(2)
		if coef.GreaterThan(CoefficientMax) {
			coef = CoefficientMax
		}
	}
	return ClampCoefficient(coef), nil
}
