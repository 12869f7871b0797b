package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Base tariff unit: category factor × 500 × usage factor.
var basePremiumUnit = decimal.NewFromInt(500)

var (
	comprehensiveLoad = decimal.RequireFromString("1.5")
	recentVehicleLoad = decimal.RequireFromString("1.2") // age < 3 years
	agedVehicleRelief = decimal.RequireFromString("0.8") // age > 10 years
)

// PremiumCalculator prices a vehicle/driver/coverage combination. All
// arithmetic is decimal with half-up rounding to 2 places at every stage,
// so two runs over the same input produce identical cents.
type PremiumCalculator struct {
	tariffs TariffSource
	clock   func() time.Time
}

func NewPremiumCalculator(tariffs TariffSource) *PremiumCalculator {
	return &PremiumCalculator{
		tariffs: tariffs,
		clock:   time.Now,
	}
}

// CalculateBasePremium computes the tariff-driven base premium before any
// driver or usage-pattern adjustment. A missing category or usage tariff
// aborts the calculation: no premium exists without a tariff.
func (c *PremiumCalculator) CalculateBasePremium(ctx context.Context, vehicle Vehicle, coverage CoverageType, tenantID string) (decimal.Decimal, error) {
	categoryFactor, err := c.tariffs.CategoryTariffFactor(ctx, vehicle.CategoryID, tenantID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	usageFactor, err := c.tariffs.UsageTariffFactor(ctx, vehicle.UsageID, tenantID)
	if err != nil {
		return decimal.Decimal{}, err
	}

	base := categoryFactor.Mul(basePremiumUnit).Mul(usageFactor)

	if coverage == CoverageComprehensive {
		base = base.Mul(comprehensiveLoad)
	}

	switch age := vehicle.Age(c.clock()); {
	case age < 3:
		base = base.Mul(recentVehicleLoad)
	case age > 10:
		base = base.Mul(agedVehicleRelief)
	}

	return base.Round(2), nil
}

// CombinedAdjustmentFactor multiplies the independent risk adjustment
// factors. Multiplication is commutative, so the order carries no meaning.
func CombinedAdjustmentFactor(policy AutoPolicy, vehicle Vehicle, driver Driver) decimal.Decimal {
	factor := factorExperience(driver.ExperienceYears)
	factor = factor.Mul(factorEnginePower(vehicle.EnginePower))
	factor = factor.Mul(factorAnnualMileage(policy.AnnualMileage))
	factor = factor.Mul(factorAntiTheft(policy.AntiTheft))
	factor = factor.Mul(factorParking(policy.Parking))
	return factor
}

// CalculateAdjustedPremium is the base premium scaled by the combined
// adjustment factor.
func (c *PremiumCalculator) CalculateAdjustedPremium(ctx context.Context, policy AutoPolicy, vehicle Vehicle, driver Driver, tenantID string) (decimal.Decimal, error) {
	base, err := c.CalculateBasePremium(ctx, vehicle, policy.Coverage, tenantID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return base.Mul(CombinedAdjustmentFactor(policy, vehicle, driver)).Round(2), nil
}

// CalculateFinalPremium applies the bonus-malus coefficient on top of the
// adjusted premium. This is the amount persisted on the policy.
func (c *PremiumCalculator) CalculateFinalPremium(ctx context.Context, policy AutoPolicy, vehicle Vehicle, driver Driver, tenantID string) (decimal.Decimal, error) {
	adjusted, err := c.CalculateAdjustedPremium(ctx, policy, vehicle, driver, tenantID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	coef := NeutralCoefficient()
	if !policy.BonusMalus.IsZero() {
		coef = ClampCoefficient(policy.BonusMalus)
	}
	return adjusted.Mul(coef.Decimal()).Round(2), nil
}

func factorExperience(years int) decimal.Decimal {
	switch {
	case years < 2:
		return decimal.RequireFromString("1.5")
	case years < 5:
		return decimal.RequireFromString("1.2")
	case years < 10:
		return decimal.RequireFromString("1.0")
	default:
		return decimal.RequireFromString("0.9")
	}
}

func factorEnginePower(hp int) decimal.Decimal {
	switch {
	case hp > 200:
		return decimal.RequireFromString("1.3")
	case hp > 150:
		return decimal.RequireFromString("1.2")
	case hp > 100:
		return decimal.RequireFromString("1.1")
	default:
		// Includes hp == 0, i.e. power not provided.
		return decimal.RequireFromString("1.0")
	}
}

func factorAnnualMileage(km int) decimal.Decimal {
	if km == 0 {
		// Not provided.
		return decimal.RequireFromString("1.0")
	}
	switch {
	case km > 30000:
		return decimal.RequireFromString("1.2")
	case km > 20000:
		return decimal.RequireFromString("1.1")
	case km > 10000:
		return decimal.RequireFromString("1.0")
	default:
		return decimal.RequireFromString("0.9")
	}
}

func factorAntiTheft(present bool) decimal.Decimal {
	if present {
		return decimal.RequireFromString("0.95")
	}
	return decimal.RequireFromString("1.0")
}

func factorParking(p ParkingType) decimal.Decimal {
	switch p {
	case ParkingGarage:
		return decimal.RequireFromString("0.9")
	case ParkingLot:
		return decimal.RequireFromString("0.95")
	case ParkingStreet:
		return decimal.RequireFromString("1.1")
	default:
		return decimal.RequireFromString("1.0")
	}
}

// Coverage breakdown shares. Within each coverage type the shares sum to
// exactly 1.00.
var (
	thirdPartyShares = map[string]decimal.Decimal{
		"liability":           decimal.RequireFromString("0.80"),
		"roadside_assistance": decimal.RequireFromString("0.10"),
		"legal_protection":    decimal.RequireFromString("0.10"),
	}
	comprehensiveShares = map[string]decimal.Decimal{
		"liability":           decimal.RequireFromString("0.50"),
		"own_damage":          decimal.RequireFromString("0.25"),
		"theft":               decimal.RequireFromString("0.10"),
		"fire":                decimal.RequireFromString("0.05"),
		"glass_breakage":      decimal.RequireFromString("0.05"),
		"roadside_assistance": decimal.RequireFromString("0.025"),
		"legal_protection":    decimal.RequireFromString("0.025"),
	}
)

// SimulateCoverageBreakdown splits a final premium into its named
// sub-coverages. Informational only: each line item is rounded on its own,
// so the sum may drift from the final premium by a few cents. That drift
// is expected, the persisted premium is the unsplit figure.
func SimulateCoverageBreakdown(finalPremium decimal.Decimal, coverage CoverageType) (map[string]decimal.Decimal, error) {
	var shares map[string]decimal.Decimal
	switch coverage {
	case CoverageThirdParty:
		shares = thirdPartyShares
	case CoverageComprehensive:
		shares = comprehensiveShares
	default:
		return nil, fmt.Errorf("%w: unknown coverage type %q", ErrValidation, coverage)
	}

	out := make(map[string]decimal.Decimal, len(shares))
	for name, share := range shares {
		out[name] = finalPremium.Mul(share).Round(2)
	}
	return out, nil
}
