package core

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func newTestCalculator(tariffs TariffSource) *PremiumCalculator {
	calc := NewPremiumCalculator(tariffs)
	calc.clock = func() time.Time { return testNow }
	return calc
}

func unitTariffs() stubTariffs {
	one := decimal.RequireFromString("1.0")
	return stubTariffs{
		categories: map[string]decimal.Decimal{"cat-tourism": one},
		usages:     map[string]decimal.Decimal{"usage-private": one},
	}
}

func ratedVehicle(year int) Vehicle {
	return Vehicle{
		ID:           "veh-1",
		TenantID:     "tenant-a",
		Registration: "AB-123-CD",
		CategoryID:   "cat-tourism",
		UsageID:      "usage-private",
		Year:         year,
	}
}

func TestCalculateBasePremium(t *testing.T) {
	calc := newTestCalculator(unitTariffs())
	ctx := context.Background()

	t.Run("third party, vehicle two years old", func(t *testing.T) {
		// 1.0 × 500 × 1.0 × 1.2 (age < 3)
		base, err := calc.CalculateBasePremium(ctx, ratedVehicle(testNow.Year()-2), CoverageThirdParty, "tenant-a")
		require.NoError(t, err)
		assert.Equal(t, "600.00", base.StringFixed(2))
	})

	t.Run("comprehensive, vehicle two years old", func(t *testing.T) {
		// 1.0 × 500 × 1.0 × 1.5 × 1.2
		base, err := calc.CalculateBasePremium(ctx, ratedVehicle(testNow.Year()-2), CoverageComprehensive, "tenant-a")
		require.NoError(t, err)
		assert.Equal(t, "900.00", base.StringFixed(2))
	})

	t.Run("no age multiplier between 3 and 10 years", func(t *testing.T) {
		for _, age := range []int{3, 7, 10} {
			base, err := calc.CalculateBasePremium(ctx, ratedVehicle(testNow.Year()-age), CoverageThirdParty, "tenant-a")
			require.NoError(t, err)
			assert.Equal(t, "500.00", base.StringFixed(2), "age=%d", age)
		}
	})

	t.Run("aged vehicle relief", func(t *testing.T) {
		base, err := calc.CalculateBasePremium(ctx, ratedVehicle(testNow.Year()-11), CoverageThirdParty, "tenant-a")
		require.NoError(t, err)
		assert.Equal(t, "400.00", base.StringFixed(2))
	})

	t.Run("missing category tariff is fatal", func(t *testing.T) {
		vehicle := ratedVehicle(testNow.Year() - 5)
		vehicle.CategoryID = "cat-unknown"
		_, err := calc.CalculateBasePremium(ctx, vehicle, CoverageThirdParty, "tenant-a")
		require.ErrorIs(t, err, ErrTariffNotFound)
	})

	t.Run("missing usage tariff is fatal", func(t *testing.T) {
		vehicle := ratedVehicle(testNow.Year() - 5)
		vehicle.UsageID = "usage-unknown"
		_, err := calc.CalculateBasePremium(ctx, vehicle, CoverageThirdParty, "tenant-a")
		require.ErrorIs(t, err, ErrTariffNotFound)
	})
}

func TestCombinedAdjustmentFactor(t *testing.T) {
	// Fixture from the rating table: experience 1y -> 1.5, power 180 -> 1.2,
	// mileage 25000 -> 1.1, no anti-theft -> 1.0, street parking -> 1.1.
	vehicle := ratedVehicle(testNow.Year() - 2)
	vehicle.EnginePower = 180
	driver := Driver{ExperienceYears: 1}
	policy := AutoPolicy{
		AnnualMileage: 25000,
		AntiTheft:     false,
		Parking:       ParkingStreet,
	}

	factor := CombinedAdjustmentFactor(policy, vehicle, driver)
	assert.Equal(t, "2.178", factor.String()) // 1.5×1.2×1.1×1.0×1.1
}

func TestCalculateAdjustedPremium_FixtureScenario(t *testing.T) {
	calc := newTestCalculator(unitTariffs())

	vehicle := ratedVehicle(testNow.Year() - 2)
	vehicle.EnginePower = 180
	driver := Driver{ExperienceYears: 1}
	policy := AutoPolicy{
		Coverage:      CoverageThirdParty,
		AnnualMileage: 25000,
		Parking:       ParkingStreet,
	}

	adjusted, err := calc.CalculateAdjustedPremium(context.Background(), policy, vehicle, driver, "tenant-a")
	require.NoError(t, err)
	// base 600.00 × 2.178
	assert.Equal(t, "1306.80", adjusted.StringFixed(2))
}

func TestCalculateFinalPremium_AppliesBonusMalus(t *testing.T) {
	calc := newTestCalculator(unitTariffs())

	vehicle := ratedVehicle(testNow.Year() - 5)
	driver := Driver{ExperienceYears: 12} // 0.9
	policy := AutoPolicy{
		Coverage:   CoverageThirdParty,
		BonusMalus: decimal.RequireFromString("1.25"),
	}

	final, err := calc.CalculateFinalPremium(context.Background(), policy, vehicle, driver, "tenant-a")
	require.NoError(t, err)
	// base 500.00 × 0.9 = 450.00, × 1.25 = 562.50
	assert.Equal(t, "562.50", final.StringFixed(2))
}

func TestCalculateFinalPremium_UnsetCoefficientIsNeutral(t *testing.T) {
	calc := newTestCalculator(unitTariffs())

	vehicle := ratedVehicle(testNow.Year() - 5)
	driver := Driver{ExperienceYears: 12}
	policy := AutoPolicy{Coverage: CoverageThirdParty}

	final, err := calc.CalculateFinalPremium(context.Background(), policy, vehicle, driver, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, "450.00", final.StringFixed(2))
}

// Raising the engine power tier never lowers the adjusted premium.
func TestAdjustedPremium_MonotonicInEnginePower(t *testing.T) {
	calc := newTestCalculator(unitTariffs())
	driver := Driver{ExperienceYears: 6}
	policy := AutoPolicy{Coverage: CoverageThirdParty, AnnualMileage: 15000}

	prev := decimal.Zero
	for _, hp := range []int{0, 90, 101, 151, 201, 400} {
		vehicle := ratedVehicle(testNow.Year() - 5)
		vehicle.EnginePower = hp
		adjusted, err := calc.CalculateAdjustedPremium(context.Background(), policy, vehicle, driver, "tenant-a")
		require.NoError(t, err)
		assert.True(t, !adjusted.LessThan(prev), "premium decreased at %d hp", hp)
		prev = adjusted
	}
}

func TestSimulateCoverageBreakdown(t *testing.T) {
	t.Run("shares sum to one", func(t *testing.T) {
		for coverage, shares := range map[CoverageType]map[string]decimal.Decimal{
			CoverageThirdParty:    thirdPartyShares,
			CoverageComprehensive: comprehensiveShares,
		} {
			sum := decimal.Zero
			for _, share := range shares {
				sum = sum.Add(share)
			}
			assert.True(t, sum.Equal(decimal.RequireFromString("1.00")), "coverage=%s sum=%s", coverage, sum)
		}
	})

	t.Run("third party line items", func(t *testing.T) {
		out, err := SimulateCoverageBreakdown(decimal.RequireFromString("600.00"), CoverageThirdParty)
		require.NoError(t, err)
		assert.Equal(t, "480.00", out["liability"].StringFixed(2))
		assert.Equal(t, "60.00", out["roadside_assistance"].StringFixed(2))
		assert.Equal(t, "60.00", out["legal_protection"].StringFixed(2))
	})

	t.Run("comprehensive line items round individually", func(t *testing.T) {
		out, err := SimulateCoverageBreakdown(decimal.RequireFromString("333.33"), CoverageComprehensive)
		require.NoError(t, err)
		require.Len(t, out, 7)
		// Per-line rounding may drift from the final premium by cents.
		sum := decimal.Zero
		for _, amount := range out {
			sum = sum.Add(amount)
		}
		diff := sum.Sub(decimal.RequireFromString("333.33")).Abs()
		assert.True(t, diff.LessThanOrEqual(decimal.RequireFromString("0.05")), "drift=%s", diff)
	})

	t.Run("unknown coverage rejected", func(t *testing.T) {
		_, err := SimulateCoverageBreakdown(decimal.RequireFromString("100.00"), CoverageType("FANCY"))
		require.ErrorIs(t, err, ErrValidation)
	})
}
