package core

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tenantA = "tenant-a"
	tenantB = "tenant-b"
)

type policyValidatorFixture struct {
	validator *PolicyValidator
	vehicles  *fakeVehicles
	drivers   *fakeDrivers
	policies  *fakePolicyNumbers
	refs      *fakeReferences
}

func newPolicyValidatorFixture(t *testing.T) *policyValidatorFixture {
	t.Helper()

	issued := testNow.AddDate(-8, 0, 0)
	vehicles := &fakeVehicles{vehicles: map[string]Vehicle{
		"veh-1": {
			ID: "veh-1", TenantID: tenantA,
			Registration: "AB-123-CD",
			CategoryID:   "cat-tourism", UsageID: "usage-private",
			Year: testNow.Year() - 4,
		},
		"veh-other-tenant": {
			ID: "veh-other-tenant", TenantID: tenantB,
			Registration: "ZZ-999-ZZ",
			CategoryID:   "cat-tourism", UsageID: "usage-private",
			Year: testNow.Year() - 4,
		},
	}}
	drivers := &fakeDrivers{drivers: map[string]Driver{
		"drv-1": {
			ID: "drv-1", TenantID: tenantA,
			CustomerID:    "cust-1",
			LicenseNumber: "LIC-001", LicenseType: "B",
			LicenseIssued:   issued,
			ExperienceYears: 8,
		},
	}}
	policies := &fakePolicyNumbers{numbers: map[string]string{"POL-EXISTING": tenantA}}

	refs := &fakeReferences{}
	refs.add(RefCategory, "cat-tourism", tenantA)
	refs.add(RefUsage, "usage-private", tenantA)
	refs.add(RefGeographicZone, "zone-geo-1", tenantA)
	refs.add(RefCirculationZone, "zone-circ-1", tenantA)
	refs.add(RefClaimHistory, "claims-0", tenantA)
	// Same references under the other tenant, for vehicle rule composition.
	refs.add(RefCategory, "cat-tourism", tenantB)
	refs.add(RefUsage, "usage-private", tenantB)

	v := NewPolicyValidator(policies, vehicles, drivers, refs)
	v.clock = func() time.Time { return testNow }
	v.vehicleRules.clock = v.clock
	v.driverRules.clock = v.clock

	return &policyValidatorFixture{
		validator: v,
		vehicles:  vehicles,
		drivers:   drivers,
		policies:  policies,
		refs:      refs,
	}
}

func validPolicy() AutoPolicy {
	return AutoPolicy{
		TenantID:          tenantA,
		Number:            "POL-2026-0001",
		Status:            PolicyStatusActive,
		StartDate:         testNow.AddDate(0, 0, -5),
		EndDate:           testNow.AddDate(0, 0, -5).AddDate(1, 0, 0),
		Coverage:          CoverageThirdParty,
		BonusMalus:        decimal.RequireFromString("1.00"),
		ClaimHistoryID:    "claims-0",
		VehicleID:         "veh-1",
		DriverID:          "drv-1",
		GeographicZoneID:  "zone-geo-1",
		CirculationZoneID: "zone-circ-1",
	}
}

func codes(violations []Violation) []string {
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = v.Code
	}
	return out
}

func TestPolicyValidator_ValidPolicy(t *testing.T) {
	fix := newPolicyValidatorFixture(t)
	violations, err := fix.validator.ValidateForCreation(context.Background(), validPolicy(), tenantA)
	require.NoError(t, err)
	assert.Empty(t, violations)
}

func TestPolicyValidator_RequiredFieldsAccumulate(t *testing.T) {
	fix := newPolicyValidatorFixture(t)
	violations, err := fix.validator.ValidateForCreation(context.Background(), AutoPolicy{TenantID: tenantA}, tenantA)
	require.NoError(t, err)

	got := codes(violations)
	for _, want := range []string{
		"policy.number.required",
		"policy.status.required",
		"policy.start_date.required",
		"policy.end_date.required",
		"policy.coverage.required",
		"policy.bonus_malus.required",
		"policy.claim_history.required",
		"policy.vehicle.required",
		"policy.driver.required",
		"policy.geographic_zone.required",
		"policy.circulation_zone.required",
	} {
		assert.Contains(t, got, want)
	}
}

func TestPolicyValidator_StartDateBackdateWindow(t *testing.T) {
	fix := newPolicyValidatorFixture(t)
	ctx := context.Background()

	t.Run("40 days in the past is rejected", func(t *testing.T) {
		p := validPolicy()
		p.StartDate = testNow.AddDate(0, 0, -40)
		p.EndDate = p.StartDate.AddDate(1, 0, 0)
		violations, err := fix.validator.ValidateForCreation(ctx, p, tenantA)
		require.NoError(t, err)
		assert.Contains(t, codes(violations), "policy.start_date.too_old")
	})

	t.Run("exactly 30 days is allowed", func(t *testing.T) {
		p := validPolicy()
		p.StartDate = testNow.AddDate(0, 0, -30)
		p.EndDate = p.StartDate.AddDate(1, 0, 0)
		violations, err := fix.validator.ValidateForCreation(ctx, p, tenantA)
		require.NoError(t, err)
		assert.NotContains(t, codes(violations), "policy.start_date.too_old")
	})
}

func TestPolicyValidator_DateRules(t *testing.T) {
	fix := newPolicyValidatorFixture(t)
	ctx := context.Background()

	t.Run("start after end", func(t *testing.T) {
		p := validPolicy()
		p.EndDate = p.StartDate.AddDate(0, 0, -1)
		violations, err := fix.validator.ValidateForCreation(ctx, p, tenantA)
		require.NoError(t, err)
		assert.Contains(t, codes(violations), "policy.dates.order")
	})

	t.Run("duration beyond one year", func(t *testing.T) {
		p := validPolicy()
		p.EndDate = p.StartDate.AddDate(1, 0, 1)
		violations, err := fix.validator.ValidateForCreation(ctx, p, tenantA)
		require.NoError(t, err)
		assert.Contains(t, codes(violations), "policy.dates.duration")
	})
}

func TestPolicyValidator_CoverageAgeRule(t *testing.T) {
	fix := newPolicyValidatorFixture(t)
	ctx := context.Background()

	setVehicleAge := func(age int) {
		v := fix.vehicles.vehicles["veh-1"]
		v.Year = testNow.Year() - age
		fix.vehicles.vehicles["veh-1"] = v
	}

	t.Run("comprehensive at 16 years yields exactly the coverage-age violation", func(t *testing.T) {
		setVehicleAge(16)
		p := validPolicy()
		p.Coverage = CoverageComprehensive
		violations, err := fix.validator.ValidateForCreation(ctx, p, tenantA)
		require.NoError(t, err)
		require.Len(t, violations, 1)
		assert.Equal(t, "policy.coverage.vehicle_too_old", violations[0].Code)
	})

	t.Run("comprehensive at 15 years passes", func(t *testing.T) {
		setVehicleAge(15)
		p := validPolicy()
		p.Coverage = CoverageComprehensive
		violations, err := fix.validator.ValidateForCreation(ctx, p, tenantA)
		require.NoError(t, err)
		assert.Empty(t, violations)
	})

	t.Run("31 years is uninsurable under any coverage", func(t *testing.T) {
		setVehicleAge(31)
		violations, err := fix.validator.ValidateForCreation(ctx, validPolicy(), tenantA)
		require.NoError(t, err)
		assert.Contains(t, codes(violations), "policy.vehicle.uninsurable")
	})
}

func TestPolicyValidator_CrossTenantVehicleIsUnknown(t *testing.T) {
	fix := newPolicyValidatorFixture(t)
	p := validPolicy()
	p.VehicleID = "veh-other-tenant"
	violations, err := fix.validator.ValidateForCreation(context.Background(), p, tenantA)
	require.NoError(t, err)
	assert.Contains(t, codes(violations), "policy.vehicle.unknown")
}

func TestPolicyValidator_CrossEntityRules(t *testing.T) {
	fix := newPolicyValidatorFixture(t)
	ctx := context.Background()

	t.Run("expired license", func(t *testing.T) {
		d := fix.drivers.drivers["drv-1"]
		expiry := testNow.AddDate(0, -1, 0)
		d.LicenseExpires = &expiry
		fix.drivers.drivers["drv-1"] = d
		defer func() {
			d.LicenseExpires = nil
			fix.drivers.drivers["drv-1"] = d
		}()

		violations, err := fix.validator.ValidateForCreation(ctx, validPolicy(), tenantA)
		require.NoError(t, err)
		assert.Contains(t, codes(violations), "policy.driver.license_expired")
	})

	t.Run("primary driver with one year of experience", func(t *testing.T) {
		d := fix.drivers.drivers["drv-1"]
		d.ExperienceYears = 1
		fix.drivers.drivers["drv-1"] = d
		defer func() {
			d.ExperienceYears = 8
			fix.drivers.drivers["drv-1"] = d
		}()

		violations, err := fix.validator.ValidateForCreation(ctx, validPolicy(), tenantA)
		require.NoError(t, err)
		assert.Contains(t, codes(violations), "policy.driver.insufficient_experience")
	})
}

func TestPolicyValidator_NumberRules(t *testing.T) {
	fix := newPolicyValidatorFixture(t)
	ctx := context.Background()

	t.Run("lowercase number rejected", func(t *testing.T) {
		p := validPolicy()
		p.Number = "pol-2026-0001"
		violations, err := fix.validator.ValidateForCreation(ctx, p, tenantA)
		require.NoError(t, err)
		assert.Contains(t, codes(violations), "policy.number.format")
	})

	t.Run("duplicate number within tenant", func(t *testing.T) {
		p := validPolicy()
		p.Number = "POL-EXISTING"
		violations, err := fix.validator.ValidateForCreation(ctx, p, tenantA)
		require.NoError(t, err)
		assert.Contains(t, codes(violations), "policy.number.taken")
	})

	t.Run("same number under another tenant is free", func(t *testing.T) {
		fix.policies.numbers["POL-FOREIGN"] = tenantB
		p := validPolicy()
		p.Number = "POL-FOREIGN"
		violations, err := fix.validator.ValidateForCreation(ctx, p, tenantA)
		require.NoError(t, err)
		assert.NotContains(t, codes(violations), "policy.number.taken")
	})
}

func TestPolicyValidator_CoefficientBounds(t *testing.T) {
	fix := newPolicyValidatorFixture(t)
	p := validPolicy()
	p.BonusMalus = decimal.RequireFromString("3.75")
	violations, err := fix.validator.ValidateForCreation(context.Background(), p, tenantA)
	require.NoError(t, err)
	assert.Contains(t, codes(violations), "policy.bonus_malus.out_of_range")
}

func TestPolicyValidator_Update(t *testing.T) {
	fix := newPolicyValidatorFixture(t)
	ctx := context.Background()
	existing := validPolicy()
	existing.ID = "pol-1"
	existing.Premium = decimal.RequireFromString("480.00")

	t.Run("unchanged policy passes", func(t *testing.T) {
		violations, err := fix.validator.ValidateForUpdate(ctx, existing, existing, tenantA)
		require.NoError(t, err)
		assert.Empty(t, violations)
	})

	t.Run("number change rejected", func(t *testing.T) {
		p := existing
		p.Number = "POL-2026-0002"
		violations, err := fix.validator.ValidateForUpdate(ctx, p, existing, tenantA)
		require.NoError(t, err)
		assert.Contains(t, codes(violations), "policy.number.immutable")
	})

	t.Run("start date moved earlier rejected", func(t *testing.T) {
		p := existing
		p.StartDate = existing.StartDate.AddDate(0, 0, -10)
		p.EndDate = p.StartDate.AddDate(1, 0, 0)
		violations, err := fix.validator.ValidateForUpdate(ctx, p, existing, tenantA)
		require.NoError(t, err)
		assert.Contains(t, codes(violations), "policy.start_date.moved_earlier")
	})

	t.Run("dropped premium rejected", func(t *testing.T) {
		p := existing
		p.Premium = decimal.Decimal{}
		violations, err := fix.validator.ValidateForUpdate(ctx, p, existing, tenantA)
		require.NoError(t, err)
		assert.Contains(t, codes(violations), "policy.premium.not_positive")
	})

	t.Run("backdate window does not apply on update", func(t *testing.T) {
		old := existing
		old.StartDate = testNow.AddDate(0, 0, -90)
		old.EndDate = old.StartDate.AddDate(1, 0, 0)
		violations, err := fix.validator.ValidateForUpdate(ctx, old, old, tenantA)
		require.NoError(t, err)
		assert.NotContains(t, codes(violations), "policy.start_date.too_old")
	})
}
