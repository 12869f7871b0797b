package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type policyServiceFixture struct {
	svc      PolicyService
	policies *fakePolicies
	vehicles *fakeVehicles
	drivers  *fakeDrivers
}

func newPolicyServiceFixture(t *testing.T) *policyServiceFixture {
	t.Helper()
	valFix := newPolicyValidatorFixture(t)

	policies := &fakePolicies{policies: map[string]AutoPolicy{}}
	calc := newTestCalculator(unitTariffs())

	// The validator fixture keeps an existing number registered; the
	// service-level uniqueness check runs against the repo instead.
	validator := NewPolicyValidator(policies, valFix.vehicles, valFix.drivers, valFix.refs)
	validator.clock = func() time.Time { return testNow }
	validator.vehicleRules.clock = validator.clock
	validator.driverRules.clock = validator.clock

	svc := NewPolicyService(policies, valFix.vehicles, valFix.drivers, validator, calc)
	svc.(*policyService).clock = func() time.Time { return testNow }

	return &policyServiceFixture{
		svc:      svc,
		policies: policies,
		vehicles: valFix.vehicles,
		drivers:  valFix.drivers,
	}
}

func TestPolicyService_CreatePricesAndPersists(t *testing.T) {
	fix := newPolicyServiceFixture(t)

	created, err := fix.svc.Create(context.Background(), validPolicy())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, PolicyStatusActive, created.Status)
	// cat 1.0 × 500 × usage 1.0, age 4 -> no age multiplier; driver 8y -> 1.0,
	// no mileage -> 1.0, no parking -> 1.0; coefficient 1.00.
	assert.Equal(t, "500.00", created.Premium.StringFixed(2))

	stored, err := fix.policies.Get(context.Background(), created.ID, tenantA)
	require.NoError(t, err)
	assert.Equal(t, created.Premium.StringFixed(2), stored.Premium.StringFixed(2))
}

func TestPolicyService_CreateReturnsAllViolations(t *testing.T) {
	fix := newPolicyServiceFixture(t)

	p := validPolicy()
	p.Number = "pol-bad"
	p.GeographicZoneID = ""

	_, err := fix.svc.Create(context.Background(), p)
	require.ErrorIs(t, err, ErrValidation)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	got := codes(vErr.Violations)
	assert.Contains(t, got, "policy.number.format")
	assert.Contains(t, got, "policy.geographic_zone.required")
	assert.Empty(t, fix.policies.policies, "nothing may be persisted on validation failure")
}

func TestPolicyService_UpdateKeepsImmutableFields(t *testing.T) {
	fix := newPolicyServiceFixture(t)
	ctx := context.Background()

	created, err := fix.svc.Create(ctx, validPolicy())
	require.NoError(t, err)

	t.Run("number change is rejected", func(t *testing.T) {
		changed := created
		changed.Number = "POL-2026-9999"
		_, err := fix.svc.Update(ctx, changed)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("mileage change reprices", func(t *testing.T) {
		changed := created
		changed.AnnualMileage = 35000 // factor 1.2
		updated, err := fix.svc.Update(ctx, changed)
		require.NoError(t, err)
		assert.Equal(t, "600.00", updated.Premium.StringFixed(2))
	})

	t.Run("omitted premium inherits the stored figure", func(t *testing.T) {
		changed := created
		changed.Premium = decimal.Decimal{}
		updated, err := fix.svc.Update(ctx, changed)
		require.NoError(t, err)
		assert.Equal(t, "500.00", updated.Premium.StringFixed(2))
	})
}

func TestPolicyService_QuoteDoesNotPersist(t *testing.T) {
	fix := newPolicyServiceFixture(t)

	quote, err := fix.svc.Quote(context.Background(), validPolicy(), tenantA)
	require.NoError(t, err)

	assert.Equal(t, "500.00", quote.BasePremium.StringFixed(2))
	assert.Equal(t, "500.00", quote.FinalPremium.StringFixed(2))
	assert.Len(t, quote.Breakdown, 3)
	assert.Empty(t, fix.policies.policies)
}

func TestPolicyService_QuoteUnknownVehicle(t *testing.T) {
	fix := newPolicyServiceFixture(t)
	p := validPolicy()
	p.VehicleID = "veh-nope"
	_, err := fix.svc.Quote(context.Background(), p, tenantA)
	require.ErrorIs(t, err, ErrNotFound)
}
