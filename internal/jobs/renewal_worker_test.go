package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assurtech/autocover/internal/core"
)

const renewalTenant = "tenant-renewal"

type stubPolicies struct {
	policies map[string]core.AutoPolicy
}

func (s *stubPolicies) Create(_ context.Context, p core.AutoPolicy) error {
	s.policies[p.ID] = p
	return nil
}

func (s *stubPolicies) Get(_ context.Context, id, tenantID string) (core.AutoPolicy, error) {
	p, ok := s.policies[id]
	if !ok || p.TenantID != tenantID {
		return core.AutoPolicy{}, core.ErrPolicyNotFound
	}
	return p, nil
}

func (s *stubPolicies) GetByNumber(_ context.Context, number, tenantID string) (core.AutoPolicy, error) {
	for _, p := range s.policies {
		if p.Number == number && p.TenantID == tenantID {
			return p, nil
		}
	}
	return core.AutoPolicy{}, core.ErrPolicyNotFound
}

func (s *stubPolicies) Update(_ context.Context, p core.AutoPolicy) error {
	if _, ok := s.policies[p.ID]; !ok {
		return core.ErrPolicyNotFound
	}
	s.policies[p.ID] = p
	return nil
}

func (s *stubPolicies) List(_ context.Context, tenantID string, _ core.PolicyFilter, _, _ int) ([]core.AutoPolicy, error) {
	var out []core.AutoPolicy
	for _, p := range s.policies {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubPolicies) NumberExists(_ context.Context, number, tenantID string) (bool, error) {
	_, err := s.GetByNumber(context.Background(), number, tenantID)
	return err == nil, nil
}

func (s *stubPolicies) FindDueForRenewal(_ context.Context, asOf time.Time, limit int) ([]core.AutoPolicy, error) {
	var out []core.AutoPolicy
	for _, p := range s.policies {
		if p.Status == core.PolicyStatusActive && !p.EndDate.After(asOf) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type stubVehicles struct {
	vehicles map[string]core.Vehicle
}

func (s *stubVehicles) Create(_ context.Context, v core.Vehicle) error { s.vehicles[v.ID] = v; return nil }
func (s *stubVehicles) Update(_ context.Context, v core.Vehicle) error { s.vehicles[v.ID] = v; return nil }

func (s *stubVehicles) Get(_ context.Context, id, tenantID string) (core.Vehicle, error) {
	v, ok := s.vehicles[id]
	if !ok || v.TenantID != tenantID {
		return core.Vehicle{}, core.ErrVehicleNotFound
	}
	return v, nil
}

func (s *stubVehicles) List(_ context.Context, _ string, _ core.VehicleFilter, _, _ int) ([]core.Vehicle, error) {
	return nil, nil
}

func (s *stubVehicles) RegistrationExists(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

type stubDrivers struct {
	drivers map[string]core.Driver
}

func (s *stubDrivers) Create(_ context.Context, d core.Driver) error { s.drivers[d.ID] = d; return nil }
func (s *stubDrivers) Update(_ context.Context, d core.Driver) error { s.drivers[d.ID] = d; return nil }

func (s *stubDrivers) Get(_ context.Context, id, tenantID string) (core.Driver, error) {
	d, ok := s.drivers[id]
	if !ok || d.TenantID != tenantID {
		return core.Driver{}, core.ErrDriverNotFound
	}
	return d, nil
}

func (s *stubDrivers) List(_ context.Context, _ string, _ core.DriverFilter, _, _ int) ([]core.Driver, error) {
	return nil, nil
}

func (s *stubDrivers) LicenseNumberExists(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

type stubReferences struct {
	items map[string]core.ReferenceItem
}

func (s *stubReferences) Upsert(_ context.Context, item core.ReferenceItem) error {
	s.items[item.ID] = item
	return nil
}

func (s *stubReferences) Get(_ context.Context, kind core.ReferenceKind, id, tenantID string) (core.ReferenceItem, error) {
	item, ok := s.items[id]
	if !ok || item.TenantID != tenantID || item.Kind != kind {
		return core.ReferenceItem{}, core.ErrReferenceNotFound
	}
	return item, nil
}

func (s *stubReferences) Exists(ctx context.Context, kind core.ReferenceKind, id, tenantID string) (bool, error) {
	_, err := s.Get(ctx, kind, id, tenantID)
	return err == nil, nil
}

func (s *stubReferences) List(_ context.Context, _ core.ReferenceKind, _ string) ([]core.ReferenceItem, error) {
	return nil, nil
}

type renewalFixture struct {
	worker   *RenewalWorker
	policies *stubPolicies
	now      time.Time
}

func newRenewalFixture(t *testing.T) *renewalFixture {
	t.Helper()
	now := time.Date(time.Now().Year(), 6, 1, 0, 0, 0, 0, time.UTC)

	refs := &stubReferences{items: map[string]core.ReferenceItem{}}
	refs.Upsert(context.Background(), core.ReferenceItem{
		ID: "cat-passenger", TenantID: renewalTenant, Kind: core.RefCategory,
		TariffFactor: decimal.RequireFromString("1.0"),
	})
	refs.Upsert(context.Background(), core.ReferenceItem{
		ID: "usage-private", TenantID: renewalTenant, Kind: core.RefUsage,
		TariffFactor: decimal.RequireFromString("1.0"),
	})
	refs.Upsert(context.Background(), core.ReferenceItem{
		ID: "claims-2", TenantID: renewalTenant, Kind: core.RefClaimHistory, ClaimCount: 2,
	})
	refs.Upsert(context.Background(), core.ReferenceItem{
		ID: "claims-0", TenantID: renewalTenant, Kind: core.RefClaimHistory, ClaimCount: 0,
	})

	vehicles := &stubVehicles{vehicles: map[string]core.Vehicle{}}
	vehicles.Create(context.Background(), core.Vehicle{
		ID: "veh-1", TenantID: renewalTenant,
		Registration: "AB-123-CD",
		CategoryID:   "cat-passenger",
		UsageID:      "usage-private",
		// Age 5 at renewal time: no vehicle age loading applies.
		Year: now.Year() - 5,
	})

	drivers := &stubDrivers{drivers: map[string]core.Driver{}}
	drivers.Create(context.Background(), core.Driver{
		ID: "drv-1", TenantID: renewalTenant,
		LicenseNumber:   "LIC-001",
		ExperienceYears: 8,
	})

	policies := &stubPolicies{policies: map[string]core.AutoPolicy{}}
	calculator := core.NewPremiumCalculator(core.ReferenceTariffs{Refs: refs})

	worker := NewRenewalWorker(
		policies, vehicles, drivers, refs, calculator,
		time.Hour, 50,
		slog.New(slog.NewTextHandler(testWriter{t}, nil)),
	)
	worker.clock = func() time.Time { return now }

	return &renewalFixture{worker: worker, policies: policies, now: now}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func duePolicy(now time.Time) core.AutoPolicy {
	return core.AutoPolicy{
		ID:                "pol-due",
		TenantID:          renewalTenant,
		Number:            "POL-RENEW-1",
		Status:            core.PolicyStatusActive,
		StartDate:         now.AddDate(-1, 0, -10),
		EndDate:           now.AddDate(0, 0, -10),
		Premium:           decimal.RequireFromString("500.00"),
		Coverage:          core.CoverageThirdParty,
		BonusMalus:        decimal.RequireFromString("1.00"),
		ClaimHistoryID:    "claims-2",
		VehicleID:         "veh-1",
		DriverID:          "drv-1",
		GeographicZoneID:  "zone-urban",
		CirculationZoneID: "circ-national",
	}
}

func TestRenewalWorker_AppliesMalusAndReprices(t *testing.T) {
	fix := newRenewalFixture(t)
	require.NoError(t, fix.policies.Create(context.Background(), duePolicy(fix.now)))

	require.NoError(t, fix.worker.processDue(context.Background()))

	renewed, err := fix.policies.Get(context.Background(), "pol-due", renewalTenant)
	require.NoError(t, err)

	// Two claims on 1.00: 1.25 after the first, 1.56 after the second.
	assert.Equal(t, "1.56", renewed.BonusMalus.StringFixed(2))
	// Base 500.00, neutral adjustments, times the new coefficient.
	assert.Equal(t, "780.00", renewed.Premium.StringFixed(2))
	assert.True(t, renewed.EndDate.Equal(duePolicy(fix.now).EndDate.AddDate(1, 0, 0)))
	assert.True(t, renewed.StartDate.Equal(duePolicy(fix.now).EndDate))
}

func TestRenewalWorker_ClaimFreeTermEarnsBonus(t *testing.T) {
	fix := newRenewalFixture(t)
	p := duePolicy(fix.now)
	p.ClaimHistoryID = "claims-0"
	require.NoError(t, fix.policies.Create(context.Background(), p))

	require.NoError(t, fix.worker.processDue(context.Background()))

	renewed, err := fix.policies.Get(context.Background(), "pol-due", renewalTenant)
	require.NoError(t, err)
	assert.Equal(t, "0.95", renewed.BonusMalus.StringFixed(2))
	assert.Equal(t, "475.00", renewed.Premium.StringFixed(2))
}

func TestRenewalWorker_SkipsPoliciesStillInTerm(t *testing.T) {
	fix := newRenewalFixture(t)
	p := duePolicy(fix.now)
	p.EndDate = fix.now.AddDate(0, 3, 0)
	require.NoError(t, fix.policies.Create(context.Background(), p))

	require.NoError(t, fix.worker.processDue(context.Background()))

	unchanged, err := fix.policies.Get(context.Background(), "pol-due", renewalTenant)
	require.NoError(t, err)
	assert.Equal(t, "1.00", unchanged.BonusMalus.StringFixed(2))
	assert.Equal(t, "500.00", unchanged.Premium.StringFixed(2))
}

func TestRenewalWorker_MissingClaimHistoryLeavesPolicyUntouched(t *testing.T) {
	fix := newRenewalFixture(t)
	p := duePolicy(fix.now)
	p.ClaimHistoryID = "claims-nope"
	require.NoError(t, fix.policies.Create(context.Background(), p))

	// processDue logs per-policy failures and keeps going.
	require.NoError(t, fix.worker.processDue(context.Background()))

	unchanged, err := fix.policies.Get(context.Background(), "pol-due", renewalTenant)
	require.NoError(t, err)
	assert.Equal(t, "500.00", unchanged.Premium.StringFixed(2))
}
