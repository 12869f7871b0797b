package core

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	return decimal.RequireFromString(s)
}

// In-memory lookup ports for validator and calculator tests. Every lookup
// is tenant-scoped the way the real stores are: a record under another
// tenant answers as nonexistent.

type fakeReferences struct {
	items []ReferenceItem
}

func (f *fakeReferences) add(kind ReferenceKind, id, tenantID string) {
	f.items = append(f.items, ReferenceItem{ID: id, TenantID: tenantID, Kind: kind})
}

func (f *fakeReferences) Exists(_ context.Context, kind ReferenceKind, id, tenantID string) (bool, error) {
	for _, item := range f.items {
		if item.Kind == kind && item.ID == id && item.TenantID == tenantID {
			return true, nil
		}
	}
	return false, nil
}

type fakeVehicles struct {
	vehicles map[string]Vehicle
}

func (f *fakeVehicles) Create(_ context.Context, v Vehicle) error {
	f.vehicles[v.ID] = v
	return nil
}

func (f *fakeVehicles) Update(_ context.Context, v Vehicle) error {
	f.vehicles[v.ID] = v
	return nil
}

func (f *fakeVehicles) List(_ context.Context, tenantID string, _ VehicleFilter, _, _ int) ([]Vehicle, error) {
	var out []Vehicle
	for _, v := range f.vehicles {
		if v.TenantID == tenantID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVehicles) Get(_ context.Context, id, tenantID string) (Vehicle, error) {
	v, ok := f.vehicles[id]
	if !ok || v.TenantID != tenantID {
		return Vehicle{}, ErrVehicleNotFound
	}
	return v, nil
}

func (f *fakeVehicles) RegistrationExists(_ context.Context, registration, tenantID string) (bool, error) {
	for _, v := range f.vehicles {
		if v.Registration == registration && v.TenantID == tenantID {
			return true, nil
		}
	}
	return false, nil
}

type fakeDrivers struct {
	drivers map[string]Driver
}

func (f *fakeDrivers) Create(_ context.Context, d Driver) error {
	f.drivers[d.ID] = d
	return nil
}

func (f *fakeDrivers) Update(_ context.Context, d Driver) error {
	f.drivers[d.ID] = d
	return nil
}

func (f *fakeDrivers) List(_ context.Context, tenantID string, _ DriverFilter, _, _ int) ([]Driver, error) {
	var out []Driver
	for _, d := range f.drivers {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDrivers) Get(_ context.Context, id, tenantID string) (Driver, error) {
	d, ok := f.drivers[id]
	if !ok || d.TenantID != tenantID {
		return Driver{}, ErrDriverNotFound
	}
	return d, nil
}

func (f *fakeDrivers) LicenseNumberExists(_ context.Context, licenseNumber, tenantID string) (bool, error) {
	for _, d := range f.drivers {
		if d.LicenseNumber == licenseNumber && d.TenantID == tenantID {
			return true, nil
		}
	}
	return false, nil
}

type fakePolicyNumbers struct {
	numbers map[string]string // number -> tenant
}

func (f *fakePolicyNumbers) NumberExists(_ context.Context, number, tenantID string) (bool, error) {
	return f.numbers[number] == tenantID, nil
}

type fakePolicies struct {
	policies map[string]AutoPolicy
}

func (f *fakePolicies) Create(_ context.Context, p AutoPolicy) error {
	if _, ok := f.policies[p.ID]; ok {
		return ErrPolicyExists
	}
	f.policies[p.ID] = p
	return nil
}

func (f *fakePolicies) Get(_ context.Context, id, tenantID string) (AutoPolicy, error) {
	p, ok := f.policies[id]
	if !ok || p.TenantID != tenantID {
		return AutoPolicy{}, ErrPolicyNotFound
	}
	return p, nil
}

func (f *fakePolicies) GetByNumber(_ context.Context, number, tenantID string) (AutoPolicy, error) {
	for _, p := range f.policies {
		if p.Number == number && p.TenantID == tenantID {
			return p, nil
		}
	}
	return AutoPolicy{}, ErrPolicyNotFound
}

func (f *fakePolicies) Update(_ context.Context, p AutoPolicy) error {
	if _, ok := f.policies[p.ID]; !ok {
		return ErrPolicyNotFound
	}
	f.policies[p.ID] = p
	return nil
}

func (f *fakePolicies) List(_ context.Context, tenantID string, _ PolicyFilter, _, _ int) ([]AutoPolicy, error) {
	var out []AutoPolicy
	for _, p := range f.policies {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePolicies) NumberExists(_ context.Context, number, tenantID string) (bool, error) {
	for _, p := range f.policies {
		if p.Number == number && p.TenantID == tenantID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePolicies) FindDueForRenewal(_ context.Context, asOf time.Time, limit int) ([]AutoPolicy, error) {
	var out []AutoPolicy
	for _, p := range f.policies {
		if p.Status == PolicyStatusActive && !p.EndDate.After(asOf) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type stubTariffs struct {
	categories map[string]decimal.Decimal
	usages     map[string]decimal.Decimal
}

func (s stubTariffs) CategoryTariffFactor(_ context.Context, categoryID, _ string) (decimal.Decimal, error) {
	if f, ok := s.categories[categoryID]; ok {
		return f, nil
	}
	return decimal.Decimal{}, ErrTariffNotFound
}

func (s stubTariffs) UsageTariffFactor(_ context.Context, usageID, _ string) (decimal.Decimal, error) {
	if f, ok := s.usages[usageID]; ok {
		return f, nil
	}
	return decimal.Decimal{}, ErrTariffNotFound
}
