package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Read-only lookup ports consumed by the validators and the premium
// calculator. The persistence layer implements them; every lookup is
// tenant-scoped and a cross-tenant hit answers as if the record did not
// exist.

type VehicleSource interface {
	Get(ctx context.Context, id, tenantID string) (Vehicle, error)
	RegistrationExists(ctx context.Context, registration, tenantID string) (bool, error)
}

type DriverSource interface {
	Get(ctx context.Context, id, tenantID string) (Driver, error)
	LicenseNumberExists(ctx context.Context, licenseNumber, tenantID string) (bool, error)
}

type PolicyNumberSource interface {
	NumberExists(ctx context.Context, number, tenantID string) (bool, error)
}

type ReferenceSource interface {
	Exists(ctx context.Context, kind ReferenceKind, id, tenantID string) (bool, error)
}

// TariffSource answers the per-category and per-usage risk multipliers
// feeding the base premium. A miss is fatal to calculation.
type TariffSource interface {
	CategoryTariffFactor(ctx context.Context, categoryID, tenantID string) (decimal.Decimal, error)
	UsageTariffFactor(ctx context.Context, usageID, tenantID string) (decimal.Decimal, error)
}

// ReferenceTariffs adapts a ReferenceRepo into a TariffSource.
type ReferenceTariffs struct {
	Refs ReferenceRepo
}

func (t ReferenceTariffs) CategoryTariffFactor(ctx context.Context, categoryID, tenantID string) (decimal.Decimal, error) {
	return t.factor(ctx, RefCategory, categoryID, tenantID)
}

func (t ReferenceTariffs) UsageTariffFactor(ctx context.Context, usageID, tenantID string) (decimal.Decimal, error) {
	return t.factor(ctx, RefUsage, usageID, tenantID)
}

func (t ReferenceTariffs) factor(ctx context.Context, kind ReferenceKind, id, tenantID string) (decimal.Decimal, error) {
	item, err := t.Refs.Get(ctx, kind, id, tenantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Decimal{}, fmt.Errorf("%w: %s %q", ErrTariffNotFound, kind, id)
		}
		return decimal.Decimal{}, err
	}
	if item.TariffFactor.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q has no tariff factor", ErrTariffNotFound, kind, id)
	}
	return item.TariffFactor, nil
}
