package core

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Reference-data kinds. Each kind is a tenant-scoped table of codes the
// validators resolve references against; categories and usages also carry
// the tariff factor feeding the base premium.
type ReferenceKind string

const (
	RefCategory        ReferenceKind = "vehicle_category"
	RefSubcategory     ReferenceKind = "vehicle_subcategory"
	RefUsage           ReferenceKind = "vehicle_usage"
	RefGeographicZone  ReferenceKind = "geographic_zone"
	RefCirculationZone ReferenceKind = "circulation_zone"
	RefColor           ReferenceKind = "color"
	RefFuelType        ReferenceKind = "fuel_type"
	RefMake            ReferenceKind = "make"
	RefModel           ReferenceKind = "model"
	RefClaimHistory    ReferenceKind = "claim_history"
)

// ReferenceItem is one reference-data entry. TariffFactor is set for
// categories and usages, ClaimCount for claim-history categories, ParentID
// for models (their make).
type ReferenceItem struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	Kind         ReferenceKind   `json:"kind"`
	Code         string          `json:"code"`
	Label        string          `json:"label"`
	TariffFactor decimal.Decimal `json:"tariff_factor,omitempty"`
	ClaimCount   int             `json:"claim_count,omitempty"`
	ParentID     string          `json:"parent_id,omitempty"`
}

type ReferenceRepo interface {
	Upsert(ctx context.Context, item ReferenceItem) error
	Get(ctx context.Context, kind ReferenceKind, id, tenantID string) (ReferenceItem, error)
	Exists(ctx context.Context, kind ReferenceKind, id, tenantID string) (bool, error)
	List(ctx context.Context, kind ReferenceKind, tenantID string) ([]ReferenceItem, error)
}

var ErrReferenceNotFound = fmt.Errorf("%w: reference data not found", ErrNotFound)

// ErrTariffNotFound is fatal for premium calculation: no premium can be
// priced without the category and usage tariff factors.
var ErrTariffNotFound = fmt.Errorf("%w: tariff reference not found", ErrNotFound)
