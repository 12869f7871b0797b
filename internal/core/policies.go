package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type PolicyStatus string

const (
	PolicyStatusActive    PolicyStatus = "active"
	PolicyStatusSuspended PolicyStatus = "suspended"
	PolicyStatusCancelled PolicyStatus = "cancelled"
	PolicyStatusExpired   PolicyStatus = "expired"
)

type CoverageType string

const (
	CoverageThirdParty    CoverageType = "THIRD_PARTY"
	CoverageComprehensive CoverageType = "COMPREHENSIVE"
)

// AutoPolicy is an auto-insurance policy. The geographic and circulation
// zones are mandatory under the CIMA code governing this market.
type AutoPolicy struct {
	ID                string          `json:"id"`
	TenantID          string          `json:"tenant_id"`
	Number            string          `json:"number"` // Unique per tenant, format [A-Z0-9-]+
	Status            PolicyStatus    `json:"status"`
	StartDate         time.Time       `json:"start_date"`
	EndDate           time.Time       `json:"end_date"`
	Premium           decimal.Decimal `json:"premium"`
	Coverage          CoverageType    `json:"coverage"`
	BonusMalus        decimal.Decimal `json:"bonus_malus"`    // Bounded [0.50, 3.50], checked by the validator
	AnnualMileage     int             `json:"annual_mileage"` // km/year; 0 = not provided
	Parking           ParkingType     `json:"parking"`
	AntiTheft         bool            `json:"anti_theft"`
	ClaimHistoryID    string          `json:"claim_history_id"`
	VehicleID         string          `json:"vehicle_id"`
	DriverID          string          `json:"driver_id"` // Primary driver
	GeographicZoneID  string          `json:"geographic_zone_id"`
	CirculationZoneID string          `json:"circulation_zone_id"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

type PolicyFilter struct {
	Status    PolicyStatus
	VehicleID string
	DriverID  string
}

type PolicyRepo interface {
	Create(ctx context.Context, p AutoPolicy) error
	Get(ctx context.Context, id, tenantID string) (AutoPolicy, error)
	GetByNumber(ctx context.Context, number, tenantID string) (AutoPolicy, error)
	Update(ctx context.Context, p AutoPolicy) error
	List(ctx context.Context, tenantID string, filter PolicyFilter, limit, offset int) ([]AutoPolicy, error)
	NumberExists(ctx context.Context, number, tenantID string) (bool, error)
	// FindDueForRenewal returns active policies whose term ends on or before asOf.
	FindDueForRenewal(ctx context.Context, asOf time.Time, limit int) ([]AutoPolicy, error)
}

var (
	ErrPolicyNotFound = fmt.Errorf("%w: policy not found", ErrNotFound)
	ErrPolicyExists   = fmt.Errorf("%w: policy already exists", ErrConflict)
)
