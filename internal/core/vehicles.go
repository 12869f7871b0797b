package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ParkingType string

const (
	ParkingGarage ParkingType = "garage"
	ParkingLot    ParkingType = "parking_lot"
	ParkingStreet ParkingType = "street"
	ParkingOther  ParkingType = "other"
)

// Vehicle is an insured vehicle. Values are immutable once constructed;
// updates go through the repo as whole replacements, never in-place edits.
type Vehicle struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	Registration string `json:"registration"` // Unique per tenant
	MakeID       string `json:"make_id"`
	ModelID      string `json:"model_id"`
	CategoryID   string `json:"category_id"`
	SubcategoryID string `json:"subcategory_id,omitempty"`
	UsageID      string `json:"usage_id"`
	FuelTypeID   string `json:"fuel_type_id,omitempty"`
	ColorID      string `json:"color_id,omitempty"`
	Year         int    `json:"year"`
	EnginePower  int    `json:"engine_power"` // Horsepower; 0 = not provided
	EngineSize   int    `json:"engine_size"`  // cc; 0 = not provided
	Mileage      int    `json:"mileage"`
	VIN          string `json:"vin,omitempty"`
	PurchaseDate *time.Time      `json:"purchase_date,omitempty"`
	PurchaseValue decimal.Decimal `json:"purchase_value"`
	CurrentValue  decimal.Decimal `json:"current_value"`
	AntiTheft    bool        `json:"anti_theft"`
	Parking      ParkingType `json:"parking"`
	OwnerID      string      `json:"owner_id"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Age is the vehicle's age in whole years as of now.
func (v Vehicle) Age(now time.Time) int {
	return now.Year() - v.Year
}

type VehicleFilter struct {
	CategoryID string
	OwnerID    string
}

type VehicleRepo interface {
	Create(ctx context.Context, v Vehicle) error
	Get(ctx context.Context, id, tenantID string) (Vehicle, error)
	Update(ctx context.Context, v Vehicle) error
	List(ctx context.Context, tenantID string, filter VehicleFilter, limit, offset int) ([]Vehicle, error)
	RegistrationExists(ctx context.Context, registration, tenantID string) (bool, error)
}

var (
	ErrVehicleNotFound = fmt.Errorf("%w: vehicle not found", ErrNotFound)
	ErrVehicleExists   = fmt.Errorf("%w: vehicle already exists", ErrConflict)
)
