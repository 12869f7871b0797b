package core

import (
	"context"
	"fmt"
	"time"
)

// Driver is a licensed driver attached to a customer.
type Driver struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"`
	CustomerID     string     `json:"customer_id"`
	LicenseNumber  string     `json:"license_number"` // Unique per tenant
	LicenseType    string     `json:"license_type"`
	LicenseIssued  time.Time  `json:"license_issued"`
	LicenseExpires *time.Time `json:"license_expires,omitempty"`
	ExperienceYears int       `json:"experience_years"`
	Primary        bool       `json:"primary"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// LicenseExpired reports whether the license is past its expiry date.
// A driver with no recorded expiry is treated as valid.
func (d Driver) LicenseExpired(now time.Time) bool {
	return d.LicenseExpires != nil && d.LicenseExpires.Before(now)
}

type DriverFilter struct {
	CustomerID string
}

type DriverRepo interface {
	Create(ctx context.Context, d Driver) error
	Get(ctx context.Context, id, tenantID string) (Driver, error)
	Update(ctx context.Context, d Driver) error
	List(ctx context.Context, tenantID string, filter DriverFilter, limit, offset int) ([]Driver, error)
	LicenseNumberExists(ctx context.Context, licenseNumber, tenantID string) (bool, error)
}

var (
	ErrDriverNotFound = fmt.Errorf("%w: driver not found", ErrNotFound)
	ErrDriverExists   = fmt.Errorf("%w: driver already exists", ErrConflict)
)
