package core

import (
	"context"
	"time"
)

// Licenses issued more than 100 years ago are data-entry errors.
const maxLicenseAgeYears = 100

// DriverValidator checks a driver against required-field and business
// rules, plus tenant-scoped license-number uniqueness.
type DriverValidator struct {
	drivers DriverSource
	clock   func() time.Time
}

func NewDriverValidator(drivers DriverSource) *DriverValidator {
	return &DriverValidator{
		drivers: drivers,
		clock:   time.Now,
	}
}

func (v *DriverValidator) ValidateForCreation(ctx context.Context, driver Driver, tenantID string) ([]Violation, error) {
	out := v.ValidateRequired(driver)
	out = append(out, v.ValidateBusinessRules(driver)...)

	if driver.LicenseNumber != "" {
		taken, err := v.drivers.LicenseNumberExists(ctx, driver.LicenseNumber, tenantID)
		if err != nil {
			return nil, err
		}
		if taken {
			out = append(out, violation("driver.license_number.taken",
				"license number %s is already in use", driver.LicenseNumber))
		}
	}
	return out, nil
}

func (v *DriverValidator) ValidateForUpdate(ctx context.Context, driver, existing Driver, tenantID string) ([]Violation, error) {
	out := v.ValidateRequired(driver)
	out = append(out, v.ValidateBusinessRules(driver)...)

	// Uniqueness only needs a fresh check when the number changed.
	if driver.LicenseNumber != "" && driver.LicenseNumber != existing.LicenseNumber {
		taken, err := v.drivers.LicenseNumberExists(ctx, driver.LicenseNumber, tenantID)
		if err != nil {
			return nil, err
		}
		if taken {
			out = append(out, violation("driver.license_number.taken",
				"license number %s is already in use", driver.LicenseNumber))
		}
	}
	return out, nil
}

func (v *DriverValidator) ValidateRequired(driver Driver) []Violation {
	var out []Violation
	if driver.CustomerID == "" {
		out = append(out, violation("driver.customer.required", "customer reference is required"))
	}
	if driver.LicenseNumber == "" {
		out = append(out, violation("driver.license_number.required", "license number is required"))
	}
	if driver.LicenseType == "" {
		out = append(out, violation("driver.license_type.required", "license type is required"))
	}
	if driver.LicenseIssued.IsZero() {
		out = append(out, violation("driver.license_issued.required", "license issue date is required"))
	}
	return out
}

func (v *DriverValidator) ValidateBusinessRules(driver Driver) []Violation {
	var out []Violation
	now := v.clock()

	if driver.LicenseNumber != "" && !codePattern.MatchString(driver.LicenseNumber) {
		out = append(out, violation("driver.license_number.format",
			"license number must match [A-Z0-9-]+"))
	}

	if !driver.LicenseIssued.IsZero() {
		if driver.LicenseIssued.After(now) {
			out = append(out, violation("driver.license_issued.future",
				"license issue date must not be in the future"))
		}
		if yearsBetween(driver.LicenseIssued, now) > maxLicenseAgeYears {
			out = append(out, violation("driver.license_issued.too_old",
				"license issue date is more than %d years in the past", maxLicenseAgeYears))
		}
		if driver.ExperienceYears > yearsBetween(driver.LicenseIssued, now) {
			out = append(out, violation("driver.experience.exceeds_license",
				"driving experience cannot exceed time since license issue"))
		}
	}

	if driver.LicenseExpires != nil {
		if !driver.LicenseIssued.IsZero() && !driver.LicenseExpires.After(driver.LicenseIssued) {
			out = append(out, violation("driver.license_expires.before_issue",
				"license expiry must be after the issue date"))
		}
		if driver.LicenseExpires.Before(now) {
			out = append(out, violation("driver.license_expires.past",
				"license has expired"))
		}
	}

	if driver.ExperienceYears < 0 {
		out = append(out, violation("driver.experience.negative",
			"driving experience must not be negative"))
	}
	return out
}
