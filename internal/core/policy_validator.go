package core

import (
	"context"
	"errors"
	"time"
)

const (
	// New policies may be backdated at most 30 days; exactly 30 is allowed.
	maxBackdateDays = 30
	// COMPREHENSIVE cover is refused beyond this vehicle age.
	comprehensiveMaxVehicleAge = 15
	// No cover at all beyond this vehicle age.
	insurableMaxVehicleAge = 30
	// Primary drivers need this much experience.
	minPrimaryDriverExperience = 2
)

// PolicyValidator runs the full rule set for an auto policy. It composes
// the vehicle and driver validators over the same lookup ports, so a
// policy check also surfaces problems on the referenced entities.
//
// The returned error carries lookup-port failures only; rule failures are
// always accumulated into the violation list.
type PolicyValidator struct {
	policies PolicyNumberSource
	vehicles VehicleSource
	drivers  DriverSource
	refs     ReferenceSource

	vehicleRules *VehicleValidator
	driverRules  *DriverValidator
	clock        func() time.Time
}

func NewPolicyValidator(policies PolicyNumberSource, vehicles VehicleSource, drivers DriverSource, refs ReferenceSource) *PolicyValidator {
	return &PolicyValidator{
		policies:     policies,
		vehicles:     vehicles,
		drivers:      drivers,
		refs:         refs,
		vehicleRules: NewVehicleValidator(vehicles, refs),
		driverRules:  NewDriverValidator(drivers),
		clock:        time.Now,
	}
}

func (v *PolicyValidator) ValidateForCreation(ctx context.Context, policy AutoPolicy, tenantID string) ([]Violation, error) {
	// 1) Required fields
	out := v.ValidateRequired(policy)

	// 2) Referential existence, loading vehicle and driver for later rules
	refViolations, vehicle, vehicleOK, driver, driverOK, err := v.validateReferences(ctx, policy, tenantID)
	if err != nil {
		return nil, err
	}
	out = append(out, refViolations...)

	// 3) Business rules, including the creation backdate window
	out = append(out, v.ValidateBusinessRules(policy)...)
	if !policy.StartDate.IsZero() && policy.StartDate.Before(v.clock().AddDate(0, 0, -maxBackdateDays)) {
		out = append(out, violation("policy.start_date.too_old",
			"start date must not be more than %d days in the past", maxBackdateDays))
	}

	// 4+5) Coverage-specific and cross-entity rules
	entityViolations, err := v.validateAgainstEntities(ctx, policy, vehicle, vehicleOK, driver, driverOK, tenantID)
	if err != nil {
		return nil, err
	}
	out = append(out, entityViolations...)

	// 6) Uniqueness
	if policy.Number != "" {
		taken, err := v.policies.NumberExists(ctx, policy.Number, tenantID)
		if err != nil {
			return nil, err
		}
		if taken {
			out = append(out, violation("policy.number.taken",
				"policy number %s is already in use", policy.Number))
		}
	}
	return out, nil
}

func (v *PolicyValidator) ValidateForUpdate(ctx context.Context, policy, existing AutoPolicy, tenantID string) ([]Violation, error) {
	out := v.ValidateRequired(policy)

	refViolations, vehicle, vehicleOK, driver, driverOK, err := v.validateReferences(ctx, policy, tenantID)
	if err != nil {
		return nil, err
	}
	out = append(out, refViolations...)
	out = append(out, v.ValidateBusinessRules(policy)...)
	entityViolations, err := v.validateAgainstEntities(ctx, policy, vehicle, vehicleOK, driver, driverOK, tenantID)
	if err != nil {
		return nil, err
	}
	out = append(out, entityViolations...)

	// A stored policy always carries a priced premium, so an update may
	// not drop it.
	if policy.Premium.IsZero() {
		out = append(out, violation("policy.premium.not_positive",
			"premium must be greater than zero"))
	}

	// 7) Immutability
	if policy.Number != existing.Number {
		out = append(out, violation("policy.number.immutable", "policy number cannot be changed"))
	}
	if !policy.StartDate.IsZero() && policy.StartDate.Before(existing.StartDate) {
		out = append(out, violation("policy.start_date.moved_earlier",
			"start date cannot be moved before the original start date"))
	}
	return out, nil
}

func (v *PolicyValidator) ValidateRequired(policy AutoPolicy) []Violation {
	var out []Violation
	required := []struct {
		missing bool
		code    string
		field   string
	}{
		{policy.Number == "", "policy.number.required", "policy number"},
		{policy.Status == "", "policy.status.required", "status"},
		{policy.StartDate.IsZero(), "policy.start_date.required", "start date"},
		{policy.EndDate.IsZero(), "policy.end_date.required", "end date"},
		{policy.Coverage == "", "policy.coverage.required", "coverage type"},
		{policy.BonusMalus.IsZero(), "policy.bonus_malus.required", "bonus-malus coefficient"},
		{policy.ClaimHistoryID == "", "policy.claim_history.required", "claim history category"},
		{policy.VehicleID == "", "policy.vehicle.required", "vehicle reference"},
		{policy.DriverID == "", "policy.driver.required", "primary driver reference"},
		// Mandatory under the CIMA code.
		{policy.GeographicZoneID == "", "policy.geographic_zone.required", "geographic zone"},
		{policy.CirculationZoneID == "", "policy.circulation_zone.required", "circulation zone"},
	}
	for _, r := range required {
		if r.missing {
			out = append(out, violation(r.code, "%s is required", r.field))
		}
	}
	return out
}

func (v *PolicyValidator) ValidateBusinessRules(policy AutoPolicy) []Violation {
	var out []Violation

	if policy.Number != "" && !codePattern.MatchString(policy.Number) {
		out = append(out, violation("policy.number.format", "policy number must match [A-Z0-9-]+"))
	}

	if !policy.StartDate.IsZero() && !policy.EndDate.IsZero() {
		if !policy.StartDate.Before(policy.EndDate) {
			out = append(out, violation("policy.dates.order", "start date must be before end date"))
		} else if policy.EndDate.After(policy.StartDate.AddDate(1, 0, 0)) {
			out = append(out, violation("policy.dates.duration", "policy duration must not exceed one year"))
		}
	}

	if !policy.Premium.IsZero() && !policy.Premium.IsPositive() {
		out = append(out, violation("policy.premium.not_positive", "premium must be greater than zero"))
	}

	if !policy.BonusMalus.IsZero() {
		if _, err := NewCoefficient(policy.BonusMalus); err != nil {
			out = append(out, violation("policy.bonus_malus.out_of_range",
				"bonus-malus coefficient must be between %s and %s", CoefficientMin, CoefficientMax))
		}
	}

	if policy.AnnualMileage < 0 {
		out = append(out, violation("policy.annual_mileage.negative", "annual mileage must not be negative"))
	}
	return out
}

// validateReferences resolves zones, the claim-history category and the
// vehicle/driver references. Cross-tenant records answer as nonexistent,
// so a foreign tenant's vehicle produces the same violation as a missing
// one.
func (v *PolicyValidator) validateReferences(ctx context.Context, policy AutoPolicy, tenantID string) (out []Violation, vehicle Vehicle, vehicleOK bool, driver Driver, driverOK bool, err error) {
	refChecks := []struct {
		kind ReferenceKind
		id   string
		code string
	}{
		{RefGeographicZone, policy.GeographicZoneID, "policy.geographic_zone.unknown"},
		{RefCirculationZone, policy.CirculationZoneID, "policy.circulation_zone.unknown"},
		{RefClaimHistory, policy.ClaimHistoryID, "policy.claim_history.unknown"},
	}
	for _, c := range refChecks {
		if c.id == "" {
			continue
		}
		exists, checkErr := v.refs.Exists(ctx, c.kind, c.id, tenantID)
		if checkErr != nil {
			return nil, Vehicle{}, false, Driver{}, false, checkErr
		}
		if !exists {
			out = append(out, violation(c.code, "%s %q does not exist", c.kind, c.id))
		}
	}

	if policy.VehicleID != "" {
		vehicle, err = v.vehicles.Get(ctx, policy.VehicleID, tenantID)
		switch {
		case err == nil:
			vehicleOK = true
		case errors.Is(err, ErrNotFound):
			out = append(out, violation("policy.vehicle.unknown",
				"vehicle %q does not exist", policy.VehicleID))
		default:
			return nil, Vehicle{}, false, Driver{}, false, err
		}
	}

	if policy.DriverID != "" {
		driver, err = v.drivers.Get(ctx, policy.DriverID, tenantID)
		switch {
		case err == nil:
			driverOK = true
		case errors.Is(err, ErrNotFound):
			out = append(out, violation("policy.driver.unknown",
				"driver %q does not exist", policy.DriverID))
		default:
			return nil, Vehicle{}, false, Driver{}, false, err
		}
	}

	return out, vehicle, vehicleOK, driver, driverOK, nil
}

// validateAgainstEntities runs the coverage-specific and cross-entity
// rules, plus the composed vehicle/driver rule sets, for whichever
// referenced entities resolved.
func (v *PolicyValidator) validateAgainstEntities(ctx context.Context, policy AutoPolicy, vehicle Vehicle, vehicleOK bool, driver Driver, driverOK bool, tenantID string) ([]Violation, error) {
	var out []Violation
	now := v.clock()

	if vehicleOK {
		age := vehicle.Age(now)
		if policy.Coverage == CoverageComprehensive && age > comprehensiveMaxVehicleAge {
			out = append(out, violation("policy.coverage.vehicle_too_old",
				"comprehensive coverage requires a vehicle no older than %d years", comprehensiveMaxVehicleAge))
		}
		if age > insurableMaxVehicleAge {
			out = append(out, violation("policy.vehicle.uninsurable",
				"vehicles older than %d years cannot be insured", insurableMaxVehicleAge))
		}

		refViolations, err := v.vehicleRules.ValidateReferences(ctx, vehicle, tenantID)
		if err != nil {
			return nil, err
		}
		out = append(out, refViolations...)
		out = append(out, v.vehicleRules.ValidateBusinessRules(vehicle)...)
	}

	if driverOK {
		if driver.LicenseExpired(now) {
			out = append(out, violation("policy.driver.license_expired",
				"primary driver's license has expired"))
		}
		if driver.ExperienceYears < minPrimaryDriverExperience {
			out = append(out, violation("policy.driver.insufficient_experience",
				"primary driver needs at least %d years of experience", minPrimaryDriverExperience))
		}
		out = append(out, v.driverRules.ValidateBusinessRules(driver)...)
	}
	return out, nil
}
