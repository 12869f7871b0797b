package core

import (
	"context"
	"time"
)

const vehicleMinYear = 1900

// VehicleValidator checks a vehicle against required-field, referential
// and business rules. Every applicable rule runs; nothing short-circuits.
type VehicleValidator struct {
	vehicles VehicleSource
	refs     ReferenceSource
	clock    func() time.Time
}

func NewVehicleValidator(vehicles VehicleSource, refs ReferenceSource) *VehicleValidator {
	return &VehicleValidator{
		vehicles: vehicles,
		refs:     refs,
		clock:    time.Now,
	}
}

func (v *VehicleValidator) ValidateForCreation(ctx context.Context, vehicle Vehicle, tenantID string) ([]Violation, error) {
	out := v.ValidateRequired(vehicle)

	refViolations, err := v.ValidateReferences(ctx, vehicle, tenantID)
	if err != nil {
		return nil, err
	}
	out = append(out, refViolations...)
	out = append(out, v.ValidateBusinessRules(vehicle)...)

	if vehicle.Registration != "" {
		taken, err := v.vehicles.RegistrationExists(ctx, vehicle.Registration, tenantID)
		if err != nil {
			return nil, err
		}
		if taken {
			out = append(out, violation("vehicle.registration.taken",
				"registration %s is already in use", vehicle.Registration))
		}
	}
	return out, nil
}

func (v *VehicleValidator) ValidateForUpdate(ctx context.Context, vehicle, existing Vehicle, tenantID string) ([]Violation, error) {
	out := v.ValidateRequired(vehicle)

	refViolations, err := v.ValidateReferences(ctx, vehicle, tenantID)
	if err != nil {
		return nil, err
	}
	out = append(out, refViolations...)
	out = append(out, v.ValidateBusinessRules(vehicle)...)

	if vehicle.Registration != existing.Registration {
		out = append(out, violation("vehicle.registration.immutable",
			"registration cannot be changed"))
	}
	if vehicle.Year != existing.Year {
		out = append(out, violation("vehicle.year.immutable",
			"manufacturing year cannot be changed"))
	}
	return out, nil
}

func (v *VehicleValidator) ValidateRequired(vehicle Vehicle) []Violation {
	var out []Violation
	if vehicle.Registration == "" {
		out = append(out, violation("vehicle.registration.required", "registration is required"))
	}
	if vehicle.CategoryID == "" {
		out = append(out, violation("vehicle.category.required", "vehicle category is required"))
	}
	if vehicle.UsageID == "" {
		out = append(out, violation("vehicle.usage.required", "vehicle usage is required"))
	}
	if vehicle.Year == 0 {
		out = append(out, violation("vehicle.year.required", "manufacturing year is required"))
	}
	return out
}

// ValidateReferences resolves every foreign reference within the tenant.
// Optional references (color, fuel type, make, model, subcategory) are
// only checked when set.
func (v *VehicleValidator) ValidateReferences(ctx context.Context, vehicle Vehicle, tenantID string) ([]Violation, error) {
	checks := []struct {
		kind ReferenceKind
		id   string
		code string
	}{
		{RefCategory, vehicle.CategoryID, "vehicle.category.unknown"},
		{RefSubcategory, vehicle.SubcategoryID, "vehicle.subcategory.unknown"},
		{RefUsage, vehicle.UsageID, "vehicle.usage.unknown"},
		{RefFuelType, vehicle.FuelTypeID, "vehicle.fuel_type.unknown"},
		{RefColor, vehicle.ColorID, "vehicle.color.unknown"},
		{RefMake, vehicle.MakeID, "vehicle.make.unknown"},
		{RefModel, vehicle.ModelID, "vehicle.model.unknown"},
	}

	var out []Violation
	for _, c := range checks {
		if c.id == "" {
			continue
		}
		exists, err := v.refs.Exists(ctx, c.kind, c.id, tenantID)
		if err != nil {
			return nil, err
		}
		if !exists {
			out = append(out, violation(c.code, "%s %q does not exist", c.kind, c.id))
		}
	}
	return out, nil
}

func (v *VehicleValidator) ValidateBusinessRules(vehicle Vehicle) []Violation {
	var out []Violation
	now := v.clock()

	if vehicle.Registration != "" && !codePattern.MatchString(vehicle.Registration) {
		out = append(out, violation("vehicle.registration.format",
			"registration must match [A-Z0-9-]+"))
	}
	if vehicle.Year != 0 && (vehicle.Year <= vehicleMinYear || vehicle.Year > now.Year()) {
		out = append(out, violation("vehicle.year.out_of_range",
			"manufacturing year must be after %d and not in the future", vehicleMinYear))
	}
	if vehicle.VIN != "" && !vinPattern.MatchString(vehicle.VIN) {
		out = append(out, violation("vehicle.vin.format",
			"VIN must be 17 alphanumeric characters excluding I, O and Q"))
	}
	if vehicle.Mileage < 0 {
		out = append(out, violation("vehicle.mileage.negative", "mileage must not be negative"))
	}
	return out
}
