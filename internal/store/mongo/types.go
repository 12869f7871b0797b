package mongo

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/assurtech/autocover/internal/core"
)

const (
	ColVehicles   = "vehicles"
	ColDrivers    = "drivers"
	ColPolicies   = "policies"
	ColReferences = "references"
)

// Monetary and coefficient values are stored as strings so no precision
// is lost crossing the driver.

type VehicleDoc struct {
	ID            string     `bson:"_id"`
	TenantID      string     `bson:"tenant_id"`
	Registration  string     `bson:"registration"`
	MakeID        string     `bson:"make_id,omitempty"`
	ModelID       string     `bson:"model_id,omitempty"`
	CategoryID    string     `bson:"category_id"`
	SubcategoryID string     `bson:"subcategory_id,omitempty"`
	UsageID       string     `bson:"usage_id"`
	FuelTypeID    string     `bson:"fuel_type_id,omitempty"`
	ColorID       string     `bson:"color_id,omitempty"`
	Year          int        `bson:"year"`
	EnginePower   int        `bson:"engine_power,omitempty"`
	EngineSize    int        `bson:"engine_size,omitempty"`
	Mileage       int        `bson:"mileage"`
	VIN           string     `bson:"vin,omitempty"`
	PurchaseDate  *time.Time `bson:"purchase_date,omitempty"`
	PurchaseValue string     `bson:"purchase_value,omitempty"`
	CurrentValue  string     `bson:"current_value,omitempty"`
	AntiTheft     bool       `bson:"anti_theft"`
	Parking       string     `bson:"parking,omitempty"`
	OwnerID       string     `bson:"owner_id,omitempty"`
	CreatedAt     time.Time  `bson:"created_at"`
	UpdatedAt     time.Time  `bson:"updated_at"`
}

func toVehicleDoc(v core.Vehicle) VehicleDoc {
	return VehicleDoc{
		ID:            v.ID,
		TenantID:      v.TenantID,
		Registration:  v.Registration,
		MakeID:        v.MakeID,
		ModelID:       v.ModelID,
		CategoryID:    v.CategoryID,
		SubcategoryID: v.SubcategoryID,
		UsageID:       v.UsageID,
		FuelTypeID:    v.FuelTypeID,
		ColorID:       v.ColorID,
		Year:          v.Year,
		EnginePower:   v.EnginePower,
		EngineSize:    v.EngineSize,
		Mileage:       v.Mileage,
		VIN:           v.VIN,
		PurchaseDate:  v.PurchaseDate,
		PurchaseValue: decimalToString(v.PurchaseValue),
		CurrentValue:  decimalToString(v.CurrentValue),
		AntiTheft:     v.AntiTheft,
		Parking:       string(v.Parking),
		OwnerID:       v.OwnerID,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
}

func fromVehicleDoc(d VehicleDoc) core.Vehicle {
	return core.Vehicle{
		ID:            d.ID,
		TenantID:      d.TenantID,
		Registration:  d.Registration,
		MakeID:        d.MakeID,
		ModelID:       d.ModelID,
		CategoryID:    d.CategoryID,
		SubcategoryID: d.SubcategoryID,
		UsageID:       d.UsageID,
		FuelTypeID:    d.FuelTypeID,
		ColorID:       d.ColorID,
		Year:          d.Year,
		EnginePower:   d.EnginePower,
		EngineSize:    d.EngineSize,
		Mileage:       d.Mileage,
		VIN:           d.VIN,
		PurchaseDate:  d.PurchaseDate,
		PurchaseValue: decimalFromDoc(d.PurchaseValue),
		CurrentValue:  decimalFromDoc(d.CurrentValue),
		AntiTheft:     d.AntiTheft,
		Parking:       core.ParkingType(d.Parking),
		OwnerID:       d.OwnerID,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type DriverDoc struct {
	ID              string     `bson:"_id"`
	TenantID        string     `bson:"tenant_id"`
	CustomerID      string     `bson:"customer_id"`
	LicenseNumber   string     `bson:"license_number"`
	LicenseType     string     `bson:"license_type"`
	LicenseIssued   time.Time  `bson:"license_issued"`
	LicenseExpires  *time.Time `bson:"license_expires,omitempty"`
	ExperienceYears int        `bson:"experience_years"`
	Primary         bool       `bson:"primary"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

func toDriverDoc(d core.Driver) DriverDoc {
	return DriverDoc{
		ID:              d.ID,
		TenantID:        d.TenantID,
		CustomerID:      d.CustomerID,
		LicenseNumber:   d.LicenseNumber,
		LicenseType:     d.LicenseType,
		LicenseIssued:   d.LicenseIssued,
		LicenseExpires:  d.LicenseExpires,
		ExperienceYears: d.ExperienceYears,
		Primary:         d.Primary,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func fromDriverDoc(d DriverDoc) core.Driver {
	return core.Driver{
		ID:              d.ID,
		TenantID:        d.TenantID,
		CustomerID:      d.CustomerID,
		LicenseNumber:   d.LicenseNumber,
		LicenseType:     d.LicenseType,
		LicenseIssued:   d.LicenseIssued,
		LicenseExpires:  d.LicenseExpires,
		ExperienceYears: d.ExperienceYears,
		Primary:         d.Primary,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type PolicyDoc struct {
	ID                string    `bson:"_id"`
	TenantID          string    `bson:"tenant_id"`
	Number            string    `bson:"number"`
	Status            string    `bson:"status"`
	StartDate         time.Time `bson:"start_date"`
	EndDate           time.Time `bson:"end_date"`
	Premium           string    `bson:"premium"`
	Coverage          string    `bson:"coverage"`
	BonusMalus        string    `bson:"bonus_malus"`
	AnnualMileage     int       `bson:"annual_mileage,omitempty"`
	Parking           string    `bson:"parking,omitempty"`
	AntiTheft         bool      `bson:"anti_theft"`
	ClaimHistoryID    string    `bson:"claim_history_id"`
	VehicleID         string    `bson:"vehicle_id"`
	DriverID          string    `bson:"driver_id"`
	GeographicZoneID  string    `bson:"geographic_zone_id"`
	CirculationZoneID string    `bson:"circulation_zone_id"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
}

func toPolicyDoc(p core.AutoPolicy) PolicyDoc {
	return PolicyDoc{
		ID:                p.ID,
		TenantID:          p.TenantID,
		Number:            p.Number,
		Status:            string(p.Status),
		StartDate:         p.StartDate,
		EndDate:           p.EndDate,
		Premium:           decimalToString(p.Premium),
		Coverage:          string(p.Coverage),
		BonusMalus:        decimalToString(p.BonusMalus),
		AnnualMileage:     p.AnnualMileage,
		Parking:           string(p.Parking),
		AntiTheft:         p.AntiTheft,
		ClaimHistoryID:    p.ClaimHistoryID,
		VehicleID:         p.VehicleID,
		DriverID:          p.DriverID,
		GeographicZoneID:  p.GeographicZoneID,
		CirculationZoneID: p.CirculationZoneID,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func fromPolicyDoc(d PolicyDoc) core.AutoPolicy {
	return core.AutoPolicy{
		ID:                d.ID,
		TenantID:          d.TenantID,
		Number:            d.Number,
		Status:            core.PolicyStatus(d.Status),
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		Premium:           decimalFromDoc(d.Premium),
		Coverage:          core.CoverageType(d.Coverage),
		BonusMalus:        decimalFromDoc(d.BonusMalus),
		AnnualMileage:     d.AnnualMileage,
		Parking:           core.ParkingType(d.Parking),
		AntiTheft:         d.AntiTheft,
		ClaimHistoryID:    d.ClaimHistoryID,
		VehicleID:         d.VehicleID,
		DriverID:          d.DriverID,
		GeographicZoneID:  d.GeographicZoneID,
		CirculationZoneID: d.CirculationZoneID,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

type ReferenceDoc struct {
	ID           string `bson:"_id"`
	TenantID     string `bson:"tenant_id"`
	Kind         string `bson:"kind"`
	Code         string `bson:"code"`
	Label        string `bson:"label,omitempty"`
	TariffFactor string `bson:"tariff_factor,omitempty"`
	ClaimCount   int    `bson:"claim_count,omitempty"`
	ParentID     string `bson:"parent_id,omitempty"`
}

func toReferenceDoc(item core.ReferenceItem) ReferenceDoc {
	return ReferenceDoc{
		ID:           item.ID,
		TenantID:     item.TenantID,
		Kind:         string(item.Kind),
		Code:         item.Code,
		Label:        item.Label,
		TariffFactor: decimalToString(item.TariffFactor),
		ClaimCount:   item.ClaimCount,
		ParentID:     item.ParentID,
	}
}

func fromReferenceDoc(d ReferenceDoc) core.ReferenceItem {
	return core.ReferenceItem{
		ID:           d.ID,
		TenantID:     d.TenantID,
		Kind:         core.ReferenceKind(d.Kind),
		Code:         d.Code,
		Label:        d.Label,
		TariffFactor: decimalFromDoc(d.TariffFactor),
		ClaimCount:   d.ClaimCount,
		ParentID:     d.ParentID,
	}
}

func decimalToString(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func decimalFromDoc(s string) decimal.Decimal {
	if s == "" {
		return decimal.Decimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}
	}
	return d
}
