package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assurtech/autocover/internal/core"
	"github.com/assurtech/autocover/internal/platform/config"
	"github.com/assurtech/autocover/internal/platform/logging"
	"github.com/assurtech/autocover/internal/store/dynamo"
	"github.com/assurtech/autocover/internal/store/mongo"
)

func main() {
	cfg := config.MustLoad()
	log := logging.New(cfg.Env)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tenantID := os.Getenv("SEED_TENANT")
	if tenantID == "" {
		tenantID = "demo"
	}

	refs, err := buildReferenceRepo(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize storage", "db_type", cfg.DBType, "err", err)
		os.Exit(1)
	}

	log.Info("seeding reference data", "tenant_id", tenantID, "db_type", cfg.DBType)

	seeded := 0
	for _, item := range referenceItems(tenantID) {
		if err := refs.Upsert(ctx, item); err != nil {
			log.Error("failed to seed reference", "kind", item.Kind, "id", item.ID, "err", err)
			continue
		}
		seeded++
	}

	log.Info("done seeding", "count", seeded)
}

func buildReferenceRepo(ctx context.Context, cfg *config.Config, log *slog.Logger) (core.ReferenceRepo, error) {
	switch cfg.DBType {
	case "dynamodb":
		client, err := dynamo.NewClient(ctx, dynamo.Config{
			Region:          cfg.AWSRegion,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, err
		}
		if err := dynamo.EnsureTables(ctx, client.DB, log); err != nil {
			return nil, err
		}
		return dynamo.NewReferenceRepo(client.DB), nil
	default:
		client, err := mongo.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		if err := mongo.EnsureIndexes(ctx, client.DB); err != nil {
			return nil, err
		}
		return mongo.NewReferenceRepo(client.DB, 5*time.Second), nil
	}
}

func factor(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// referenceItems is the baseline reference catalogue for one tenant.
// Categories and usages carry the tariff factors the premium calculator
// resolves at pricing time.
func referenceItems(tenantID string) []core.ReferenceItem {
	ref := func(kind core.ReferenceKind, id, code, label string) core.ReferenceItem {
		return core.ReferenceItem{ID: id, TenantID: tenantID, Kind: kind, Code: code, Label: label}
	}

	items := []core.ReferenceItem{
		// Vehicle categories with tariff factors
		{ID: "cat-passenger", TenantID: tenantID, Kind: core.RefCategory, Code: "CAT-PASSENGER", Label: "Passenger car", TariffFactor: factor("1.0")},
		{ID: "cat-suv", TenantID: tenantID, Kind: core.RefCategory, Code: "CAT-SUV", Label: "SUV / 4x4", TariffFactor: factor("1.2")},
		{ID: "cat-truck", TenantID: tenantID, Kind: core.RefCategory, Code: "CAT-TRUCK", Label: "Truck", TariffFactor: factor("1.8")},
		{ID: "cat-motorcycle", TenantID: tenantID, Kind: core.RefCategory, Code: "CAT-MOTO", Label: "Motorcycle", TariffFactor: factor("1.5")},

		// Usages with tariff factors
		{ID: "usage-private", TenantID: tenantID, Kind: core.RefUsage, Code: "USG-PRIVATE", Label: "Private use", TariffFactor: factor("1.0")},
		{ID: "usage-commute", TenantID: tenantID, Kind: core.RefUsage, Code: "USG-COMMUTE", Label: "Commuting", TariffFactor: factor("1.1")},
		{ID: "usage-commercial", TenantID: tenantID, Kind: core.RefUsage, Code: "USG-COMMERCIAL", Label: "Commercial transport", TariffFactor: factor("1.5")},
		{ID: "usage-taxi", TenantID: tenantID, Kind: core.RefUsage, Code: "USG-TAXI", Label: "Taxi", TariffFactor: factor("1.8")},

		// Claim-history bands
		{ID: "claims-0", TenantID: tenantID, Kind: core.RefClaimHistory, Code: "CLAIMS-0", Label: "No claims", ClaimCount: 0},
		{ID: "claims-1", TenantID: tenantID, Kind: core.RefClaimHistory, Code: "CLAIMS-1", Label: "One claim", ClaimCount: 1},
		{ID: "claims-2", TenantID: tenantID, Kind: core.RefClaimHistory, Code: "CLAIMS-2", Label: "Two claims", ClaimCount: 2},
		{ID: "claims-3", TenantID: tenantID, Kind: core.RefClaimHistory, Code: "CLAIMS-3", Label: "Three or more claims", ClaimCount: 3},
	}

	items = append(items,
		ref(core.RefSubcategory, "subcat-sedan", "SUB-SEDAN", "Sedan"),
		ref(core.RefSubcategory, "subcat-hatchback", "SUB-HATCH", "Hatchback"),
		ref(core.RefGeographicZone, "zone-urban", "ZONE-URBAN", "Urban"),
		ref(core.RefGeographicZone, "zone-rural", "ZONE-RURAL", "Rural"),
		ref(core.RefCirculationZone, "circ-national", "CIRC-NATIONAL", "National"),
		ref(core.RefCirculationZone, "circ-regional", "CIRC-REGIONAL", "Regional (CEDEAO)"),
		ref(core.RefColor, "color-black", "COL-BLACK", "Black"),
		ref(core.RefColor, "color-white", "COL-WHITE", "White"),
		ref(core.RefColor, "color-grey", "COL-GREY", "Grey"),
		ref(core.RefFuelType, "fuel-petrol", "FUEL-PETROL", "Petrol"),
		ref(core.RefFuelType, "fuel-diesel", "FUEL-DIESEL", "Diesel"),
		ref(core.RefFuelType, "fuel-electric", "FUEL-ELECTRIC", "Electric"),
		ref(core.RefMake, "make-toyota", "MAKE-TOYOTA", "Toyota"),
		ref(core.RefMake, "make-peugeot", "MAKE-PEUGEOT", "Peugeot"),
	)

	corolla := ref(core.RefModel, "model-corolla", "MODEL-COROLLA", "Corolla")
	corolla.ParentID = "make-toyota"
	p208 := ref(core.RefModel, "model-208", "MODEL-208", "208")
	p208.ParentID = "make-peugeot"
	return append(items, corolla, p208)
}
