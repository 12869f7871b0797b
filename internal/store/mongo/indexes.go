package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := ensureVehiclesIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure vehicles indexes: %w", err)
	}
	if err := ensureDriversIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure drivers indexes: %w", err)
	}
	if err := ensurePoliciesIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure policies indexes: %w", err)
	}
	if err := ensureReferencesIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure references indexes: %w", err)
	}
	return nil
}

// Uniqueness is always per tenant, so every unique index is a compound
// index with tenant_id first.

func ensureVehiclesIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColVehicles)
	models := []mongo.IndexModel{
		newCompoundIndex([]string{"tenant_id", "registration"}, "vehicles_tenant_registration_unique", true),
		newCompoundIndex([]string{"tenant_id", "owner_id"}, "vehicles_tenant_owner", false),
		newIndex("created_at", -1, "vehicles_created_at", false),
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func ensureDriversIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColDrivers)
	models := []mongo.IndexModel{
		newCompoundIndex([]string{"tenant_id", "license_number"}, "drivers_tenant_license_unique", true),
		newCompoundIndex([]string{"tenant_id", "customer_id"}, "drivers_tenant_customer", false),
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func ensurePoliciesIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColPolicies)
	models := []mongo.IndexModel{
		newCompoundIndex([]string{"tenant_id", "number"}, "policies_tenant_number_unique", true),
		newCompoundIndex([]string{"tenant_id", "vehicle_id"}, "policies_tenant_vehicle", false),
		newCompoundIndex([]string{"status", "end_date"}, "policies_status_end_date", false),
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func ensureReferencesIndexes(ctx context.Context, db *mongo.Database) error {
	coll := db.Collection(ColReferences)
	models := []mongo.IndexModel{
		newCompoundIndex([]string{"tenant_id", "kind", "code"}, "references_tenant_kind_code", false),
	}
	_, err := coll.Indexes().CreateMany(ctx, models)
	return err
}

func newIndex(field string, asc int32, name string, unique bool) mongo.IndexModel {
	opts := options.Index().SetName(name)
	if unique {
		opts = opts.SetUnique(true)
	}
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: asc}},
		Options: opts,
	}
}

func newCompoundIndex(fields []string, name string, unique bool) mongo.IndexModel {
	keys := bson.D{}
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	opts := options.Index().SetName(name)
	if unique {
		opts = opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: keys, Options: opts}
}
