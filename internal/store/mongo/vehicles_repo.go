package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/assurtech/autocover/internal/core"
)

type VehicleRepoMongo struct {
	coll      *mongodrv.Collection
	opTimeout time.Duration
}

func NewVehicleRepo(db *mongodrv.Database, opTimeout time.Duration) *VehicleRepoMongo {
	return &VehicleRepoMongo{
		coll:      db.Collection(ColVehicles),
		opTimeout: opTimeout,
	}
}

func (r *VehicleRepoMongo) Create(ctx context.Context, v core.Vehicle) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, toVehicleDoc(v))
	if err != nil {
		if mongodrv.IsDuplicateKeyError(err) {
			return core.ErrVehicleExists
		}
		return fmt.Errorf("vehicles.insert: %w", err)
	}
	return nil
}

// Get returns core.ErrVehicleNotFound for a missing or cross-tenant ID.
func (r *VehicleRepoMongo) Get(ctx context.Context, id, tenantID string) (core.Vehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	var doc VehicleDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "tenant_id": tenantID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.Vehicle{}, core.ErrVehicleNotFound
		}
		return core.Vehicle{}, fmt.Errorf("vehicles.findOne: %w", err)
	}
	return fromVehicleDoc(doc), nil
}

func (r *VehicleRepoMongo) Update(ctx context.Context, v core.Vehicle) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": v.ID, "tenant_id": v.TenantID},
		toVehicleDoc(v))
	if err != nil {
		return fmt.Errorf("vehicles.replace: %w", err)
	}
	if res.MatchedCount == 0 {
		return core.ErrVehicleNotFound
	}
	return nil
}

func (r *VehicleRepoMongo) List(ctx context.Context, tenantID string, filter core.VehicleFilter, limit, offset int) ([]core.Vehicle, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	query := bson.M{"tenant_id": tenantID}
	if filter.CategoryID != "" {
		query["category_id"] = filter.CategoryID
	}
	if filter.OwnerID != "" {
		query["owner_id"] = filter.OwnerID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("vehicles.find: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.Vehicle
	for cur.Next(ctx) {
		var doc VehicleDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("vehicles.decode: %w", err)
		}
		out = append(out, fromVehicleDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("vehicles.cursor: %w", err)
	}
	return out, nil
}

func (r *VehicleRepoMongo) RegistrationExists(ctx context.Context, registration, tenantID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx,
		bson.M{"registration": registration, "tenant_id": tenantID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("vehicles.count: %w", err)
	}
	return n > 0, nil
}
