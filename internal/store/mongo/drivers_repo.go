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

type DriverRepoMongo struct {
	coll      *mongodrv.Collection
	opTimeout time.Duration
}

func NewDriverRepo(db *mongodrv.Database, opTimeout time.Duration) *DriverRepoMongo {
	return &DriverRepoMongo{
		coll:      db.Collection(ColDrivers),
		opTimeout: opTimeout,
	}
}

func (r *DriverRepoMongo) Create(ctx context.Context, d core.Driver) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, toDriverDoc(d))
	if err != nil {
		if mongodrv.IsDuplicateKeyError(err) {
			return core.ErrDriverExists
		}
		return fmt.Errorf("drivers.insert: %w", err)
	}
	return nil
}

// Get returns core.ErrDriverNotFound for a missing or cross-tenant ID.
func (r *DriverRepoMongo) Get(ctx context.Context, id, tenantID string) (core.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	var doc DriverDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "tenant_id": tenantID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.Driver{}, core.ErrDriverNotFound
		}
		return core.Driver{}, fmt.Errorf("drivers.findOne: %w", err)
	}
	return fromDriverDoc(doc), nil
}

func (r *DriverRepoMongo) Update(ctx context.Context, d core.Driver) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": d.ID, "tenant_id": d.TenantID},
		toDriverDoc(d))
	if err != nil {
		return fmt.Errorf("drivers.replace: %w", err)
	}
	if res.MatchedCount == 0 {
		return core.ErrDriverNotFound
	}
	return nil
}

func (r *DriverRepoMongo) List(ctx context.Context, tenantID string, filter core.DriverFilter, limit, offset int) ([]core.Driver, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	query := bson.M{"tenant_id": tenantID}
	if filter.CustomerID != "" {
		query["customer_id"] = filter.CustomerID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("drivers.find: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.Driver
	for cur.Next(ctx) {
		var doc DriverDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("drivers.decode: %w", err)
		}
		out = append(out, fromDriverDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("drivers.cursor: %w", err)
	}
	return out, nil
}

func (r *DriverRepoMongo) LicenseNumberExists(ctx context.Context, licenseNumber, tenantID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx,
		bson.M{"license_number": licenseNumber, "tenant_id": tenantID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("drivers.count: %w", err)
	}
	return n > 0, nil
}
