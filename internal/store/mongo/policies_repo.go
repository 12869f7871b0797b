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

type PolicyRepoMongo struct {
	coll      *mongodrv.Collection
	opTimeout time.Duration
}

func NewPolicyRepo(db *mongodrv.Database, opTimeout time.Duration) *PolicyRepoMongo {
	return &PolicyRepoMongo{
		coll:      db.Collection(ColPolicies),
		opTimeout: opTimeout,
	}
}

func (r *PolicyRepoMongo) Create(ctx context.Context, p core.AutoPolicy) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, toPolicyDoc(p))
	if err != nil {
		if mongodrv.IsDuplicateKeyError(err) {
			return core.ErrPolicyExists
		}
		return fmt.Errorf("policies.insert: %w", err)
	}
	return nil
}

func (r *PolicyRepoMongo) Get(ctx context.Context, id, tenantID string) (core.AutoPolicy, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	var doc PolicyDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "tenant_id": tenantID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.AutoPolicy{}, core.ErrPolicyNotFound
		}
		return core.AutoPolicy{}, fmt.Errorf("policies.findOne: %w", err)
	}
	return fromPolicyDoc(doc), nil
}

func (r *PolicyRepoMongo) GetByNumber(ctx context.Context, number, tenantID string) (core.AutoPolicy, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	var doc PolicyDoc
	err := r.coll.FindOne(ctx, bson.M{"number": number, "tenant_id": tenantID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.AutoPolicy{}, core.ErrPolicyNotFound
		}
		return core.AutoPolicy{}, fmt.Errorf("policies.findOne: %w", err)
	}
	return fromPolicyDoc(doc), nil
}

func (r *PolicyRepoMongo) Update(ctx context.Context, p core.AutoPolicy) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	res, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": p.ID, "tenant_id": p.TenantID},
		toPolicyDoc(p))
	if err != nil {
		return fmt.Errorf("policies.replace: %w", err)
	}
	if res.MatchedCount == 0 {
		return core.ErrPolicyNotFound
	}
	return nil
}

func (r *PolicyRepoMongo) List(ctx context.Context, tenantID string, filter core.PolicyFilter, limit, offset int) ([]core.AutoPolicy, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	query := bson.M{"tenant_id": tenantID}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	if filter.VehicleID != "" {
		query["vehicle_id"] = filter.VehicleID
	}
	if filter.DriverID != "" {
		query["driver_id"] = filter.DriverID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("policies.find: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.AutoPolicy
	for cur.Next(ctx) {
		var doc PolicyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("policies.decode: %w", err)
		}
		out = append(out, fromPolicyDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("policies.cursor: %w", err)
	}
	return out, nil
}

func (r *PolicyRepoMongo) NumberExists(ctx context.Context, number, tenantID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx,
		bson.M{"number": number, "tenant_id": tenantID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("policies.count: %w", err)
	}
	return n > 0, nil
}

// FindDueForRenewal returns active policies whose end date is at or before
// asOf, across all tenants. The renewal worker is the only caller.
func (r *PolicyRepoMongo) FindDueForRenewal(ctx context.Context, asOf time.Time, limit int) ([]core.AutoPolicy, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	query := bson.M{
		"status":   string(core.PolicyStatusActive),
		"end_date": bson.M{"$lte": asOf},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "end_date", Value: 1}}).
		SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("policies.find: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.AutoPolicy
	for cur.Next(ctx) {
		var doc PolicyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("policies.decode: %w", err)
		}
		out = append(out, fromPolicyDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("policies.cursor: %w", err)
	}
	return out, nil
}
