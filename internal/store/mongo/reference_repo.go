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

// ReferenceRepoMongo stores all reference kinds in a single collection
// with a kind discriminator.
type ReferenceRepoMongo struct {
	coll      *mongodrv.Collection
	opTimeout time.Duration
}

func NewReferenceRepo(db *mongodrv.Database, opTimeout time.Duration) *ReferenceRepoMongo {
	return &ReferenceRepoMongo{
		coll:      db.Collection(ColReferences),
		opTimeout: opTimeout,
	}
}

// Upsert inserts or replaces a reference item. Seeding runs it repeatedly,
// so it must be idempotent.
func (r *ReferenceRepoMongo) Upsert(ctx context.Context, item core.ReferenceItem) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	doc := toReferenceDoc(item)
	filter := bson.M{"_id": doc.ID, "tenant_id": doc.TenantID}
	update := bson.M{
		"$set": bson.M{
			"kind":          doc.Kind,
			"code":          doc.Code,
			"label":         doc.Label,
			"tariff_factor": doc.TariffFactor,
			"claim_count":   doc.ClaimCount,
			"parent_id":     doc.ParentID,
		},
		"$setOnInsert": bson.M{
			"_id":       doc.ID,
			"tenant_id": doc.TenantID,
		},
	}
	_, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("references.upsert: %w", err)
	}
	return nil
}

func (r *ReferenceRepoMongo) Get(ctx context.Context, kind core.ReferenceKind, id, tenantID string) (core.ReferenceItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	var doc ReferenceDoc
	err := r.coll.FindOne(ctx,
		bson.M{"_id": id, "tenant_id": tenantID, "kind": string(kind)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongodrv.ErrNoDocuments) {
			return core.ReferenceItem{}, core.ErrReferenceNotFound
		}
		return core.ReferenceItem{}, fmt.Errorf("references.findOne: %w", err)
	}
	return fromReferenceDoc(doc), nil
}

func (r *ReferenceRepoMongo) Exists(ctx context.Context, kind core.ReferenceKind, id, tenantID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx,
		bson.M{"_id": id, "tenant_id": tenantID, "kind": string(kind)},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("references.count: %w", err)
	}
	return n > 0, nil
}

func (r *ReferenceRepoMongo) List(ctx context.Context, kind core.ReferenceKind, tenantID string) ([]core.ReferenceItem, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "code", Value: 1}})
	cur, err := r.coll.Find(ctx,
		bson.M{"tenant_id": tenantID, "kind": string(kind)}, opts)
	if err != nil {
		return nil, fmt.Errorf("references.find: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.ReferenceItem
	for cur.Next(ctx) {
		var doc ReferenceDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("references.decode: %w", err)
		}
		out = append(out, fromReferenceDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("references.cursor: %w", err)
	}
	return out, nil
}
