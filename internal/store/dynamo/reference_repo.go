package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/assurtech/autocover/internal/core"
)

type ReferenceItem struct {
	TenantID     string `dynamodbav:"tenant_id"`
	ID           string `dynamodbav:"id"`
	Kind         string `dynamodbav:"kind"`
	Code         string `dynamodbav:"code"`
	Label        string `dynamodbav:"label,omitempty"`
	TariffFactor string `dynamodbav:"tariff_factor,omitempty"`
	ClaimCount   int    `dynamodbav:"claim_count,omitempty"`
	ParentID     string `dynamodbav:"parent_id,omitempty"`
}

func (i ReferenceItem) ToCore() core.ReferenceItem {
	return core.ReferenceItem{
		ID:           i.ID,
		TenantID:     i.TenantID,
		Kind:         core.ReferenceKind(i.Kind),
		Code:         i.Code,
		Label:        i.Label,
		TariffFactor: decimalFromItem(i.TariffFactor),
		ClaimCount:   i.ClaimCount,
		ParentID:     i.ParentID,
	}
}

func referenceItemFromCore(item core.ReferenceItem) ReferenceItem {
	return ReferenceItem{
		TenantID:     item.TenantID,
		ID:           item.ID,
		Kind:         string(item.Kind),
		Code:         item.Code,
		Label:        item.Label,
		TariffFactor: decimalToItem(item.TariffFactor),
		ClaimCount:   item.ClaimCount,
		ParentID:     item.ParentID,
	}
}

type ReferenceRepo struct {
	client *dynamodb.Client
}

func NewReferenceRepo(client *dynamodb.Client) *ReferenceRepo {
	return &ReferenceRepo{client: client}
}

// Upsert is an unconditional put so seeding stays idempotent.
func (r *ReferenceRepo) Upsert(ctx context.Context, item core.ReferenceItem) error {
	av, err := attributevalue.MarshalMap(referenceItemFromCore(item))
	if err != nil {
		return fmt.Errorf("references.marshal: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(TableReferences),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("references.putItem: %w", err)
	}
	return nil
}

func (r *ReferenceRepo) Get(ctx context.Context, kind core.ReferenceKind, id, tenantID string) (core.ReferenceItem, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableReferences),
		Key:       tenantKey(tenantID, id),
	})
	if err != nil {
		return core.ReferenceItem{}, fmt.Errorf("references.getItem: %w", err)
	}
	if out.Item == nil {
		return core.ReferenceItem{}, core.ErrReferenceNotFound
	}

	var item ReferenceItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.ReferenceItem{}, fmt.Errorf("references.unmarshal: %w", err)
	}
	if item.Kind != string(kind) {
		return core.ReferenceItem{}, core.ErrReferenceNotFound
	}
	return item.ToCore(), nil
}

func (r *ReferenceRepo) Exists(ctx context.Context, kind core.ReferenceKind, id, tenantID string) (bool, error) {
	_, err := r.Get(ctx, kind, id, tenantID)
	if err != nil {
		if errors.Is(err, core.ErrReferenceNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *ReferenceRepo) List(ctx context.Context, kind core.ReferenceKind, tenantID string) ([]core.ReferenceItem, error) {
	keyCond := expression.Key("tenant_id").Equal(expression.Value(tenantID))
	filter := expression.Name("kind").Equal(expression.Value(string(kind)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("references.buildExpr: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(TableReferences),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("references.query: %w", err)
	}

	var items []ReferenceItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("references.unmarshal: %w", err)
	}

	refs := make([]core.ReferenceItem, len(items))
	for i, item := range items {
		refs[i] = item.ToCore()
	}
	return refs, nil
}
