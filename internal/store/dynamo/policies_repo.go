package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/assurtech/autocover/internal/core"
)

type PolicyItem struct {
	TenantID          string `dynamodbav:"tenant_id"`
	ID                string `dynamodbav:"id"`
	Number            string `dynamodbav:"number"`
	Status            string `dynamodbav:"status"`
	StartDate         string `dynamodbav:"start_date"`
	EndDate           string `dynamodbav:"end_date"`
	Premium           string `dynamodbav:"premium"`
	Coverage          string `dynamodbav:"coverage"`
	BonusMalus        string `dynamodbav:"bonus_malus"`
	AnnualMileage     int    `dynamodbav:"annual_mileage,omitempty"`
	Parking           string `dynamodbav:"parking,omitempty"`
	AntiTheft         bool   `dynamodbav:"anti_theft"`
	ClaimHistoryID    string `dynamodbav:"claim_history_id"`
	VehicleID         string `dynamodbav:"vehicle_id"`
	DriverID          string `dynamodbav:"driver_id"`
	GeographicZoneID  string `dynamodbav:"geographic_zone_id"`
	CirculationZoneID string `dynamodbav:"circulation_zone_id"`
	CreatedAt         string `dynamodbav:"created_at"`
	UpdatedAt         string `dynamodbav:"updated_at"`
}

func (i PolicyItem) ToCore() core.AutoPolicy {
	return core.AutoPolicy{
		ID:                i.ID,
		TenantID:          i.TenantID,
		Number:            i.Number,
		Status:            core.PolicyStatus(i.Status),
		StartDate:         timeFromItem(i.StartDate),
		EndDate:           timeFromItem(i.EndDate),
		Premium:           decimalFromItem(i.Premium),
		Coverage:          core.CoverageType(i.Coverage),
		BonusMalus:        decimalFromItem(i.BonusMalus),
		AnnualMileage:     i.AnnualMileage,
		Parking:           core.ParkingType(i.Parking),
		AntiTheft:         i.AntiTheft,
		ClaimHistoryID:    i.ClaimHistoryID,
		VehicleID:         i.VehicleID,
		DriverID:          i.DriverID,
		GeographicZoneID:  i.GeographicZoneID,
		CirculationZoneID: i.CirculationZoneID,
		CreatedAt:         timeFromItem(i.CreatedAt),
		UpdatedAt:         timeFromItem(i.UpdatedAt),
	}
}

func policyItemFromCore(p core.AutoPolicy) PolicyItem {
	return PolicyItem{
		TenantID:          p.TenantID,
		ID:                p.ID,
		Number:            p.Number,
		Status:            string(p.Status),
		StartDate:         timeToItem(p.StartDate),
		EndDate:           timeToItem(p.EndDate),
		Premium:           decimalToItem(p.Premium),
		Coverage:          string(p.Coverage),
		BonusMalus:        decimalToItem(p.BonusMalus),
		AnnualMileage:     p.AnnualMileage,
		Parking:           string(p.Parking),
		AntiTheft:         p.AntiTheft,
		ClaimHistoryID:    p.ClaimHistoryID,
		VehicleID:         p.VehicleID,
		DriverID:          p.DriverID,
		GeographicZoneID:  p.GeographicZoneID,
		CirculationZoneID: p.CirculationZoneID,
		CreatedAt:         timeToItem(p.CreatedAt),
		UpdatedAt:         timeToItem(p.UpdatedAt),
	}
}

type PolicyRepo struct {
	client *dynamodb.Client
}

func NewPolicyRepo(client *dynamodb.Client) *PolicyRepo {
	return &PolicyRepo{client: client}
}

func (r *PolicyRepo) Create(ctx context.Context, p core.AutoPolicy) error {
	av, err := attributevalue.MarshalMap(policyItemFromCore(p))
	if err != nil {
		return fmt.Errorf("policies.marshal: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("policies.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TablePolicies),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrPolicyExists
		}
		return fmt.Errorf("policies.putItem: %w", err)
	}
	return nil
}

func (r *PolicyRepo) Get(ctx context.Context, id, tenantID string) (core.AutoPolicy, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TablePolicies),
		Key:       tenantKey(tenantID, id),
	})
	if err != nil {
		return core.AutoPolicy{}, fmt.Errorf("policies.getItem: %w", err)
	}
	if out.Item == nil {
		return core.AutoPolicy{}, core.ErrPolicyNotFound
	}

	var item PolicyItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.AutoPolicy{}, fmt.Errorf("policies.unmarshal: %w", err)
	}
	return item.ToCore(), nil
}

func (r *PolicyRepo) GetByNumber(ctx context.Context, number, tenantID string) (core.AutoPolicy, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TablePolicies),
		IndexName:              aws.String(GSIPoliciesNumber),
		KeyConditionExpression: aws.String("tenant_id = :tenant AND #number = :number"),
		ExpressionAttributeNames: map[string]string{
			"#number": "number",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant": &types.AttributeValueMemberS{Value: tenantID},
			":number": &types.AttributeValueMemberS{Value: number},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return core.AutoPolicy{}, fmt.Errorf("policies.query: %w", err)
	}
	if len(out.Items) == 0 {
		return core.AutoPolicy{}, core.ErrPolicyNotFound
	}

	var item PolicyItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return core.AutoPolicy{}, fmt.Errorf("policies.unmarshal: %w", err)
	}
	return item.ToCore(), nil
}

func (r *PolicyRepo) Update(ctx context.Context, p core.AutoPolicy) error {
	av, err := attributevalue.MarshalMap(policyItemFromCore(p))
	if err != nil {
		return fmt.Errorf("policies.marshal: %w", err)
	}

	cond := expression.AttributeExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("policies.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TablePolicies),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrPolicyNotFound
		}
		return fmt.Errorf("policies.putItem: %w", err)
	}
	return nil
}

func (r *PolicyRepo) List(ctx context.Context, tenantID string, filter core.PolicyFilter, limit, offset int) ([]core.AutoPolicy, error) {
	keyCond := expression.Key("tenant_id").Equal(expression.Value(tenantID))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)

	var filterExpr expression.ConditionBuilder
	hasFilter := false
	if filter.Status != "" {
		filterExpr = expression.Name("status").Equal(expression.Value(string(filter.Status)))
		hasFilter = true
	}
	if filter.VehicleID != "" {
		f := expression.Name("vehicle_id").Equal(expression.Value(filter.VehicleID))
		if hasFilter {
			filterExpr = filterExpr.And(f)
		} else {
			filterExpr = f
			hasFilter = true
		}
	}
	if filter.DriverID != "" {
		f := expression.Name("driver_id").Equal(expression.Value(filter.DriverID))
		if hasFilter {
			filterExpr = filterExpr.And(f)
		} else {
			filterExpr = f
			hasFilter = true
		}
	}
	if hasFilter {
		builder = builder.WithFilter(filterExpr)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("policies.buildExpr: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(TablePolicies),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("policies.query: %w", err)
	}

	var items []PolicyItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("policies.unmarshal: %w", err)
	}

	items = pageItems(items, limit, offset)
	policies := make([]core.AutoPolicy, len(items))
	for i, item := range items {
		policies[i] = item.ToCore()
	}
	return policies, nil
}

func (r *PolicyRepo) NumberExists(ctx context.Context, number, tenantID string) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TablePolicies),
		IndexName:              aws.String(GSIPoliciesNumber),
		KeyConditionExpression: aws.String("tenant_id = :tenant AND #number = :number"),
		ExpressionAttributeNames: map[string]string{
			"#number": "number",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant": &types.AttributeValueMemberS{Value: tenantID},
			":number": &types.AttributeValueMemberS{Value: number},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("policies.query: %w", err)
	}
	return len(out.Items) > 0, nil
}

// FindDueForRenewal queries the status/end_date index so the sweep reads
// only active policies already past their end date. Stored dates are UTC
// RFC3339 strings, so the range condition compares chronologically.
func (r *PolicyRepo) FindDueForRenewal(ctx context.Context, asOf time.Time, limit int) ([]core.AutoPolicy, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TablePolicies),
		IndexName:              aws.String(GSIPoliciesRenewal),
		KeyConditionExpression: aws.String("#status = :active AND end_date <= :as_of"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":active": &types.AttributeValueMemberS{Value: string(core.PolicyStatusActive)},
			":as_of":  &types.AttributeValueMemberS{Value: timeToItem(asOf)},
		},
		Limit: aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("policies.query: %w", err)
	}

	var items []PolicyItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("policies.unmarshal: %w", err)
	}

	policies := make([]core.AutoPolicy, len(items))
	for i, item := range items {
		policies[i] = item.ToCore()
	}
	return policies, nil
}
