package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/assurtech/autocover/internal/core"
)

type DriverItem struct {
	TenantID        string `dynamodbav:"tenant_id"`
	ID              string `dynamodbav:"id"`
	CustomerID      string `dynamodbav:"customer_id"`
	LicenseNumber   string `dynamodbav:"license_number"`
	LicenseType     string `dynamodbav:"license_type"`
	LicenseIssued   string `dynamodbav:"license_issued"`
	LicenseExpires  string `dynamodbav:"license_expires,omitempty"`
	ExperienceYears int    `dynamodbav:"experience_years"`
	Primary         bool   `dynamodbav:"primary"`
	CreatedAt       string `dynamodbav:"created_at"`
	UpdatedAt       string `dynamodbav:"updated_at"`
}

func (i DriverItem) ToCore() core.Driver {
	return core.Driver{
		ID:              i.ID,
		TenantID:        i.TenantID,
		CustomerID:      i.CustomerID,
		LicenseNumber:   i.LicenseNumber,
		LicenseType:     i.LicenseType,
		LicenseIssued:   timeFromItem(i.LicenseIssued),
		LicenseExpires:  timePtrFromItem(i.LicenseExpires),
		ExperienceYears: i.ExperienceYears,
		Primary:         i.Primary,
		CreatedAt:       timeFromItem(i.CreatedAt),
		UpdatedAt:       timeFromItem(i.UpdatedAt),
	}
}

func driverItemFromCore(d core.Driver) DriverItem {
	return DriverItem{
		TenantID:        d.TenantID,
		ID:              d.ID,
		CustomerID:      d.CustomerID,
		LicenseNumber:   d.LicenseNumber,
		LicenseType:     d.LicenseType,
		LicenseIssued:   timeToItem(d.LicenseIssued),
		LicenseExpires:  timePtrToItem(d.LicenseExpires),
		ExperienceYears: d.ExperienceYears,
		Primary:         d.Primary,
		CreatedAt:       timeToItem(d.CreatedAt),
		UpdatedAt:       timeToItem(d.UpdatedAt),
	}
}

type DriverRepo struct {
	client *dynamodb.Client
}

func NewDriverRepo(client *dynamodb.Client) *DriverRepo {
	return &DriverRepo{client: client}
}

func (r *DriverRepo) Create(ctx context.Context, d core.Driver) error {
	av, err := attributevalue.MarshalMap(driverItemFromCore(d))
	if err != nil {
		return fmt.Errorf("drivers.marshal: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("drivers.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TableDrivers),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrDriverExists
		}
		return fmt.Errorf("drivers.putItem: %w", err)
	}
	return nil
}

func (r *DriverRepo) Get(ctx context.Context, id, tenantID string) (core.Driver, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableDrivers),
		Key:       tenantKey(tenantID, id),
	})
	if err != nil {
		return core.Driver{}, fmt.Errorf("drivers.getItem: %w", err)
	}
	if out.Item == nil {
		return core.Driver{}, core.ErrDriverNotFound
	}

	var item DriverItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.Driver{}, fmt.Errorf("drivers.unmarshal: %w", err)
	}
	return item.ToCore(), nil
}

func (r *DriverRepo) Update(ctx context.Context, d core.Driver) error {
	av, err := attributevalue.MarshalMap(driverItemFromCore(d))
	if err != nil {
		return fmt.Errorf("drivers.marshal: %w", err)
	}

	cond := expression.AttributeExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("drivers.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TableDrivers),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrDriverNotFound
		}
		return fmt.Errorf("drivers.putItem: %w", err)
	}
	return nil
}

func (r *DriverRepo) List(ctx context.Context, tenantID string, filter core.DriverFilter, limit, offset int) ([]core.Driver, error) {
	keyCond := expression.Key("tenant_id").Equal(expression.Value(tenantID))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if filter.CustomerID != "" {
		builder = builder.WithFilter(
			expression.Name("customer_id").Equal(expression.Value(filter.CustomerID)))
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("drivers.buildExpr: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(TableDrivers),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("drivers.query: %w", err)
	}

	var items []DriverItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("drivers.unmarshal: %w", err)
	}

	items = pageItems(items, limit, offset)
	drivers := make([]core.Driver, len(items))
	for i, item := range items {
		drivers[i] = item.ToCore()
	}
	return drivers, nil
}

func (r *DriverRepo) LicenseNumberExists(ctx context.Context, licenseNumber, tenantID string) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TableDrivers),
		IndexName:              aws.String(GSIDriversLicense),
		KeyConditionExpression: aws.String("tenant_id = :tenant AND license_number = :license"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant":  &types.AttributeValueMemberS{Value: tenantID},
			":license": &types.AttributeValueMemberS{Value: licenseNumber},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("drivers.query: %w", err)
	}
	return len(out.Items) > 0, nil
}
