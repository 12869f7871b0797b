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
	"github.com/shopspring/decimal"

	"github.com/assurtech/autocover/internal/core"
)

type VehicleItem struct {
	TenantID      string `dynamodbav:"tenant_id"`
	ID            string `dynamodbav:"id"`
	Registration  string `dynamodbav:"registration"`
	MakeID        string `dynamodbav:"make_id,omitempty"`
	ModelID       string `dynamodbav:"model_id,omitempty"`
	CategoryID    string `dynamodbav:"category_id"`
	SubcategoryID string `dynamodbav:"subcategory_id,omitempty"`
	UsageID       string `dynamodbav:"usage_id"`
	FuelTypeID    string `dynamodbav:"fuel_type_id,omitempty"`
	ColorID       string `dynamodbav:"color_id,omitempty"`
	Year          int    `dynamodbav:"year"`
	EnginePower   int    `dynamodbav:"engine_power,omitempty"`
	EngineSize    int    `dynamodbav:"engine_size,omitempty"`
	Mileage       int    `dynamodbav:"mileage"`
	VIN           string `dynamodbav:"vin,omitempty"`
	PurchaseDate  string `dynamodbav:"purchase_date,omitempty"`
	PurchaseValue string `dynamodbav:"purchase_value,omitempty"`
	CurrentValue  string `dynamodbav:"current_value,omitempty"`
	AntiTheft     bool   `dynamodbav:"anti_theft"`
	Parking       string `dynamodbav:"parking,omitempty"`
	OwnerID       string `dynamodbav:"owner_id,omitempty"`
	CreatedAt     string `dynamodbav:"created_at"`
	UpdatedAt     string `dynamodbav:"updated_at"`
}

func (i VehicleItem) ToCore() core.Vehicle {
	return core.Vehicle{
		ID:            i.ID,
		TenantID:      i.TenantID,
		Registration:  i.Registration,
		MakeID:        i.MakeID,
		ModelID:       i.ModelID,
		CategoryID:    i.CategoryID,
		SubcategoryID: i.SubcategoryID,
		UsageID:       i.UsageID,
		FuelTypeID:    i.FuelTypeID,
		ColorID:       i.ColorID,
		Year:          i.Year,
		EnginePower:   i.EnginePower,
		EngineSize:    i.EngineSize,
		Mileage:       i.Mileage,
		VIN:           i.VIN,
		PurchaseDate:  timePtrFromItem(i.PurchaseDate),
		PurchaseValue: decimalFromItem(i.PurchaseValue),
		CurrentValue:  decimalFromItem(i.CurrentValue),
		AntiTheft:     i.AntiTheft,
		Parking:       core.ParkingType(i.Parking),
		OwnerID:       i.OwnerID,
		CreatedAt:     timeFromItem(i.CreatedAt),
		UpdatedAt:     timeFromItem(i.UpdatedAt),
	}
}

func vehicleItemFromCore(v core.Vehicle) VehicleItem {
	return VehicleItem{
		TenantID:      v.TenantID,
		ID:            v.ID,
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
		PurchaseDate:  timePtrToItem(v.PurchaseDate),
		PurchaseValue: decimalToItem(v.PurchaseValue),
		CurrentValue:  decimalToItem(v.CurrentValue),
		AntiTheft:     v.AntiTheft,
		Parking:       string(v.Parking),
		OwnerID:       v.OwnerID,
		CreatedAt:     timeToItem(v.CreatedAt),
		UpdatedAt:     timeToItem(v.UpdatedAt),
	}
}

// timeToItem stores every date in UTC so the RFC3339 strings compare
// chronologically; a zone offset in the stored value would break the
// lexicographic range conditions on the date-keyed indexes.
func timeToItem(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func timeFromItem(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func timePtrFromItem(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func timePtrToItem(t *time.Time) string {
	if t == nil {
		return ""
	}
	return timeToItem(*t)
}

func decimalFromItem(s string) decimal.Decimal {
	if s == "" {
		return decimal.Decimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}
	}
	return d
}

func decimalToItem(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

type VehicleRepo struct {
	client *dynamodb.Client
}

func NewVehicleRepo(client *dynamodb.Client) *VehicleRepo {
	return &VehicleRepo{client: client}
}

func (r *VehicleRepo) Create(ctx context.Context, v core.Vehicle) error {
	av, err := attributevalue.MarshalMap(vehicleItemFromCore(v))
	if err != nil {
		return fmt.Errorf("vehicles.marshal: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("vehicles.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TableVehicles),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrVehicleExists
		}
		return fmt.Errorf("vehicles.putItem: %w", err)
	}
	return nil
}

func (r *VehicleRepo) Get(ctx context.Context, id, tenantID string) (core.Vehicle, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(TableVehicles),
		Key:       tenantKey(tenantID, id),
	})
	if err != nil {
		return core.Vehicle{}, fmt.Errorf("vehicles.getItem: %w", err)
	}
	if out.Item == nil {
		return core.Vehicle{}, core.ErrVehicleNotFound
	}

	var item VehicleItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return core.Vehicle{}, fmt.Errorf("vehicles.unmarshal: %w", err)
	}
	return item.ToCore(), nil
}

func (r *VehicleRepo) Update(ctx context.Context, v core.Vehicle) error {
	av, err := attributevalue.MarshalMap(vehicleItemFromCore(v))
	if err != nil {
		return fmt.Errorf("vehicles.marshal: %w", err)
	}

	cond := expression.AttributeExists(expression.Name("id"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("vehicles.buildExpr: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(TableVehicles),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return core.ErrVehicleNotFound
		}
		return fmt.Errorf("vehicles.putItem: %w", err)
	}
	return nil
}

func (r *VehicleRepo) List(ctx context.Context, tenantID string, filter core.VehicleFilter, limit, offset int) ([]core.Vehicle, error) {
	keyCond := expression.Key("tenant_id").Equal(expression.Value(tenantID))
	builder := expression.NewBuilder().WithKeyCondition(keyCond)

	var filterExpr expression.ConditionBuilder
	hasFilter := false
	if filter.CategoryID != "" {
		filterExpr = expression.Name("category_id").Equal(expression.Value(filter.CategoryID))
		hasFilter = true
	}
	if filter.OwnerID != "" {
		ownerFilter := expression.Name("owner_id").Equal(expression.Value(filter.OwnerID))
		if hasFilter {
			filterExpr = filterExpr.And(ownerFilter)
		} else {
			filterExpr = ownerFilter
			hasFilter = true
		}
	}
	if hasFilter {
		builder = builder.WithFilter(filterExpr)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("vehicles.buildExpr: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(TableVehicles),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("vehicles.query: %w", err)
	}

	var items []VehicleItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("vehicles.unmarshal: %w", err)
	}

	items = pageItems(items, limit, offset)
	vehicles := make([]core.Vehicle, len(items))
	for i, item := range items {
		vehicles[i] = item.ToCore()
	}
	return vehicles, nil
}

func (r *VehicleRepo) RegistrationExists(ctx context.Context, registration, tenantID string) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(TableVehicles),
		IndexName:              aws.String(GSIVehiclesRegistration),
		KeyConditionExpression: aws.String("tenant_id = :tenant AND registration = :reg"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tenant": &types.AttributeValueMemberS{Value: tenantID},
			":reg":    &types.AttributeValueMemberS{Value: registration},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return false, fmt.Errorf("vehicles.query: %w", err)
	}
	return len(out.Items) > 0, nil
}

func tenantKey(tenantID, id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tenant_id": &types.AttributeValueMemberS{Value: tenantID},
		"id":        &types.AttributeValueMemberS{Value: id},
	}
}

// pageItems applies offset/limit after the query since DynamoDB pages by
// LastEvaluatedKey rather than numeric offsets.
func pageItems[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
