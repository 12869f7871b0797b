package core

import (
	"context"
	"fmt"
	"time"

	"github.com/assurtech/autocover/internal/platform/ids"
)

type VehicleService interface {
	Create(ctx context.Context, vehicle Vehicle) (Vehicle, error)
	Update(ctx context.Context, vehicle Vehicle) (Vehicle, error)
	Get(ctx context.Context, id, tenantID string) (Vehicle, error)
	List(ctx context.Context, tenantID string, filter VehicleFilter, limit, offset int) ([]Vehicle, error)
}

type vehicleService struct {
	vehicles  VehicleRepo
	validator *VehicleValidator
	clock     func() time.Time
}

func NewVehicleService(vehicles VehicleRepo, validator *VehicleValidator) VehicleService {
	return &vehicleService{
		vehicles:  vehicles,
		validator: validator,
		clock:     time.Now,
	}
}

func (s *vehicleService) Create(ctx context.Context, vehicle Vehicle) (Vehicle, error) {
	violations, err := s.validator.ValidateForCreation(ctx, vehicle, vehicle.TenantID)
	if err != nil {
		return Vehicle{}, err
	}
	if len(violations) > 0 {
		return Vehicle{}, &ValidationError{Violations: violations}
	}

	now := s.clock()
	vehicle.ID = ids.New()
	vehicle.CreatedAt = now
	vehicle.UpdatedAt = now

	if err := s.vehicles.Create(ctx, vehicle); err != nil {
		return Vehicle{}, err
	}
	return vehicle, nil
}

func (s *vehicleService) Update(ctx context.Context, vehicle Vehicle) (Vehicle, error) {
	if vehicle.ID == "" {
		return Vehicle{}, fmt.Errorf("%w: missing vehicle ID", ErrValidation)
	}

	existing, err := s.vehicles.Get(ctx, vehicle.ID, vehicle.TenantID)
	if err != nil {
		return Vehicle{}, err
	}

	violations, err := s.validator.ValidateForUpdate(ctx, vehicle, existing, vehicle.TenantID)
	if err != nil {
		return Vehicle{}, err
	}
	if len(violations) > 0 {
		return Vehicle{}, &ValidationError{Violations: violations}
	}

	vehicle.CreatedAt = existing.CreatedAt
	vehicle.UpdatedAt = s.clock()
	if err := s.vehicles.Update(ctx, vehicle); err != nil {
		return Vehicle{}, err
	}
	return vehicle, nil
}

func (s *vehicleService) Get(ctx context.Context, id, tenantID string) (Vehicle, error) {
	if id == "" {
		return Vehicle{}, fmt.Errorf("%w: missing vehicle ID", ErrValidation)
	}
	return s.vehicles.Get(ctx, id, tenantID)
}

func (s *vehicleService) List(ctx context.Context, tenantID string, filter VehicleFilter, limit, offset int) ([]Vehicle, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.vehicles.List(ctx, tenantID, filter, limit, offset)
}
