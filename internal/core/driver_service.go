package core

import (
	"context"
	"fmt"
	"time"

	"github.com/assurtech/autocover/internal/platform/ids"
)

type DriverService interface {
	Create(ctx context.Context, driver Driver) (Driver, error)
	Update(ctx context.Context, driver Driver) (Driver, error)
	Get(ctx context.Context, id, tenantID string) (Driver, error)
	List(ctx context.Context, tenantID string, filter DriverFilter, limit, offset int) ([]Driver, error)
}

type driverService struct {
	drivers   DriverRepo
	validator *DriverValidator
	clock     func() time.Time
}

func NewDriverService(drivers DriverRepo, validator *DriverValidator) DriverService {
	return &driverService{
		drivers:   drivers,
		validator: validator,
		clock:     time.Now,
	}
}

func (s *driverService) Create(ctx context.Context, driver Driver) (Driver, error) {
	violations, err := s.validator.ValidateForCreation(ctx, driver, driver.TenantID)
	if err != nil {
		return Driver{}, err
	}
	if len(violations) > 0 {
		return Driver{}, &ValidationError{Violations: violations}
	}

	now := s.clock()
	driver.ID = ids.New()
	driver.CreatedAt = now
	driver.UpdatedAt = now

	if err := s.drivers.Create(ctx, driver); err != nil {
		return Driver{}, err
	}
	return driver, nil
}

func (s *driverService) Update(ctx context.Context, driver Driver) (Driver, error) {
	if driver.ID == "" {
		return Driver{}, fmt.Errorf("%w: missing driver ID", ErrValidation)
	}

	existing, err := s.drivers.Get(ctx, driver.ID, driver.TenantID)
	if err != nil {
		return Driver{}, err
	}

	violations, err := s.validator.ValidateForUpdate(ctx, driver, existing, driver.TenantID)
	if err != nil {
		return Driver{}, err
	}
	if len(violations) > 0 {
		return Driver{}, &ValidationError{Violations: violations}
	}

	driver.CreatedAt = existing.CreatedAt
	driver.UpdatedAt = s.clock()
	if err := s.drivers.Update(ctx, driver); err != nil {
		return Driver{}, err
	}
	return driver, nil
}

func (s *driverService) Get(ctx context.Context, id, tenantID string) (Driver, error) {
	if id == "" {
		return Driver{}, fmt.Errorf("%w: missing driver ID", ErrValidation)
	}
	return s.drivers.Get(ctx, id, tenantID)
}

func (s *driverService) List(ctx context.Context, tenantID string, filter DriverFilter, limit, offset int) ([]Driver, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.drivers.List(ctx, tenantID, filter, limit, offset)
}
