package core

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assurtech/autocover/internal/platform/ids"
)

// PremiumQuote is the staged result of a pricing run.
type PremiumQuote struct {
	BasePremium      decimal.Decimal            `json:"base_premium"`
	AdjustmentFactor decimal.Decimal            `json:"adjustment_factor"`
	AdjustedPremium  decimal.Decimal            `json:"adjusted_premium"`
	FinalPremium     decimal.Decimal            `json:"final_premium"`
	Breakdown        map[string]decimal.Decimal `json:"breakdown"`
}

type PolicyService interface {
	// Create validates the policy, prices it and persists it.
	Create(ctx context.Context, policy AutoPolicy) (AutoPolicy, error)

	// Update revalidates against the stored state and reprices.
	Update(ctx context.Context, policy AutoPolicy) (AutoPolicy, error)

	Get(ctx context.Context, id, tenantID string) (AutoPolicy, error)
	GetByNumber(ctx context.Context, number, tenantID string) (AutoPolicy, error)
	List(ctx context.Context, tenantID string, filter PolicyFilter, limit, offset int) ([]AutoPolicy, error)

	// Quote prices a policy without persisting anything.
	Quote(ctx context.Context, policy AutoPolicy, tenantID string) (PremiumQuote, error)
}

type policyService struct {
	policies   PolicyRepo
	vehicles   VehicleRepo
	drivers    DriverRepo
	validator  *PolicyValidator
	calculator *PremiumCalculator
	clock      func() time.Time
}

func NewPolicyService(policies PolicyRepo, vehicles VehicleRepo, drivers DriverRepo, validator *PolicyValidator, calculator *PremiumCalculator) PolicyService {
	return &policyService{
		policies:   policies,
		vehicles:   vehicles,
		drivers:    drivers,
		validator:  validator,
		calculator: calculator,
		clock:      time.Now,
	}
}

func (s *policyService) Create(ctx context.Context, policy AutoPolicy) (AutoPolicy, error) {
	// 1) Run the full rule set; all violations come back at once
	violations, err := s.validator.ValidateForCreation(ctx, policy, policy.TenantID)
	if err != nil {
		return AutoPolicy{}, err
	}
	if len(violations) > 0 {
		return AutoPolicy{}, &ValidationError{Violations: violations}
	}

	// 2) Load the rated entities (existence already established above)
	vehicle, err := s.vehicles.Get(ctx, policy.VehicleID, policy.TenantID)
	if err != nil {
		return AutoPolicy{}, err
	}
	driver, err := s.drivers.Get(ctx, policy.DriverID, policy.TenantID)
	if err != nil {
		return AutoPolicy{}, err
	}

	// 3) Price; a missing tariff aborts here
	premium, err := s.calculator.CalculateFinalPremium(ctx, policy, vehicle, driver, policy.TenantID)
	if err != nil {
		return AutoPolicy{}, err
	}
	policy.Premium = premium

	// 4) Stamp identity and lifecycle fields
	now := s.clock()
	policy.ID = ids.New()
	if policy.Status == "" {
		policy.Status = PolicyStatusActive
	}
	policy.CreatedAt = now
	policy.UpdatedAt = now

	// 5) Persist
	if err := s.policies.Create(ctx, policy); err != nil {
		return AutoPolicy{}, err
	}
	return policy, nil
}

func (s *policyService) Update(ctx context.Context, policy AutoPolicy) (AutoPolicy, error) {
	if policy.ID == "" {
		return AutoPolicy{}, fmt.Errorf("%w: missing policy ID", ErrValidation)
	}

	// 1) Load stored state for the immutability rules
	existing, err := s.policies.Get(ctx, policy.ID, policy.TenantID)
	if err != nil {
		return AutoPolicy{}, err
	}

	// 2) Validate against it. The premium is repriced below, so a payload
	// that omits it inherits the stored figure.
	if policy.Premium.IsZero() {
		policy.Premium = existing.Premium
	}
	violations, err := s.validator.ValidateForUpdate(ctx, policy, existing, policy.TenantID)
	if err != nil {
		return AutoPolicy{}, err
	}
	if len(violations) > 0 {
		return AutoPolicy{}, &ValidationError{Violations: violations}
	}

	// 3) Reprice with the updated figures
	vehicle, err := s.vehicles.Get(ctx, policy.VehicleID, policy.TenantID)
	if err != nil {
		return AutoPolicy{}, err
	}
	driver, err := s.drivers.Get(ctx, policy.DriverID, policy.TenantID)
	if err != nil {
		return AutoPolicy{}, err
	}
	premium, err := s.calculator.CalculateFinalPremium(ctx, policy, vehicle, driver, policy.TenantID)
	if err != nil {
		return AutoPolicy{}, err
	}
	policy.Premium = premium

	// 4) Persist, keeping the original creation stamp
	policy.CreatedAt = existing.CreatedAt
	policy.UpdatedAt = s.clock()
	if err := s.policies.Update(ctx, policy); err != nil {
		return AutoPolicy{}, err
	}
	return policy, nil
}

func (s *policyService) Get(ctx context.Context, id, tenantID string) (AutoPolicy, error) {
	if id == "" {
		return AutoPolicy{}, fmt.Errorf("%w: missing policy ID", ErrValidation)
	}
	return s.policies.Get(ctx, id, tenantID)
}

func (s *policyService) GetByNumber(ctx context.Context, number, tenantID string) (AutoPolicy, error) {
	if number == "" {
		return AutoPolicy{}, fmt.Errorf("%w: missing policy number", ErrValidation)
	}
	return s.policies.GetByNumber(ctx, number, tenantID)
}

func (s *policyService) List(ctx context.Context, tenantID string, filter PolicyFilter, limit, offset int) ([]AutoPolicy, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.policies.List(ctx, tenantID, filter, limit, offset)
}

func (s *policyService) Quote(ctx context.Context, policy AutoPolicy, tenantID string) (PremiumQuote, error) {
	vehicle, err := s.vehicles.Get(ctx, policy.VehicleID, tenantID)
	if err != nil {
		return PremiumQuote{}, err
	}
	driver, err := s.drivers.Get(ctx, policy.DriverID, tenantID)
	if err != nil {
		return PremiumQuote{}, err
	}

	base, err := s.calculator.CalculateBasePremium(ctx, vehicle, policy.Coverage, tenantID)
	if err != nil {
		return PremiumQuote{}, err
	}
	factor := CombinedAdjustmentFactor(policy, vehicle, driver)
	adjusted := base.Mul(factor).Round(2)

	coef := NeutralCoefficient()
	if !policy.BonusMalus.IsZero() {
		coef = ClampCoefficient(policy.BonusMalus)
	}
	final := adjusted.Mul(coef.Decimal()).Round(2)

	breakdown, err := SimulateCoverageBreakdown(final, policy.Coverage)
	if err != nil {
		return PremiumQuote{}, err
	}

	return PremiumQuote{
		BasePremium:      base,
		AdjustmentFactor: factor,
		AdjustedPremium:  adjusted,
		FinalPremium:     final,
		Breakdown:        breakdown,
	}, nil
}
