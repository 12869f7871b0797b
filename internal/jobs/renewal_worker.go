package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/assurtech/autocover/internal/core"
)

// RenewalWorker sweeps active policies past their end date, applies the
// bonus-malus step from the tenant's claim history and reprices the new
// term.
type RenewalWorker struct {
	BaseWorker
	policies   core.PolicyRepo
	vehicles   core.VehicleRepo
	drivers    core.DriverRepo
	refs       core.ReferenceRepo
	calculator *core.PremiumCalculator
	batchSize  int
	clock      func() time.Time
}

func NewRenewalWorker(
	policies core.PolicyRepo,
	vehicles core.VehicleRepo,
	drivers core.DriverRepo,
	refs core.ReferenceRepo,
	calculator *core.PremiumCalculator,
	interval time.Duration,
	batchSize int,
	log *slog.Logger,
) *RenewalWorker {
	return &RenewalWorker{
		BaseWorker: NewBaseWorker("renewal", interval, log),
		policies:   policies,
		vehicles:   vehicles,
		drivers:    drivers,
		refs:       refs,
		calculator: calculator,
		batchSize:  batchSize,
		clock:      time.Now,
	}
}

// Start begins the worker polling loop.
func (w *RenewalWorker) Start(ctx context.Context) {
	w.Poll(ctx, w.processDue)
}

// Name returns the worker name.
func (w *RenewalWorker) Name() string {
	return w.name
}

// processDue renews every policy whose term has ended.
func (w *RenewalWorker) processDue(ctx context.Context) error {
	now := w.clock()

	due, err := w.policies.FindDueForRenewal(ctx, now, w.batchSize)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	w.log.Info("found policies due for renewal", "count", len(due))

	for _, policy := range due {
		if err := w.renew(ctx, policy, now); err != nil {
			w.log.Error("failed to renew policy",
				"policy_id", policy.ID,
				"tenant_id", policy.TenantID,
				"err", err,
			)
			continue
		}
		w.log.Info("policy renewed", "policy_id", policy.ID, "tenant_id", policy.TenantID)
	}

	return nil
}

func (w *RenewalWorker) renew(ctx context.Context, policy core.AutoPolicy, now time.Time) error {
	// 1) Claim count for the elapsed term comes from the policy's
	//    claim-history reference.
	claimCount := 0
	if policy.ClaimHistoryID != "" {
		history, err := w.refs.Get(ctx, core.RefClaimHistory, policy.ClaimHistoryID, policy.TenantID)
		if err != nil {
			return err
		}
		claimCount = history.ClaimCount
	}

	// 2) Apply the bonus-malus step.
	current := core.NeutralCoefficient()
	if !policy.BonusMalus.IsZero() {
		current = core.ClampCoefficient(policy.BonusMalus)
	}
	next, err := core.CalculateNewCoefficient(current, claimCount)
	if err != nil {
		return err
	}
	policy.BonusMalus = next.Decimal()

	// 3) Reprice the new term with the updated coefficient.
	vehicle, err := w.vehicles.Get(ctx, policy.VehicleID, policy.TenantID)
	if err != nil {
		return err
	}
	driver, err := w.drivers.Get(ctx, policy.DriverID, policy.TenantID)
	if err != nil {
		return err
	}
	premium, err := w.calculator.CalculateFinalPremium(ctx, policy, vehicle, driver, policy.TenantID)
	if err != nil {
		return err
	}
	policy.Premium = premium

	// 4) Roll the term forward by one year from the old end date.
	policy.StartDate = policy.EndDate
	policy.EndDate = policy.EndDate.AddDate(1, 0, 0)
	policy.UpdatedAt = now

	return w.policies.Update(ctx, policy)
}
