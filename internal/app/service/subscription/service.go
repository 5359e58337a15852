package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/coursemint/settlement/internal/models"
	"github.com/coursemint/settlement/pkg/config"
	"github.com/coursemint/settlement/pkg/logctx"
	"github.com/coursemint/settlement/pkg/tool"
	"github.com/coursemint/settlement/pkg/types"
)

type Service struct {
	cfg *config.Config
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{cfg: cfg, db: db, log: log}
}

// ResolvePlan returns the active plan for an interval, or nil without error
// when none exists. When several active plans share an interval, the lowest
// display_order wins; created_at breaks remaining ties, so the choice is
// deterministic rather than insertion-order dependent.
func (s *Service) ResolvePlan(ctx context.Context, interval types.PlanInterval) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := s.db.WithContext(ctx).
		Where("interval = ? AND is_active = ?", interval, true).
		Order("display_order asc, created_at asc").
		First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}
	return &plan, nil
}

// Provision creates or extends the user's subscription for a settled order.
// A missing plan is a logged no-op, not an error: the order already settled.
// Ledger appends happen inside and are individually best-effort; no ledger
// failure ever escapes this method.
func (s *Service) Provision(ctx context.Context, ord *models.Order, interval types.PlanInterval) (*models.UserSubscription, error) {
	plan, err := s.ResolvePlan(ctx, interval)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		logctx.FromCtx(ctx, s.log).Infow("no active plan for interval, skipping provisioning",
			"interval", interval, "order_number", ord.OrderNumber)
		return nil, nil
	}

	now := time.Now()

	if s.cfg.ProvisionMode() == types.ProvisionModeExtendExisting {
		return s.extendExisting(ctx, ord, plan, now)
	}
	return s.createNew(ctx, ord, plan, now)
}

// createNew inserts a fresh subscription row per order. Repeated purchases
// under this mode can produce overlapping active windows; see ProvisionMode.
func (s *Service) createNew(ctx context.Context, ord *models.Order, plan *models.SubscriptionPlan, now time.Time) (*models.UserSubscription, error) {
	end := AdvanceByInterval(now, plan.Interval)
	sub := &models.UserSubscription{
		ID:              tool.GenerateUUIDV7(),
		UserID:          ord.UserID,
		PlanID:          plan.ID,
		Status:          types.SubscriptionStatusActive,
		StartDate:       now,
		EndDate:         end,
		AutoRenew:       true,
		PaymentMethod:   ord.PaymentType,
		LastPaymentDate: &now,
		NextPaymentDate: &end,
		Extra:           datatypes.JSONMap{},
	}
	if err := s.db.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	s.appendLedger(ctx, sub, ord, types.SubscriptionChangeTypeNew, nil)
	return sub, nil
}

// extendExisting renews the user's current active subscription in place, or
// falls back to a fresh row when there is none.
func (s *Service) extendExisting(ctx context.Context, ord *models.Order, plan *models.SubscriptionPlan, now time.Time) (*models.UserSubscription, error) {
	var existing models.UserSubscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", ord.UserID, types.SubscriptionStatusActive).
		Order("end_date desc").
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.createNew(ctx, ord, plan, now)
		}
		return nil, fmt.Errorf("failed to load existing subscription: %w", err)
	}

	prevPlanID := existing.PlanID

	// remaining time carries over: extend from the later of now and end_date
	base := now
	if existing.EndDate.After(base) {
		base = existing.EndDate
	}
	end := AdvanceByInterval(base, plan.Interval)

	existing.PlanID = plan.ID
	existing.Status = types.SubscriptionStatusActive
	existing.EndDate = end
	existing.AutoRenew = true
	existing.PaymentMethod = ord.PaymentType
	existing.LastPaymentDate = &now
	existing.NextPaymentDate = &end

	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to extend subscription: %w", err)
	}

	s.appendLedger(ctx, &existing, ord, types.SubscriptionChangeTypeRenew, &prevPlanID)
	return &existing, nil
}

// appendLedger writes one history row and one transaction row for a
// subscription-affecting event. The two inserts are independent; a failure in
// either is logged and swallowed so the subscription and the order stand.
func (s *Service) appendLedger(ctx context.Context, sub *models.UserSubscription, ord *models.Order, changeType types.SubscriptionChangeType, previousPlanID *string) {
	if err := s.AppendHistory(ctx, sub, ord, changeType, previousPlanID); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("failed to append subscription history",
			"subscription_id", sub.ID, "change_type", changeType, "err", err)
	}
	if err := s.AppendTransaction(ctx, sub, ord); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("failed to append subscription transaction",
			"subscription_id", sub.ID, "err", err)
	}
}

// AppendHistory records a subscription state change in the append-only ledger.
func (s *Service) AppendHistory(ctx context.Context, sub *models.UserSubscription, ord *models.Order, changeType types.SubscriptionChangeType, previousPlanID *string) error {
	entry := &models.SubscriptionHistory{
		ID:             tool.GenerateUUIDV7(),
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		ChangeType:     changeType,
		PreviousPlanID: previousPlanID,
		NewPlanID:      &sub.PlanID,
		EffectiveDate:  time.Now(),
		Extra:          datatypes.JSONMap{},
	}
	if ord != nil {
		entry.Amount = ord.Amount
		entry.Currency = ord.Currency
	}
	return s.db.WithContext(ctx).Create(entry).Error
}

// AppendTransaction records the payment that settled a subscription order.
func (s *Service) AppendTransaction(ctx context.Context, sub *models.UserSubscription, ord *models.Order) error {
	txn := &models.SubscriptionTransaction{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Type:           types.LedgerTransactionTypePayment,
		PaymentMethod:  sub.PaymentMethod,
		Status:         types.LedgerTransactionStatusCompleted,
	}
	if ord != nil {
		txn.OrderID = &ord.ID
		txn.Amount = ord.Amount
		txn.Currency = ord.Currency
	}
	return s.db.WithContext(ctx).Create(txn).Error
}

// GetCurrentSubscription returns the user's latest-ending active subscription,
// or nil when the user has none. Overlapping windows (create_new mode) project
// onto the one reaching furthest into the future.
func (s *Service) GetCurrentSubscription(ctx context.Context, userID string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND end_date > ?", userID, types.SubscriptionStatusActive, time.Now()).
		Order("end_date desc").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// Cancel marks a subscription cancelled and turns auto-renew off. The current
// entitlement window is untouched; the ledger records the change.
func (s *Service) Cancel(ctx context.Context, subscriptionID string) error {
	var sub models.UserSubscription
	if err := s.db.WithContext(ctx).Where("id = ?", subscriptionID).First(&sub).Error; err != nil {
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	sub.Status = types.SubscriptionStatusCancelled
	sub.AutoRenew = false
	sub.NextPaymentDate = nil

	if err := s.db.WithContext(ctx).Save(&sub).Error; err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	if err := s.AppendHistory(ctx, &sub, nil, types.SubscriptionChangeTypeCancel, &sub.PlanID); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("failed to append cancel history",
			"subscription_id", sub.ID, "err", err)
	}
	return nil
}

// ListByUser returns all subscription rows for a user, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*models.UserSubscription, error) {
	var subs []*models.UserSubscription
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}
