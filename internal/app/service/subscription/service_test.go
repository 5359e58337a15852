package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coursemint/settlement/internal/models"
	"github.com/coursemint/settlement/pkg/config"
	"github.com/coursemint/settlement/pkg/tool"
	"github.com/coursemint/settlement/pkg/types"
)

func setupTestDB(t *testing.T, tables ...any) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(tables...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestService(t *testing.T, db *gorm.DB, mode types.ProvisionMode) *Service {
	t.Helper()
	cfg := &config.Config{Settlement: config.SettlementConfig{ProvisionMode: mode}}
	return NewService(cfg, db, zap.NewNop().Sugar())
}

func seedPlan(t *testing.T, db *gorm.DB, interval types.PlanInterval, displayOrder int) *models.SubscriptionPlan {
	t.Helper()
	plan := &models.SubscriptionPlan{
		ID:           tool.GenerateUUIDV7(),
		Name:         "plan-" + string(interval),
		Interval:     interval,
		Price:        9.99,
		Currency:     "usd",
		IsActive:     true,
		DisplayOrder: displayOrder,
	}
	require.NoError(t, db.Create(plan).Error)
	return plan
}

func testOrder(userID string) *models.Order {
	return &models.Order{
		ID:               tool.GenerateUUIDV7(),
		UserID:           userID,
		Amount:           9.99,
		Currency:         "usd",
		OriginalAmount:   9.99,
		OriginalCurrency: "usd",
		ExchangeRate:     1,
		PaymentType:      string(types.PaymentMethodCreditCard),
		Status:           types.OrderStatusCompleted,
		OrderNumber:      "ORDER-1700000000000-AB12C",
	}
}

func TestProvision_NoActivePlanIsNoOp(t *testing.T) {
	db := setupTestDB(t, &models.SubscriptionPlan{}, &models.UserSubscription{},
		&models.SubscriptionHistory{}, &models.SubscriptionTransaction{})
	svc := newTestService(t, db, types.ProvisionModeCreateNew)

	sub, err := svc.Provision(context.Background(), testOrder("u-1"), types.PlanIntervalYearly)
	require.NoError(t, err)
	assert.Nil(t, sub)

	var count int64
	require.NoError(t, db.Model(&models.UserSubscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProvision_CreateNew(t *testing.T) {
	db := setupTestDB(t, &models.SubscriptionPlan{}, &models.UserSubscription{},
		&models.SubscriptionHistory{}, &models.SubscriptionTransaction{})
	svc := newTestService(t, db, types.ProvisionModeCreateNew)
	plan := seedPlan(t, db, types.PlanIntervalMonthly, 0)
	ord := testOrder("u-1")

	before := time.Now()
	sub, err := svc.Provision(context.Background(), ord, types.PlanIntervalMonthly)
	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.Equal(t, "u-1", sub.UserID)
	assert.Equal(t, plan.ID, sub.PlanID)
	assert.Equal(t, types.SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.AutoRenew)
	assert.WithinDuration(t, AdvanceByInterval(before, types.PlanIntervalMonthly), sub.EndDate, 5*time.Second)

	var stored models.UserSubscription
	require.NoError(t, db.Where("id = ?", sub.ID).First(&stored).Error)
	assert.Equal(t, string(types.PaymentMethodCreditCard), stored.PaymentMethod)

	var history models.SubscriptionHistory
	require.NoError(t, db.Where("subscription_id = ?", sub.ID).First(&history).Error)
	assert.Equal(t, types.SubscriptionChangeTypeNew, history.ChangeType)
	assert.Nil(t, history.PreviousPlanID)
	require.NotNil(t, history.NewPlanID)
	assert.Equal(t, plan.ID, *history.NewPlanID)

	var txn models.SubscriptionTransaction
	require.NoError(t, db.Where("subscription_id = ?", sub.ID).First(&txn).Error)
	assert.Equal(t, types.LedgerTransactionTypePayment, txn.Type)
	assert.Equal(t, types.LedgerTransactionStatusCompleted, txn.Status)
	require.NotNil(t, txn.OrderID)
	assert.Equal(t, ord.ID, *txn.OrderID)
	assert.Equal(t, ord.Amount, txn.Amount)
}

func TestProvision_RepeatPurchaseCreatesSecondRow(t *testing.T) {
	db := setupTestDB(t, &models.SubscriptionPlan{}, &models.UserSubscription{},
		&models.SubscriptionHistory{}, &models.SubscriptionTransaction{})
	svc := newTestService(t, db, types.ProvisionModeCreateNew)
	seedPlan(t, db, types.PlanIntervalMonthly, 0)

	_, err := svc.Provision(context.Background(), testOrder("u-1"), types.PlanIntervalMonthly)
	require.NoError(t, err)
	_, err = svc.Provision(context.Background(), testOrder("u-1"), types.PlanIntervalMonthly)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.UserSubscription{}).Where("user_id = ?", "u-1").Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

// The ledger tables are missing here, so both appends fail. The subscription
// must still be created and Provision must not surface an error.
func TestProvision_LedgerFailureDoesNotFailProvisioning(t *testing.T) {
	db := setupTestDB(t, &models.SubscriptionPlan{}, &models.UserSubscription{})
	svc := newTestService(t, db, types.ProvisionModeCreateNew)
	seedPlan(t, db, types.PlanIntervalYearly, 0)

	sub, err := svc.Provision(context.Background(), testOrder("u-1"), types.PlanIntervalYearly)
	require.NoError(t, err)
	require.NotNil(t, sub)

	var stored models.UserSubscription
	require.NoError(t, db.Where("id = ?", sub.ID).First(&stored).Error)
	assert.Equal(t, types.SubscriptionStatusActive, stored.Status)
}

func TestProvision_ExtendExisting(t *testing.T) {
	db := setupTestDB(t, &models.SubscriptionPlan{}, &models.UserSubscription{},
		&models.SubscriptionHistory{}, &models.SubscriptionTransaction{})
	svc := newTestService(t, db, types.ProvisionModeExtendExisting)
	plan := seedPlan(t, db, types.PlanIntervalMonthly, 0)

	// active subscription with 10 days left: the remainder carries over
	now := time.Now()
	oldEnd := now.Add(10 * 24 * time.Hour)
	existing := &models.UserSubscription{
		ID:        tool.GenerateUUIDV7(),
		UserID:    "u-1",
		PlanID:    tool.GenerateUUIDV7(),
		Status:    types.SubscriptionStatusActive,
		StartDate: now.Add(-20 * 24 * time.Hour),
		EndDate:   oldEnd,
		AutoRenew: false,
	}
	require.NoError(t, db.Create(existing).Error)
	prevPlanID := existing.PlanID

	sub, err := svc.Provision(context.Background(), testOrder("u-1"), types.PlanIntervalMonthly)
	require.NoError(t, err)
	require.NotNil(t, sub)

	assert.Equal(t, existing.ID, sub.ID, "renewal must extend the existing row, not insert a new one")
	assert.Equal(t, plan.ID, sub.PlanID)
	assert.True(t, sub.AutoRenew)
	assert.WithinDuration(t, AdvanceByInterval(oldEnd, types.PlanIntervalMonthly), sub.EndDate, 5*time.Second)

	var count int64
	require.NoError(t, db.Model(&models.UserSubscription{}).Where("user_id = ?", "u-1").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var history models.SubscriptionHistory
	require.NoError(t, db.Where("subscription_id = ?", sub.ID).First(&history).Error)
	assert.Equal(t, types.SubscriptionChangeTypeRenew, history.ChangeType)
	require.NotNil(t, history.PreviousPlanID)
	assert.Equal(t, prevPlanID, *history.PreviousPlanID)
}

func TestProvision_ExtendExistingFallsBackToCreate(t *testing.T) {
	db := setupTestDB(t, &models.SubscriptionPlan{}, &models.UserSubscription{},
		&models.SubscriptionHistory{}, &models.SubscriptionTransaction{})
	svc := newTestService(t, db, types.ProvisionModeExtendExisting)
	seedPlan(t, db, types.PlanIntervalMonthly, 0)

	sub, err := svc.Provision(context.Background(), testOrder("u-1"), types.PlanIntervalMonthly)
	require.NoError(t, err)
	require.NotNil(t, sub)

	var history models.SubscriptionHistory
	require.NoError(t, db.Where("subscription_id = ?", sub.ID).First(&history).Error)
	assert.Equal(t, types.SubscriptionChangeTypeNew, history.ChangeType)
}

func TestResolvePlan_DisplayOrderTiebreak(t *testing.T) {
	db := setupTestDB(t, &models.SubscriptionPlan{})
	svc := newTestService(t, db, types.ProvisionModeCreateNew)

	seedPlan(t, db, types.PlanIntervalYearly, 5)
	first := seedPlan(t, db, types.PlanIntervalYearly, 1)

	plan, err := svc.ResolvePlan(context.Background(), types.PlanIntervalYearly)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, first.ID, plan.ID)
}
