package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/coursemint/settlement/internal/models"
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

func seedOrder(t *testing.T, db *gorm.DB, paymentType string, status types.OrderStatus, amount float64) {
	t.Helper()
	ord := &models.Order{
		ID:               tool.GenerateUUIDV7(),
		UserID:           "u-1",
		Amount:           amount,
		Currency:         "usd",
		OriginalAmount:   amount,
		OriginalCurrency: "usd",
		ExchangeRate:     1,
		PaymentType:      paymentType,
		Status:           status,
		OrderNumber:      "ORDER-1700000000000-" + tool.GenerateUUIDV7()[31:],
	}
	require.NoError(t, db.Create(ord).Error)
}

// A payment_type filter applies to none of these series, so every worker takes
// the short-circuit path and the whole fan-out runs without a database. Each
// requested item must still come back in the response map, on every run.
func TestGetSettlementStatistic_AllItemsReturnedWithInapplicableFilter(t *testing.T) {
	svc := New(nil)

	requested := []StatisticType{
		StatisticTypeTotalRevenue,
		StatisticTypeDailySubscriptionCount,
		StatisticTypeDailyNewSubscriptionCount,
		StatisticTypeTotalSubscriptionCount,
		StatisticTypeDailyAccumulatedSubscriptionCount,
	}
	request := &SettlementStatisticRequest{
		Filters: []*types.CommonFilter{{
			Field:    string(SettlementStatisticFilterTypePaymentType),
			Operator: types.CommonFilterOperatorEq,
			Values:   []any{"creditcard"},
		}},
	}
	for _, id := range requested {
		request.DataItems = append(request.DataItems, &SettlementStatisticDataItem{ID: id})
	}

	for i := 0; i < 500; i++ {
		resp, err := svc.GetSettlementStatistic(context.Background(), request)
		require.NoError(t, err)
		require.Len(t, resp.DataItems, len(requested))
		for _, id := range requested {
			require.Contains(t, resp.DataItems, id)
		}
	}
}

func TestSettledOrdersScope_ExcludesAdminGrants(t *testing.T) {
	db := setupTestDB(t, &models.Order{})

	seedOrder(t, db, string(types.PaymentMethodCreditCard), types.OrderStatusCompleted, 49.99)
	seedOrder(t, db, string(types.PaymentMethodWechat), types.OrderStatusCompleted, 199)
	seedOrder(t, db, string(types.PaymentMethodAdminGrant), types.OrderStatusCompleted, 0)
	seedOrder(t, db, string(types.PaymentMethodCreditCard), types.OrderStatusPending, 49.99)

	var count int64
	require.NoError(t, settledOrders(db.Model(&models.Order{})).Count(&count).Error)
	assert.EqualValues(t, 2, count)

	var total float64
	require.NoError(t, settledOrders(db.Model(&models.Order{})).
		Select("COALESCE(SUM(amount), 0)").Scan(&total).Error)
	assert.InDelta(t, 248.99, total, 0.001)
}

func TestSaveSubscriptionDailySnapshot(t *testing.T) {
	db := setupTestDB(t, &models.SubscriptionDailySnapshot{})
	svc := New(db)

	end := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	sub := &models.UserSubscription{
		ID:        tool.GenerateUUIDV7(),
		UserID:    "u-1",
		PlanID:    tool.GenerateUUIDV7(),
		Status:    types.SubscriptionStatusActive,
		EndDate:   end,
		AutoRenew: true,
	}
	require.NoError(t, svc.SaveSubscriptionDailySnapshot(context.Background(), sub, time.Date(2026, time.January, 15, 8, 0, 0, 0, time.UTC)))

	var snap models.SubscriptionDailySnapshot
	require.NoError(t, db.Where("user_id = ?", "u-1").First(&snap).Error)
	assert.Equal(t, "2026-01-15", snap.SnapshotDate)
	assert.Equal(t, types.SubscriptionStatusActive, snap.Status)
	require.NotNil(t, snap.EndDate)
	assert.True(t, snap.EndDate.Equal(end))
}
