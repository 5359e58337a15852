package settlement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coursemint/settlement/internal/app/service/order"
	"github.com/coursemint/settlement/internal/models"
	"github.com/coursemint/settlement/pkg/currency"
	"github.com/coursemint/settlement/pkg/tool"
	"github.com/coursemint/settlement/pkg/types"
)

// fakeOrders records orders in memory, applying the same normalization the
// real recorder does.
type fakeOrders struct {
	created []*models.Order
	err     error
}

func (f *fakeOrders) CreateOrder(_ context.Context, req *order.CreateOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	n := currency.Normalize(req.Currency, req.PaymentType)
	originalAmount := req.Amount
	if req.OriginalAmount != nil {
		originalAmount = *req.OriginalAmount
	}
	ord := &models.Order{
		ID:               tool.GenerateUUIDV7(),
		UserID:           req.UserID,
		CourseID:         req.CourseID,
		Amount:           req.Amount,
		Currency:         n.SettlementCurrency,
		OriginalAmount:   originalAmount,
		OriginalCurrency: n.OriginalCurrency,
		ExchangeRate:     n.ExchangeRate,
		PaymentType:      req.PaymentType,
		Status:           types.OrderStatusCompleted,
		OrderNumber:      tool.GenerateOrderNumber(),
	}
	f.created = append(f.created, ord)
	return ord, nil
}

type fakeAccess struct {
	grants int
	err    error
}

func (f *fakeAccess) Grant(_ context.Context, _, _ string, _ *string, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.grants++
	return nil
}

type fakeSubs struct {
	provisioned int
	sub         *models.UserSubscription
	err         error
}

func (f *fakeSubs) Provision(_ context.Context, ord *models.Order, interval types.PlanInterval) (*models.UserSubscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.provisioned++
	if f.sub != nil {
		return f.sub, nil
	}
	return &models.UserSubscription{
		ID:     tool.GenerateUUIDV7(),
		UserID: ord.UserID,
		Status: types.SubscriptionStatusActive,
	}, nil
}

func newTestService(orders *fakeOrders, acc *fakeAccess, subs *fakeSubs) *Service {
	return NewService(zap.NewNop().Sugar(), orders, acc, subs, nil)
}

func TestSettle_CoursePurchase(t *testing.T) {
	orders := &fakeOrders{}
	acc := &fakeAccess{}
	subs := &fakeSubs{}
	svc := newTestService(orders, acc, subs)

	res, err := svc.Settle(context.Background(), &SettleRequest{
		UserID:      "user-1",
		CourseID:    lo.ToPtr("course-9"),
		Amount:      49.99,
		PaymentType: "creditcard",
		Currency:    "EUR",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	assert.Equal(t, "eur", res.Currency)
	assert.Equal(t, "eur", res.OriginalCurrency)
	assert.Equal(t, 1, acc.grants)
	assert.Equal(t, 0, subs.provisioned)
	assert.Empty(t, res.PartialFailures)
}

func TestSettle_MissingUserID_NoWrite(t *testing.T) {
	orders := &fakeOrders{}
	svc := newTestService(orders, &fakeAccess{}, &fakeSubs{})

	_, err := svc.Settle(context.Background(), &SettleRequest{
		Amount:      100,
		PaymentType: "alipay",
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, order.ErrMissingField))
	assert.Empty(t, orders.created, "validation must reject before any write")
}

func TestSettle_OrderWriteFailure_Aborts(t *testing.T) {
	orders := &fakeOrders{err: order.ErrPersistence}
	acc := &fakeAccess{}
	subs := &fakeSubs{}
	svc := newTestService(orders, acc, subs)

	_, err := svc.Settle(context.Background(), &SettleRequest{
		UserID:      "user-1",
		CourseID:    lo.ToPtr("course-9"),
		Amount:      10,
		PaymentType: "creditcard",
	})
	require.True(t, errors.Is(err, order.ErrPersistence))
	assert.Equal(t, 0, acc.grants)
	assert.Equal(t, 0, subs.provisioned)
}

func TestSettle_AccessGrantFailure_IsIsolated(t *testing.T) {
	orders := &fakeOrders{}
	acc := &fakeAccess{err: errors.New("insert denied")}
	svc := newTestService(orders, acc, &fakeSubs{})

	res, err := svc.Settle(context.Background(), &SettleRequest{
		UserID:      "user-1",
		CourseID:    lo.ToPtr("course-9"),
		Amount:      10,
		PaymentType: "wechat",
	})
	require.NoError(t, err, "a failed access grant never rolls back the order")
	require.Len(t, orders.created, 1)
	assert.Equal(t, types.OrderStatusCompleted, orders.created[0].Status)
	require.Len(t, res.PartialFailures, 1)
	assert.Equal(t, "grant_access", res.PartialFailures[0].Step)
}

func TestSettle_ProvisioningFailure_IsIsolated(t *testing.T) {
	orders := &fakeOrders{}
	subs := &fakeSubs{err: errors.New("plan table unavailable")}
	svc := newTestService(orders, &fakeAccess{}, subs)

	res, err := svc.Settle(context.Background(), &SettleRequest{
		UserID:      "user-1",
		Amount:      399.99,
		PaymentType: "subscription-yearly",
		Currency:    "cny",
	})
	require.NoError(t, err)
	require.Len(t, orders.created, 1)
	assert.Equal(t, "cny", res.Currency)
	assert.Equal(t, 1.0, orders.created[0].ExchangeRate)
	require.Len(t, res.PartialFailures, 1)
	assert.Equal(t, "provision_subscription", res.PartialFailures[0].Step)
}

func TestSettle_SubscriptionPurchase(t *testing.T) {
	orders := &fakeOrders{}
	acc := &fakeAccess{}
	subs := &fakeSubs{}
	svc := newTestService(orders, acc, subs)

	res, err := svc.Settle(context.Background(), &SettleRequest{
		UserID:      "user-7",
		Amount:      399.99,
		PaymentType: "subscription-yearly",
		Currency:    "cny",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, subs.provisioned)
	assert.Equal(t, 0, acc.grants, "no course id, no access grant")
	require.NotNil(t, res.Subscription)
	assert.Equal(t, "user-7", res.Subscription.UserID)
}

func TestSettle_DomesticInstrumentForcesCurrency(t *testing.T) {
	orders := &fakeOrders{}
	svc := newTestService(orders, &fakeAccess{}, &fakeSubs{})

	res, err := svc.Settle(context.Background(), &SettleRequest{
		UserID:      "user-1",
		Amount:      100,
		PaymentType: "alipay",
		Currency:    "eur",
	})
	require.NoError(t, err)
	assert.Equal(t, "cny", res.Currency)
	assert.Equal(t, "eur", res.OriginalCurrency)
	assert.Equal(t, 7.23, orders.created[0].ExchangeRate)
	assert.Equal(t, 100.0, res.OriginalAmount)
}

func TestSettle_UnknownIntervalSuffix_SkipsProvisioning(t *testing.T) {
	subs := &fakeSubs{}
	svc := newTestService(&fakeOrders{}, &fakeAccess{}, subs)

	res, err := svc.Settle(context.Background(), &SettleRequest{
		UserID:      "user-1",
		Amount:      10,
		PaymentType: "subscription-weekly",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, subs.provisioned)
	assert.Empty(t, res.PartialFailures)
}
