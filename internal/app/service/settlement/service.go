package settlement

import (
	"context"
	"encoding/json"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/coursemint/settlement/internal/app/service/order"
	"github.com/coursemint/settlement/internal/models"
	"github.com/coursemint/settlement/pkg/logctx"
	"github.com/coursemint/settlement/pkg/metrics"
	"github.com/coursemint/settlement/pkg/types"
)

// Settler settles a payment event end to end.
type Settler interface {
	Settle(ctx context.Context, req *SettleRequest) (*SettleResult, error)
}

// OrderRecorder persists the order row; the one critical write.
type OrderRecorder interface {
	CreateOrder(ctx context.Context, req *order.CreateOrderRequest) (*models.Order, error)
}

// AccessGrantor grants course access for course-type orders.
type AccessGrantor interface {
	Grant(ctx context.Context, userID, courseID string, orderID *string, purchasedAt time.Time) error
}

// SubscriptionProvisioner resolves the plan and creates/extends the
// subscription plus its ledger rows.
type SubscriptionProvisioner interface {
	Provision(ctx context.Context, ord *models.Order, interval types.PlanInterval) (*models.UserSubscription, error)
}

// EventRecorder persists settlement event logs; nil-safe and best-effort.
type EventRecorder interface {
	Save(ctx context.Context, entry *models.SettlementEventLog)
}

type Service struct {
	log    *zap.SugaredLogger
	orders OrderRecorder
	access AccessGrantor
	subs   SubscriptionProvisioner
	events EventRecorder
}

func NewService(log *zap.SugaredLogger, orders OrderRecorder, access AccessGrantor, subs SubscriptionProvisioner, events EventRecorder) *Service {
	return &Service{log: log, orders: orders, access: access, subs: subs, events: events}
}

// Settle runs the settlement saga: validate and decode the product, record
// the order, then fire the best-effort side effects (course access,
// subscription provisioning with its ledger). There is no transaction across
// the writes; each best-effort step fails in isolation and the order stands.
func (s *Service) Settle(ctx context.Context, req *SettleRequest) (res *SettleResult, err error) {
	st := &state{req: req, now: time.Now()}

	s.logEvent(ctx, req, models.SettlementEventLogStatusReceived, nil, nil)
	defer func() {
		status := models.SettlementEventLogStatusHandled
		if err != nil {
			status = models.SettlementEventLogStatusHandleFailed
		}
		s.logEvent(ctx, req, status, res, err)
	}()

	steps := []step{
		{name: "validate", critical: true, run: s.stepValidate},
		{name: "record_order", critical: true, run: s.stepRecordOrder},
		{name: "grant_access", critical: false, run: s.stepGrantAccess},
		{name: "provision_subscription", critical: false, run: s.stepProvisionSubscription},
	}

	var failures []StepFailure
	for _, stp := range steps {
		stepErr := stp.run(ctx, st)
		if stepErr == nil {
			continue
		}
		if stp.critical {
			logctx.FromCtx(ctx, s.log).Errorw("settlement aborted",
				"step", stp.name, "err", stepErr)
			metrics.SettlementTotal.WithLabelValues(req.PaymentType, "failed").Inc()
			return nil, stepErr
		}
		logctx.FromCtx(ctx, s.log).Errorw("settlement step failed, continuing",
			"step", stp.name, "order_number", st.orderNumber(), "err", stepErr)
		metrics.SettlementPartialFailureTotal.WithLabelValues(stp.name).Inc()
		failures = append(failures, StepFailure{Step: stp.name, Err: stepErr.Error()})
	}
	metrics.SettlementTotal.WithLabelValues(req.PaymentType, "completed").Inc()

	res = &SettleResult{
		Order:            st.order,
		Subscription:     st.sub,
		Currency:         st.order.Currency,
		OriginalCurrency: st.order.OriginalCurrency,
		Amount:           st.order.Amount,
		OriginalAmount:   st.order.OriginalAmount,
		PartialFailures:  failures,
	}
	return res, nil
}

func (st *state) orderNumber() string {
	if st.order != nil {
		return st.order.OrderNumber
	}
	return st.req.OrderNumber
}

// stepValidate fails fast on missing fields and decodes the product once,
// before anything touches storage.
func (s *Service) stepValidate(ctx context.Context, st *state) error {
	if err := st.req.toCreateOrderRequest().Validate(); err != nil {
		return err
	}
	st.product = types.DecodeProduct(st.req.PaymentType, st.req.CourseID)
	if st.req.SubscriptionDetails != nil {
		logctx.FromCtx(ctx, s.log).Infow("subscription details received",
			"details", st.req.SubscriptionDetails)
	}
	return nil
}

func (s *Service) stepRecordOrder(ctx context.Context, st *state) error {
	ord, err := s.orders.CreateOrder(ctx, st.req.toCreateOrderRequest())
	if err != nil {
		return err
	}
	st.order = ord
	return nil
}

// stepGrantAccess runs whenever a course id is present, whatever the payment
// type. A failure here never rolls back the order: payment already succeeded
// and access can be re-granted by the repair routine.
func (s *Service) stepGrantAccess(ctx context.Context, st *state) error {
	if !st.product.IsCourse() {
		return nil
	}
	return s.access.Grant(ctx, st.order.UserID, *st.product.CourseID, &st.order.ID, st.now)
}

func (s *Service) stepProvisionSubscription(ctx context.Context, st *state) error {
	if !st.product.IsSubscription() {
		return nil
	}
	sub, err := s.subs.Provision(ctx, st.order, *st.product.Interval)
	if err != nil {
		return err
	}
	st.sub = sub
	return nil
}

func (r *SettleRequest) toCreateOrderRequest() *order.CreateOrderRequest {
	return &order.CreateOrderRequest{
		UserID:         r.UserID,
		CourseID:       r.CourseID,
		Amount:         r.Amount,
		OriginalAmount: r.OriginalAmount,
		PaymentType:    r.PaymentType,
		Currency:       r.Currency,
		OrderNumber:    r.OrderNumber,
	}
}

func (s *Service) logEvent(ctx context.Context, req *SettleRequest, status models.SettlementEventLogStatus, res *SettleResult, resErr error) {
	if s.events == nil {
		return
	}
	dataBytes, _ := json.Marshal(req)

	entry := &models.SettlementEventLog{
		UserID: func() *string {
			if req.UserID == "" {
				return nil
			}
			return lo.ToPtr(req.UserID)
		}(),
		OrderNumber: req.OrderNumber,
		EventTime:   time.Now(),
		Data:        datatypes.JSON(dataBytes),
		Status:      status,
	}
	if tid, ok := ctx.Value("traceID").(string); ok {
		entry.TraceID = tid
	}
	if res != nil && res.Order != nil {
		entry.OrderNumber = res.Order.OrderNumber
	}
	if res != nil || resErr != nil {
		resMap := map[string]any{}
		if res != nil {
			resMap["order"] = res.Order
			if len(res.PartialFailures) > 0 {
				resMap["partial_failures"] = res.PartialFailures
			}
		}
		if resErr != nil {
			resMap["error"] = resErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)
		entry.Result = func() *datatypes.JSON { j := datatypes.JSON(resBytes); return &j }()
	}
	s.events.Save(ctx, entry)
}
