package order

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coursemint/settlement/internal/models"
	"github.com/coursemint/settlement/pkg/config"
	"github.com/coursemint/settlement/pkg/currency"
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

type CreateOrderRequest struct {
	UserID   string
	CourseID *string
	Amount   float64
	// OriginalAmount defaults to Amount when nil.
	OriginalAmount *float64
	PaymentType    string
	// Currency is the requested (pre-normalization) currency; may be empty.
	Currency string
	// OrderNumber is generated when empty.
	OrderNumber string
}

// Validate rejects requests missing amount, user id, or payment type.
// It touches no storage, so the pipeline can fail fast before any write.
func (r *CreateOrderRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request", ErrMissingField)
	}
	if r.UserID == "" {
		return fmt.Errorf("%w: userId", ErrMissingField)
	}
	if r.Amount == 0 {
		return fmt.Errorf("%w: amount", ErrMissingField)
	}
	if r.PaymentType == "" {
		return fmt.Errorf("%w: paymentType", ErrMissingField)
	}
	return nil
}

// CreateOrder validates the request, resolves the paying user, normalizes
// currency, and persists exactly one order row with status completed.
// The user lookup happens before the monetary write so a bad user id never
// leaves an orphaned order behind.
func (s *Service) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := s.db.WithContext(ctx).Select("id").Where("id = ?", req.UserID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownUser, req.UserID)
		}
		return nil, fmt.Errorf("failed to look up user profile: %w", err)
	}

	n := currency.NormalizeWith(req.Currency, req.PaymentType,
		s.cfg.Settlement.DomesticCurrency, s.cfg.Settlement.DomesticExchangeRate)

	originalAmount := req.Amount
	if req.OriginalAmount != nil {
		originalAmount = *req.OriginalAmount
	}

	orderNumber := req.OrderNumber
	if orderNumber == "" {
		orderNumber = tool.GenerateOrderNumber()
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
		OrderNumber:      orderNumber,
		Extra:            datatypes.JSONMap{},
	}

	if err := s.db.WithContext(ctx).Create(ord).Error; err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	s.verifyWritten(ctx, ord)

	return ord, nil
}

// verifyWritten reads the order back and compares status and currencies.
// A mismatch is a consistency signal worth a log line, never a failure:
// the payment already settled.
func (s *Service) verifyWritten(ctx context.Context, ord *models.Order) {
	var got models.Order
	if err := s.db.WithContext(ctx).Where("id = ?", ord.ID).First(&got).Error; err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("order readback failed",
			"order_number", ord.OrderNumber, "err", err)
		return
	}
	if got.Status != ord.Status || got.Currency != ord.Currency || got.OriginalCurrency == "" {
		logctx.FromCtx(ctx, s.log).Warnw("order readback mismatch",
			"order_number", ord.OrderNumber,
			"status", got.Status, "currency", got.Currency,
			"original_currency", got.OriginalCurrency)
	}
}

// UpdateOrderStatus transitions an order's status. Status changes are the only
// mutation orders ever see; used by back-office refund/cancel flows.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID string, status types.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid order status: %s", status)
	}
	res := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order not found: %s", orderID)
	}
	return nil
}

// GetByOrderNumber is a point lookup used by the admin detail view.
func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var ord models.Order
	if err := s.db.WithContext(ctx).Where("order_number = ?", orderNumber).First(&ord).Error; err != nil {
		return nil, err
	}
	return &ord, nil
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

type ScanOrdersRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanOrdersResponse struct {
	Items []*models.Order `json:"items"`
	Total int64           `json:"total"`
}

// ScanOrders implements paginated admin listing with filters.
func (s *Service) ScanOrders(ctx context.Context, req *ScanOrdersRequest) (*ScanOrdersResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Order{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var rows []*models.Order

	q := tx.Limit(req.Size)

	if req.From > 0 {
		q = q.Offset(req.From)
	}

	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &ScanOrdersResponse{Items: rows, Total: total}, nil
}
