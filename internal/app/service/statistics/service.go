package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coursemint/settlement/internal/models"
	"github.com/coursemint/settlement/pkg/tool"
	"github.com/coursemint/settlement/pkg/types"
)

// Statistic types served to the admin dashboard
type StatisticType string

const (
	// Daily counts and revenue
	StatisticTypeDailyOrderCount StatisticType = "daily_order_count"
	StatisticTypeDailyRevenue    StatisticType = "daily_revenue"
	StatisticTypeTotalRevenue    StatisticType = "total_revenue"

	// Subscription related
	StatisticTypeDailySubscriptionCount            StatisticType = "daily_subscription_count"
	StatisticTypeDailyNewSubscriptionCount         StatisticType = "daily_new_subscription_count"
	StatisticTypeTotalSubscriptionCount            StatisticType = "total_subscription_count"
	StatisticTypeDailyAccumulatedSubscriptionCount StatisticType = "daily_accumulated_subscription_count"
)

// Filter types supported by certain statistic types
type SettlementStatisticFilterType string

const (
	SettlementStatisticFilterTypePaymentType SettlementStatisticFilterType = "payment_type"
	SettlementStatisticFilterTypeCurrency    SettlementStatisticFilterType = "currency"
	SettlementStatisticFilterTypeCourseID    SettlementStatisticFilterType = "course_id"
)

var filterTypes = []SettlementStatisticFilterType{
	SettlementStatisticFilterTypePaymentType,
	SettlementStatisticFilterTypeCurrency,
	SettlementStatisticFilterTypeCourseID,
}

var validFilters = map[SettlementStatisticFilterType][]StatisticType{
	SettlementStatisticFilterTypePaymentType: {StatisticTypeDailyOrderCount, StatisticTypeDailyRevenue},
	SettlementStatisticFilterTypeCurrency:    {StatisticTypeDailyOrderCount, StatisticTypeDailyRevenue, StatisticTypeTotalRevenue},
	SettlementStatisticFilterTypeCourseID:    {StatisticTypeDailyOrderCount, StatisticTypeDailyRevenue},
}

type SettlementStatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type SettlementStatisticRequest struct {
	Filters   []*types.CommonFilter          `json:"filters"`
	DataItems []*SettlementStatisticDataItem `json:"data_items"`
}

func (f *SettlementStatisticRequest) GetFilters(statisticType StatisticType) *SettlementStatisticRequest {
	if f == nil || len(f.Filters) == 0 {
		return f
	}
	var result SettlementStatisticRequest
	for _, filter := range f.Filters {
		if statisticTypes, ok := validFilters[SettlementStatisticFilterType(filter.Field)]; ok {
			if lo.Contains(statisticTypes, statisticType) {
				result.Filters = append(result.Filters, filter)
			}
		} else {
			result.Filters = append(result.Filters, filter)
		}
	}
	return &result
}

// Build composes a WHERE clause from the request filters.
func (f *SettlementStatisticRequest) Build(builder clause.Builder) {
	if f == nil || len(f.Filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	for i, filter := range f.Filters {
		if i > 0 {
			builder.WriteString(" AND ")
		}
		filter.Build(builder)
	}
}

type SettlementStatisticResponseDataItem struct {
	Date  string `json:"date"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type SettlementStatisticResponse struct {
	DataItems map[StatisticType][]SettlementStatisticResponseDataItem `json:"data_items"`
}

// Service provides statistics operations
type Service struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Service { return &Service{db: db} }

// settledOrders scopes order statistics to completed orders that settled real
// money. Back-office free grants carry PaymentMethodAdminGrant and stay out of
// the revenue and order-count series.
func settledOrders(tx *gorm.DB) *gorm.DB {
	return tx.
		Where("status = ?", types.OrderStatusCompleted).
		Where("payment_type != ?", types.PaymentMethodAdminGrant)
}

// SaveSubscriptionDailySnapshot persists a daily snapshot of a user's
// subscription state, feeding the daily_subscription_count series.
func (s *Service) SaveSubscriptionDailySnapshot(ctx context.Context, sub *models.UserSubscription, snapshotDate time.Time) error {
	if sub == nil {
		return fmt.Errorf("nil subscription")
	}
	snap := &models.SubscriptionDailySnapshot{
		ID:           tool.GenerateUUIDV7(),
		UserID:       sub.UserID,
		PlanID:       sub.PlanID,
		Status:       sub.Status,
		EndDate:      lo.ToPtr(sub.EndDate),
		AutoRenew:    sub.AutoRenew,
		Extra:        sub.Extra,
		SnapshotDate: snapshotDate.Format(time.DateOnly),
		CreatedAt:    time.Now(),
	}
	return s.db.WithContext(ctx).Create(snap).Error
}

func (s *Service) getDailyOrderCount(ctx context.Context, request *SettlementStatisticRequest) ([]SettlementStatisticResponseDataItem, error) {
	var results []SettlementStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Order{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, count(*) as value").
		Scopes(settledOrders).
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyOrderCount)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Order("date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// getDailyRevenue sums settled amounts per day, labelled by settlement
// currency. Amounts from different currencies are never mixed in one bucket.
func (s *Service) getDailyRevenue(ctx context.Context, request *SettlementStatisticRequest) ([]SettlementStatisticResponseDataItem, error) {
	var results []SettlementStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.Order{}).TableName()).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') as date, currency AS label, sum(amount) as value").
		Scopes(settledOrders).
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailyRevenue)}}).
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Group("currency").
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalRevenue(ctx context.Context, _ *SettlementStatisticRequest) ([]SettlementStatisticResponseDataItem, error) {
	var results []SettlementStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(DATE(created_at)) as min_date, MAX(DATE(created_at)) as max_date
    FROM orders WHERE status = ? AND payment_type != ?
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
dates AS (
    SELECT TO_CHAR(date, 'YYYY-MM-DD') as date FROM distinct_dates
),
currencies AS (
    SELECT DISTINCT currency as label FROM orders WHERE status = ? AND payment_type != ?
),
date_currency_combinations AS (
    SELECT d.date, c.label FROM dates d CROSS JOIN currencies c
),
revenue_date AS (
    SELECT dc.date, dc.label, COALESCE(SUM(o.amount), 0) as value
    FROM date_currency_combinations dc
    LEFT JOIN orders o
      ON TO_CHAR(o.created_at, 'YYYY-MM-DD') = dc.date
     AND o.currency = dc.label
     AND o.status = ?
     AND o.payment_type != ?
    GROUP BY dc.date, dc.label
)
SELECT d.date as date, d.label as label, SUM(s.value) as value
FROM revenue_date d
LEFT JOIN revenue_date s ON s.date <= d.date AND s.label = d.label
GROUP BY d.date, d.label
ORDER BY d.date DESC, d.label ASC
`,
		types.OrderStatusCompleted, types.PaymentMethodAdminGrant,
		types.OrderStatusCompleted, types.PaymentMethodAdminGrant,
		types.OrderStatusCompleted, types.PaymentMethodAdminGrant,
	).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailySubscriptionCount(ctx context.Context, request *SettlementStatisticRequest) ([]SettlementStatisticResponseDataItem, error) {
	var results []SettlementStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.SubscriptionDailySnapshot{}).TableName()).
		Select("snapshot_date as date, count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeDailySubscriptionCount)}}).
		Group("snapshot_date").
		Order("snapshot_date")
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyNewSubscriptionCount(ctx context.Context, _ *SettlementStatisticRequest) ([]SettlementStatisticResponseDataItem, error) {
	var results []SettlementStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH distinct_dates AS (
    SELECT DISTINCT DATE(created_at) as date FROM user_subscription ORDER BY date
),
user_id_date AS (
    SELECT user_id, DATE(created_at) as date FROM user_subscription
)
SELECT d.date, COUNT(DISTINCT s.user_id) as value
FROM distinct_dates d
JOIN user_id_date s ON s.date = d.date
GROUP BY d.date
ORDER BY d.date DESC
`).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getTotalSubscriptionCount(ctx context.Context, request *SettlementStatisticRequest) ([]SettlementStatisticResponseDataItem, error) {
	var results []SettlementStatisticResponseDataItem
	q := s.db.WithContext(ctx).Table((models.UserSubscription{}).TableName()).
		Select("count(*) as value").
		Where(clause.Where{Exprs: []clause.Expression{request.GetFilters(StatisticTypeTotalSubscriptionCount)}}).
		Where("status = ?", types.SubscriptionStatusActive).
		Where("end_date >= ?", time.Now())
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getDailyAccumulatedSubscriptionCount(ctx context.Context, _ *SettlementStatisticRequest) ([]SettlementStatisticResponseDataItem, error) {
	var results []SettlementStatisticResponseDataItem
	err := s.db.WithContext(ctx).Raw(`
WITH min_max_dates AS (
    SELECT MIN(DATE(created_at)) as min_date, MAX(DATE(created_at)) as max_date FROM user_subscription
),
distinct_dates AS (
    SELECT generate_series(min_date, max_date, '1 day'::interval) as date FROM min_max_dates
),
user_id_date AS (
    SELECT user_id, DATE(created_at) as date FROM user_subscription
)
SELECT TO_CHAR(d.date, 'YYYY-MM-DD') as date, COUNT(DISTINCT s.user_id) as value
FROM distinct_dates d
LEFT JOIN user_id_date s ON s.date <= d.date
GROUP BY d.date
ORDER BY d.date DESC
`).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) getSettlementStatistic(ctx context.Context, request *SettlementStatisticRequest, dataItem *SettlementStatisticDataItem) ([]SettlementStatisticResponseDataItem, error) {
	switch dataItem.ID {
	case StatisticTypeDailyOrderCount:
		return s.getDailyOrderCount(ctx, request)
	case StatisticTypeDailyRevenue:
		return s.getDailyRevenue(ctx, request)
	case StatisticTypeTotalRevenue:
		return s.getTotalRevenue(ctx, request)
	case StatisticTypeDailySubscriptionCount:
		return s.getDailySubscriptionCount(ctx, request)
	case StatisticTypeDailyNewSubscriptionCount:
		return s.getDailyNewSubscriptionCount(ctx, request)
	case StatisticTypeTotalSubscriptionCount:
		return s.getTotalSubscriptionCount(ctx, request)
	case StatisticTypeDailyAccumulatedSubscriptionCount:
		return s.getDailyAccumulatedSubscriptionCount(ctx, request)
	default:
		return nil, fmt.Errorf("invalid data item id: %s", dataItem.ID)
	}
}

// GetSettlementStatistic fans the requested data items out in parallel and
// assembles the response map. The first query error wins.
func (s *Service) GetSettlementStatistic(ctx context.Context, request *SettlementStatisticRequest) (*SettlementStatisticResponse, error) {
	var wg sync.WaitGroup
	errChan := make(chan error, len(request.DataItems))
	resChan := make(chan *lo.Entry[StatisticType, []SettlementStatisticResponseDataItem], len(request.DataItems))

	for _, item := range request.DataItems {
		wg.Add(1)
		go func(di *SettlementStatisticDataItem) {
			defer wg.Done()
			// check filter applicability
			for _, filter := range request.Filters {
				ft := SettlementStatisticFilterType(filter.Field)
				if lo.Contains(filterTypes, ft) && !lo.Contains(validFilters[ft], di.ID) {
					resChan <- &lo.Entry[StatisticType, []SettlementStatisticResponseDataItem]{Key: di.ID, Value: nil}
					return
				}
			}
			res, err := s.getSettlementStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []SettlementStatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	go func() { wg.Wait(); close(errChan); close(resChan) }()

	// Both channels are buffered to len(DataItems), so every send completes
	// before the close. Drain the results fully, then report the first error;
	// selecting across both channels can read a closed errChan's zero value
	// instead of a pending result and drop data items.
	results := make(map[StatisticType][]SettlementStatisticResponseDataItem)
	for entry := range resChan {
		results[entry.Key] = entry.Value
	}
	if err := <-errChan; err != nil {
		return nil, err
	}
	return &SettlementStatisticResponse{DataItems: results}, nil
}
