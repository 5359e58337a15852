package eventlog

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/coursemint/settlement/internal/models"
	"github.com/coursemint/settlement/pkg/logctx"
	"github.com/coursemint/settlement/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

// Save asynchronously persists a settlement event log. Nil input is ignored;
// a failed write is logged, never surfaced.
func (s *Service) Save(ctx context.Context, entry *models.SettlementEventLog) {
	go func() {
		if entry == nil {
			return
		}
		if entry.ID == "" {
			entry.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.Save(entry).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save settlement event log: %v", err)
		}
	}()
}

// ListByOrderNumber returns the event trail for one order, oldest first.
// Used by the back office when chasing a partial failure.
func (s *Service) ListByOrderNumber(ctx context.Context, orderNumber string) ([]*models.SettlementEventLog, error) {
	var entries []*models.SettlementEventLog
	err := s.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		Order("created_at asc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Module exposes the settlement event log service via Fx.
var Module = fx.Options(
	fx.Provide(New),
)
