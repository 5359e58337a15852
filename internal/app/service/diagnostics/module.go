package diagnostics

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/coursemint/settlement/internal/app/service/access"
)

func newService(log *zap.SugaredLogger, db *gorm.DB, acc *access.Service) *Service {
	executors := []SQLExecutor{NewProcedureExecutor(db), NewRawExecutor(db)}
	return NewService(log, NewMarkers(db),
		NewOrphanedAccessRepair(log, acc, executors),
		NewLedgerFKRepair(log, db, executors),
	)
}

// Module exposes the repair runner via Fx.
var Module = fx.Options(
	fx.Provide(newService),
)
