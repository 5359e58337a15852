package diagnostics

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SQLExecutor is one transport for running corrective SQL against the store.
// Executors are tried in order; the privileged procedure first, then the
// direct connection when the procedure is unavailable.
type SQLExecutor interface {
	Name() string
	Exec(ctx context.Context, sql string) error
}

// ProcedureExecutor routes statements through the privileged exec_admin_sql
// procedure, which runs with elevated rights the service connection lacks.
type ProcedureExecutor struct {
	db *gorm.DB
}

func NewProcedureExecutor(db *gorm.DB) *ProcedureExecutor { return &ProcedureExecutor{db: db} }

func (e *ProcedureExecutor) Name() string { return "procedure" }

func (e *ProcedureExecutor) Exec(ctx context.Context, sql string) error {
	return e.db.WithContext(ctx).Exec("SELECT exec_admin_sql(?)", sql).Error
}

// RawExecutor runs the statement directly on the service connection.
type RawExecutor struct {
	db *gorm.DB
}

func NewRawExecutor(db *gorm.DB) *RawExecutor { return &RawExecutor{db: db} }

func (e *RawExecutor) Name() string { return "raw" }

func (e *RawExecutor) Exec(ctx context.Context, sql string) error {
	return e.db.WithContext(ctx).Exec(sql).Error
}

// execWithFallback tries each executor in order and returns nil on the first
// success. Individual transport failures are logged; only exhausting the
// whole list is an error.
func execWithFallback(ctx context.Context, log *zap.SugaredLogger, executors []SQLExecutor, sql string) error {
	var lastErr error
	for _, ex := range executors {
		if err := ex.Exec(ctx, sql); err != nil {
			log.Warnw("executor failed, trying next", "executor", ex.Name(), "err", err)
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		return fmt.Errorf("no executors configured")
	}
	return fmt.Errorf("all executors failed: %w", lastErr)
}
