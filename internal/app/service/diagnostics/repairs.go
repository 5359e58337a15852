package diagnostics

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/coursemint/settlement/internal/app/service/access"
)

// OrphanedAccessRepair closes the gap the best-effort access grant leaves
// behind: completed course orders whose grant write failed at settlement time.
type OrphanedAccessRepair struct {
	log       *zap.SugaredLogger
	access    *access.Service
	executors []SQLExecutor
}

func NewOrphanedAccessRepair(log *zap.SugaredLogger, acc *access.Service, executors []SQLExecutor) *OrphanedAccessRepair {
	return &OrphanedAccessRepair{log: log, access: acc, executors: executors}
}

func (r *OrphanedAccessRepair) Name() string { return "orphaned_access" }

func (r *OrphanedAccessRepair) Diagnose(ctx context.Context) (string, error) {
	missing, err := r.access.CountMissing(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d completed course orders without an access grant", missing), nil
}

// PrimaryRepair backfills grants in one statement through the privileged
// procedure, falling back to the direct connection.
func (r *OrphanedAccessRepair) PrimaryRepair(ctx context.Context) error {
	return execWithFallback(ctx, r.log, r.executors, `
INSERT INTO course_access (id, user_id, course_id, order_id, purchased_at, created_at)
SELECT gen_random_uuid(), o.user_id, o.course_id, o.id, o.created_at, NOW()
FROM orders o
WHERE o.course_id IS NOT NULL AND o.status = 'completed'
  AND NOT EXISTS (
    SELECT 1 FROM course_access a
    WHERE a.user_id = o.user_id AND a.course_id = o.course_id
  )`)
}

// SecondaryChange re-grants row by row through the service path, catching
// whatever the set-based statement could not insert.
func (r *OrphanedAccessRepair) SecondaryChange(ctx context.Context) error {
	created, err := r.access.RegrantMissing(ctx)
	if err != nil {
		return err
	}
	if created > 0 {
		r.log.Infow("regranted access row by row", "created", created)
	}
	return nil
}

func (r *OrphanedAccessRepair) Verify(ctx context.Context) (bool, string, error) {
	missing, err := r.access.CountMissing(ctx)
	if err != nil {
		return false, "", err
	}
	if missing > 0 {
		return false, fmt.Sprintf("%d course orders still lack an access grant", missing), nil
	}
	return true, "every completed course order has an access grant", nil
}

const ledgerOrderFKName = "fk_subscription_transaction_order"

// LedgerFKRepair enforces the transaction ledger's link to orders. The
// pipeline writes transaction rows without a transaction around the order
// insert, so an order_id can reference a row that never committed; this
// clears such references and installs the foreign key that prevents new ones.
type LedgerFKRepair struct {
	log       *zap.SugaredLogger
	db        *gorm.DB
	executors []SQLExecutor
}

func NewLedgerFKRepair(log *zap.SugaredLogger, db *gorm.DB, executors []SQLExecutor) *LedgerFKRepair {
	return &LedgerFKRepair{log: log, db: db, executors: executors}
}

func (r *LedgerFKRepair) Name() string { return "ledger_order_fk" }

func (r *LedgerFKRepair) countOrphans(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
SELECT COUNT(*) FROM subscription_transaction t
WHERE t.order_id IS NOT NULL
  AND NOT EXISTS (SELECT 1 FROM orders o WHERE o.id = t.order_id)`).Scan(&count).Error
	return count, err
}

func (r *LedgerFKRepair) constraintExists(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
SELECT COUNT(*) FROM information_schema.table_constraints
WHERE table_name = 'subscription_transaction'
  AND constraint_name = ?
  AND constraint_type = 'FOREIGN KEY'`, ledgerOrderFKName).Scan(&count).Error
	return count > 0, err
}

func (r *LedgerFKRepair) Diagnose(ctx context.Context) (string, error) {
	orphans, err := r.countOrphans(ctx)
	if err != nil {
		return "", err
	}
	hasFK, err := r.constraintExists(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d dangling order references, foreign key present: %t", orphans, hasFK), nil
}

// PrimaryRepair clears references the foreign key would reject. order_id is
// nullable traceability, so nulling is safe; the ledger row itself stands.
func (r *LedgerFKRepair) PrimaryRepair(ctx context.Context) error {
	return execWithFallback(ctx, r.log, r.executors, `
UPDATE subscription_transaction t SET order_id = NULL
WHERE t.order_id IS NOT NULL
  AND NOT EXISTS (SELECT 1 FROM orders o WHERE o.id = t.order_id)`)
}

func (r *LedgerFKRepair) SecondaryChange(ctx context.Context) error {
	return execWithFallback(ctx, r.log, r.executors, fmt.Sprintf(`
ALTER TABLE subscription_transaction
DROP CONSTRAINT IF EXISTS %[1]s;
ALTER TABLE subscription_transaction
ADD CONSTRAINT %[1]s FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE SET NULL`, ledgerOrderFKName))
}

func (r *LedgerFKRepair) Verify(ctx context.Context) (bool, string, error) {
	orphans, err := r.countOrphans(ctx)
	if err != nil {
		return false, "", err
	}
	hasFK, err := r.constraintExists(ctx)
	if err != nil {
		return false, "", err
	}
	if orphans > 0 || !hasFK {
		return false, fmt.Sprintf("%d dangling order references remain, foreign key present: %t", orphans, hasFK), nil
	}
	return true, "ledger order references are clean and the foreign key is installed", nil
}
