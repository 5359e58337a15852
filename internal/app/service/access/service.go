package access

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/coursemint/settlement/internal/models"
	"github.com/coursemint/settlement/pkg/tool"
	"github.com/coursemint/settlement/pkg/types"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewService(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// Grant gives the user standing access to a course. Duplicates are tolerated;
// access is presence-based, not counted, so a second grant row changes nothing.
func (s *Service) Grant(ctx context.Context, userID, courseID string, orderID *string, purchasedAt time.Time) error {
	if userID == "" || courseID == "" {
		return fmt.Errorf("invalid params: userID and courseID required")
	}
	grant := &models.CourseAccess{
		ID:          tool.GenerateUUIDV7(),
		UserID:      userID,
		CourseID:    courseID,
		OrderID:     orderID,
		PurchasedAt: purchasedAt,
	}
	if err := s.db.WithContext(ctx).Create(grant).Error; err != nil {
		return fmt.Errorf("failed to create course access grant: %w", err)
	}
	return nil
}

// HasAccess reports whether at least one grant row exists for (user, course).
func (s *Service) HasAccess(ctx context.Context, userID, courseID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.CourseAccess{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByUser returns all grants for the learner dashboard.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*models.CourseAccess, error) {
	var grants []*models.CourseAccess
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("purchased_at desc").Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// RegrantMissing re-creates access grants for completed course orders that
// lack one. Access grants are best-effort at settlement time, so a failed
// grant leaves a completed order without access; this closes the gap.
// Returns the number of grants created.
func (s *Service) RegrantMissing(ctx context.Context) (int, error) {
	var orphans []*models.Order
	err := s.db.WithContext(ctx).
		Where("course_id IS NOT NULL AND status = ?", types.OrderStatusCompleted).
		Where("NOT EXISTS (SELECT 1 FROM course_access a WHERE a.user_id = orders.user_id AND a.course_id = orders.course_id)").
		Find(&orphans).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find orders without access: %w", err)
	}

	created := 0
	for _, ord := range orphans {
		if err := s.Grant(ctx, ord.UserID, *ord.CourseID, &ord.ID, ord.CreatedAt); err != nil {
			s.log.Errorw("regrant failed", "order_number", ord.OrderNumber, "err", err)
			continue
		}
		created++
	}
	return created, nil
}

// CountMissing reports how many completed course orders have no access grant.
func (s *Service) CountMissing(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("course_id IS NOT NULL AND status = ?", types.OrderStatusCompleted).
		Where("NOT EXISTS (SELECT 1 FROM course_access a WHERE a.user_id = orders.user_id AND a.course_id = orders.course_id)").
		Count(&count).Error
	return count, err
}
