package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/coursemint/settlement/pkg/types"
)

// UserSubscription is the user's entitlement window. It is the single mutable
// "current state" projection; history and transactions are append-only facts.
type UserSubscription struct {
	ID     string                   `gorm:"column:id;primary_key;type:uuid" json:"id"`
	UserID string                   `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	PlanID string                   `gorm:"column:plan_id;type:uuid;not null" json:"plan_id"`
	Status types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	// StartDate/EndDate bound the validity window; EndDate is computed from
	// the plan interval with day-of-month clamping.
	StartDate       time.Time         `gorm:"column:start_date;not null" json:"start_date"`
	EndDate         time.Time         `gorm:"column:end_date;not null" json:"end_date"`
	AutoRenew       bool              `gorm:"column:auto_renew;not null;default:true" json:"auto_renew"`
	PaymentMethod   string            `gorm:"column:payment_method;type:varchar(64)" json:"payment_method"`
	LastPaymentDate *time.Time        `gorm:"column:last_payment_date;default:null" json:"last_payment_date"`
	NextPaymentDate *time.Time        `gorm:"column:next_payment_date;default:null" json:"next_payment_date"`
	Extra           datatypes.JSONMap `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (UserSubscription) TableName() string {
	return "user_subscription"
}

func (s *UserSubscription) Valid() bool {
	return s != nil &&
		s.Status == types.SubscriptionStatusActive &&
		s.EndDate.After(time.Now())
}
