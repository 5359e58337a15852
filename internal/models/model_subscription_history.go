package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/coursemint/settlement/pkg/types"
)

// SubscriptionHistory is an append-only ledger entry per subscription state
// change. Never mutated or deleted.
type SubscriptionHistory struct {
	ID             string                       `gorm:"column:id;primary_key;type:uuid;index:idx_history_user_id,priority:2,sort:desc" json:"id"`
	UserID         string                       `gorm:"column:user_id;type:varchar(64);not null;index:idx_history_user_id,priority:1" json:"user_id"`
	SubscriptionID string                       `gorm:"column:subscription_id;type:uuid;not null;index" json:"subscription_id"`
	ChangeType     types.SubscriptionChangeType `gorm:"column:change_type;type:varchar(32);not null" json:"change_type"`
	PreviousPlanID *string                      `gorm:"column:previous_plan_id;type:uuid" json:"previous_plan_id"`
	NewPlanID      *string                      `gorm:"column:new_plan_id;type:uuid" json:"new_plan_id"`
	Amount         float64                      `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency       string                       `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	EffectiveDate  time.Time                    `gorm:"column:effective_date;not null" json:"effective_date"`
	Extra          datatypes.JSONMap            `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt      time.Time                    `json:"created_at"`
}

func (SubscriptionHistory) TableName() string {
	return "subscription_history"
}
