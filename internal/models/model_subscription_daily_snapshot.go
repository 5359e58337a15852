package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/coursemint/settlement/pkg/types"
)

// SubscriptionDailySnapshot is a daily user subscription snapshot for the
// admin dashboard's time-series charts.
type SubscriptionDailySnapshot struct {
	ID           string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID       string                   `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:idx_user_id_snapshot_date,priority:1" json:"user_id"`
	PlanID       string                   `gorm:"column:plan_id;type:uuid" json:"plan_id"`
	Status       types.SubscriptionStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	EndDate      *time.Time               `gorm:"column:end_date;default:null" json:"end_date"`
	AutoRenew    bool                     `gorm:"column:auto_renew" json:"auto_renew"`
	Extra        datatypes.JSONMap        `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	SnapshotDate string                   `gorm:"column:snapshot_date;uniqueIndex:idx_user_id_snapshot_date,priority:2" json:"snapshot_date"`
	CreatedAt    time.Time                `json:"created_at"`
}

func (SubscriptionDailySnapshot) TableName() string {
	return "subscription_daily_snapshot"
}
