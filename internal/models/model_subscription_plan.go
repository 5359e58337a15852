package models

import (
	"time"

	"github.com/coursemint/settlement/pkg/types"
)

// SubscriptionPlan is a catalog entry keyed by renewal interval. Lookup picks
// the active plan with the lowest display_order for an interval; created_at
// breaks remaining ties.
type SubscriptionPlan struct {
	ID           string             `gorm:"column:id;primary_key;type:uuid" json:"id"`
	Name         string             `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Interval     types.PlanInterval `gorm:"column:interval;type:varchar(16);not null;index" json:"interval"`
	Price        float64            `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Currency     string             `gorm:"column:currency;type:varchar(8);not null;default:'usd'" json:"currency"`
	IsActive     bool               `gorm:"column:is_active;not null;default:true" json:"is_active"`
	DisplayOrder int                `gorm:"column:display_order;not null;default:0" json:"display_order"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func (SubscriptionPlan) TableName() string {
	return "subscription_plan"
}
