package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/coursemint/settlement/pkg/types"
)

// Order is the persisted record of a single payment event, for a course or a
// subscription. Immutable once written except for status transitions.
type Order struct {
	ID       string  `gorm:"column:id;primary_key;type:uuid;index:idx_order_user_id,priority:2,sort:desc" json:"id"`
	UserID   string  `gorm:"column:user_id;type:varchar(64);not null;index:idx_order_user_id,priority:1" json:"user_id"`
	CourseID *string `gorm:"column:course_id;type:varchar(64)" json:"course_id"`
	// Amount is the settled amount in Currency.
	Amount float64 `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	// Currency is the settlement currency, lowercase ISO code. Never empty.
	Currency string `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	// OriginalAmount/OriginalCurrency are what was quoted to the user before
	// normalization. OriginalCurrency is never empty.
	OriginalAmount   float64           `gorm:"column:original_amount;type:numeric(12,2);not null" json:"original_amount"`
	OriginalCurrency string            `gorm:"column:original_currency;type:varchar(8);not null" json:"original_currency"`
	ExchangeRate     float64           `gorm:"column:exchange_rate;type:numeric(12,6);not null;default:1.0" json:"exchange_rate"`
	PaymentType      string            `gorm:"column:payment_type;type:varchar(64);not null" json:"payment_type"`
	Status           types.OrderStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	OrderNumber      string            `gorm:"column:order_number;type:varchar(64);not null;uniqueIndex" json:"order_number"`
	Extra            datatypes.JSONMap `gorm:"column:extra;type:jsonb;default:'{}'" json:"extra"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// Product decodes what this order pays for.
func (o *Order) Product() types.Product {
	return types.DecodeProduct(o.PaymentType, o.CourseID)
}
