package models

import (
	"time"

	"github.com/coursemint/settlement/pkg/types"
)

// SubscriptionTransaction is an append-only ledger entry per payment or refund
// tied to a subscription and optionally an order. Only Status is ever updated.
type SubscriptionTransaction struct {
	ID             string                        `gorm:"column:id;primary_key;type:uuid" json:"id"`
	SubscriptionID string                        `gorm:"column:subscription_id;type:uuid;not null;index" json:"subscription_id"`
	OrderID        *string                       `gorm:"column:order_id;type:uuid;index" json:"order_id"`
	UserID         string                        `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Type           types.LedgerTransactionType   `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Amount         float64                       `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	Currency       string                        `gorm:"column:currency;type:varchar(8);not null" json:"currency"`
	PaymentMethod  string                        `gorm:"column:payment_method;type:varchar(64)" json:"payment_method"`
	Status         types.LedgerTransactionStatus `gorm:"column:status;type:varchar(16);not null" json:"status"`
	CreatedAt      time.Time                     `json:"created_at"`
	UpdatedAt      time.Time                     `json:"updated_at"`
}

func (SubscriptionTransaction) TableName() string {
	return "subscription_transaction"
}
