package models

import (
	"time"

	"gorm.io/datatypes"
)

type SettlementEventLogStatus string

const (
	SettlementEventLogStatusReceived     SettlementEventLogStatus = "received"
	SettlementEventLogStatusHandled      SettlementEventLogStatus = "handled"
	SettlementEventLogStatusHandleFailed SettlementEventLogStatus = "handle_failed"
)

// SettlementEventLog records every settlement request received and its outcome.
// Use case: troubleshooting partial failures that the pipeline swallowed.
type SettlementEventLog struct {
	ID          string                   `gorm:"column:id;type:uuid;primary_key" json:"id"`
	UserID      *string                  `gorm:"column:user_id;type:varchar(64)" json:"user_id"`
	TraceID     string                   `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	OrderNumber string                   `gorm:"column:order_number;type:varchar(64);index" json:"order_number"`
	EventTime   time.Time                `gorm:"column:event_time" json:"event_time"`
	Data        datatypes.JSON           `gorm:"column:data;type:jsonb" json:"data"`
	Result      *datatypes.JSON          `gorm:"column:result;type:jsonb" json:"result"`
	Status      SettlementEventLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

func (SettlementEventLog) TableName() string { return "settlement_event_log" }
