package models

import "time"

// ProcessState is a small persisted key-value record for externally visible
// process flags, e.g. "repair X already ran" markers written by the
// diagnostics utility.
type ProcessState struct {
	Key       string    `gorm:"column:key;primary_key;type:varchar(128)" json:"key"`
	Value     string    `gorm:"column:value;type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProcessState) TableName() string { return "process_state" }
