package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-cartfee/pkg/enums"
)

// FeeAdjustment records one fee line mutation applied to a session's cart.
type FeeAdjustment struct {
	ID                  uuid.UUID              `gorm:"column:id;primaryKey" json:"id"`
	SessionID           string                 `gorm:"column:session_id;not null" json:"session_id"`
	Source              enums.AdjustmentSource `gorm:"column:source;not null" json:"source"`
	Action              enums.FeeAction        `gorm:"column:action;not null" json:"action"`
	Trigger             string                 `gorm:"column:trigger_kind" json:"trigger,omitempty"`
	LineKey             string                 `gorm:"column:line_key" json:"line_key,omitempty"`
	AmountMinor         int64                  `gorm:"column:amount_minor;not null" json:"amount_minor"`
	PreviousAmountMinor int64                  `gorm:"column:previous_amount_minor;not null" json:"previous_amount_minor"`
	SubtotalMinor       int64                  `gorm:"column:subtotal_minor;not null" json:"subtotal_minor"`
	CreatedAt           time.Time              `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName pins the table created by the goose migration.
func (FeeAdjustment) TableName() string {
	return "fee_adjustments"
}
