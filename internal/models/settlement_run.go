package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	RunTriggerDeclare   = "declare"
	RunTriggerReconcile = "reconcile"
	RunTriggerManual    = "manual"

	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusPartial   = "partial"
	RunStatusAborted   = "aborted"
	RunStatusFailed    = "failed"
)

// SettlementRun records one sweep over a market's pending bets.
type SettlementRun struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	MarketID string `gorm:"type:varchar(36);not null;index"`
	Trigger  string `gorm:"type:varchar(20);not null"`
	Status   string `gorm:"type:varchar(20);not null;index"`

	// Outcome snapshot used for this sweep, e.g. "123 68 459".
	Outcome string `gorm:"type:varchar(32)"`

	Pending    int `gorm:"not null;default:0"`
	Settled    int `gorm:"not null;default:0"`
	Won        int `gorm:"not null;default:0"`
	Lost       int `gorm:"not null;default:0"`
	Unresolved int `gorm:"not null;default:0"`
	Customers  int `gorm:"not null;default:0"`

	// Details holds unresolved bet ids and per-customer deltas.
	Details datatypes.JSON `gorm:"type:jsonb"`
	Error   string         `gorm:"type:text"`

	StartedAt  time.Time  `gorm:"type:timestamptz;not null;index"`
	FinishedAt *time.Time `gorm:"type:timestamptz"`
}

func (SettlementRun) TableName() string {
	return "settlement_runs"
}
