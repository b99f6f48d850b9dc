package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance is written only through additive increments keyed by customer.
type Balance struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement"`
	CustomerID    string          `gorm:"type:varchar(36);not null;uniqueIndex"`
	BalanceAmount decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Balance) TableName() string {
	return "balances"
}
