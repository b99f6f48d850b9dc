package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BetPending = "Pending"
	BetWin     = "win"
	BetLoss    = "loss"
)

type Betting struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	CustomerID string `gorm:"type:varchar(36);not null;index"`
	MarketID   string `gorm:"type:varchar(36);not null;index:idx_bettings_market_result,priority:1"`
	RatingID   string `gorm:"type:varchar(36);not null;index"`

	ChosenNumber string          `gorm:"column:choosen_number;type:varchar(16);not null"`
	Amount       decimal.Decimal `gorm:"type:numeric(20,2);not null"`

	Result        string     `gorm:"column:customer_betting_result;type:varchar(10);not null;default:'Pending';index:idx_bettings_market_result,priority:2"`
	OpeningResult string     `gorm:"type:varchar(32);not null;default:'0'"`
	SettledAt     *time.Time `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Betting) TableName() string {
	return "bettings"
}
