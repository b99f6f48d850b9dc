package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rating is an odds schedule. A winning stake pays floor(stake / ConvertA * ConvertB).
type Rating struct {
	ID   string `gorm:"primaryKey;type:varchar(36)"`
	Name string `gorm:"type:varchar(120);not null;uniqueIndex"`
	// Type is one of the rating type names understood by the settlement package.
	Type string `gorm:"type:varchar(40);not null;index"`

	ConvertA decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	ConvertB decimal.Decimal `gorm:"type:numeric(20,4);not null"`

	IsActive  bool      `gorm:"not null;default:true;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Rating) TableName() string {
	return "ratings"
}
