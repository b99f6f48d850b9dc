package models

import "time"

type Customer struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	Name         string    `gorm:"type:varchar(120);not null"`
	Mobile       string    `gorm:"type:varchar(20);not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	IsActive     bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Customer) TableName() string {
	return "customers"
}
