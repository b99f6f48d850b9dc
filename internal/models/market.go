package models

import (
	"time"
)

// Placeholder result values stored until an admin enters the declared numbers.
const (
	PlaceholderPanna = "***"
	PlaceholderJodi  = "**"
)

// Daily window states. "Upcomming" keeps the spelling clients already match on.
const (
	WindowUpcoming = "Upcomming"
	WindowOpened   = "Opened"
	WindowClosed   = "Closed"
)

type Market struct {
	ID   string `gorm:"primaryKey;type:varchar(36)"`
	Name string `gorm:"type:varchar(160);not null;uniqueIndex"`

	// Declared outcome triple: open panna, jodi, close panna.
	OpenPanna  string `gorm:"type:varchar(8);not null;default:'***'"`
	Jodi       string `gorm:"type:varchar(8);not null;default:'**'"`
	ClosePanna string `gorm:"type:varchar(8);not null;default:'***'"`

	// Only the time-of-day of StartAt/EndAt is meaningful; the market opens every day.
	StartAt time.Time `gorm:"type:timestamptz;not null"`
	EndAt   time.Time `gorm:"type:timestamptz;not null"`

	IsActive   bool       `gorm:"not null;default:true;index"`
	IsDeclared bool       `gorm:"not null;default:false;index"`
	DeclaredAt *time.Time `gorm:"type:timestamptz"`

	CreatedBy string    `gorm:"type:varchar(120)"`
	UpdatedBy string    `gorm:"type:varchar(120)"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Market) TableName() string {
	return "markets"
}

// WindowState reports where now falls relative to the market's daily window.
// Times are compared as minutes since midnight in now's location.
func (m Market) WindowState(now time.Time) string {
	loc := now.Location()
	nowMin := minuteOfDay(now)
	startMin := minuteOfDay(m.StartAt.In(loc))
	endMin := minuteOfDay(m.EndAt.In(loc))
	switch {
	case nowMin < startMin:
		return WindowUpcoming
	case nowMin > endMin:
		return WindowClosed
	default:
		return WindowOpened
	}
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
