package models

import "time"

// CarOrder is a request from an industry for a car of a given type in a
// given session. Status transitions follow the order state machine;
// delivered is terminal.
type CarOrder struct {
	ID              string  `gorm:"primaryKey;size:32"`
	IndustryID      string  `gorm:"size:32;not null;index"`
	CarTypeID       string  `gorm:"size:8;not null;index"`
	CommodityID     string  `gorm:"size:32"`
	Direction       string  `gorm:"size:8"`
	SessionNumber   int     `gorm:"not null;index"`
	Status          string  `gorm:"size:16;default:pending;index"` // pending, assigned, in_transit, delivered
	AssignedCarID   *string `gorm:"size:32"`
	AssignedTrainID *string `gorm:"size:32"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Industry Industry `gorm:"foreignKey:IndustryID"`
	CarType  CarType  `gorm:"foreignKey:CarTypeID"`
}
