package models

// Locomotive is a powered unit assignable to at most one active train.
type Locomotive struct {
	ID         string `gorm:"primaryKey;size:32"`
	RoadNumber string `gorm:"size:16;not null"`
	DCCAddress int    `gorm:"uniqueIndex"`
	InService  bool   `gorm:"default:true"`
}
