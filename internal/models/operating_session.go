package models

import "time"

// OperatingSession is the singleton session document. Exactly one row
// exists after initialization; PreviousSnapshot is the serialized
// point-in-time state captured by the most recent advance, empty at
// session 1 or after a rollback consumes it.
type OperatingSession struct {
	ID               uint   `gorm:"primaryKey"` // always 1
	CurrentSession   int    `gorm:"not null;default:1"`
	SessionDate      time.Time
	Description      string `gorm:"type:text"`
	PreviousSnapshot string `gorm:"type:json"`
	UpdatedAt        time.Time
}
