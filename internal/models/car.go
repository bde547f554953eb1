package models

import "time"

// Car is a single piece of rolling stock. Location and the
// sessions-at-location counter are mutated only by switch-list assignment,
// train completion, and session rollback.
type Car struct {
	ID                 string `gorm:"primaryKey;size:32"` // e.g. "ATSF-12345"
	ReportingMarks     string `gorm:"size:8;not null"`
	Number             string `gorm:"size:8;not null"`
	CarTypeID          string `gorm:"size:8;not null;index"`
	CurrentIndustryID  string `gorm:"size:32;index"`
	HomeYardID         string `gorm:"size:32"`
	InService          bool   `gorm:"default:true;index"`
	SessionsAtLocation int    `gorm:"default:0"`
	LastMoved          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	CarType         CarType  `gorm:"foreignKey:CarTypeID"`
	CurrentIndustry Industry `gorm:"foreignKey:CurrentIndustryID"`
}
