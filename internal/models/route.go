package models

// Route is an ordered station sequence a train runs, anchored by yards.
type Route struct {
	ID                string `gorm:"primaryKey;size:32"`
	Name              string `gorm:"size:64;not null;uniqueIndex"`
	OriginYardID      string `gorm:"size:32;not null"`
	TerminationYardID string `gorm:"size:32;not null"`

	Stops []RouteStop `gorm:"foreignKey:RouteID"`
}

// RouteStop is one station visit within a route, ordered by Position.
type RouteStop struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	RouteID   string `gorm:"size:32;not null;index"`
	StationID string `gorm:"size:32;not null"`
	Position  int    `gorm:"not null"`

	Station Station `gorm:"foreignKey:StationID"`
}
