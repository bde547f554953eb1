package models

// Station is a named location on the layout that a route can visit.
type Station struct {
	ID   string `gorm:"primaryKey;size:32"`
	Name string `gorm:"size:64;not null;uniqueIndex"`
}

// CarType is an AAR classification (e.g. XM boxcar, FM flatcar).
type CarType struct {
	ID   string `gorm:"primaryKey;size:8"`
	Name string `gorm:"size:64;not null"`
}

// Commodity is a good an industry ships or receives.
type Commodity struct {
	ID   string `gorm:"primaryKey;size:32"`
	Name string `gorm:"size:64;not null"`
}
