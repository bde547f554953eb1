package models

// Industry is a customer location (or yard) that cars are spotted at.
// Yards accept any car type and anchor route endpoints.
type Industry struct {
	ID        string `gorm:"primaryKey;size:32"`
	Name      string `gorm:"size:64;not null"`
	StationID string `gorm:"size:32;not null;index"`
	IsYard    bool   `gorm:"default:false"`
	OnLayout  bool   `gorm:"default:true"`

	Station     Station      `gorm:"foreignKey:StationID"`
	DemandRules []DemandRule `gorm:"foreignKey:IndustryID"`
}

// DemandRule describes a recurring car demand for one industry. No two
// rules on the same industry may share a (commodity, direction) pair.
type DemandRule struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	IndustryID      string `gorm:"size:32;not null;uniqueIndex:idx_industry_commodity_dir,priority:1"`
	CommodityID     string `gorm:"size:32;not null;uniqueIndex:idx_industry_commodity_dir,priority:2"`
	Direction       string `gorm:"size:8;not null;uniqueIndex:idx_industry_commodity_dir,priority:3"` // "inbound" or "outbound"
	CompatibleTypes string `gorm:"type:json"`                                                        // JSON array of CarType IDs
	CarsPerSession  int    `gorm:"default:1"`
	Frequency       int    `gorm:"default:1"`
	Position        int    `gorm:"default:0"` // ordering within the industry's rule list
}
