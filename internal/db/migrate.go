package db

import (
	"encoding/json"
	"fmt"

	"github.com/zulandar/trainops/internal/config"
	"github.com/zulandar/trainops/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllModels returns the list of all GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.Station{},
		&models.CarType{},
		&models.Commodity{},
		&models.Industry{},
		&models.DemandRule{},
		&models.Car{},
		&models.Locomotive{},
		&models.Route{},
		&models.RouteStop{},
		&models.Train{},
		&models.CarOrder{},
		&models.OperatingSession{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}

// SeedLayout upserts reference data from a layout file: stations, car
// types, commodities, industries with their demand rules, routes,
// locomotives, and cars. Seeding is idempotent; car location and counter
// fields are only written on first insert so re-seeding never clobbers
// operating state.
func SeedLayout(db *gorm.DB, l *config.Layout) error {
	for _, sc := range l.Stations {
		s := models.Station{ID: sc.ID, Name: sc.Name}
		if err := upsert(db, &s, "id", []string{"name"}); err != nil {
			return fmt.Errorf("db: seed station %q: %w", sc.ID, err)
		}
	}

	for _, tc := range l.CarTypes {
		t := models.CarType{ID: tc.ID, Name: tc.Name}
		if err := upsert(db, &t, "id", []string{"name"}); err != nil {
			return fmt.Errorf("db: seed car type %q: %w", tc.ID, err)
		}
	}

	for _, cc := range l.Commodities {
		c := models.Commodity{ID: cc.ID, Name: cc.Name}
		if err := upsert(db, &c, "id", []string{"name"}); err != nil {
			return fmt.Errorf("db: seed commodity %q: %w", cc.ID, err)
		}
	}

	for _, ic := range l.Industries {
		ind := models.Industry{
			ID:        ic.ID,
			Name:      ic.Name,
			StationID: ic.Station,
			IsYard:    ic.Yard,
			OnLayout:  !ic.OffLayout,
		}
		if err := upsert(db, &ind, "id", []string{"name", "station_id", "is_yard", "on_layout"}); err != nil {
			return fmt.Errorf("db: seed industry %q: %w", ic.ID, err)
		}
		if err := seedDemands(db, ic); err != nil {
			return err
		}
	}

	for _, rc := range l.Routes {
		if err := seedRoute(db, rc); err != nil {
			return err
		}
	}

	for _, lc := range l.Locomotives {
		loco := models.Locomotive{
			ID:         lc.ID,
			RoadNumber: lc.RoadNumber,
			DCCAddress: lc.DCCAddress,
			InService:  true,
		}
		if err := upsert(db, &loco, "id", []string{"road_number", "dcc_address"}); err != nil {
			return fmt.Errorf("db: seed locomotive %q: %w", lc.ID, err)
		}
	}

	for _, cc := range l.Cars {
		car := models.Car{
			ID:                cc.CarID(),
			ReportingMarks:    cc.Marks,
			Number:            cc.Number,
			CarTypeID:         cc.Type,
			CurrentIndustryID: cc.Location,
			HomeYardID:        cc.HomeYard,
			InService:         true,
		}
		// Location fields stay untouched on conflict.
		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"reporting_marks", "number", "car_type_id", "home_yard_id"}),
		}).Create(&car)
		if result.Error != nil {
			return fmt.Errorf("db: seed car %q: %w", car.ID, result.Error)
		}
	}

	return nil
}

// seedDemands replaces an industry's demand-rule list with the configured
// rules, preserving file order in Position.
func seedDemands(db *gorm.DB, ic config.IndustryConfig) error {
	if err := db.Where("industry_id = ?", ic.ID).Delete(&models.DemandRule{}).Error; err != nil {
		return fmt.Errorf("db: clear demands for %q: %w", ic.ID, err)
	}
	for pos, dc := range ic.Demands {
		types, err := json.Marshal(dc.CarTypes)
		if err != nil {
			return fmt.Errorf("db: marshal car types for %q: %w", ic.ID, err)
		}
		rule := models.DemandRule{
			IndustryID:      ic.ID,
			CommodityID:     dc.Commodity,
			Direction:       dc.Direction,
			CompatibleTypes: string(types),
			CarsPerSession:  dc.CarsPerSession,
			Frequency:       dc.Frequency,
			Position:        pos,
		}
		if err := db.Create(&rule).Error; err != nil {
			return fmt.Errorf("db: seed demand %s/%s for %q: %w", dc.Commodity, dc.Direction, ic.ID, err)
		}
	}
	return nil
}

// seedRoute upserts a route and replaces its stop sequence.
func seedRoute(db *gorm.DB, rc config.RouteConfig) error {
	route := models.Route{
		ID:                rc.ID,
		Name:              rc.Name,
		OriginYardID:      rc.OriginYard,
		TerminationYardID: rc.TerminationYard,
	}
	if err := upsert(db, &route, "id", []string{"name", "origin_yard_id", "termination_yard_id"}); err != nil {
		return fmt.Errorf("db: seed route %q: %w", rc.ID, err)
	}
	if err := db.Where("route_id = ?", rc.ID).Delete(&models.RouteStop{}).Error; err != nil {
		return fmt.Errorf("db: clear stops for route %q: %w", rc.ID, err)
	}
	for pos, st := range rc.Stations {
		stop := models.RouteStop{RouteID: rc.ID, StationID: st, Position: pos}
		if err := db.Create(&stop).Error; err != nil {
			return fmt.Errorf("db: seed stop %q for route %q: %w", st, rc.ID, err)
		}
	}
	return nil
}

// upsert creates the value or updates the named columns on key conflict.
func upsert(db *gorm.DB, value interface{}, conflictCol string, updateCols []string) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: conflictCol}},
		DoUpdates: clause.AssignmentColumns(updateCols),
	}).Create(value).Error
}
