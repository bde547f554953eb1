// Package switchlist builds the ordered pickup/setout plan a train crew
// executes: it walks the train's route, matches pending car orders to
// available cars under the train's capacity, and persists the resulting
// assignments.
package switchlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zulandar/trainops/internal/models"
	"github.com/zulandar/trainops/internal/operr"
	"github.com/zulandar/trainops/internal/order"
	"gorm.io/gorm"
)

// Item is one car movement on a switch list.
type Item struct {
	CarID                   string `json:"carId"`
	ReportingMarks          string `json:"carReportingMarks"`
	CarNumber               string `json:"carNumber"`
	CarType                 string `json:"carType"`
	DestinationIndustryID   string `json:"destinationIndustryId"`
	DestinationIndustryName string `json:"destinationIndustryName"`
	OrderID                 string `json:"orderId,omitempty"`
}

// Stop is the work at one station, in route order.
type Stop struct {
	StationID   string `json:"stationId"`
	StationName string `json:"stationName"`
	Pickups     []Item `json:"pickups"`
	Setouts     []Item `json:"setouts"`
}

// SwitchList is the immutable artifact attached to a train.
type SwitchList struct {
	TrainID       string    `json:"trainId"`
	Stops         []Stop    `json:"stops"`
	TotalPickups  int       `json:"totalPickups"`
	TotalSetouts  int       `json:"totalSetouts"`
	FinalCarCount int       `json:"finalCarCount"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// Decode unmarshals a serialized switch list from a train's SwitchList column.
func Decode(s string) (*SwitchList, error) {
	if s == "" {
		return nil, nil
	}
	var sl SwitchList
	if err := json.Unmarshal([]byte(s), &sl); err != nil {
		return nil, fmt.Errorf("switchlist: decode: %w", err)
	}
	return &sl, nil
}

// match pairs an order with the car chosen to fill it.
type match struct {
	ord       models.CarOrder
	car       models.Car
	pickupIdx int // station index where the car is lifted
	setoutIdx int // station index where the car is spotted
	destID    string
	destName  string
}

// Build generates a switch list for a planned train and persists the
// assignments: matched orders move pending→assigned (recording car and
// train), then the train's assigned-car list and switch list are written.
// Orders are written before the train so a crash part-way leaves assigned
// orders pointing at the train, which is detectable and re-runnable, never
// silently inconsistent. Cars themselves do not move until completion.
//
// The walk is deterministic: stations in route order, industries by ID,
// orders by creation time then ID, cars by ID. perIndustryCap bounds how
// many pending orders one industry contributes to a single build. Callers
// must hold the engine-wide operations lock for the duration of the build
// so two trains cannot reserve the same idle car.
func Build(db *gorm.DB, train *models.Train, perIndustryCap int) (*SwitchList, error) {
	if train.Status != "planned" {
		return nil, operr.Conflictf("train %s is %s; switch lists can only be generated while planned", train.ID, train.Status)
	}
	if perIndustryCap < 1 {
		perIndustryCap = 25
	}

	stations, err := loadRoute(db, train.RouteID)
	if err != nil {
		return nil, err
	}
	if err := checkLocomotives(db, train); err != nil {
		return nil, err
	}

	stationIdx := make(map[string]int, len(stations))
	for i, st := range stations {
		stationIdx[st.ID] = i
	}

	pool, err := availableCars(db, train.ID, stationIdx)
	if err != nil {
		return nil, err
	}

	matches, err := matchOrders(db, train, stations, pool, perIndustryCap)
	if err != nil {
		return nil, err
	}

	sl := assemble(train, stations, matches)

	if err := persist(db, train, sl, matches); err != nil {
		return nil, err
	}
	return sl, nil
}

// loadRoute fetches the route's ordered station sequence.
func loadRoute(db *gorm.DB, routeID string) ([]models.Station, error) {
	var route models.Route
	err := db.Preload("Stops", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	}).Preload("Stops.Station").Where("id = ?", routeID).First(&route).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &operr.NotFound{Kind: "route", ID: routeID}
	}
	if err != nil {
		return nil, fmt.Errorf("switchlist: get route %s: %w", routeID, err)
	}
	if len(route.Stops) < 2 {
		return nil, operr.Validationf("route %s has %d stops; at least 2 are required", routeID, len(route.Stops))
	}
	stations := make([]models.Station, 0, len(route.Stops))
	for _, stop := range route.Stops {
		st := stop.Station
		if st.ID == "" {
			st = models.Station{ID: stop.StationID}
		}
		stations = append(stations, st)
	}
	return stations, nil
}

// checkLocomotives verifies every assigned locomotive exists and is in
// service. Fails fast before any mutation.
func checkLocomotives(db *gorm.DB, train *models.Train) error {
	locoIDs, err := train.Locomotives()
	if err != nil {
		return fmt.Errorf("switchlist: decode locomotives for train %s: %w", train.ID, err)
	}
	if len(locoIDs) == 0 {
		return operr.Validationf("train %s has no locomotives", train.ID)
	}
	for _, id := range locoIDs {
		var loco models.Locomotive
		err := db.Where("id = ?", id).First(&loco).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &operr.NotFound{Kind: "locomotive", ID: id}
		}
		if err != nil {
			return fmt.Errorf("switchlist: get locomotive %s: %w", id, err)
		}
		if !loco.InService {
			return operr.Conflictf("locomotive %s is out of service", id)
		}
	}
	return nil
}

// poolCar is an available car annotated with its position in the walk.
type poolCar struct {
	car        models.Car
	stationIdx int
	committed  bool
}

// availableCars loads the in-service cars eligible for this build: not
// already reserved by an order on another train, not aboard another active
// train, and currently located at a station the route visits.
func availableCars(db *gorm.DB, trainID string, stationIdx map[string]int) ([]*poolCar, error) {
	busy := make(map[string]bool)

	var held []models.CarOrder
	if err := db.Where("status IN ? AND assigned_car_id IS NOT NULL",
		[]string{order.StatusAssigned, order.StatusInTransit}).Find(&held).Error; err != nil {
		return nil, fmt.Errorf("switchlist: list reserved cars: %w", err)
	}
	for _, o := range held {
		busy[*o.AssignedCarID] = true
	}

	var active []models.Train
	if err := db.Where("status IN ? AND id <> ?", []string{"planned", "in_progress"}, trainID).
		Find(&active).Error; err != nil {
		return nil, fmt.Errorf("switchlist: list active trains: %w", err)
	}
	for _, t := range active {
		ids, err := t.Cars()
		if err != nil {
			return nil, fmt.Errorf("switchlist: decode cars for train %s: %w", t.ID, err)
		}
		for _, id := range ids {
			busy[id] = true
		}
	}

	var cars []models.Car
	if err := db.Preload("CurrentIndustry").Where("in_service = ?", true).
		Order("id ASC").Find(&cars).Error; err != nil {
		return nil, fmt.Errorf("switchlist: list cars: %w", err)
	}

	pool := make([]*poolCar, 0, len(cars))
	for _, c := range cars {
		if busy[c.ID] {
			continue
		}
		idx, onRoute := stationIdx[c.CurrentIndustry.StationID]
		if !onRoute {
			continue
		}
		pool = append(pool, &poolCar{car: c, stationIdx: idx})
	}
	return pool, nil
}

// matchOrders walks the route and pairs pending orders with pool cars under
// the capacity invariant. peaks[i] is the on-train count at station i after
// pickups and before setouts; a candidate lift at p spotted at s occupies
// peaks[p..s] and is rejected if any would exceed MaxCapacity.
func matchOrders(db *gorm.DB, train *models.Train,
	stations []models.Station, pool []*poolCar, perIndustryCap int) ([]match, error) {

	peaks := make([]int, len(stations))
	var matches []match

	for i, st := range stations {
		industries, err := industriesAt(db, st.ID)
		if err != nil {
			return nil, err
		}
		for _, ind := range industries {
			orders, err := pendingOrders(db, ind.ID, perIndustryCap)
			if err != nil {
				return nil, err
			}
			for _, ord := range orders {
				pc := pickCar(pool, ord.CarTypeID, i, train.MaxCapacity, peaks)
				if pc == nil {
					continue
				}
				pc.committed = true
				for j := pc.stationIdx; j <= i; j++ {
					peaks[j]++
				}
				matches = append(matches, match{
					ord:       ord,
					car:       pc.car,
					pickupIdx: pc.stationIdx,
					setoutIdx: i,
					destID:    ind.ID,
					destName:  ind.Name,
				})
			}
		}
	}
	return matches, nil
}

// industriesAt returns the industries at a station, ordered by ID.
func industriesAt(db *gorm.DB, stationID string) ([]models.Industry, error) {
	var industries []models.Industry
	if err := db.Where("station_id = ? AND is_yard = ?", stationID, false).
		Order("id ASC").Find(&industries).Error; err != nil {
		return nil, fmt.Errorf("switchlist: list industries at %s: %w", stationID, err)
	}
	return industries, nil
}

// pendingOrders returns up to cap pending orders for an industry, oldest
// first (creation time, then ID, for reproducible output).
func pendingOrders(db *gorm.DB, industryID string, limit int) ([]models.CarOrder, error) {
	var orders []models.CarOrder
	if err := db.Where("industry_id = ? AND status = ?", industryID, order.StatusPending).
		Order("created_at ASC, id ASC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("switchlist: pending orders for %s: %w", industryID, err)
	}
	return orders, nil
}

// pickCar selects the first uncommitted car of the required type whose
// current station lies at or before the setout station, skipping any car
// whose addition would break the capacity invariant anywhere on its leg.
func pickCar(pool []*poolCar, carTypeID string, setoutIdx, maxCapacity int, peaks []int) *poolCar {
	for _, pc := range pool {
		if pc.committed || pc.car.CarTypeID != carTypeID {
			continue
		}
		if pc.stationIdx > setoutIdx {
			continue
		}
		fits := true
		for j := pc.stationIdx; j <= setoutIdx; j++ {
			if peaks[j]+1 > maxCapacity {
				fits = false
				break
			}
		}
		if fits {
			return pc
		}
	}
	return nil
}

// assemble folds the matches into the per-station artifact.
func assemble(train *models.Train, stations []models.Station, matches []match) *SwitchList {
	sl := &SwitchList{
		TrainID:     train.ID,
		GeneratedAt: time.Now().UTC(),
	}

	stops := make([]Stop, len(stations))
	for i, st := range stations {
		stops[i] = Stop{StationID: st.ID, StationName: st.Name}
	}

	for _, m := range matches {
		item := Item{
			CarID:                   m.car.ID,
			ReportingMarks:          m.car.ReportingMarks,
			CarNumber:               m.car.Number,
			CarType:                 m.car.CarTypeID,
			DestinationIndustryID:   m.destID,
			DestinationIndustryName: m.destName,
			OrderID:                 m.ord.ID,
		}
		stops[m.pickupIdx].Pickups = append(stops[m.pickupIdx].Pickups, item)
		stops[m.setoutIdx].Setouts = append(stops[m.setoutIdx].Setouts, item)
		sl.TotalPickups++
		sl.TotalSetouts++
	}
	// Every matched car is spotted by the end of the walk, so the on-train
	// count after the last station is pickups minus setouts.
	sl.FinalCarCount = sl.TotalPickups - sl.TotalSetouts
	sl.Stops = stops
	return sl
}

// persist applies the build's mutations in a fixed order inside one
// transaction: order assignments first, then the train's car list and
// switch list.
func persist(db *gorm.DB, train *models.Train, sl *SwitchList, matches []match) error {
	data, err := json.Marshal(sl)
	if err != nil {
		return fmt.Errorf("switchlist: marshal: %w", err)
	}
	carIDs := make([]string, 0, len(matches))
	for _, m := range matches {
		carIDs = append(carIDs, m.car.ID)
	}
	sort.Strings(carIDs)
	carList, err := models.EncodeIDList(carIDs)
	if err != nil {
		return fmt.Errorf("switchlist: encode car list: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, m := range matches {
			if err := order.Assign(tx, m.ord.ID, m.car.ID, train.ID); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Train{}).Where("id = ?", train.ID).Updates(map[string]interface{}{
			"assigned_car_ids": carList,
			"switch_list":      string(data),
		}).Error; err != nil {
			return fmt.Errorf("switchlist: attach to train %s: %w", train.ID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	train.AssignedCarIDs = carList
	train.SwitchList = string(data)
	return nil
}
