package dashboard

import (
	"fmt"
	"time"

	"github.com/zulandar/trainops/internal/models"
	"github.com/zulandar/trainops/internal/session"
	"github.com/zulandar/trainops/internal/switchlist"
	"github.com/zulandar/trainops/internal/train"
	"gorm.io/gorm"
)

// SessionView is the current operating session as shown on the dashboard.
type SessionView struct {
	SessionNumber int       `json:"sessionNumber"`
	SessionDate   time.Time `json:"sessionDate"`
	Description   string    `json:"description"`
	CanRollback   bool      `json:"canRollback"`
}

func sessionView(db *gorm.DB) (*SessionView, error) {
	sess, err := session.Current(db)
	if err != nil {
		return nil, err
	}
	return &SessionView{
		SessionNumber: sess.CurrentSession,
		SessionDate:   sess.SessionDate,
		Description:   sess.Description,
		CanRollback:   sess.CurrentSession > 1 && sess.PreviousSnapshot != "",
	}, nil
}

// TrainView is one train row.
type TrainView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	RouteID       string   `json:"routeId"`
	SessionNumber int      `json:"sessionNumber"`
	Status        string   `json:"status"`
	MaxCapacity   int      `json:"maxCapacity"`
	Locomotives   []string `json:"locomotives"`
	AssignedCars  []string `json:"assignedCars"`
	HasSwitchList bool     `json:"hasSwitchList"`
}

func toTrainView(t models.Train) (TrainView, error) {
	locos, err := t.Locomotives()
	if err != nil {
		return TrainView{}, fmt.Errorf("dashboard: decode locomotives for %s: %w", t.ID, err)
	}
	cars, err := t.Cars()
	if err != nil {
		return TrainView{}, fmt.Errorf("dashboard: decode cars for %s: %w", t.ID, err)
	}
	return TrainView{
		ID:            t.ID,
		Name:          t.Name,
		RouteID:       t.RouteID,
		SessionNumber: t.SessionNumber,
		Status:        t.Status,
		MaxCapacity:   t.MaxCapacity,
		Locomotives:   locos,
		AssignedCars:  cars,
		HasSwitchList: t.SwitchList != "",
	}, nil
}

func trainViews(db *gorm.DB, status string) ([]TrainView, error) {
	trains, err := train.List(db, train.ListFilters{Status: status})
	if err != nil {
		return nil, err
	}
	views := make([]TrainView, 0, len(trains))
	for _, t := range trains {
		v, err := toTrainView(t)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func trainView(db *gorm.DB, id string) (*TrainView, error) {
	t, err := train.Get(db, id)
	if err != nil {
		return nil, err
	}
	v, err := toTrainView(*t)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func switchListView(db *gorm.DB, trainID string) (*switchlist.SwitchList, error) {
	t, err := train.Get(db, trainID)
	if err != nil {
		return nil, err
	}
	return switchlist.Decode(t.SwitchList)
}

// OrderView is one car-order row.
type OrderView struct {
	ID            string    `json:"id"`
	IndustryID    string    `json:"industryId"`
	CarTypeID     string    `json:"carTypeId"`
	SessionNumber int       `json:"sessionNumber"`
	Status        string    `json:"status"`
	AssignedCar   string    `json:"assignedCar,omitempty"`
	AssignedTrain string    `json:"assignedTrain,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func orderViews(db *gorm.DB, status, industry string) ([]OrderView, error) {
	q := db.Model(&models.CarOrder{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if industry != "" {
		q = q.Where("industry_id = ?", industry)
	}
	var orders []models.CarOrder
	if err := q.Order("created_at ASC, id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("dashboard: list orders: %w", err)
	}
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		v := OrderView{
			ID:            o.ID,
			IndustryID:    o.IndustryID,
			CarTypeID:     o.CarTypeID,
			SessionNumber: o.SessionNumber,
			Status:        o.Status,
			CreatedAt:     o.CreatedAt,
		}
		if o.AssignedCarID != nil {
			v.AssignedCar = *o.AssignedCarID
		}
		if o.AssignedTrainID != nil {
			v.AssignedTrain = *o.AssignedTrainID
		}
		views = append(views, v)
	}
	return views, nil
}

// CarView is one fleet row.
type CarView struct {
	ID                 string     `json:"id"`
	CarTypeID          string     `json:"carTypeId"`
	CurrentIndustryID  string     `json:"currentIndustryId"`
	HomeYardID         string     `json:"homeYardId"`
	InService          bool       `json:"inService"`
	SessionsAtLocation int        `json:"sessionsAtLocation"`
	LastMoved          *time.Time `json:"lastMoved,omitempty"`
}

func carViews(db *gorm.DB) ([]CarView, error) {
	var cars []models.Car
	if err := db.Order("id ASC").Find(&cars).Error; err != nil {
		return nil, fmt.Errorf("dashboard: list cars: %w", err)
	}
	views := make([]CarView, 0, len(cars))
	for _, c := range cars {
		views = append(views, CarView{
			ID:                 c.ID,
			CarTypeID:          c.CarTypeID,
			CurrentIndustryID:  c.CurrentIndustryID,
			HomeYardID:         c.HomeYardID,
			InService:          c.InService,
			SessionsAtLocation: c.SessionsAtLocation,
			LastMoved:          c.LastMoved,
		})
	}
	return views, nil
}

// IndustryView is one industry row with its demand-rule count.
type IndustryView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	StationID   string `json:"stationId"`
	IsYard      bool   `json:"isYard"`
	OnLayout    bool   `json:"onLayout"`
	DemandRules int    `json:"demandRules"`
}

func industryViews(db *gorm.DB) ([]IndustryView, error) {
	var industries []models.Industry
	if err := db.Preload("DemandRules").Order("id ASC").Find(&industries).Error; err != nil {
		return nil, fmt.Errorf("dashboard: list industries: %w", err)
	}
	views := make([]IndustryView, 0, len(industries))
	for _, ind := range industries {
		views = append(views, IndustryView{
			ID:          ind.ID,
			Name:        ind.Name,
			StationID:   ind.StationID,
			IsYard:      ind.IsYard,
			OnLayout:    ind.OnLayout,
			DemandRules: len(ind.DemandRules),
		})
	}
	return views, nil
}
