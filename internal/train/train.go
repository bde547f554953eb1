// Package train provides the train lifecycle: creation, switch-list
// generation, completion, and cancellation.
package train

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/trainops/internal/models"
	"github.com/zulandar/trainops/internal/operr"
	"github.com/zulandar/trainops/internal/order"
	"github.com/zulandar/trainops/internal/session"
	"github.com/zulandar/trainops/internal/switchlist"
	"gorm.io/gorm"
)

// Train statuses.
const (
	StatusPlanned    = "planned"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// ValidTransitions maps each train status to its valid next statuses.
// Completed and cancelled are terminal.
var ValidTransitions = map[string][]string{
	StatusPlanned:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether from→to is an allowed train transition.
func CanTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// GenerateID creates a unique train ID in trn-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("train: generate ID: %w", err)
	}
	return "trn-" + hex.EncodeToString(b)[:5], nil
}

// CreateOpts holds parameters for creating a train.
type CreateOpts struct {
	Name          string
	RouteID       string
	LocomotiveIDs []string
	MaxCapacity   int
}

// Create validates and creates a planned train in the current session.
// Name must be unique within the session; every locomotive must exist, be
// in service, and not be attached to another planned or in-progress train.
func Create(db *gorm.DB, opts CreateOpts) (*models.Train, error) {
	if opts.Name == "" {
		return nil, operr.Validationf("train name is required")
	}
	if opts.MaxCapacity < 1 {
		return nil, operr.Validationf("max capacity must be at least 1")
	}
	if len(opts.LocomotiveIDs) == 0 {
		return nil, operr.Validationf("at least one locomotive is required")
	}

	sess, err := session.Current(db)
	if err != nil {
		return nil, err
	}

	var nameCount int64
	if err := db.Model(&models.Train{}).
		Where("name = ? AND session_number = ?", opts.Name, sess.CurrentSession).
		Count(&nameCount).Error; err != nil {
		return nil, fmt.Errorf("train: check name %q: %w", opts.Name, err)
	}
	if nameCount > 0 {
		return nil, operr.Conflictf("train name %q already exists in session %d", opts.Name, sess.CurrentSession)
	}

	var routeCount int64
	if err := db.Model(&models.Route{}).Where("id = ?", opts.RouteID).Count(&routeCount).Error; err != nil {
		return nil, fmt.Errorf("train: check route %s: %w", opts.RouteID, err)
	}
	if routeCount == 0 {
		return nil, &operr.NotFound{Kind: "route", ID: opts.RouteID}
	}

	if err := checkLocomotives(db, opts.LocomotiveIDs); err != nil {
		return nil, err
	}

	id, err := GenerateID()
	if err != nil {
		return nil, err
	}
	locos, err := models.EncodeIDList(opts.LocomotiveIDs)
	if err != nil {
		return nil, fmt.Errorf("train: encode locomotives: %w", err)
	}
	cars, _ := models.EncodeIDList(nil)

	t := models.Train{
		ID:             id,
		Name:           opts.Name,
		RouteID:        opts.RouteID,
		SessionNumber:  sess.CurrentSession,
		Status:         StatusPlanned,
		MaxCapacity:    opts.MaxCapacity,
		LocomotiveIDs:  locos,
		AssignedCarIDs: cars,
	}
	if err := db.Create(&t).Error; err != nil {
		return nil, fmt.Errorf("train: create: %w", err)
	}
	return &t, nil
}

// checkLocomotives verifies existence, service status, and exclusivity:
// a locomotive may be attached to at most one planned or in-progress train.
func checkLocomotives(db *gorm.DB, ids []string) error {
	var active []models.Train
	if err := db.Where("status IN ?", []string{StatusPlanned, StatusInProgress}).
		Find(&active).Error; err != nil {
		return fmt.Errorf("train: list active trains: %w", err)
	}
	attached := make(map[string]string) // locomotive ID → train ID
	for _, t := range active {
		locos, err := t.Locomotives()
		if err != nil {
			return fmt.Errorf("train: decode locomotives for %s: %w", t.ID, err)
		}
		for _, l := range locos {
			attached[l] = t.ID
		}
	}

	for _, id := range ids {
		var loco models.Locomotive
		err := db.Where("id = ?", id).First(&loco).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &operr.NotFound{Kind: "locomotive", ID: id}
		}
		if err != nil {
			return fmt.Errorf("train: get locomotive %s: %w", id, err)
		}
		if !loco.InService {
			return operr.Conflictf("locomotive %s is out of service", id)
		}
		if trainID, ok := attached[id]; ok {
			return operr.Conflictf("locomotive %s is already attached to active train %s", id, trainID)
		}
	}
	return nil
}

// Get retrieves a train by ID.
func Get(db *gorm.DB, id string) (*models.Train, error) {
	var t models.Train
	if err := db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &operr.NotFound{Kind: "train", ID: id}
		}
		return nil, fmt.Errorf("train: get %s: %w", id, err)
	}
	return &t, nil
}

// ListFilters holds optional filters for listing trains.
type ListFilters struct {
	SessionNumber int
	Status        string
}

// List returns trains matching the filters, oldest first.
func List(db *gorm.DB, filters ListFilters) ([]models.Train, error) {
	q := db.Model(&models.Train{})
	if filters.SessionNumber != 0 {
		q = q.Where("session_number = ?", filters.SessionNumber)
	}
	if filters.Status != "" {
		q = q.Where("status = ?", filters.Status)
	}
	var trains []models.Train
	if err := q.Order("created_at ASC, id ASC").Find(&trains).Error; err != nil {
		return nil, fmt.Errorf("train: list: %w", err)
	}
	return trains, nil
}

// Transition moves a train to a new status, validating against
// ValidTransitions.
func Transition(db *gorm.DB, id, to string) error {
	t, err := Get(db, id)
	if err != nil {
		return err
	}
	if !CanTransition(t.Status, to) {
		return &operr.InvalidTransition{Kind: "train", From: t.Status, To: to, Allowed: ValidTransitions[t.Status]}
	}
	updates := map[string]interface{}{"status": to, "updated_at": time.Now()}
	if to == StatusCompleted || to == StatusCancelled {
		updates["completed_at"] = time.Now()
	}
	if err := db.Model(&models.Train{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("train: transition %s to %s: %w", id, to, err)
	}
	return nil
}

// Start generates the train's switch list and advances it to in progress
// as one action: a train without a switch list cannot meaningfully run.
// Matched orders move to in transit once the train is underway. The whole
// query-and-reserve sequence runs under the engine-wide lock so two builds
// cannot claim the same idle car.
func Start(db *gorm.DB, id string, perIndustryCap int) (*switchlist.SwitchList, error) {
	var sl *switchlist.SwitchList
	err := session.Locked(func() error {
		t, err := Get(db, id)
		if err != nil {
			return err
		}
		sl, err = switchlist.Build(db, t, perIndustryCap)
		if err != nil {
			return err
		}
		if err := Transition(db, id, StatusInProgress); err != nil {
			return err
		}
		for _, stop := range sl.Stops {
			for _, item := range stop.Setouts {
				if item.OrderID == "" {
					continue
				}
				if err := order.Transition(db, item.OrderID, order.StatusInTransit, nil); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sl, nil
}

// Complete works the attached switch list: each spotted car's location is
// updated and its sessions-at-location counter reset, each referenced
// order is delivered, and the train is closed out. Mutations apply in a
// fixed order (orders, then cars, then the train) inside one transaction.
func Complete(db *gorm.DB, id string) error {
	t, err := Get(db, id)
	if err != nil {
		return err
	}
	if !CanTransition(t.Status, StatusCompleted) {
		return &operr.InvalidTransition{Kind: "train", From: t.Status, To: StatusCompleted, Allowed: ValidTransitions[t.Status]}
	}
	sl, err := switchlist.Decode(t.SwitchList)
	if err != nil {
		return err
	}
	if sl == nil {
		return operr.Conflictf("train %s has no switch list to complete", id)
	}

	now := time.Now()
	return db.Transaction(func(tx *gorm.DB) error {
		for _, stop := range sl.Stops {
			for _, item := range stop.Setouts {
				if item.OrderID == "" {
					continue
				}
				if err := order.Deliver(tx, item.OrderID); err != nil {
					return err
				}
			}
		}
		for _, stop := range sl.Stops {
			for _, item := range stop.Setouts {
				if err := tx.Model(&models.Car{}).Where("id = ?", item.CarID).Updates(map[string]interface{}{
					"current_industry_id":  item.DestinationIndustryID,
					"sessions_at_location": 0,
					"last_moved":           now,
				}).Error; err != nil {
					return fmt.Errorf("train: move car %s: %w", item.CarID, err)
				}
			}
		}
		return Transition(tx, id, StatusCompleted)
	})
}

// Cancel aborts a train: every order it holds reverts to pending with its
// car and train references cleared, and the train is cancelled. Cars never
// physically moved, so no car state changes. It reports how many orders
// were released; delivered orders keep their train reference and do not
// count.
func Cancel(db *gorm.DB, id string) (int, error) {
	t, err := Get(db, id)
	if err != nil {
		return 0, err
	}
	if !CanTransition(t.Status, StatusCancelled) {
		return 0, &operr.InvalidTransition{Kind: "train", From: t.Status, To: StatusCancelled, Allowed: ValidTransitions[t.Status]}
	}

	var held []models.CarOrder
	if err := db.Where("assigned_train_id = ? AND status IN ?",
		id, []string{order.StatusAssigned, order.StatusInTransit}).
		Order("id ASC").Find(&held).Error; err != nil {
		return 0, fmt.Errorf("train: list orders for %s: %w", id, err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, o := range held {
			if err := order.Release(tx, o.ID); err != nil {
				return err
			}
		}
		return Transition(tx, id, StatusCancelled)
	})
	if err != nil {
		return 0, err
	}
	return len(held), nil
}

// Delete removes a train. Permitted only while planned: no switch list has
// been committed and no orders were touched.
func Delete(db *gorm.DB, id string) error {
	t, err := Get(db, id)
	if err != nil {
		return err
	}
	if t.Status != StatusPlanned {
		return operr.Conflictf("train %s is %s; only planned trains can be deleted", id, t.Status)
	}
	if err := db.Where("id = ?", id).Delete(&models.Train{}).Error; err != nil {
		return fmt.Errorf("train: delete %s: %w", id, err)
	}
	return nil
}
