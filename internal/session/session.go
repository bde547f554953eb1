// Package session owns the singleton operating session: advancement with
// full-state snapshotting, single-level rollback, and the engine-wide lock
// that serializes session-mutating operations.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zulandar/trainops/internal/models"
	"github.com/zulandar/trainops/internal/operr"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// singletonID is the fixed primary key of the one OperatingSession row.
const singletonID = 1

// mu serializes every operation that mutates session-gated state: advance,
// rollback, and the switch-list builder's query-and-reserve sequence. The
// engine is single-writer by design.
var mu sync.Mutex

// Locked runs fn while holding the engine-wide operations lock.
func Locked(fn func() error) error {
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

// Snapshot is a full point-in-time copy of the mutable operating state,
// sufficient to restore car locations and recreate train and order
// documents verbatim.
type Snapshot struct {
	SessionNumber int               `json:"sessionNumber"`
	Cars          []CarState        `json:"cars"`
	Trains        []models.Train    `json:"trains"`
	CarOrders     []models.CarOrder `json:"carOrders"`
}

// CarState is the mutable slice of a car captured in a snapshot.
type CarState struct {
	ID                 string `json:"id"`
	CurrentIndustryID  string `json:"currentIndustry"`
	SessionsAtLocation int    `json:"sessionsAtCurrentLocation"`
}

// Init creates the singleton session row at session 1 if it does not
// already exist. Safe to call repeatedly.
func Init(db *gorm.DB) (*models.OperatingSession, error) {
	var sess models.OperatingSession
	err := db.Where("id = ?", singletonID).First(&sess).Error
	if err == nil {
		return &sess, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session: get: %w", err)
	}
	sess = models.OperatingSession{
		ID:             singletonID,
		CurrentSession: 1,
		SessionDate:    time.Now(),
	}
	if err := db.Create(&sess).Error; err != nil {
		return nil, fmt.Errorf("session: init: %w", err)
	}
	return &sess, nil
}

// Current returns the singleton session row.
func Current(db *gorm.DB) (*models.OperatingSession, error) {
	var sess models.OperatingSession
	if err := db.Where("id = ?", singletonID).First(&sess).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &operr.NotFound{Kind: "session", ID: "singleton"}
		}
		return nil, fmt.Errorf("session: get: %w", err)
	}
	return &sess, nil
}

// UpdateDescription sets the session description. Pure metadata; no
// state-machine implications.
func UpdateDescription(db *gorm.DB, description string) error {
	result := db.Model(&models.OperatingSession{}).
		Where("id = ?", singletonID).
		Update("description", description)
	if result.Error != nil {
		return fmt.Errorf("session: update description: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &operr.NotFound{Kind: "session", ID: "singleton"}
	}
	return nil
}

// AdvanceResult reports what an advance did.
type AdvanceResult struct {
	PreviousSession int
	NewSession      int
	TrainsCleared   int
	CarsAged        int
}

// Advance closes the current session and opens the next one: it snapshots
// every car's location state plus every train and order into
// PreviousSnapshot, ages each car's sessions-at-location counter, deletes
// the closed session's trains, and increments the session number. This is
// the only place a new session number is minted. Mutations run inside one
// transaction in a fixed order (snapshot, cars, trains, session row) so a
// failure part-way is detectable rather than silent.
func Advance(db *gorm.DB, description string) (*AdvanceResult, error) {
	mu.Lock()
	defer mu.Unlock()

	sess, err := Current(db)
	if err != nil {
		return nil, err
	}

	snap, err := capture(db, sess.CurrentSession)
	if err != nil {
		return nil, err
	}
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("session: marshal snapshot: %w", err)
	}

	result := &AdvanceResult{
		PreviousSession: sess.CurrentSession,
		NewSession:      sess.CurrentSession + 1,
		CarsAged:        len(snap.Cars),
		TrainsCleared:   len(snap.Trains),
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Car{}).
			Where("1 = 1").
			Update("sessions_at_location", gorm.Expr("sessions_at_location + 1")).Error; err != nil {
			return fmt.Errorf("session: age cars: %w", err)
		}
		if err := tx.Where("session_number = ?", sess.CurrentSession).
			Delete(&models.Train{}).Error; err != nil {
			return fmt.Errorf("session: clear trains for session %d: %w", sess.CurrentSession, err)
		}
		updates := map[string]interface{}{
			"current_session":   result.NewSession,
			"session_date":      time.Now(),
			"description":       description,
			"previous_snapshot": string(snapJSON),
		}
		if err := tx.Model(&models.OperatingSession{}).
			Where("id = ?", singletonID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("session: advance to %d: %w", result.NewSession, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Rollback restores the previous session's snapshot verbatim and consumes
// it. Single-level: a second rollback without an intervening advance fails.
func Rollback(db *gorm.DB) (*models.OperatingSession, error) {
	mu.Lock()
	defer mu.Unlock()

	sess, err := Current(db)
	if err != nil {
		return nil, err
	}
	if sess.CurrentSession == 1 {
		return nil, &operr.RollbackNotAllowed{Reason: "already at session 1"}
	}
	if sess.PreviousSnapshot == "" {
		return nil, &operr.RollbackNotAllowed{Reason: "no snapshot to restore"}
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(sess.PreviousSnapshot), &snap); err != nil {
		return nil, fmt.Errorf("session: decode snapshot: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		// Restore car location state first, then replace the train and
		// order collections with the snapshot documents.
		for _, cs := range snap.Cars {
			if err := tx.Model(&models.Car{}).Where("id = ?", cs.ID).Updates(map[string]interface{}{
				"current_industry_id":  cs.CurrentIndustryID,
				"sessions_at_location": cs.SessionsAtLocation,
			}).Error; err != nil {
				return fmt.Errorf("session: restore car %s: %w", cs.ID, err)
			}
		}
		if err := tx.Where("1 = 1").Delete(&models.Train{}).Error; err != nil {
			return fmt.Errorf("session: delete trains: %w", err)
		}
		if err := tx.Where("1 = 1").Delete(&models.CarOrder{}).Error; err != nil {
			return fmt.Errorf("session: delete orders: %w", err)
		}
		if len(snap.Trains) > 0 {
			if err := tx.Omit(clause.Associations).Create(&snap.Trains).Error; err != nil {
				return fmt.Errorf("session: reinsert %d trains: %w", len(snap.Trains), err)
			}
		}
		if len(snap.CarOrders) > 0 {
			if err := tx.Omit(clause.Associations).Create(&snap.CarOrders).Error; err != nil {
				return fmt.Errorf("session: reinsert %d orders: %w", len(snap.CarOrders), err)
			}
		}
		if err := tx.Model(&models.OperatingSession{}).Where("id = ?", singletonID).Updates(map[string]interface{}{
			"current_session":   snap.SessionNumber,
			"previous_snapshot": "",
		}).Error; err != nil {
			return fmt.Errorf("session: restore session number %d: %w", snap.SessionNumber, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Current(db)
}

// capture builds a snapshot of the current operating state.
func capture(db *gorm.DB, sessionNumber int) (*Snapshot, error) {
	snap := &Snapshot{SessionNumber: sessionNumber}

	var cars []models.Car
	if err := db.Order("id ASC").Find(&cars).Error; err != nil {
		return nil, fmt.Errorf("session: snapshot cars: %w", err)
	}
	snap.Cars = make([]CarState, 0, len(cars))
	for _, c := range cars {
		snap.Cars = append(snap.Cars, CarState{
			ID:                 c.ID,
			CurrentIndustryID:  c.CurrentIndustryID,
			SessionsAtLocation: c.SessionsAtLocation,
		})
	}

	if err := db.Order("id ASC").Find(&snap.Trains).Error; err != nil {
		return nil, fmt.Errorf("session: snapshot trains: %w", err)
	}
	if err := db.Order("id ASC").Find(&snap.CarOrders).Error; err != nil {
		return nil, fmt.Errorf("session: snapshot orders: %w", err)
	}
	return snap, nil
}
