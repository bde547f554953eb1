// Package order provides car-order generation and the order status machine.
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/trainops/internal/models"
	"github.com/zulandar/trainops/internal/operr"
	"gorm.io/gorm"
)

// Order statuses.
const (
	StatusPending   = "pending"
	StatusAssigned  = "assigned"
	StatusInTransit = "in_transit"
	StatusDelivered = "delivered"
)

// ValidTransitions maps each order status to its valid next statuses.
// The reverse edges (assigned→pending, in_transit→assigned) exist to undo
// partial fulfilment when a train is cancelled. Delivered is terminal.
var ValidTransitions = map[string][]string{
	StatusPending:   {StatusAssigned, StatusDelivered},
	StatusAssigned:  {StatusInTransit, StatusDelivered, StatusPending},
	StatusInTransit: {StatusDelivered, StatusAssigned},
	StatusDelivered: {},
}

// CanTransition reports whether from→to is an allowed order transition.
func CanTransition(from, to string) bool {
	for _, v := range ValidTransitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// Transition moves an order to a new status, validating against
// ValidTransitions. Extra column updates are applied atomically with the
// status change.
func Transition(db *gorm.DB, orderID, to string, extra map[string]interface{}) error {
	var ord models.CarOrder
	if err := db.Where("id = ?", orderID).First(&ord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &operr.NotFound{Kind: "order", ID: orderID}
		}
		return fmt.Errorf("order: get %s: %w", orderID, err)
	}
	if !CanTransition(ord.Status, to) {
		return &operr.InvalidTransition{Kind: "order", From: ord.Status, To: to, Allowed: ValidTransitions[ord.Status]}
	}

	updates := map[string]interface{}{"status": to, "updated_at": time.Now()}
	for k, v := range extra {
		updates[k] = v
	}
	if err := db.Model(&models.CarOrder{}).Where("id = ?", orderID).Updates(updates).Error; err != nil {
		return fmt.Errorf("order: transition %s to %s: %w", orderID, to, err)
	}
	return nil
}

// Assign marks a pending order assigned to a car and train. Safe to repeat:
// assigning an already-assigned order to the same car and train is a no-op.
func Assign(db *gorm.DB, orderID, carID, trainID string) error {
	var ord models.CarOrder
	if err := db.Where("id = ?", orderID).First(&ord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &operr.NotFound{Kind: "order", ID: orderID}
		}
		return fmt.Errorf("order: get %s: %w", orderID, err)
	}
	if ord.Status == StatusAssigned && ord.AssignedCarID != nil && *ord.AssignedCarID == carID &&
		ord.AssignedTrainID != nil && *ord.AssignedTrainID == trainID {
		return nil
	}
	return Transition(db, orderID, StatusAssigned, map[string]interface{}{
		"assigned_car_id":   carID,
		"assigned_train_id": trainID,
	})
}

// Release reverts an assigned or in-transit order to pending and clears its
// car and train references. Used by train cancellation.
func Release(db *gorm.DB, orderID string) error {
	var ord models.CarOrder
	if err := db.Where("id = ?", orderID).First(&ord).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &operr.NotFound{Kind: "order", ID: orderID}
		}
		return fmt.Errorf("order: get %s: %w", orderID, err)
	}
	if ord.Status == StatusPending {
		return nil
	}
	if ord.Status == StatusInTransit {
		// in_transit has no direct edge to pending; step back through assigned.
		if err := Transition(db, orderID, StatusAssigned, nil); err != nil {
			return err
		}
	}
	return Transition(db, orderID, StatusPending, map[string]interface{}{
		"assigned_car_id":   nil,
		"assigned_train_id": nil,
	})
}

// Deliver marks an order delivered.
func Deliver(db *gorm.DB, orderID string) error {
	return Transition(db, orderID, StatusDelivered, nil)
}
