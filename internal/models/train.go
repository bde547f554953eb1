package models

import (
	"encoding/json"
	"time"
)

// Train is a single-session run over a route. Name is unique within its
// session. LocomotiveIDs and AssignedCarIDs are JSON arrays; SwitchList
// holds the serialized switch-list artifact once one is generated.
type Train struct {
	ID             string `gorm:"primaryKey;size:32"`
	Name           string `gorm:"size:64;not null;index:idx_train_name_session"`
	RouteID        string `gorm:"size:32;not null;index"`
	SessionNumber  int    `gorm:"not null;index:idx_train_name_session"`
	Status         string `gorm:"size:16;default:planned;index"` // planned, in_progress, completed, cancelled
	MaxCapacity    int    `gorm:"default:1"`
	LocomotiveIDs  string `gorm:"type:json"`
	AssignedCarIDs string `gorm:"type:json"`
	SwitchList     string `gorm:"type:json"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time

	Route Route `gorm:"foreignKey:RouteID"`
}

// Locomotives decodes the LocomotiveIDs JSON array.
func (t *Train) Locomotives() ([]string, error) {
	return decodeIDList(t.LocomotiveIDs)
}

// Cars decodes the AssignedCarIDs JSON array.
func (t *Train) Cars() ([]string, error) {
	return decodeIDList(t.AssignedCarIDs)
}

// EncodeIDList marshals a string slice for a JSON list column. A nil or
// empty slice encodes as "[]" so columns are never NULL.
func EncodeIDList(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeIDList(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(s), &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
