// Package store persists voyages: the fetched route histories a user
// keeps for later replay. Backends share one interface; the factory
// picks between in-memory, sqlite and postgres from configuration.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/iotlog/fleetengine/pkg/core"
)

// ErrNotFound is returned when a voyage id does not exist.
var ErrNotFound = errors.New("voyage not found")

// Voyage is one saved route history.
type Voyage struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	VesselID  string         `gorm:"index" json:"vesselId"`
	Name      string         `json:"name"`
	StartTime int64          `json:"startTime"` // epoch millis
	EndTime   int64          `json:"endTime"`   // epoch millis
	History   datatypes.JSON `json:"history"`   // [[ts, lat, lng], ...]
	CreatedAt time.Time      `json:"createdAt"`
}

// Backend is the interface all voyage store implementations satisfy.
type Backend interface {
	Init() error
	Close() error

	// SaveVoyage stores a voyage and assigns its ID to the passed pointer.
	SaveVoyage(v *Voyage) error
	GetVoyage(id uint) (*Voyage, error)
	ListVoyages(vesselID string) ([]Voyage, error)
	DeleteVoyage(id uint) error
}

// EncodeHistory packs route history into the stored JSON column.
func EncodeHistory(history []core.HistoryPoint) (datatypes.JSON, error) {
	raw, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("encoding voyage history: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// DecodeHistory unpacks the stored JSON column into route history.
func DecodeHistory(raw datatypes.JSON) ([]core.HistoryPoint, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var history []core.HistoryPoint
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decoding voyage history: %w", err)
	}
	return history, nil
}
