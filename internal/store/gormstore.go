package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/iotlog/fleetengine/internal/queue"
)

// DefaultFlushInterval is how often the background writer drains the
// save queue when no interval is configured.
const DefaultFlushInterval = 3 * time.Second

// GormStore implements Backend over a GORM database with queue-based
// batched writes. SaveVoyage only enqueues; the background writer (or
// an explicit Flush) performs the inserts.
type GormStore struct {
	db            *gorm.DB
	pending       *queue.Queue[*Voyage]
	flushInterval time.Duration
	stopChan      chan struct{}
}

// NewGormStore creates a store over an open GORM connection. A zero
// flushInterval selects DefaultFlushInterval.
func NewGormStore(db *gorm.DB, flushInterval time.Duration) *GormStore {
	if flushInterval <= 0 {
		flushInterval = DefaultFlushInterval
	}
	return &GormStore{
		db:            db,
		pending:       queue.New[*Voyage](),
		flushInterval: flushInterval,
	}
}

// Init migrates the schema and starts the background writer.
func (s *GormStore) Init() error {
	if err := s.db.AutoMigrate(&Voyage{}); err != nil {
		return fmt.Errorf("migrating voyage schema: %w", err)
	}
	s.stopChan = make(chan struct{})
	go s.writeLoop()
	return nil
}

// Close flushes pending saves and stops the background writer.
func (s *GormStore) Close() error {
	if s.stopChan != nil {
		close(s.stopChan)
		s.stopChan = nil
	}
	return s.Flush()
}

// SaveVoyage enqueues a voyage for the next batch write.
func (s *GormStore) SaveVoyage(v *Voyage) error {
	s.pending.Push(v)
	return nil
}

// Flush drains the save queue into the database. IDs are assigned to
// the enqueued pointers by GORM on insert.
func (s *GormStore) Flush() error {
	batch := s.pending.GetAndEmpty()
	if len(batch) == 0 {
		return nil
	}
	if err := s.db.Create(batch).Error; err != nil {
		// Put the batch back so a later flush can retry.
		s.pending.Push(batch...)
		return fmt.Errorf("flushing %d voyages: %w", len(batch), err)
	}
	return nil
}

// GetVoyage loads one voyage by id.
func (s *GormStore) GetVoyage(id uint) (*Voyage, error) {
	var v Voyage
	err := s.db.First(&v, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading voyage %d: %w", id, err)
	}
	return &v, nil
}

// ListVoyages returns the voyages of one vessel, or all voyages when
// vesselID is empty, newest first.
func (s *GormStore) ListVoyages(vesselID string) ([]Voyage, error) {
	q := s.db.Order("created_at desc")
	if vesselID != "" {
		q = q.Where("vessel_id = ?", vesselID)
	}
	var voyages []Voyage
	if err := q.Find(&voyages).Error; err != nil {
		return nil, fmt.Errorf("listing voyages: %w", err)
	}
	return voyages, nil
}

// DeleteVoyage removes one voyage by id.
func (s *GormStore) DeleteVoyage(id uint) error {
	res := s.db.Delete(&Voyage{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting voyage %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) writeLoop() {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	stop := s.stopChan
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// Errors keep the batch queued for the next tick.
			_ = s.Flush()
		}
	}
}
