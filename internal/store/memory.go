package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/iotlog/fleetengine/internal/config"
)

// MemoryStore keeps voyages in memory and exports them to JSON files
// on Close. Useful for tests and for running without a database.
type MemoryStore struct {
	cfg config.MemoryConfig

	voyages   map[uint]*Voyage
	order     []uint
	idCounter uint
	mu        sync.RWMutex

	lastExportPath string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(cfg config.MemoryConfig) *MemoryStore {
	return &MemoryStore{
		cfg:     cfg,
		voyages: make(map[uint]*Voyage),
	}
}

// Init initializes the backend.
func (m *MemoryStore) Init() error {
	return nil
}

// Close exports the stored voyages to the configured output directory.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.OutputDir == "" || len(m.order) == 0 {
		return nil
	}
	return m.exportJSON()
}

// SaveVoyage stores a voyage, assigning an id when it has none.
func (m *MemoryStore) SaveVoyage(v *Voyage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v.ID == 0 {
		m.idCounter++
		v.ID = m.idCounter
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	if _, exists := m.voyages[v.ID]; !exists {
		m.order = append(m.order, v.ID)
	}
	cp := *v
	m.voyages[v.ID] = &cp
	return nil
}

// GetVoyage looks up a voyage by id.
func (m *MemoryStore) GetVoyage(id uint) (*Voyage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.voyages[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	return &cp, nil
}

// ListVoyages returns the voyages of one vessel, or all voyages when
// vesselID is empty, in insertion order.
func (m *MemoryStore) ListVoyages(vesselID string) ([]Voyage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Voyage, 0, len(m.order))
	for _, id := range m.order {
		v := m.voyages[id]
		if vesselID != "" && v.VesselID != vesselID {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

// DeleteVoyage removes a voyage by id.
func (m *MemoryStore) DeleteVoyage(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.voyages[id]; !ok {
		return ErrNotFound
	}
	delete(m.voyages, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// LastExportPath returns the path of the most recent JSON export.
func (m *MemoryStore) LastExportPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastExportPath
}

// exportJSON writes one file per voyage. Caller holds the lock.
func (m *MemoryStore) exportJSON() error {
	if err := os.MkdirAll(m.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, id := range m.order {
		v := m.voyages[id]
		name := strings.ReplaceAll(v.Name, " ", "_")
		if name == "" {
			name = v.VesselID
		}
		timestamp := time.UnixMilli(v.StartTime).UTC().Format("20060102_150405")
		filename := fmt.Sprintf("%s_%s.json", name, timestamp)
		outputPath := filepath.Join(m.cfg.OutputDir, filename)

		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal voyage %d: %w", id, err)
		}
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write voyage export: %w", err)
		}
		m.lastExportPath = outputPath
	}
	return nil
}
