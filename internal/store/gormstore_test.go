package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "voyages.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}

	// Long interval so tests control flushing explicitly.
	s := NewGormStore(db, time.Hour)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGormStoreSaveFlushGet(t *testing.T) {
	s := newTestGormStore(t)

	v := testVoyage("vessel-1", "Channel crossing")
	if err := s.SaveVoyage(v); err != nil {
		t.Fatalf("SaveVoyage failed: %v", err)
	}

	// Not yet flushed, so not visible.
	if _, err := s.GetVoyage(1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound before flush, got %v", err)
	}

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if v.ID == 0 {
		t.Fatal("expected flush to assign an id")
	}

	got, err := s.GetVoyage(v.ID)
	if err != nil {
		t.Fatalf("GetVoyage failed: %v", err)
	}
	if got.Name != "Channel crossing" {
		t.Errorf("expected name 'Channel crossing', got %q", got.Name)
	}
	if got.StartTime != 1000000 || got.EndTime != 1010000 {
		t.Errorf("unexpected time bounds: %d..%d", got.StartTime, got.EndTime)
	}

	history, err := DecodeHistory(got.History)
	if err != nil {
		t.Fatalf("DecodeHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 history points, got %d", len(history))
	}
}

func TestGormStoreFlushEmptyQueue(t *testing.T) {
	s := newTestGormStore(t)

	if err := s.Flush(); err != nil {
		t.Errorf("Flush of empty queue failed: %v", err)
	}
}

func TestGormStoreListFiltersByVessel(t *testing.T) {
	s := newTestGormStore(t)

	_ = s.SaveVoyage(testVoyage("vessel-1", "first"))
	_ = s.SaveVoyage(testVoyage("vessel-2", "second"))
	_ = s.SaveVoyage(testVoyage("vessel-1", "third"))
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	all, err := s.ListVoyages("")
	if err != nil {
		t.Fatalf("ListVoyages failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 voyages, got %d", len(all))
	}

	filtered, err := s.ListVoyages("vessel-2")
	if err != nil {
		t.Fatalf("ListVoyages failed: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("expected 1 voyage for vessel-2, got %d", len(filtered))
	}
	if filtered[0].Name != "second" {
		t.Errorf("expected 'second', got %q", filtered[0].Name)
	}
}

func TestGormStoreDelete(t *testing.T) {
	s := newTestGormStore(t)

	v := testVoyage("vessel-1", "short hop")
	_ = s.SaveVoyage(v)
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if err := s.DeleteVoyage(v.ID); err != nil {
		t.Fatalf("DeleteVoyage failed: %v", err)
	}
	if _, err := s.GetVoyage(v.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteVoyage(v.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestGormStoreCloseFlushesPending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voyages.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	s := NewGormStore(db, time.Hour)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	v := testVoyage("vessel-1", "unflushed")
	_ = s.SaveVoyage(v)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, err := s.GetVoyage(v.ID)
	if err != nil {
		t.Fatalf("GetVoyage after Close failed: %v", err)
	}
	if got.Name != "unflushed" {
		t.Errorf("expected 'unflushed', got %q", got.Name)
	}
}
