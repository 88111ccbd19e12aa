// Package grid is the allocation grid engine: the dataset store plus the pure
// filter, sort, validation, status and projection functions built on top of it.
package grid

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mamadbah2/allocgrid/internal/domain/models"
)

// ErrDuplicateRecordID rejects a dataset where two rows share an identifier.
var ErrDuplicateRecordID = errors.New("duplicate record id")

// Dataset is an immutable copy of the store contents.
type Dataset struct {
	Records    []models.AllocationRecord
	Channels   []string
	StatusHint models.WorkflowStatus
}

// Store holds the loaded allocation rows and the ordered channel columns.
// Loads replace everything at once; edits touch a single channel cell.
type Store struct {
	mu       sync.RWMutex
	records  []models.AllocationRecord
	index    map[models.RecordID]int
	channels []string
	hint     models.WorkflowStatus
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{index: make(map[models.RecordID]int)}
}

// Load replaces records, channel columns and status hint in one step.
// On error the previous contents stay untouched.
func (s *Store) Load(records []models.AllocationRecord, channels []string, hint models.WorkflowStatus) error {
	nextRecords := make([]models.AllocationRecord, 0, len(records))
	nextIndex := make(map[models.RecordID]int, len(records))

	for _, rec := range records {
		if _, exists := nextIndex[rec.ID]; exists {
			return fmt.Errorf("load dataset: %w: %q", ErrDuplicateRecordID, rec.ID)
		}
		nextIndex[rec.ID] = len(nextRecords)
		nextRecords = append(nextRecords, normalizeRecord(rec))
	}

	nextChannels := make([]string, len(channels))
	copy(nextChannels, channels)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nextRecords
	s.index = nextIndex
	s.channels = nextChannels
	s.hint = hint
	return nil
}

// Reset substitutes the empty dataset, keeping only the status hint.
func (s *Store) Reset(hint models.WorkflowStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.index = make(map[models.RecordID]int)
	s.channels = nil
	s.hint = hint
}

// SetAllocation stores quantity for channel on the record id. Negative quantities are
// stored as 0 and large ones capped at MaxQuantity. It reports false, and changes nothing, when id is unknown.
func (s *Store) SetAllocation(id models.RecordID, channel string, quantity int) (models.AllocationRecord, bool) {
	if quantity < 0 {
		quantity = 0
	}
	quantity = ClampQuantity(quantity)

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return models.AllocationRecord{}, false
	}

	rec := &s.records[pos]
	if rec.Channels == nil {
		rec.Channels = make(map[string]int)
	}
	rec.Channels[channel] = quantity
	return rec.Clone(), true
}

// Record looks a row up by id.
func (s *Store) Record(id models.RecordID) (models.AllocationRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return models.AllocationRecord{}, false
	}
	return s.records[pos].Clone(), true
}

// Channels returns the ordered channel identifiers.
func (s *Store) Channels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.channels))
	copy(out, s.channels)
	return out
}

// Len is the number of loaded records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot deep-copies the current dataset so pure engines can work on it freely.
func (s *Store) Snapshot() Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]models.AllocationRecord, len(s.records))
	for i, rec := range s.records {
		records[i] = rec.Clone()
	}
	channels := make([]string, len(s.channels))
	copy(channels, s.channels)

	return Dataset{Records: records, Channels: channels, StatusHint: s.hint}
}

// SnapshotForPersist projects every record onto the bulk write shape, in dataset order.
func (s *Store) SnapshotForPersist() []models.PersistEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PersistEntry, 0, len(s.records))
	for _, rec := range s.records {
		channels := make(map[string]int, len(rec.Channels))
		for k, v := range rec.Channels {
			channels[k] = v
		}
		out = append(out, models.PersistEntry{EAN: rec.EAN, Channels: channels})
	}
	return out
}

func normalizeRecord(rec models.AllocationRecord) models.AllocationRecord {
	out := rec.Clone()
	if out.Units < 0 {
		out.Units = 0
	}
	out.Units = ClampQuantity(out.Units)
	for k, v := range out.Channels {
		if v < 0 {
			v = 0
		}
		out.Channels[k] = ClampQuantity(v)
	}
	return out
}
