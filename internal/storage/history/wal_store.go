// Package history persists completed scan cycles: an append-only WAL for
// cross-cycle history plus a CSV export of the latest cycle.
package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/vadiminshakov/carryscan/internal/domain"
)

const (
	defaultCycleDir   = "./wal/cycles"
	cycleSegmentLimit = 1000
	cycleMaxSegments  = 100
	cycleKeyPrefix    = "cycle_"
)

// Cycle is the persisted form of one completed scan cycle.
type Cycle struct {
	ID    string                `json:"id"`
	Venue string                `json:"venue"`
	Time  time.Time             `json:"time"`
	Rows  []domain.ArbitrageRow `json:"rows"`
}

// CycleRecord pairs a stored cycle with its WAL index.
type CycleRecord struct {
	Index uint64
	Cycle Cycle
}

// WALStore appends scan cycles to a WAL. Cycles are independent; the WAL
// is the only cross-cycle state the scanner keeps.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens (or creates) the cycle WAL under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultCycleDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "cycle_",
		SegmentThreshold: cycleSegmentLimit,
		MaxSegments:      cycleMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init cycle WAL")
	}

	return &WALStore{wal: wal}, nil
}

// Append writes one cycle. Callers must set the venue.
func (s *WALStore) Append(c Cycle) error {
	if s == nil || s.wal == nil {
		return errors.New("cycle store is not initialized")
	}
	if c.Venue == "" {
		return errors.New("cycle venue is required")
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal cycle")
	}

	key := fmt.Sprintf("%s%s", cycleKeyPrefix, c.Venue)

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	return s.wal.Write(nextIndex, key, payload)
}

// CyclesAfter returns all cycles written after the provided WAL index. It
// is the read path for tooling replaying history from a known position.
func (s *WALStore) CyclesAfter(index uint64) ([]CycleRecord, error) {
	if s == nil || s.wal == nil {
		return nil, errors.New("cycle store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.wal.CurrentIndex()
	if current <= index {
		return nil, nil
	}

	records := make([]CycleRecord, 0, current-index)
	for idx := index + 1; idx <= current; idx++ {
		key, payload, err := s.wal.Get(idx)
		if err != nil {
			return nil, errors.Wrapf(err, "read cycle at index %d", idx)
		}
		// a missing record comes back with an empty key.
		if !strings.HasPrefix(key, cycleKeyPrefix) {
			continue
		}
		var c Cycle
		if err := json.Unmarshal(payload, &c); err != nil {
			return nil, errors.Wrap(err, "decode cycle")
		}
		records = append(records, CycleRecord{Index: idx, Cycle: c})
	}

	return records, nil
}

// CurrentIndex returns the latest WAL index stored.
func (s *WALStore) CurrentIndex() uint64 {
	if s == nil || s.wal == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.wal.CurrentIndex()
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("cycle store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
