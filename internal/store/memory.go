package store

import (
	"errors"
	"sync"
	"time"

	"github.com/atmoslab/upperair/internal/sounding"
)

// ErrNotFound is returned when no sounding is available for a station.
var ErrNotFound = errors.New("no sounding data for station")

// MemoryStore is a concurrency-safe in-memory sounding store, mainly for
// development and tests. Soundings per station are kept ordered by
// observation time.
type MemoryStore struct {
	mu sync.RWMutex

	// key: station key, value: soundings ordered by ObservedAt ascending
	data map[string][]sounding.Sounding

	// retention configuration
	maxHistory int           // max soundings per station, <= 0 means unlimited
	maxAge     time.Duration // optional max age
}

// NewMemoryStore creates a MemoryStore with optional retention limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string][]sounding.Sounding),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveSounding inserts a sounding in observation-time order and enforces
// retention.
func (s *MemoryStore) SaveSounding(snd sounding.Sounding) error {
	key := snd.Station.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.data[key]

	// Insert keeping ascending ObservedAt; reanalysis backfills may arrive
	// out of order.
	i := len(history)
	for i > 0 && history[i-1].ObservedAt.After(snd.ObservedAt) {
		i--
	}
	history = append(history, sounding.Sounding{})
	copy(history[i+1:], history[i:])
	history[i] = snd

	if s.maxHistory > 0 && len(history) > s.maxHistory {
		over := len(history) - s.maxHistory
		history = history[over:]
	}

	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		j := 0
		for ; j < len(history); j++ {
			if !history[j].ObservedAt.Before(cutoff) {
				break
			}
		}
		if j > 0 && j < len(history) {
			history = history[j:]
		}
	}

	s.data[key] = history
	return nil
}

// Latest returns the most recent sounding for a station.
func (s *MemoryStore) Latest(stationID string) (sounding.Sounding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[stationID]
	if len(history) == 0 {
		return sounding.Sounding{}, ErrNotFound
	}
	return history[len(history)-1], nil
}

// Range returns all soundings for a station between from and to (inclusive).
func (s *MemoryStore) Range(stationID string, from, to time.Time) ([]sounding.Sounding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.data[stationID]
	if len(history) == 0 {
		return nil, ErrNotFound
	}

	var result []sounding.Sounding
	for _, snd := range history {
		if !snd.ObservedAt.Before(from) && !snd.ObservedAt.After(to) {
			result = append(result, snd)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
