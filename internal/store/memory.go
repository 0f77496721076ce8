package store

import (
	"errors"
	"sync"
	"time"

	"github.com/pwshub/weathercloud-hub/internal/weathercloud"
)

var (
	// ErrNotFound is returned when no report is available for a station.
	ErrNotFound = errors.New("no report for station")
)

// Entry is one stored report together with the time it was fetched.
type Entry struct {
	Report    *weathercloud.WeatherReport `json:"report"`
	FetchedAt time.Time                   `json:"fetchedAt"`
}

// ReportHistory holds a time-ordered list of report entries for a station.
type ReportHistory struct {
	Entries []Entry
}

// MemoryStore is a concurrency-safe in-memory report store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: station id, value: history
	data map[string]*ReportHistory

	// retention configuration
	maxHistory int           // max number of entries per station
	maxAge     time.Duration // optional max age for entries
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ReportHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveReport appends a new report for a station and enforces retention.
func (s *MemoryStore) SaveReport(id string, report *weathercloud.WeatherReport) {
	s.saveAt(id, report, time.Now())
}

func (s *MemoryStore) saveAt(id string, report *weathercloud.WeatherReport, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[id]
	if !ok {
		history = &ReportHistory{}
		s.data[id] = history
	}

	history.Entries = append(history.Entries, Entry{Report: report, FetchedAt: at})

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Entries) > s.maxHistory {
		over := len(history.Entries) - s.maxHistory
		history.Entries = history.Entries[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := at.Add(-s.maxAge)
		i := 0
		for ; i < len(history.Entries); i++ {
			if !history.Entries[i].FetchedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			history.Entries = history.Entries[i:]
		}
	}
}

// Latest returns the most recent entry for a station.
func (s *MemoryStore) Latest(id string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[id]
	if !ok || len(history.Entries) == 0 {
		return Entry{}, ErrNotFound
	}
	return history.Entries[len(history.Entries)-1], nil
}

// Range returns all entries for a station fetched between from and to
// (inclusive).
func (s *MemoryStore) Range(id string, from, to time.Time) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[id]
	if !ok || len(history.Entries) == 0 {
		return nil, ErrNotFound
	}

	var result []Entry
	for _, entry := range history.Entries {
		if !entry.FetchedAt.Before(from) && !entry.FetchedAt.After(to) {
			result = append(result, entry)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}

// Stations returns the ids that currently hold at least one entry.
func (s *MemoryStore) Stations() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id, history := range s.data {
		if len(history.Entries) > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
