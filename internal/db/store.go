package db

import (
	"fmt"

	"market-sim/internal/logger"
	"market-sim/internal/market"

	"golang.org/x/sync/singleflight"
)

// Store connects a DB to a running engine: it persists recorded prices and
// trend snapshots, and restores them together with pending events.
// A singleflight.Group coalesces concurrent history loads for the same item,
// which happen when several goroutines first touch an item at once.
type Store struct {
	db    *DB
	keep  int
	group singleflight.Group
}

// NewStore creates a Store keeping up to keep history rows per item.
func NewStore(d *DB, keep int) *Store {
	return &Store{db: d, keep: keep}
}

// AppendPrice implements market.HistorySink.
func (s *Store) AppendPrice(itemID string, e market.PriceEntry) error {
	return s.db.AppendPrice(itemID, e, s.keep)
}

// LoadHistory implements market.HistorySource.
func (s *Store) LoadHistory(itemID string) ([]market.PriceEntry, error) {
	v, err, _ := s.group.Do(itemID, func() (interface{}, error) {
		return s.db.LoadPriceHistory(itemID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]market.PriceEntry), nil
}

// Hydrate restores saved trends into e, resumes logged events whose revert
// time has not passed, and attaches the store as the ledger's sink and
// source. Item histories are loaded on first access.
func (s *Store) Hydrate(e *market.Engine) error {
	states, err := s.db.LoadTrends()
	if err != nil {
		return err
	}
	restored := e.Restore(states)

	pending, err := s.db.PendingEvents(e.Now())
	if err != nil {
		return err
	}
	resumed := 0
	for _, info := range pending {
		h, err := e.ResumeSeasonalEvent(info)
		if err != nil {
			logger.Warn("DB", fmt.Sprintf("resume event %q: %v", info.Name, err))
			continue
		}
		if h != nil {
			resumed++
		}
	}

	e.Ledger().SetSink(s)
	e.Ledger().SetSource(s)

	logger.Success("DB", fmt.Sprintf("Restored %d trends, resumed %d events", restored, resumed))
	return nil
}

// SaveSnapshot persists e's trends with active events divided out.
func (s *Store) SaveSnapshot(e *market.Engine) error {
	return s.db.SaveTrends(e.Snapshot())
}

// LogEvent persists an applied event.
func (s *Store) LogEvent(info market.EventInfo) error {
	return s.db.LogEvent(info)
}
