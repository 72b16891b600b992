package market

import (
	"fmt"
	"sync"

	"market-sim/internal/logger"
)

// HistorySink receives every recorded price entry, e.g. to persist it.
type HistorySink interface {
	AppendPrice(itemID string, entry PriceEntry) error
}

// HistorySource loads an item's persisted entries, oldest first.
type HistorySource interface {
	LoadHistory(itemID string) ([]PriceEntry, error)
}

// PriceHistoryLedger keeps the most recent price entries of each item.
// With a source attached, an item's persisted history is loaded the first
// time the item is read or recorded.
type PriceHistoryLedger struct {
	mu      sync.RWMutex
	limit   int
	clock   Clock
	sink    HistorySink
	source  HistorySource
	entries map[string][]PriceEntry // present key = loaded, possibly empty
}

// NewPriceHistoryLedger creates a ledger keeping up to limit entries per
// item. A limit <= 0 uses DefaultHistoryLimit.
func NewPriceHistoryLedger(limit int, clock Clock) *PriceHistoryLedger {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &PriceHistoryLedger{
		limit:   limit,
		clock:   clock,
		entries: make(map[string][]PriceEntry),
	}
}

// SetSink attaches a sink that receives each new entry after it is stored.
func (l *PriceHistoryLedger) SetSink(sink HistorySink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = sink
}

// SetSource attaches a source consulted for items not yet in memory.
func (l *PriceHistoryLedger) SetSource(src HistorySource) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.source = src
}

// load pulls itemID's persisted history from the source once. A failed load
// is logged and retried on the next access.
func (l *PriceHistoryLedger) load(itemID string) {
	l.mu.RLock()
	_, loaded := l.entries[itemID]
	src := l.source
	l.mu.RUnlock()
	if loaded || src == nil {
		return
	}

	persisted, err := src.LoadHistory(itemID)
	if err != nil {
		logger.Warn("HISTORY", fmt.Sprintf("load %s: %v", itemID, err))
		return
	}
	cp := make([]PriceEntry, len(persisted))
	copy(cp, persisted)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.entries[itemID]; !ok {
		l.entries[itemID] = l.trim(cp)
	}
}

// Record appends a price observation for itemID, dropping the oldest entry
// once the ledger holds more than its limit.
func (l *PriceHistoryLedger) Record(itemID string, price, volume int) {
	entry := PriceEntry{Date: l.clock.Now(), Price: price, Volume: volume}
	l.load(itemID)

	l.mu.Lock()
	l.entries[itemID] = l.trim(append(l.entries[itemID], entry))
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		if err := sink.AppendPrice(itemID, entry); err != nil {
			logger.Warn("HISTORY", fmt.Sprintf("persist %s: %v", itemID, err))
		}
	}
}

// History returns a copy of an item's entries, oldest first. Unknown items
// yield an empty history.
func (l *PriceHistoryLedger) History(itemID string) PriceHistory {
	l.load(itemID)
	l.mu.RLock()
	defer l.mu.RUnlock()
	src := l.entries[itemID]
	out := make([]PriceEntry, len(src))
	copy(out, src)
	return PriceHistory{ItemID: itemID, Entries: out}
}

// Items returns the number of in-memory items with at least one entry.
func (l *PriceHistoryLedger) Items() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := 0
	for _, e := range l.entries {
		if len(e) > 0 {
			n++
		}
	}
	return n
}

func (l *PriceHistoryLedger) trim(e []PriceEntry) []PriceEntry {
	if over := len(e) - l.limit; over > 0 {
		kept := make([]PriceEntry, l.limit)
		copy(kept, e[over:])
		return kept
	}
	return e
}
