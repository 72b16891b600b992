package market

import (
	"sort"
	"sync"
	"time"
)

// TrendStore holds the trend and demand multiplier of every tracked
// category. A category's trend and demand are stored in one record so
// readers never observe a torn pair.
type TrendStore struct {
	mu         sync.RWMutex
	categories map[string]*CategoryState
}

// NewTrendStore creates a store tracking the given categories, each with a
// neutral trend and demand and the given starting volume.
func NewTrendStore(categories []string, initialVolume func(category string) int, now time.Time) *TrendStore {
	s := &TrendStore{categories: make(map[string]*CategoryState, len(categories))}
	for _, cat := range categories {
		vol := 0
		if initialVolume != nil {
			vol = initialVolume(cat)
		}
		if vol < 0 {
			vol = 0
		}
		s.categories[cat] = &CategoryState{
			MarketTrend: MarketTrend{
				Category:        cat,
				TrendMultiplier: 1.0,
				Volume:          vol,
				LastUpdate:      now,
				Prediction:      PredictionStable,
			},
			DemandMultiplier: 1.0,
		}
	}
	return s
}

// Get returns a copy of a category's state.
func (s *TrendStore) Get(category string) (CategoryState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[category]
	if !ok {
		return CategoryState{}, false
	}
	return *c, true
}

// Multipliers returns the trend and demand multiplier of a category, or
// neutral 1.0 values when it is not tracked.
func (s *TrendStore) Multipliers(category string) (trend, demand float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.categories[category]; ok {
		return c.TrendMultiplier, c.DemandMultiplier
	}
	return 1.0, 1.0
}

// All returns copies of every category's state sorted by category.
func (s *TrendStore) All() []CategoryState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CategoryState, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Categories returns the tracked category names, sorted.
func (s *TrendStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.categories))
	for cat := range s.categories {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Update runs fn on every category under the write lock. The whole pass is
// atomic with respect to readers and other writers.
func (s *TrendStore) Update(fn func(c *CategoryState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		fn(c)
		c.TrendMultiplier = clampMultiplier(c.TrendMultiplier)
		c.DemandMultiplier = clampMultiplier(c.DemandMultiplier)
		if c.Volume < 0 {
			c.Volume = 0
		}
	}
}

// Restore overwrites tracked categories from saved states. States for
// categories the store does not track are ignored. Returns how many were
// applied.
func (s *TrendStore) Restore(states []CategoryState) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, st := range states {
		c, ok := s.categories[st.Category]
		if !ok {
			continue
		}
		*c = st
		c.TrendMultiplier = clampMultiplier(c.TrendMultiplier)
		c.DemandMultiplier = clampMultiplier(c.DemandMultiplier)
		if c.Volume < 0 {
			c.Volume = 0
		}
		switch c.Prediction {
		case PredictionRising, PredictionFalling, PredictionStable:
		default:
			c.Prediction = PredictionStable
		}
		n++
	}
	return n
}

func sortedKeys(m map[string]*CategoryState) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
