package market

import (
	"math"
	"sync"
	"time"
)

func newFakeClock() *ManualClock {
	return NewManualClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
}

// scriptedSteps replays fixed deltas, then returns zeros.
type scriptedSteps struct {
	mu      sync.Mutex
	trend   []float64
	volume  []int
	initial int
	drawn   int
}

func (s *scriptedSteps) TrendDelta() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawn++
	if len(s.trend) == 0 {
		return 0
	}
	v := s.trend[0]
	s.trend = s.trend[1:]
	return v
}

func (s *scriptedSteps) VolumeDelta() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.volume) == 0 {
		return 0
	}
	v := s.volume[0]
	s.volume = s.volume[1:]
	return v
}

func (s *scriptedSteps) InitialVolume() int { return s.initial }

func (s *scriptedSteps) trendDraws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawn
}

func newTestEngine(steps StepSource, categories ...string) (*Engine, *ManualClock) {
	clock := newFakeClock()
	if steps == nil {
		steps = &scriptedSteps{initial: 500}
	}
	e := NewEngine(Options{
		Categories: categories,
		Clock:      clock,
		Steps:      steps,
	})
	return e, clock
}

// setState overwrites one category's trend, demand, volume and prediction.
func setState(e *Engine, category string, trend, demand float64, volume int, p Prediction) {
	e.Restore([]CategoryState{{
		MarketTrend: MarketTrend{
			Category:        category,
			TrendMultiplier: trend,
			Volume:          volume,
			Prediction:      p,
		},
		DemandMultiplier: demand,
	}})
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func mustTrend(e *Engine, category string) MarketTrend {
	tr, ok := e.Trend(category)
	if !ok {
		panic("untracked category " + category)
	}
	return tr
}
