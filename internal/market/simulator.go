package market

import (
	"fmt"
	"math/rand"

	"market-sim/internal/logger"
)

const (
	maxTrendStep   = 0.1
	predictionBand = 0.05
	maxVolumeStep  = 100
	demandStep     = 0.05
	minStartVolume = 100
	maxStartVolume = 1000
)

// StepSource supplies the random draws the simulator consumes.
type StepSource interface {
	// TrendDelta returns a value in [-0.1, 0.1).
	TrendDelta() float64
	// VolumeDelta returns an integer in [-100, 100].
	VolumeDelta() int
	// InitialVolume returns a starting volume for a new category.
	InitialVolume() int
}

// RandomSteps draws steps uniformly from a seeded generator. It is not safe
// for concurrent use; the simulator only calls it under the store lock.
type RandomSteps struct {
	rng *rand.Rand
}

// NewRandomSteps returns a StepSource seeded with seed.
func NewRandomSteps(seed int64) *RandomSteps {
	return &RandomSteps{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomSteps) TrendDelta() float64 {
	return r.rng.Float64()*2*maxTrendStep - maxTrendStep
}

func (r *RandomSteps) VolumeDelta() int {
	return r.rng.Intn(2*maxVolumeStep+1) - maxVolumeStep
}

func (r *RandomSteps) InitialVolume() int {
	return minStartVolume + r.rng.Intn(maxStartVolume-minStartVolume)
}

// TrendSimulator advances a TrendStore one simulated step at a time.
type TrendSimulator struct {
	store *TrendStore
	steps StepSource
	clock Clock
}

// NewTrendSimulator creates a simulator mutating store.
func NewTrendSimulator(store *TrendStore, steps StepSource, clock Clock) *TrendSimulator {
	return &TrendSimulator{store: store, steps: steps, clock: clock}
}

// Tick moves every category by one random step. Categories are visited in
// sorted order so a seeded source replays identically.
func (t *TrendSimulator) Tick() {
	now := t.clock.Now()
	var rising, falling int

	t.store.mu.Lock()
	n := len(t.store.categories)
	for _, cat := range sortedKeys(t.store.categories) {
		c := t.store.categories[cat]

		delta := t.steps.TrendDelta()
		c.TrendMultiplier = clampMultiplier(c.TrendMultiplier + delta)
		c.Prediction = predictionFor(delta)

		volDelta := t.steps.VolumeDelta()
		c.Volume += volDelta
		if c.Volume < 0 {
			c.Volume = 0
		}
		if volDelta > 0 {
			c.DemandMultiplier = clampMultiplier(c.DemandMultiplier + demandStep)
		} else {
			c.DemandMultiplier = clampMultiplier(c.DemandMultiplier - demandStep)
		}
		c.LastUpdate = now

		switch c.Prediction {
		case PredictionRising:
			rising++
		case PredictionFalling:
			falling++
		}
	}
	t.store.mu.Unlock()

	logger.Debug("TICK", fmt.Sprintf("%d categories: %d rising, %d falling", n, rising, falling))
}

func predictionFor(delta float64) Prediction {
	switch {
	case delta > predictionBand:
		return PredictionRising
	case delta < -predictionBand:
		return PredictionFalling
	default:
		return PredictionStable
	}
}
