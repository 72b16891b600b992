package market

import (
	"fmt"
	"sync"
	"time"

	"market-sim/internal/logger"
)

// Options configures an Engine. Zero values pick defaults.
type Options struct {
	Categories   []string
	HistoryLimit int           // 0 = DefaultHistoryLimit
	TickInterval time.Duration // 0 = one hour
	Clock        Clock         // nil = SystemClock
	Steps        StepSource    // nil = RandomSteps seeded from the clock
}

// Engine owns one independent market simulation: its trends, price
// history, pending events and recurring tick.
type Engine struct {
	store     *TrendStore
	pricing   *PricingEngine
	simulator *TrendSimulator
	scanner   *InvestmentScanner
	events    *EventScheduler
	ledger    *PriceHistoryLedger
	clock     Clock
	interval  time.Duration

	mu     sync.Mutex
	ticker Timer
	closed bool
}

// NewEngine creates an engine tracking opts.Categories.
func NewEngine(opts Options) *Engine {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	steps := opts.Steps
	if steps == nil {
		steps = NewRandomSteps(clock.Now().UnixNano())
	}
	interval := opts.TickInterval
	if interval <= 0 {
		interval = time.Hour
	}

	store := NewTrendStore(opts.Categories, func(string) int { return steps.InitialVolume() }, clock.Now())
	return &Engine{
		store:     store,
		pricing:   NewPricingEngine(store),
		simulator: NewTrendSimulator(store, steps, clock),
		scanner:   NewInvestmentScanner(store),
		events:    NewEventScheduler(store, clock),
		ledger:    NewPriceHistoryLedger(opts.HistoryLimit, clock),
		clock:     clock,
		interval:  interval,
	}
}

// ComputePrice returns the live price of item.
func (e *Engine) ComputePrice(item Item, ctx *PricingContext) int {
	return e.pricing.ComputePrice(item, ctx)
}

// PredictFuturePrice estimates item's price daysAhead days from now.
func (e *Engine) PredictFuturePrice(item Item, daysAhead int, ctx *PricingContext) int {
	return e.pricing.PredictFuturePrice(item, daysAhead, ctx)
}

// Trend returns the trend of category.
func (e *Engine) Trend(category string) (MarketTrend, bool) {
	c, ok := e.store.Get(category)
	return c.MarketTrend, ok
}

// Trends returns every category's trend, sorted by category.
func (e *Engine) Trends() []MarketTrend {
	all := e.store.All()
	out := make([]MarketTrend, len(all))
	for i, c := range all {
		out[i] = c.MarketTrend
	}
	return out
}

// Demand returns the demand multiplier of category, 1.0 when untracked.
func (e *Engine) Demand(category string) float64 {
	_, d := e.store.Multipliers(category)
	return d
}

// Summary partitions categories by prediction.
func (e *Engine) Summary() MarketSummary { return e.scanner.Summary() }

// InvestmentOpportunities returns categories that currently look underpriced.
func (e *Engine) InvestmentOpportunities() []string { return e.scanner.Opportunities() }

// RecordPrice appends price to itemID's history with no volume attached.
func (e *Engine) RecordPrice(itemID string, price int) {
	e.ledger.Record(itemID, price, 0)
}

// RecordItemPrice appends price to item's history together with the live
// volume of its category.
func (e *Engine) RecordItemPrice(item Item, price int) {
	vol := 0
	if c, ok := e.store.Get(item.Category); ok {
		vol = c.Volume
	}
	e.ledger.Record(item.ID, price, vol)
}

// PriceHistory returns itemID's recorded prices, empty when unknown.
func (e *Engine) PriceHistory(itemID string) PriceHistory { return e.ledger.History(itemID) }

// Ledger exposes the price history ledger for persistence wiring.
func (e *Engine) Ledger() *PriceHistoryLedger { return e.ledger }

// ApplySeasonalEvent multiplies every trend by multiplier for duration d.
func (e *Engine) ApplySeasonalEvent(name string, multiplier float64, d time.Duration) (*EventHandle, error) {
	return e.events.Apply(name, multiplier, d)
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.clock.Now() }

// ResumeSeasonalEvent re-applies a previously applied event for the time
// left until info.RevertsAt. It returns a nil handle when the event has
// already expired.
func (e *Engine) ResumeSeasonalEvent(info EventInfo) (*EventHandle, error) {
	remaining := info.RevertsAt.Sub(e.clock.Now())
	if remaining <= 0 {
		return nil, nil
	}
	return e.events.Apply(info.Name, info.Multiplier, remaining)
}

// ActiveEvents lists events that have not been reverted yet.
func (e *Engine) ActiveEvents() []EventInfo { return e.events.Active() }

// Tick advances the simulation by one step.
func (e *Engine) Tick() { e.simulator.Tick() }

// Snapshot returns every category's trend and demand with active seasonal
// events divided out. Events are persisted separately and resumed on restore,
// so a saved snapshot never carries an event nothing will revert.
func (e *Engine) Snapshot() []CategoryState { return e.events.BaseStates() }

// Restore loads saved category states. Unknown categories are skipped.
func (e *Engine) Restore(states []CategoryState) int { return e.store.Restore(states) }

// Start begins the recurring tick. Calling it again, or after Close, is a
// no-op.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.ticker != nil {
		return
	}
	e.ticker = e.clock.Every(e.interval, e.Tick)
	logger.Info("ENGINE", fmt.Sprintf("Ticking every %s", e.interval))
}

// Close stops the recurring tick and reverts all pending events so no
// timer fires after teardown.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	t := e.ticker
	e.ticker = nil
	e.mu.Unlock()

	if t != nil {
		t.Stop()
	}
	e.events.CancelAll()
}
