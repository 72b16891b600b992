package market

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"market-sim/internal/logger"
)

// ErrInvalidMultiplier is returned for event multipliers that are not
// strictly positive; such an event could never be undone.
var ErrInvalidMultiplier = errors.New("market: event multiplier must be positive")

// EventInfo describes an active seasonal event.
type EventInfo struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Multiplier float64   `json:"multiplier"`
	AppliedAt  time.Time `json:"applied_at"`
	RevertsAt  time.Time `json:"reverts_at"`
}

// EventScheduler applies temporary multipliers to every category trend and
// reverts them when they expire.
//
// Each event remembers the factor it actually applied to each category
// (which differs from the requested multiplier only when the result was
// clamped) and on revert divides the category's live trend by that factor.
// Simulator ticks between apply and revert therefore compose with the event,
// and overlapping events each undo only their own contribution.
type EventScheduler struct {
	store *TrendStore
	clock Clock

	mu     sync.Mutex
	nextID uint64
	active map[uint64]*EventHandle
}

// NewEventScheduler creates a scheduler over store.
func NewEventScheduler(store *TrendStore, clock Clock) *EventScheduler {
	return &EventScheduler{
		store:  store,
		clock:  clock,
		active: make(map[uint64]*EventHandle),
	}
}

// EventHandle controls one applied event.
type EventHandle struct {
	info    EventInfo
	sched   *EventScheduler
	applied map[string]float64
	timer   Timer // guarded by sched.mu
	once    sync.Once
	done    chan struct{}
}

// Apply multiplies every category's trend by multiplier now and schedules
// the matching revert after d.
func (s *EventScheduler) Apply(name string, multiplier float64, d time.Duration) (*EventHandle, error) {
	if !(multiplier > 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMultiplier, multiplier)
	}
	if d < 0 {
		d = 0
	}
	now := s.clock.Now()

	s.mu.Lock()
	applied := make(map[string]float64)
	s.store.Update(func(c *CategoryState) {
		old := c.TrendMultiplier
		next := clampMultiplier(old * multiplier)
		factor := multiplier
		if next != old*multiplier {
			factor = next / old
		}
		applied[c.Category] = factor
		c.TrendMultiplier = next
		c.LastUpdate = now
	})

	s.nextID++
	h := &EventHandle{
		info: EventInfo{
			ID:         s.nextID,
			Name:       name,
			Multiplier: multiplier,
			AppliedAt:  now,
			RevertsAt:  now.Add(d),
		},
		sched:   s,
		applied: applied,
		done:    make(chan struct{}),
	}
	s.active[h.info.ID] = h
	h.timer = s.clock.AfterFunc(d, h.revert)
	s.mu.Unlock()

	logger.Info("EVENT", fmt.Sprintf("Applied %q x%.3f to %d categories for %s", name, multiplier, len(applied), d))
	return h, nil
}

// Active returns the events that have not yet been reverted, oldest first.
func (s *EventScheduler) Active() []EventInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventInfo, 0, len(s.active))
	for _, h := range s.active {
		out = append(out, h.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BaseStates returns every category's state with the trend factors of
// active events divided out. Trend changes and the active set are read under
// the same lock, so an event is either fully included or fully excluded.
func (s *EventScheduler) BaseStates() []CategoryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	states := s.store.All()
	for i := range states {
		for _, h := range s.active {
			if factor, ok := h.applied[states[i].Category]; ok {
				states[i].TrendMultiplier /= factor
			}
		}
		states[i].TrendMultiplier = clampMultiplier(states[i].TrendMultiplier)
	}
	return states
}

// CancelAll reverts every active event immediately.
func (s *EventScheduler) CancelAll() {
	s.mu.Lock()
	handles := make([]*EventHandle, 0, len(s.active))
	for _, h := range s.active {
		handles = append(handles, h)
	}
	s.mu.Unlock()

	sort.Slice(handles, func(i, j int) bool { return handles[i].info.ID > handles[j].info.ID })
	for _, h := range handles {
		h.Cancel()
	}
}

// Info returns the event's description.
func (h *EventHandle) Info() EventInfo { return h.info }

// Done is closed once the event has been reverted.
func (h *EventHandle) Done() <-chan struct{} { return h.done }

// Cancel stops the pending revert timer and reverts the event now. It
// reports whether this call performed the revert; later calls are no-ops.
func (h *EventHandle) Cancel() bool {
	h.sched.mu.Lock()
	t := h.timer
	h.sched.mu.Unlock()
	if t != nil {
		t.Stop()
	}
	reverted := false
	h.once.Do(func() {
		h.undo()
		reverted = true
	})
	return reverted
}

func (h *EventHandle) revert() {
	h.once.Do(h.undo)
}

func (h *EventHandle) undo() {
	s := h.sched
	now := s.clock.Now()

	s.mu.Lock()
	s.store.Update(func(c *CategoryState) {
		factor, ok := h.applied[c.Category]
		if !ok {
			return
		}
		c.TrendMultiplier /= factor
		c.LastUpdate = now
	})
	delete(s.active, h.info.ID)
	s.mu.Unlock()
	close(h.done)

	logger.Info("EVENT", fmt.Sprintf("Reverted %q x%.3f", h.info.Name, h.info.Multiplier))
}
