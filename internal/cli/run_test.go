package cli

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"market-sim/internal/config"
	"market-sim/internal/db"
)

func liveConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "live.db")
	cfg.Categories = []string{"tires", "turbo"}
	cfg.SnapshotInterval = 10 * time.Millisecond
	cfg.Seed = 1
	return cfg
}

func TestRunLive_SnapshotsWithoutEventAndStops(t *testing.T) {
	cfg := liveConfig(t)
	ev := &eventFlags{name: "summer", multiplier: 1.5, duration: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- runLive(ctx, cfg, ev) }()

	// Wait for a periodic snapshot written while the event is active.
	deadline := time.Now().Add(5 * time.Second)
	var rows int
	for time.Now().Before(deadline) {
		d, err := db.Open(cfg.DBPath)
		if err == nil {
			states, _ := d.LoadTrends()
			d.Close()
			rows = len(states)
			for _, s := range states {
				if math.Abs(s.TrendMultiplier-1.0) > 1e-9 {
					t.Errorf("periodic snapshot %s trend = %v, want 1.0 with the event divided out", s.Category, s.TrendMultiplier)
				}
			}
		}
		if rows > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if rows != len(cfg.Categories) {
		t.Fatalf("periodic snapshot rows = %d, want %d", rows, len(cfg.Categories))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("runLive: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runLive did not stop after cancel")
	}

	d, err := db.Open(cfg.DBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	states, err := d.LoadTrends()
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range states {
		if math.Abs(s.TrendMultiplier-1.0) > 1e-9 {
			t.Errorf("final snapshot %s trend = %v, want 1.0", s.Category, s.TrendMultiplier)
		}
	}

	pending, err := d.PendingEvents(time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Name != "summer" || pending[0].Multiplier != 1.5 {
		t.Errorf("pending events = %+v, want the summer event", pending)
	}
}

func TestRunLive_RejectsZeroSnapshotInterval(t *testing.T) {
	cfg := liveConfig(t)
	cfg.SnapshotInterval = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runLive(ctx, cfg, &eventFlags{}); err == nil {
		t.Error("runLive with zero snapshot interval = nil error")
	}
}

func TestRun_ZeroSnapshotIntervalFromEnv(t *testing.T) {
	t.Setenv("MARKET_SNAPSHOT_INTERVAL", "0s")
	if _, err := execute(t, "run", "--db", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Error("run accepted MARKET_SNAPSHOT_INTERVAL=0s")
	}
}
