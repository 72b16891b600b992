package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"market-sim/internal/config"
	"market-sim/internal/db"
	"market-sim/internal/logger"
	"market-sim/internal/market"
)

// NewRootCmd creates the marketsim command tree.
func NewRootCmd(version string) *cobra.Command {
	cfg := config.Default()

	rootCmd := &cobra.Command{
		Use:   "marketsim",
		Short: "Market simulation & dynamic pricing engine",
		Long: `marketsim evolves per-category market trends, prices catalog items
against them, flags investment opportunities and applies seasonal events.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			*cfg = *loaded
			if err := applyRootFlags(cmd, cfg); err != nil {
				return err
			}
			logger.SetLevel(cfg.LogLevel)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int64("seed", 0, "Random seed for trend evolution (0 = time based)")
	rootCmd.PersistentFlags().StringSlice("categories", nil, "Tracked item categories")
	rootCmd.PersistentFlags().String("db", "", "SQLite database path")

	rootCmd.AddCommand(newSimulateCmd(cfg))
	rootCmd.AddCommand(newPriceCmd(cfg))
	rootCmd.AddCommand(newRunCmd(cfg, version))
	rootCmd.AddCommand(newHistoryCmd(cfg))
	rootCmd.AddCommand(newVersionCmd(version))

	return rootCmd
}

func applyRootFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("categories") {
		cfg.Categories, _ = flags.GetStringSlice("categories")
	}
	if flags.Changed("db") {
		cfg.DBPath, _ = flags.GetString("db")
	}
	return cfg.Validate()
}

// newEngine builds an engine from cfg on the given clock.
func newEngine(cfg *config.Config, clock market.Clock) *market.Engine {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return market.NewEngine(market.Options{
		Categories:   cfg.Categories,
		HistoryLimit: cfg.HistoryLimit,
		TickInterval: cfg.TickInterval,
		Clock:        clock,
		Steps:        market.NewRandomSteps(seed),
	})
}

// eventFlags describes an optional seasonal event given on the command line.
type eventFlags struct {
	name       string
	multiplier float64
	duration   time.Duration
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "event", "", "Apply a seasonal event with this name")
	cmd.Flags().Float64Var(&f.multiplier, "event-multiplier", 1.2, "Seasonal event trend multiplier")
	cmd.Flags().DurationVar(&f.duration, "event-duration", 24*time.Hour, "Seasonal event duration")
}

func (f *eventFlags) apply(e *market.Engine) (*market.EventHandle, error) {
	if f.name == "" {
		return nil, nil
	}
	return e.ApplySeasonalEvent(f.name, f.multiplier, f.duration)
}

func newSimulateCmd(cfg *config.Config) *cobra.Command {
	var ticks int
	var ev eventFlags

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the market forward offline and print the result",
		Long: `Run the market forward on a virtual clock, one tick per tick interval.
Example: marketsim simulate --ticks 48 --seed 7 --event summer --event-duration 12h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ticks < 0 {
				return fmt.Errorf("ticks must be >= 0, got %d", ticks)
			}
			clock := market.NewManualClock(time.Now())
			e := newEngine(cfg, clock)
			defer e.Close()

			if _, err := ev.apply(e); err != nil {
				return err
			}
			e.Start()
			clock.Advance(time.Duration(ticks) * cfg.TickInterval)

			printMarket(cmd.OutOrStdout(), e)
			return nil
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 24, "Number of ticks to simulate")
	ev.register(cmd)
	return cmd
}

func newPriceCmd(cfg *config.Config) *cobra.Command {
	var (
		item       market.Item
		rarity     string
		seasonal   float64
		bonus      float64
		reputation float64
		region     string
		days       int
		ticks      int
		fromDB     bool
		record     bool
	)

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a single item against the market",
		Long: `Price a single item against a freshly simulated or restored market.
Example: marketsim price --category engine --base 1200 --condition 85 --rarity epic --days 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			item.Rarity = market.Rarity(strings.ToLower(rarity))
			if item.ID == "" {
				item.ID = fmt.Sprintf("%s-%s", item.Category, item.Rarity)
			}

			clock := market.NewManualClock(time.Now())
			e := newEngine(cfg, clock)
			defer e.Close()

			var store *db.Store
			if fromDB || record {
				d, err := db.Open(cfg.DBPath)
				if err != nil {
					return err
				}
				defer d.Close()
				store = db.NewStore(d, cfg.HistoryLimit)
				if err := store.Hydrate(e); err != nil {
					return err
				}
			}
			e.Start()
			clock.Advance(time.Duration(ticks) * cfg.TickInterval)

			ctx := &market.PricingContext{
				Region:           region,
				SeasonalFactor:   &seasonal,
				PlayerReputation: reputation,
			}
			if cmd.Flags().Changed("bonus") {
				ctx.EventBonus = &bonus
			}

			price := e.ComputePrice(item, ctx)
			if record {
				e.RecordItemPrice(item, price)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s, %s, condition %.0f): %d\n", item.ID, item.Category, item.Rarity, item.Condition, price)
			if days > 0 {
				fmt.Fprintf(out, "predicted in %d days: %d\n", days, e.PredictFuturePrice(item, days, ctx))
			}
			if tr, ok := e.Trend(item.Category); ok {
				fmt.Fprintf(out, "trend %.3f (%s), demand %.3f, volume %d\n", tr.TrendMultiplier, tr.Prediction, e.Demand(item.Category), tr.Volume)
			} else {
				fmt.Fprintf(out, "category %q is not tracked; neutral multipliers used\n", item.Category)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&item.ID, "id", "", "Item identifier (defaults to category-rarity)")
	cmd.Flags().StringVar(&item.Category, "category", "", "Item category")
	cmd.Flags().Float64Var(&item.BasePrice, "base", 0, "Base price")
	cmd.Flags().Float64Var(&item.Condition, "condition", 100, "Condition 0-100")
	cmd.Flags().StringVar(&rarity, "rarity", string(market.RarityCommon), "Rarity: common, uncommon, rare, epic, legendary")
	cmd.Flags().Float64Var(&seasonal, "seasonal", 1.0, "Seasonal factor")
	cmd.Flags().Float64Var(&bonus, "bonus", 0, "Flat event bonus added before the reputation discount")
	cmd.Flags().Float64Var(&reputation, "reputation", 0, "Player reputation")
	cmd.Flags().StringVar(&region, "region", "", "Pricing region")
	cmd.Flags().IntVar(&days, "days", 0, "Also predict the price this many days ahead")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "Simulate this many ticks before pricing")
	cmd.Flags().BoolVar(&fromDB, "from-db", false, "Restore trends and history from the database first")
	cmd.Flags().BoolVar(&record, "record", false, "Record the computed price in the database")
	cmd.MarkFlagRequired("category")
	cmd.MarkFlagRequired("base")

	return cmd
}

func newRunCmd(cfg *config.Config, version string) *cobra.Command {
	var ev eventFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the live market until interrupted",
		Long: `Run the live market on the wall clock. Trends and price history are restored
from the database at startup and trend snapshots are written periodically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger.Banner(version)
			return runLive(ctx, cfg, &ev)
		},
	}
	ev.register(cmd)
	return cmd
}

func runLive(ctx context.Context, cfg *config.Config, ev *eventFlags) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer d.Close()

	store := db.NewStore(d, cfg.HistoryLimit)
	e := newEngine(cfg, market.SystemClock{})
	if err := store.Hydrate(e); err != nil {
		return err
	}

	h, err := ev.apply(e)
	if err != nil {
		return err
	}
	if h != nil {
		if err := store.LogEvent(h.Info()); err != nil {
			logger.Warn("DB", err.Error())
		}
	}
	e.Start()

	logger.Section("Market")
	logger.Stats("categories", len(cfg.Categories))
	logger.Stats("tick_interval", cfg.TickInterval.String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SnapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := store.SaveSnapshot(e); err != nil {
					logger.Warn("DB", fmt.Sprintf("snapshot: %v", err))
				}
			}
		}
	})
	g.Go(func() error {
		<-gctx.Done()
		e.Close()
		if err := store.SaveSnapshot(e); err != nil {
			return fmt.Errorf("final snapshot: %w", err)
		}
		logger.Success("ENGINE", "Stopped, trends saved")
		return nil
	})

	return g.Wait()
}

func newHistoryCmd(cfg *config.Config) *cobra.Command {
	var events int

	cmd := &cobra.Command{
		Use:   "history [ITEM_ID]",
		Short: "Show stored price history and recent events",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer d.Close()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				ids, err := d.PricedItems()
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
			} else {
				entries, err := d.LoadPriceHistory(args[0])
				if err != nil {
					return err
				}
				for _, en := range entries {
					fmt.Fprintf(out, "%s  %8d  vol %d\n", en.Date.Format(time.RFC3339), en.Price, en.Volume)
				}
			}

			if events > 0 {
				recent, err := d.RecentEvents(events)
				if err != nil {
					return err
				}
				for _, ev := range recent {
					fmt.Fprintf(out, "event %-16s x%.3f  %s -> %s\n", ev.Name, ev.Multiplier,
						ev.AppliedAt.Format(time.RFC3339), ev.RevertsAt.Format(time.RFC3339))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&events, "events", 0, "Also list this many recent seasonal events")
	return cmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "marketsim %s\n", version)
		},
	}
}

func printMarket(out io.Writer, e *market.Engine) {
	fmt.Fprintf(out, "%-14s %8s %8s %8s  %s\n", "CATEGORY", "TREND", "DEMAND", "VOLUME", "PREDICTION")
	for _, tr := range e.Trends() {
		fmt.Fprintf(out, "%-14s %8.3f %8.3f %8d  %s\n",
			tr.Category, tr.TrendMultiplier, e.Demand(tr.Category), tr.Volume, tr.Prediction)
	}

	sum := e.Summary()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "trending:  %s\n", joinOrDash(sum.Trending))
	fmt.Fprintf(out, "declining: %s\n", joinOrDash(sum.Declining))
	fmt.Fprintf(out, "stable:    %s\n", joinOrDash(sum.Stable))
	fmt.Fprintf(out, "hot deals: %s\n", joinOrDash(sum.HotDeals))
	fmt.Fprintf(out, "investment opportunities: %s\n", joinOrDash(e.InvestmentOpportunities()))

	for _, ev := range e.ActiveEvents() {
		fmt.Fprintf(out, "active event %q x%.3f until %s\n", ev.Name, ev.Multiplier, ev.RevertsAt.Format(time.RFC3339))
	}
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "-"
	}
	return strings.Join(s, ", ")
}
