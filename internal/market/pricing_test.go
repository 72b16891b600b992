package market

import (
	"testing"
)

func floatPtr(v float64) *float64 { return &v }

func TestComputePrice_Formula(t *testing.T) {
	e, _ := newTestEngine(nil, "engine")
	setState(e, "engine", 1.2, 0.9, 500, PredictionStable)

	item := Item{ID: "v8", Category: "engine", BasePrice: 1000, Condition: 80, Rarity: RarityRare}
	ctx := &PricingContext{SeasonalFactor: floatPtr(1.1), EventBonus: floatPtr(50), PlayerReputation: 500}

	// 1000 * 1.2 * 0.9 * 0.8 * 2.5 * 1.1 = 2376; +50 = 2426; * (1 - 0.075) = 2244.05
	if got := e.ComputePrice(item, ctx); got != 2244 {
		t.Errorf("ComputePrice = %d, want 2244", got)
	}
}

func TestComputePrice_ReputationDiscount(t *testing.T) {
	e, _ := newTestEngine(nil, "tires")
	item := Item{ID: "t1", Category: "tires", BasePrice: 1000, Condition: 100, Rarity: RarityCommon}

	tests := []struct {
		name       string
		reputation float64
		want       int
	}{
		{"none", 0, 1000},
		{"half cap", 500, 925},
		{"at cap", 1000, 850},
		{"beyond cap", 5000, 850},
		{"negative treated as none", -200, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ComputePrice(item, &PricingContext{PlayerReputation: tt.reputation})
			if got != tt.want {
				t.Errorf("ComputePrice(rep=%v) = %d, want %d", tt.reputation, got, tt.want)
			}
		})
	}
}

func TestComputePrice_UnknownCategoryIsNeutral(t *testing.T) {
	e, _ := newTestEngine(nil, "engine")
	setState(e, "engine", 1.8, 1.8, 500, PredictionRising)

	item := Item{ID: "x", Category: "spoilers", BasePrice: 1000, Condition: 50, Rarity: RarityUncommon}
	if got := e.ComputePrice(item, nil); got != 750 {
		t.Errorf("ComputePrice(unknown category) = %d, want 750", got)
	}
}

func TestComputePrice_NilContextMatchesNeutral(t *testing.T) {
	e, _ := newTestEngine(nil, "engine")
	item := Item{ID: "a", Category: "engine", BasePrice: 1234, Condition: 77, Rarity: RarityEpic}
	neutral := &PricingContext{SeasonalFactor: floatPtr(1.0)}
	if a, b := e.ComputePrice(item, nil), e.ComputePrice(item, neutral); a != b {
		t.Errorf("nil ctx = %d, neutral ctx = %d", a, b)
	}
	if a, b := e.ComputePrice(item, nil), e.ComputePrice(item, &PricingContext{}); a != b {
		t.Errorf("nil ctx = %d, zero ctx = %d", a, b)
	}
}

func TestComputePrice_ExplicitZeroSeasonalFactor(t *testing.T) {
	e, _ := newTestEngine(nil, "engine")
	item := Item{ID: "a", Category: "engine", BasePrice: 1000, Condition: 100, Rarity: RarityCommon}
	if got := e.ComputePrice(item, &PricingContext{SeasonalFactor: floatPtr(0)}); got != 0 {
		t.Errorf("ComputePrice(seasonal=0) = %d, want 0", got)
	}
	if got := e.ComputePrice(item, &PricingContext{}); got != 1000 {
		t.Errorf("ComputePrice(seasonal unset) = %d, want 1000", got)
	}
}

func TestComputePrice_Deterministic(t *testing.T) {
	e, _ := newTestEngine(NewRandomSteps(3), "engine", "turbo")
	e.Tick()
	item := Item{ID: "a", Category: "turbo", BasePrice: 4999, Condition: 63, Rarity: RarityLegendary}
	ctx := &PricingContext{SeasonalFactor: floatPtr(0.9), PlayerReputation: 120}
	first := e.ComputePrice(item, ctx)
	for i := 0; i < 100; i++ {
		if got := e.ComputePrice(item, ctx); got != first {
			t.Fatalf("call %d = %d, want %d", i, got, first)
		}
	}
}

func TestComputePrice_NeverNegative(t *testing.T) {
	e, _ := newTestEngine(NewRandomSteps(5), "engine")
	for i := 0; i < 200; i++ {
		e.Tick()
		for _, cond := range []float64{0, 1, 50, 100} {
			for _, base := range []float64{0, 1, 999} {
				item := Item{Category: "engine", BasePrice: base, Condition: cond, Rarity: RarityCommon}
				if got := e.ComputePrice(item, &PricingContext{PlayerReputation: 2000}); got < 0 {
					t.Fatalf("ComputePrice(%+v) = %d < 0", item, got)
				}
			}
		}
	}
}

func TestComputePrice_RarityOrdering(t *testing.T) {
	e, _ := newTestEngine(nil, "body")
	setState(e, "body", 0.73, 1.31, 500, PredictionFalling)

	order := []Rarity{RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary}
	prev := -1
	for _, r := range order {
		item := Item{Category: "body", BasePrice: 250, Condition: 64, Rarity: r}
		got := e.ComputePrice(item, &PricingContext{SeasonalFactor: floatPtr(1.05), PlayerReputation: 300})
		if got <= prev {
			t.Errorf("price(%s) = %d, not above previous tier %d", r, got, prev)
		}
		prev = got
	}
}

func TestRarity_Premium(t *testing.T) {
	tests := []struct {
		r    Rarity
		want float64
	}{
		{RarityCommon, 1.0},
		{RarityUncommon, 1.5},
		{RarityRare, 2.5},
		{RarityEpic, 4.0},
		{RarityLegendary, 8.0},
		{Rarity("mythic"), 1.0},
	}
	for _, tt := range tests {
		if got := tt.r.Premium(); got != tt.want {
			t.Errorf("%q.Premium() = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0, 0},
		{0.49, 0},
		{0.5, 1},
		{1.5, 2},
		{2244.05, 2244},
		{-3, 0},
	}
	for _, tt := range tests {
		if got := roundPrice(tt.in); got != tt.want {
			t.Errorf("roundPrice(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPredictFuturePrice(t *testing.T) {
	e, _ := newTestEngine(nil, "engine")
	setState(e, "engine", 1.14, 1.0, 500, PredictionRising)
	item := Item{ID: "v8", Category: "engine", BasePrice: 1000, Condition: 100, Rarity: RarityCommon}

	current := e.ComputePrice(item, nil)
	if current != 1140 {
		t.Fatalf("current = %d, want 1140", current)
	}
	// dailyChange = 0.14/7 = 0.02; 1140 * 1.1 = 1254
	if got := e.PredictFuturePrice(item, 5, nil); got != 1254 {
		t.Errorf("PredictFuturePrice(5d) = %d, want 1254", got)
	}
	if got := e.PredictFuturePrice(item, 0, nil); got != current {
		t.Errorf("PredictFuturePrice(0d) = %d, want %d", got, current)
	}
	if tr := mustTrend(e, "engine"); tr.TrendMultiplier != 1.14 {
		t.Errorf("prediction mutated trend to %v", tr.TrendMultiplier)
	}
}

func TestPredictFuturePrice_FallingTrend(t *testing.T) {
	e, _ := newTestEngine(nil, "exhaust")
	setState(e, "exhaust", 0.65, 1.0, 500, PredictionFalling)
	item := Item{Category: "exhaust", BasePrice: 2000, Condition: 100, Rarity: RarityCommon}

	current := e.ComputePrice(item, nil) // 1300
	if got := e.PredictFuturePrice(item, 7, nil); got != 845 {
		t.Errorf("PredictFuturePrice(7d) = %d, want 845 (from %d)", got, current)
	}
	if got := e.PredictFuturePrice(item, 30, nil); got != 0 {
		t.Errorf("PredictFuturePrice(30d) = %d, want floor 0", got)
	}
}
