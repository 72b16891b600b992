package market

import "time"

const (
	// MinMultiplier and MaxMultiplier bound both trend and demand multipliers.
	MinMultiplier = 0.5
	MaxMultiplier = 2.0
	// DefaultHistoryLimit is the number of price entries kept per item.
	DefaultHistoryLimit = 30
)

// Prediction is the direction a category moved on its last tick.
type Prediction string

const (
	PredictionRising  Prediction = "rising"
	PredictionFalling Prediction = "falling"
	PredictionStable  Prediction = "stable"
)

// Rarity is an item's rarity tier.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// rarityPremiums maps each tier to its price multiplier.
var rarityPremiums = map[Rarity]float64{
	RarityCommon:    1.0,
	RarityUncommon:  1.5,
	RarityRare:      2.5,
	RarityEpic:      4.0,
	RarityLegendary: 8.0,
}

// Premium returns the price multiplier for r. Unknown tiers price as common.
func (r Rarity) Premium() float64 {
	if p, ok := rarityPremiums[r]; ok {
		return p
	}
	return 1.0
}

// Item is a priceable catalog entry. The catalog owns validation.
type Item struct {
	ID        string  `json:"id"`
	Category  string  `json:"category"`
	BasePrice float64 `json:"base_price"`
	Condition float64 `json:"condition"` // 0-100
	Rarity    Rarity  `json:"rarity"`
}

// PricingContext carries caller-side pricing modifiers.
type PricingContext struct {
	Region           string   `json:"region"`
	SeasonalFactor   *float64 `json:"seasonal_factor,omitempty"` // nil = 1.0
	EventBonus       *float64 `json:"event_bonus,omitempty"`
	PlayerReputation float64  `json:"player_reputation"`
}

// MarketTrend is the live trend state of one item category.
type MarketTrend struct {
	Category        string     `json:"category"`
	TrendMultiplier float64    `json:"trend_multiplier"`
	Volume          int        `json:"volume"`
	LastUpdate      time.Time  `json:"last_update"`
	Prediction      Prediction `json:"prediction"`
}

// CategoryState is a trend together with its demand multiplier, as read
// and written under a single lock.
type CategoryState struct {
	MarketTrend
	DemandMultiplier float64 `json:"demand_multiplier"`
}

// PriceEntry is one recorded price observation.
type PriceEntry struct {
	Date   time.Time `json:"date"`
	Price  int       `json:"price"`
	Volume int       `json:"volume"`
}

// PriceHistory is the bounded price log of one item.
type PriceHistory struct {
	ItemID  string       `json:"item_id"`
	Entries []PriceEntry `json:"entries"`
}

// MarketSummary partitions categories by prediction and lists hot deals.
type MarketSummary struct {
	Trending  []string `json:"trending"`
	Declining []string `json:"declining"`
	Stable    []string `json:"stable"`
	HotDeals  []string `json:"hot_deals"`
}

func clampMultiplier(v float64) float64 {
	if v < MinMultiplier {
		return MinMultiplier
	}
	if v > MaxMultiplier {
		return MaxMultiplier
	}
	return v
}
