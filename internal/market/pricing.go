package market

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// maxReputationDiscount caps the reputation discount at 15%.
	maxReputationDiscount = 0.15
	// reputationScale is the reputation at which the discount caps.
	reputationScale = 1000.0
	// trendWeekDays spreads a trend's deviation over a week for predictions.
	trendWeekDays = 7.0
)

// MultiplierSource returns the trend and demand multipliers of a category.
// Unknown categories must report neutral 1.0 values.
type MultiplierSource interface {
	Multipliers(category string) (trend, demand float64)
}

// PricingEngine computes item prices from live multipliers. It holds no
// state of its own.
type PricingEngine struct {
	source MultiplierSource
}

// NewPricingEngine creates a pricing engine reading from source.
func NewPricingEngine(source MultiplierSource) *PricingEngine {
	return &PricingEngine{source: source}
}

// ComputePrice returns the current price of item. A nil ctx is the neutral
// context.
func (p *PricingEngine) ComputePrice(item Item, ctx *PricingContext) int {
	trend, demand := p.source.Multipliers(item.Category)
	return roundPrice(rawPrice(item, ctx, trend, demand))
}

// PredictFuturePrice linearly extrapolates the current price daysAhead days
// using the category's trend. It is an estimate and changes no state.
func (p *PricingEngine) PredictFuturePrice(item Item, daysAhead int, ctx *PricingContext) int {
	trend, demand := p.source.Multipliers(item.Category)
	current := roundPrice(rawPrice(item, ctx, trend, demand))
	dailyChange := (trend - 1.0) / trendWeekDays
	return roundPrice(float64(current) * (1 + dailyChange*float64(daysAhead)))
}

func rawPrice(item Item, ctx *PricingContext, trend, demand float64) float64 {
	seasonal := 1.0
	bonus := 0.0
	reputation := 0.0
	if ctx != nil {
		if ctx.SeasonalFactor != nil {
			seasonal = *ctx.SeasonalFactor
		}
		if ctx.EventBonus != nil {
			bonus = *ctx.EventBonus
		}
		reputation = ctx.PlayerReputation
	}

	price := item.BasePrice *
		trend *
		demand *
		(item.Condition / 100) *
		item.Rarity.Premium() *
		seasonal
	price += bonus
	price *= 1 - reputationDiscount(reputation)
	return price
}

func reputationDiscount(reputation float64) float64 {
	if reputation <= 0 {
		return 0
	}
	return math.Min(reputation/reputationScale*maxReputationDiscount, maxReputationDiscount)
}

// roundPrice rounds half-up to a whole price, flooring at zero.
func roundPrice(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0
	}
	return int(decimal.NewFromFloat(v).Round(0).IntPart())
}
