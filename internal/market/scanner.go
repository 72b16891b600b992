package market

// Opportunity thresholds.
const (
	undervaluedTrend   = 0.9
	oversuppliedDemand = 0.8
	oversuppliedVolume = 500
	hotDealDemand      = 0.7
	hotDealTrend       = 0.8
)

// InvestmentScanner derives read-only views of the market from a TrendStore.
type InvestmentScanner struct {
	store *TrendStore
}

// NewInvestmentScanner creates a scanner over store.
func NewInvestmentScanner(store *TrendStore) *InvestmentScanner {
	return &InvestmentScanner{store: store}
}

// Opportunities returns the sorted categories that look underpriced: a low
// trend that is recovering, or low demand on heavy volume.
func (s *InvestmentScanner) Opportunities() []string {
	out := []string{}
	for _, c := range s.store.All() {
		if isOpportunity(c) {
			out = append(out, c.Category)
		}
	}
	return out
}

func isOpportunity(c CategoryState) bool {
	recovering := c.TrendMultiplier < undervaluedTrend && c.Prediction == PredictionRising
	oversupplied := c.DemandMultiplier < oversuppliedDemand && c.Volume > oversuppliedVolume
	return recovering || oversupplied
}

// Summary partitions categories by prediction and lists hot deals.
func (s *InvestmentScanner) Summary() MarketSummary {
	sum := MarketSummary{
		Trending:  []string{},
		Declining: []string{},
		Stable:    []string{},
		HotDeals:  []string{},
	}
	for _, c := range s.store.All() {
		switch c.Prediction {
		case PredictionRising:
			sum.Trending = append(sum.Trending, c.Category)
		case PredictionFalling:
			sum.Declining = append(sum.Declining, c.Category)
		default:
			sum.Stable = append(sum.Stable, c.Category)
		}
		if c.DemandMultiplier < hotDealDemand && c.TrendMultiplier < hotDealTrend {
			sum.HotDeals = append(sum.HotDeals, c.Category)
		}
	}
	return sum
}
