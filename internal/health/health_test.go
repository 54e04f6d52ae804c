package health

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/finwatch/finwatch/internal/alert"
	"github.com/finwatch/finwatch/internal/portfolio"
)

func TestEmptyPortfolioScoresPerfect(t *testing.T) {
	got := Compute(portfolio.Snapshot{}, nil)
	assert.Equal(t, 100, got.Composite)
}

func TestWorkedExample(t *testing.T) {
	// 1000 invested, 1200 current (20% gain), one symbol, no alerts:
	// profitability 90, diversification 20, sentiment 50 -> 57
	snapshot := portfolio.Snapshot{Holdings: []portfolio.Holding{
		{Symbol: "AAPL", Quantity: 10, AvgPrice: 100, CurrentValue: 1200},
	}}

	got := Compute(snapshot, nil)
	assert.Equal(t, 90.0, got.Profitability)
	assert.Equal(t, 20.0, got.Diversification)
	assert.Equal(t, 50.0, got.Sentiment)
	assert.Equal(t, 57, got.Composite)
}

func TestDiversificationCapsAtSixSymbols(t *testing.T) {
	var holdings []portfolio.Holding
	for i := 0; i < 6; i++ {
		holdings = append(holdings, portfolio.Holding{
			Symbol:       fmt.Sprintf("SYM%d", i),
			Quantity:     1,
			AvgPrice:     100,
			CurrentValue: 100, // equal shares, none above 35%
		})
	}

	got := Compute(portfolio.Snapshot{Holdings: holdings}, nil)
	assert.Equal(t, 100.0, got.Diversification)
}

func TestConcentrationPenalty(t *testing.T) {
	snapshot := portfolio.Snapshot{Holdings: []portfolio.Holding{
		{Symbol: "AAPL", Quantity: 1, AvgPrice: 100, CurrentValue: 800},
		{Symbol: "MSFT", Quantity: 1, AvgPrice: 100, CurrentValue: 100},
		{Symbol: "GOOG", Quantity: 1, AvgPrice: 100, CurrentValue: 100},
	}}

	got := Compute(snapshot, nil)
	// 3 symbols -> base 60, minus the flat 20 for AAPL's 80% share
	assert.Equal(t, 40.0, got.Diversification)
}

func TestZeroInvestedFallsBackToNeutral(t *testing.T) {
	snapshot := portfolio.Snapshot{Holdings: []portfolio.Holding{
		{Symbol: "FREE", Quantity: 0, AvgPrice: 0, CurrentValue: 500},
	}}

	got := Compute(snapshot, nil)
	assert.Equal(t, 50.0, got.Profitability)
}

func TestSentimentBalance(t *testing.T) {
	snapshot := portfolio.Snapshot{Holdings: []portfolio.Holding{
		{Symbol: "AAPL", Quantity: 1, AvgPrice: 100, CurrentValue: 100},
	}}

	alerts := []alert.Alert{
		{Sentiment: alert.Positive},
		{Sentiment: alert.Positive},
		{Sentiment: alert.Negative},
		{Sentiment: alert.Neutral},
	}
	got := Compute(snapshot, alerts)
	// 50 + 50*(2-1)/4 = 62.5
	assert.Equal(t, 62.5, got.Sentiment)

	allNegative := []alert.Alert{{Sentiment: alert.Negative}, {Sentiment: alert.Negative}}
	got = Compute(snapshot, allNegative)
	assert.Equal(t, 0.0, got.Sentiment)
}

func TestCompositeBounds(t *testing.T) {
	cases := []struct {
		snapshot portfolio.Snapshot
		alerts   []alert.Alert
	}{
		{portfolio.Snapshot{}, nil},
		{portfolio.Snapshot{Holdings: []portfolio.Holding{
			{Symbol: "WIN", Quantity: 1, AvgPrice: 1, CurrentValue: 1000},
		}}, []alert.Alert{{Sentiment: alert.Positive}}},
		{portfolio.Snapshot{Holdings: []portfolio.Holding{
			{Symbol: "LOSE", Quantity: 1, AvgPrice: 1000, CurrentValue: 1},
		}}, []alert.Alert{{Sentiment: alert.Negative}}},
	}

	for _, c := range cases {
		got := Compute(c.snapshot, c.alerts)
		assert.GreaterOrEqual(t, got.Composite, 0)
		assert.LessOrEqual(t, got.Composite, 100)
	}
}
