// Package health computes the composite 0-100 portfolio health score
// from current holdings and deduplicated alerts. Scores are ephemeral
// and recomputed on demand.
package health

import (
	"math"

	"github.com/finwatch/finwatch/internal/alert"
	"github.com/finwatch/finwatch/internal/portfolio"
)

const (
	profitabilityWeight   = 0.4
	diversificationWeight = 0.3
	sentimentWeight       = 0.3

	// a single holding above this value share draws a penalty
	concentrationShare   = 0.35
	concentrationPenalty = 20
)

// Score is the composite result with its sub-scores. Sub-scores are
// not persisted.
type Score struct {
	Composite       int     `json:"composite"`
	Profitability   float64 `json:"profitability"`
	Diversification float64 `json:"diversification"`
	Sentiment       float64 `json:"sentiment"`
}

// Compute scores the portfolio. An empty holdings set scores 100: with
// nothing at risk there is nothing to penalize.
func Compute(snapshot portfolio.Snapshot, alerts []alert.Alert) Score {
	if len(snapshot.Holdings) == 0 {
		return Score{Composite: 100, Profitability: 100, Diversification: 100, Sentiment: 100}
	}

	p := profitability(snapshot)
	d := diversification(snapshot)
	s := sentiment(alerts)

	composite := int(math.Round(profitabilityWeight*p + diversificationWeight*d + sentimentWeight*s))
	return Score{
		Composite:       clampInt(composite, 0, 100),
		Profitability:   p,
		Diversification: d,
		Sentiment:       s,
	}
}

// profitability centers at a neutral 50 and moves 2 points per percent
// of aggregate return, bounded to [0, 100].
func profitability(snapshot portfolio.Snapshot) float64 {
	invested := snapshot.TotalInvested()
	if invested <= 0 {
		return 50
	}
	returnPct := 100 * (snapshot.TotalValue() - invested) / invested
	return clamp(50+2*returnPct, 0, 100)
}

// diversification grants 20 points per unique symbol up to 100, minus a
// flat concentration penalty when any single holding exceeds 35% of
// total value.
func diversification(snapshot portfolio.Snapshot) float64 {
	unique := make(map[string]struct{})
	for _, s := range snapshot.Symbols() {
		unique[s] = struct{}{}
	}

	base := math.Min(20*float64(len(unique)), 100)

	total := snapshot.TotalValue()
	if total > 0 {
		for _, h := range snapshot.Holdings {
			if h.CurrentValue/total > concentrationShare {
				base -= concentrationPenalty
				break
			}
		}
	}
	return clamp(base, 0, 100)
}

// sentiment is a neutral 50 with no alerts, otherwise shifted by the
// positive/negative balance.
func sentiment(alerts []alert.Alert) float64 {
	if len(alerts) == 0 {
		return 50
	}

	var positive, negative float64
	for _, a := range alerts {
		switch a.Sentiment {
		case alert.Positive:
			positive++
		case alert.Negative:
			negative++
		}
	}
	return clamp(50+50*(positive-negative)/float64(len(alerts)), 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
