// Package score computes sentiment and market-relevance heuristics for
// article text. Everything here is a pure function over its inputs.
package score

import (
	"regexp"
	"strings"
)

// DefaultHysteresis is the neutral band around zero when mapping a
// sentiment score to a label.
const DefaultHysteresis = 0.1

// fullMagnitudeTokens is the hit count treated as maximal sentiment.
const fullMagnitudeTokens = 10

// Label classifies the direction of a sentiment score.
type Label string

const (
	Bullish Label = "bullish"
	Bearish Label = "bearish"
	Neutral Label = "neutral"
)

var tokenSplit = regexp.MustCompile(`\W+`)

var positiveWords = map[string]struct{}{
	"gain": {}, "gains": {}, "rally": {}, "surge": {}, "surges": {},
	"soar": {}, "soars": {}, "jump": {}, "jumps": {}, "rise": {}, "rises": {},
	"profit": {}, "profits": {}, "beat": {}, "beats": {}, "upgrade": {}, "upgraded": {},
	"growth": {}, "record": {}, "strong": {}, "boost": {}, "boosts": {},
	"outperform": {}, "bullish": {}, "buy": {}, "win": {}, "wins": {},
	"recovery": {}, "rebound": {}, "momentum": {}, "dividend": {}, "breakthrough": {},
}

var negativeWords = map[string]struct{}{
	"loss": {}, "losses": {}, "drop": {}, "drops": {}, "fall": {}, "falls": {},
	"plunge": {}, "plunges": {}, "crash": {}, "crashes": {}, "miss": {}, "misses": {},
	"downgrade": {}, "downgraded": {}, "weak": {}, "bearish": {}, "decline": {}, "declines": {},
	"slump": {}, "slumps": {}, "lawsuit": {}, "recall": {}, "fraud": {},
	"cut": {}, "cuts": {}, "fear": {}, "fears": {}, "risk": {}, "risks": {},
	"selloff": {}, "tumble": {}, "tumbles": {}, "warning": {}, "bankruptcy": {},
}

// Sentiment scores text in [-1, 1]: +1 per positive-list token, -1 per
// negative-list token, scaled by an assumed full-magnitude hit count.
func Sentiment(text string) float64 {
	var hits float64
	for _, tok := range tokenSplit.Split(strings.ToLower(text), -1) {
		if tok == "" {
			continue
		}
		if _, ok := positiveWords[tok]; ok {
			hits++
		} else if _, ok := negativeWords[tok]; ok {
			hits--
		}
	}
	return clamp(hits/fullMagnitudeTokens, -1, 1)
}

// SentimentLabel maps a score to bullish/bearish/neutral with the given
// hysteresis band around zero.
func SentimentLabel(score, hysteresis float64) Label {
	switch {
	case score > hysteresis:
		return Bullish
	case score < -hysteresis:
		return Bearish
	default:
		return Neutral
	}
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
