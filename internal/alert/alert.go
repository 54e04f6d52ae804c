// Package alert holds scored news alerts and the cache that carries
// them across refresh cycles.
package alert

import (
	"strings"
	"time"
)

// Sentiment direction of an alert.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
	Neutral  Sentiment = "neutral"
)

// Alert is a scored, deduplicated news item attached to a portfolio
// symbol. It persists across refresh cycles until it ages out of the
// freshness window or its symbol leaves the active holdings set.
type Alert struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	URL            string    `json:"url"`
	Sentiment      Sentiment `json:"sentiment"`
	Timestamp      time.Time `json:"timestamp"`
	RelevanceScore float64   `json:"relevanceScore"`
}

// Key is the dedup identity: symbol + "-" + title. The alert id is
// deliberately not part of it.
func (a Alert) Key() string {
	return a.Symbol + "-" + a.Title
}

// Clamp bounds the relevance score to [0, 1] and normalizes the symbol
// to upper case. Applied before storage or display.
func (a Alert) Clamp() Alert {
	if a.RelevanceScore < 0 {
		a.RelevanceScore = 0
	}
	if a.RelevanceScore > 1 {
		a.RelevanceScore = 1
	}
	a.Symbol = strings.ToUpper(a.Symbol)
	return a
}
