package refresh

import (
	"github.com/finwatch/finwatch/internal/alert"
	"github.com/finwatch/finwatch/internal/feed"
	"github.com/finwatch/finwatch/internal/portfolio"
	"github.com/finwatch/finwatch/internal/score"
)

// sentimentFor maps scorer labels onto alert sentiment.
func sentimentFor(label score.Label) alert.Sentiment {
	switch label {
	case score.Bullish:
		return alert.Positive
	case score.Bearish:
		return alert.Negative
	default:
		return alert.Neutral
	}
}

// toAlerts scores each article against every holding and keeps the best
// match per article when it clears the relevance threshold. Articles
// that match no holding are dropped; the article itself is discarded
// after this step.
func toAlerts(articles []feed.Article, snapshot portfolio.Snapshot, minRelevance float64) []alert.Alert {
	var alerts []alert.Alert
	for _, a := range articles {
		doc := score.Document{Text: a.Text(), Tags: a.Tags, Domain: a.Domain()}

		bestScore := -1.0
		var bestSymbol string
		for _, h := range snapshot.Holdings {
			m := score.Market{Symbol: h.Symbol, ChangePercent: h.DailyChangePercent}
			if r := score.MarketRelevance(doc, m); r > bestScore {
				bestScore = r
				bestSymbol = h.Symbol
			}
		}

		if bestSymbol == "" || bestScore < minRelevance {
			continue
		}

		alerts = append(alerts, alert.Alert{
			ID:             a.ID,
			Symbol:         bestSymbol,
			Title:          a.Title,
			Description:    a.Description,
			URL:            a.URL,
			Sentiment:      sentimentFor(a.Sentiment),
			Timestamp:      a.PublishedAt,
			RelevanceScore: bestScore,
		}.Clamp())
	}
	return alerts
}
