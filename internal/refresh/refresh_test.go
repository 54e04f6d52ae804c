package refresh

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/finwatch/internal/alert"
	"github.com/finwatch/finwatch/internal/config"
	"github.com/finwatch/finwatch/internal/feed"
	"github.com/finwatch/finwatch/internal/portfolio"
	"github.com/finwatch/finwatch/internal/score"
	"github.com/finwatch/finwatch/internal/store"
)

func testConfig(feedURL string) *config.Config {
	return &config.Config{
		Feeds: []config.Feed{{ID: "test", Name: "Test", URL: feedURL}},
		Alerts: config.Alerts{MinRelevance: 0.35},
	}
}

func acmeFeed(t *testing.T) *httptest.Server {
	t.Helper()
	now := time.Now()
	doc := fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title>
<item><title>Acme shares surge on record profit</title><link>https://example.com/acme</link><pubDate>%s</pubDate><description>Acme had a strong quarter.</description></item>
<item><title>Gardening tips for spring</title><link>https://example.com/garden</link><pubDate>%s</pubDate><description>Nothing about stocks.</description></item>
</channel></rss>`,
		now.Add(-time.Hour).Format(time.RFC1123Z), now.Add(-2*time.Hour).Format(time.RFC1123Z))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRefreshEndToEnd(t *testing.T) {
	srv := acmeFeed(t)
	kv := store.NewMemory()

	records := portfolio.NewRecords(kv)
	require.NoError(t, records.Save(portfolio.Snapshot{
		ID: "p1",
		Holdings: []portfolio.Holding{
			{Symbol: "ACME", Quantity: 10, AvgPrice: 100, CurrentValue: 1200, DailyChangePercent: 4},
		},
	}))

	o := New(testConfig(srv.URL), kv)
	res := o.Refresh(context.Background(), "p1", nil)

	require.NotEmpty(t, res.Alerts)
	a := res.Alerts[0]
	assert.Equal(t, "ACME", a.Symbol)
	assert.Equal(t, "Acme shares surge on record profit", a.Title)
	assert.Equal(t, alert.Positive, a.Sentiment)
	assert.GreaterOrEqual(t, a.RelevanceScore, 0.35)
	assert.LessOrEqual(t, a.RelevanceScore, 1.0)

	assert.GreaterOrEqual(t, res.Health.Composite, 0)
	assert.LessOrEqual(t, res.Health.Composite, 100)

	// the merge persisted a snapshot
	cached := alert.NewCache(kv).Load()
	assert.NotEmpty(t, cached)
}

func TestRefreshWithEmptyPortfolio(t *testing.T) {
	srv := acmeFeed(t)
	kv := store.NewMemory()

	o := New(testConfig(srv.URL), kv)
	res := o.Refresh(context.Background(), "nobody", nil)

	assert.Empty(t, res.Alerts)
	assert.Equal(t, 100, res.Health.Composite)
}

func TestRefreshCoalescesIdenticalTriggers(t *testing.T) {
	srv := acmeFeed(t)
	kv := store.NewMemory()

	records := portfolio.NewRecords(kv)
	require.NoError(t, records.Save(portfolio.Snapshot{
		ID:       "p1",
		Holdings: []portfolio.Holding{{Symbol: "ACME", Quantity: 1, AvgPrice: 1, CurrentValue: 1}},
	}))

	o := New(testConfig(srv.URL), kv)

	first := o.Refresh(context.Background(), "p1", map[string]bool{"compact": true})
	assert.False(t, first.Coalesced)

	second := o.Refresh(context.Background(), "p1", map[string]bool{"compact": true})
	assert.True(t, second.Coalesced)
	assert.Equal(t, len(first.Alerts), len(second.Alerts))

	// different flags are a different refresh
	third := o.Refresh(context.Background(), "p1", nil)
	assert.False(t, third.Coalesced)
}

func TestRefreshSurvivesDeadFeeds(t *testing.T) {
	kv := store.NewMemory()
	cfg := testConfig("http://127.0.0.1:1/feed")

	o := New(cfg, kv)
	res := o.Refresh(context.Background(), "p1", nil)
	assert.Empty(t, res.Alerts)
	assert.Equal(t, 100, res.Health.Composite)
}

func TestContentHashStable(t *testing.T) {
	h1 := contentHash([]string{"AAPL", "MSFT"}, map[string]bool{"a": true, "b": false})
	h2 := contentHash([]string{"MSFT", "AAPL"}, map[string]bool{"a": true})
	assert.Equal(t, h1, h2, "order and false flags do not matter")

	h3 := contentHash([]string{"AAPL"}, nil)
	assert.NotEqual(t, h1, h3)
}

func TestToAlertsThreshold(t *testing.T) {
	now := time.Now()
	articles := []feed.Article{
		{
			ID: "1", Title: "Acme surges on record profit", Description: "Acme had a strong quarter",
			PublishedAt: now, Sentiment: score.Bullish,
		},
		{
			ID: "2", Title: "Unrelated gardening story", Description: "flowers and soil",
			PublishedAt: now, Sentiment: score.Neutral,
		},
	}
	snapshot := portfolio.Snapshot{Holdings: []portfolio.Holding{
		{Symbol: "ACME", DailyChangePercent: 4},
	}}

	alerts := toAlerts(articles, snapshot, 0.5)
	require.Len(t, alerts, 1)
	assert.Equal(t, "1", alerts[0].ID)
	assert.Equal(t, alert.Positive, alerts[0].Sentiment)
}

func TestToAlertsNoHoldings(t *testing.T) {
	articles := []feed.Article{{ID: "1", Title: "Anything"}}
	assert.Empty(t, toAlerts(articles, portfolio.Snapshot{}, 0))
}
