package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finwatch/finwatch/internal/advisor"
	"github.com/finwatch/finwatch/internal/chat"
	"github.com/finwatch/finwatch/internal/config"
	"github.com/finwatch/finwatch/internal/health"
	"github.com/finwatch/finwatch/internal/portfolio"
	"github.com/finwatch/finwatch/internal/refresh"
	"github.com/finwatch/finwatch/internal/store"
)

func testOrchestrator(t *testing.T, feedURL string) *refresh.Orchestrator {
	t.Helper()
	kv := store.NewMemory()
	records := portfolio.NewRecords(kv)
	require.NoError(t, records.Save(portfolio.Snapshot{
		ID: "default",
		Holdings: []portfolio.Holding{
			{Symbol: "ACME", Quantity: 10, AvgPrice: 100, CurrentValue: 1200, DailyChangePercent: 4},
		},
	}))

	cfg := &config.Config{
		Feeds:  []config.Feed{{ID: "t", Name: "Test", URL: feedURL}},
		Alerts: config.Alerts{MinRelevance: 0.35},
	}
	return refresh.New(cfg, kv)
}

func feedServer(t *testing.T) *httptest.Server {
	t.Helper()
	doc := fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title>
<item><title>Acme shares surge on record profit</title><link>https://example.com/1</link><pubDate>%s</pubDate><description>Acme had a strong quarter.</description></item>
</channel></rss>`, time.Now().Add(-time.Hour).Format(time.RFC1123Z))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAlertsRoute(t *testing.T) {
	feeds := feedServer(t)
	srv := New(testOrchestrator(t, feeds.URL), nil, nil)

	req := httptest.NewRequest("GET", "/api/alerts", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var res refresh.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Alerts)
	assert.Equal(t, "ACME", res.Alerts[0].Symbol)
}

func TestHealthRoute(t *testing.T) {
	feeds := feedServer(t)
	srv := New(testOrchestrator(t, feeds.URL), nil, nil)

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var score health.Score
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &score))
	assert.GreaterOrEqual(t, score.Composite, 0)
	assert.LessOrEqual(t, score.Composite, 100)
}

func TestAdvisoryRouteRendersFallbackHTML(t *testing.T) {
	feeds := feedServer(t)
	// nil provider -> fallback advisory, still a 200 HTML response
	adv := advisor.New(nil, advisor.DefaultRetryPolicy, 0)
	srv := New(testOrchestrator(t, feeds.URL), adv, nil)

	req := httptest.NewRequest("GET", "/api/advisory", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "advisory service is busy")
}

func TestAdvisoryRouteNotConfigured(t *testing.T) {
	feeds := feedServer(t)
	srv := New(testOrchestrator(t, feeds.URL), nil, nil)

	req := httptest.NewRequest("GET", "/api/advisory", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatRouteStreamsUpdates(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type":"content","text":"Hi "}`+"\n")
		fmt.Fprint(w, `{"type":"content","text":"there"}`+"\n")
	}))
	defer backend.Close()

	feeds := feedServer(t)
	client := chat.NewClient(config.Chat{BackendURL: backend.URL})
	srv := New(testOrchestrator(t, feeds.URL), nil, client)

	body := strings.NewReader(`{"message":"hello","sessionId":"s1"}`)
	req := httptest.NewRequest("POST", "/api/chat", body)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.NotEmpty(t, lines)

	var last struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &last))
	assert.Equal(t, chat.RoleAssistant, last.Role)
	assert.Equal(t, "Hi there", last.Content)
}

func TestChatRouteBadRequest(t *testing.T) {
	feeds := feedServer(t)
	client := chat.NewClient(config.Chat{BackendURL: "http://127.0.0.1:1"})
	srv := New(testOrchestrator(t, feeds.URL), nil, client)

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
