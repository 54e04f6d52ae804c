// Package refresh orchestrates one monitoring cycle: fetch feeds, score
// articles against holdings, merge alerts into the cache, and compute
// the portfolio health score. A refresh never errors to the caller; it
// always produces a best-effort (possibly smaller or stale) result.
package refresh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/finwatch/finwatch/internal/alert"
	"github.com/finwatch/finwatch/internal/config"
	"github.com/finwatch/finwatch/internal/enrich"
	"github.com/finwatch/finwatch/internal/feed"
	"github.com/finwatch/finwatch/internal/health"
	"github.com/finwatch/finwatch/internal/logger"
	"github.com/finwatch/finwatch/internal/portfolio"
	"github.com/finwatch/finwatch/internal/store"
)

// coalesceWindow is how long an identical refresh request is treated as
// redundant and served from the cache instead of re-merged. Guards the
// single-writer read-merge-write sequence against lost updates from
// rapid duplicate triggers.
const coalesceWindow = 10 * time.Second

// Result is what one refresh cycle hands back for display.
type Result struct {
	PortfolioID string        `json:"portfolioId"`
	Alerts      []alert.Alert `json:"alerts"`
	Health      health.Score  `json:"health"`
	Coalesced   bool          `json:"coalesced,omitempty"`
}

// Orchestrator runs refresh cycles for one logical session. Cycles are
// serialized; identical back-to-back triggers are coalesced.
type Orchestrator struct {
	cfg      *config.Config
	fetcher  *feed.Fetcher
	enricher *enrich.Fetcher
	cache    *alert.Cache
	records  *portfolio.Records

	mu          sync.Mutex
	lastHash    string
	lastRefresh time.Time
	now         func() time.Time
}

// New creates an Orchestrator over the given store.
func New(cfg *config.Config, kv store.KV) *Orchestrator {
	o := &Orchestrator{
		cfg:     cfg,
		fetcher: feed.NewFetcher(),
		cache:   alert.NewCache(kv),
		records: portfolio.NewRecords(kv),
		now:     time.Now,
	}
	if cfg.Enrich.Enabled {
		o.enricher = enrich.New(cfg.Enrich)
	}
	return o
}

// Refresh runs one cycle for the given portfolio. Feed failures, cache
// corruption and scoring edge cases all degrade gracefully; the caller
// always receives an alert list and a health score.
func (o *Orchestrator) Refresh(ctx context.Context, portfolioID string, flags map[string]bool) Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	snapshot, err := o.records.Load(portfolioID)
	if err != nil {
		logger.Log.Warnf("loading portfolio %q: %v", portfolioID, err)
		snapshot = portfolio.Snapshot{ID: portfolioID}
	}
	symbols := snapshot.Symbols()

	hash := contentHash(symbols, flags)
	if hash == o.lastHash && o.now().Sub(o.lastRefresh) < coalesceWindow {
		cached := o.cache.Load()
		if len(cached) > alert.DisplayCap {
			cached = cached[:alert.DisplayCap]
		}
		return Result{
			PortfolioID: portfolioID,
			Alerts:      cached,
			Health:      health.Compute(snapshot, cached),
			Coalesced:   true,
		}
	}

	articles := o.fetcher.FetchAll(ctx, o.cfg.Feeds)
	if o.enricher != nil {
		articles = o.enricher.Enrich(articles)
	}

	fresh := toAlerts(articles, snapshot, o.cfg.Alerts.MinRelevance)
	display := o.cache.Refresh(symbols, fresh)

	o.lastHash = hash
	o.lastRefresh = o.now()

	logger.Log.WithField("portfolio", portfolioID).
		Infof("refresh complete: %d articles, %d fresh alerts, %d displayed",
			len(articles), len(fresh), len(display))

	return Result{
		PortfolioID: portfolioID,
		Alerts:      display,
		Health:      health.Compute(snapshot, display),
	}
}

// Portfolio loads the holdings snapshot for the given id; a missing or
// unreadable record is an empty portfolio.
func (o *Orchestrator) Portfolio(id string) portfolio.Snapshot {
	snapshot, err := o.records.Load(id)
	if err != nil {
		logger.Log.Warnf("loading portfolio %q: %v", id, err)
		return portfolio.Snapshot{ID: id}
	}
	return snapshot
}

// contentHash fingerprints the refresh inputs: the sorted symbol list
// plus the display-mode flags.
func contentHash(symbols []string, flags map[string]bool) string {
	sorted := append([]string(nil), symbols...)
	sort.Strings(sorted)

	var keys []string
	for k, v := range flags {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	h := sha256.Sum256([]byte(strings.Join(sorted, ",") + "|" + strings.Join(keys, ",")))
	return hex.EncodeToString(h[:])
}
