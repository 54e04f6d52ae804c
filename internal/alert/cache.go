package alert

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/finwatch/finwatch/internal/logger"
	"github.com/finwatch/finwatch/internal/store"
)

const (
	// FreshnessWindow is the horizon beyond which cached alerts age out.
	FreshnessWindow = 48 * time.Hour

	// DisplayCap is the most alerts surfaced to the caller per refresh.
	DisplayCap = 20

	// snapshotKey is the fixed key the serialized snapshot lives under.
	snapshotKey = "alerts:snapshot"
)

// Merge combines the prior snapshot with freshly fetched alerts.
//
// Prior entries older than the freshness window, or whose symbol is no
// longer active, are dropped. Survivors come first, then fresh alerts;
// duplicates by (symbol, title) are discarded first-wins, so a cached
// copy is never overwritten by a fresh one. The result is sorted by
// timestamp descending. The full set is the new snapshot; the display
// list is the first DisplayCap entries.
func Merge(now time.Time, activeSymbols []string, fresh, prior []Alert) (snapshot, display []Alert) {
	active := make(map[string]struct{}, len(activeSymbols))
	for _, s := range activeSymbols {
		active[s] = struct{}{}
	}
	cutoff := now.Add(-FreshnessWindow)

	keyed := newKeyedStore()
	for _, a := range prior {
		if a.Timestamp.Before(cutoff) {
			continue
		}
		if _, ok := active[a.Symbol]; !ok {
			continue
		}
		keyed.Put(a)
	}
	for _, a := range fresh {
		keyed.Put(a.Clamp())
	}

	snapshot = keyed.All()
	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].Timestamp.After(snapshot[j].Timestamp)
	})

	display = snapshot
	if len(display) > DisplayCap {
		display = display[:DisplayCap]
	}
	return snapshot, display
}

// Cache persists alert snapshots in an injected key-value store. The
// read-merge-write sequence has no cross-process lock; it is safe for a
// single logical writer per session.
type Cache struct {
	kv  store.KV
	now func() time.Time
}

// NewCache creates a Cache over the given store.
func NewCache(kv store.KV) *Cache {
	return &Cache{kv: kv, now: time.Now}
}

// Load reads the persisted snapshot. An absent or unparsable value is
// an empty cache; a corrupted snapshot is discarded, not repaired.
func (c *Cache) Load() []Alert {
	raw, err := c.kv.Get(snapshotKey)
	if err != nil {
		return nil
	}

	var alerts []Alert
	if err := json.Unmarshal(raw, &alerts); err != nil {
		logger.Log.Warnf("discarding corrupt alert snapshot: %v", err)
		return nil
	}
	return alerts
}

// Store replaces the persisted snapshot wholesale.
func (c *Cache) Store(snapshot []Alert) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.kv.Set(snapshotKey, raw)
}

// Refresh merges fresh alerts with the persisted snapshot, persists the
// result, and returns the display list. A persistence failure is logged
// and the merged display list still returned; the caller always gets a
// best-effort view.
func (c *Cache) Refresh(activeSymbols []string, fresh []Alert) []Alert {
	prior := c.Load()
	snapshot, display := Merge(c.now(), activeSymbols, fresh, prior)
	if err := c.Store(snapshot); err != nil {
		logger.Log.Errorf("persisting alert snapshot: %v", err)
	}
	return display
}
