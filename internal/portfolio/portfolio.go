// Package portfolio defines the holdings data the health engine scores.
// Persistence of portfolio rows is a generic record store accessed by
// id; the rows themselves are owned by an external subsystem.
package portfolio

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/finwatch/finwatch/internal/store"
)

// Holding is one position in a portfolio.
type Holding struct {
	Symbol             string  `json:"symbol"`
	Quantity           float64 `json:"quantity"`
	AvgPrice           float64 `json:"avgPrice"`
	CurrentValue       float64 `json:"currentValue"`
	DailyChangePercent float64 `json:"dailyChangePercent"`
}

// Invested returns the holding's cost basis.
func (h Holding) Invested() float64 {
	return h.Quantity * h.AvgPrice
}

// Snapshot is the set of holdings for one portfolio.
type Snapshot struct {
	ID       string    `json:"id"`
	Holdings []Holding `json:"holdings"`
}

// Symbols returns the active symbol set, upper-cased.
func (s Snapshot) Symbols() []string {
	out := make([]string, 0, len(s.Holdings))
	for _, h := range s.Holdings {
		out = append(out, strings.ToUpper(h.Symbol))
	}
	return out
}

// TotalValue sums current values across holdings.
func (s Snapshot) TotalValue() float64 {
	var total float64
	for _, h := range s.Holdings {
		total += h.CurrentValue
	}
	return total
}

// TotalInvested sums cost bases across holdings.
func (s Snapshot) TotalInvested() float64 {
	var total float64
	for _, h := range s.Holdings {
		total += h.Invested()
	}
	return total
}

// Records stores portfolio snapshots by id as JSON blobs.
type Records struct {
	kv store.KV
}

// NewRecords creates a record store over the given KV.
func NewRecords(kv store.KV) *Records {
	return &Records{kv: kv}
}

func recordKey(id string) string {
	return "portfolio:" + id
}

// Load reads a snapshot by id. A missing record is an empty snapshot.
func (r *Records) Load(id string) (Snapshot, error) {
	raw, err := r.kv.Get(recordKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return Snapshot{ID: id}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("loading portfolio %q: %w", id, err)
	}

	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decoding portfolio %q: %w", id, err)
	}
	return s, nil
}

// Save writes a snapshot by id.
func (r *Records) Save(s Snapshot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.kv.Set(recordKey(s.ID), raw); err != nil {
		return fmt.Errorf("saving portfolio %q: %w", s.ID, err)
	}
	return nil
}
