package score

import (
	"strings"
)

// Weights for the relevance blend. Keyword overlap dominates because it
// is the most reliable topical signal; sentiment alignment is a secondary
// plausibility check; the source boost is a minor tie-breaker.
const (
	overlapWeight   = 0.65
	alignmentWeight = 0.30
	sourceBoost     = 0.05

	// daily moves beyond this are treated as maximal
	changeExtremePct = 20
)

// Market describes the instrument an article is scored against.
type Market struct {
	Symbol        string
	Name          string
	Sector        string
	ChangePercent float64
}

// Document is the scored view of an article: its text, any ticker tags
// the feed attached, and the source host for the quality boost.
type Document struct {
	Text   string
	Tags   []string
	Domain string
}

// qualitySources get a flat relevance boost.
var qualitySources = map[string]struct{}{
	"reuters.com":     {},
	"bloomberg.com":   {},
	"wsj.com":         {},
	"ft.com":          {},
	"cnbc.com":        {},
	"marketwatch.com": {},
	"barrons.com":     {},
	"economist.com":   {},
}

// MarketRelevance estimates topical/sentiment fit between a document and
// a market in [0, 1].
func MarketRelevance(doc Document, m Market) float64 {
	keywords := keywordSet(doc.Tags, m)

	overlap := 0.0
	if len(keywords) > 0 {
		text := strings.ToLower(doc.Text)
		hits := 0
		for kw := range keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		overlap = float64(hits) / float64(len(keywords))
	}

	change := clamp(m.ChangePercent, -changeExtremePct, changeExtremePct) / changeExtremePct
	alignment := clamp(1-abs(Sentiment(doc.Text)-change), 0, 1)

	boost := 0.0
	if isQualitySource(doc.Domain) {
		boost = sourceBoost
	}

	return clamp(overlapWeight*overlap+alignmentWeight*alignment+boost, 0, 1)
}

// keywordSet collects lower-cased tokens from the ticker tags plus the
// market's symbol, name and sector, discarding empty and one-character
// tokens.
func keywordSet(tags []string, m Market) map[string]struct{} {
	set := make(map[string]struct{})
	add := func(s string) {
		for _, tok := range tokenSplit.Split(strings.ToLower(s), -1) {
			if len(tok) > 1 {
				set[tok] = struct{}{}
			}
		}
	}
	for _, t := range tags {
		add(t)
	}
	add(m.Symbol)
	add(m.Name)
	add(m.Sector)
	return set
}

func isQualitySource(domain string) bool {
	host := strings.ToLower(strings.TrimPrefix(domain, "www."))
	if _, ok := qualitySources[host]; ok {
		return true
	}
	// subdomains of a quality source count too
	for src := range qualitySources {
		if strings.HasSuffix(host, "."+src) {
			return true
		}
	}
	return false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
