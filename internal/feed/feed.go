// Package feed retrieves configured news feeds and normalizes their
// items into Articles. Fetch failures are isolated per feed and never
// propagate to the caller.
package feed

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/finwatch/finwatch/internal/config"
	"github.com/finwatch/finwatch/internal/logger"
	"github.com/finwatch/finwatch/internal/score"
)

const (
	// FreshnessWindow is the horizon beyond which items are discarded.
	FreshnessWindow = 48 * time.Hour

	// maxFutureSkew guards against clock-skewed feeds.
	maxFutureSkew = time.Hour

	maxPerFeed = 5

	fetchTimeout = 15 * time.Second
)

// Article is one normalized feed item, created per fetch cycle and
// discarded once scored into an alert.
type Article struct {
	ID              string
	Title           string
	Description     string
	Content         string
	URL             string
	Source          string
	Tags            []string
	PublishedAt     time.Time
	Sentiment       score.Label
	MarketRelevance float64
}

// Domain returns the article's source host, used for the quality boost.
func (a Article) Domain() string {
	u, err := url.Parse(a.URL)
	if err != nil || u == nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Text returns the concatenated text used for scoring.
func (a Article) Text() string {
	parts := []string{a.Title, a.Description}
	if a.Content != "" {
		parts = append(parts, a.Content)
	}
	return strings.Join(parts, " ")
}

// Fetcher retrieves and parses configured feeds.
type Fetcher struct {
	timeout time.Duration
	now     func() time.Time
}

// NewFetcher creates a Fetcher with the default per-feed timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{timeout: fetchTimeout, now: time.Now}
}

// Fetch parses one feed into at most maxPerFeed Articles. Any failure,
// including a document with no items, yields an empty slice.
func (f *Fetcher) Fetch(ctx context.Context, fc config.Feed) []Article {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	parsed, err := gofeed.NewParser().ParseURLWithContext(fc.URL, ctx)
	if err != nil {
		logger.Log.WithField("feed", fc.URL).Warnf("fetch failed: %v", err)
		return nil
	}
	if len(parsed.Items) == 0 {
		logger.Log.WithField("feed", fc.URL).Warn("no items in feed")
		return nil
	}

	name := fc.Name
	if name == "" {
		name = extractSourceName(fc.URL)
	}

	var articles []Article
	for _, item := range parsed.Items {
		if len(articles) >= maxPerFeed {
			break
		}
		a := f.parseItem(item, name)
		if a == nil {
			continue
		}
		articles = append(articles, *a)
	}

	logger.Log.WithField("feed", name).Debugf("parsed %d articles", len(articles))
	return articles
}

// FetchAll fetches every feed concurrently, waits for all to settle, and
// returns the combined result filtered to the freshness window and
// sorted by publish time descending. One feed's failure never blocks or
// fails the others.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []config.Feed) []Article {
	results := make([][]Article, len(feeds))

	var wg sync.WaitGroup
	for i, fc := range feeds {
		wg.Add(1)
		go func(i int, fc config.Feed) {
			defer wg.Done()
			results[i] = f.Fetch(ctx, fc)
		}(i, fc)
	}
	wg.Wait()

	now := f.now()
	cutoff := now.Add(-FreshnessWindow)
	horizon := now.Add(maxFutureSkew)

	var all []Article
	for _, batch := range results {
		for _, a := range batch {
			if a.PublishedAt.Before(cutoff) || a.PublishedAt.After(horizon) {
				continue
			}
			all = append(all, a)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})
	return all
}

func (f *Fetcher) parseItem(item *gofeed.Item, source string) *Article {
	title := strings.TrimSpace(CleanText(item.Title))
	if title == "" {
		return nil
	}

	itemURL := item.Link
	if itemURL == "" {
		itemURL = item.GUID
	}

	published := f.now()
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	description := Normalize(item.Description)
	var content string
	if item.Content != "" {
		content = CleanText(item.Content)
	}

	text := title + " " + description
	label := score.SentimentLabel(score.Sentiment(text), score.DefaultHysteresis)

	return &Article{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Content:     content,
		URL:         itemURL,
		Source:      source,
		Tags:        item.Categories,
		PublishedAt: published,
		Sentiment:   label,
	}
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		name := parts[len(parts)-2]
		return strings.ToUpper(name[:1]) + name[1:]
	}
	if host == "" {
		return feedURL
	}
	return strings.ToUpper(host[:1]) + host[1:]
}
