// Package enrich optionally fills missing article bodies by fetching
// the article page and extracting readable text. Failures leave the
// article unchanged; a failing domain is skipped for the rest of the run.
package enrich

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/finwatch/finwatch/internal/config"
	"github.com/finwatch/finwatch/internal/feed"
	"github.com/finwatch/finwatch/internal/logger"
)

// minExtractedLen guards against boilerplate-only extractions.
const minExtractedLen = 100

// Fetcher fetches full article text via HTTP + readability extraction.
type Fetcher struct {
	client      *http.Client
	maxArticles int
}

// New creates a content fetcher from config.
func New(cfg config.Enrich) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxArticles := cfg.MaxArticles
	if maxArticles <= 0 {
		maxArticles = 10
	}
	return &Fetcher{
		maxArticles: maxArticles,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// Enrich fills empty Content fields in place, attempting at most
// maxArticles fetches. Articles keep their order.
func (f *Fetcher) Enrich(articles []feed.Article) []feed.Article {
	failedDomains := make(map[string]struct{})
	attempts := 0

	for i := range articles {
		if articles[i].Content != "" || articles[i].URL == "" {
			continue
		}
		if attempts >= f.maxArticles {
			break
		}

		domain := articles[i].Domain()
		if _, failed := failedDomains[domain]; failed {
			continue
		}

		attempts++
		content, err := f.fetchArticleContent(articles[i].URL)
		if err != nil {
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			logger.Log.WithField("url", articles[i].URL).Debugf("content fetch failed, skipping remaining from %s", domain)
			continue
		}
		if content != "" {
			articles[i].Content = content
		}
	}

	return articles
}

func (f *Fetcher) fetchArticleContent(articleURL string) (string, error) {
	req, err := http.NewRequest("GET", articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "finwatch/1.0 (portfolio news monitor)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &httpError{code: resp.StatusCode}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(bodyBytes)), parsedURL)
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > minExtractedLen {
		return text, nil
	}
	return "", nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return http.StatusText(e.code)
}
