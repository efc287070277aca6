package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/LJTian/NewsETL/internal/config"
	"github.com/LJTian/NewsETL/internal/record"
)

// Fetch outcomes the collector treats as a skip rather than a failure.
var (
	ErrTransport      = errors.New("transport failure")
	ErrInvalidArticle = errors.New("invalid article: there is no body")
)

// Fetcher retrieves a single article page.
type Fetcher interface {
	Fetch(ctx context.Context, siteID, pageURL string) (record.RawArticle, error)
}

// PageFetcher fetches article pages with colly and extracts the title and
// body with the site's configured selectors.
type PageFetcher struct {
	sites     *config.Sites
	userAgent string
	timeout   time.Duration
}

func NewPageFetcher(sites *config.Sites, userAgent string, timeout time.Duration) *PageFetcher {
	return &PageFetcher{sites: sites, userAgent: userAgent, timeout: timeout}
}

// newCollector returns a fresh collector per page so fetches share no state.
func (f *PageFetcher) newCollector() *colly.Collector {
	c := colly.NewCollector(colly.UserAgent(f.userAgent))
	if f.timeout > 0 {
		c.SetRequestTimeout(f.timeout)
	}
	return c
}

// Fetch returns the article at pageURL. Network errors and HTTP error
// statuses are wrapped with ErrTransport; a page without body text returns
// ErrInvalidArticle.
func (f *PageFetcher) Fetch(ctx context.Context, siteID, pageURL string) (record.RawArticle, error) {
	if err := ctx.Err(); err != nil {
		return record.RawArticle{}, err
	}
	site, err := f.sites.Get(siteID)
	if err != nil {
		return record.RawArticle{}, err
	}

	c := f.newCollector()

	var title, body string
	c.OnHTML("html", func(e *colly.HTMLElement) {
		if q := site.Queries.ArticleTitle; q != "" {
			title = strings.TrimSpace(firstText(e.DOM, q))
		}
		body = firstText(e.DOM, site.Queries.ArticleBody)
	})

	if err := c.Visit(pageURL); err != nil {
		return record.RawArticle{}, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if strings.TrimSpace(body) == "" {
		return record.RawArticle{}, ErrInvalidArticle
	}

	return record.RawArticle{URL: pageURL, Title: title, Body: body}, nil
}

// firstText is the text of the first element matching selector, or "".
func firstText(doc *goquery.Selection, selector string) string {
	return doc.Find(selector).First().Text()
}
