package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/LJTian/NewsETL/internal/logger"
	"github.com/LJTian/NewsETL/internal/record"
)

// Collector discovers a site's article links and fetches each of them,
// keeping only valid articles.
type Collector struct {
	links       LinkSource
	fetcher     Fetcher
	log         logger.Logger
	concurrency int
}

// NewCollector builds a collector. concurrency <= 1 fetches one link at a
// time; larger values fetch in parallel but keep link order in the output.
func NewCollector(links LinkSource, fetcher Fetcher, log logger.Logger, concurrency int) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Collector{links: links, fetcher: fetcher, log: log, concurrency: concurrency}
}

// Collect scrapes every article linked from the site. Only link discovery
// failures are returned; individual articles that fail are skipped.
func (c *Collector) Collect(ctx context.Context, siteID, host string) ([]record.RawArticle, error) {
	log := c.log.With(logger.Site(siteID))
	log.Info("Beginning scraper", logger.String("host", host))

	links, err := c.links.Links(ctx, siteID)
	if err != nil {
		return nil, fmt.Errorf("discover links: %w", err)
	}
	log.Info("Discovered article links", logger.Int("links", len(links)))

	return c.FetchAll(ctx, siteID, host, links)
}

// FetchAll resolves and fetches links, returning the valid articles in the
// order of their links. It only fails when ctx is done.
func (c *Collector) FetchAll(ctx context.Context, siteID, host string, links []string) ([]record.RawArticle, error) {
	log := c.log.With(logger.Site(siteID))
	results := make([]*record.RawArticle, len(links))

	if c.concurrency == 1 {
		for i, link := range links {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = c.fetchOne(ctx, log, siteID, Resolve(host, link))
		}
	} else {
		var (
			wg  sync.WaitGroup
			sem = make(chan struct{}, c.concurrency)
		)
		for i, link := range links {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(idx int, pageURL string) {
				defer wg.Done()
				defer func() { <-sem }()
				// each goroutine owns results[idx]
				results[idx] = c.fetchOne(ctx, log, siteID, pageURL)
			}(i, Resolve(host, link))
		}
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	articles := make([]record.RawArticle, 0, len(links))
	for _, a := range results {
		if a != nil {
			articles = append(articles, *a)
		}
	}
	log.Info("Collected articles", logger.Int("links", len(links)), logger.Int("articles", len(articles)))
	return articles, nil
}

// fetchOne returns nil when the article must be skipped.
func (c *Collector) fetchOne(ctx context.Context, log logger.Logger, siteID, pageURL string) *record.RawArticle {
	log = log.With(logger.URL(pageURL))
	log.Debug("Start fetching article")

	article, err := c.fetcher.Fetch(ctx, siteID, pageURL)
	switch {
	case errors.Is(err, ErrInvalidArticle):
		log.Warn("Invalid article. There is no body")
		return nil
	case err != nil:
		log.Warn("Error while fetching the article", logger.Error(err))
		return nil
	}

	log.Info("Article fetched")
	return &article
}
