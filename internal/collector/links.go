package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/mmcdole/gofeed"

	"github.com/LJTian/NewsETL/internal/config"
	"github.com/LJTian/NewsETL/internal/logger"
)

// LinkSource discovers the article links published by a site.
type LinkSource interface {
	Links(ctx context.Context, siteID string) ([]string, error)
}

// HomePage discovers links from the site homepage selector and, when
// configured, from the site's RSS/Atom feed. Links are returned as found,
// unresolved, without duplicates and in first-seen order.
type HomePage struct {
	sites     *config.Sites
	userAgent string
	timeout   time.Duration
	log       logger.Logger
}

func NewHomePage(sites *config.Sites, userAgent string, timeout time.Duration, log logger.Logger) *HomePage {
	return &HomePage{sites: sites, userAgent: userAgent, timeout: timeout, log: log}
}

func (h *HomePage) Links(ctx context.Context, siteID string) ([]string, error) {
	site, err := h.sites.Get(siteID)
	if err != nil {
		return nil, err
	}

	var links []string
	if site.Queries.HomepageArticleLinks != "" {
		found, err := h.homepageLinks(site)
		if err != nil {
			return nil, fmt.Errorf("homepage %s: %w", site.URL, err)
		}
		links = append(links, found...)
	}

	if site.Feed != "" {
		found, err := h.feedLinks(ctx, site.Feed)
		switch {
		case err != nil && site.Queries.HomepageArticleLinks == "":
			return nil, fmt.Errorf("feed %s: %w", site.Feed, err)
		case err != nil:
			h.log.Warn("Error while reading the feed", logger.Site(siteID), logger.URL(site.Feed), logger.Error(err))
		default:
			links = append(links, found...)
		}
	}

	return uniqueLinks(links), nil
}

func (h *HomePage) homepageLinks(site config.Site) ([]string, error) {
	c := colly.NewCollector(colly.UserAgent(h.userAgent))
	if h.timeout > 0 {
		c.SetRequestTimeout(h.timeout)
	}

	var links []string
	c.OnHTML(site.Queries.HomepageArticleLinks, func(e *colly.HTMLElement) {
		if href := strings.TrimSpace(e.Attr("href")); href != "" {
			links = append(links, href)
		}
	})

	if err := c.Visit(site.URL); err != nil {
		return nil, err
	}
	return links, nil
}

func (h *HomePage) feedLinks(ctx context.Context, feedURL string) ([]string, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = h.userAgent
	fp.Client = &http.Client{Timeout: h.timeout}

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if link := strings.TrimSpace(item.Link); link != "" {
			links = append(links, link)
		}
	}
	return links, nil
}

func uniqueLinks(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, len(links))
	for _, l := range links {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
