package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Site catalog errors.
var (
	ErrNoSites         = errors.New("at least one news site is required")
	ErrSiteMissingURL  = errors.New("url is required")
	ErrSiteMissingLink = errors.New("queries.homepage_article_links or feed is required")
	ErrSiteMissingBody = errors.New("queries.article_body is required")
	ErrUnknownSite     = errors.New("unknown news site")
)

// Sites is the news site catalog, keyed by site id.
type Sites struct {
	NewsSites map[string]Site `yaml:"news_sites"`
}

// Site describes one news site and the selectors used to scrape it.
type Site struct {
	URL     string  `yaml:"url"`
	Feed    string  `yaml:"feed"`
	Queries Queries `yaml:"queries"`
}

// Queries are CSS selectors for the homepage and article pages.
type Queries struct {
	HomepageArticleLinks string `yaml:"homepage_article_links"`
	ArticleTitle         string `yaml:"article_title"`
	ArticleBody          string `yaml:"article_body"`
}

// LoadSites reads and validates the site catalog at path.
func LoadSites(path string) (*Sites, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites config: %w", err)
	}
	return ParseSites(data)
}

// ParseSites decodes a YAML site catalog.
func ParseSites(data []byte) (*Sites, error) {
	var s Sites
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("sites config validation failed: %w", err)
	}
	return &s, nil
}

// Validate checks every configured site.
func (s *Sites) Validate() error {
	if len(s.NewsSites) == 0 {
		return ErrNoSites
	}
	for _, id := range s.IDs() {
		site := s.NewsSites[id]
		if site.URL == "" {
			return fmt.Errorf("%w: news_sites.%s", ErrSiteMissingURL, id)
		}
		if site.Queries.HomepageArticleLinks == "" && site.Feed == "" {
			return fmt.Errorf("%w: news_sites.%s", ErrSiteMissingLink, id)
		}
		if site.Queries.ArticleBody == "" {
			return fmt.Errorf("%w: news_sites.%s", ErrSiteMissingBody, id)
		}
	}
	return nil
}

// IDs returns the configured site ids in sorted order.
func (s *Sites) IDs() []string {
	ids := make([]string, 0, len(s.NewsSites))
	for id := range s.NewsSites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Get returns the site for id, or ErrUnknownSite.
func (s *Sites) Get(id string) (Site, error) {
	site, ok := s.NewsSites[id]
	if !ok {
		return Site{}, fmt.Errorf("%w: %q (choose from %s)", ErrUnknownSite, id, strings.Join(s.IDs(), ", "))
	}
	return site, nil
}

// Host returns the site URL without a trailing slash, the form links are
// resolved against.
func (s Site) Host() string {
	return strings.TrimRight(s.URL, "/")
}
