package processor

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/LJTian/NewsETL/internal/logger"
	"github.com/LJTian/NewsETL/internal/record"
)

// row is the working table entry the passes operate on. An empty string
// means the value is missing.
type row struct {
	uid         string
	url         string
	host        string
	title       string
	body        string
	newspaperID string

	nTokensTitle int
	nTokensBody  int
	counted      bool
}

func (r *row) complete() bool {
	return r.uid != "" && r.url != "" && r.host != "" && r.title != "" &&
		r.body != "" && r.newspaperID != "" && r.counted
}

// pass is one cleaning step over the whole table. Passes never fail; rows
// that cannot be repaired are left incomplete and removed by the last pass.
type pass struct {
	name  string
	apply func(rows []row) []row
}

// Cleaner turns a raw table into a clean one.
type Cleaner struct {
	tokenizer *Tokenizer
	log       logger.Logger
}

func NewCleaner(tokenizer *Tokenizer, log logger.Logger) *Cleaner {
	return &Cleaner{tokenizer: tokenizer, log: log}
}

// Clean applies the cleaning passes in order and returns the surviving rows in
// input order. raw is not modified.
func (c *Cleaner) Clean(newspaperID string, raw []record.RawArticle) []record.CleanArticle {
	rows := make([]row, len(raw))
	for i, a := range raw {
		rows[i] = row{url: a.URL, title: a.Title, body: a.Body}
	}

	for _, p := range c.passes(newspaperID) {
		before := len(rows)
		rows = p.apply(rows)
		c.log.Info(p.name, logger.Int("rows", len(rows)), logger.Int("dropped", before-len(rows)))
	}

	out := make([]record.CleanArticle, 0, len(rows))
	for _, r := range rows {
		out = append(out, record.CleanArticle{
			UID:          r.uid,
			URL:          r.url,
			Host:         r.host,
			Title:        r.title,
			Body:         r.body,
			NewspaperID:  r.newspaperID,
			NTokensTitle: r.nTokensTitle,
			NTokensBody:  r.nTokensBody,
		})
	}
	return out
}

func (c *Cleaner) passes(newspaperID string) []pass {
	return []pass{
		{"tag newspaper id", each(func(r *row) { r.newspaperID = newspaperID })},
		{"extract host", each(func(r *row) { r.host = extractHost(r.url) })},
		{"fill missing titles", each(func(r *row) {
			if r.title == "" {
				r.title = titleFromURL(r.url)
			}
		})},
		{"generate uids", each(func(r *row) { r.uid = hashURL(r.url) })},
		{"remove new lines from body", each(func(r *row) { r.body = strings.ReplaceAll(r.body, "\n", "") })},
		{"tokenize title and body", each(c.countTokens)},
		{"remove duplicate titles", dedupeByTitle},
		{"drop rows with missing data", dropIncomplete},
	}
}

func each(fn func(r *row)) func([]row) []row {
	return func(rows []row) []row {
		for i := range rows {
			fn(&rows[i])
		}
		return rows
	}
}

func (c *Cleaner) countTokens(r *row) {
	// only rows without missing values are counted
	if r.uid == "" || r.url == "" || r.host == "" || r.title == "" || r.body == "" || r.newspaperID == "" {
		return
	}
	r.nTokensTitle = c.tokenizer.Count(r.title)
	r.nTokensBody = c.tokenizer.Count(r.body)
	r.counted = true
}

// dedupeByTitle keeps the first row of each title. Rows with a missing title
// compare equal to each other.
func dedupeByTitle(rows []row) []row {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0]
	for _, r := range rows {
		if _, ok := seen[r.title]; ok {
			continue
		}
		seen[r.title] = struct{}{}
		out = append(out, r)
	}
	return out
}

func dropIncomplete(rows []row) []row {
	out := rows[:0]
	for _, r := range rows {
		if r.complete() {
			out = append(out, r)
		}
	}
	return out
}

// NewspaperIDFromFilename derives the newspaper id from a raw file name:
// the base name without extension, up to the first underscore.
func NewspaperIDFromFilename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	id, _, _ := strings.Cut(name, "_")
	return id
}

func extractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// titleFromURL builds a readable title from the last path segment of a URL:
// "http://a.com/una-noticia" -> "una noticia".
func titleFromURL(raw string) string {
	segment := raw[strings.LastIndex(raw, "/")+1:]
	if segment == "" {
		return ""
	}
	return strings.Join(strings.Split(segment, "-"), " ")
}

// hashURL is the article uid: the md5 hex digest of the url bytes.
func hashURL(u string) string {
	sum := md5.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}
