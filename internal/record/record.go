// Package record holds the article shapes handed between pipeline stages and
// the CSV schemas used to serialize them.
package record

// RawArticle is one fetched article before cleaning. An empty Title means the
// page had no title.
type RawArticle struct {
	URL   string
	Title string
	Body  string
}

// CleanArticle is an article after every cleaning pass. UID is the md5 hex
// digest of URL.
type CleanArticle struct {
	UID          string
	URL          string
	Host         string
	Title        string
	Body         string
	NewspaperID  string
	NTokensTitle int
	NTokensBody  int
}

// Schema is an explicitly declared CSV layout. Writers emit Columns as the
// header row and readers reject any file whose header differs.
type Schema struct {
	Name    string
	Version int
	Columns []string
}

var (
	RawSchema = Schema{
		Name:    "raw",
		Version: 1,
		Columns: []string{"url", "title", "body"},
	}
	CleanSchema = Schema{
		Name:    "clean",
		Version: 1,
		Columns: []string{"uid", "url", "host", "title", "body", "newspaper_id", "n_tokens_title", "n_tokens_body"},
	}
)
