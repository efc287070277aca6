package processor

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/LJTian/NewsETL/internal/logger"
	"github.com/LJTian/NewsETL/internal/record"
)

func newTestCleaner() *Cleaner {
	return NewCleaner(NewTokenizer(SpanishStopWords()), logger.NewNop())
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func TestHashURLDeterministicAndDistinct(t *testing.T) {
	url1 := "https://example.com/a"
	url2 := "https://example.com/b"

	h1a := hashURL(url1)
	h1b := hashURL(url1)
	h2 := hashURL(url2)

	if h1a != h1b {
		t.Fatalf("hashURL not deterministic: %q vs %q", h1a, h1b)
	}
	if h1a == h2 {
		t.Fatalf("hashURL should differ for different URLs: %q", h1a)
	}
	if h1a != md5Hex(url1) {
		t.Fatalf("hashURL(%q) = %q, want md5 hex", url1, h1a)
	}
}

func TestTitleFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"http://a.com/una-noticia-importante", "una noticia importante"},
		{"http://a.com/seccion/nota", "nota"},
		{"http://a.com/seccion/", ""},
		{"sin-barras", "sin barras"},
		{"", ""},
	}
	for _, c := range cases {
		if got := titleFromURL(c.url); got != c.want {
			t.Fatalf("titleFromURL(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestExtractHost(t *testing.T) {
	if got := extractHost("https://www.elpais.com/internacional/x.html?a=1"); got != "www.elpais.com" {
		t.Fatalf("extractHost = %q", got)
	}
	if got := extractHost("http://a.com:8080/x"); got != "a.com:8080" {
		t.Fatalf("extractHost with port = %q", got)
	}
	if got := extractHost("relative/path"); got != "" {
		t.Fatalf("extractHost of relative path = %q, want empty", got)
	}
	if got := extractHost("http://[::1"); got != "" {
		t.Fatalf("extractHost of malformed url = %q, want empty", got)
	}
}

func TestNewspaperIDFromFilename(t *testing.T) {
	cases := map[string]string{
		"eluniversal.csv":                 "eluniversal",
		"data/elpais_2024_01_03_articles": "elpais",
		"/tmp/work/eltiempo.csv":          "eltiempo",
	}
	for in, want := range cases {
		if got := NewspaperIDFromFilename(in); got != want {
			t.Fatalf("NewspaperIDFromFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCleanDedupesByTitleKeepingFirst(t *testing.T) {
	raw := []record.RawArticle{
		{URL: "http://a.com/x", Title: "Mi Título", Body: "uno"},
		{URL: "http://a.com/y", Title: "Mi Título", Body: "dos"},
	}

	out := newTestCleaner().Clean("elpais", raw)
	if len(out) != 1 {
		t.Fatalf("expected 1 row after dedupe, got %d", len(out))
	}
	if out[0].URL != "http://a.com/x" {
		t.Fatalf("first occurrence should be kept, got %q", out[0].URL)
	}
	if out[0].UID != md5Hex("http://a.com/x") {
		t.Fatalf("uid = %q, want md5 of url", out[0].UID)
	}
}

func TestCleanPreservesOrderOfSurvivors(t *testing.T) {
	raw := []record.RawArticle{
		{URL: "http://a.com/1", Title: "A", Body: "b"},
		{URL: "http://a.com/2", Title: "B", Body: "b"},
		{URL: "http://a.com/3", Title: "A", Body: "b"},
		{URL: "http://a.com/4", Title: "C", Body: "b"},
		{URL: "http://a.com/5", Title: "B", Body: "b"},
	}

	out := newTestCleaner().Clean("elpais", raw)
	var got []string
	for _, a := range out {
		got = append(got, a.URL)
	}
	want := "http://a.com/1,http://a.com/2,http://a.com/4"
	if strings.Join(got, ",") != want {
		t.Fatalf("survivors = %v, want %s", got, want)
	}
}

func TestCleanFillsMissingTitle(t *testing.T) {
	raw := []record.RawArticle{
		{URL: "http://a.com/una-noticia-importante", Body: "cuerpo"},
	}

	out := newTestCleaner().Clean("elpais", raw)
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].Title != "una noticia importante" {
		t.Fatalf("title = %q", out[0].Title)
	}
	if out[0].NTokensTitle != 2 {
		t.Fatalf("n_tokens_title = %d, want 2 (\"una\" is a stop word)", out[0].NTokensTitle)
	}
}

func TestCleanDropsRowsThatCannotBeRepaired(t *testing.T) {
	raw := []record.RawArticle{
		{URL: "http://a.com/ok", Title: "Bien", Body: "cuerpo"},
		{URL: "http://a.com/sin-cuerpo", Title: "Sin cuerpo", Body: ""},
		{URL: "http://a.com/seccion/", Title: "", Body: "sin título posible"},
		{URL: "relativa", Title: "Sin host", Body: "cuerpo"},
		{URL: "http://a.com/saltos", Title: "Solo saltos", Body: "\n\n"},
	}

	out := newTestCleaner().Clean("elpais", raw)
	if len(out) != 1 || out[0].URL != "http://a.com/ok" {
		t.Fatalf("expected only the complete row, got %+v", out)
	}
}

func TestCleanNormalizesBodyAndStampsRow(t *testing.T) {
	raw := []record.RawArticle{
		{URL: "https://www.elpais.com/nota", Title: "El Perro", Body: "El perro\ncorre  por\r\nla playa.\n"},
	}

	out := newTestCleaner().Clean("elpais", raw)
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	a := out[0]
	if strings.Contains(a.Body, "\n") {
		t.Fatalf("body still has newlines: %q", a.Body)
	}
	if a.Body != "El perrocorre  por\rla playa." {
		t.Fatalf("only newlines should be removed, got %q", a.Body)
	}
	if a.Host != "www.elpais.com" || a.NewspaperID != "elpais" {
		t.Fatalf("host/newspaper_id = %q/%q", a.Host, a.NewspaperID)
	}
	if a.NTokensTitle != 1 {
		t.Fatalf("n_tokens_title = %d, want 1", a.NTokensTitle)
	}
}

func TestCleanIsIdempotentOnIdentity(t *testing.T) {
	raw := []record.RawArticle{{URL: "http://a.com/x", Title: "Hola", Body: "mundo"}}
	c := newTestCleaner()

	first := c.Clean("elpais", raw)
	second := c.Clean("elpais", raw)
	if first[0].UID != second[0].UID {
		t.Fatalf("uid changed between runs: %q vs %q", first[0].UID, second[0].UID)
	}
	if raw[0].Body != "mundo" || raw[0].Title != "Hola" {
		t.Fatalf("raw input was mutated: %+v", raw[0])
	}
}

func TestCleanEmptyTable(t *testing.T) {
	if out := newTestCleaner().Clean("elpais", nil); len(out) != 0 {
		t.Fatalf("expected empty output, got %d rows", len(out))
	}
}
