package record

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRawRoundTripKeepsNewlinesAndEmptyTitle(t *testing.T) {
	in := []RawArticle{
		{URL: "http://a.com/x", Title: "Mi Título", Body: "línea uno\nlínea, dos"},
		{URL: "http://a.com/una-noticia", Title: "", Body: "cuerpo"},
	}

	var buf bytes.Buffer
	if err := WriteRaw(&buf, in); err != nil {
		t.Fatalf("WriteRaw error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "url,title,body\n") {
		t.Fatalf("unexpected header: %q", buf.String())
	}

	out, err := ReadRaw(&buf)
	if err != nil {
		t.Fatalf("ReadRaw error: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestCleanHeaderStartsWithUID(t *testing.T) {
	var buf bytes.Buffer
	err := WriteClean(&buf, []CleanArticle{{
		UID: "u1", URL: "http://a.com/x", Host: "a.com", Title: "t", Body: "b",
		NewspaperID: "elpais", NTokensTitle: 1, NTokensBody: 2,
	}})
	if err != nil {
		t.Fatalf("WriteClean error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "uid,url,host,title,body,newspaper_id,n_tokens_title,n_tokens_body" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "u1,http://a.com/x,a.com,t,b,elpais,1,2" {
		t.Fatalf("row = %q", lines[1])
	}
}

func TestReadRejectsForeignHeader(t *testing.T) {
	_, err := ReadRaw(strings.NewReader("body,title,url\nb,t,u\n"))
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}

	_, err = ReadRaw(strings.NewReader(strings.Join(CleanSchema.Columns, ",") + "\n"))
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch for a clean file read as raw, got %v", err)
	}

	_, err = ReadClean(strings.NewReader(""))
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch on empty file, got %v", err)
	}
}

func TestReadCleanRejectsBadCounts(t *testing.T) {
	in := "uid,url,host,title,body,newspaper_id,n_tokens_title,n_tokens_body\n" +
		"u,http://a.com/x,a.com,t,b,elpais,uno,2\n"
	if _, err := ReadClean(strings.NewReader(in)); err == nil {
		t.Fatalf("expected error for non-integer token count")
	}
}

func TestWriteFileIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "elpais.csv")

	err := WriteFile(path, func(w io.Writer) error {
		return WriteRaw(w, []RawArticle{{URL: "http://a.com/x", Body: "b"}})
	})
	if err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	got, err := ReadRawFile(path)
	if err != nil {
		t.Fatalf("ReadRawFile error: %v", err)
	}
	if len(got) != 1 || got[0].URL != "http://a.com/x" {
		t.Fatalf("unexpected articles: %+v", got)
	}

	boom := errors.New("boom")
	err = WriteFile(filepath.Join(dir, "broken.csv"), func(w io.Writer) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped write error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), "broken") {
			t.Fatalf("failed write left %s behind", e.Name())
		}
	}
}
