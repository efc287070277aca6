package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrSchemaMismatch is returned when a file header does not match the schema.
var ErrSchemaMismatch = errors.New("csv header does not match schema")

func (s Schema) writeHeader(w *csv.Writer) error {
	return w.Write(s.Columns)
}

func (s Schema) checkHeader(r *csv.Reader) error {
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s v%d: empty file", ErrSchemaMismatch, s.Name, s.Version)
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if strings.Join(header, ",") != strings.Join(s.Columns, ",") {
		return fmt.Errorf("%w: %s v%d: got %q", ErrSchemaMismatch, s.Name, s.Version, header)
	}
	return nil
}

// WriteRaw writes articles using RawSchema.
func WriteRaw(w io.Writer, articles []RawArticle) error {
	cw := csv.NewWriter(w)
	if err := RawSchema.writeHeader(cw); err != nil {
		return err
	}
	for _, a := range articles {
		if err := cw.Write([]string{a.URL, a.Title, a.Body}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRaw reads articles written with RawSchema.
func ReadRaw(r io.Reader) ([]RawArticle, error) {
	cr := csv.NewReader(r)
	if err := RawSchema.checkHeader(cr); err != nil {
		return nil, err
	}

	var out []RawArticle
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read raw row: %w", err)
		}
		out = append(out, RawArticle{URL: row[0], Title: row[1], Body: row[2]})
	}
}

// WriteClean writes articles using CleanSchema.
func WriteClean(w io.Writer, articles []CleanArticle) error {
	cw := csv.NewWriter(w)
	if err := CleanSchema.writeHeader(cw); err != nil {
		return err
	}
	for _, a := range articles {
		row := []string{
			a.UID,
			a.URL,
			a.Host,
			a.Title,
			a.Body,
			a.NewspaperID,
			strconv.Itoa(a.NTokensTitle),
			strconv.Itoa(a.NTokensBody),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadClean reads articles written with CleanSchema.
func ReadClean(r io.Reader) ([]CleanArticle, error) {
	cr := csv.NewReader(r)
	if err := CleanSchema.checkHeader(cr); err != nil {
		return nil, err
	}

	var out []CleanArticle
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read clean row: %w", err)
		}
		nTitle, err := strconv.Atoi(row[6])
		if err != nil {
			return nil, fmt.Errorf("line %d: n_tokens_title: %w", line, err)
		}
		nBody, err := strconv.Atoi(row[7])
		if err != nil {
			return nil, fmt.Errorf("line %d: n_tokens_body: %w", line, err)
		}
		out = append(out, CleanArticle{
			UID:          row[0],
			URL:          row[1],
			Host:         row[2],
			Title:        row[3],
			Body:         row[4],
			NewspaperID:  row[5],
			NTokensTitle: nTitle,
			NTokensBody:  nBody,
		})
	}
}

// WriteFile writes a stage output atomically: the content goes to a temporary
// file in the same directory which is renamed over path once fully written.
func WriteFile(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = write(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// ReadRawFile opens path and reads it with ReadRaw.
func ReadRawFile(path string) ([]RawArticle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	articles, err := ReadRaw(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return articles, nil
}

// ReadCleanFile opens path and reads it with ReadClean.
func ReadCleanFile(path string) ([]CleanArticle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	articles, err := ReadClean(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return articles, nil
}
