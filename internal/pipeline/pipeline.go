package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/LJTian/NewsETL/internal/config"
	"github.com/LJTian/NewsETL/internal/logger"
	"github.com/LJTian/NewsETL/internal/processor"
	"github.com/LJTian/NewsETL/internal/record"
	"github.com/LJTian/NewsETL/internal/storage"
)

// Extractor scrapes the raw articles of one site.
type Extractor interface {
	Collect(ctx context.Context, siteID, host string) ([]record.RawArticle, error)
}

// Loader persists a clean table.
type Loader interface {
	Load(ctx context.Context, file string, articles []record.CleanArticle) (*storage.LoadRun, error)
}

const cleanPrefix = "clean_"

// Pipeline runs the extract, transform and load stages over files in a work
// directory.
type Pipeline struct {
	sites     *config.Sites
	extractor Extractor
	cleaner   *processor.Cleaner
	loader    Loader
	workDir   string
	keepFiles bool
	log       logger.Logger
}

type Option func(*Pipeline)

// WithKeepFiles leaves intermediate files in the work directory after Run.
func WithKeepFiles(keep bool) Option {
	return func(p *Pipeline) { p.keepFiles = keep }
}

func New(sites *config.Sites, extractor Extractor, cleaner *processor.Cleaner, loader Loader, workDir string, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		sites:     sites,
		extractor: extractor,
		cleaner:   cleaner,
		loader:    loader,
		workDir:   workDir,
		log:       log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RawPath is where Extract writes the raw table of a site.
func (p *Pipeline) RawPath(siteID string) string {
	return filepath.Join(p.workDir, siteID+".csv")
}

// CleanPath is where Transform writes the clean table for a raw file.
func CleanPath(rawPath string) string {
	return filepath.Join(filepath.Dir(rawPath), cleanPrefix+filepath.Base(rawPath))
}

// Extract scrapes a configured site and writes its raw table. A site with no
// valid articles still gets a header-only file.
func (p *Pipeline) Extract(ctx context.Context, siteID string) (string, error) {
	site, err := p.sites.Get(siteID)
	if err != nil {
		return "", err
	}

	articles, err := p.extractor.Collect(ctx, siteID, site.Host())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(p.workDir, 0o755); err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	path := p.RawPath(siteID)
	if err := record.WriteFile(path, func(w io.Writer) error {
		return record.WriteRaw(w, articles)
	}); err != nil {
		return "", err
	}

	p.log.Info("Extract finished", logger.Site(siteID), logger.File(path), logger.Int("articles", len(articles)))
	return path, nil
}

// Transform cleans the raw table at path and writes clean_<name> next to it.
// The newspaper id comes from the file name.
func (p *Pipeline) Transform(path string) (string, error) {
	raw, err := record.ReadRawFile(path)
	if err != nil {
		return "", err
	}

	newspaperID := processor.NewspaperIDFromFilename(path)
	clean := p.cleaner.Clean(newspaperID, raw)

	out := CleanPath(path)
	if err := record.WriteFile(out, func(w io.Writer) error {
		return record.WriteClean(w, clean)
	}); err != nil {
		return "", err
	}

	p.log.Info("Transform finished", logger.File(out), logger.Int("raw", len(raw)), logger.Int("clean", len(clean)))
	return out, nil
}

// Load persists the clean table at path.
func (p *Pipeline) Load(ctx context.Context, path string) (*storage.LoadRun, error) {
	articles, err := record.ReadCleanFile(path)
	if err != nil {
		return nil, err
	}
	return p.loader.Load(ctx, filepath.Base(path), articles)
}

// siteRun tracks one site through the stages.
type siteRun struct {
	id     string
	file   string
	stage  string
	loaded int
	err    error
}

func (r *siteRun) fail(stage string, err error) {
	r.stage = stage
	r.err = fmt.Errorf("%s %s: %w", r.id, stage, err)
}

// Run extracts every site, then transforms every extracted site, then loads
// every transformed site. A site that fails a stage is skipped by the later
// stages while the others carry on. An empty siteIDs runs all configured
// sites. The returned error joins the failures of all sites.
func (p *Pipeline) Run(ctx context.Context, siteIDs []string) error {
	if len(siteIDs) == 0 {
		siteIDs = p.sites.IDs()
	}
	for _, id := range siteIDs {
		if _, err := p.sites.Get(id); err != nil {
			return err
		}
	}

	runs := make([]*siteRun, len(siteIDs))
	for i, id := range siteIDs {
		runs[i] = &siteRun{id: id}
	}

	p.stage(ctx, runs, "extract", func(r *siteRun) error {
		path, err := p.Extract(ctx, r.id)
		r.file = path
		return err
	})

	p.stage(ctx, runs, "transform", func(r *siteRun) error {
		out, err := p.Transform(r.file)
		if err != nil {
			return err
		}
		p.remove(r.file)
		r.file = out
		return nil
	})

	p.stage(ctx, runs, "load", func(r *siteRun) error {
		run, err := p.Load(ctx, r.file)
		if err != nil {
			return err
		}
		p.remove(r.file)
		r.loaded = run.Articles
		return nil
	})

	var errs []error
	for _, r := range runs {
		if r.err != nil {
			p.log.Error("Site failed", logger.Site(r.id), logger.Stage(r.stage), logger.Error(r.err))
			errs = append(errs, r.err)
			continue
		}
		p.log.Info("Site done", logger.Site(r.id), logger.Int("loaded", r.loaded))
	}
	p.log.Info("Pipeline finished", logger.Int("sites", len(runs)), logger.Int("failed", len(errs)))

	return errors.Join(errs...)
}

func (p *Pipeline) stage(ctx context.Context, runs []*siteRun, name string, fn func(*siteRun) error) {
	for _, r := range runs {
		if r.err != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			r.fail(name, err)
			continue
		}
		p.log.Debug("Stage start", logger.Site(r.id), logger.Stage(name))
		if err := fn(r); err != nil {
			r.fail(name, err)
			p.log.Warn("Stage failed, skipping site", logger.Site(r.id), logger.Stage(name), logger.Error(err))
		}
	}
}

func (p *Pipeline) remove(path string) {
	if p.keepFiles {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.log.Warn("Could not remove intermediate file", logger.File(path), logger.Error(err))
	}
}
