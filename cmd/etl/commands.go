package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LJTian/NewsETL/internal/collector"
	"github.com/LJTian/NewsETL/internal/config"
	"github.com/LJTian/NewsETL/internal/logger"
	"github.com/LJTian/NewsETL/internal/pipeline"
	"github.com/LJTian/NewsETL/internal/processor"
	"github.com/LJTian/NewsETL/internal/storage"
)

// app holds what the subcommands share. It is filled in by the root
// PersistentPreRunE.
type app struct {
	cfg *config.Config
	log logger.Logger

	sitesFile   string
	workDir     string
	logLevel    string
	concurrency int
	keepFiles   bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "etl",
		Short:        "Scrape, clean and load news articles",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.sitesFile, "config", "", "news sites YAML file (default $SITES_CONFIG or config.yaml)")
	root.PersistentFlags().StringVar(&a.workDir, "work-dir", "", "directory for intermediate CSV files (default $WORK_DIR or data)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL or info)")
	root.PersistentFlags().IntVar(&a.concurrency, "concurrency", 0, "articles fetched in parallel per site (default $FETCH_CONCURRENCY or 1)")

	root.AddCommand(
		a.extractCmd(),
		a.transformCmd(),
		a.loadCmd(),
		a.runCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	a.cfg = config.Load()
	if a.sitesFile != "" {
		a.cfg.SitesConfig = a.sitesFile
	}
	if a.workDir != "" {
		a.cfg.WorkDir = a.workDir
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}
	if a.concurrency > 0 {
		a.cfg.FetchConcurrency = a.concurrency
	}

	log, err := logger.New(a.cfg.LogLevel, a.cfg.LogDev)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log.With(logger.String("command", cmd.Name()))
	return nil
}

func (a *app) sites() (*config.Sites, error) {
	sites, err := config.LoadSites(a.cfg.SitesConfig)
	if err != nil {
		return nil, fmt.Errorf("load sites: %w", err)
	}
	return sites, nil
}

// checkSites rejects unknown site ids before anything is fetched.
func checkSites(sites *config.Sites, ids []string) error {
	for _, id := range ids {
		if _, err := sites.Get(id); err != nil {
			return fmt.Errorf("invalid site_id argument: %w", err)
		}
	}
	return nil
}

func (a *app) cleaner() (*processor.Cleaner, error) {
	stop := processor.SpanishStopWords()
	if a.cfg.StopwordsFile != "" {
		var err error
		if stop, err = processor.LoadStopWords(a.cfg.StopwordsFile); err != nil {
			return nil, fmt.Errorf("load stop words: %w", err)
		}
	}
	return processor.NewCleaner(processor.NewTokenizer(stop), a.log), nil
}

func (a *app) collector(sites *config.Sites) *collector.Collector {
	return collector.NewCollector(
		collector.NewHomePage(sites, a.cfg.UserAgent, a.cfg.FetchTimeout, a.log),
		collector.NewPageFetcher(sites, a.cfg.UserAgent, a.cfg.FetchTimeout),
		a.log,
		a.cfg.FetchConcurrency,
	)
}

// store opens Postgres only; the pipeline never reads through the cache.
func (a *app) store() (*storage.Store, error) {
	return storage.NewStore(a.cfg.PostgresDSN, "", a.log)
}

func (a *app) extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <site_id>",
		Short: "Scrape a configured site into <work-dir>/<site_id>.csv",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, err := a.sites()
			if err != nil {
				return err
			}
			if err := checkSites(sites, args); err != nil {
				return err
			}

			p := pipeline.New(sites, a.collector(sites), nil, nil, a.cfg.WorkDir, a.log)
			path, err := p.Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func (a *app) transformCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "transform <filename>",
		Short: "Clean a raw CSV file into clean_<filename>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cleaner, err := a.cleaner()
			if err != nil {
				return err
			}

			p := pipeline.New(nil, nil, cleaner, nil, a.cfg.WorkDir, a.log)
			out, err := p.Transform(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func (a *app) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <filename>",
		Short: "Load a clean CSV file into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			defer store.Close()

			p := pipeline.New(nil, nil, nil, store, a.cfg.WorkDir, a.log)
			run, err := p.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d articles (run %s)\n", run.Articles, run.ID)
			return nil
		},
	}
}

func (a *app) runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [site_id...]",
		Short: "Extract, transform and load the given sites (all configured sites by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			sites, err := a.sites()
			if err != nil {
				return err
			}
			if err := checkSites(sites, args); err != nil {
				return err
			}
			cleaner, err := a.cleaner()
			if err != nil {
				return err
			}
			store, err := a.store()
			if err != nil {
				return err
			}
			defer store.Close()

			p := pipeline.New(sites, a.collector(sites), cleaner, store, a.cfg.WorkDir, a.log,
				pipeline.WithKeepFiles(a.keepFiles))
			return p.Run(cmd.Context(), args)
		},
	}
	cmd.Flags().BoolVar(&a.keepFiles, "keep-files", false, "keep intermediate CSV files")
	return cmd
}
