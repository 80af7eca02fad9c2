package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Sriram-PR/doc-site/pkg/importer"
	"github.com/Sriram-PR/doc-site/pkg/jobs"
	applog "github.com/Sriram-PR/doc-site/pkg/log"
	"github.com/Sriram-PR/doc-site/pkg/search"
	"github.com/Sriram-PR/doc-site/pkg/server"
	"github.com/Sriram-PR/doc-site/pkg/watch"
)

// serveOptions are the flags of the serve subcommand
type serveOptions struct {
	configPath string
	addr       string
	logLevel   string
	syncDir    string
	pprofAddr  string
}

// runServe handles the serve subcommand
func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var opts serveOptions
	fs.StringVar(&opts.configPath, "config", "", "Path to config file (built-in defaults when empty)")
	fs.StringVar(&opts.addr, "addr", "", "Listen address (overrides server.addr)")
	fs.StringVar(&opts.logLevel, "loglevel", "", "Log level (overrides log_level)")
	fs.StringVar(&opts.syncDir, "sync-dir", "", "Watch this directory and sync it into projects (overrides sync.dir)")
	fs.StringVar(&opts.pprofAddr, "pprof", "", "Enable pprof on address (e.g., localhost:6060)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsite serve [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(doServe(ctx, opts, os.Stderr))
}

// doServe runs the HTTP server, and the directory watcher when a sync
// directory is configured, until ctx is cancelled.
func doServe(ctx context.Context, opts serveOptions, stderr io.Writer) int {
	a, err := openApp(opts.configPath, opts.logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.Close()

	cfg := a.cfg
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.syncDir != "" {
		cfg.Sync.Dir = opts.syncDir
	}
	startPprof(opts.pprofAddr, a.logger)

	jobManager := jobs.NewManager(jobs.DefaultRetention, applog.Component(a.logger, "jobs"))
	srv, err := server.New(server.Deps{
		Config:         cfg.Server,
		Projects:       a.projects,
		Index:          search.NewIndex(cfg.Search, applog.Component(a.logger, "search")),
		Importer:       importer.New(cfg.Import, a.metrics, applog.Component(a.logger, "importer")),
		Jobs:           jobManager,
		Store:          a.store,
		GCInterval:     cfg.Storage.GCInterval,
		Metrics:        a.metrics,
		MetricsHandler: a.metricsHandler(),
		Log:            applog.Component(a.logger, "server"),
	})
	if err != nil {
		a.logger.Errorf("Failed to create server: %v", err)
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx)
	})

	if cfg.Sync.Dir != "" {
		syncer, err := watch.NewSyncer(cfg.Sync, a.projects, a.metrics, applog.Component(a.logger, "sync"))
		if err != nil {
			a.logger.Errorf("Failed to create syncer: %v", err)
			return 1
		}
		g.Go(func() error {
			return syncer.Watch(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		a.logger.Errorf("Server error: %v", err)
		return 1
	}
	a.logger.Info("Server stopped")
	return 0
}
