package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	applog "github.com/Sriram-PR/doc-site/pkg/log"
	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/watch"
)

// syncOptions are the flags of the sync subcommand
type syncOptions struct {
	configPath string
	logLevel   string
	dir        string
	stateFile  string
	prune      bool
	watch      bool
	interval   string
}

// runSync handles the sync subcommand
func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	var opts syncOptions
	fs.StringVar(&opts.configPath, "config", "", "Path to config file (built-in defaults when empty)")
	fs.StringVar(&opts.logLevel, "loglevel", "", "Log level (overrides log_level)")
	fs.StringVar(&opts.dir, "dir", "", "Directory to sync (overrides sync.dir)")
	fs.StringVar(&opts.stateFile, "state-file", "", "Sync state file (overrides sync.state_file)")
	fs.BoolVar(&opts.prune, "prune", false, "Delete projects whose source file was removed")
	fs.BoolVar(&opts.watch, "watch", false, "Keep running and re-sync on file changes")
	fs.StringVar(&opts.interval, "interval", "", "Keep running and re-sync on this interval (e.g., 30m, 6h, 1d)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsite sync [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(doSync(ctx, opts, os.Stdout, os.Stderr))
}

// doSync mirrors a directory into projects once, on an interval, or on change.
func doSync(ctx context.Context, opts syncOptions, stdout, stderr io.Writer) int {
	if opts.watch && opts.interval != "" {
		fmt.Fprintln(stderr, "Error: -watch and -interval cannot be combined")
		return 1
	}
	var interval time.Duration
	if opts.interval != "" {
		var err error
		if interval, err = watch.ParseInterval(opts.interval); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	a, err := openApp(opts.configPath, opts.logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.Close()

	cfg := a.cfg.Sync
	if opts.dir != "" {
		cfg.Dir = opts.dir
	}
	if opts.stateFile != "" {
		cfg.StateFile = opts.stateFile
	}
	if opts.prune {
		cfg.Prune = true
	}

	syncer, err := watch.NewSyncer(cfg, a.projects, a.metrics, applog.Component(a.logger, "sync"))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	switch {
	case opts.watch:
		err = syncer.Watch(ctx)
	case interval > 0:
		err = syncer.RunEvery(ctx, interval)
	default:
		var report *watch.Report
		report, err = syncer.SyncOnce(ctx)
		if report != nil {
			writeSyncReport(stdout, report)
		}
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// writeSyncReport prints changed files and a one-line summary
func writeSyncReport(w io.Writer, report *watch.Report) {
	for _, f := range report.Files {
		if f.Action == models.SyncActionUnchanged {
			continue
		}
		switch {
		case f.Error != "":
			fmt.Fprintf(w, "%-9s %s: %s\n", f.Action, f.Path, f.Error)
		case f.Slug != "":
			fmt.Fprintf(w, "%-9s %s -> %s\n", f.Action, f.Path, f.Slug)
		default:
			fmt.Fprintf(w, "%-9s %s\n", f.Action, f.Path)
		}
	}
	fmt.Fprintf(w, "%d created, %d updated, %d unchanged, %d deleted, %d failed in %s\n",
		report.Count(models.SyncActionCreated),
		report.Count(models.SyncActionUpdated),
		report.Count(models.SyncActionUnchanged),
		report.Count(models.SyncActionDeleted),
		report.Count(models.SyncActionFailed),
		report.Duration.Round(time.Millisecond))
}
