package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/doc-site/pkg/config"
	applog "github.com/Sriram-PR/doc-site/pkg/log"
	"github.com/Sriram-PR/doc-site/pkg/metrics"
	"github.com/Sriram-PR/doc-site/pkg/project"
	"github.com/Sriram-PR/doc-site/pkg/storage"
)

const version = "0.4.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "render":
		runRender(os.Args[2:])
	case "outline":
		runOutline(os.Args[2:])
	case "lint":
		runLint(os.Args[2:])
	case "preview":
		runPreview(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	case "sync":
		runSync(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "version":
		fmt.Printf("docsite %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `docsite - Markdown documentation site

Usage:
  docsite <command> [options]

Commands:
  serve       Start the HTTP API and documentation pages
  mcp-server  Start MCP server for AI tool integration
  render      Render a markdown file to blocks, sections, or HTML
  outline     Print the table of contents of a markdown file
  lint        Report structural problems in a markdown file
  preview     Render a markdown file for the terminal
  import      Import a README or documentation page from a URL
  sync        Sync a directory of markdown files into projects
  validate    Validate configuration file
  version     Show version info

Run 'docsite <command> -h' for command-specific help.`)
}

// loadConfig loads and parses the config file. An empty path yields the
// built-in defaults.
func loadConfig(path string) (*config.AppConfig, error) {
	var cfg config.AppConfig
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

// loadAndValidateConfig loads the config, applies defaults, and returns the
// warnings for the caller to log once a logger exists.
func loadAndValidateConfig(path, logLevel string) (*config.AppConfig, []string, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, warnings, err
	}
	return cfg, warnings, nil
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", "config.yaml", "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docsite validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	os.Exit(doValidate(*configFile, os.Stdout, os.Stderr))
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range warnings {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "OK: server %s, storage %s, anchors %s\n", appCfg.Server.Addr, storageLabel(appCfg.Storage), appCfg.Markdown.AnchorMode)
	if appCfg.Sync.Dir != "" {
		fmt.Fprintf(stdout, "OK: sync %s -> %s\n", appCfg.Sync.Dir, appCfg.Sync.StateFile)
	}
	for host := range appCfg.Import.Sites {
		fmt.Fprintf(stdout, "OK: import site [%s]\n", host)
	}

	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

func storageLabel(s config.StorageConfig) string {
	if s.InMemory {
		return "in-memory"
	}
	return s.Dir
}

// app holds the components shared by the commands that touch the project store
type app struct {
	cfg      *config.AppConfig
	logger   *logrus.Logger
	store    *storage.BadgerStore
	registry *prom.Registry
	metrics  metrics.Recorder
	projects *project.Service
}

// openApp loads configuration, builds the logger, and opens the store
func openApp(configPath, logLevel string, logOut io.Writer) (*app, error) {
	cfg, warnings, err := loadAndValidateConfig(configPath, logLevel)
	if err != nil {
		return nil, err
	}

	logger, err := applog.NewLogger(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}

	a := &app{cfg: cfg, logger: logger, metrics: metrics.NoopRecorder{}}
	if cfg.Metrics.MetricsEnabled() {
		a.registry = metrics.NewRegistry()
		a.metrics = metrics.NewPrometheusRecorder(a.registry, cfg.Metrics.Namespace)
	}

	a.store, err = storage.NewBadgerStore(storage.Options{
		Dir:            cfg.Storage.Dir,
		InMemory:       cfg.Storage.InMemory,
		GCDiscardRatio: cfg.Storage.GCDiscardRatio,
	}, applog.Component(logger, "storage"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a.projects = project.NewService(a.store, cfg.Markdown, a.metrics, applog.Component(logger, "project"))
	return a, nil
}

// Close releases the store
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Errorf("Error closing store: %v", err)
	}
}

// metricsHandler serves the app registry, or nil when metrics are disabled
func (a *app) metricsHandler() http.Handler {
	if a.registry == nil {
		return nil
	}
	return metrics.HTTPHandler(a.registry)
}

// startPprof starts the pprof HTTP server if addr is non-empty.
func startPprof(addr string, log *logrus.Logger) {
	if addr != "" {
		go func() {
			log.Infof("Starting pprof server at http://%s/debug/pprof/", addr)
			if err := http.ListenAndServe(addr, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("pprof server error: %v", err)
			}
		}()
	}
}
