package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Sriram-PR/doc-site/pkg/importer"
	"github.com/Sriram-PR/doc-site/pkg/jobs"
	applog "github.com/Sriram-PR/doc-site/pkg/log"
	"github.com/Sriram-PR/doc-site/pkg/mcp"
	"github.com/Sriram-PR/doc-site/pkg/search"
)

// runMcpServer handles the mcp-server subcommand
func runMcpServer(args []string) {
	fs := flag.NewFlagSet("mcp-server", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to config file (built-in defaults when empty)")
	transport := fs.String("transport", "", "Transport type (stdio, sse); overrides mcp.transport")
	addr := fs.String("addr", "", "Listen address for sse transport; overrides mcp.addr")
	logLevel := fs.String("loglevel", "", "Log level (debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: docsite mcp-server [options]

Start an MCP (Model Context Protocol) server for AI tool integration.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Start with stdio transport
  docsite mcp-server -config config.yaml

  # Start with SSE transport on port 8081
  docsite mcp-server -config config.yaml -transport sse -addr :8081

Available MCP Tools:
  list_projects    List stored documentation projects
  get_project      Get a project's markdown, or one section of it
  get_outline      Get a project's table of contents
  render_markdown  Parse markdown into sections and blocks
  search_docs      Search project content
  import_url       Import a page from a URL in the background
  get_job_status   Check an import job
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(doMcpServer(ctx, *configFile, *transport, *addr, *logLevel, os.Stderr))
}

// doMcpServer is the testable implementation of the MCP server.
// The protocol owns stdout, so logs go to stderr.
func doMcpServer(ctx context.Context, configPath, transport, addr, logLevel string, stderr io.Writer) int {
	a, err := openApp(configPath, logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer a.Close()

	if transport == "" {
		transport = a.cfg.MCP.Transport
	}
	if addr == "" {
		addr = a.cfg.MCP.Addr
	}

	server, err := mcp.NewServer(&mcp.ServerConfig{
		Projects:  a.projects,
		Index:     search.NewIndex(a.cfg.Search, applog.Component(a.logger, "search")),
		Importer:  importer.New(a.cfg.Import, a.metrics, applog.Component(a.logger, "importer")),
		Jobs:      jobs.NewManager(jobs.DefaultRetention, applog.Component(a.logger, "jobs")),
		Version:   version,
		Transport: transport,
		Addr:      addr,
		Logger:    a.logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}

	runErr := server.Run(ctx)
	if err := server.Shutdown(context.Background()); err != nil {
		a.logger.Warnf("Import jobs did not stop cleanly: %v", err)
	}
	if runErr != nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", runErr)
		return 1
	}

	return 0
}
