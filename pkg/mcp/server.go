package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/importer"
	"github.com/Sriram-PR/doc-site/pkg/jobs"
	"github.com/Sriram-PR/doc-site/pkg/project"
	"github.com/Sriram-PR/doc-site/pkg/search"
)

const serverName = "docsite"

// Transports accepted by Run
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	Projects  *project.Service
	Index     *search.Index
	Importer  *importer.Importer // Optional; import_url reports an error without it
	Jobs      *jobs.Manager
	Version   string
	Transport string // "stdio" or "sse"
	Addr      string // Listen address for sse
	Logger    *logrus.Logger
}

// Server exposes the documentation store as MCP tools
type Server struct {
	mcpServer *server.MCPServer
	cfg       *ServerConfig
	log       *logrus.Entry
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.Projects == nil || cfg.Index == nil {
		return nil, fmt.Errorf("project service and search index are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Jobs == nil {
		cfg.Jobs = jobs.NewManager(jobs.DefaultRetention, cfg.Logger.WithField("component", "jobs"))
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	mcpServer := server.NewMCPServer(
		serverName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	s := &Server{
		mcpServer: mcpServer,
		cfg:       cfg,
		log:       cfg.Logger.WithField("component", "mcp"),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	tools := []server.ServerTool{
		{
			Tool: mcp.NewTool("list_projects",
				mcp.WithDescription("List stored documentation projects with their section counts"),
				mcp.WithString("category",
					mcp.Description("Only list projects in this category (optional)"),
				),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleListProjects,
		},
		{
			Tool: mcp.NewTool("get_project",
				mcp.WithDescription("Get a project's markdown content and section index"),
				mcp.WithString("slug",
					mcp.Required(),
					mcp.Description("Project slug as returned by list_projects"),
				),
				mcp.WithString("section",
					mcp.Description("Anchor of a single section to return instead of the whole document (optional)"),
				),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleGetProject,
		},
		{
			Tool: mcp.NewTool("get_outline",
				mcp.WithDescription("Get the nested table of contents of a project"),
				mcp.WithString("slug",
					mcp.Required(),
					mcp.Description("Project slug"),
				),
				mcp.WithBoolean("compact",
					mcp.Description("Only return top-level sections"),
				),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleGetOutline,
		},
		{
			Tool: mcp.NewTool("render_markdown",
				mcp.WithDescription("Parse markdown into sections, anchors, and document blocks without storing it"),
				mcp.WithString("content",
					mcp.Required(),
					mcp.Description("Markdown text"),
				),
				mcp.WithString("format",
					mcp.Description("Output format: 'nodes' (default) or 'html'"),
					mcp.Enum("nodes", "html"),
				),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleRenderMarkdown,
		},
		{
			Tool: mcp.NewTool("search_docs",
				mcp.WithDescription("Search project names, headings, and text. Every word of the query must match."),
				mcp.WithString("query",
					mcp.Required(),
					mcp.Description("Search query (case-insensitive)"),
				),
				mcp.WithString("project",
					mcp.Description("Limit search to one project slug (optional)"),
				),
				mcp.WithNumber("max_results",
					mcp.Description("Maximum number of results to return (default: 10, max: 100)"),
				),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleSearchDocs,
		},
		{
			Tool: mcp.NewTool("import_url",
				mcp.WithDescription("Import a README or documentation page from a URL as a new project. Returns immediately with a job ID."),
				mcp.WithString("url",
					mcp.Required(),
					mcp.Description("http(s) URL of a markdown file or HTML page"),
				),
				mcp.WithString("name",
					mcp.Description("Project name (defaults to the page title)"),
				),
				mcp.WithString("category",
					mcp.Description("Project category (defaults to the configured import category)"),
				),
			),
			Handler: s.handleImportURL,
		},
		{
			Tool: mcp.NewTool("get_job_status",
				mcp.WithDescription("Get the status of an import job"),
				mcp.WithString("job_id",
					mcp.Required(),
					mcp.Description("The job ID returned by import_url"),
				),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleGetJobStatus,
		},
	}

	s.mcpServer.AddTools(tools...)
	s.log.Infof("Registered %d MCP tools", len(tools))
}

// Run serves the configured transport until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	switch s.cfg.Transport {
	case TransportStdio, "":
		s.log.Info("Starting MCP server with stdio transport")
		stdio := server.NewStdioServer(s.mcpServer)
		errWriter := s.log.WithField("transport", "stdio").WriterLevel(logrus.ErrorLevel)
		defer errWriter.Close()
		stdio.SetErrorLogger(stdlog.New(errWriter, "", 0))
		err := stdio.Listen(ctx, in, out)
		if err != nil && ctx.Err() != nil {
			return nil
		}
		return err
	case TransportSSE:
		addr := s.cfg.Addr
		if addr == "" {
			addr = ":8081"
		}
		s.log.Infof("Starting MCP server with SSE transport on %s", addr)
		sseServer := server.NewSSEServer(s.mcpServer)

		errCh := make(chan error, 1)
		go func() { errCh <- sseServer.Start(addr) }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			return sseServer.Shutdown(context.Background())
		}
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown cancels running import jobs and waits for them to stop
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down MCP server...")
	return s.cfg.Jobs.Shutdown(ctx)
}
