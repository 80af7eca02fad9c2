package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/doc-site/pkg/config"
	"github.com/Sriram-PR/doc-site/pkg/importer"
	"github.com/Sriram-PR/doc-site/pkg/jobs"
	"github.com/Sriram-PR/doc-site/pkg/project"
	"github.com/Sriram-PR/doc-site/pkg/search"
	"github.com/Sriram-PR/doc-site/pkg/storage"
)

const guide = "# Guide\nIntro.\n## Install\nRun the installer.\n### Linux\napt install widget\n## Usage\nStart it.\n"

func newTestServer(t *testing.T, imp *importer.Importer) *Server {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	entry := logrus.NewEntry(logger)

	store, err := storage.NewBadgerStore(storage.Options{InMemory: true}, entry)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := project.NewService(store, config.MarkdownConfig{}, nil, entry)
	_, err = svc.Create(project.CreateInput{Name: "Guide", Content: guide, Category: "handbook"})
	require.NoError(t, err)
	_, err = svc.Create(project.CreateInput{Name: "Changelog", Content: "# Changelog\n## v1\nFirst release.\n"})
	require.NoError(t, err)

	s, err := NewServer(&ServerConfig{
		Projects:  svc,
		Index:     search.NewIndex(config.SearchConfig{}, entry),
		Importer:  imp,
		Jobs:      jobs.NewManager(time.Hour, entry),
		Transport: TransportStdio,
		Logger:    logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func callTool(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// resultJSON decodes the text payload of a successful tool result
func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.NotNil(t, res)
	require.False(t, res.IsError, resultText(t, res))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	return out
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestNewServer_RequiresCollaborators(t *testing.T) {
	_, err := NewServer(&ServerConfig{})
	assert.Error(t, err)
}

func TestToolsAreRegistered(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.mcpServer.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	for _, name := range []string{"list_projects", "get_project", "get_outline", "render_markdown", "search_docs", "import_url", "get_job_status"} {
		assert.Contains(t, string(data), `"name":"`+name+`"`)
	}
}

func TestHandleListProjects(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	res, err := s.handleListProjects(ctx, callTool("list_projects", nil))
	require.NoError(t, err)
	out := resultJSON(t, res)
	assert.EqualValues(t, 2, out["total_projects"])

	res, err = s.handleListProjects(ctx, callTool("list_projects", map[string]any{"category": "Handbook"}))
	require.NoError(t, err)
	out = resultJSON(t, res)
	assert.EqualValues(t, 1, out["total_projects"])
	projects := out["projects"].([]any)
	assert.Equal(t, "guide", projects[0].(map[string]any)["slug"])
}

func TestHandleGetProject(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	tests := []struct {
		name        string
		args        map[string]any
		wantErr     string
		wantContent string
	}{
		{name: "whole document", args: map[string]any{"slug": "guide"}, wantContent: guide},
		{name: "one section", args: map[string]any{"slug": "guide", "section": "#install"}, wantContent: "## Install\nRun the installer.\n### Linux\napt install widget"},
		{name: "missing slug", args: nil, wantErr: "slug parameter is required"},
		{name: "unknown project", args: map[string]any{"slug": "nope"}, wantErr: "project 'nope' not found"},
		{name: "unknown section", args: map[string]any{"slug": "guide", "section": "nope"}, wantErr: "section 'nope' not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.handleGetProject(ctx, callTool("get_project", tt.args))
			require.NoError(t, err)
			if tt.wantErr != "" {
				assert.True(t, res.IsError)
				assert.Contains(t, resultText(t, res), tt.wantErr)
				return
			}
			out := resultJSON(t, res)
			assert.Equal(t, tt.wantContent, out["content"])
			assert.Len(t, out["sections"], 4)
		})
	}
}

func TestHandleGetOutline(t *testing.T) {
	s := newTestServer(t, nil)

	res, err := s.handleGetOutline(context.Background(), callTool("get_outline", map[string]any{"slug": "guide"}))
	require.NoError(t, err)
	out := resultJSON(t, res)

	roots := out["outline"].([]any)
	require.Len(t, roots, 1)
	children := roots[0].(map[string]any)["children"].([]any)
	assert.Len(t, children, 2)
	assert.Contains(t, out["tree"], "├── Install")
	assert.Contains(t, out["tree"], "Linux")
}

func TestHandleRenderMarkdown(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()
	content := "# Title\n# Title\n- a\n- b\n"

	res, err := s.handleRenderMarkdown(ctx, callTool("render_markdown", map[string]any{"content": content}))
	require.NoError(t, err)
	out := resultJSON(t, res)
	sections := out["sections"].([]any)
	require.Len(t, sections, 2)
	assert.Equal(t, "title-1", sections[1].(map[string]any)["anchor"])
	assert.Len(t, out["nodes"], 3)

	res, err = s.handleRenderMarkdown(ctx, callTool("render_markdown", map[string]any{"content": content, "format": "html"}))
	require.NoError(t, err)
	out = resultJSON(t, res)
	assert.Contains(t, out["html"], `<h1 id="title-1">Title</h1>`)

	res, err = s.handleRenderMarkdown(ctx, callTool("render_markdown", map[string]any{"content": content, "format": "pdf"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleSearchDocs(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	res, err := s.handleSearchDocs(ctx, callTool("search_docs", map[string]any{"query": "widget"}))
	require.NoError(t, err)
	out := resultJSON(t, res)
	assert.EqualValues(t, 1, out["total_matches"])
	first := out["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "guide", first["projectSlug"])
	assert.Equal(t, "linux", first["anchor"])

	res, err = s.handleSearchDocs(ctx, callTool("search_docs", map[string]any{"query": "widget", "project": "changelog"}))
	require.NoError(t, err)
	out = resultJSON(t, res)
	assert.EqualValues(t, 0, out["total_matches"])

	res, err = s.handleSearchDocs(ctx, callTool("search_docs", map[string]any{"query": " "}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestImportAndJobStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/NOTES.md", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		fmt.Fprint(w, "# Release Notes\nAll the changes.\n")
	})
	remote := httptest.NewServer(mux)
	defer remote.Close()

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	imp := importer.NewWithClient(remote.Client(), config.ImportConfig{ContentSelector: "body"}, nil, logrus.NewEntry(logger))
	s := newTestServer(t, imp)
	ctx := context.Background()

	res, err := s.handleImportURL(ctx, callTool("import_url", map[string]any{"url": remote.URL + "/NOTES.md", "category": "notes"}))
	require.NoError(t, err)
	out := resultJSON(t, res)
	assert.Equal(t, "started", out["status"])
	jobID := out["job_id"].(string)

	var status map[string]any
	require.Eventually(t, func() bool {
		res, err := s.handleGetJobStatus(ctx, callTool("get_job_status", map[string]any{"job_id": jobID}))
		if err != nil || res.IsError {
			return false
		}
		status = resultJSON(t, res)
		return status["status"] == "completed" || status["status"] == "failed"
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, "completed", status["status"], status["error_message"])
	assert.Equal(t, "release-notes", status["project_slug"])

	p, err := s.cfg.Projects.Get("release-notes")
	require.NoError(t, err)
	assert.Equal(t, "notes", p.Category)
}

func TestImportErrors(t *testing.T) {
	s := newTestServer(t, nil)
	ctx := context.Background()

	res, err := s.handleImportURL(ctx, callTool("import_url", map[string]any{"url": "https://example.com/README.md"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not enabled")

	res, err = s.handleImportURL(ctx, callTool("import_url", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGetJobStatus(ctx, callTool("get_job_status", map[string]any{"job_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "job 'missing' not found")
}

func TestServe_UnknownTransport(t *testing.T) {
	s := newTestServer(t, nil)
	s.cfg.Transport = "carrier-pigeon"
	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}
