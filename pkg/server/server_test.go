package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/doc-site/pkg/config"
	"github.com/Sriram-PR/doc-site/pkg/importer"
	"github.com/Sriram-PR/doc-site/pkg/jobs"
	"github.com/Sriram-PR/doc-site/pkg/metrics"
	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/project"
	"github.com/Sriram-PR/doc-site/pkg/search"
	"github.com/Sriram-PR/doc-site/pkg/storage"
)

const guideContent = "# Guide\nIntro text.\n## Installation\nRun the installer with `make install`.\n## Usage\n- start the server\n- open the browser\n"

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

type fixture struct {
	srv     *Server
	handler http.Handler
	store   *storage.BadgerStore
}

func newFixture(t *testing.T, mutate func(*Deps)) *fixture {
	t.Helper()
	store, err := storage.NewBadgerStore(storage.Options{InMemory: true}, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	deps := Deps{
		Config:   config.ServerConfig{MaxBodyBytes: 1 << 20, SiteTitle: "Test Docs"},
		Projects: project.NewService(store, config.MarkdownConfig{}, nil, testLogger()),
		Index:    search.NewIndex(config.SearchConfig{}, testLogger()),
		Jobs:     jobs.NewManager(time.Hour, testLogger()),
		Store:    store,
		Log:      testLogger(),
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv, err := New(deps)
	require.NoError(t, err)
	return &fixture{srv: srv, handler: srv.Handler(), store: store}
}

func (f *fixture) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) createProject(t *testing.T, name, content string) *models.Project {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/projects", map[string]string{"name": name, "content": content})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Data models.Project `json:"data"`
	}
	decode(t, rec, &resp)
	return &resp.Data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	decode(t, rec, &body)
	return body.Error
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestCreateAndGetProject(t *testing.T) {
	f := newFixture(t, nil)
	p := f.createProject(t, "My Guide", guideContent)

	assert.Equal(t, "my-guide", p.Slug)
	assert.Equal(t, "general", p.Category)
	require.Len(t, p.Sections, 3)
	assert.Equal(t, "installation", p.Sections[1].Anchor)

	rec := f.do(t, http.MethodGet, "/api/projects/my-guide", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool           `json:"success"`
		Data    models.Project `json:"data"`
	}
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, p.ID, resp.Data.ID)
	assert.Equal(t, guideContent, resp.Data.Content)
}

func TestCreateProject_Validation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{"missing name", map[string]string{"content": "# A"}, http.StatusBadRequest, "Name and content are required"},
		{"blank name", map[string]string{"name": "  ", "content": "# A"}, http.StatusBadRequest, "Name and content are required"},
		{"missing content", map[string]string{"name": "A"}, http.StatusBadRequest, "Name and content are required"},
		{"malformed json", "{not json", http.StatusBadRequest, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/projects", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, errorMessage(t, rec))
		})
	}
}

func TestCreateProject_BodyLimit(t *testing.T) {
	f := newFixture(t, func(d *Deps) { d.Config.MaxBodyBytes = 32 })
	rec := f.do(t, http.MethodPost, "/api/projects", map[string]string{
		"name":    "Large",
		"content": strings.Repeat("word ", 50),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestListProjects(t *testing.T) {
	f := newFixture(t, nil)
	f.createProject(t, "Alpha", "# Alpha")
	rec := f.do(t, http.MethodPost, "/api/projects", map[string]string{"name": "Beta", "content": "# Beta", "category": "api"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var full struct {
		Data []models.Project `json:"data"`
	}
	rec = f.do(t, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &full)
	require.Len(t, full.Data, 2)
	for _, p := range full.Data {
		require.Len(t, p.Sections, 1, p.Slug)
		assert.Equal(t, p.Name, p.Sections[0].Title)
		assert.NotEmpty(t, p.Content)
	}

	rec = f.do(t, http.MethodGet, "/api/projects?category=API", nil)
	decode(t, rec, &full)
	require.Len(t, full.Data, 1)
	assert.Equal(t, "beta", full.Data[0].Slug)

	var summaries struct {
		Data []models.ProjectSummary `json:"data"`
	}
	rec = f.do(t, http.MethodGet, "/api/projects?summary=true&category=api", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &summaries)
	require.Len(t, summaries.Data, 1)
	assert.Equal(t, 1, summaries.Data[0].SectionCount)
	assert.NotContains(t, rec.Body.String(), `"content"`)
}

func TestGetProject_NotFound(t *testing.T) {
	f := newFixture(t, nil)
	for _, target := range []string{"/api/projects/missing", "/api/projects/missing/outline", "/api/projects/missing/lint"} {
		rec := f.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "Project not found", errorMessage(t, rec))
	}
}

func TestUpdateProject(t *testing.T) {
	f := newFixture(t, nil)
	f.createProject(t, "Guide", guideContent)

	rec := f.do(t, http.MethodPut, "/api/projects/guide", map[string]string{
		"name":        "  Renamed Guide ",
		"content":     "# Fresh\nNew body.\n",
		"description": " updated ",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data models.Project `json:"data"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "Renamed Guide", resp.Data.Name)
	assert.Equal(t, "renamed-guide", resp.Data.Slug)
	assert.Equal(t, "updated", resp.Data.Description)
	assert.Equal(t, "general", resp.Data.Category)
	assert.Equal(t, 2, resp.Data.Revision)
	require.Len(t, resp.Data.Sections, 1)
	assert.Equal(t, "fresh", resp.Data.Sections[0].Anchor)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/projects/guide", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/projects/renamed-guide", nil).Code)
}

func TestUpdateProject_Errors(t *testing.T) {
	f := newFixture(t, nil)
	f.createProject(t, "Guide", guideContent)

	tests := []struct {
		name    string
		slug    string
		body    map[string]string
		status  int
		message string
	}{
		{"missing name", "guide", map[string]string{"content": "# A"}, http.StatusBadRequest, "Name and content are required"},
		{"missing content", "guide", map[string]string{"name": "Guide"}, http.StatusBadRequest, "Name and content are required"},
		{"blank content", "guide", map[string]string{"name": "Guide", "content": "  \n "}, http.StatusBadRequest, "Content cannot be empty"},
		{"unknown project", "missing", map[string]string{"name": "X", "content": "# X"}, http.StatusNotFound, "Project not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPut, "/api/projects/"+tt.slug, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, errorMessage(t, rec))
		})
	}
}

func TestDeleteProject(t *testing.T) {
	f := newFixture(t, nil)
	f.createProject(t, "Guide", guideContent)

	// Populate the index so deletion has something to drop
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/search?q=installer", nil).Code)
	assert.Equal(t, 1, f.srv.index.Len())

	rec := f.do(t, http.MethodDelete, "/api/projects/guide", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp envelope
	decode(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "Project deleted successfully", resp.Message)
	assert.Equal(t, 0, f.srv.index.Len())

	rec = f.do(t, http.MethodDelete, "/api/projects/guide", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGenerateDocs(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/generate-docs", map[string]string{"projectName": "Preview", "content": guideContent})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data project.Preview `json:"data"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "Preview", resp.Data.Name)
	assert.Len(t, resp.Data.Sections, 3)
	assert.Positive(t, resp.Data.WordCount)
	assert.Equal(t, 1, resp.Data.EstimatedReadTime)

	// Nothing is stored
	projects, err := f.store.ListProjects()
	require.NoError(t, err)
	assert.Empty(t, projects)

	rec = f.do(t, http.MethodPost, "/api/generate-docs", map[string]string{"content": "# A"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Content and project name are required", errorMessage(t, rec))
}

func TestRender(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/render", map[string]string{
		"content": "# Intro\n<b>raw</b> & text\n# Intro\n## Deep\n",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Nodes    []map[string]any `json:"nodes"`
			Sections []struct {
				Anchor string `json:"anchor"`
			} `json:"sections"`
			Outline []struct {
				Anchor   string `json:"anchor"`
				Children []any  `json:"children"`
			} `json:"outline"`
			HTML      string `json:"html"`
			WordCount int    `json:"wordCount"`
		} `json:"data"`
	}
	decode(t, rec, &resp)

	require.Len(t, resp.Data.Sections, 3)
	assert.Equal(t, "intro", resp.Data.Sections[0].Anchor)
	assert.Equal(t, "intro-1", resp.Data.Sections[1].Anchor)
	require.Len(t, resp.Data.Outline, 2)
	assert.Len(t, resp.Data.Outline[1].Children, 1)
	require.Len(t, resp.Data.Nodes, 4)
	assert.Equal(t, "heading", resp.Data.Nodes[0]["type"])
	assert.Contains(t, resp.Data.HTML, `id="intro-1"`)
	assert.NotContains(t, resp.Data.HTML, "<b>")
	assert.Contains(t, resp.Data.HTML, "&lt;b&gt;raw")
}

func TestOutlineAndLint(t *testing.T) {
	f := newFixture(t, nil)
	f.createProject(t, "Guide", guideContent+"```\n# not a heading\n")

	rec := f.do(t, http.MethodGet, "/api/projects/guide/outline", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var outline struct {
		Data struct {
			Outline []struct {
				Title    string `json:"title"`
				Children []struct {
					Anchor string `json:"anchor"`
				} `json:"children"`
			} `json:"outline"`
		} `json:"data"`
	}
	decode(t, rec, &outline)
	require.Len(t, outline.Data.Outline, 1)
	assert.Equal(t, "Guide", outline.Data.Outline[0].Title)
	require.Len(t, outline.Data.Outline[0].Children, 2)
	assert.Equal(t, "installation", outline.Data.Outline[0].Children[0].Anchor)

	rec = f.do(t, http.MethodGet, "/api/projects/guide/lint", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var lintResp struct {
		Data struct {
			Diagnostics []struct {
				Code string `json:"code"`
			} `json:"diagnostics"`
			HasWarnings bool `json:"hasWarnings"`
		} `json:"data"`
	}
	decode(t, rec, &lintResp)
	assert.True(t, lintResp.Data.HasWarnings)
	assert.NotEmpty(t, lintResp.Data.Diagnostics)
}

func TestSearch(t *testing.T) {
	f := newFixture(t, nil)
	f.createProject(t, "Guide", guideContent)
	f.createProject(t, "Other", "# Other\nNothing relevant.\n")

	rec := f.do(t, http.MethodGet, "/api/search?q=installer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data struct {
			Query   string          `json:"query"`
			Results []search.Result `json:"results"`
		} `json:"data"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Data.Results, 1)
	assert.Equal(t, "guide", resp.Data.Results[0].ProjectSlug)
	assert.Equal(t, "installation", resp.Data.Results[0].Anchor)

	rec = f.do(t, http.MethodGet, "/api/search?q=installer&project=other", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &resp)
	assert.Empty(t, resp.Data.Results)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/search?q=+", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/search?q=x&project=missing", nil).Code)
}

func TestImportJob(t *testing.T) {
	upstream := http.NewServeMux()
	upstream.HandleFunc("/README.md", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		fmt.Fprint(w, "# Remote Project\nFetched over HTTP.\n")
	})
	remote := httptest.NewServer(upstream)
	defer remote.Close()

	f := newFixture(t, func(d *Deps) {
		d.Importer = importer.NewWithClient(remote.Client(), config.ImportConfig{
			UserAgent:       "docsite-test/1.0",
			ContentSelector: "body",
			DefaultCategory: "imported",
		}, nil, testLogger())
	})

	rec := f.do(t, http.MethodPost, "/api/import", map[string]string{"url": remote.URL + "/README.md"})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var started struct {
		Data jobs.Job `json:"data"`
	}
	decode(t, rec, &started)
	require.NotEmpty(t, started.Data.ID)

	var job jobs.Job
	require.Eventually(t, func() bool {
		rec := f.do(t, http.MethodGet, "/api/jobs/"+started.Data.ID, nil)
		if rec.Code != http.StatusOK {
			return false
		}
		var resp struct {
			Data jobs.Job `json:"data"`
		}
		if json.Unmarshal(rec.Body.Bytes(), &resp) != nil {
			return false
		}
		job = resp.Data
		return job.Status.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, models.JobStatusCompleted, job.Status, job.ErrorMessage)
	assert.Equal(t, "remote-project", job.ProjectSlug)

	rec = f.do(t, http.MethodGet, "/api/projects/remote-project", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data models.Project `json:"data"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "imported", resp.Data.Category)
	assert.Equal(t, remote.URL+"/README.md", resp.Data.Source)

	rec = f.do(t, http.MethodGet, "/api/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), started.Data.ID)
}

func TestImportJob_Errors(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, nil)
		rec := f.do(t, http.MethodPost, "/api/import", map[string]string{"url": "https://example.com"})
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("missing url", func(t *testing.T) {
		f := newFixture(t, func(d *Deps) {
			d.Importer = importer.New(config.ImportConfig{}, nil, testLogger())
		})
		rec := f.do(t, http.MethodPost, "/api/import", map[string]string{"url": " "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "URL is required", errorMessage(t, rec))
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		f := newFixture(t, func(d *Deps) {
			d.Importer = importer.New(config.ImportConfig{}, nil, testLogger())
		})
		rec := f.do(t, http.MethodPost, "/api/import", map[string]string{"url": "ftp://example.com/README.md"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid URL", errorMessage(t, rec))
	})

	t.Run("unknown job", func(t *testing.T) {
		f := newFixture(t, nil)
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/jobs/nope", nil).Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/jobs/nope/cancel", nil).Code)
	})
}

func TestCancelJob(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, nil)
	job, created := f.srv.jobs.Start("https://example.com/slow", func(ctx context.Context) (*models.Project, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return nil, nil
		}
	})
	require.True(t, created)
	defer close(release)

	rec := f.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data jobs.Job `json:"data"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, models.JobStatusCancelled, resp.Data.Status)

	rec = f.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDocsPages(t *testing.T) {
	f := newFixture(t, nil)
	f.createProject(t, "Guide", guideContent+"\n<script>alert(1)</script>\n")
	rec := f.do(t, http.MethodPost, "/api/projects", map[string]string{"name": "Reference", "content": "# Ref", "category": "api"})
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("index", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/docs", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "Test Docs")
		assert.Contains(t, body, `href="/docs/guide"`)
		assert.Less(t, strings.Index(body, "<h2>api</h2>"), strings.Index(body, "<h2>general</h2>"))
	})

	t.Run("root redirects", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/", nil)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/docs", rec.Header().Get("Location"))
	})

	t.Run("document", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/docs/guide", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `<h2 id="installation">Installation</h2>`)
		assert.Contains(t, body, `href="#installation"`)
		assert.Contains(t, body, `name="project" value="guide"`)
		assert.Contains(t, body, "/docs/guide/export?format=md")
		assert.NotContains(t, body, "<script>alert")
	})

	t.Run("missing document", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/docs/missing", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("search", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/docs/search?q=installer", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `href="/docs/guide#installation"`)
	})
}

func TestExport(t *testing.T) {
	f := newFixture(t, nil)
	f.createProject(t, "Guide", guideContent)

	t.Run("markdown", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/docs/guide/export?format=md", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, guideContent, rec.Body.String())
		assert.Equal(t, `attachment; filename="guide.md"`, rec.Header().Get("Content-Disposition"))
	})

	t.Run("print html", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/docs/guide/export?format=html", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, `id="installation"`)
		assert.NotContains(t, body, `role="search"`)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "inline"))
	})

	t.Run("yaml", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/docs/guide/export?format=yaml", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var meta models.ExportMetadata
		require.NoError(t, yaml.Unmarshal(rec.Body.Bytes(), &meta))
		assert.Equal(t, "guide", meta.Slug)
		assert.Len(t, meta.Sections, 3)
		assert.False(t, meta.ExportedAt.IsZero())
	})

	t.Run("unknown format", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/docs/guide/export?format=pdf", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	f := newFixture(t, func(d *Deps) {
		d.Metrics = metrics.NewPrometheusRecorder(reg, "docsite")
		d.MetricsHandler = metrics.HTTPHandler(reg)
	})
	f.createProject(t, "Guide", guideContent)

	rec := f.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	decode(t, rec, &health)
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 1, health["projects"])

	rec = f.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "docsite_http_requests_total")
	assert.Contains(t, body, `route="POST /api/projects"`)
	assert.Contains(t, body, `route="GET /healthz"`)
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := chain(testLogger(), metrics.NoopRecorder{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", errorMessage(t, rec))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	f := newFixture(t, func(d *Deps) {
		d.Config.Addr = "127.0.0.1:0"
		d.Config.ShutdownTimeout = time.Second
		d.GCInterval = time.Hour
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
