package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/doc-site/pkg/config"
	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/project"
	"github.com/Sriram-PR/doc-site/pkg/utils"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(logger)
}

func testImportConfig() config.ImportConfig {
	return config.ImportConfig{
		UserAgent:         "docsite-test/1.0",
		ContentSelector:   "article, main, body",
		MaxBodyBytes:      64 * 1024,
		DefaultCategory:   "imported",
		MaxRetries:        1,
		InitialRetryDelay: time.Millisecond,
		MaxRetryDelay:     5 * time.Millisecond,
	}
}

func newTestImporter(srv *httptest.Server, cfg config.ImportConfig) *Importer {
	return NewWithClient(srv.Client(), cfg, nil, testLogger())
}

func TestFetch_RawMarkdownPassthrough(t *testing.T) {
	const readme = "# Widget\n\nInstall with `go get`.\n"
	mux := http.NewServeMux()
	mux.HandleFunc("/repo/README.md", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, readme)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page, err := newTestImporter(srv, testImportConfig()).Fetch(context.Background(), srv.URL+"/repo/README.md")
	require.NoError(t, err)
	assert.Equal(t, readme, page.Content)
	assert.Equal(t, "Widget", page.Title)
	assert.Equal(t, "imported", page.Category)
	assert.False(t, page.Converted)
}

func TestFetch_MarkdownTitleFallsBackToPath(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/guides/getting-started", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		fmt.Fprint(w, "Just a paragraph.\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page, err := newTestImporter(srv, testImportConfig()).Fetch(context.Background(), srv.URL+"/guides/getting-started")
	require.NoError(t, err)
	assert.Equal(t, "getting-started", page.Title)
}

func TestFetch_HTMLConversion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "docsite-test/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>Page Title</title></head><body>
<nav>Menu</nav>
<article><h1>Hello<a class="headerlink" href="#hello">¶</a></h1><p>Some <strong>bold</strong> text.</p><script>alert(1)</script></article>
</body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page, err := newTestImporter(srv, testImportConfig()).Fetch(context.Background(), srv.URL+"/docs")
	require.NoError(t, err)
	assert.True(t, page.Converted)
	assert.Equal(t, "Hello", page.Title)
	assert.Contains(t, page.Content, "# Hello")
	assert.Contains(t, page.Content, "**bold**")
	assert.NotContains(t, page.Content, "Menu")
	assert.NotContains(t, page.Content, "alert")
	assert.NotContains(t, page.Content, "¶")
}

func TestFetch_HTMLTitleFromTitleTag(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>From Title Tag</title></head><body><main><p>Body only.</p></main></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page, err := newTestImporter(srv, testImportConfig()).Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "From Title Tag", page.Title)
	assert.Contains(t, page.Content, "Body only.")
}

func TestFetch_Errors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
	})
	mux.HandleFunc("/private/page.md", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "# Secret\n")
	})
	mux.HandleFunc("/big.md", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 200))
	})
	mux.HandleFunc("/html", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><p>text</p></body></html>")
	})
	mux.HandleFunc("/empty.md", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "  \n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tests := []struct {
		name     string
		path     string
		mutate   func(cfg *config.ImportConfig)
		sentinel error
		category string
	}{
		{name: "robots disallowed", path: "/private/page.md", sentinel: utils.ErrRobotsDisallowed, category: "Policy_Robots"},
		{name: "not found", path: "/missing.md", sentinel: utils.ErrHTTPStatus, category: "HTTP_404"},
		{
			name:     "body too large",
			path:     "/big.md",
			mutate:   func(cfg *config.ImportConfig) { cfg.MaxBodyBytes = 100 },
			sentinel: utils.ErrBodyTooLarge,
			category: "Policy_BodyTooLarge",
		},
		{
			name:     "selector missing",
			path:     "/html",
			mutate:   func(cfg *config.ImportConfig) { cfg.ContentSelector = "#docs-content" },
			sentinel: utils.ErrContentSelector,
			category: "Content_SelectorNotFound",
		},
		{name: "empty content", path: "/empty.md", sentinel: utils.ErrInvalidInput, category: "Input_Invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testImportConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			_, err := newTestImporter(srv, cfg).Fetch(context.Background(), srv.URL+tt.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.category, utils.CategorizeError(err))
		})
	}
}

func TestFetch_SiteOverrideIgnoresRobots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
	})
	mux.HandleFunc("/doc.md", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "# Doc\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	respect := false
	cfg := testImportConfig()
	cfg.Sites = map[string]config.ImportSiteConfig{
		"127.0.0.1": {RespectRobots: &respect, Category: "mirrors"},
	}

	page, err := newTestImporter(srv, cfg).Fetch(context.Background(), srv.URL+"/doc.md")
	require.NoError(t, err)
	assert.Equal(t, "mirrors", page.Category)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/flaky.md", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "# Recovered\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	page, err := newTestImporter(srv, testImportConfig()).Fetch(context.Background(), srv.URL+"/flaky.md")
	require.NoError(t, err)
	assert.Equal(t, "Recovered", page.Title)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_RetriesExhausted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/down.md", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := newTestImporter(srv, testImportConfig()).Fetch(context.Background(), srv.URL+"/down.md")
	require.Error(t, err)
	assert.Equal(t, "HTTP_5xx", utils.CategorizeError(err))
}

func TestFetch_InvalidURL(t *testing.T) {
	im := New(testImportConfig(), nil, testLogger())

	for _, raw := range []string{"ftp://example.com/doc.md", "not a url", "https://"} {
		_, err := im.Fetch(context.Background(), raw)
		assert.ErrorIs(t, err, utils.ErrInvalidInput, raw)
	}
}

type recordingCreator struct {
	got project.CreateInput
}

func (c *recordingCreator) Create(in project.CreateInput) (*models.Project, error) {
	c.got = in
	return &models.Project{Name: in.Name, Content: in.Content, Category: in.Category, Source: in.Source}, nil
}

func TestImport_UsesPageAndOverrides(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/README.md", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "# Readme Title\n\nBody.\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	im := newTestImporter(srv, testImportConfig())
	creator := &recordingCreator{}

	p, err := im.Import(context.Background(), creator, Request{URL: srv.URL + "/README.md"})
	require.NoError(t, err)
	assert.Equal(t, "Readme Title", p.Name)
	assert.Equal(t, srv.URL+"/README.md", creator.got.Source)
	assert.Equal(t, "imported", creator.got.Category)

	_, err = im.Import(context.Background(), creator, Request{URL: srv.URL + "/README.md", Name: " Custom ", Category: "guides", Description: "desc"})
	require.NoError(t, err)
	assert.Equal(t, "Custom", creator.got.Name)
	assert.Equal(t, "guides", creator.got.Category)
	assert.Equal(t, "desc", creator.got.Description)
}

// cancelAfterResponse cancels the import context once the page response is in hand
type cancelAfterResponse struct {
	next   http.RoundTripper
	path   string
	cancel context.CancelFunc
}

func (c cancelAfterResponse) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := c.next.RoundTrip(req)
	if err != nil || req.URL.Path != c.path {
		return resp, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	c.cancel()
	return resp, nil
}

func TestImport_CancelledBeforeCreate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/README.md", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "# Readme Title\n\nBody.\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := srv.Client()
	client.Transport = cancelAfterResponse{next: client.Transport, path: "/README.md", cancel: cancel}

	creator := &recordingCreator{}
	_, err := NewWithClient(client, testImportConfig(), nil, testLogger()).Import(ctx, creator, Request{URL: srv.URL + "/README.md"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, creator.got.Name, "no project is created after cancellation")
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "https://example.com/", want: "example.com"},
		{raw: "https://example.com/docs/intro.md", want: "intro"},
		{raw: "https://example.com/docs/My%20Guide/", want: "My Guide"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := parseImportURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titleFromURL(u))
		})
	}
}
