package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/config"
	"github.com/Sriram-PR/doc-site/pkg/metrics"
	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/project"
	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// Page is a fetched document converted to markdown
type Page struct {
	URL         string `json:"url"` // Final URL after redirects
	Title       string `json:"title"`
	Content     string `json:"content"`
	Category    string `json:"category"`
	ContentType string `json:"contentType"`
	Converted   bool   `json:"converted"`           // True when the page was HTML converted to markdown
	Framework   string `json:"framework,omitempty"` // Set when the "auto" selector recognized the page
}

// Request describes one import. Name and Category override what the page provides.
type Request struct {
	URL         string `json:"url"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// ProjectCreator stores imported pages
type ProjectCreator interface {
	Create(in project.CreateInput) (*models.Project, error)
}

// Importer fetches pages and turns them into projects.
type Importer struct {
	cfg      config.ImportConfig
	fetcher  *Fetcher
	robots   *RobotsChecker
	detector *frameworkDetector
	limiter  *hostLimiter
	metrics  metrics.Recorder
	log      *logrus.Entry
}

// New creates an Importer with its own HTTP client built from cfg.
func New(cfg config.ImportConfig, rec metrics.Recorder, log *logrus.Entry) *Importer {
	return NewWithClient(NewClient(cfg.HTTPClientSettings, log), cfg, rec, log)
}

// NewWithClient creates an Importer around an existing HTTP client
func NewWithClient(client *http.Client, cfg config.ImportConfig, rec metrics.Recorder, log *logrus.Entry) *Importer {
	policy := RetryPolicy{
		MaxRetries:        cfg.MaxRetries,
		InitialRetryDelay: cfg.InitialRetryDelay,
		MaxRetryDelay:     cfg.MaxRetryDelay,
	}
	return &Importer{
		cfg:      cfg,
		fetcher:  NewFetcher(client, policy, log),
		robots:   NewRobotsChecker(client, log),
		detector: newFrameworkDetector(log),
		limiter:  newHostLimiter(cfg.MaxRequestsPerHost, cfg.RequestDelay),
		metrics:  metrics.OrNoop(rec),
		log:      log,
	}
}

// Fetch downloads rawURL and returns its markdown. Markdown and plain text
// responses pass through unchanged; HTML is narrowed with the content
// selector for the host and converted.
func (im *Importer) Fetch(ctx context.Context, rawURL string) (page *Page, err error) {
	start := time.Now()
	defer func() {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		im.metrics.ObserveImport(time.Since(start), result)
	}()

	target, err := parseImportURL(rawURL)
	if err != nil {
		return nil, err
	}
	host := target.Hostname()
	fetchLog := im.log.WithField("url", target.String())
	userAgent := config.GetEffectiveUserAgent(host, im.cfg)

	release, err := im.limiter.acquire(ctx, host)
	if err != nil {
		return nil, err
	}
	defer release()

	if config.GetEffectiveRespectRobots(host, im.cfg) && !im.robots.Allowed(ctx, target, userAgent) {
		return nil, fmt.Errorf("%w: %s", utils.ErrRobotsDisallowed, target)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for URL %s: %w", utils.ErrParsing, target, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, text/html;q=0.8, */*;q=0.5")

	resp, err := im.fetcher.FetchWithRetry(ctx, req)
	if err != nil {
		fetchLog.WithField("error_type", utils.CategorizeError(err)).Warnf("Import fetch failed: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := im.readBody(resp)
	if err != nil {
		return nil, err
	}

	finalURL := resp.Request.URL
	page = &Page{
		URL:         finalURL.String(),
		Category:    config.GetEffectiveImportCategory(host, im.cfg),
		ContentType: resp.Header.Get("Content-Type"),
	}

	if isRawMarkdown(finalURL, page.ContentType) {
		page.Content = string(body)
		page.Title = markdownTitle(page.Content)
	} else {
		selector := config.GetEffectiveContentSelector(host, im.cfg)
		page.Title, page.Content, page.Framework, err = im.extractHTML(body, finalURL, selector)
		if err != nil {
			fetchLog.WithField("error_type", utils.CategorizeError(err)).Warn(err.Error())
			return nil, err
		}
		page.Converted = true
	}
	if page.Title == "" {
		page.Title = titleFromURL(finalURL)
	}
	if strings.TrimSpace(page.Content) == "" {
		return nil, fmt.Errorf("%w: page %s has no content", utils.ErrInvalidInput, finalURL)
	}

	fetchLog.WithFields(logrus.Fields{"title": page.Title, "bytes": len(body), "converted": page.Converted}).Info("Fetched page for import")
	return page, nil
}

// Import fetches req.URL and creates a project from it.
func (im *Importer) Import(ctx context.Context, creator ProjectCreator, req Request) (*models.Project, error) {
	page, err := im.Fetch(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	in := project.CreateInput{
		Name:        page.Title,
		Content:     page.Content,
		Description: req.Description,
		Category:    page.Category,
		Source:      page.URL,
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		in.Name = name
	}
	if req.Category != "" {
		in.Category = req.Category
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return creator.Create(in)
}

func (im *Importer) readBody(resp *http.Response) ([]byte, error) {
	limit := im.cfg.MaxBodyBytes
	if limit > 0 && resp.ContentLength > limit {
		return nil, fmt.Errorf("%w: content length %d exceeds %d bytes", utils.ErrBodyTooLarge, resp.ContentLength, limit)
	}

	reader := io.Reader(resp.Body)
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", utils.ErrFetch, err)
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", utils.ErrBodyTooLarge, limit)
	}
	return body, nil
}

func parseImportURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL %q: %w", utils.ErrInvalidInput, rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: URL %q must use http or https", utils.ErrInvalidInput, rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: URL %q has no host", utils.ErrInvalidInput, rawURL)
	}
	u.Fragment = ""
	return u, nil
}
