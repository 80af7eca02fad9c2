package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// LogLevel
	if c.LogLevel == "" {
		c.LogLevel = "info"
	} else if _, perr := logrus.ParseLevel(c.LogLevel); perr != nil {
		warnings = append(warnings, fmt.Sprintf("log_level '%s' is invalid, defaulting to 'info'", c.LogLevel))
		c.LogLevel = "info"
	}

	// LogFormat
	switch c.LogFormat {
	case "":
		c.LogFormat = "text"
	case "text", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("log_format '%s' is invalid, defaulting to 'text'", c.LogFormat))
		c.LogFormat = "text"
	}

	warnings = append(warnings, c.validateServer()...)
	warnings = append(warnings, c.validateStorage()...)

	// Markdown
	switch strings.ToLower(c.Markdown.AnchorMode) {
	case "":
		c.Markdown.AnchorMode = AnchorModeCanonical
	case AnchorModeCanonical, AnchorModeLegacy:
		c.Markdown.AnchorMode = strings.ToLower(c.Markdown.AnchorMode)
	default:
		return warnings, fmt.Errorf("%w: markdown.anchor_mode must be '%s' or '%s', got '%s'",
			utils.ErrConfigValidation, AnchorModeCanonical, AnchorModeLegacy, c.Markdown.AnchorMode)
	}
	if c.Markdown.WordsPerMinute <= 0 {
		c.Markdown.WordsPerMinute = 200
	}

	warnings = append(warnings, c.validateSearch()...)

	// Import
	if c.Import.UserAgent == "" {
		c.Import.UserAgent = "docsite-importer/1.0"
	}
	if c.Import.ContentSelector == "" {
		c.Import.ContentSelector = "article, main, body"
	}
	if c.Import.MaxBodyBytes < 0 {
		warnings = append(warnings, "import.max_body_bytes cannot be negative, setting to 0 (unlimited)")
		c.Import.MaxBodyBytes = 0
	} else if c.Import.MaxBodyBytes == 0 {
		c.Import.MaxBodyBytes = 5 * 1024 * 1024
	}
	if c.Import.MaxRetries < 0 {
		warnings = append(warnings, "import.max_retries cannot be negative, setting to 0")
		c.Import.MaxRetries = 0
	}
	if c.Import.InitialRetryDelay <= 0 {
		c.Import.InitialRetryDelay = 500 * time.Millisecond
	}
	if c.Import.MaxRetryDelay <= 0 {
		c.Import.MaxRetryDelay = 5 * time.Second
	}
	if c.Import.MaxRetryDelay < c.Import.InitialRetryDelay {
		warnings = append(warnings, fmt.Sprintf("import.max_retry_delay (%v) is less than initial_retry_delay (%v), raising it", c.Import.MaxRetryDelay, c.Import.InitialRetryDelay))
		c.Import.MaxRetryDelay = c.Import.InitialRetryDelay
	}
	if c.Import.MaxRequestsPerHost <= 0 {
		c.Import.MaxRequestsPerHost = 2
	}
	if c.Import.RequestDelay < 0 {
		warnings = append(warnings, "import.request_delay cannot be negative, setting to 0")
		c.Import.RequestDelay = 0
	}
	c.validateHTTPClientSettings()
	hosts := make([]string, 0, len(c.Import.Sites))
	for host := range c.Import.Sites {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	for _, host := range hosts {
		site := c.Import.Sites[host]
		siteWarnings, serr := site.Validate(host)
		if serr != nil {
			return warnings, serr
		}
		warnings = append(warnings, siteWarnings...)
	}

	// Sync
	if _, rerr := utils.CompileRegexPatterns(c.Sync.ExcludePatterns); rerr != nil {
		return warnings, rerr
	}
	if c.Sync.StateFile == "" {
		c.Sync.StateFile = "./docsite_state/sync-state.json"
	}
	if len(c.Sync.Extensions) == 0 {
		c.Sync.Extensions = []string{".md", ".markdown"}
	}
	if c.Sync.Debounce <= 0 {
		c.Sync.Debounce = 500 * time.Millisecond
	}
	if c.Sync.DefaultCategory == "" {
		c.Sync.DefaultCategory = "general"
	}

	// Metrics
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "docsite"
	}

	// MCP
	switch c.MCP.Transport {
	case "":
		c.MCP.Transport = "stdio"
	case "stdio", "sse":
	default:
		warnings = append(warnings, fmt.Sprintf("mcp.transport '%s' is invalid, defaulting to 'stdio'", c.MCP.Transport))
		c.MCP.Transport = "stdio"
	}
	if c.MCP.Transport == "sse" && c.MCP.Addr == "" {
		c.MCP.Addr = ":8081"
	}

	return warnings, nil
}

func (c *AppConfig) validateServer() (warnings []string) {
	s := &c.Server
	if s.Addr == "" {
		warnings = append(warnings, "server.addr is empty, defaulting to ':8080'")
		s.Addr = ":8080"
	}
	if s.ReadTimeout <= 0 {
		s.ReadTimeout = 15 * time.Second
	}
	if s.WriteTimeout <= 0 {
		s.WriteTimeout = 30 * time.Second
	}
	if s.ShutdownTimeout <= 0 {
		s.ShutdownTimeout = 10 * time.Second
	}
	if s.MaxBodyBytes <= 0 {
		s.MaxBodyBytes = 2 * 1024 * 1024
	}
	if s.SiteTitle == "" {
		s.SiteTitle = "Documentation"
	}
	return warnings
}

func (c *AppConfig) validateStorage() (warnings []string) {
	s := &c.Storage
	if s.Dir == "" && !s.InMemory {
		warnings = append(warnings, "storage.dir is empty, defaulting to './docsite_data'")
		s.Dir = "./docsite_data"
	}
	if s.GCInterval < 0 {
		warnings = append(warnings, "storage.gc_interval cannot be negative, disabling GC")
		s.GCInterval = 0
	} else if s.GCInterval == 0 {
		s.GCInterval = 10 * time.Minute
	}
	if s.GCDiscardRatio <= 0 || s.GCDiscardRatio >= 1 {
		if s.GCDiscardRatio != 0 {
			warnings = append(warnings, fmt.Sprintf("storage.gc_discard_ratio %.2f out of range (0,1), defaulting to 0.5", s.GCDiscardRatio))
		}
		s.GCDiscardRatio = 0.5
	}
	return warnings
}

func (c *AppConfig) validateSearch() (warnings []string) {
	s := &c.Search
	if s.ChunkSize <= 0 {
		s.ChunkSize = 512
	}
	if s.ChunkOverlap < 0 {
		warnings = append(warnings, "search.chunk_overlap cannot be negative, setting to 0")
		s.ChunkOverlap = 0
	}
	if s.ChunkOverlap >= s.ChunkSize {
		warnings = append(warnings, fmt.Sprintf(
			"search.chunk_overlap (%d) >= chunk_size (%d), using chunk_size/10",
			s.ChunkOverlap, s.ChunkSize))
		s.ChunkOverlap = s.ChunkSize / 10
	}
	if s.MaxResults <= 0 {
		s.MaxResults = 20
	}
	if s.SnippetLength <= 0 {
		s.SnippetLength = 160
	}
	return warnings
}

// validateHTTPClientSettings applies defaults to HTTP client settings.
func (c *AppConfig) validateHTTPClientSettings() {
	h := &c.Import.HTTPClientSettings
	if h.Timeout <= 0 {
		h.Timeout = 30 * time.Second
	}
	if h.MaxIdleConns <= 0 {
		h.MaxIdleConns = 100
	}
	if h.MaxIdleConnsPerHost <= 0 {
		h.MaxIdleConnsPerHost = 2
	}
	if h.IdleConnTimeout <= 0 {
		h.IdleConnTimeout = 90 * time.Second
	}
	if h.TLSHandshakeTimeout <= 0 {
		h.TLSHandshakeTimeout = 10 * time.Second
	}
	if h.ExpectContinueTimeout <= 0 {
		h.ExpectContinueTimeout = 1 * time.Second
	}
	if h.DialerTimeout <= 0 {
		h.DialerTimeout = 15 * time.Second
	}
	if h.DialerKeepAlive <= 0 {
		h.DialerKeepAlive = 30 * time.Second
	}
}

// Validate checks an ImportSiteConfig.
func (c *ImportSiteConfig) Validate(host string) (warnings []string, err error) {
	if host == "" {
		return nil, fmt.Errorf("%w: import site entry has empty host key", utils.ErrConfigValidation)
	}
	if strings.Contains(host, "/") {
		return nil, fmt.Errorf("%w: import site key '%s' must be a hostname, not a URL", utils.ErrConfigValidation, host)
	}
	if c.ContentSelector == "" && c.UserAgent == "" && c.RespectRobots == nil && c.Category == "" {
		warnings = append(warnings, fmt.Sprintf("import site '%s' overrides nothing", host))
	}
	return warnings, nil
}
