package config

import "time"

// Anchor modes for markdown.anchor_mode
const (
	AnchorModeCanonical = "canonical" // one shared parse; navigation and page anchors always agree
	AnchorModeLegacy    = "legacy"    // independent extractor and renderer anchors
)

// AppConfig holds the global application configuration
type AppConfig struct {
	LogLevel  string         `yaml:"log_level,omitempty"`
	LogFormat string         `yaml:"log_format,omitempty"` // text or json
	Server    ServerConfig   `yaml:"server"`
	Storage   StorageConfig  `yaml:"storage"`
	Markdown  MarkdownConfig `yaml:"markdown"`
	Search    SearchConfig   `yaml:"search,omitempty"`
	Import    ImportConfig   `yaml:"import,omitempty"`
	Sync      SyncConfig     `yaml:"sync,omitempty"`
	Metrics   MetricsConfig  `yaml:"metrics,omitempty"`
	MCP       MCPConfig      `yaml:"mcp,omitempty"`
}

// ServerConfig holds settings for the HTTP API and documentation pages
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes,omitempty"` // Limit for JSON request bodies
	SiteTitle       string        `yaml:"site_title,omitempty"`
}

// StorageConfig holds badger settings
type StorageConfig struct {
	Dir            string        `yaml:"dir"`
	InMemory       bool          `yaml:"in_memory,omitempty"`
	GCInterval     time.Duration `yaml:"gc_interval,omitempty"`
	GCDiscardRatio float64       `yaml:"gc_discard_ratio,omitempty"`
}

// MarkdownConfig controls section extraction and rendering
type MarkdownConfig struct {
	AnchorMode     string `yaml:"anchor_mode,omitempty"`
	WordsPerMinute int    `yaml:"words_per_minute,omitempty"`
}

// SearchConfig controls chunking and result shaping for the search box
type SearchConfig struct {
	ChunkSize     int `yaml:"chunk_size,omitempty"`    // Max tokens per chunk
	ChunkOverlap  int `yaml:"chunk_overlap,omitempty"` // Overlap tokens between chunks
	MaxResults    int `yaml:"max_results,omitempty"`
	SnippetLength int `yaml:"snippet_length,omitempty"` // Runes of context around a match
}

// ImportConfig holds settings for importing remote documents
type ImportConfig struct {
	UserAgent          string                      `yaml:"user_agent,omitempty"`
	ContentSelector    string                      `yaml:"content_selector,omitempty"` // Default selector for HTML pages; "auto" detects the docs framework
	RespectRobots      *bool                       `yaml:"respect_robots,omitempty"`
	MaxBodyBytes       int64                       `yaml:"max_body_bytes,omitempty"`
	DefaultCategory    string                      `yaml:"default_category,omitempty"`
	MaxRetries         int                         `yaml:"max_retries,omitempty"` // Retries for 5xx, 429, and network errors
	InitialRetryDelay  time.Duration               `yaml:"initial_retry_delay,omitempty"`
	MaxRetryDelay      time.Duration               `yaml:"max_retry_delay,omitempty"`
	MaxRequestsPerHost int                         `yaml:"max_requests_per_host,omitempty"`
	RequestDelay       time.Duration               `yaml:"request_delay,omitempty"` // Minimum gap between requests to one host
	HTTPClientSettings HTTPClientConfig            `yaml:"http_client_settings,omitempty"`
	Sites              map[string]ImportSiteConfig `yaml:"sites,omitempty"` // Per-host overrides keyed by hostname
}

// ImportSiteConfig overrides import settings for a single host
type ImportSiteConfig struct {
	ContentSelector string `yaml:"content_selector,omitempty"`
	UserAgent       string `yaml:"user_agent,omitempty"`
	RespectRobots   *bool  `yaml:"respect_robots,omitempty"`
	Category        string `yaml:"category,omitempty"`
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // nil=default, true=force, false=disable
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// SyncConfig controls directory sync and watching
type SyncConfig struct {
	Dir             string        `yaml:"dir,omitempty"`
	StateFile       string        `yaml:"state_file,omitempty"`
	Extensions      []string      `yaml:"extensions,omitempty"`
	ExcludePatterns []string      `yaml:"exclude_patterns,omitempty"` // Regex patterns matched against relative paths
	Prune           bool          `yaml:"prune,omitempty"`            // Delete projects whose source file vanished
	Debounce        time.Duration `yaml:"debounce,omitempty"`
	DefaultCategory string        `yaml:"default_category,omitempty"`
}

// MetricsConfig controls the prometheus recorder
type MetricsConfig struct {
	Enabled   *bool  `yaml:"enabled,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

// MCPConfig holds MCP server settings
type MCPConfig struct {
	Transport string `yaml:"transport,omitempty"` // stdio or sse
	Addr      string `yaml:"addr,omitempty"`      // Listen address for sse
}

// MetricsEnabled reports whether metrics are on; unset means enabled.
func (c MetricsConfig) MetricsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// GetEffectiveContentSelector determines the selector for a host
// Site config (if non-empty) overrides the import default
func GetEffectiveContentSelector(host string, importCfg ImportConfig) string {
	if site, ok := importCfg.Sites[host]; ok && site.ContentSelector != "" {
		return site.ContentSelector
	}
	return importCfg.ContentSelector
}

// GetEffectiveUserAgent determines the User-Agent header for a host
func GetEffectiveUserAgent(host string, importCfg ImportConfig) string {
	if site, ok := importCfg.Sites[host]; ok && site.UserAgent != "" {
		return site.UserAgent
	}
	return importCfg.UserAgent
}

// GetEffectiveRespectRobots determines whether robots.txt is consulted for a host
func GetEffectiveRespectRobots(host string, importCfg ImportConfig) bool {
	if site, ok := importCfg.Sites[host]; ok && site.RespectRobots != nil {
		return *site.RespectRobots
	}
	if importCfg.RespectRobots != nil {
		return *importCfg.RespectRobots
	}
	return true
}

// GetEffectiveImportCategory determines the category given to projects imported from a host
func GetEffectiveImportCategory(host string, importCfg ImportConfig) string {
	if site, ok := importCfg.Sites[host]; ok && site.Category != "" {
		return site.Category
	}
	if importCfg.DefaultCategory != "" {
		return importCfg.DefaultCategory
	}
	return "imported"
}
