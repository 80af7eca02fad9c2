package config

import (
	"strings"
	"testing"
	"time"

	"github.com/Sriram-PR/doc-site/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{} // Zero value
	warnings, err := cfg.Validate()

	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, int64(2*1024*1024), cfg.Server.MaxBodyBytes)

	assert.Equal(t, "./docsite_data", cfg.Storage.Dir)
	assert.Equal(t, 10*time.Minute, cfg.Storage.GCInterval)
	assert.Equal(t, 0.5, cfg.Storage.GCDiscardRatio)

	assert.Equal(t, AnchorModeCanonical, cfg.Markdown.AnchorMode)
	assert.Equal(t, 200, cfg.Markdown.WordsPerMinute)

	assert.Equal(t, 512, cfg.Search.ChunkSize)
	assert.Equal(t, 0, cfg.Search.ChunkOverlap)
	assert.Equal(t, 20, cfg.Search.MaxResults)
	assert.Equal(t, 160, cfg.Search.SnippetLength)

	assert.Equal(t, "docsite-importer/1.0", cfg.Import.UserAgent)
	assert.Equal(t, int64(5*1024*1024), cfg.Import.MaxBodyBytes)
	assert.Equal(t, 2, cfg.Import.MaxRequestsPerHost)
	assert.Zero(t, cfg.Import.RequestDelay)
	assert.Equal(t, 30*time.Second, cfg.Import.HTTPClientSettings.Timeout)
	assert.Equal(t, 100, cfg.Import.HTTPClientSettings.MaxIdleConns)
	assert.Equal(t, 15*time.Second, cfg.Import.HTTPClientSettings.DialerTimeout)

	assert.Equal(t, []string{".md", ".markdown"}, cfg.Sync.Extensions)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.Debounce)
	assert.Equal(t, "general", cfg.Sync.DefaultCategory)

	assert.Equal(t, "docsite", cfg.Metrics.Namespace)
	assert.Equal(t, "stdio", cfg.MCP.Transport)

	assert.True(t, containsWarning(warnings, "server.addr is empty"))
	assert.True(t, containsWarning(warnings, "storage.dir is empty"))
}

func TestAppConfig_Validate_ValidConfig(t *testing.T) {
	cfg := AppConfig{
		LogLevel:  "debug",
		LogFormat: "json",
		Server:    ServerConfig{Addr: "127.0.0.1:9000"},
		Storage:   StorageConfig{Dir: "/data", GCInterval: time.Minute, GCDiscardRatio: 0.7},
		Markdown:  MarkdownConfig{AnchorMode: "Legacy", WordsPerMinute: 250},
		Search:    SearchConfig{ChunkSize: 256, ChunkOverlap: 32},
	}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, AnchorModeLegacy, cfg.Markdown.AnchorMode)
	assert.Equal(t, 250, cfg.Markdown.WordsPerMinute)
	assert.Equal(t, 0.7, cfg.Storage.GCDiscardRatio)
	assert.Equal(t, 32, cfg.Search.ChunkOverlap)
}

func TestAppConfig_Validate_InMemoryStorageNeedsNoDir(t *testing.T) {
	cfg := AppConfig{Storage: StorageConfig{InMemory: true}}

	warnings, err := cfg.Validate()

	require.NoError(t, err)
	assert.Empty(t, cfg.Storage.Dir)
	assert.False(t, containsWarning(warnings, "storage.dir"))
}

func TestAppConfig_Validate_InvalidValues(t *testing.T) {
	tests := []struct {
		name        string
		cfg         AppConfig
		wantWarning string
		check       func(t *testing.T, cfg *AppConfig)
	}{
		{
			name:        "bad log level",
			cfg:         AppConfig{LogLevel: "loud"},
			wantWarning: "log_level 'loud' is invalid",
			check:       func(t *testing.T, cfg *AppConfig) { assert.Equal(t, "info", cfg.LogLevel) },
		},
		{
			name:        "bad log format",
			cfg:         AppConfig{LogFormat: "xml"},
			wantWarning: "log_format 'xml' is invalid",
			check:       func(t *testing.T, cfg *AppConfig) { assert.Equal(t, "text", cfg.LogFormat) },
		},
		{
			name:        "negative gc interval",
			cfg:         AppConfig{Storage: StorageConfig{Dir: "d", GCInterval: -time.Second}},
			wantWarning: "gc_interval cannot be negative",
			check:       func(t *testing.T, cfg *AppConfig) { assert.Equal(t, time.Duration(0), cfg.Storage.GCInterval) },
		},
		{
			name:        "discard ratio out of range",
			cfg:         AppConfig{Storage: StorageConfig{Dir: "d", GCDiscardRatio: 1.5}},
			wantWarning: "gc_discard_ratio",
			check:       func(t *testing.T, cfg *AppConfig) { assert.Equal(t, 0.5, cfg.Storage.GCDiscardRatio) },
		},
		{
			name:        "overlap not smaller than chunk",
			cfg:         AppConfig{Search: SearchConfig{ChunkSize: 100, ChunkOverlap: 100}},
			wantWarning: "chunk_overlap (100) >= chunk_size (100)",
			check:       func(t *testing.T, cfg *AppConfig) { assert.Equal(t, 10, cfg.Search.ChunkOverlap) },
		},
		{
			name:        "negative import body limit",
			cfg:         AppConfig{Import: ImportConfig{MaxBodyBytes: -1}},
			wantWarning: "max_body_bytes cannot be negative",
			check:       func(t *testing.T, cfg *AppConfig) { assert.Equal(t, int64(0), cfg.Import.MaxBodyBytes) },
		},
		{
			name:        "negative request delay",
			cfg:         AppConfig{Import: ImportConfig{RequestDelay: -time.Second}},
			wantWarning: "request_delay cannot be negative",
			check:       func(t *testing.T, cfg *AppConfig) { assert.Zero(t, cfg.Import.RequestDelay) },
		},
		{
			name:        "bad mcp transport",
			cfg:         AppConfig{MCP: MCPConfig{Transport: "grpc"}},
			wantWarning: "mcp.transport 'grpc' is invalid",
			check:       func(t *testing.T, cfg *AppConfig) { assert.Equal(t, "stdio", cfg.MCP.Transport) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			warnings, err := cfg.Validate()
			require.NoError(t, err)
			assert.True(t, containsWarning(warnings, tt.wantWarning),
				"expected warning containing %q, got %v", tt.wantWarning, warnings)
			tt.check(t, &cfg)
		})
	}
}

func TestAppConfig_Validate_SSEAddrDefault(t *testing.T) {
	cfg := AppConfig{MCP: MCPConfig{Transport: "sse"}}

	_, err := cfg.Validate()

	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.MCP.Addr)
}

func TestAppConfig_Validate_FatalErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  AppConfig
	}{
		{"unknown anchor mode", AppConfig{Markdown: MarkdownConfig{AnchorMode: "fancy"}}},
		{"bad exclude regex", AppConfig{Sync: SyncConfig{ExcludePatterns: []string{"("}}}},
		{"url as import site key", AppConfig{Import: ImportConfig{Sites: map[string]ImportSiteConfig{
			"https://a.dev/x": {ContentSelector: "main"},
		}}}},
		{"empty import site key", AppConfig{Import: ImportConfig{Sites: map[string]ImportSiteConfig{
			"": {ContentSelector: "main"},
		}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			_, err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, utils.ErrConfigValidation)
		})
	}
}

func TestImportSiteConfig_Validate_EmptyOverride(t *testing.T) {
	site := ImportSiteConfig{}

	warnings, err := site.Validate("docs.dev")

	require.NoError(t, err)
	assert.True(t, containsWarning(warnings, "overrides nothing"))
}

// containsWarning checks if any warning contains the substring.
func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
