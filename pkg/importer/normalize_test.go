package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/doc-site/pkg/utils"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "already normal", in: "https://example.com/docs", want: "https://example.com/docs"},
		{name: "case and default port", in: "HTTPS://Example.COM:443/docs", want: "https://example.com/docs"},
		{name: "http default port", in: "http://example.com:80/", want: "http://example.com/"},
		{name: "custom port kept", in: "http://example.com:8080/a", want: "http://example.com:8080/a"},
		{name: "trailing slash", in: "https://example.com/docs/", want: "https://example.com/docs"},
		{name: "empty path", in: "https://example.com", want: "https://example.com/"},
		{name: "fragment dropped", in: "https://example.com/guide#install", want: "https://example.com/guide"},
		{name: "query kept", in: "https://example.com/raw?file=README.md", want: "https://example.com/raw?file=README.md"},
		{name: "surrounding space", in: "  https://example.com/a  ", want: "https://example.com/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL_Invalid(t *testing.T) {
	for _, in := range []string{"ftp://example.com/file", "not a url", "https://", "://missing"} {
		t.Run(in, func(t *testing.T) {
			_, err := NormalizeURL(in)
			assert.ErrorIs(t, err, utils.ErrInvalidInput)
		})
	}
}
