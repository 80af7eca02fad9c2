package importer

import (
	"net"
	"strings"
)

// NormalizeURL validates rawURL as an import target and returns the form
// used to recognize repeat imports of the same page: lowercase scheme and
// host, no default port, no fragment, and no trailing slash except for the
// root. The query is kept since it can select different content.
func NormalizeURL(rawURL string) (string, error) {
	u, err := parseImportURL(rawURL)
	if err != nil {
		return "", err
	}

	normalized := *u
	normalized.Scheme = strings.ToLower(normalized.Scheme)
	normalized.Host = strings.ToLower(normalized.Host)
	if host, port, err := net.SplitHostPort(normalized.Host); err == nil {
		if (normalized.Scheme == "http" && port == "80") || (normalized.Scheme == "https" && port == "443") {
			normalized.Host = host
		}
	}

	if normalized.Path == "" {
		normalized.Path = "/"
	} else if len(normalized.Path) > 1 {
		normalized.Path = strings.TrimSuffix(normalized.Path, "/")
	}
	normalized.RawPath = ""
	normalized.Fragment = ""

	return normalized.String(), nil
}
