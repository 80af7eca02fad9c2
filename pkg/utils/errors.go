package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrNotFound           = errors.New("record not found")
	ErrConflict           = errors.New("record already exists")
	ErrInvalidInput       = errors.New("invalid input")    // Wraps the failed validation rule
	ErrDatabase           = errors.New("database error")   // Wraps badger errors
	ErrParsing            = errors.New("parsing error")    // Wraps JSON/YAML/HTML/URL parse errors
	ErrFilesystem         = errors.New("filesystem error") // Wraps os errors
	ErrConfigValidation   = errors.New("configuration validation error")
	ErrFetch              = errors.New("fetch failed")           // Wraps transport errors during import
	ErrHTTPStatus         = errors.New("unexpected HTTP status") // Wraps non-2xx import responses
	ErrRobotsDisallowed   = errors.New("disallowed by robots.txt")
	ErrContentSelector    = errors.New("content selector not found")
	ErrMarkdownConversion = errors.New("failed to convert HTML to markdown")
	ErrBodyTooLarge       = errors.New("response body exceeds limit")
)

// WrapErrorf wraps a sentinel with a formatted message, preserving errors.Is.
func WrapErrorf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// CategorizeError maps an error to a predefined category string for logging/metrics.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrConflict):
		return "Conflict"
	case errors.Is(err, ErrInvalidInput):
		return "Input_Invalid"
	case errors.Is(err, ErrRobotsDisallowed):
		return "Policy_Robots"
	case errors.Is(err, ErrBodyTooLarge):
		return "Policy_BodyTooLarge"
	case errors.Is(err, ErrHTTPStatus):
		errMsg := err.Error()
		if strings.Contains(errMsg, " 404") {
			return "HTTP_404"
		}
		if strings.Contains(errMsg, " 5") {
			return "HTTP_5xx"
		}
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrContentSelector):
		return "Content_SelectorNotFound"
	case errors.Is(err, ErrMarkdownConversion):
		return "Content_Markdown"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "URL") {
			return "Content_ParsingURL"
		}
		if strings.Contains(errMsg, "YAML") {
			return "Content_ParsingYAML"
		}
		if strings.Contains(errMsg, "JSON") {
			return "Content_ParsingJSON"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	case errors.Is(err, ErrFetch):
		return categorizeNetworkError(err, "Fetch_")
	}

	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	return categorizeNetworkError(err, "")
}

// categorizeNetworkError falls back to inspecting net.Error and common message fragments.
func categorizeNetworkError(err error, prefix string) string {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return prefix + "Network_Timeout"
	}

	lowerErrMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lowerErrMsg, "timeout") || strings.Contains(lowerErrMsg, "deadline exceeded"):
		return prefix + "Network_Timeout"
	case strings.Contains(lowerErrMsg, "connection refused"):
		return prefix + "Network_ConnectionRefused"
	case strings.Contains(lowerErrMsg, "no such host"):
		return prefix + "Network_DNSLookup"
	case strings.Contains(lowerErrMsg, "tls") || strings.Contains(lowerErrMsg, "certificate"):
		return prefix + "Network_TLS"
	}

	if prefix != "" {
		return prefix + "Other"
	}
	return "Unknown"
}
