package importer

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/temoto/robotstxt"
)

// maxRobotsBytes caps how much of a robots.txt file is read
const maxRobotsBytes = 512 * 1024

// RobotsChecker fetches and caches robots.txt rules per scheme and host.
type RobotsChecker struct {
	client *http.Client
	log    *logrus.Entry

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData // nil entry: rules unavailable, allow
}

// NewRobotsChecker creates a RobotsChecker using client for lookups
func NewRobotsChecker(client *http.Client, log *logrus.Entry) *RobotsChecker {
	return &RobotsChecker{
		client: client,
		log:    log,
		cache:  make(map[string]*robotstxt.RobotsData),
	}
}

// Allowed reports whether userAgent may fetch target. Targets whose robots.txt
// cannot be fetched or parsed are allowed.
func (rc *RobotsChecker) Allowed(ctx context.Context, target *url.URL, userAgent string) bool {
	data := rc.rulesFor(ctx, target, userAgent)
	if data == nil {
		return true
	}
	return data.TestAgent(target.RequestURI(), userAgent)
}

func (rc *RobotsChecker) rulesFor(ctx context.Context, target *url.URL, userAgent string) *robotstxt.RobotsData {
	key := target.Scheme + "://" + target.Host

	rc.mu.Lock()
	data, found := rc.cache[key]
	rc.mu.Unlock()
	if found {
		return data
	}

	robotsURL := (&url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/robots.txt"}).String()
	robotsLog := rc.log.WithField("robots_url", robotsURL)
	robotsLog.Debug("Fetching robots.txt...")

	data = rc.fetch(ctx, robotsURL, userAgent, robotsLog)

	rc.mu.Lock()
	rc.cache[key] = data
	rc.mu.Unlock()
	return data
}

func (rc *RobotsChecker) fetch(ctx context.Context, robotsURL, userAgent string, robotsLog *logrus.Entry) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		robotsLog.Warnf("Error creating request: %v", err)
		return nil
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := rc.client.Do(req)
	if err != nil {
		robotsLog.Warnf("Fetching robots.txt failed: %v", err)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		robotsLog.Warnf("Error reading body: %v", err)
		return nil
	}

	// 4xx allows everything, 5xx disallows everything
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		robotsLog.Warnf("Error parsing robots.txt: %v", err)
		return nil
	}
	return data
}
