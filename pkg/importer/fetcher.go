package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// RetryPolicy controls FetchWithRetry backoff
type RetryPolicy struct {
	MaxRetries        int
	InitialRetryDelay time.Duration
	MaxRetryDelay     time.Duration
}

// Fetcher performs GET requests, retrying network errors, 5xx, and 429
// with exponential backoff and jitter.
type Fetcher struct {
	client *http.Client
	policy RetryPolicy
	log    *logrus.Entry
}

// NewFetcher creates a Fetcher around client
func NewFetcher(client *http.Client, policy RetryPolicy, log *logrus.Entry) *Fetcher {
	return &Fetcher{client: client, policy: policy, log: log}
}

// FetchWithRetry executes req until it gets a 2xx response, a non-retryable
// status, or runs out of retries. On success the caller closes the body.
// Non-2xx results are returned as errors wrapping utils.ErrHTTPStatus, and
// transport failures wrap utils.ErrFetch.
func (f *Fetcher) FetchWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	reqLog := f.log.WithField("url", req.URL.String())
	var lastErr error

	for attempt := 0; attempt <= f.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.backoff(attempt)
			reqLog.WithFields(logrus.Fields{"attempt": attempt, "max_retries": f.policy.MaxRetries, "delay": delay}).Warn("Retrying request...")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled (%v) during retry delay after error: %w", ctx.Err(), lastErr)
			}
		}

		resp, err := f.client.Do(req.WithContext(ctx))
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			reqLog.WithField("attempt", attempt).Warnf("Network error: %v", err)
			lastErr = fmt.Errorf("%w: %w", utils.ErrFetch, err)
			continue
		}

		status := resp.StatusCode
		switch {
		case status >= 200 && status < 300:
			return resp, nil
		case status >= 500 || status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: %s", utils.ErrHTTPStatus, resp.Status)
			drainAndClose(resp)
			continue
		default:
			drainAndClose(resp)
			return nil, fmt.Errorf("%w: %s", utils.ErrHTTPStatus, resp.Status)
		}
	}

	reqLog.Errorf("All %d fetch attempts failed. Last error: %v", f.policy.MaxRetries+1, lastErr)
	return nil, lastErr
}

// backoff returns initial * 2^(attempt-1), capped, with +/- 10% jitter.
func (f *Fetcher) backoff(attempt int) time.Duration {
	delay := time.Duration(float64(f.policy.InitialRetryDelay) * math.Pow(2, float64(attempt-1)))
	if delay <= 0 || delay > f.policy.MaxRetryDelay {
		delay = f.policy.MaxRetryDelay
	}
	if delay/5 > 0 {
		delay += time.Duration(rand.Int63n(int64(delay/5))) - delay/10
	}
	return max(delay, 0)
}

func drainAndClose(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
