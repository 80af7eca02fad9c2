package importer

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const defaultMaxRequestsPerHost = 2

// hostSlot tracks one host. active counts holders and waiters.
type hostSlot struct {
	sem    *semaphore.Weighted
	active int64
	last   time.Time
}

// hostLimiter bounds concurrent imports per host and spaces consecutive
// requests to a host by a minimum delay. Import jobs for different URLs on
// the same host share it.
type hostLimiter struct {
	mu    sync.Mutex
	hosts map[string]*hostSlot
	limit int64
	delay time.Duration
	now   func() time.Time
}

func newHostLimiter(maxPerHost int, delay time.Duration) *hostLimiter {
	if maxPerHost <= 0 {
		maxPerHost = defaultMaxRequestsPerHost
	}
	return &hostLimiter{
		hosts: make(map[string]*hostSlot),
		limit: int64(maxPerHost),
		delay: delay,
		now:   time.Now,
	}
}

// acquire blocks until host has a free slot and the delay since its last
// request has passed. The returned func must be called once the request is done.
func (l *hostLimiter) acquire(ctx context.Context, host string) (release func(), err error) {
	l.mu.Lock()
	l.evictIdleLocked()
	slot, ok := l.hosts[host]
	if !ok {
		slot = &hostSlot{sem: semaphore.NewWeighted(l.limit)}
		l.hosts[host] = slot
	}
	slot.active++
	l.mu.Unlock()

	if err := slot.sem.Acquire(ctx, 1); err != nil {
		l.mu.Lock()
		slot.active--
		l.mu.Unlock()
		return nil, err
	}

	if wait := l.pending(slot); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.done(slot, false)
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	var once sync.Once
	return func() { once.Do(func() { l.done(slot, true) }) }, nil
}

// pending returns how long to wait before the next request to slot's host
func (l *hostLimiter) pending(slot *hostSlot) time.Duration {
	if l.delay <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if slot.last.IsZero() {
		return 0
	}
	return l.delay - l.now().Sub(slot.last)
}

func (l *hostLimiter) done(slot *hostSlot, requested bool) {
	l.mu.Lock()
	slot.active--
	if requested {
		slot.last = l.now()
	}
	l.mu.Unlock()
	slot.sem.Release(1)
}

// evictIdleLocked drops hosts with no holders whose delay has elapsed.
func (l *hostLimiter) evictIdleLocked() {
	now := l.now()
	for host, slot := range l.hosts {
		if slot.active == 0 && now.Sub(slot.last) >= l.delay {
			delete(l.hosts, host)
		}
	}
}

// Len returns the number of tracked hosts
func (l *hostLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hosts)
}
