package jobs

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// DefaultRetention is how long finished jobs stay queryable
const DefaultRetention = time.Hour

// Job is a snapshot of a background import
type Job struct {
	ID           string           `json:"id"`
	URL          string           `json:"url"`
	Status       models.JobStatus `json:"status"`
	StartedAt    time.Time        `json:"startedAt"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
	ProjectSlug  string           `json:"projectSlug,omitempty"`
	ErrorMessage string           `json:"error,omitempty"`
	ErrorType    string           `json:"errorType,omitempty"` // utils.CategorizeError of the failure
}

// ImportFunc performs the work of a job and returns the created project
type ImportFunc func(ctx context.Context) (*models.Project, error)

type jobEntry struct {
	job    Job
	cancel context.CancelFunc
}

// Manager runs imports in the background and tracks their status.
// A URL has at most one active job; starting it again returns that job.
type Manager struct {
	mu        sync.RWMutex
	jobs      map[string]*jobEntry
	byURL     map[string]string // URL -> active job ID
	retention time.Duration
	wg        sync.WaitGroup
	log       *logrus.Entry
	now       func() time.Time
}

// NewManager creates a job manager. Finished jobs older than retention are
// dropped; a non-positive retention uses DefaultRetention.
func NewManager(retention time.Duration, log *logrus.Entry) *Manager {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Manager{
		jobs:      make(map[string]*jobEntry),
		byURL:     make(map[string]string),
		retention: retention,
		log:       log,
		now:       time.Now,
	}
}

// Start launches fn for url unless a job for url is already active, and
// returns the job snapshot. created reports whether a new job was started.
func (m *Manager) Start(url string, fn ImportFunc) (job Job, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneLocked()

	if id, ok := m.byURL[url]; ok {
		if entry := m.jobs[id]; entry != nil && !entry.job.Status.IsTerminal() {
			return entry.job, false
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	entry := &jobEntry{
		job: Job{
			ID:        uuid.New().String(),
			URL:       url,
			Status:    models.JobStatusPending,
			StartedAt: m.now(),
		},
		cancel: cancel,
	}
	m.jobs[entry.job.ID] = entry
	m.byURL[url] = entry.job.ID

	m.wg.Add(1)
	go m.run(ctx, entry.job.ID, fn)
	return entry.job, true
}

func (m *Manager) run(ctx context.Context, id string, fn ImportFunc) {
	defer m.wg.Done()
	jobLog := m.log.WithField("job_id", id)

	if !m.setRunning(id) {
		return
	}

	p, err := fn(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.jobs[id]
	if !ok {
		return
	}
	if entry.job.Status.IsTerminal() {
		// Cancelled after the project was stored; it exists regardless
		if err == nil && p != nil {
			entry.job.ProjectSlug = p.Slug
			jobLog.WithField("slug", p.Slug).Info("Cancelled import job had already created its project")
		}
		return
	}
	entry.cancel()

	completed := m.now()
	entry.job.CompletedAt = &completed
	delete(m.byURL, entry.job.URL)

	switch {
	case err != nil && ctx.Err() != nil:
		entry.job.Status = models.JobStatusCancelled
		entry.job.ErrorMessage = err.Error()
	case err != nil:
		entry.job.Status = models.JobStatusFailed
		entry.job.ErrorMessage = err.Error()
		entry.job.ErrorType = utils.CategorizeError(err)
		jobLog.WithField("error_type", entry.job.ErrorType).Warnf("Import job failed: %v", err)
	default:
		entry.job.Status = models.JobStatusCompleted
		if p != nil {
			entry.job.ProjectSlug = p.Slug
		}
		jobLog.WithField("slug", entry.job.ProjectSlug).Info("Import job completed")
	}
}

func (m *Manager) setRunning(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.jobs[id]
	if !ok || entry.job.Status != models.JobStatusPending {
		return false
	}
	entry.job.Status = models.JobStatusRunning
	return true
}

// Get returns a snapshot of job id
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return entry.job, true
}

// List returns snapshots of all retained jobs, newest first
func (m *Manager) List() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Job, 0, len(m.jobs))
	for _, entry := range m.jobs {
		out = append(out, entry.job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Cancel stops an active job. It reports false for unknown or finished jobs.
func (m *Manager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.jobs[id]
	if !ok || entry.job.Status.IsTerminal() {
		return false
	}
	m.cancelLocked(entry)
	return true
}

// Shutdown cancels every active job and waits for them to return or ctx to end.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, entry := range m.jobs {
		if !entry.job.Status.IsTerminal() {
			m.cancelLocked(entry)
		}
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) cancelLocked(entry *jobEntry) {
	entry.cancel()
	completed := m.now()
	entry.job.Status = models.JobStatusCancelled
	entry.job.CompletedAt = &completed
	delete(m.byURL, entry.job.URL)
}

func (m *Manager) pruneLocked() {
	cutoff := m.now().Add(-m.retention)
	for id, entry := range m.jobs {
		if entry.job.CompletedAt != nil && entry.job.CompletedAt.Before(cutoff) {
			delete(m.jobs, id)
		}
	}
}
