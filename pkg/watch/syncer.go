package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/config"
	"github.com/Sriram-PR/doc-site/pkg/markdown"
	"github.com/Sriram-PR/doc-site/pkg/metrics"
	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/project"
	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// ProjectService is the subset of project.Service a Syncer drives
type ProjectService interface {
	Create(in project.CreateInput) (*models.Project, error)
	Get(slug string) (*models.Project, error)
	Update(slug string, in project.UpdateInput) (*models.Project, error)
	Delete(slug string) error
}

// FrontMatter is the YAML header recognized at the top of synced files
type FrontMatter struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Category    string `yaml:"category"`
	Slug        string `yaml:"slug"`
	Draft       bool   `yaml:"draft"` // Drafts are skipped, and pruned if previously synced
}

// FileResult is the outcome for one file
type FileResult struct {
	Path   string            `json:"path"`
	Slug   string            `json:"slug,omitempty"`
	Action models.SyncAction `json:"action"`
	Error  string            `json:"error,omitempty"`
}

// Report summarizes one sync pass
type Report struct {
	Files    []FileResult `json:"files"`
	Duration time.Duration
}

// Count returns how many files ended with action
func (r *Report) Count(action models.SyncAction) int {
	n := 0
	for _, f := range r.Files {
		if f.Action == action {
			n++
		}
	}
	return n
}

// Syncer mirrors a directory of markdown files into projects.
type Syncer struct {
	cfg      config.SyncConfig
	svc      ProjectService
	state    *StateManager
	excludes []*regexp.Regexp
	metrics  metrics.Recorder
	log      *logrus.Entry

	runMu sync.Mutex // One pass at a time
}

// NewSyncer creates a Syncer for cfg.Dir and loads its state file.
func NewSyncer(cfg config.SyncConfig, svc ProjectService, rec metrics.Recorder, log *logrus.Entry) (*Syncer, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: sync directory is required", utils.ErrInvalidInput)
	}
	excludes, err := utils.CompileRegexPatterns(cfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	state := NewStateManager(cfg.StateFile)
	if err := state.Load(); err != nil {
		log.Warnf("Failed to load sync state: %v (starting fresh)", err)
	}

	return &Syncer{
		cfg:      cfg,
		svc:      svc,
		state:    state,
		excludes: excludes,
		metrics:  metrics.OrNoop(rec),
		log:      log.WithField("dir", cfg.Dir),
	}, nil
}

// SyncOnce walks the directory, creating or updating a project for every
// changed markdown file. Files whose hash matches the recorded state are
// skipped. With Prune set, projects of vanished files are deleted.
func (s *Syncer) SyncOnce(ctx context.Context) (*Report, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	start := time.Now()
	report := &Report{}
	seen := make(map[string]bool)

	err := filepath.WalkDir(s.cfg.Dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(s.cfg.Dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !s.wanted(rel) {
			return nil
		}

		seen[rel] = true
		report.Files = append(report.Files, s.syncFile(path, rel))
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return report, err
		}
		return report, fmt.Errorf("%w: walking %s: %w", utils.ErrFilesystem, s.cfg.Dir, err)
	}

	for _, rel := range s.state.Paths() {
		if !seen[rel] {
			if res, ok := s.removeFile(rel); ok {
				report.Files = append(report.Files, res)
			}
		}
	}

	for _, f := range report.Files {
		s.metrics.IncSyncAction(string(f.Action))
	}
	report.Duration = time.Since(start)

	if err := s.state.Save(); err != nil {
		return report, err
	}

	s.log.WithFields(logrus.Fields{
		"created":   report.Count(models.SyncActionCreated),
		"updated":   report.Count(models.SyncActionUpdated),
		"unchanged": report.Count(models.SyncActionUnchanged),
		"deleted":   report.Count(models.SyncActionDeleted),
		"failed":    report.Count(models.SyncActionFailed),
		"duration":  report.Duration.Round(time.Millisecond),
	}).Info("Directory sync finished")
	return report, nil
}

// wanted applies the extension filter and exclude patterns to a relative path.
func (s *Syncer) wanted(rel string) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	matched := false
	for _, want := range s.cfg.Extensions {
		if strings.ToLower(want) == ext {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	return !utils.MatchesAny(s.excludes, rel)
}

func (s *Syncer) syncFile(path, rel string) FileResult {
	fileLog := s.log.WithField("file", rel)
	result := FileResult{Path: rel}
	fail := func(err error) FileResult {
		fileLog.WithField("error_type", utils.CategorizeError(err)).Warnf("Sync failed: %v", err)
		result.Action = models.SyncActionFailed
		result.Error = err.Error()
		return result
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fail(fmt.Errorf("%w: %w", utils.ErrFilesystem, err))
	}
	hash := utils.CalculateContentSHA256(raw)

	prev, tracked := s.state.Get(rel)
	if tracked && prev.Hash == hash {
		if _, err := s.svc.Get(prev.Slug); err == nil {
			result.Slug = prev.Slug
			result.Action = models.SyncActionUnchanged
			return result
		}
	}

	var meta FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return fail(fmt.Errorf("%w: front matter YAML in %s: %w", utils.ErrParsing, rel, err))
	}
	content := string(body)

	if meta.Draft {
		if tracked {
			if res, ok := s.removeFile(rel); ok {
				return res
			}
		}
		result.Action = models.SyncActionUnchanged
		return result
	}

	name := documentName(meta, content, rel)
	category := meta.Category
	if category == "" {
		category = s.cfg.DefaultCategory
	}

	existing := s.existingProject(prev, tracked, meta.Slug, rel)
	var p *models.Project
	if existing != nil {
		in := project.UpdateInput{
			Name:        &name,
			Description: &meta.Description,
			Category:    &category,
			Content:     &content,
		}
		if meta.Slug != "" {
			in.Slug = &meta.Slug
		}
		p, err = s.svc.Update(existing.Slug, in)
		result.Action = models.SyncActionUpdated
	} else {
		p, err = s.svc.Create(project.CreateInput{
			Name:        name,
			Content:     content,
			Description: meta.Description,
			Category:    category,
			Slug:        meta.Slug,
			Source:      rel,
		})
		result.Action = models.SyncActionCreated
	}
	if err != nil {
		return fail(err)
	}

	s.state.Set(rel, FileState{Hash: hash, Slug: p.Slug, ProjectID: p.ID, SyncedAt: time.Now()})
	result.Slug = p.Slug
	fileLog.WithField("slug", p.Slug).Infof("Project %s", result.Action)
	return result
}

// existingProject finds the project previously created for rel, either via
// the sync state or a front matter slug pointing at a project sourced from rel.
func (s *Syncer) existingProject(prev FileState, tracked bool, fmSlug, rel string) *models.Project {
	if tracked {
		if p, err := s.svc.Get(prev.Slug); err == nil && p.ID == prev.ProjectID {
			return p
		}
	}
	if fmSlug != "" {
		if p, err := s.svc.Get(fmSlug); err == nil && p.Source == rel {
			return p
		}
	}
	return nil
}

// removeFile handles a tracked file that vanished or became a draft. Without
// Prune the state entry is kept so the project is reused if the file returns.
func (s *Syncer) removeFile(rel string) (FileResult, bool) {
	if !s.cfg.Prune {
		return FileResult{}, false
	}
	prev, _ := s.state.Get(rel)
	result := FileResult{Path: rel, Slug: prev.Slug, Action: models.SyncActionDeleted}

	if err := s.svc.Delete(prev.Slug); err != nil && !errors.Is(err, utils.ErrNotFound) {
		s.log.WithField("file", rel).Warnf("Prune failed: %v", err)
		result.Action = models.SyncActionFailed
		result.Error = err.Error()
		return result, true
	}
	s.state.Delete(rel)
	s.log.WithFields(logrus.Fields{"file": rel, "slug": prev.Slug}).Info("Pruned project of removed file")
	return result, true
}

// documentName picks the project name: front matter title, first heading,
// then the file name without extension.
func documentName(meta FrontMatter, content, rel string) string {
	if title := strings.TrimSpace(meta.Title); title != "" {
		return title
	}
	if sections := markdown.ExtractSections(content); len(sections) > 0 {
		return sections[0].Title
	}
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
