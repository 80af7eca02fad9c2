package project

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/config"
	"github.com/Sriram-PR/doc-site/pkg/markdown"
	"github.com/Sriram-PR/doc-site/pkg/metrics"
	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/storage"
	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// CreateInput carries the fields accepted when creating a project
type CreateInput struct {
	Name        string
	Content     string
	Description string
	Category    string
	Slug        string // Optional explicit slug; normalized and collision-resolved like a name
	Source      string
}

// UpdateInput carries optional changes; nil fields are left untouched
type UpdateInput struct {
	Name        *string
	Description *string
	Category    *string
	Content     *string
	Slug        *string // Pins the slug; a name change no longer re-slugs
}

// Preview is the non-persisted result of generating documentation for content
type Preview struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Content           string             `json:"content"`
	GeneratedAt       time.Time          `json:"generatedAt"`
	Sections          []markdown.Section `json:"sections"`
	WordCount         int                `json:"wordCount"`
	EstimatedReadTime int                `json:"estimatedReadTime"`
}

// Service owns project lifecycle rules on top of a ProjectStore
type Service struct {
	store      storage.ProjectStore
	log        *logrus.Entry
	metrics    metrics.Recorder
	anchorMode string
	wpm        int
	now        func() time.Time
}

// NewService creates a project service. A nil recorder disables metrics.
func NewService(store storage.ProjectStore, cfg config.MarkdownConfig, rec metrics.Recorder, logger *logrus.Entry) *Service {
	wpm := cfg.WordsPerMinute
	if wpm <= 0 {
		wpm = markdown.DefaultWordsPerMinute
	}
	mode := cfg.AnchorMode
	if mode == "" {
		mode = config.AnchorModeCanonical
	}
	return &Service{
		store:      store,
		log:        logger,
		metrics:    metrics.OrNoop(rec),
		anchorMode: mode,
		wpm:        wpm,
		now:        time.Now,
	}
}

// Parse produces sections and blocks for content according to the anchor mode.
// In legacy mode the section extractor and renderer run independently.
func (s *Service) Parse(content string) markdown.Document {
	start := time.Now()
	var doc markdown.Document
	if s.anchorMode == config.AnchorModeLegacy {
		doc = markdown.Document{
			Sections: markdown.ExtractSections(content),
			Blocks:   markdown.RenderDocument(content),
		}
	} else {
		doc = markdown.Parse(content)
	}
	s.metrics.ObserveMarkdownDuration("parse", time.Since(start))
	return doc
}

// Create validates input and stores a new project with its derived sections
func (s *Service) Create(in CreateInput) (*models.Project, error) {
	p, err := s.create(in)
	s.record("create", err)
	return p, err
}

func (s *Service) create(in CreateInput) (*models.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Content == "" {
		return nil, fmt.Errorf("%w: name and content are required", utils.ErrInvalidInput)
	}

	base := in.Slug
	if base == "" {
		base = name
	}
	slug, err := s.availableSlug(GenerateSlug(base), "")
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        slug,
		Description: in.Description,
		Category:    categoryOrDefault(in.Category),
		Source:      in.Source,
		Revision:    1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.applyContent(p, in.Content)

	if err := s.store.CreateProject(p); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"slug": p.Slug, "sections": len(p.Sections)}).Info("Project created")
	return p, nil
}

// Get returns the project owning slug
func (s *Service) Get(slug string) (*models.Project, error) {
	return s.store.GetProjectBySlug(slug)
}

// List returns all projects, most recently updated first
func (s *Service) List() ([]*models.Project, error) {
	projects, err := s.store.ListProjects()
	if err == nil {
		s.metrics.SetProjectCount(len(projects))
	}
	return projects, err
}

// Update applies in to the project owning slug. A changed name re-slugs the
// project unless in.Slug pins it; changed content replaces every section and
// bumps the revision.
func (s *Service) Update(slug string, in UpdateInput) (*models.Project, error) {
	p, err := s.update(slug, in)
	s.record("update", err)
	return p, err
}

func (s *Service) update(slug string, in UpdateInput) (*models.Project, error) {
	p, err := s.store.GetProjectBySlug(slug)
	if err != nil {
		return nil, err
	}

	pinned := in.Slug != nil && strings.TrimSpace(*in.Slug) != ""
	if pinned {
		if want := GenerateSlug(*in.Slug); want != slug && !derivedSlug(slug, want) {
			p.Slug, err = s.availableSlug(want, p.ID)
			if err != nil {
				return nil, err
			}
		}
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", utils.ErrInvalidInput)
		}
		// Renaming re-slugs; resubmitting the current name keeps the slug
		if name != p.Name && !pinned {
			if newSlug := GenerateSlug(name); newSlug != slug {
				p.Slug, err = s.availableSlug(newSlug, p.ID)
				if err != nil {
					return nil, err
				}
			}
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = categoryOrDefault(*in.Category)
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", utils.ErrInvalidInput)
		}
		s.applyContent(p, *in.Content)
		p.Revision++
	}
	p.UpdatedAt = s.now().UTC()

	if err := s.store.SaveProject(p, slug); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"slug": p.Slug, "previous_slug": slug, "revision": p.Revision}).Info("Project updated")
	return p, nil
}

// Delete removes the project owning slug
func (s *Service) Delete(slug string) error {
	err := s.store.DeleteProject(slug)
	s.record("delete", err)
	if err == nil {
		s.log.WithField("slug", slug).Info("Project deleted")
	}
	return err
}

// Generate builds a preview of the documentation for content without storing it
func (s *Service) Generate(name, content string) (*Preview, error) {
	if strings.TrimSpace(name) == "" || content == "" {
		return nil, fmt.Errorf("%w: content and project name are required", utils.ErrInvalidInput)
	}
	doc := s.Parse(content)
	return &Preview{
		ID:                uuid.NewString(),
		Name:              name,
		Content:           content,
		GeneratedAt:       s.now().UTC(),
		Sections:          doc.Sections,
		WordCount:         markdown.WordCount(content),
		EstimatedReadTime: markdown.ReadTime(content, s.wpm),
	}, nil
}

// ReadTime estimates minutes to read content at the configured pace
func (s *Service) ReadTime(content string) int {
	return markdown.ReadTime(content, s.wpm)
}

// applyContent sets content and everything derived from it
func (s *Service) applyContent(p *models.Project, content string) {
	p.Content = content
	p.WordCount = markdown.WordCount(content)
	p.ReadTime = markdown.ReadTime(content, s.wpm)

	sections := s.Parse(content).Sections
	p.Sections = make([]models.SectionRecord, len(sections))
	for i, sec := range sections {
		p.Sections[i] = models.SectionRecord{
			ID:     uuid.NewString(),
			Title:  sec.Title,
			Level:  sec.Level,
			Anchor: sec.Anchor,
			Order:  sec.Order,
		}
	}
}

// availableSlug returns slug when it is free (or already owned by ownerID),
// otherwise slug suffixed with the current unix milliseconds.
func (s *Service) availableSlug(slug, ownerID string) (string, error) {
	candidate := slug
	for attempt := 0; ; attempt++ {
		taken, err := s.slugTaken(candidate, ownerID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", slug, s.now().UnixMilli())
		if attempt > 0 {
			candidate = fmt.Sprintf("%s-%d", candidate, attempt)
		}
	}
}

// derivedSlug reports whether slug is base with a collision suffix
func derivedSlug(slug, base string) bool {
	rest, ok := strings.CutPrefix(slug, base+"-")
	if !ok || rest == "" {
		return false
	}
	return strings.Trim(rest, "0123456789-") == ""
}

func (s *Service) slugTaken(slug, ownerID string) (bool, error) {
	exists, err := s.store.SlugExists(slug)
	if err != nil || !exists || ownerID == "" {
		return exists, err
	}
	owner, err := s.store.GetProjectBySlug(slug)
	if err != nil {
		return false, err
	}
	return owner.ID != ownerID, nil
}

func (s *Service) record(operation string, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = utils.CategorizeError(err)
		s.log.WithFields(logrus.Fields{"operation": operation, "error_type": result}).Warnf("Project %s failed: %v", operation, err)
	}
	s.metrics.IncProjectOperation(operation, result)
}

func categoryOrDefault(category string) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	return models.DefaultCategory
}

// Sections returns the stored section records of p as markdown sections
func Sections(p *models.Project) []markdown.Section {
	out := make([]markdown.Section, len(p.Sections))
	for i, rec := range p.Sections {
		out[i] = markdown.Section{Title: rec.Title, Level: rec.Level, Anchor: rec.Anchor, Order: rec.Order}
	}
	return out
}
