package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/Sriram-PR/doc-site/pkg/importer"
	"github.com/Sriram-PR/doc-site/pkg/lint"
	"github.com/Sriram-PR/doc-site/pkg/markdown"
	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/project"
	"github.com/Sriram-PR/doc-site/pkg/search"
)

const projectNotFound = "Project not found"

type createProjectRequest struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Slug        string `json:"slug"`
}

type updateProjectRequest struct {
	Name        string  `json:"name"`
	Content     string  `json:"content"`
	Description *string `json:"description"`
	Category    string  `json:"category"`
}

type generateDocsRequest struct {
	Content     string `json:"content"`
	ProjectName string `json:"projectName"`
}

type renderRequest struct {
	Content string `json:"content"`
}

// renderResponse is the live preview of unsaved content
type renderResponse struct {
	Nodes     []markdown.Node         `json:"nodes"`
	Sections  []markdown.Section      `json:"sections"`
	Outline   []*markdown.OutlineNode `json:"outline"`
	HTML      string                  `json:"html"`
	WordCount int                     `json:"wordCount"`
	ReadTime  int                     `json:"readTime"`
	Warnings  []lint.Diagnostic       `json:"warnings"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		s.fail(w, r, err, "Invalid request body", "")
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "Name and content are required", "")
		return
	}

	p, err := s.projects.Create(project.CreateInput{
		Name:        req.Name,
		Content:     req.Content,
		Description: req.Description,
		Category:    req.Category,
		Slug:        req.Slug,
	})
	if err != nil {
		s.fail(w, r, err, "Failed to create project", projectNotFound)
		return
	}
	writeData(w, http.StatusCreated, p)
}

// handleListProjects returns full projects with ordered sections, newest
// first. ?summary=true drops content and sections; ?category= filters.
func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List()
	if err != nil {
		s.fail(w, r, err, "Failed to fetch projects", projectNotFound)
		return
	}

	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	if category != "" {
		filtered := projects[:0]
		for _, p := range projects {
			if strings.EqualFold(p.Category, category) {
				filtered = append(filtered, p)
			}
		}
		projects = filtered
	}

	if summary, _ := strconv.ParseBool(q.Get("summary")); summary {
		summaries := make([]models.ProjectSummary, 0, len(projects))
		for _, p := range projects {
			summaries = append(summaries, p.Summary())
		}
		writeData(w, http.StatusOK, summaries)
		return
	}
	if projects == nil {
		projects = []*models.Project{}
	}
	writeData(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.PathValue("slug"))
	if err != nil {
		s.fail(w, r, err, "Failed to fetch project", projectNotFound)
		return
	}
	writeData(w, http.StatusOK, p)
}

// handleUpdateProject replaces name, content, description, and category.
// An empty category resets to the default.
func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var req updateProjectRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		s.fail(w, r, err, "Invalid request body", "")
		return
	}
	name := strings.TrimSpace(req.Name)
	content := strings.TrimSpace(req.Content)
	if name == "" || req.Content == "" {
		writeError(w, http.StatusBadRequest, "Name and content are required", "")
		return
	}
	if content == "" {
		writeError(w, http.StatusBadRequest, "Content cannot be empty", "")
		return
	}

	description := ""
	if req.Description != nil {
		description = strings.TrimSpace(*req.Description)
	}
	category := models.DefaultCategory
	if c := strings.TrimSpace(req.Category); c != "" {
		category = c
	}

	p, err := s.projects.Update(r.PathValue("slug"), project.UpdateInput{
		Name:        &name,
		Content:     &content,
		Description: &description,
		Category:    &category,
	})
	if err != nil {
		s.fail(w, r, err, "Failed to update project", projectNotFound)
		return
	}
	writeData(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	p, err := s.projects.Get(slug)
	if err != nil {
		s.fail(w, r, err, "Failed to delete project", projectNotFound)
		return
	}
	if err := s.projects.Delete(slug); err != nil {
		s.fail(w, r, err, "Failed to delete project", projectNotFound)
		return
	}
	s.index.Forget(p.ID)
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Project deleted successfully"})
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.PathValue("slug"))
	if err != nil {
		s.fail(w, r, err, "Failed to fetch project", projectNotFound)
		return
	}
	outline := markdown.BuildOutline(project.Sections(p))
	if compact, _ := strconv.ParseBool(r.URL.Query().Get("compact")); compact {
		outline = markdown.CompactOutline(outline)
	}
	writeData(w, http.StatusOK, map[string]any{
		"slug":    p.Slug,
		"name":    p.Name,
		"outline": outline,
	})
}

func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.PathValue("slug"))
	if err != nil {
		s.fail(w, r, err, "Failed to fetch project", projectNotFound)
		return
	}
	diags := lint.Diagnose(p.Content)
	if diags == nil {
		diags = []lint.Diagnostic{}
	}
	writeData(w, http.StatusOK, map[string]any{
		"slug":        p.Slug,
		"diagnostics": diags,
		"hasWarnings": lint.HasWarnings(diags),
	})
}

func (s *Server) handleGenerateDocs(w http.ResponseWriter, r *http.Request) {
	var req generateDocsRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		s.fail(w, r, err, "Invalid request body", "")
		return
	}
	if req.Content == "" || strings.TrimSpace(req.ProjectName) == "" {
		writeError(w, http.StatusBadRequest, "Content and project name are required", "")
		return
	}

	preview, err := s.projects.Generate(req.ProjectName, req.Content)
	if err != nil {
		s.fail(w, r, err, "Failed to generate documentation", projectNotFound)
		return
	}
	writeData(w, http.StatusOK, preview)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		s.fail(w, r, err, "Invalid request body", "")
		return
	}

	doc := s.projects.Parse(req.Content)
	warnings := lint.Diagnose(req.Content)
	if warnings == nil {
		warnings = []lint.Diagnostic{}
	}
	sections := doc.Sections
	if sections == nil {
		sections = []markdown.Section{}
	}
	writeData(w, http.StatusOK, renderResponse{
		Nodes:     markdown.ToNodes(doc.Blocks),
		Sections:  sections,
		Outline:   markdown.BuildOutline(sections),
		HTML:      markdown.RenderHTML(doc.Blocks),
		WordCount: markdown.WordCount(req.Content),
		ReadTime:  s.projects.ReadTime(req.Content),
		Warnings:  warnings,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "Search query is required", "")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	results, err := s.search(query, q.Get("project"), limit)
	if err != nil {
		s.fail(w, r, err, "Search failed", projectNotFound)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

// search runs query over every project, or over the project owning slug
func (s *Server) search(query, slug string, limit int) ([]search.Result, error) {
	var projects []*models.Project
	if slug = strings.TrimSpace(slug); slug != "" {
		p, err := s.projects.Get(slug)
		if err != nil {
			return nil, err
		}
		projects = []*models.Project{p}
	} else {
		var err error
		if projects, err = s.projects.List(); err != nil {
			return nil, err
		}
	}

	results, err := s.index.Search(projects, query, search.Options{MaxResults: limit})
	if results == nil && err == nil {
		results = []search.Result{}
	}
	return results, err
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if s.importer == nil || s.jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "Import is not enabled", "")
		return
	}
	var req importer.Request
	if err := decodeJSON(w, r, s.cfg.MaxBodyBytes, &req); err != nil {
		s.fail(w, r, err, "Invalid request body", "")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "URL is required", "")
		return
	}

	key, err := importer.NormalizeURL(req.URL)
	if err != nil {
		s.fail(w, r, err, "Invalid URL", "")
		return
	}

	job, created := s.jobs.Start(key, func(ctx context.Context) (*models.Project, error) {
		return s.importer.Import(ctx, s.projects, req)
	})
	status := http.StatusAccepted
	if !created {
		status = http.StatusOK
	}
	writeData(w, status, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "Import is not enabled", "")
		return
	}
	writeData(w, http.StatusOK, s.jobs.List())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "Import is not enabled", "")
		return
	}
	job, ok := s.jobs.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found", "")
		return
	}
	writeData(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	if s.jobs == nil {
		writeError(w, http.StatusServiceUnavailable, "Import is not enabled", "")
		return
	}
	id := r.PathValue("id")
	if !s.jobs.Cancel(id) {
		if _, ok := s.jobs.Get(id); !ok {
			writeError(w, http.StatusNotFound, "Job not found", "")
			return
		}
		writeError(w, http.StatusConflict, "Job already finished", "")
		return
	}
	job, _ := s.jobs.Get(id)
	writeData(w, http.StatusOK, job)
}
