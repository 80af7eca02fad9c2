package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Sriram-PR/doc-site/pkg/importer"
	"github.com/Sriram-PR/doc-site/pkg/markdown"
	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/project"
	"github.com/Sriram-PR/doc-site/pkg/search"
	"github.com/Sriram-PR/doc-site/pkg/utils"
)

const (
	defaultMaxResults = 10
	maxMaxResults     = 100
)

// handleListProjects handles the list_projects tool
func (s *Server) handleListProjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := strings.TrimSpace(request.GetString("category", ""))

	projects, err := s.cfg.Projects.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
	}

	summaries := make([]models.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		summaries = append(summaries, p.Summary())
	}

	result := map[string]interface{}{
		"projects":       summaries,
		"total_projects": len(summaries),
	}
	if category != "" {
		result["category"] = category
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetProject handles the get_project tool
func (s *Server) handleGetProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug := request.GetString("slug", "")
	if slug == "" {
		return mcp.NewToolResultError("slug parameter is required"), nil
	}

	p, err := s.cfg.Projects.Get(slug)
	if err != nil {
		return projectError(slug, err), nil
	}

	result := map[string]interface{}{
		"slug":       p.Slug,
		"name":       p.Name,
		"category":   p.Category,
		"word_count": p.WordCount,
		"read_time":  p.ReadTime,
		"revision":   p.Revision,
		"updated_at": p.UpdatedAt.Format(time.RFC3339),
		"sections":   project.Sections(p),
	}
	if p.Description != "" {
		result["description"] = p.Description
	}
	if p.Source != "" {
		result["source"] = p.Source
	}

	if anchor := strings.TrimPrefix(request.GetString("section", ""), "#"); anchor != "" {
		doc := s.cfg.Projects.Parse(p.Content)
		text, ok := markdown.SectionText(p.Content, doc.Blocks, anchor)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("section '%s' not found in project '%s'", anchor, slug)), nil
		}
		result["section"] = anchor
		result["content"] = text
	} else {
		result["content"] = p.Content
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetOutline handles the get_outline tool
func (s *Server) handleGetOutline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug := request.GetString("slug", "")
	if slug == "" {
		return mcp.NewToolResultError("slug parameter is required"), nil
	}

	p, err := s.cfg.Projects.Get(slug)
	if err != nil {
		return projectError(slug, err), nil
	}

	outline := markdown.BuildOutline(project.Sections(p))
	if request.GetBool("compact", false) {
		outline = markdown.CompactOutline(outline)
	}

	var tree bytes.Buffer
	if err := markdown.WriteOutline(&tree, p.Name, outline); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format outline: %v", err)), nil
	}

	result := map[string]interface{}{
		"slug":    p.Slug,
		"name":    p.Name,
		"outline": outline,
		"tree":    tree.String(),
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleRenderMarkdown handles the render_markdown tool
func (s *Server) handleRenderMarkdown(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := request.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("content parameter is required"), nil
	}

	doc := s.cfg.Projects.Parse(content)
	result := map[string]interface{}{
		"sections":   doc.Sections,
		"word_count": markdown.WordCount(content),
		"read_time":  s.cfg.Projects.ReadTime(content),
	}

	switch format := request.GetString("format", "nodes"); format {
	case "nodes", "":
		result["nodes"] = markdown.ToNodes(doc.Blocks)
	case "html":
		result["html"] = markdown.RenderHTML(doc.Blocks)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format '%s' (supported: nodes, html)", format)), nil
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleSearchDocs handles the search_docs tool
func (s *Server) handleSearchDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(request.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	slug := request.GetString("project", "")
	maxResults := request.GetInt("max_results", defaultMaxResults)
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if maxResults > maxMaxResults {
		maxResults = maxMaxResults
	}

	var projects []*models.Project
	if slug != "" {
		p, err := s.cfg.Projects.Get(slug)
		if err != nil {
			return projectError(slug, err), nil
		}
		projects = []*models.Project{p}
	} else {
		var err error
		if projects, err = s.cfg.Projects.List(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list projects: %v", err)), nil
		}
	}

	results, err := s.cfg.Index.Search(projects, query, search.Options{MaxResults: maxResults})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if results == nil {
		results = []search.Result{}
	}

	response := map[string]interface{}{
		"query":         query,
		"results":       results,
		"total_matches": len(results),
	}
	if slug != "" {
		response["project"] = slug
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleImportURL handles the import_url tool
func (s *Server) handleImportURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL := strings.TrimSpace(request.GetString("url", ""))
	if rawURL == "" {
		return mcp.NewToolResultError("url parameter is required"), nil
	}
	if s.cfg.Importer == nil {
		return mcp.NewToolResultError("importing is not enabled on this server"), nil
	}

	key, err := importer.NormalizeURL(rawURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := importer.Request{
		URL:      rawURL,
		Name:     request.GetString("name", ""),
		Category: request.GetString("category", ""),
	}
	job, created := s.cfg.Jobs.Start(key, func(jobCtx context.Context) (*models.Project, error) {
		return s.cfg.Importer.Import(jobCtx, s.cfg.Projects, req)
	})

	if !created {
		result := map[string]interface{}{
			"status":  "already_running",
			"message": "An import is already in progress for this URL",
			"job_id":  job.ID,
			"url":     rawURL,
		}
		return mcp.NewToolResultText(formatJSON(result)), nil
	}

	result := map[string]interface{}{
		"status":  "started",
		"message": "Import started successfully",
		"job_id":  job.ID,
		"url":     rawURL,
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// handleGetJobStatus handles the get_job_status tool
func (s *Server) handleGetJobStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetString("job_id", "")
	if jobID == "" {
		return mcp.NewToolResultError("job_id parameter is required"), nil
	}

	job, ok := s.cfg.Jobs.Get(jobID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("job '%s' not found", jobID)), nil
	}

	result := map[string]interface{}{
		"job_id":     job.ID,
		"url":        job.URL,
		"status":     job.Status,
		"started_at": job.StartedAt.Format(time.RFC3339),
	}

	if job.CompletedAt != nil {
		result["completed_at"] = job.CompletedAt.Format(time.RFC3339)
		result["duration_seconds"] = job.CompletedAt.Sub(job.StartedAt).Seconds()
	}
	if job.ProjectSlug != "" {
		result["project_slug"] = job.ProjectSlug
	}
	if job.ErrorMessage != "" {
		result["error_message"] = job.ErrorMessage
		result["error_type"] = job.ErrorType
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

func projectError(slug string, err error) *mcp.CallToolResult {
	if errors.Is(err, utils.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("project '%s' not found", slug))
	}
	return mcp.NewToolResultError(fmt.Sprintf("failed to load project '%s': %v", slug, err))
}

// formatJSON formats data as indented JSON
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
