package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// Export formats accepted by /docs/{slug}/export
const (
	ExportMarkdown = "md"
	ExportHTML     = "html"
	ExportYAML     = "yaml"
)

// handleExport downloads a project as markdown, as a standalone print-ready
// HTML page, or as YAML metadata.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.PathValue("slug"))
	if err != nil {
		s.pageError(w, r, err)
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = ExportMarkdown
	}

	var body []byte
	var contentType string
	switch format {
	case ExportMarkdown:
		body, contentType = []byte(p.Content), "text/markdown; charset=utf-8"
	case ExportHTML:
		body, err = s.pages.render("page", s.documentPage(p, true))
		contentType = "text/html; charset=utf-8"
	case ExportYAML:
		body, err = yaml.Marshal(exportMetadata(p, time.Now().UTC()))
		contentType = "application/yaml; charset=utf-8"
	default:
		http.Error(w, fmt.Sprintf("Unsupported export format %q (use md, html, or yaml)", format), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{"slug": p.Slug, "format": format}).Errorf("Export failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// The print page opens in the browser; the others download
	disposition := "attachment"
	if format == ExportHTML {
		disposition = "inline"
	}
	filename := utils.SanitizeFilename(p.Slug) + "." + format
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, filename))
	_, _ = w.Write(body)
}

func exportMetadata(p *models.Project, exportedAt time.Time) models.ExportMetadata {
	return models.ExportMetadata{
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Category:    p.Category,
		WordCount:   p.WordCount,
		ReadTime:    p.ReadTime,
		Revision:    p.Revision,
		ExportedAt:  exportedAt,
		Sections:    p.Sections,
	}
}
