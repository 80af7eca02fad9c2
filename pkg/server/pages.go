package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"github.com/Sriram-PR/doc-site/pkg/markdown"
	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/search"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageNames = []string{"index", "page", "search"}

// pageData is the view model shared by every page template
type pageData struct {
	Site    string
	Title   string
	Print   bool // Standalone print layout without navigation
	Query   string
	Project *models.Project
	Outline []*markdown.OutlineNode
	Body    template.HTML
	Groups  []categoryGroup
	Results []search.Result
}

type categoryGroup struct {
	Category string
	Projects []models.ProjectSummary
}

type pageRenderer struct {
	site      string
	templates map[string]*template.Template
}

func newPageRenderer(site string) (*pageRenderer, error) {
	if site == "" {
		site = "Documentation"
	}
	pr := &pageRenderer{site: site, templates: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		pr.templates[name] = tmpl
	}
	return pr, nil
}

// render executes page into a buffer so template errors never produce a partial response
func (pr *pageRenderer) render(name string, data pageData) ([]byte, error) {
	data.Site = pr.site
	var buf bytes.Buffer
	if err := pr.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	body, err := s.pages.render(name, data)
	if err != nil {
		s.log.WithField("page", name).Errorf("Rendering page failed: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

// pageError answers page routes with plain text; 404 for missing projects
func (s *Server) pageError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.WithField("path", r.URL.Path).Errorf("Page request failed: %v", err)
		http.Error(w, "Internal server error", status)
		return
	}
	if status == http.StatusNotFound {
		http.Error(w, projectNotFound, status)
		return
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) handleDocsIndex(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List()
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	s.writePage(w, r, "index", pageData{Title: "Projects", Groups: groupByCategory(projects)})
}

func (s *Server) handleDocsPage(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.PathValue("slug"))
	if err != nil {
		s.pageError(w, r, err)
		return
	}
	s.writePage(w, r, "page", s.documentPage(p, false))
}

// documentPage renders p's content with a table of contents built from the
// anchors the body was rendered with.
func (s *Server) documentPage(p *models.Project, printLayout bool) pageData {
	doc := s.projects.Parse(p.Content)
	return pageData{
		Title:   p.Name,
		Print:   printLayout,
		Project: p,
		Outline: markdown.BuildOutline(doc.Sections),
		Body:    template.HTML(markdown.RenderHTML(doc.Blocks)),
	}
}

func (s *Server) handleDocsSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := pageData{Title: "Search", Query: strings.TrimSpace(q.Get("q"))}

	if slug := strings.TrimSpace(q.Get("project")); slug != "" {
		p, err := s.projects.Get(slug)
		if err != nil {
			s.pageError(w, r, err)
			return
		}
		data.Project = p
	}

	if data.Query != "" {
		slug := ""
		if data.Project != nil {
			slug = data.Project.Slug
		}
		results, err := s.search(data.Query, slug, 0)
		if err != nil {
			s.pageError(w, r, err)
			return
		}
		data.Results = results
	}
	s.writePage(w, r, "search", data)
}

func groupByCategory(projects []*models.Project) []categoryGroup {
	byCategory := make(map[string][]models.ProjectSummary)
	for _, p := range projects {
		byCategory[p.Category] = append(byCategory[p.Category], p.Summary())
	}

	groups := make([]categoryGroup, 0, len(byCategory))
	for category, summaries := range byCategory {
		sort.Slice(summaries, func(i, j int) bool {
			return strings.ToLower(summaries[i].Name) < strings.ToLower(summaries[j].Name)
		})
		groups = append(groups, categoryGroup{Category: category, Projects: summaries})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Category < groups[j].Category })
	return groups
}
