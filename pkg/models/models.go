package models

import "time"

// DefaultCategory is assigned when a project is saved without one
const DefaultCategory = "general"

// Project is a stored markdown document together with its derived section index
type Project struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Slug        string          `json:"slug" yaml:"slug"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Category    string          `json:"category" yaml:"category"`
	Content     string          `json:"content" yaml:"content"`
	WordCount   int             `json:"wordCount" yaml:"word_count"`
	ReadTime    int             `json:"readTime" yaml:"read_time"`                // Minutes, rounded up
	Revision    int             `json:"revision" yaml:"revision"`                 // Bumped on every content change
	Source      string          `json:"source,omitempty" yaml:"source,omitempty"` // Origin URL or file path for imported/synced projects
	CreatedAt   time.Time       `json:"createdAt" yaml:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" yaml:"updated_at"`
	Sections    []SectionRecord `json:"sections" yaml:"sections"`
}

// SectionRecord is a persisted heading of a project, ordered by Order
type SectionRecord struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title" yaml:"title"`
	Level  int    `json:"level" yaml:"level"`
	Anchor string `json:"anchor" yaml:"anchor"`
	Order  int    `json:"order" yaml:"order"`
}

// ProjectSummary is the list view of a project without its content
type ProjectSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category"`
	WordCount    int       `json:"wordCount"`
	ReadTime     int       `json:"readTime"`
	SectionCount int       `json:"sectionCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary returns the list view of p
func (p *Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Category:     p.Category,
		WordCount:    p.WordCount,
		ReadTime:     p.ReadTime,
		SectionCount: len(p.Sections),
		UpdatedAt:    p.UpdatedAt,
	}
}

// ExportMetadata is the YAML document written by the export endpoint
type ExportMetadata struct {
	Name        string          `yaml:"name"`
	Slug        string          `yaml:"slug"`
	Description string          `yaml:"description,omitempty"`
	Category    string          `yaml:"category"`
	WordCount   int             `yaml:"word_count"`
	ReadTime    int             `yaml:"read_time_minutes"`
	Revision    int             `yaml:"revision"`
	ExportedAt  time.Time       `yaml:"exported_at"`
	Sections    []SectionRecord `yaml:"sections"`
}
