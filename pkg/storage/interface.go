package storage

import (
	"context"
	"time"

	"github.com/Sriram-PR/doc-site/pkg/models"
)

// ProjectStore persists projects and their section records
type ProjectStore interface {
	// CreateProject stores a new project. Fails with utils.ErrConflict if the slug is taken.
	CreateProject(p *models.Project) error

	// GetProject retrieves a project by ID. Missing projects return utils.ErrNotFound.
	GetProject(id string) (*models.Project, error)

	// GetProjectBySlug retrieves a project by slug. Missing projects return utils.ErrNotFound.
	GetProjectBySlug(slug string) (*models.Project, error)

	// ListProjects returns every project, most recently updated first
	ListProjects() ([]*models.Project, error)

	// SlugExists reports whether any project currently owns slug
	SlugExists(slug string) (bool, error)

	// SaveProject overwrites an existing project. When the slug changed,
	// previousSlug is released and the new slug claimed in the same transaction.
	SaveProject(p *models.Project, previousSlug string) error

	// DeleteProject removes the project owning slug
	DeleteProject(slug string) error
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// CountProjects returns the number of stored projects
	CountProjects() (int, error)

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// Store combines all store interfaces for components that need full access
type Store interface {
	ProjectStore
	StoreAdmin
}
