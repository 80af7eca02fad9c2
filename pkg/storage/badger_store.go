package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/doc-site/pkg/log"
	"github.com/Sriram-PR/doc-site/pkg/models"
	"github.com/Sriram-PR/doc-site/pkg/utils"
)

const (
	projectKeyPrefix = "project:" // project:<id> -> JSON Project
	slugKeyPrefix    = "slug:"    // slug:<slug> -> project id
)

// Options configures a BadgerStore
type Options struct {
	Dir            string
	InMemory       bool    // Ignore Dir and keep everything in memory (tests, previews)
	GCDiscardRatio float64 // Passed to RunValueLogGC; defaults to 0.5
}

// BadgerStore implements the Store interface using BadgerDB
type BadgerStore struct {
	db           *badger.DB
	log          *logrus.Entry
	discardRatio float64
	projectCount atomic.Int64 // Cached count for O(1) CountProjects
}

// NewBadgerStore opens (or creates) the project database
func NewBadgerStore(opts Options, logger *logrus.Entry) (*BadgerStore, error) {
	store := &BadgerStore{
		log:          logger,
		discardRatio: opts.GCDiscardRatio,
	}
	if store.discardRatio <= 0 || store.discardRatio >= 1 {
		store.discardRatio = 0.5
	}

	var badgerOpts badger.Options
	if opts.InMemory {
		logger.Info("Initializing in-memory project database")
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, fmt.Errorf("%w: storage directory is empty", utils.ErrConfigValidation)
		}
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("%w: cannot create storage directory %s: %w", utils.ErrFilesystem, opts.Dir, err)
		}
		logger.Infof("Initializing project database at: %s", opts.Dir)
		badgerOpts = badger.DefaultOptions(opts.Dir)
	}

	badgerOpts = badgerOpts.
		WithLogger(log.NewBadgerLogrusAdapter(logger)).
		WithNumVersionsToKeep(1) // Only the latest revision of each record matters

	var err error
	store.db, err = badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open badger database: %w", utils.ErrDatabase, err)
	}

	count, err := store.countPrefix(projectKeyPrefix)
	if err != nil {
		logger.Warnf("Failed to count existing projects: %v", err)
	} else {
		store.projectCount.Store(int64(count))
	}

	logger.WithField("projects", count).Info("Project database initialized.")
	return store, nil
}

// countPrefix performs a key-only scan (used only during initialization).
func (s *BadgerStore) countPrefix(prefix string) (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

const maxConflictRetries = 10

// dbUpdate wraps db.Update with a retry loop for BadgerDB transaction conflicts.
// Concurrent MVCC transactions on overlapping keys can return badger.ErrConflict;
// these resolve in microseconds, so a tight retry loop is sufficient.
func (s *BadgerStore) dbUpdate(fn func(txn *badger.Txn) error) error {
	for i := range maxConflictRetries {
		err := s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		s.log.Debugf("BadgerDB transaction conflict (attempt %d/%d), retrying", i+1, maxConflictRetries)
	}
	return fmt.Errorf("%w: transaction conflict not resolved after %d retries", utils.ErrDatabase, maxConflictRetries)
}

// wrapDBErr tags raw badger errors while passing through already-categorized ones
func wrapDBErr(err error, format string, args ...any) error {
	if errors.Is(err, utils.ErrNotFound) || errors.Is(err, utils.ErrConflict) ||
		errors.Is(err, utils.ErrParsing) || errors.Is(err, utils.ErrDatabase) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", utils.ErrDatabase, fmt.Sprintf(format, args...), err)
}

func projectKey(id string) []byte { return []byte(projectKeyPrefix + id) }
func slugKey(slug string) []byte  { return []byte(slugKeyPrefix + slug) }

// lookupSlug resolves slug to a project id inside txn
func lookupSlug(txn *badger.Txn, slug string) (string, error) {
	item, err := txn.Get(slugKey(slug))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", fmt.Errorf("%w: project with slug '%s'", utils.ErrNotFound, slug)
	}
	if err != nil {
		return "", err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

// readProject loads and decodes the project stored under id inside txn
func readProject(txn *badger.Txn, id string) (*models.Project, error) {
	item, err := txn.Get(projectKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: project '%s'", utils.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var p models.Project
	err = item.Value(func(val []byte) error {
		if errJSON := json.Unmarshal(val, &p); errJSON != nil {
			return fmt.Errorf("%w: failed to unmarshal JSON for project '%s': %w", utils.ErrParsing, id, errJSON)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func writeProject(txn *badger.Txn, p *models.Project) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal JSON for project '%s': %w", utils.ErrParsing, p.ID, err)
	}
	return txn.SetEntry(badger.NewEntry(projectKey(p.ID), data))
}

// CreateProject implements the ProjectStore interface
func (s *BadgerStore) CreateProject(p *models.Project) error {
	if p.ID == "" || p.Slug == "" {
		return fmt.Errorf("%w: project needs an id and a slug", utils.ErrInvalidInput)
	}

	err := s.dbUpdate(func(txn *badger.Txn) error {
		if _, errGet := txn.Get(slugKey(p.Slug)); errGet == nil {
			return fmt.Errorf("%w: slug '%s'", utils.ErrConflict, p.Slug)
		} else if !errors.Is(errGet, badger.ErrKeyNotFound) {
			return errGet
		}
		if _, errGet := txn.Get(projectKey(p.ID)); errGet == nil {
			return fmt.Errorf("%w: project id '%s'", utils.ErrConflict, p.ID)
		} else if !errors.Is(errGet, badger.ErrKeyNotFound) {
			return errGet
		}
		if errSet := writeProject(txn, p); errSet != nil {
			return errSet
		}
		return txn.SetEntry(badger.NewEntry(slugKey(p.Slug), []byte(p.ID)))
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"slug": p.Slug, "error_type": utils.CategorizeError(err)}).
			Warnf("CreateProject failed: %v", err)
		return wrapDBErr(err, "creating project '%s'", p.Slug)
	}

	s.projectCount.Add(1)
	s.log.WithField("slug", p.Slug).Debug("Project created")
	return nil
}

// GetProject implements the ProjectStore interface
func (s *BadgerStore) GetProject(id string) (*models.Project, error) {
	var p *models.Project
	err := s.db.View(func(txn *badger.Txn) error {
		var errRead error
		p, errRead = readProject(txn, id)
		return errRead
	})
	if err != nil {
		return nil, wrapDBErr(err, "reading project '%s'", id)
	}
	return p, nil
}

// GetProjectBySlug implements the ProjectStore interface
func (s *BadgerStore) GetProjectBySlug(slug string) (*models.Project, error) {
	var p *models.Project
	err := s.db.View(func(txn *badger.Txn) error {
		id, errLookup := lookupSlug(txn, slug)
		if errLookup != nil {
			return errLookup
		}
		var errRead error
		p, errRead = readProject(txn, id)
		return errRead
	})
	if err != nil {
		return nil, wrapDBErr(err, "reading project by slug '%s'", slug)
	}
	return p, nil
}

// ListProjects implements the ProjectStore interface
func (s *BadgerStore) ListProjects() ([]*models.Project, error) {
	projects := []*models.Project{}
	scanErrors := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(projectKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			errValue := item.Value(func(val []byte) error {
				var p models.Project
				if errJSON := json.Unmarshal(val, &p); errJSON != nil {
					return errJSON
				}
				projects = append(projects, &p)
				return nil
			})
			if errValue != nil {
				s.log.Errorf("List scan: skipping undecodable record '%s': %v", string(item.Key()), errValue)
				scanErrors++
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapDBErr(err, "listing projects")
	}
	if scanErrors > 0 {
		s.log.Warnf("ListProjects skipped %d undecodable records", scanErrors)
	}

	sort.SliceStable(projects, func(i, j int) bool {
		if !projects[i].UpdatedAt.Equal(projects[j].UpdatedAt) {
			return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
		}
		return projects[i].Slug < projects[j].Slug
	})
	return projects, nil
}

// SlugExists implements the ProjectStore interface
func (s *BadgerStore) SlugExists(slug string) (bool, error) {
	exists := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, errGet := txn.Get(slugKey(slug))
		if errors.Is(errGet, badger.ErrKeyNotFound) {
			return nil
		}
		if errGet != nil {
			return errGet
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, wrapDBErr(err, "checking slug '%s'", slug)
	}
	return exists, nil
}

// SaveProject implements the ProjectStore interface
func (s *BadgerStore) SaveProject(p *models.Project, previousSlug string) error {
	if previousSlug == "" {
		previousSlug = p.Slug
	}

	err := s.dbUpdate(func(txn *badger.Txn) error {
		id, errLookup := lookupSlug(txn, previousSlug)
		if errLookup != nil {
			return errLookup
		}
		if id != p.ID {
			return fmt.Errorf("%w: slug '%s' belongs to another project", utils.ErrConflict, previousSlug)
		}

		if p.Slug != previousSlug {
			owner, errNew := lookupSlug(txn, p.Slug)
			switch {
			case errNew == nil && owner != p.ID:
				return fmt.Errorf("%w: slug '%s'", utils.ErrConflict, p.Slug)
			case errNew != nil && !errors.Is(errNew, utils.ErrNotFound):
				return errNew
			}
			if errDel := txn.Delete(slugKey(previousSlug)); errDel != nil {
				return errDel
			}
			if errSet := txn.SetEntry(badger.NewEntry(slugKey(p.Slug), []byte(p.ID))); errSet != nil {
				return errSet
			}
		}
		return writeProject(txn, p)
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{"slug": p.Slug, "previous_slug": previousSlug}).
			Warnf("SaveProject failed: %v", err)
		return wrapDBErr(err, "saving project '%s'", p.Slug)
	}

	s.log.WithField("slug", p.Slug).Debugf("Project saved (revision %d)", p.Revision)
	return nil
}

// DeleteProject implements the ProjectStore interface
func (s *BadgerStore) DeleteProject(slug string) error {
	err := s.dbUpdate(func(txn *badger.Txn) error {
		id, errLookup := lookupSlug(txn, slug)
		if errLookup != nil {
			return errLookup
		}
		if errDel := txn.Delete(projectKey(id)); errDel != nil {
			return errDel
		}
		return txn.Delete(slugKey(slug))
	})
	if err != nil {
		return wrapDBErr(err, "deleting project '%s'", slug)
	}

	s.projectCount.Add(-1)
	s.log.WithField("slug", slug).Debug("Project deleted")
	return nil
}

// CountProjects implements the StoreAdmin interface.
// Returns the cached count (O(1)) maintained on create and delete.
func (s *BadgerStore) CountProjects() (int, error) {
	return int(s.projectCount.Load()), nil
}

// RunGC runs BadgerDB's garbage collection periodically
func (s *BadgerStore) RunGC(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute // Default interval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("BadgerDB GC goroutine started.")

	for {
		select {
		case <-ticker.C:
			s.runGCCycle()
		case <-ctx.Done():
			s.log.Infof("Stopping BadgerDB garbage collection goroutine: %v", ctx.Err())
			return
		}
	}
}

// runGCCycle rewrites value log files until badger reports nothing left to reclaim
func (s *BadgerStore) runGCCycle() {
	if s.db == nil || s.db.IsClosed() {
		s.log.Debug("DB GC: Database is nil or closed, skipping GC cycle.")
		return
	}

	var err error
	rewrites := 0
	for {
		err = s.db.RunValueLogGC(s.discardRatio)
		if err != nil {
			break
		}
		rewrites++
	}

	switch {
	case errors.Is(err, badger.ErrNoRewrite):
		s.log.Debugf("BadgerDB GC finished after %d rewrite(s).", rewrites)
	case errors.Is(err, badger.ErrGCInMemoryMode):
		s.log.Debug("BadgerDB GC skipped for in-memory database.")
	case errors.Is(err, badger.ErrRejected):
		s.log.Debug("BadgerDB GC rejected (another GC running or DB closing).")
	default:
		s.log.Errorf("BadgerDB GC error: %v", err)
	}
}

// Close implements the StoreAdmin interface
func (s *BadgerStore) Close() error {
	if s.db != nil && !s.db.IsClosed() {
		s.log.Info("Closing project DB...")
		if err := s.db.Close(); err != nil {
			s.log.Errorf("Error closing project DB: %v", err)
			return err
		}
		s.log.Info("Project DB closed.")
		return nil
	}
	s.log.Debug("Project DB already closed or was not initialized.")
	return nil
}
