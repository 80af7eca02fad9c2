package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watch runs SyncOnce, then re-syncs whenever files under the directory
// change. Bursts of events within the debounce window trigger one pass.
// It returns when ctx is cancelled.
func (s *Syncer) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := s.addTree(watcher, s.cfg.Dir); err != nil {
		return err
	}

	if _, err := s.SyncOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		s.log.Errorf("Initial sync failed: %v", err)
	}

	debounce := s.cfg.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	s.log.WithField("debounce", debounce).Info("Watching for changes")
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("Watcher shutting down...")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !s.relevant(watcher, event) {
				continue
			}
			s.log.WithFields(logrus.Fields{"file": event.Name, "op": event.Op.String()}).Debug("Change detected")
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
			pending = true

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Errorf("Watcher error: %v", err)

		case <-timer.C:
			pending = false
			if _, err := s.SyncOnce(ctx); err != nil && ctx.Err() == nil {
				s.log.Errorf("Sync failed: %v", err)
			}
		}
	}
}

// relevant filters events down to markdown files and new directories.
// Newly created directories are added to the watch list.
func (s *Syncer) relevant(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := s.addTree(watcher, event.Name); err != nil {
				s.log.Warnf("Failed to watch new directory %s: %v", event.Name, err)
			}
			return true
		}
	}

	rel, err := filepath.Rel(s.cfg.Dir, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if s.wanted(rel) {
		return true
	}
	// A removed or renamed directory shows up without an extension
	return (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) && filepath.Ext(rel) == ""
}

// addTree watches root and every non-hidden directory below it; fsnotify
// watches are not recursive.
func (s *Syncer) addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path != root {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", path, err)
		}
		return nil
	})
}
