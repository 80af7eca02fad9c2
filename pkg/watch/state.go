package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Sriram-PR/doc-site/pkg/utils"
)

// FileState records the last synced version of one markdown file
type FileState struct {
	Hash      string    `json:"hash"` // SHA-256 of the raw file, front matter included
	Slug      string    `json:"slug"`
	ProjectID string    `json:"project_id"`
	SyncedAt  time.Time `json:"synced_at"`
}

// SyncState is the persisted state of a synced directory, keyed by slash-separated relative path
type SyncState struct {
	Files     map[string]FileState `json:"files"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// StateManager loads and saves SyncState as JSON
type StateManager struct {
	statePath string
	state     SyncState
	mu        sync.RWMutex
}

// NewStateManager creates a state manager persisting to statePath
func NewStateManager(statePath string) *StateManager {
	return &StateManager{
		statePath: statePath,
		state:     SyncState{Files: make(map[string]FileState)},
	}
}

// Load reads the state file. A missing file starts an empty state.
func (m *StateManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = SyncState{Files: make(map[string]FileState)}
			return nil
		}
		return fmt.Errorf("%w: reading sync state: %w", utils.ErrFilesystem, err)
	}

	var state SyncState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("%w: sync state is not valid JSON: %w", utils.ErrParsing, err)
	}
	if state.Files == nil {
		state.Files = make(map[string]FileState)
	}
	m.state = state
	return nil
}

// Save writes the state file through a temporary file and rename.
func (m *StateManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UpdatedAt = time.Now()

	if err := os.MkdirAll(filepath.Dir(m.statePath), 0755); err != nil {
		return fmt.Errorf("%w: creating state directory: %w", utils.ErrFilesystem, err)
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding sync state JSON: %w", utils.ErrParsing, err)
	}

	tmp := m.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: writing sync state: %w", utils.ErrFilesystem, err)
	}
	if err := os.Rename(tmp, m.statePath); err != nil {
		return fmt.Errorf("%w: replacing sync state: %w", utils.ErrFilesystem, err)
	}
	return nil
}

// Get returns the state of a relative path
func (m *StateManager) Get(path string) (FileState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fs, ok := m.state.Files[path]
	return fs, ok
}

// Set records the state of a relative path
func (m *StateManager) Set(path string, fs FileState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Files[path] = fs
}

// Delete forgets a relative path
func (m *StateManager) Delete(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.Files, path)
}

// Paths returns every tracked path in sorted order
func (m *StateManager) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.state.Files))
	for p := range m.state.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
