package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileState is what the last build recorded for one source file
type FileState struct {
	MTime  int64  `json:"mtime"`
	Hash   string `json:"hash"`
	Output string `json:"output"`
	Format string `json:"format"`
}

// State is the build cache
type State struct {
	Files map[string]*FileState `json:"files"`
	IDMap map[string]string     `json:"id_map"` // org id -> note name
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Files: make(map[string]*FileState),
		IDMap: make(map[string]string),
	}
}

// Load reads state from the state file
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state: %w", err)
	}

	if state.Files == nil {
		state.Files = make(map[string]*FileState)
	}
	if state.IDMap == nil {
		state.IDMap = make(map[string]string)
	}

	return &state, nil
}

// Save writes state to the state file
func (s *State) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	return nil
}

// ComputeHash computes SHA256 hash of a file
func ComputeHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", h.Sum(nil)), nil
}

// HasChanged checks if a file has changed since the last build
// Uses hybrid mtime + hash approach
func (s *State) HasChanged(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	fileState, exists := s.Files[path]
	if !exists {
		return true, nil
	}

	// Fast path: check mtime first
	if info.ModTime().Unix() == fileState.MTime {
		return false, nil
	}

	// mtime changed, compute hash to check for actual content changes
	hash, err := ComputeHash(path)
	if err != nil {
		return false, err
	}

	return hash != fileState.Hash, nil
}

// NeedsRender reports whether source must be rendered to output in
// format: the source changed, the output went missing, or the last build
// wrote somewhere else or in another format.
func (s *State) NeedsRender(source, output, format string) (bool, error) {
	changed, err := s.HasChanged(source)
	if err != nil || changed {
		return changed, err
	}

	fileState := s.Files[source]
	if fileState.Output != output || fileState.Format != format {
		return true, nil
	}
	if _, err := os.Stat(output); os.IsNotExist(err) {
		return true, nil
	}
	return false, nil
}

// Update records a successful render of source
func (s *State) Update(source, output, format string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}

	hash, err := ComputeHash(source)
	if err != nil {
		return err
	}

	s.Files[source] = &FileState{
		MTime:  info.ModTime().Unix(),
		Hash:   hash,
		Output: output,
		Format: format,
	}

	return nil
}

// Prune forgets sources that are no longer present and returns them
func (s *State) Prune(present map[string]bool) []string {
	var removed []string
	for path := range s.Files {
		if !present[path] {
			removed = append(removed, path)
			delete(s.Files, path)
		}
	}
	return removed
}
