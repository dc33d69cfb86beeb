package state

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

func TestNewState(t *testing.T) {
	s := NewState()

	if s.Files == nil {
		t.Error("Files map should be initialized")
	}
	if s.IDMap == nil {
		t.Error("IDMap should be initialized")
	}
	if len(s.Files) != 0 || len(s.IDMap) != 0 {
		t.Error("New state should be empty")
	}
}

func TestSaveAndLoad(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")

	state := NewState()
	state.Files["notes.org"] = &FileState{
		MTime:  123456789,
		Hash:   "sha256:abc123",
		Output: "public/notes.html",
		Format: "html",
	}
	state.IDMap["uuid-123"] = "notes"

	if err := state.Save(statePath); err != nil {
		t.Fatalf("Failed to save state: %v", err)
	}

	loaded, err := Load(statePath)
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}

	fileState := loaded.Files["notes.org"]
	if fileState == nil {
		t.Fatal("File state not found")
	}
	if *fileState != *state.Files["notes.org"] {
		t.Errorf("File state mismatch: got %+v, want %+v", *fileState, *state.Files["notes.org"])
	}
	if loaded.IDMap["uuid-123"] != "notes" {
		t.Errorf("IDMap mismatch: got %s, want notes", loaded.IDMap["uuid-123"])
	}
}

func TestLoadNonExistent(t *testing.T) {
	state, err := Load(filepath.Join(t.TempDir(), "nonexistent.json"))
	if err != nil {
		t.Fatalf("Load should not error on missing file: %v", err)
	}
	if state == nil || len(state.Files) != 0 {
		t.Error("State should be empty")
	}
}

func TestLoadCorrupt(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(statePath, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(statePath); err == nil {
		t.Error("Load should fail on a corrupt state file")
	}
}

func TestLoadNullMaps(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(statePath, []byte(`{"files": null}`), 0644); err != nil {
		t.Fatal(err)
	}
	state, err := Load(statePath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state.Files == nil || state.IDMap == nil {
		t.Error("Maps should be initialized after load")
	}
}

func TestComputeHash(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.org")

	if err := os.WriteFile(testFile, []byte("* Hello"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	hash, err := ComputeHash(testFile)
	if err != nil {
		t.Fatalf("ComputeHash failed: %v", err)
	}
	if len(hash) < 7 || hash[:7] != "sha256:" {
		t.Errorf("Hash should start with 'sha256:', got: %s", hash)
	}

	hash2, err := ComputeHash(testFile)
	if err != nil {
		t.Fatalf("Second ComputeHash failed: %v", err)
	}
	if hash != hash2 {
		t.Error("Hash should be deterministic")
	}

	if err := os.WriteFile(testFile, []byte("* Different"), 0644); err != nil {
		t.Fatalf("Failed to update test file: %v", err)
	}
	hash3, err := ComputeHash(testFile)
	if err != nil {
		t.Fatalf("Third ComputeHash failed: %v", err)
	}
	if hash == hash3 {
		t.Error("Hash should change when content changes")
	}
}

func TestHasChanged(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.org")

	if err := os.WriteFile(testFile, []byte("Initial content"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	state := NewState()

	changed, err := state.HasChanged(testFile)
	if err != nil {
		t.Fatalf("HasChanged failed: %v", err)
	}
	if !changed {
		t.Error("New file should be marked as changed")
	}

	if err := state.Update(testFile, "out.html", "html"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	changed, err = state.HasChanged(testFile)
	if err != nil {
		t.Fatalf("HasChanged failed: %v", err)
	}
	if changed {
		t.Error("Unchanged file should not be marked as changed")
	}

	// Touch file (change mtime but not content)
	later := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(testFile, later, later); err != nil {
		t.Fatalf("Failed to touch file: %v", err)
	}

	changed, err = state.HasChanged(testFile)
	if err != nil {
		t.Fatalf("HasChanged failed after touch: %v", err)
	}
	if changed {
		t.Error("File with only mtime change should not be marked as changed")
	}

	if err := os.WriteFile(testFile, []byte("New content"), 0644); err != nil {
		t.Fatalf("Failed to update file: %v", err)
	}
	evenLater := later.Add(2 * time.Second)
	if err := os.Chtimes(testFile, evenLater, evenLater); err != nil {
		t.Fatalf("Failed to touch file: %v", err)
	}

	changed, err = state.HasChanged(testFile)
	if err != nil {
		t.Fatalf("HasChanged failed after content change: %v", err)
	}
	if !changed {
		t.Error("File with content change should be marked as changed")
	}

	if _, err := state.HasChanged(filepath.Join(t.TempDir(), "missing.org")); err == nil {
		t.Error("HasChanged should fail for a missing file")
	}
}

func TestNeedsRender(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "a.org")
	output := filepath.Join(dir, "a.html")

	if err := os.WriteFile(source, []byte("* A"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(output, []byte("<h1>A</h1>"), 0644); err != nil {
		t.Fatal(err)
	}

	state := NewState()
	if err := state.Update(source, output, "html"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	tests := []struct {
		name   string
		output string
		format string
		setup  func()
		want   bool
	}{
		{name: "up to date", output: output, format: "html", want: false},
		{name: "format changed", output: output, format: "md", want: true},
		{name: "output moved", output: filepath.Join(dir, "b.html"), format: "html", want: true},
		{
			name:   "output deleted",
			output: output,
			format: "html",
			setup: func() {
				if err := os.Remove(output); err != nil {
					t.Fatal(err)
				}
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			got, err := state.NeedsRender(source, tt.output, tt.format)
			if err != nil {
				t.Fatalf("NeedsRender failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("NeedsRender() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.org")

	if err := os.WriteFile(testFile, []byte("Test"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	state := NewState()
	if err := state.Update(testFile, "test.md", "md"); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fileState := state.Files[testFile]
	if fileState == nil {
		t.Fatal("File state not found after update")
	}
	if fileState.MTime == 0 {
		t.Error("MTime should be set")
	}
	if fileState.Hash == "" {
		t.Error("Hash should be set")
	}
	if fileState.Output != "test.md" || fileState.Format != "md" {
		t.Errorf("Output/format mismatch: got %s/%s", fileState.Output, fileState.Format)
	}

	if err := state.Update(filepath.Join(t.TempDir(), "missing.org"), "", ""); err == nil {
		t.Error("Update should fail for a missing file")
	}
}

func TestPrune(t *testing.T) {
	state := NewState()
	for _, p := range []string{"a.org", "b.org", "c.org"} {
		state.Files[p] = &FileState{Hash: "sha256:" + p}
	}

	removed := state.Prune(map[string]bool{"b.org": true})
	sort.Strings(removed)

	if len(removed) != 2 || removed[0] != "a.org" || removed[1] != "c.org" {
		t.Errorf("Prune removed %v, want [a.org c.org]", removed)
	}
	if len(state.Files) != 1 || state.Files["b.org"] == nil {
		t.Errorf("Prune left %v", state.Files)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "nested", "dir", "state.json")

	state := NewState()
	state.Files["test.org"] = &FileState{MTime: 123, Hash: "sha256:test"}

	if err := state.Save(statePath); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := os.Stat(statePath); os.IsNotExist(err) {
		t.Error("State file was not created")
	}
}
