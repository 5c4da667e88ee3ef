package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWorkspaceLifecycle(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root, "")
	if err != nil {
		t.Fatalf("NewWorkspace: %v", err)
	}
	if filepath.Dir(ws.Dir) != root {
		t.Fatalf("workspace %s not under %s", ws.Dir, root)
	}

	path, err := ws.SaveClip("My Song.MP3", strings.NewReader("audio"))
	if err != nil {
		t.Fatalf("SaveClip: %v", err)
	}
	if filepath.Base(path) != "clip.mp3" {
		t.Fatalf("unexpected clip name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "audio" {
		t.Fatalf("clip contents not saved: %q %v", data, err)
	}

	if err := ws.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := ws.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := os.Stat(ws.Dir); !os.IsNotExist(err) {
		t.Fatal("workspace directory should be removed")
	}
}

func TestWorkspacesDoNotCollide(t *testing.T) {
	root := t.TempDir()
	a, err := NewWorkspace(root, "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewWorkspace(root, "")
	if err != nil {
		t.Fatal(err)
	}
	if a.ClipPath("same.mp3") == b.ClipPath("same.mp3") {
		t.Fatal("workspaces for the same filename must not share paths")
	}
}

func TestWorkspaceRejectsPathIDs(t *testing.T) {
	if _, err := NewWorkspace(t.TempDir(), "../escape"); err == nil {
		t.Fatal("expected non-uuid id to be rejected")
	}
}
