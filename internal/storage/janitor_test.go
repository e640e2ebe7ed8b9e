package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJanitor_Sweep(t *testing.T) {
	w := newTestWorkspace(t)
	oldFile := filepath.Join(w.UploadDir(), "old.pdf")
	newFile := filepath.Join(w.UploadDir(), "new.pdf")
	oldDir := filepath.Join(w.OutputDir(), "stale-request")
	for _, p := range []string{oldFile, newFile} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(oldDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(oldDir, "out_UPPER.pdf"), []byte("y"), 0644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-2 * time.Hour)
	for _, p := range []string{oldFile, oldDir} {
		if err := os.Chtimes(p, past, past); err != nil {
			t.Fatal(err)
		}
	}

	j := NewJanitor(w, time.Hour, time.Minute)
	if n := j.Sweep(); n != 2 {
		t.Errorf("removed %d entries, want 2", n)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("old upload should be removed")
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("stale request dir should be removed")
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Errorf("fresh upload removed: %v", err)
	}
}

func TestJanitor_SweepMissingDirs(t *testing.T) {
	root := t.TempDir()
	w := NewWorkspace(filepath.Join(root, "nope-in"), filepath.Join(root, "nope-out"))
	if n := NewJanitor(w, time.Hour, time.Minute).Sweep(); n != 0 {
		t.Errorf("removed %d entries from missing dirs", n)
	}
}

func TestJanitor_WithClock(t *testing.T) {
	w := newTestWorkspace(t)
	p := filepath.Join(w.OutputDir(), "fresh")
	if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	future := func() time.Time { return time.Now().Add(3 * time.Hour) }
	if n := NewJanitor(w, time.Hour, time.Minute, WithClock(future)).Sweep(); n != 1 {
		t.Errorf("removed %d entries, want 1", n)
	}
}

func TestJanitor_RunStops(t *testing.T) {
	w := newTestWorkspace(t)
	j := NewJanitor(w, time.Hour, 10*time.Millisecond)
	done := make(chan struct{})
	go func() {
		j.Run(context.Background())
		close(done)
	}()
	j.Stop()
	j.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}

	ctx, cancel := context.WithCancel(context.Background())
	j2 := NewJanitor(w, time.Hour, 10*time.Millisecond)
	done2 := make(chan struct{})
	go func() {
		j2.Run(ctx)
		close(done2)
	}()
	cancel()
	select {
	case <-done2:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
