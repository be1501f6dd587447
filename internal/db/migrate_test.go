package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPendingFilesOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_reminders.up.sql", "0001_init.up.sql", "0001_init.down.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("-- noop"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "9999_dir.up.sql"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := pendingFiles(dir)
	if err != nil {
		t.Fatalf("pendingFiles: %v", err)
	}
	want := []string{"0001_init.up.sql", "0002_reminders.up.sql"}
	if len(files) != len(want) {
		t.Fatalf("pendingFiles = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestPendingFilesMissingDir(t *testing.T) {
	if _, err := pendingFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}
