package filesystem

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/jbm9/baycat/pkg/logging"
)

func TestWriteFileAtomicNonExistentDirectory(t *testing.T) {
	if WriteFileAtomic("/does/not/exist/file", []byte{}, 0600, logging.RootLogger) == nil {
		t.Error("atomic file write did not fail for non-existent directory")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	directory := t.TempDir()
	target := filepath.Join(directory, "file")
	contents := []byte{0, 1, 2, 3, 4, 5, 6}

	if err := WriteFileAtomic(target, contents, 0600, logging.RootLogger); err != nil {
		t.Fatal("atomic file write failed:", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal("unable to read back file:", err)
	}
	if !bytes.Equal(data, contents) {
		t.Error("file contents did not match expected")
	}

	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("permissions = %o, want 0600", info.Mode().Perm())
	}
}

func TestWriteFileAtomicOverwritesExisting(t *testing.T) {
	directory := t.TempDir()
	target := filepath.Join(directory, "file")

	if err := os.WriteFile(target, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(target, []byte("new"), 0644, logging.RootLogger); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("content = %q, want %q", data, "new")
	}
}
