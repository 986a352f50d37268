package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jbm9/baycat/pkg/logging"
)

func TestStreamFileAtomic(t *testing.T) {
	directory := t.TempDir()
	target := filepath.Join(directory, "file")
	content := "some content"

	n, err := StreamFileAtomic(target, strings.NewReader(content), 0644, logging.RootLogger)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(content)) {
		t.Errorf("byte count = %d, want %d", n, len(content))
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != content {
		t.Errorf("content = %q, want %q", data, content)
	}
}

func TestStreamFileAtomicLeavesNoTempFileOnSuccess(t *testing.T) {
	directory := t.TempDir()
	target := filepath.Join(directory, "file")

	if _, err := StreamFileAtomic(target, strings.NewReader("x"), 0644, logging.RootLogger); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "file" {
		t.Errorf("expected only the final file to remain, got %v", entries)
	}
}
