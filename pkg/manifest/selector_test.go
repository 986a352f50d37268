package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPathSelectorWalkYieldsRootFirst(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "f"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	var order []string
	sel := NewPathSelector(root)
	err := sel.Walk(func(e *Entry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		order = append(order, e.RelPath)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(order) == 0 || order[0] != "" {
		t.Fatalf("expected the root entry (RelPath \"\") first, got %v", order)
	}
}

func TestPathSelectorWalkReportsReservedNameCollision(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ReservedDirectoryName), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, ReservedDirectoryName, "manifest"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	var sawReserved bool
	sel := NewPathSelector(root)
	err := sel.Walk(func(e *Entry, walkErr error) error {
		if walkErr != nil {
			if _, ok := walkErr.(*ErrReservedName); ok {
				sawReserved = true
				return nil
			}
			return walkErr
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !sawReserved {
		t.Error("expected Walk to report an *ErrReservedName for the reserved directory")
	}
}

func TestPathSelectorWalkYieldsFilesBeforeDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "a", "b"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", "f"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a", "b", "g"), []byte("y"), 0644); err != nil {
		t.Fatal(err)
	}

	var order []string
	dirByPath := make(map[string]bool)
	sel := NewPathSelector(root)
	err := sel.Walk(func(e *Entry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		order = append(order, e.RelPath)
		dirByPath[e.RelPath] = e.IsDir
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"", "a", "a/b", "a/f", "a/b/g"} {
		if _, ok := dirByPath[want]; !ok {
			t.Errorf("expected an entry for %q, got %v", want, order)
		}
	}
	// After the root, every file precedes every directory.
	firstDir, lastFile := -1, -1
	for i, rel := range order[1:] {
		if dirByPath[rel] {
			if firstDir == -1 {
				firstDir = i
			}
		} else {
			lastFile = i
		}
	}
	if firstDir != -1 && lastFile > firstDir {
		t.Errorf("expected all files before any directory, got %v", order)
	}
}

func TestPathSelectorWalkDoesNotDescendIntoReservedDirectory(t *testing.T) {
	root := t.TempDir()
	reserved := filepath.Join(root, "a", ReservedDirectoryName)
	if err := os.MkdirAll(reserved, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(reserved, "hidden"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	var reservedPaths []string
	var yielded []string
	sel := NewPathSelector(root)
	err := sel.Walk(func(e *Entry, walkErr error) error {
		if walkErr != nil {
			if r, ok := walkErr.(*ErrReservedName); ok {
				reservedPaths = append(reservedPaths, r.Path)
				return nil
			}
			return walkErr
		}
		yielded = append(yielded, e.RelPath)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(reservedPaths) != 1 || reservedPaths[0] != "a/"+ReservedDirectoryName {
		t.Errorf("expected one reserved-name report for a/%s, got %v", ReservedDirectoryName, reservedPaths)
	}
	for _, rel := range yielded {
		if strings.Contains(rel, ReservedDirectoryName) {
			t.Errorf("entry %q falls under the reserved directory", rel)
		}
	}
}

func TestPathSelectorKind(t *testing.T) {
	sel := NewPathSelector("/tmp/whatever")
	if sel.Kind() != "PathSelector" {
		t.Errorf("Kind() = %q, want PathSelector", sel.Kind())
	}
	if sel.Root() != filepath.Clean("/tmp/whatever") {
		t.Errorf("Root() = %q, want /tmp/whatever", sel.Root())
	}
}
