package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jbm9/baycat/pkg/diff"
	"github.com/jbm9/baycat/pkg/logging"
	"github.com/jbm9/baycat/pkg/manifest"
	"github.com/jbm9/baycat/pkg/strategy"
)

func buildSourceTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(os.MkdirAll(filepath.Join(root, "a", "b"), 0755))
	must(os.WriteFile(filepath.Join(root, "a", "afile"), []byte("contents of afile"), 0644))
	must(os.WriteFile(filepath.Join(root, "a", "afile2"), []byte("more contents"), 0644))
	must(os.WriteFile(filepath.Join(root, "a", "b", "bfile"), []byte("some content"), 0600))
	return root
}

func localManifestFor(t *testing.T, root string) *manifest.LocalManifest {
	t.Helper()
	m, err := manifest.CreateLocal(root, 1, "", logging.RootLogger)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.AddSelector(manifest.NewPathSelector(root), false); err != nil {
		t.Fatal(err)
	}
	return m
}

// TestSyncLocalToLocalConverges drives a full local-to-local sync through
// real manifests and the real filesystem strategy, then re-walks the
// destination and checks that nothing but (at most) the root directory's
// metadata still differs from the source.
func TestSyncLocalToLocalConverges(t *testing.T) {
	srcRoot := buildSourceTree(t)
	dstRoot := t.TempDir()

	src := localManifestFor(t, srcRoot)
	dst := localManifestFor(t, dstRoot)

	eng := New(strategy.NewLocal(srcRoot, dstRoot, nil), nil)
	result, err := eng.Sync(context.Background(), src, dst, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !result.WasSuccess() {
		t.Fatal("expected a clean run")
	}

	data, err := os.ReadFile(filepath.Join(dstRoot, "a", "b", "bfile"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "some content" {
		t.Errorf("content = %q, want some content", data)
	}
	info, err := os.Stat(filepath.Join(dstRoot, "a", "b", "bfile"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %o, want 0600", info.Mode().Perm())
	}

	// Re-walk the destination from scratch and diff it against the source:
	// everything must now agree, except that the destination root's own
	// mtime is deliberately left alone by the engine.
	fresh := localManifestFor(t, dstRoot)
	plan, err := diff.Diff(src, fresh, diff.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.Added) != 0 || len(plan.Deleted) != 0 || len(plan.Contents) != 0 {
		t.Errorf("expected a converged tree, got added=%v deleted=%v contents=%v",
			plan.Added, plan.Deleted, plan.Contents)
	}
	for _, p := range plan.Metadata {
		if p != "" {
			t.Errorf("unexpected metadata difference at %q after sync", p)
		}
	}

	// A second run over the converged pair must be a no-op.
	again, err := eng.Sync(context.Background(), src, fresh, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !again.WasSuccess() {
		t.Error("a re-run over a converged tree should succeed")
	}
	counters := again.Xfer.Counters()
	if counters.Uploads != 0 {
		t.Errorf("a re-run over a converged tree should transfer nothing, got %d uploads", counters.Uploads)
	}
}
