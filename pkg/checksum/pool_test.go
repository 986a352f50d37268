package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDigestMD5KnownValue(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "afile", "contents of afile")

	digest, err := Digest(path, "MD5")
	if err != nil {
		t.Fatal(err)
	}
	const want = "79c36f925735a81867048aa3c3a87b93"
	if digest != want {
		t.Errorf("digest = %s, want %s", digest, want)
	}
}

func TestDigestUnsupportedAlgorithm(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "f", "x")
	if _, err := Digest(path, "CRC32"); err == nil {
		t.Error("expected an error for an unsupported algorithm")
	}
}

func TestDigestMissingFile(t *testing.T) {
	if _, err := Digest(filepath.Join(t.TempDir(), "does-not-exist"), "MD5"); err == nil {
		t.Error("expected an error reading a missing file")
	}
}

func TestComputeAllSequential(t *testing.T) {
	dir := t.TempDir()
	requests := []Request{
		{RelPath: "a", AbsPath: writeTemp(t, dir, "a", "hello")},
		{RelPath: "b", AbsPath: writeTemp(t, dir, "b", "world")},
	}

	results := ComputeAll(requests, "MD5", 1)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	byPath := make(map[string]Result, 2)
	for _, r := range results {
		byPath[r.RelPath] = r
	}
	for _, req := range requests {
		r, ok := byPath[req.RelPath]
		if !ok {
			t.Fatalf("missing result for %s", req.RelPath)
		}
		if r.Err != nil {
			t.Errorf("unexpected error for %s: %s", req.RelPath, r.Err)
		}
		want, err := Digest(req.AbsPath, "MD5")
		if err != nil {
			t.Fatal(err)
		}
		if r.Digest != want {
			t.Errorf("digest mismatch for %s: got %s want %s", req.RelPath, r.Digest, want)
		}
	}
}

func TestComputeAllParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	var requests []Request
	for i := 0; i < 20; i++ {
		name := filepath.Join(dir, string(rune('a'+i)))
		if err := os.WriteFile(name, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
		requests = append(requests, Request{RelPath: string(rune('a' + i)), AbsPath: name})
	}

	sequential := ComputeAll(requests, "MD5", 1)
	parallel := ComputeAll(requests, "MD5", 4)

	seqByPath := make(map[string]string, len(sequential))
	for _, r := range sequential {
		seqByPath[r.RelPath] = r.Digest
	}
	if len(parallel) != len(sequential) {
		t.Fatalf("parallel returned %d results, sequential returned %d", len(parallel), len(sequential))
	}
	for _, r := range parallel {
		if r.Err != nil {
			t.Errorf("unexpected error for %s: %s", r.RelPath, r.Err)
		}
		if seqByPath[r.RelPath] != r.Digest {
			t.Errorf("digest for %s differs between pool sizes", r.RelPath)
		}
	}
}

func TestComputeAllEmpty(t *testing.T) {
	if results := ComputeAll(nil, "MD5", 4); results != nil {
		t.Errorf("expected nil results for an empty request list, got %v", results)
	}
}
