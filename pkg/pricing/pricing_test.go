package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jbm9/baycat/pkg/manifest"
)

// fakeManifest is the minimal manifest.Manifest implementation needed to
// exercise Estimate: only Entries is ever read.
type fakeManifest struct {
	entries map[string]*manifest.Entry
}

func (f *fakeManifest) Kind() string                        { return "fake" }
func (f *fakeManifest) RootDescription() string             { return "fake" }
func (f *fakeManifest) ReservedPrefix() string              { return ".baycat" }
func (f *fakeManifest) Entries() map[string]*manifest.Entry { return f.entries }
func (f *fakeManifest) Counters() *manifest.Counters        { return &manifest.Counters{} }
func (f *fakeManifest) Copy() manifest.Manifest             { return f }

func (f *fakeManifest) MarkTransferred(string, *manifest.Entry) {}
func (f *fakeManifest) MarkDeleted(string)                      {}
func (f *fakeManifest) MarkMkdir(string, *manifest.Entry)       {}
func (f *fakeManifest) Save(string, bool) error                 { return nil }

func (f *fakeManifest) Get(rel string) (*manifest.Entry, bool) {
	e, ok := f.entries[rel]
	return e, ok
}

func TestEstimateSumsBytesAndSkipsDirectories(t *testing.T) {
	m := &fakeManifest{entries: map[string]*manifest.Entry{
		"":     {RelPath: "", IsDir: true},
		"a":    {RelPath: "a", IsDir: true},
		"a/f1": {RelPath: "a/f1", Size: 1 << 30},
		"a/f2": {RelPath: "a/f2", Size: 1 << 29},
	}}
	table := Table{StoragePerGBMonth: 0.02, PerRequest: 0.001, TransferPerGB: 0.05}

	est := EstimateManifest(m, table)
	if est.Objects != 2 {
		t.Errorf("Objects = %d, want 2", est.Objects)
	}
	wantBytes := int64(1<<30) + int64(1<<29)
	if est.TotalBytes != wantBytes {
		t.Errorf("TotalBytes = %d, want %d", est.TotalBytes, wantBytes)
	}

	wantGiB := 1.5
	if diff := est.StorageCostPerMonth - wantGiB*0.02; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("StorageCostPerMonth = %v, want %v", est.StorageCostPerMonth, wantGiB*0.02)
	}
	if est.RequestCost != 2*0.001 {
		t.Errorf("RequestCost = %v, want %v", est.RequestCost, 2*0.001)
	}
	if diff := est.TransferCost - wantGiB*0.05; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("TransferCost = %v, want %v", est.TransferCost, wantGiB*0.05)
	}

	wantTotal := est.StorageCostPerMonth + est.RequestCost + est.TransferCost
	if est.Total() != wantTotal {
		t.Errorf("Total() = %v, want %v", est.Total(), wantTotal)
	}
}

func TestEstimateZeroTableYieldsZeroCost(t *testing.T) {
	m := &fakeManifest{entries: map[string]*manifest.Entry{
		"f": {RelPath: "f", Size: 1000},
	}}
	est := EstimateManifest(m, Table{})
	if est.Total() != 0 {
		t.Errorf("Total() = %v, want 0 for an unconfigured pricing table", est.Total())
	}
}

func TestLoadTableParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricing.yaml")
	contents := "storage_per_gb_month: 0.023\nper_request: 0.0004\ntransfer_per_gb: 0.09\n"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if table.StoragePerGBMonth != 0.023 || table.PerRequest != 0.0004 || table.TransferPerGB != 0.09 {
		t.Errorf("parsed table = %+v, want {0.023 0.0004 0.09}", table)
	}
}

func TestLoadTableMissingFile(t *testing.T) {
	if _, err := LoadTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing pricing file")
	}
}
