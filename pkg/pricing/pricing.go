// Package pricing implements the pricing model behind `baycat manifest
// estimate-cost`. It is an additive leaf named in spec §6.1 but left
// unspecified in detail there; its shape is grounded on the flag list
// original_source/baycat/cli.py's sibling commands use for manifest
// operations (a root path plus a small set of numeric flags), generalized
// to a pricing table so the same numbers can be captured in a file and
// reused across invocations.
package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jbm9/baycat/pkg/manifest"
)

// Table holds the per-unit prices used to estimate the cost of storing (and,
// for a one-shot sync, transferring) a manifest's content in an object
// store. All fields default to zero, so an unconfigured Table estimates
// zero cost rather than failing.
type Table struct {
	// StoragePerGBMonth is the price to store one GiB for one month.
	StoragePerGBMonth float64 `yaml:"storage_per_gb_month"`
	// PerRequest is the price of a single PUT/GET/LIST request.
	PerRequest float64 `yaml:"per_request"`
	// TransferPerGB is the price to transfer one GiB out of the store.
	TransferPerGB float64 `yaml:"transfer_per_gb"`
}

// LoadTable parses a YAML pricing table from path.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("unable to read pricing file: %w", err)
	}
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("unable to parse pricing file: %w", err)
	}
	return t, nil
}

// Estimate is the result of pricing a manifest.
type Estimate struct {
	// Objects is the number of non-directory Entries priced.
	Objects int
	// TotalBytes is the summed size of those Entries.
	TotalBytes int64
	// StorageCostPerMonth is TotalBytes (in GiB) times StoragePerGBMonth.
	StorageCostPerMonth float64
	// RequestCost is Objects times PerRequest (one request per object, a
	// conservative upper bound since a real upload may also require
	// listing or multipart requests).
	RequestCost float64
	// TransferCost is TotalBytes (in GiB) times TransferPerGB, the cost of
	// the one-shot sync's initial upload.
	TransferCost float64
}

// Total is the sum of the initial transfer cost, the request cost, and one
// month of storage, which is the number `estimate-cost` reports as the headline figure.
func (e Estimate) Total() float64 {
	return e.StorageCostPerMonth + e.RequestCost + e.TransferCost
}

const bytesPerGB = 1 << 30

// EstimateManifest prices m's non-directory Entries against t.
func EstimateManifest(m manifest.Manifest, t Table) Estimate {
	var est Estimate
	for _, e := range m.Entries() {
		if e.IsDir {
			continue
		}
		est.Objects++
		est.TotalBytes += e.Size
	}
	gib := float64(est.TotalBytes) / float64(bytesPerGB)
	est.StorageCostPerMonth = gib * t.StoragePerGBMonth
	est.RequestCost = float64(est.Objects) * t.PerRequest
	est.TransferCost = gib * t.TransferPerGB
	return est
}
