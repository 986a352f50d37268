package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jbm9/baycat/pkg/manifest"
	"github.com/jbm9/baycat/pkg/pricing"
)

var manifestCommand = &cobra.Command{
	Use:   "manifest",
	Short: "Manage manifest files",
}

func init() {
	manifestCommand.AddCommand(
		manifestCreateCommand,
		manifestUpdateCommand,
		manifestEstimateCostCommand,
	)
}

func manifestCreateMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errorf("invalid number of arguments (expected ROOT)")
	}
	root := arguments[0]

	poolSize := manifestCreateConfiguration.poolSize
	if poolSize < 1 {
		poolSize = 1
	}

	m, err := manifest.CreateLocal(root, poolSize, manifestCreateConfiguration.output, rootLogger.Sublogger("manifest"))
	if err != nil {
		return errorf("unable to create manifest: %s", err)
	}
	if err := m.AddSelector(manifest.NewPathSelector(root), !manifestCreateConfiguration.skipChecksums); err != nil {
		return errorf("unable to populate manifest: %s", err)
	}
	if err := m.Save(manifestCreateConfiguration.output, false); err != nil {
		return errorf("unable to save manifest: %s", err)
	}
	return nil
}

var manifestCreateCommand = &cobra.Command{
	Use:   "create ROOT",
	Short: "Create a new manifest for the given directory",
	Args:  cobra.ExactArgs(1),
	Run:   mainify(manifestCreateMain),
}

var manifestCreateConfiguration struct {
	output        string
	poolSize      int
	skipChecksums bool
}

func init() {
	flags := manifestCreateCommand.Flags()
	flags.StringVarP(&manifestCreateConfiguration.output, "manifest", "o", "", "Path to save the manifest at (default ROOT/.baycat/manifest)")
	flags.IntVarP(&manifestCreateConfiguration.poolSize, "pool-size", "c", 1, "Number of workers to use when computing checksums")
	flags.BoolVar(&manifestCreateConfiguration.skipChecksums, "skip-checksums", false, "Don't compute checksums when creating the manifest")
}

func manifestUpdateMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errorf("invalid number of arguments (expected ROOT)")
	}
	root := arguments[0]

	m, err := manifest.LoadLocal(root, manifestUpdateConfiguration.path, rootLogger.Sublogger("manifest"))
	if err != nil {
		return errorf("unable to load manifest: %s", err)
	}
	if manifestUpdateConfiguration.poolSize > 0 {
		m.SetPoolSize(manifestUpdateConfiguration.poolSize)
	}

	if err := m.Update(manifestUpdateConfiguration.forceChecksums); err != nil {
		return errorf("unable to update manifest: %s", err)
	}

	if err := m.Save(manifestUpdateConfiguration.path, true); err != nil {
		return errorf("unable to save manifest: %s", err)
	}
	return nil
}

var manifestUpdateCommand = &cobra.Command{
	Use:   "update ROOT",
	Short: "Reconcile an existing manifest against the filesystem",
	Args:  cobra.ExactArgs(1),
	Run:   mainify(manifestUpdateMain),
}

var manifestUpdateConfiguration struct {
	manifestPathFlags
	poolSize       int
	forceChecksums bool
}

func init() {
	flags := manifestUpdateCommand.Flags()
	manifestUpdateConfiguration.Register(flags, "Path to load/save the manifest at (default ROOT/.baycat/manifest)")
	flags.IntVarP(&manifestUpdateConfiguration.poolSize, "pool-size", "c", 0, "Number of workers to use when recomputing checksums (does not persist)")
	flags.BoolVar(&manifestUpdateConfiguration.forceChecksums, "force-checksums", false, "Recompute and compare checksums for every surviving entry")
}

func manifestEstimateCostMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 {
		return errorf("invalid number of arguments (expected ROOT)")
	}
	root := arguments[0]

	m, err := manifest.LoadLocal(root, manifestEstimateCostConfiguration.path, rootLogger.Sublogger("manifest"))
	if err != nil {
		return errorf("unable to load manifest: %s", err)
	}

	table := pricing.Table{
		StoragePerGBMonth: manifestEstimateCostConfiguration.storagePerGBMonth,
		PerRequest:        manifestEstimateCostConfiguration.perRequest,
		TransferPerGB:     manifestEstimateCostConfiguration.transferPerGB,
	}
	if manifestEstimateCostConfiguration.pricingFile != "" {
		table, err = pricing.LoadTable(manifestEstimateCostConfiguration.pricingFile)
		if err != nil {
			return errorf("unable to load pricing file: %s", err)
		}
	}

	estimate := pricing.EstimateManifest(m, table)
	fmt.Printf("objects:           %d\n", estimate.Objects)
	fmt.Printf("total bytes:       %s\n", humanize.Bytes(uint64(estimate.TotalBytes)))
	fmt.Printf("storage / month:   $%.4f\n", estimate.StorageCostPerMonth)
	fmt.Printf("request cost:      $%.4f\n", estimate.RequestCost)
	fmt.Printf("transfer cost:     $%.4f\n", estimate.TransferCost)
	fmt.Printf("total:             $%.4f\n", estimate.Total())
	return nil
}

var manifestEstimateCostCommand = &cobra.Command{
	Use:   "estimate-cost ROOT",
	Short: "Estimate the monthly object-store cost of a manifest",
	Args:  cobra.ExactArgs(1),
	Run:   mainify(manifestEstimateCostMain),
}

var manifestEstimateCostConfiguration struct {
	manifestPathFlags
	pricingFile       string
	storagePerGBMonth float64
	perRequest        float64
	transferPerGB     float64
}

func init() {
	flags := manifestEstimateCostCommand.Flags()
	manifestEstimateCostConfiguration.Register(flags, "Path to load the manifest from (default ROOT/.baycat/manifest)")
	flags.StringVar(&manifestEstimateCostConfiguration.pricingFile, "pricing-file", "", "YAML file with storage_per_gb_month/per_request/transfer_per_gb")
	flags.Float64Var(&manifestEstimateCostConfiguration.storagePerGBMonth, "storage-per-gb-month", 0.023, "Price per GiB-month of storage")
	flags.Float64Var(&manifestEstimateCostConfiguration.perRequest, "per-request", 0.0000004, "Price per PUT/GET/LIST request")
	flags.Float64Var(&manifestEstimateCostConfiguration.transferPerGB, "transfer-per-gb", 0.09, "Price per GiB transferred out")
}
