package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jbm9/baycat/pkg/endpoint"
	"github.com/jbm9/baycat/pkg/engine"
	"github.com/jbm9/baycat/pkg/logging"
	"github.com/jbm9/baycat/pkg/manifest"
	"github.com/jbm9/baycat/pkg/strategy"
)

func syncMain(command *cobra.Command, arguments []string) error {
	if len(arguments) != 2 {
		return errorf("invalid number of arguments (expected SRC and DST)")
	}
	if syncConfiguration.quiet {
		rootLogger = logging.NewLogger(logging.LevelError, colorErrorWriter())
	}
	src := endpoint.Parse(arguments[0])
	dst := endpoint.Parse(arguments[1])

	if src.IsStore && dst.IsStore {
		return errorf("store-to-store sync is not supported")
	}

	if !dst.IsStore {
		info, err := os.Stat(dst.LocalPath)
		if err == nil {
			if !info.IsDir() {
				return errorf("destination %s exists, but is not a directory", dst.LocalPath)
			}
		} else if os.IsNotExist(err) {
			if syncConfiguration.dryRun {
				return errorf("destination %s does not exist, so cannot create a manifest", dst.LocalPath)
			}
			if err := os.MkdirAll(dst.LocalPath, 0755); err != nil {
				return errorf("unable to create destination directory %s: %s", dst.LocalPath, err)
			}
		} else {
			return errorf("unable to stat destination %s: %s", dst.LocalPath, err)
		}
	}

	ctx := context.Background()

	srcManifest, err := loadEndpointManifest(ctx, src)
	if err != nil {
		return errorf("unable to load source manifest: %s", err)
	}
	dstManifest, err := loadEndpointManifest(ctx, dst)
	if err != nil {
		return errorf("unable to load destination manifest: %s", err)
	}

	if err := updateManifest(ctx, srcManifest, false); err != nil {
		return errorf("unable to update source manifest: %s", err)
	}
	// The destination is reconciled against its live endpoint too: a local
	// destination re-walks its tree, a store destination re-lists its
	// prefix (the checksum-adoption pass that lets a partial prior upload
	// be adopted rather than redone).
	if err := updateManifest(ctx, dstManifest, false); err != nil {
		return errorf("unable to update destination manifest: %s", err)
	}
	if !syncConfiguration.dryRun && !src.IsStore {
		if err := srcManifest.Save("", true); err != nil {
			return errorf("unable to save source manifest: %s", err)
		}
	}

	strat, err := buildStrategy(src, dst)
	if err != nil {
		return err
	}

	eng := engine.New(strat, rootLogger.Sublogger("engine"))
	result, err := eng.Sync(ctx, srcManifest, dstManifest, engine.Options{
		DryRun:  syncConfiguration.dryRun,
		Verbose: syncConfiguration.verbose,
		// enable_delete has no CLI switch (spec §6.1 lists no --delete
		// flag): deletion is an engine/library capability only, exercised
		// directly in pkg/engine's tests.
	})
	if err != nil {
		return errorf("sync failed: %s", err)
	}

	if !syncConfiguration.dryRun {
		if err := result.Xfer.Save("", true); err != nil {
			return errorf("unable to save destination manifest: %s", err)
		}
	}

	if syncConfiguration.printCounters {
		printCounters(result.Xfer.Counters())
	}

	if !result.WasSuccess() {
		warning("one or more transfer operations failed; a re-run will retry them")
		return &dirtyRunError{counters: fmt.Sprintf("%+v", result.Xfer.Counters())}
	}
	return nil
}

// loadEndpointManifest loads the manifest for e, creating an empty one
// (with its default selector already attached, for a local endpoint) if
// none is persisted yet.
func loadEndpointManifest(ctx context.Context, e *endpoint.Endpoint) (manifest.Manifest, error) {
	if !e.IsStore {
		path := filepath.Join(e.LocalPath, manifest.ReservedDirectoryName, "manifest")
		if _, err := os.Stat(path); err == nil {
			return manifest.LoadLocal(e.LocalPath, "", rootLogger.Sublogger("manifest"))
		} else if !os.IsNotExist(err) {
			return nil, err
		}
		m, err := manifest.CreateLocal(e.LocalPath, 1, "", rootLogger.Sublogger("manifest"))
		if err != nil {
			return nil, err
		}
		if err := m.AddSelector(manifest.NewPathSelector(e.LocalPath), false); err != nil {
			return nil, err
		}
		return m, nil
	}

	client, err := newStoreClient(e.Bucket, rootLogger.Sublogger("store"))
	if err != nil {
		return nil, err
	}
	return manifest.LoadObjectStore(ctx, client, e.Prefix, rootLogger.Sublogger("manifest"))
}

// updateManifest reconciles m against its live endpoint: a LocalManifest
// re-walks its selectors, an ObjectStoreManifest re-lists its bucket. The
// two have incompatible Update signatures (a POSIX walk never blocks on
// context cancellation the way a paginated list call can), so this type
// switch stands in for what would otherwise need to be on the shared
// Manifest interface.
func updateManifest(ctx context.Context, m manifest.Manifest, forceChecksum bool) error {
	switch v := m.(type) {
	case *manifest.LocalManifest:
		return v.Update(forceChecksum)
	case *manifest.ObjectStoreManifest:
		return v.Update(ctx)
	default:
		return errorf("unknown manifest type %T", m)
	}
}

// buildStrategy selects the TransferStrategy realization matching src/dst's
// endpoint kinds (spec §4.5).
func buildStrategy(src, dst *endpoint.Endpoint) (strategy.Strategy, error) {
	switch {
	case !src.IsStore && !dst.IsStore:
		return strategy.NewLocal(src.LocalPath, dst.LocalPath, rootLogger.Sublogger("strategy")), nil
	case !src.IsStore && dst.IsStore:
		client, err := newStoreClient(dst.Bucket, rootLogger.Sublogger("store"))
		if err != nil {
			return nil, err
		}
		return strategy.NewLocalToStore(src.LocalPath, client, dst.Prefix, rootLogger.Sublogger("strategy")), nil
	case src.IsStore && !dst.IsStore:
		client, err := newStoreClient(src.Bucket, rootLogger.Sublogger("store"))
		if err != nil {
			return nil, err
		}
		return strategy.NewStoreToLocal(client, src.Prefix, dst.LocalPath, rootLogger.Sublogger("strategy")), nil
	default:
		return nil, errorf("store-to-store sync is not supported")
	}
}

func printCounters(c *manifest.Counters) {
	fmt.Printf("uploads:      %d (%s)\n", c.Uploads, humanize.Bytes(uint64(c.BytesUp)))
	fmt.Printf("downloads:    %d (%s)\n", c.Downloads, humanize.Bytes(uint64(c.BytesDown)))
	fmt.Printf("removes:      %d\n", c.Removes)
	fmt.Printf("mkdirs:       %d\n", c.Mkdirs)
	fmt.Printf("metadata ops: %d\n", c.MetadataOps)
	fmt.Printf("list calls:   %d\n", c.ListCalls)
}

var syncCommand = &cobra.Command{
	Use:   "sync SRC DST",
	Short: "Synchronize DST to match SRC",
	Args:  cobra.ExactArgs(2),
	Run:   mainify(syncMain),
}

var syncConfiguration struct {
	dryRun        bool
	verbose       bool
	quiet         bool
	printCounters bool
}

func init() {
	flags := syncCommand.Flags()
	flags.BoolVarP(&syncConfiguration.dryRun, "dry-run", "n", false, "Show what would be done without doing it")
	flags.BoolVarP(&syncConfiguration.verbose, "verbose", "v", false, "Log each operation as it runs")
	flags.BoolVarP(&syncConfiguration.quiet, "quiet", "q", false, "Suppress all but error output")
	flags.BoolVar(&syncConfiguration.printCounters, "print-counters", false, "Print operation counters after the run")
}
