// Package engine implements the SyncEngine: the component that carries a
// diff.Plan to completion against a chosen strategy.Strategy, in the fixed
// order spec §4.4 requires, while tracking directory-mtime fixups and
// converging on partial-failure re-runs.
package engine

import (
	"context"
	"path"
	"sort"
	"strings"

	"github.com/jbm9/baycat/pkg/diff"
	"github.com/jbm9/baycat/pkg/logging"
	"github.com/jbm9/baycat/pkg/manifest"
	"github.com/jbm9/baycat/pkg/strategy"
)

// Options controls a single Sync invocation.
type Options struct {
	// DryRun logs what would happen without invoking the strategy or
	// mutating the destination manifest. Nothing is removed in a dry run;
	// with EnableDelete set, each delete is only logged as one that would
	// be made.
	DryRun bool
	// EnableDelete permits plan.Deleted paths to actually be removed.
	// Without it, deletes are logged and skipped (spec §4.7 / property 7).
	EnableDelete bool
	// Verbose requests additional per-operation logging at info level.
	Verbose bool
	// OverwriteRegressed permits content/metadata transfers to proceed
	// even when the destination's mtime is newer than the source's
	// (spec's "regressed" guard). Default false.
	OverwriteRegressed bool
	// CompareChecksums is forwarded to diff.Diff; default false, matching
	// the spec's default for Differ.Options.
	CompareChecksums bool
}

// Result is the outcome of a Sync call: the updated "xfer" manifest plus
// whether the run completed without any transfer-op failure.
type Result struct {
	// Xfer is the engine's working copy of the destination manifest,
	// mutated as operations succeeded. On a fully successful run it
	// equals the goal state (src) and is ready to be persisted.
	Xfer manifest.Manifest
	// Plan is the diff.Plan this run executed.
	Plan *diff.Plan

	dirty bool
}

// WasSuccess reports whether the run completed without the dirty flag being
// set (spec §4.4, was_success()).
func (r *Result) WasSuccess() bool {
	return !r.dirty
}

// Engine executes DiffPlans against a chosen strategy.Strategy.
type Engine struct {
	strategy strategy.Strategy
	logger   *logging.Logger
}

// New creates an Engine that will drive strat, logging through logger (or
// logging.RootLogger if nil).
func New(strat strategy.Strategy, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.RootLogger
	}
	return &Engine{strategy: strat, logger: logger}
}

// run carries the mutable state of a single Sync invocation: the working
// xfer manifest, the set of directories requiring metadata replay, and the
// dirty flag.
type run struct {
	opts      Options
	xfer      manifest.Manifest
	dirFixups map[string]struct{}
	dirty     bool
}

// Sync computes diff.Diff(src, dst) and applies it, in the fixed order
// required by spec §4.4: deletes, directory creation, file additions,
// content changes, metadata-only changes, then a deepest-first directory
// metadata replay pass.
func (e *Engine) Sync(ctx context.Context, src, dst manifest.Manifest, opts Options) (*Result, error) {
	plan, err := diff.Diff(src, dst, diff.Options{CompareChecksums: opts.CompareChecksums})
	if err != nil {
		return nil, err
	}

	r := &run{
		opts:      opts,
		xfer:      dst.Copy(),
		dirFixups: make(map[string]struct{}),
	}

	var touched []string

	// Step 4: deletes, first, to free space before writes and surface
	// auth errors early. Deepest paths go first so that a directory is
	// only removed after its contents are.
	for _, p := range sortedByDepthDescending(plan.Deleted) {
		oldEntry, _ := dst.Get(p)
		if e.doRemove(ctx, r, p, oldEntry) {
			touched = append(touched, p)
		}
	}

	// Step 5: directory creation, before files, since local file creation
	// requires parent directories to exist.
	for _, p := range plan.Added {
		srcEntry, ok := src.Get(p)
		if !ok || !srcEntry.IsDir {
			continue
		}
		if e.doMkdir(ctx, r, p, srcEntry) {
			touched = append(touched, p)
			r.dirFixups[p] = struct{}{}
		}
	}

	// Step 6: file additions.
	for _, p := range plan.Added {
		srcEntry, ok := src.Get(p)
		if !ok || srcEntry.IsDir {
			continue
		}
		if e.doTransferContentAndMetadata(ctx, r, p, srcEntry) {
			touched = append(touched, p)
		}
	}

	// Step 7: content changes, guarded against overwriting a regression.
	for _, p := range plan.Contents {
		srcEntry, ok := src.Get(p)
		if !ok {
			continue
		}
		if plan.IsRegressed(p) && !opts.OverwriteRegressed {
			e.logger.Warnf("skipping regressed content at %s (destination mtime is newer than source)", p)
			continue
		}
		if e.doTransferContentAndMetadata(ctx, r, p, srcEntry) {
			touched = append(touched, p)
		}
	}

	// Step 8: metadata-only changes, same regression guard.
	for _, p := range plan.Metadata {
		srcEntry, ok := src.Get(p)
		if !ok {
			continue
		}
		if plan.IsRegressed(p) && !opts.OverwriteRegressed {
			e.logger.Warnf("skipping regressed metadata at %s (destination mtime is newer than source)", p)
			continue
		}
		if e.doTransferMetadata(ctx, r, p, srcEntry) {
			touched = append(touched, p)
		}
	}

	// Step 9: ancestor fixups. Every touched path's strict ancestor
	// directories (excluding the root) need their metadata replayed,
	// since any child mutation bumps the parent directory's mtime.
	for _, p := range touched {
		for _, ancestor := range strictAncestors(p) {
			r.dirFixups[ancestor] = struct{}{}
		}
	}

	// Step 10: replay directory metadata, deepest first. Step 9 never
	// queues the root, so its mtime is not restored after child changes;
	// it is replayed here only when step 5 created it.
	for _, d := range sortedDirFixups(r.dirFixups) {
		if containsString(plan.Deleted, d) {
			continue
		}
		srcEntry, ok := src.Get(d)
		if !ok {
			continue
		}
		e.doTransferMetadata(ctx, r, d, srcEntry)
	}

	return &Result{Xfer: r.xfer, Plan: plan, dirty: r.dirty}, nil
}

// doRemove is the wrapper for the remove primitive. It returns true iff
// removal was in scope at all (enable_delete is set), regardless of whether
// a dry run suppressed the actual filesystem call or the call then failed:
// an in-scope removal is what requires the parent directory's mtime to be
// restored, exactly mirroring the original's paths_touched bookkeeping,
// which is only ever gated on enable_delete and not on dry_run.
func (e *Engine) doRemove(ctx context.Context, r *run, relPath string, oldEntry *manifest.Entry) bool {
	if !r.opts.EnableDelete {
		e.logger.Debugf("delete disabled, skipping %s", relPath)
		return false
	}
	if r.opts.DryRun {
		e.logger.Infof("[dry-run] would remove %s", relPath)
		return true
	}

	if err := e.strategy.Remove(ctx, relPath, oldEntry); err != nil {
		e.logger.Warnf("unable to remove %s: %s", relPath, err.Error())
		r.dirty = true
		return true
	}

	r.xfer.Counters().Removes++
	r.xfer.MarkDeleted(relPath)
	if r.opts.Verbose {
		e.logger.Infof("removed %s", relPath)
	}
	return true
}

// doMkdir is the wrapper for the mkdir primitive. Unlike doRemove it has no
// enable_delete-style gate, so it is always in scope for an added directory;
// a dry run only suppresses the actual filesystem call.
func (e *Engine) doMkdir(ctx context.Context, r *run, relPath string, srcEntry *manifest.Entry) bool {
	if r.opts.DryRun {
		e.logger.Infof("[dry-run] would mkdir %s", relPath)
		return true
	}

	if err := e.strategy.Mkdir(ctx, relPath, srcEntry); err != nil {
		e.logger.Warnf("unable to mkdir %s: %s", relPath, err.Error())
		r.dirty = true
		return true
	}

	r.xfer.Counters().Mkdirs++
	r.xfer.MarkMkdir(relPath, srcEntry)
	if r.opts.Verbose {
		e.logger.Infof("created directory %s", relPath)
	}
	return true
}

// doTransferContentAndMetadata runs transfer_content then, if it succeeded,
// transfer_metadata, matching the ordering spec §4.4 steps 6-7 specify.
func (e *Engine) doTransferContentAndMetadata(ctx context.Context, r *run, relPath string, srcEntry *manifest.Entry) bool {
	attempted, ok := e.doTransferContent(ctx, r, relPath, srcEntry)
	if !attempted {
		return false
	}
	if ok {
		e.doTransferMetadata(ctx, r, relPath, srcEntry)
	}
	return true
}

// doTransferContent is the wrapper for the transfer_content primitive. It
// returns (attempted, succeeded); a dry run is still "attempted" for
// touched-path bookkeeping purposes, it just never calls the strategy.
func (e *Engine) doTransferContent(ctx context.Context, r *run, relPath string, srcEntry *manifest.Entry) (bool, bool) {
	if r.opts.DryRun {
		e.logger.Infof("[dry-run] would transfer content for %s", relPath)
		return true, false
	}

	n, err := e.strategy.TransferContent(ctx, relPath, srcEntry)
	if err != nil {
		e.logger.Warnf("unable to transfer content for %s: %s", relPath, err.Error())
		r.dirty = true
		return true, false
	}

	counters := r.xfer.Counters()
	if e.strategy.Kind() == strategy.KindStoreToLocal {
		counters.Downloads++
		counters.BytesDown += n
	} else {
		counters.Uploads++
		counters.BytesUp += n
	}
	r.xfer.MarkTransferred(relPath, srcEntry)
	if r.opts.Verbose {
		e.logger.Infof("transferred content for %s (%d bytes)", relPath, n)
	}
	return true, true
}

// doTransferMetadata is the wrapper for the transfer_metadata primitive.
func (e *Engine) doTransferMetadata(ctx context.Context, r *run, relPath string, srcEntry *manifest.Entry) bool {
	if r.opts.DryRun {
		e.logger.Infof("[dry-run] would transfer metadata for %s", relPath)
		return true
	}

	if err := e.strategy.TransferMetadata(ctx, relPath, srcEntry); err != nil {
		e.logger.Warnf("unable to transfer metadata for %s: %s", relPath, err.Error())
		r.dirty = true
		return true
	}

	r.xfer.Counters().MetadataOps++
	if srcEntry.IsDir {
		r.xfer.MarkMkdir(relPath, srcEntry)
	} else {
		r.xfer.MarkTransferred(relPath, srcEntry)
	}
	if r.opts.Verbose {
		e.logger.Infof("restored metadata for %s", relPath)
	}
	return true
}

// strictAncestors returns relPath's strict ancestor directories, deepest
// first, excluding the root ("") and "/".
func strictAncestors(relPath string) []string {
	var ancestors []string
	dir := path.Dir(relPath)
	for dir != "." && dir != "" && dir != "/" {
		ancestors = append(ancestors, dir)
		dir = path.Dir(dir)
	}
	return ancestors
}

// depth returns the number of '/'-separated components in relPath; the
// root ("") has depth 0.
func depth(relPath string) int {
	if relPath == "" {
		return 0
	}
	return strings.Count(relPath, "/") + 1
}

// sortedDirFixups returns dirs sorted by (-depth, rel_path): deepest
// directories first, broken alphabetically within the same depth.
func sortedDirFixups(dirs map[string]struct{}) []string {
	out := make([]string, 0, len(dirs))
	for d := range dirs {
		out = append(out, d)
	}
	return sortedByDepthDescending(out)
}

// sortedByDepthDescending sorts paths by (-depth, rel_path) into a new slice.
func sortedByDepthDescending(paths []string) []string {
	out := append([]string(nil), paths...)
	sort.Slice(out, func(i, j int) bool {
		di, dj := depth(out[i]), depth(out[j])
		if di != dj {
			return di > dj
		}
		return out[i] < out[j]
	})
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
