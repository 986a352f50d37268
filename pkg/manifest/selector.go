package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReservedDirectoryName is the directory name that is never allowed to
// appear as a user Entry: it's where a LocalManifest persists itself inside
// the tree it describes (see ReservedPrefix).
const ReservedDirectoryName = ".baycat"

// Selector is a lazy producer of Entries rooted at a path. Selectors are
// value-comparable and serializable so that a Manifest can record which
// selectors populated it and re-run them later via Update.
type Selector interface {
	// Root returns the local filesystem root this selector walks.
	Root() string
	// Walk invokes visit once for every Entry this selector yields: the
	// root directory Entry first, then every discovered file Entry, then
	// every discovered subdirectory Entry. If visit returns an error, Walk
	// stops and returns it. A reserved-name collision is reported to visit
	// as an *ErrReservedName rather than aborting the walk; visit decides
	// whether to treat that as fatal (the Manifest population path does
	// not: it logs and skips).
	Walk(visit func(*Entry, error) error) error
	// Kind identifies the selector type for serialization.
	Kind() string
}

// PathSelector is the default Selector: it walks a local directory tree.
type PathSelector struct {
	// root is the local directory path this selector walks.
	root string
}

// NewPathSelector creates a PathSelector rooted at root.
func NewPathSelector(root string) *PathSelector {
	return &PathSelector{root: filepath.Clean(root)}
}

// Root implements Selector.Root.
func (s *PathSelector) Root() string {
	return s.root
}

// Kind implements Selector.Kind.
func (s *PathSelector) Kind() string {
	return "PathSelector"
}

// Walk implements Selector.Walk. Directory Entries are yielded without a
// trailing slash; the root itself is yielded first with RelPath "".
func (s *PathSelector) Walk(visit func(*Entry, error) error) error {
	rootEntry, err := entryFromLstat(s.root, "")
	if err != nil {
		return visit(nil, err)
	}
	if err := visit(rootEntry, nil); err != nil {
		return err
	}

	var files []*Entry
	var dirs []*Entry
	if err := s.walkContents(s.root, "", &files, &dirs, visit); err != nil {
		return err
	}

	for _, e := range files {
		if err := visit(e, nil); err != nil {
			return err
		}
	}
	for _, e := range dirs {
		if err := visit(e, nil); err != nil {
			return err
		}
	}
	return nil
}

// walkContents reads the directory at path (rel relative to the selector
// root) and recurses into its subdirectories, partitioning the discovered
// Entries into files and dirs so Walk can yield all files before any
// directory. A child whose name collides with ReservedDirectoryName is
// reported to visit as an *ErrReservedName and never descended into; any
// other per-child failure is likewise handed to visit, which decides whether
// the walk continues. A directory's Entry is captured before its contents
// are read, so the recorded metadata reflects the directory as found.
func (s *PathSelector) walkContents(path, rel string, files, dirs *[]*Entry, visit func(*Entry, error) error) error {
	contents, err := os.ReadDir(path)
	if err != nil {
		return visit(nil, err)
	}

	for _, c := range contents {
		childRel := c.Name()
		if rel != "" {
			childRel = rel + "/" + c.Name()
		}
		childPath := filepath.Join(path, c.Name())

		if c.Name() == ReservedDirectoryName {
			if err := visit(nil, &ErrReservedName{Path: childRel}); err != nil {
				return err
			}
			continue
		}

		info, infoErr := c.Info()
		if infoErr != nil {
			if err := visit(nil, infoErr); err != nil {
				return err
			}
			continue
		}

		entry, entryErr := entryFromInfo(childPath, childRel, info)
		if entryErr != nil {
			if err := visit(nil, entryErr); err != nil {
				return err
			}
			continue
		}

		if entry.IsDir {
			*dirs = append(*dirs, entry)
			if err := s.walkContents(childPath, childRel, files, dirs, visit); err != nil {
				return err
			}
		} else {
			*files = append(*files, entry)
		}
	}
	return nil
}

// entryFromLstat stats path directly; it's used for the selector root, which
// walkContents never sees as a child of anything.
func entryFromLstat(path, rel string) (*Entry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	return entryFromInfo(path, rel, info)
}

// entryFromInfo builds an Entry from a stat result. Symbolic links are
// treated as their target's kind is not resolved here: baycat mirrors
// regular files and directories only, matching the original's POSIX
// metadata model (no symlink-specific handling is specified).
func entryFromInfo(path, rel string, info os.FileInfo) (*Entry, error) {
	meta, err := platformMetadata(path, info)
	if err != nil {
		return nil, err
	}

	isDir := info.IsDir()
	size := info.Size()
	if isDir {
		size = 0
	}

	return &Entry{
		RelPath:   strings.TrimSuffix(rel, "/"),
		IsDir:     isDir,
		Size:      size,
		MtimeNs:   info.ModTime().UnixNano(),
		Metadata:  meta,
		Collected: time.Now(),
	}, nil
}
