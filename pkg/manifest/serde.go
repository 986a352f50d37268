package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jbm9/baycat/pkg/filesystem"
	"github.com/jbm9/baycat/pkg/logging"
)

// parseTime parses the RFC3339-with-nanoseconds timestamp used for the
// Collected field.
func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// Every serializable value in the persisted document carries a type tag
// under this JSON key, and decoding is recursive and tag-dispatched: an
// unrecognized tag fails rather than being guessed at.
const classNameKey = "_json_classname"

// entryDecoders and selectorDecoders are built once, on first use, by
// enumerating the serializable variants, giving decode a
// single dispatch table instead of a hand-rolled if/else chain per call.
var (
	entryDecoders    map[string]func(json.RawMessage) (*Entry, error)
	selectorDecoders map[string]func(json.RawMessage) (Selector, error)
	registryOnce     sync.Once
)

func buildRegistries() {
	entryDecoders = map[string]func(json.RawMessage) (*Entry, error){
		"Entry":            decodeEntryDoc,
		"ObjectStoreEntry": decodeEntryDoc,
	}
	selectorDecoders = map[string]func(json.RawMessage) (Selector, error){
		"PathSelector": decodePathSelectorDoc,
	}
}

func registries() (map[string]func(json.RawMessage) (*Entry, error), map[string]func(json.RawMessage) (Selector, error)) {
	registryOnce.Do(buildRegistries)
	return entryDecoders, selectorDecoders
}

// taggedEntry is the on-disk representation of an Entry, carrying the class
// tag used to distinguish a POSIX Entry from an ObjectStoreEntry.
type taggedEntry struct {
	ClassName string       `json:"_json_classname"`
	RelPath   string       `json:"rel_path"`
	IsDir     bool         `json:"is_dir"`
	Size      int64        `json:"size"`
	MtimeNs   int64        `json:"mtime_ns"`
	Cksum     string       `json:"cksum,omitempty"`
	CksumType string       `json:"cksum_type,omitempty"`
	UID       *uint32      `json:"uid,omitempty"`
	GID       *uint32      `json:"gid,omitempty"`
	Mode      *os.FileMode `json:"mode,omitempty"`
	AtimeNs   *int64       `json:"atime_ns,omitempty"`
	Collected string       `json:"collected"`
}

func entryToTagged(className string, e *Entry) taggedEntry {
	return taggedEntry{
		ClassName: className,
		RelPath:   e.RelPath,
		IsDir:     e.IsDir,
		Size:      e.Size,
		MtimeNs:   e.MtimeNs,
		Cksum:     e.Cksum,
		CksumType: e.CksumType,
		UID:       e.Metadata.UID,
		GID:       e.Metadata.GID,
		Mode:      e.Metadata.Mode,
		AtimeNs:   e.Metadata.AtimeNs,
		Collected: e.Collected.Format(timeLayout),
	}
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

func decodeEntryDoc(raw json.RawMessage) (*Entry, error) {
	var doc taggedEntry
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unable to decode entry: %w", err)
	}
	e := &Entry{
		RelPath:   doc.RelPath,
		IsDir:     doc.IsDir,
		Size:      doc.Size,
		MtimeNs:   doc.MtimeNs,
		Cksum:     doc.Cksum,
		CksumType: doc.CksumType,
		Metadata: Metadata{
			UID:     doc.UID,
			GID:     doc.GID,
			Mode:    doc.Mode,
			AtimeNs: doc.AtimeNs,
		},
	}
	if doc.Collected != "" {
		if t, err := parseTime(doc.Collected); err == nil {
			e.Collected = t
		}
	}
	return e, nil
}

// taggedSelector is the on-disk representation of a Selector.
type taggedSelector struct {
	ClassName string `json:"_json_classname"`
	Root      string `json:"root"`
}

func decodePathSelectorDoc(raw json.RawMessage) (Selector, error) {
	var doc taggedSelector
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unable to decode selector: %w", err)
	}
	return NewPathSelector(doc.Root), nil
}

func classNameOf(raw json.RawMessage) (string, error) {
	var probe struct {
		ClassName string `json:"_json_classname"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", fmt.Errorf("unable to probe class name: %w", err)
	}
	if probe.ClassName == "" {
		return "", fmt.Errorf("missing %s tag", classNameKey)
	}
	return probe.ClassName, nil
}

// manifestDocument is the on-disk representation of either a LocalManifest
// or an ObjectStoreManifest.
type manifestDocument struct {
	ClassName string                     `json:"_json_classname"`
	Path      string                     `json:"path,omitempty"`
	Root      string                     `json:"root,omitempty"`
	Bucket    string                     `json:"bucket,omitempty"`
	Prefix    string                     `json:"prefix,omitempty"`
	Entries   map[string]json.RawMessage `json:"entries"`
	Selectors []json.RawMessage          `json:"selectors"`
}

// buildManifestDocumentBytes marshals m into its tagged-document form,
// shared by LocalManifest.Save (written to a local path) and
// ObjectStoreManifest.Save (uploaded to the reserved key).
func buildManifestDocumentBytes(m Manifest) ([]byte, error) {
	doc := manifestDocument{
		ClassName: m.Kind(),
		Entries:   make(map[string]json.RawMessage, len(m.Entries())),
	}

	entryClassName := "Entry"
	if m.Kind() == KindObjectStore {
		entryClassName = "ObjectStoreEntry"
	}

	for relPath, e := range m.Entries() {
		raw, err := json.Marshal(entryToTagged(entryClassName, e))
		if err != nil {
			return nil, fmt.Errorf("unable to marshal entry %s: %w", relPath, err)
		}
		doc.Entries[relPath] = raw
	}

	switch typed := m.(type) {
	case *LocalManifest:
		doc.Root = typed.root
		for _, sel := range typed.selectors {
			raw, err := json.Marshal(taggedSelector{ClassName: sel.Kind(), Root: sel.Root()})
			if err != nil {
				return nil, fmt.Errorf("unable to marshal selector: %w", err)
			}
			doc.Selectors = append(doc.Selectors, raw)
		}
	case *ObjectStoreManifest:
		doc.Bucket = typed.bucket
		doc.Prefix = typed.prefix
	}

	return json.MarshalIndent(&doc, "", "  ")
}

func saveManifestDocument(path string, m Manifest, logger *logging.Logger) error {
	data, err := buildManifestDocumentBytes(m)
	if err != nil {
		return fmt.Errorf("unable to marshal manifest: %w", err)
	}
	return filesystem.WriteFileAtomic(path, data, 0644, logger)
}

func loadManifestDocument(path string) (*manifestDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc manifestDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unable to unmarshal manifest document: %w", err)
	}
	if doc.ClassName != KindLocal && doc.ClassName != KindObjectStore {
		return nil, fmt.Errorf("unrecognized manifest class name: %s", doc.ClassName)
	}
	return &doc, nil
}

func (doc *manifestDocument) decodeEntries() (map[string]*Entry, error) {
	entryDecode, _ := registries()
	entries := make(map[string]*Entry, len(doc.Entries))
	for relPath, raw := range doc.Entries {
		className, err := classNameOf(raw)
		if err != nil {
			return nil, err
		}
		decode, ok := entryDecode[className]
		if !ok {
			return nil, fmt.Errorf("unrecognized entry class name: %s", className)
		}
		e, err := decode(raw)
		if err != nil {
			return nil, err
		}
		entries[relPath] = e
	}
	return entries, nil
}

func (doc *manifestDocument) decodeSelectors() ([]Selector, error) {
	_, selectorDecode := registries()
	selectors := make([]Selector, 0, len(doc.Selectors))
	for _, raw := range doc.Selectors {
		className, err := classNameOf(raw)
		if err != nil {
			return nil, err
		}
		decode, ok := selectorDecode[className]
		if !ok {
			return nil, fmt.Errorf("unrecognized selector class name: %s", className)
		}
		sel, err := decode(raw)
		if err != nil {
			return nil, err
		}
		selectors = append(selectors, sel)
	}
	return selectors, nil
}

func (doc *manifestDocument) toLocalManifest(logger *logging.Logger) (*LocalManifest, error) {
	entries, err := doc.decodeEntries()
	if err != nil {
		return nil, err
	}
	selectors, err := doc.decodeSelectors()
	if err != nil {
		return nil, err
	}
	return &LocalManifest{
		root:           doc.Root,
		path:           doc.Path,
		entries:        entries,
		selectors:      selectors,
		checksumPool:   1,
		checksumType:   DefaultChecksumType,
		reservedPrefix: ReservedDirectoryName,
		logger:         logger,
	}, nil
}
