// Package endpoint parses a SRC/DST argument (spec §6.1) into either a
// local filesystem path or an object-store URI of the form
// scheme://bucket/prefix. It only parses; building the Manifest and
// store.Client for an endpoint is left to its callers. It is the one piece of URL-shaped parsing baycat
// needs, so it stays deliberately narrow rather than pulling in a full URL
// dispatch hierarchy like mutagen's pkg/url (which additionally handles
// SSH, Docker, and Kubernetes endpoints baycat has no use for).
package endpoint

import (
	"strings"
)

// Endpoint is a parsed SRC or DST argument.
type Endpoint struct {
	// IsStore reports whether this endpoint names an object-store bucket
	// rather than a local path.
	IsStore bool
	// LocalPath is the local filesystem path, valid iff !IsStore.
	LocalPath string
	// Scheme is the URI scheme (e.g. "s3"), valid iff IsStore.
	Scheme string
	// Bucket is the bucket name, valid iff IsStore.
	Bucket string
	// Prefix is the key prefix within the bucket (may be empty), valid iff
	// IsStore.
	Prefix string
}

// Parse classifies raw as a local path or a scheme://bucket/prefix object
// store URI. A local path is anything without a "://" separator.
func Parse(raw string) *Endpoint {
	schemeIdx := strings.Index(raw, "://")
	if schemeIdx < 0 {
		return &Endpoint{LocalPath: raw}
	}

	scheme := raw[:schemeIdx]
	rest := raw[schemeIdx+3:]

	bucket := rest
	prefix := ""
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		bucket = rest[:slash]
		prefix = strings.Trim(rest[slash+1:], "/")
	}

	return &Endpoint{
		IsStore: true,
		Scheme:  scheme,
		Bucket:  bucket,
		Prefix:  prefix,
	}
}

// String renders the endpoint back into its original argument form, for
// logging.
func (e *Endpoint) String() string {
	if !e.IsStore {
		return e.LocalPath
	}
	if e.Prefix == "" {
		return e.Scheme + "://" + e.Bucket
	}
	return e.Scheme + "://" + e.Bucket + "/" + e.Prefix
}
