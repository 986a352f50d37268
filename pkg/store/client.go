// Package store defines the narrow capability interface baycat consumes
// from an object store, and an implementation backed by
// github.com/aws/aws-sdk-go's S3 client. The interface is intentionally
// small: upload, download, paginated listing, and remove are the only
// primitives the rest of the system needs (per spec §6.6), so that ObjectStoreManifest and
// the store-facing TransferStrategy implementations never depend on the AWS
// SDK directly.
package store

import (
	"context"
	"io"
)

// Object describes one listed key.
type Object struct {
	// Key is the full object key, including the bucket prefix.
	Key string
	// ETag is the store's content digest for the object (quotes stripped).
	ETag string
	// Size is the object's byte length.
	Size int64
	// LastModifiedUnix is the object's last-modified time, in whole seconds
	// since the epoch: object stores are only specified to second
	// resolution (spec §3, §9 Open Question 1).
	LastModifiedUnix int64
}

// ListPage is one page of a ListObjects call.
type ListPage struct {
	Objects               []Object
	NextContinuationToken string
	IsTruncated           bool
}

// NotFoundError is returned by Download when the requested key does not
// exist, distinguished so that callers (manifest load) can treat a missing
// object as "start fresh" rather than a hard failure.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return "object not found: " + e.Key
}

// Client is the capability interface baycat consumes from an object store.
// It is implemented by *S3Client and by fakes in tests.
type Client interface {
	// Bucket returns the bucket this client is scoped to.
	Bucket() string
	// Upload streams the content at localPath to key.
	Upload(ctx context.Context, key, localPath string) error
	// UploadReader streams r's content to key without requiring a local
	// file, for cases where content is already in memory or piped.
	UploadReader(ctx context.Context, key string, r io.Reader, size int64) error
	// Download streams key's content to localPath, via a caller-managed
	// temporary file and atomic rename. Returns a *NotFoundError if key
	// does not exist.
	Download(ctx context.Context, key, localPath string) error
	// List returns one page of objects under prefix. A non-empty
	// continuationToken resumes a prior listing.
	List(ctx context.Context, prefix, continuationToken string) (ListPage, error)
	// Remove deletes the given key. Object stores are not required to
	// support deletion (spec §9 Open Question 2): implementations may be a
	// no-op that returns nil after logging a warning.
	Remove(ctx context.Context, key string) error
}
