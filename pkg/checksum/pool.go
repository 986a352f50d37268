// Package checksum computes content digests for manifest population. It
// mirrors the worker-pool shape used by mutagen's
// pkg/filesystem.Directory.ReadContentMetadataParallel: a fixed number of
// worker goroutines drain a shared request channel and each send exactly one
// response, so the caller can collect results as they complete without any
// result depending on another's order.
package checksum

import (
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
)

// ChunkSize is the buffer size used when streaming file content through a
// digest, chosen to match baycat's historical default.
const ChunkSize = 32 * 1024

// Result is the outcome of digesting a single file.
type Result struct {
	// RelPath identifies which request this result answers.
	RelPath string
	// Digest is the hex-encoded content digest.
	Digest string
	// Err is non-nil if reading or hashing the file failed.
	Err error
}

// Request names one file to digest.
type Request struct {
	// RelPath is the manifest-relative path this request corresponds to;
	// it is opaque to the pool and echoed back in the Result.
	RelPath string
	// AbsPath is the filesystem path to read.
	AbsPath string
}

// newHash constructs a hash.Hash for the named algorithm.
func newHash(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "", "MD5":
		return md5.New(), nil
	case "SHA256":
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported checksum algorithm: %s", algorithm)
	}
}

// Digest computes the hex-encoded digest of the file at path using the named
// algorithm, reading in ChunkSize pieces.
func Digest(path, algorithm string) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("unable to open file for checksum: %w", err)
	}
	defer f.Close()

	buffer := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(h, f, buffer); err != nil {
		return "", fmt.Errorf("unable to read file for checksum: %w", err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// handle processes requests serially, sending exactly one response per
// request, until requests is closed.
func handle(requests <-chan Request, responses chan<- Result, algorithm string) {
	for req := range requests {
		digest, err := Digest(req.AbsPath, algorithm)
		responses <- Result{RelPath: req.RelPath, Digest: digest, Err: err}
	}
}

// ComputeAll digests every request, using poolSize worker goroutines. If
// poolSize is 1, requests are processed sequentially in the calling
// goroutine with no workers spawned. Results are returned in completion
// order, which has no relationship to request order: callers that need
// request order must index results by RelPath.
func ComputeAll(requests []Request, algorithm string, poolSize int) []Result {
	if len(requests) == 0 {
		return nil
	}

	if poolSize <= 1 {
		results := make([]Result, len(requests))
		for i, req := range requests {
			digest, err := Digest(req.AbsPath, algorithm)
			results[i] = Result{RelPath: req.RelPath, Digest: digest, Err: err}
		}
		return results
	}

	requestChan := make(chan Request, len(requests))
	responseChan := make(chan Result, len(requests))

	workers := poolSize
	if workers > len(requests) {
		workers = len(requests)
	}
	for i := 0; i < workers; i++ {
		go handle(requestChan, responseChan, algorithm)
	}

	for _, req := range requests {
		requestChan <- req
	}
	close(requestChan)

	results := make([]Result, len(requests))
	for i := range results {
		results[i] = <-responseChan
	}
	return results
}
