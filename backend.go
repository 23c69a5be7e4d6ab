package vanish

import (
	"context"
	"io"
)

// Backend is the uniform storage contract the lifecycle service runs on. One
// implementation is chosen at process start and fixed for the process
// lifetime; nothing falls back per request.
//
// Open and Size return ErrNotFound when the key is absent; callers treat that
// the same as an expired record. Delete never fails on a missing key —
// cleanup correctness depends on deletion being idempotent.
type Backend interface {
	// Put durably stores content under key, overwriting any previous value.
	// size may be -1 when the byte count is unknown up front.
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error

	// Open returns a reader over the bytes stored under key. The caller is
	// responsible for closing it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Size reports the stored byte count for key.
	Size(ctx context.Context, key string) (int64, error)

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// LocalPath maps key to a filesystem path when the backend is natively
	// path addressable, letting path-oriented converters work on stored
	// files in place. Backends that require byte-stream round-tripping
	// return false, and the service stages temp files instead.
	LocalPath(key string) (string, bool)
}
