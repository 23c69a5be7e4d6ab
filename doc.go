// Package vanish implements an ephemeral file conversion lifecycle: an
// uploaded file is run through a conversion routine and the result stays
// downloadable for a bounded time window before it is automatically
// discarded.
//
// # Key Components
//
//   - Service: orchestrates the upload → convert → expire lifecycle
//   - Registry: in-memory id → Record map, the single source of truth for
//     lifecycle state
//   - Backend: uniform storage contract with filesystem and S3-compatible
//     blob implementations
//   - Scheduler: cancellable one-shot deferred tasks driving cleanup
//
// # Lifecycle
//
// Submit validates the declared content type, durably stores the original,
// registers a pending record and detaches the conversion. On success the
// record turns done and the result stays downloadable for the done TTL; on
// failure the record turns error, the original is discarded immediately and
// the record lingers only long enough for one status poll to observe it.
// Cleanup removes the record and both storage keys exactly once; all
// deletions are best-effort and idempotent.
//
// Nothing is persisted: a process restart loses all records and pending
// deletions.
//
// See the http package for the REST surface and the filesystem and blob
// packages for the storage backends.
package vanish
