// Package http provides the REST surface for the conversion lifecycle.
//
// # Endpoints
//
//	POST /convert/{variant}  multipart upload, 303 See Other to the status view
//	GET  /status/{id}        lifecycle state: pending, done or error
//	GET  /download/{id}      converted bytes as an attachment while the record lives
//	GET  /health             liveness probe
//
// Uploads carry a single "file" field; the part's declared Content-Type must
// exactly match what the variant accepts. Status and download answer 404
// uniformly for ids that never existed, expired, or have not finished —
// callers cannot distinguish the cases.
package http
