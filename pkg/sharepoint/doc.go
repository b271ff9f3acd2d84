// Package sharepoint is a thin client for SharePoint Online document
// libraries: authenticated upload, download, folder creation, listing, and
// file metadata retrieval.
//
// A Client authenticates once at construction and reuses the resulting
// session for its lifetime. Every folder and file path passed to a Client is
// relative to the configured document library; the client prefixes it with
// "/sites/{site}/{library}/" before calling the remote API.
//
// All operations are synchronous and blocking, and the client performs no
// retries of its own: transient failures propagate to the caller. The Client
// is intended for single-threaded use; no thread-safety guarantee is made.
//
// Failures are reported through three error types: *AuthError for rejected
// credentials at construction, *RemoteError for failed remote calls, and
// *LocalError for local filesystem failures. All three unwrap to the
// underlying cause, so errors.Is(err, sharepoint.ErrNotFound) and similar
// checks work through the wrappers.
package sharepoint
