package sharepoint

import (
	"fmt"

	"github.com/spgo/sharepoint-go/internal/spapi"
)

// Sentinel errors re-exported from the REST layer so callers can classify
// remote failures without importing internal packages.
// Use errors.Is(err, sharepoint.ErrNotFound) to check.
var (
	ErrNotFound     = spapi.ErrNotFound
	ErrForbidden    = spapi.ErrForbidden
	ErrUnauthorized = spapi.ErrUnauthorized
	ErrConflict     = spapi.ErrConflict
	ErrAuthFailed   = spapi.ErrAuthFailed
)

// AuthError reports rejected credentials or an unreachable site at client
// construction. It is fatal: no session handle is produced and the client
// performs no retry.
type AuthError struct {
	Site string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("sharepoint: authenticating to %s: %v", e.Site, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// RemoteError reports a failed remote call. Path is the server-relative
// path the operation attempted.
type RemoteError struct {
	Op   string
	Path string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("sharepoint: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// LocalError reports a local filesystem failure. Path is the local path the
// operation attempted.
type LocalError struct {
	Op   string
	Path string
	Err  error
}

func (e *LocalError) Error() string {
	return fmt.Sprintf("sharepoint: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LocalError) Unwrap() error {
	return e.Err
}
