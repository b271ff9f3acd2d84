package sharepoint

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spgo/sharepoint-go/internal/spapi"
)

func TestAuthError(t *testing.T) {
	cause := errors.New("boom")
	err := &AuthError{Site: "https://x/sites/y", Err: cause}

	assert.Equal(t, "sharepoint: authenticating to https://x/sites/y: boom", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestRemoteError_UnwrapsToSentinel(t *testing.T) {
	apiErr := &spapi.APIError{StatusCode: 404, Message: "gone", Err: spapi.ErrNotFound}
	err := &RemoteError{Op: "downloading file", Path: "/sites/a/b", Err: apiErr}

	assert.Equal(t, "sharepoint: downloading file /sites/a/b: spapi: HTTP 404: gone", err.Error())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, spapi.ErrNotFound)

	var unwrapped *spapi.APIError
	assert.ErrorAs(t, err, &unwrapped)
	assert.Equal(t, 404, unwrapped.StatusCode)
}

func TestLocalError(t *testing.T) {
	cause := errors.New("permission denied")
	err := &LocalError{Op: "writing local file", Path: "/tmp/x", Err: cause}

	assert.Equal(t, "sharepoint: writing local file /tmp/x: permission denied", err.Error())
	assert.ErrorIs(t, err, cause)
}
