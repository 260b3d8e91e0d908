package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
)

// HTTPError is returned for every non-2xx response. It keeps the status code and the raw
// body so that callers (and errclass) can categorise the failure and extract field errors.
type HTTPError struct {
	StatusCode int
	Body       string
	// Detail is the decoded body when it was valid JSON, nil otherwise
	Detail any
	// CredentialInvalid is set on 401 responses that ended the session
	CredentialInvalid bool
}

func newHTTPError(status int, body []byte) *HTTPError {
	e := &HTTPError{StatusCode: status, Body: string(body)}
	var detail any
	if err := json.Unmarshal(body, &detail); err == nil {
		e.Detail = detail
	}
	return e
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d, body: %s", e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrCredentialInvalid) match a 401 that triggered logout.
func (e *HTTPError) Is(target error) bool {
	return target == apperrors.ErrCredentialInvalid && e.CredentialInvalid
}

func (e *HTTPError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func (e *HTTPError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
