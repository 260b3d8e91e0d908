package errors

import (
	"errors"
	"fmt"
)

// Common error types for the appeals client
var (
	// Credential errors
	ErrTokenNotFound         = errors.New("authentication token not found")
	ErrIncompleteCredentials = errors.New("access token and refresh token are required")
	ErrCredentialInvalid     = errors.New("credential invalid or expired")
	ErrSessionEnded          = errors.New("session ended before sign-in completed")

	// Transport errors
	ErrServerUnreachable = errors.New("server unreachable")
	ErrTimeout           = errors.New("request timed out")
	ErrNetwork           = errors.New("network request failed")

	// Local validation errors
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrInvalidResponseID = errors.New("valid response ID is required")
	ErrInvalidID         = errors.New("valid ID is required")
	ErrEmptyAppealText   = errors.New("appeal text is required")
	ErrInvalidCategory   = errors.New("valid category is required")
	ErrInvalidPagination = errors.New("limit must be positive and offset non-negative")

	// Response errors
	ErrUnexpectedContent = errors.New("unexpected response content type")
	ErrLoginFailed       = errors.New("login failed, check your credentials")

	// Storage errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
