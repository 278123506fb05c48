package ghstore

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"
)

// APIError describes a failed call to GitHub.
type APIError struct {
	// Op is "read" or "write".
	Op string

	// StatusCode is the HTTP status, or 0 when no response arrived.
	StatusCode int

	// Message is GitHub's own explanation when it sent one.
	Message string

	Err error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("github %s failed: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("github %s failed (status %d): %s", e.Op, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status GitHub answered with, or 0.
func (e *APIError) Status() int {
	return e.StatusCode
}

// Reason returns GitHub's explanation of the failure.
func (e *APIError) Reason() string {
	return e.Message
}

// Conflict reports whether GitHub rejected a write because the supplied
// version no longer matches the stored file.
func (e *APIError) Conflict() bool {
	return e.StatusCode == http.StatusConflict
}

// newAPIError extracts the status and upstream message from a go-github call.
func newAPIError(op string, resp *github.Response, err error) *APIError {
	apiErr := &APIError{
		Op:         op,
		StatusCode: getStatusCode(resp),
		Message:    err.Error(),
		Err:        err,
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		if ghErr.Message != "" {
			apiErr.Message = ghErr.Message
		}
		if ghErr.Response != nil {
			apiErr.StatusCode = ghErr.Response.StatusCode
		}
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Message != "" {
		apiErr.Message = rateErr.Message
	}

	return apiErr
}

// getStatusCode safely extracts the HTTP status code from a GitHub response.
func getStatusCode(resp *github.Response) int {
	if resp != nil && resp.Response != nil {
		return resp.Response.StatusCode
	}
	return 0
}
