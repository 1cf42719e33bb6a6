package githubactions

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

var (
	ErrAuthFailed  = errors.New("authentication failed")
	ErrRateLimited = errors.New("rate limited")
	ErrNotFound    = errors.New("not found")
)

// APIError is a non-success response from the GitHub API.
type APIError struct {
	StatusCode int
	Body       string
	// RateLimitRemaining is the X-RateLimit-Remaining header, -1 when absent.
	RateLimitRemaining int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GitHub API error %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps the status code onto the package sentinels so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode == http.StatusForbidden && e.RateLimitRemaining == 0:
		return ErrRateLimited
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ErrAuthFailed
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// TransportError is a request that never produced an HTTP response.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserError wraps errors with user-friendly messages
type UserError struct {
	Message string
	Hint    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += "\n\nHint: " + e.Hint
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n\nDetails: %v", e.Err)
	}
	return msg
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// WrapError converts API errors to user-friendly messages for CLI output
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrRateLimited) {
		return &UserError{
			Message: "GitHub rate limit exceeded",
			Hint:    "Wait for the limit to reset or use a token with a higher quota.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrAuthFailed) {
		return &UserError{
			Message: "Authentication failed",
			Hint:    "Check that GITHUB_TOKEN is valid and can read Actions artifacts of the repository.",
			Err:     err,
		}
	}

	if errors.Is(err, ErrNotFound) {
		return &UserError{
			Message: "Repository or run not found",
			Hint:    "Check BUILDMIRROR_OWNER and BUILDMIRROR_REPO and that the token has access to the repository.",
			Err:     err,
		}
	}

	return err
}

func parseRateLimitRemaining(h http.Header) int {
	v := h.Get("X-RateLimit-Remaining")
	if v == "" {
		return -1
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
