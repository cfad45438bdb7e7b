package model

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind classifies a resolution failure so callers can tell "no release
// existed" apart from "could not determine".
type Kind string

const (
	// KindNotFound means the repository, commit or tag does not exist.
	KindNotFound Kind = "NOT_FOUND"

	// KindRateLimited means the provider quota is exhausted. Retryable.
	KindRateLimited Kind = "RATE_LIMITED"

	// KindTransientNetwork covers connectivity failures, timeouts and 5xx
	// responses. Retryable.
	KindTransientNetwork Kind = "TRANSIENT_NETWORK"

	// KindUnexpectedResponse means the response did not have the expected
	// shape.
	KindUnexpectedResponse Kind = "UNEXPECTED_RESPONSE"

	// KindNoReleaseAvailable means no tag precedes the target instant.
	KindNoReleaseAvailable Kind = "NO_RELEASE_AVAILABLE"

	// KindConfiguration means required configuration, such as the API
	// token, is missing or rejected.
	KindConfiguration Kind = "CONFIGURATION"

	// KindInvalidInput means the caller supplied an unusable argument.
	KindInvalidInput Kind = "INVALID_INPUT"
)

// Retryable reports whether failures of this kind may succeed on retry.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindTransientNetwork
}

// Error is a typed resolution failure.
type Error struct {
	Kind Kind    // Failure classification
	Op   string  // Operation that failed, e.g. "fetch commit"
	Repo RepoRef // Repository involved, if any

	// Pages is the number of tag pages successfully consumed before a
	// pagination failure. Zero for non-paginated operations.
	Pages int

	// RetryAfter is the provider-suggested wait for rate limits, if known.
	RetryAfter time.Duration

	Err error // Underlying cause (optional)
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, op string, repo RepoRef, err error) *Error {
	return &Error{Kind: kind, Op: op, Repo: repo, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if !e.Repo.IsZero() {
		msg += " " + e.Repo.FullName()
	}
	if e.Pages > 0 {
		msg += fmt.Sprintf(" (after %d page(s))", e.Pages)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure may succeed on retry.
func (e *Error) Retryable() bool {
	return e.Kind.Retryable()
}

// KindOf extracts the Kind from err. It returns the empty Kind for errors
// that are not *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// PagesFetched returns the number of tag pages consumed before err, or 0.
func PagesFetched(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Pages
	}
	return 0
}

// Describe returns a short user-facing explanation of err.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "resolution cancelled"
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	subject := "the repository"
	if !e.Repo.IsZero() {
		subject = e.Repo.FullName()
	}
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("%s: not found (%s)", subject, e.Op)
	case KindRateLimited:
		msg := fmt.Sprintf("%s: rate limited by the hosting provider", subject)
		if e.Pages > 0 {
			msg += fmt.Sprintf(" after %d tag page(s)", e.Pages)
		}
		if e.RetryAfter > 0 {
			msg += fmt.Sprintf("; retry in %s", e.RetryAfter.Round(time.Second))
		}
		return msg
	case KindTransientNetwork:
		return fmt.Sprintf("%s: network error, try again later: %v", subject, e.Err)
	case KindUnexpectedResponse:
		return fmt.Sprintf("%s: unexpected response from the hosting provider: %v", subject, e.Err)
	case KindNoReleaseAvailable:
		return fmt.Sprintf("%s: no release existed at the requested time", subject)
	case KindConfiguration:
		return fmt.Sprintf("configuration error: %v", e.Err)
	case KindInvalidInput:
		return fmt.Sprintf("invalid input: %v", e.Err)
	default:
		return e.Error()
	}
}
