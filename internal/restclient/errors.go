package restclient

import (
	"errors"
	"fmt"
	"net/http"
)

// TransientError covers connection failures, 5xx responses, and rate limits
// that survived the whole retry schedule.
type TransientError struct {
	Status  int
	URL     string
	Message string
	Err     error
}

func (e *TransientError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("transient error on %s: %v", e.URL, e.Err)
	case e.Message != "":
		return fmt.Sprintf("transient error on %s: %d %s", e.URL, e.Status, e.Message)
	default:
		return fmt.Sprintf("transient error on %s: %d", e.URL, e.Status)
	}
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermissionError is a 403. It is never retried per-call; the reconciler
// tracks consecutive occurrences and fails fast.
type PermissionError struct {
	URL     string
	Message string
}

func (e *PermissionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("permission denied on %s: %s", e.URL, e.Message)
	}
	return fmt.Sprintf("permission denied on %s", e.URL)
}

// ValidationError is any 4xx other than 403/429. The offending node or asset
// is skipped; sibling work continues.
type ValidationError struct {
	Status  int
	URL     string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request rejected on %s: %d %s", e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("request rejected on %s: %d", e.URL, e.Status)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) && ve.Status == http.StatusNotFound
}
