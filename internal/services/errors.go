package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors classify failures across the discovery, reconciliation, and
// download phases. Wrap tags errors with one of these markers so callers can
// decide between aborting the run, retrying, or recording a per-item failure.
var (
	ErrAuth          = errors.New("authentication error")
	ErrRateLimited   = errors.New("rate limited")
	ErrNotFound      = errors.New("not found")
	ErrConfigCorrupt = errors.New("configuration corrupt")
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether the error class is worth retrying with backoff.
// Only rate limiting and transient upstream failures qualify; auth and
// not-found errors never resolve themselves.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient)
}

// IsFatal reports whether the error must abort the run before any download
// work starts.
func IsFatal(err error) bool {
	switch {
	case errors.Is(err, ErrAuth),
		errors.Is(err, ErrConfigCorrupt),
		errors.Is(err, ErrExternalTool),
		errors.Is(err, ErrValidation):
		return true
	}
	return false
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
