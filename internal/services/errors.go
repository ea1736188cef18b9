package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks structurally unusable input, such as an extracted
	// profile missing required fields. Always fatal to the run.
	ErrValidation = errors.New("validation error")
	// ErrProvider marks a failed extraction or scoring call. Retryable; fatal
	// only when the owning node is blocking and retries are exhausted.
	ErrProvider = errors.New("provider error")
	// ErrTimeout marks a node attempt or sub-call that exceeded its budget.
	ErrTimeout = errors.New("timeout")
	// ErrDeadEnd marks a workflow-assembly bug: traversal reached a node whose
	// outgoing edges all evaluated false, or exceeded the step ceiling.
	ErrDeadEnd = errors.New("workflow dead end")
	// ErrCache marks a cache store read or write failure. Never fatal.
	ErrCache = errors.New("cache error")
	// ErrConfiguration marks invalid or missing configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes node context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, node, operation, message string, err error) error {
	detail := buildDetail(node, operation, message)
	if marker == nil {
		marker = ErrProvider
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an error is worth another attempt. Validation
// failures and assembly bugs never are; provider and timeout failures are.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrDeadEnd):
		return false
	default:
		return true
	}
}

func buildDetail(node, operation, message string) string {
	parts := make([]string, 0, 3)
	if node = strings.TrimSpace(node); node != "" {
		parts = append(parts, node)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
