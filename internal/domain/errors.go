package domain

import "errors"

// Sentinel errors surfaced to API callers. Wrap with fmt.Errorf("...: %w")
// so handlers can classify with errors.Is.
var (
	// ErrNotFound marks lookups by unknown id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidSourceType marks a source type with no registered adapter.
	ErrInvalidSourceType = errors.New("invalid source type")

	// ErrQuotaExceeded marks a plan limit hit (e.g. RSS source count).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrForbidden marks operations not allowed on builtin sources.
	ErrForbidden = errors.New("forbidden")

	// ErrSummarizerUnavailable marks a missing or misconfigured AI provider.
	// Report generation treats it as non-fatal.
	ErrSummarizerUnavailable = errors.New("summarizer unavailable")
)
