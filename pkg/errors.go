package mobileversion

import (
	"errors"
	"fmt"
)

// Sentinel errors returned (wrapped) by the library. Use errors.Is to match.
var (
	// ErrConfiguration covers an invalid release type or a missing required input.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrMultipleMatch is returned when single-match mode is on and a pattern matches more than one file.
	ErrMultipleMatch = errors.New("pattern matched more than one file")
	// ErrNoMatchingFiles is returned when neither the Android nor the iOS patterns match anything.
	ErrNoMatchingFiles = errors.New("no matching files found")
	// ErrFileNotFound is returned by the rewriter when a located file disappeared before it was rewritten.
	ErrFileNotFound = errors.New("file not found")
	// ErrInvalidSemanticVersion is returned when a value cannot be parsed as a semantic version.
	ErrInvalidSemanticVersion = errors.New("invalid semantic version")
	// ErrVersionIncrement is returned when the batch-wide highest version cannot be incremented.
	ErrVersionIncrement = errors.New("error while incrementing semantic version")
	// ErrNoVersionData is returned when synchronized mode finds no counters or no semantic versions.
	ErrNoVersionData = errors.New("no version data found")
	// ErrGit wraps failures of the optional commit step.
	ErrGit = errors.New("git operation failed")
)

// MultipleMatchError names the pattern that broke the single-match constraint.
type MultipleMatchError struct {
	Pattern string
	Count   int
}

func (e *MultipleMatchError) Error() string {
	return fmt.Sprintf("expected exactly one result for %s, but found %d matching files", e.Pattern, e.Count)
}

// Unwrap lets errors.Is(err, ErrMultipleMatch) succeed.
func (e *MultipleMatchError) Unwrap() error {
	return ErrMultipleMatch
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
