// Package domain defines domain-level errors for the analysis feature.
package domain

import "errors"

// Domain errors for record editing.
// Callers wrap them with context and match with errors.Is.
var (
	// ErrInvalidValue indicates an update value that is empty after trimming.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnknownTarget indicates an update addressing a section, field,
	// dimension or column outside the record schema.
	ErrUnknownTarget = errors.New("unknown target")
)

// Service-level errors for stored analyses.
var (
	// ErrAnalysisNotFound is returned when no analysis exists for an ID.
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrVersionConflict is returned when a stored analysis changed between
	// load and save.
	ErrVersionConflict = errors.New("analysis version conflict")

	// ErrInvalidCompanyName is returned for empty, oversized or malformed company names.
	ErrInvalidCompanyName = errors.New("invalid company name")
)
