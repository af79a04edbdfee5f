package analyses

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrEmptyText is returned before any provider call when there is nothing to analyze.
	ErrEmptyText = errors.New("document text is empty")
	// ErrTextTooShort means the text is below the minimum viable length.
	ErrTextTooShort = errors.New("document text is too short to analyze")
)

const (
	ErrorCodeValidation   = "VALIDATION_ERROR"
	ErrorCodeEmptyText    = "EMPTY_TEXT"
	ErrorCodeInsufficient = "INSUFFICIENT_TEXT"
	ErrorCodeProvider     = "PROVIDER_ERROR"
	ErrorCodeNotFound     = "NOT_FOUND"
	ErrorCodeInternal     = "INTERNAL_ERROR"
)
