package search

import "errors"

var (
	// ErrEmptyQuery indicates a blank search query.
	ErrEmptyQuery = errors.New("search query must not be empty")
	// ErrInvalidDocumentType indicates an unknown document type filter.
	ErrInvalidDocumentType = errors.New("invalid document type")
	// ErrNotFoundOrDenied indicates the reference document does not exist,
	// is inactive, or belongs to another user. The three cases are
	// deliberately indistinguishable to the caller.
	ErrNotFoundOrDenied = errors.New("document not found or access denied")
)
