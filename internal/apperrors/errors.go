package apperrors

import "errors"

var (
	// ErrInvalidIdentifier is returned when a table or column name does not match [A-Za-z0-9_]+.
	// Identifiers are checked before any SQL text is built.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidPagination is returned for a non-positive page size or a negative offset.
	ErrInvalidPagination = errors.New("invalid pagination")

	// ErrMetadataUnavailable marks a failed catalog query.
	ErrMetadataUnavailable = errors.New("metadata unavailable")

	// ErrQueryExecutionFailed marks a row, count or maintenance query that failed at the database.
	ErrQueryExecutionFailed = errors.New("query execution failed")
)

// IsValidation reports whether err was rejected before reaching the database.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidIdentifier) || errors.Is(err, ErrInvalidPagination)
}
