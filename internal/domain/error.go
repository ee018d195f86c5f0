package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("pass not found")
	ErrDuplicateCode      = errors.New("pass code already exists")
	ErrAlreadyConsumed    = errors.New("pass already consumed")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrEncodingFailed     = errors.New("code image encoding failed")
)
