package services

import "errors"

// Prepare service errors
var (
	// ErrInvalidMode is returned for a split mode other than fixed or walk_forward
	ErrInvalidMode = errors.New("invalid split mode")
)
