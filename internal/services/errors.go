package services

import "errors"

// Common service errors
var (
	ErrNotFound               = errors.New("record not found")
	ErrForbidden              = errors.New("outside caller property scope")
	ErrInvalidTransition      = errors.New("illegal status transition")
	ErrInvalidState           = errors.New("approval request already decided")
	ErrConcurrentModification = errors.New("reservation modified concurrently, retry")
	ErrValidation             = errors.New("invalid input")
)
