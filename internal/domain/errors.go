package domain

import "errors"

// Sentinel errors for template storage operations
var (
	// ErrImageIO indicates an image could not be compressed, written or read
	ErrImageIO = errors.New("image i/o failed")

	// ErrEncoding indicates the template collection could not be serialized
	ErrEncoding = errors.New("template encoding failed")

	// ErrDecoding indicates the persisted template collection is corrupt
	ErrDecoding = errors.New("template decoding failed")

	// ErrServiceUnavailable indicates the persistence layer or asset directory cannot be reached
	ErrServiceUnavailable = errors.New("storage service is unavailable")

	// ErrInvalidTemplate indicates a template is missing its id or carries an unknown enum value
	ErrInvalidTemplate = errors.New("invalid template")
)
