// Package domain defines domain-specific errors.
// These errors represent logic failures and are independent of infrastructure.
package domain

import (
	"errors"
	"fmt"
)

// Common errors that services can return.
var (
	// ErrDuplicateSong is returned when an uploaded song's ID already exists in the list.
	ErrDuplicateSong = errors.New("song already exists")

	// ErrSongNotFound is returned when a requested song cannot be found.
	ErrSongNotFound = errors.New("song not found")

	// ErrInvalidIndex is returned when a scene, theme or song index is out of bounds.
	ErrInvalidIndex = errors.New("invalid index")

	// ErrInvalidVolume is returned when the volume is out of valid range (0.0-1.0).
	ErrInvalidVolume = errors.New("invalid volume: must be between 0.0 and 1.0")

	// ErrInvalidPosition is returned when seeking to an invalid position.
	ErrInvalidPosition = errors.New("invalid playback position")

	// ErrDuplicateTheme is returned when a theme name is already used in the collection.
	ErrDuplicateTheme = errors.New("theme already exists")

	// ErrLastTheme is returned when deleting the only remaining theme.
	ErrLastTheme = errors.New("cannot delete the last theme")

	// ErrInvalidTheme is returned when a theme or color fails validation.
	ErrInvalidTheme = errors.New("invalid theme")

	// ErrPlaylistEmpty is returned when an operation requires a non-empty song list.
	ErrPlaylistEmpty = errors.New("song list is empty")

	// ErrNotInitialized is returned when an operation is attempted on an uninitialized component.
	ErrNotInitialized = errors.New("component not initialized")

	// ErrAlreadyInitialized is returned when attempting to initialize an already initialized component.
	ErrAlreadyInitialized = errors.New("component already initialized")

	// ErrUnsupportedFormat is returned when an audio file format is not supported.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrNoTrackLoaded is returned when playback is attempted with no song loaded.
	ErrNoTrackLoaded = errors.New("no track loaded")

	// ErrStaleLoad is returned when a song load finished after a newer one was requested.
	ErrStaleLoad = errors.New("song load superseded by a newer request")

	// ErrSceneDestroyed is returned when a destroyed scene is asked to change.
	ErrSceneDestroyed = errors.New("scene destroyed")

	// ErrInvalidFieldValue is returned when a scene tunable is set outside its bounds.
	ErrInvalidFieldValue = errors.New("invalid field value")

	// ErrEmptyRegistry is returned when a scene manager has no scenes to build.
	ErrEmptyRegistry = errors.New("scene registry is empty")
)

// AudioEngineError represents an error from the audio transport.
// This wraps decoder and device errors with additional context.
type AudioEngineError struct {
	Op      string // Operation that failed (e.g., "load", "play", "seek")
	Path    string // Source locator (if applicable)
	Message string // Error message
	Err     error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *AudioEngineError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("audio engine %s failed for '%s': %s", e.Op, e.Path, e.Message)
	}
	return fmt.Sprintf("audio engine %s failed: %s", e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *AudioEngineError) Unwrap() error {
	return e.Err
}

// NewAudioEngineError creates a new AudioEngineError.
func NewAudioEngineError(op, path, message string, err error) *AudioEngineError {
	return &AudioEngineError{
		Op:      op,
		Path:    path,
		Message: message,
		Err:     err,
	}
}

// RepositoryError represents an error from a repository.
// This wraps persistence layer errors with additional context.
type RepositoryError struct {
	Op      string // Operation that failed (e.g., "save", "load")
	Type    string // Repository type (e.g., "settings")
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s.%s failed: %s", e.Type, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new RepositoryError.
func NewRepositoryError(op, repoType, message string, err error) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Type:    repoType,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Value   any    // Value that failed validation
	Message string // Error message
	Err     error  // Sentinel describing the failure class
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

// Unwrap returns the sentinel error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value any, message string, err error) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Err:     err,
	}
}

// ServiceError represents an error from a service layer operation.
type ServiceError struct {
	Service string // Service name (e.g., "StateStore", "SettingsService")
	Op      string // Operation that failed
	Message string // Error message
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	return fmt.Sprintf("service %s.%s failed: %s", e.Service, e.Op, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, op, message string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Message: message,
		Err:     err,
	}
}
