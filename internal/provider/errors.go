package provider

import "errors"

// Domain errors. Operations wrap these with fmt.Errorf("%w: ...") so callers
// can match the kind with errors.Is while keeping the detail.
var (
	// ErrInvalidInput covers malformed user input: an empty required field,
	// a non-numeric sort index, an unknown app type, or activating a profile
	// that belongs to a different family.
	ErrInvalidInput = errors.New("invalid input")

	// ErrValidation covers a settings payload that fails its family's schema,
	// such as a codex config block that does not parse as TOML.
	ErrValidation = errors.New("invalid settings")

	// ErrNotFound is returned when an operation targets a nonexistent id.
	ErrNotFound = errors.New("provider not found")

	// ErrConflict is returned when an add collides with an existing id.
	ErrConflict = errors.New("provider id already exists")

	// ErrPersistence is returned when the backing store rejects a write. The
	// in-memory state has been rolled back when this is returned.
	ErrPersistence = errors.New("provider store write failed")
)
