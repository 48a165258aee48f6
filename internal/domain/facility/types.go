package facility

import "errors"

var (
	ErrEmptyID           = errors.New("facility id cannot be empty")
	ErrEmptyName         = errors.New("facility name cannot be empty")
	ErrInvalidRate       = errors.New("facility rate must be positive")
	ErrInvalidCapacity   = errors.New("facility capacity must be positive")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	ErrDuplicateID       = errors.New("duplicate facility id")
)
