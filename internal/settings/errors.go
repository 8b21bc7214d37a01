package settings

import (
	"errors"
	"fmt"
)

var (
	// ErrAttributeMissing is returned when the configuration lacks a top-level name.
	ErrAttributeMissing = errors.New("configuration attribute missing")
	// ErrAttributeType is returned when a top-level value or binding entry has an unexpected shape.
	ErrAttributeType = errors.New("configuration attribute has unexpected type")
	// ErrIndexOutOfRange is returned when no binding exists at the requested index.
	ErrIndexOutOfRange = errors.New("keybinding index out of range")
	// ErrInvalidConfiguration is returned when a configuration file cannot be parsed.
	ErrInvalidConfiguration = errors.New("invalid configuration file")
	// ErrStarterExists is returned by WriteStarter when a configuration is already present.
	ErrStarterExists = errors.New("configuration file already exists")
)

// AttributeError ties a lookup failure to the attribute it concerns.
type AttributeError struct {
	Name string
	Err  error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Name, e.Err)
}

func (e *AttributeError) Unwrap() error {
	return e.Err
}
