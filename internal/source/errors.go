package source

import "errors"

// ErrConfigurationNotFound is returned when neither the user nor the system
// directory provides a loadable configuration file.
var ErrConfigurationNotFound = errors.New("configuration not found")
