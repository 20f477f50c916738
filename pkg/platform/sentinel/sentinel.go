// Package sentinel holds infrastructure errors shared by the directory
// stores. Callers match them with errors.Is.
package sentinel

import "errors"

var (
	// ErrNotFound means the entry is absent or expired.
	ErrNotFound = errors.New("not found")
	// ErrUnavailable means the backing store could not be reached; callers
	// fall through to the upstream source.
	ErrUnavailable = errors.New("unavailable")
)
