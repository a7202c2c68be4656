package plugin

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an identifier unknown to the registry.
var ErrNotFound = errors.New("plugin not found")

// MalformedManifestError reports a unit whose manifest could not be used.
// The unit is excluded from the registry entirely.
type MalformedManifestError struct {
	Dir    string
	Reason string
}

func (e *MalformedManifestError) Error() string {
	return fmt.Sprintf("malformed manifest in %s: %s", e.Dir, e.Reason)
}

// DuplicateIdentifierError reports a unit declaring an identifier already
// claimed by an earlier-discovered unit. The later unit is excluded.
type DuplicateIdentifierError struct {
	Identifier string
	Dir        string // excluded unit
	FirstDir   string // unit that won
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate identifier %q in %s (first declared in %s)", e.Identifier, e.Dir, e.FirstDir)
}

// Diagnostic is one non-fatal discovery problem.
type Diagnostic struct {
	Dir string
	Err error
}
