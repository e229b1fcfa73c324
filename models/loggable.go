package models

import "fmt"

// Loggable is implemented by any entity whose data changes are audit logged.
//
// OriginalAttributes and ChangedAttributes describe the same set of changed
// fields, before and after an update.
type Loggable interface {
	// LoggingID returns the entity identifier, stringified even when numeric
	LoggingID() string

	// LoggingType returns a type tag for the entity
	LoggingType() string

	// RedactFields returns the attribute names whose values must never be logged.
	// Fields that are already encrypted at rest do not need to be listed.
	RedactFields() []string

	// LoggingAttributes returns the current attribute snapshot (create/delete)
	LoggingAttributes() (*Attributes, error)

	// OriginalAttributes returns the pre-update values of the changed fields
	OriginalAttributes() (*Attributes, error)

	// ChangedAttributes returns the post-update values of the changed fields
	ChangedAttributes() (*Attributes, error)
}

// RedactionSource computes the fields to redact for an attribute set
type RedactionSource interface {
	FieldsFor(attrs *Attributes) []string
}

// MissingKeyError is returned by attribute accessors when a key they were
// asked for does not exist.
type MissingKeyError struct {
	Key string
}

// Error implements the error interface
func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("attribute %q not found", e.Key)
}
