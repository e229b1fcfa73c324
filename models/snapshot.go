package models

import "fmt"

// Snapshot is a Loggable built from two attribute states: the original state
// (as loaded or last committed) and the current state.
type Snapshot struct {
	ID       string
	Type     string
	Redactor RedactionSource

	original *Attributes
	current  *Attributes
}

// NewSnapshot creates a Snapshot whose original and current state are both attrs
func NewSnapshot(id any, entityType string, attrs *Attributes) *Snapshot {
	return &Snapshot{
		ID:       fmt.Sprint(id),
		Type:     entityType,
		original: attrs.Clone(),
		current:  attrs.Clone(),
	}
}

// WithRedactor sets the redaction source used by RedactFields
func (s *Snapshot) WithRedactor(r RedactionSource) *Snapshot {
	s.Redactor = r
	return s
}

// Apply changes a current attribute value
func (s *Snapshot) Apply(key string, value any) *Snapshot {
	s.current.Set(key, value)
	return s
}

// Commit makes the current state the new original state
func (s *Snapshot) Commit() {
	s.original = s.current.Clone()
}

// LoggingID implements Loggable
func (s *Snapshot) LoggingID() string {
	return s.ID
}

// LoggingType implements Loggable
func (s *Snapshot) LoggingType() string {
	return s.Type
}

// RedactFields implements Loggable
func (s *Snapshot) RedactFields() []string {
	if s.Redactor == nil {
		return nil
	}
	return s.Redactor.FieldsFor(s.current)
}

// LoggingAttributes implements Loggable
func (s *Snapshot) LoggingAttributes() (*Attributes, error) {
	return s.current.Clone(), nil
}

// ChangedAttributes returns current values that are new or differ from the original
func (s *Snapshot) ChangedAttributes() (*Attributes, error) {
	changed := NewAttributes()
	s.current.Each(func(key string, value any) {
		old, ok := s.original.Get(key)
		if !ok || !valuesEqual(old, value) {
			changed.Set(key, value)
		}
	})
	return changed, nil
}

// OriginalAttributes returns the original values of the changed keys.
// A key added since the last commit has no original value.
func (s *Snapshot) OriginalAttributes() (*Attributes, error) {
	changed, err := s.ChangedAttributes()
	if err != nil {
		return nil, err
	}

	original := NewAttributes()
	for _, key := range changed.Keys() {
		value, ok := s.original.Get(key)
		if !ok {
			return nil, &MissingKeyError{Key: key}
		}
		original.Set(key, value)
	}
	return original, nil
}
