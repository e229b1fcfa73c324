package models

// ChangeKind identifies the lifecycle event of a data change
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Record messages for data change events
const (
	MessageDataCreated = "Data Created"
	MessageDataUpdated = "Data Updated"
	MessageDataDeleted = "Data Deleted"
)

// Keys used inside a data change context entry
const (
	DataChangeKeyID                 = "id"
	DataChangeKeyType               = "data_type"
	DataChangeKeyAttributes         = "attributes"
	DataChangeKeyOriginalAttributes = "original_attributes"
	DataChangeKeyChangedAttributes  = "changed_attributes"
)

// ChangeEvent is a single created/updated/deleted event with redacted attributes
type ChangeEvent struct {
	Kind               ChangeKind
	ID                 string
	Type               string
	Attributes         *Attributes
	OriginalAttributes *Attributes
	ChangedAttributes  *Attributes
}

// NewCreatedEvent creates a ChangeEvent for a created entity
func NewCreatedEvent(id, dataType string, attrs *Attributes) *ChangeEvent {
	return &ChangeEvent{Kind: ChangeCreated, ID: id, Type: dataType, Attributes: attrs}
}

// NewUpdatedEvent creates a ChangeEvent for an updated entity
func NewUpdatedEvent(id, dataType string, original, changed *Attributes) *ChangeEvent {
	return &ChangeEvent{
		Kind:               ChangeUpdated,
		ID:                 id,
		Type:               dataType,
		OriginalAttributes: original,
		ChangedAttributes:  changed,
	}
}

// NewDeletedEvent creates a ChangeEvent for a deleted entity
func NewDeletedEvent(id, dataType string, attrs *Attributes) *ChangeEvent {
	return &ChangeEvent{Kind: ChangeDeleted, ID: id, Type: dataType, Attributes: attrs}
}

// Message returns the record message for the event kind
func (e *ChangeEvent) Message() string {
	switch e.Kind {
	case ChangeUpdated:
		return MessageDataUpdated
	case ChangeDeleted:
		return MessageDataDeleted
	default:
		return MessageDataCreated
	}
}

// Context returns the log context, with the event nested under the data_changed category key
func (e *ChangeEvent) Context() map[string]any {
	entry := map[string]any{
		DataChangeKeyID:   e.ID,
		DataChangeKeyType: e.Type,
	}
	if e.Kind == ChangeUpdated {
		entry[DataChangeKeyOriginalAttributes] = orEmpty(e.OriginalAttributes)
		entry[DataChangeKeyChangedAttributes] = orEmpty(e.ChangedAttributes)
	} else {
		entry[DataChangeKeyAttributes] = orEmpty(e.Attributes)
	}

	return map[string]any{
		string(CategoryDataChanged): entry,
	}
}

func orEmpty(a *Attributes) *Attributes {
	if a == nil {
		return NewAttributes()
	}
	return a
}
