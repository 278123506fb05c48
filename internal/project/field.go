package project

import "fmt"

// Field names a mutable record field by its JSON key.
type Field string

// Editable fields. Name is the record key and is never editable.
const (
	FieldTitle       Field = "title"
	FieldPurpose     Field = "purpose"
	FieldCategory    Field = "category"
	FieldCreated     Field = "created"
	FieldLastUpdated Field = "lastUpdated"
	FieldURL         Field = "url"
)

// FieldName is the immutable key field.
const FieldName Field = "name"

var editableFields = map[Field]bool{
	FieldTitle:       true,
	FieldPurpose:     true,
	FieldCategory:    true,
	FieldCreated:     true,
	FieldLastUpdated: true,
	FieldURL:         true,
}

// ParseField resolves a field name to an editable Field.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if f == FieldName {
		return "", fmt.Errorf("field %q is immutable", s)
	}
	if !editableFields[f] {
		return "", fmt.Errorf("unknown field %q", s)
	}
	return f, nil
}

// Nullable reports whether the field may be cleared to null.
func (f Field) Nullable() bool {
	return f == FieldTitle || f == FieldURL
}

// Normalize maps an empty value to nil. Callers decide whether nil is
// acceptable for the field.
func Normalize(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	v := *value
	return &v
}

// Set assigns value to field f on r. A nil value clears nullable fields and
// empties required ones.
func (r *Record) Set(f Field, value *string) {
	str := ""
	if value != nil {
		str = *value
	}
	switch f {
	case FieldTitle:
		r.Title = cloneString(value)
	case FieldURL:
		r.URL = cloneString(value)
	case FieldPurpose:
		r.Purpose = str
	case FieldCategory:
		r.Category = str
	case FieldCreated:
		r.Created = str
	case FieldLastUpdated:
		r.LastUpdated = str
	}
}
