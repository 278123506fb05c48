package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/fyrsmithlabs/projectindex/internal/project"
)

// locate returns the index of the first record in content whose name equals
// name, or -1. Content that is not a document with a projects array is
// malformed.
func locate(content []byte, name string) (int, error) {
	if !gjson.ValidBytes(content) {
		return -1, fmt.Errorf("%w: invalid JSON", project.ErrMalformedDocument)
	}
	projects := gjson.GetBytes(content, "projects")
	if !projects.IsArray() {
		return -1, fmt.Errorf("%w: projects is not an array", project.ErrMalformedDocument)
	}

	for i, rec := range projects.Array() {
		if n := rec.Get("name"); n.Type == gjson.String && n.Str == name {
			return i, nil
		}
	}
	return -1, nil
}

// setField rewrites one field of the record at index idx and returns the
// whole document re-serialized with two-space indentation and a trailing
// newline. Every other byte of data survives, including keys this service
// does not model and the order of keys within each record.
func setField(content []byte, idx int, field project.Field, value *string) ([]byte, error) {
	raw := []byte("null")
	if value != nil {
		var err error
		if raw, err = encodeString(*value); err != nil {
			return nil, err
		}
	}

	path := fmt.Sprintf("projects.%d.%s", idx, field)
	updated, err := sjson.SetRawBytes(content, path, raw)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", path, err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(updated), "", "  "); err != nil {
		return nil, fmt.Errorf("indent document: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// encodeString returns s as a JSON string literal without HTML escaping.
func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
