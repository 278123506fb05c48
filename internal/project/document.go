// Package project holds the project index data model: the document persisted
// in the remote store, the records it lists, and the in-memory listing the
// HTTP layer serves from.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
)

// VersionMarker identifies the exact persisted content of a document at read
// time. For GitHub it is the blob SHA. It is opaque to everything but the
// store that issued it.
type VersionMarker string

// Snapshot is the raw document content and the version it was read at.
// Readers that cannot supply a version (raw content fetches) leave it empty.
type Snapshot struct {
	Content []byte
	Version VersionMarker
}

// Document is the full persisted project index.
type Document struct {
	Projects   []Record `json:"projects"`
	Categories []string `json:"categories"`
}

// Record is one deployed project.
type Record struct {
	Name        string   `json:"name"`
	Title       *string  `json:"title"`
	Purpose     string   `json:"purpose"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags,omitempty"`
	Created     string   `json:"created"`
	LastUpdated string   `json:"lastUpdated"`
	URL         *string  `json:"url,omitempty"`
}

// ErrMalformedDocument is returned when content is not a project document.
var ErrMalformedDocument = errors.New("malformed project document")

// ParseDocument decodes content into a Document.
//
// The content must be a JSON object with a projects array. A missing
// categories key decodes to an empty list.
func ParseDocument(content []byte) (Document, error) {
	var raw struct {
		Projects   *[]Record `json:"projects"`
		Categories []string  `json:"categories"`
	}
	if err := json.Unmarshal(content, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if raw.Projects == nil {
		return Document{}, fmt.Errorf("%w: projects is not an array", ErrMalformedDocument)
	}
	return Document{Projects: *raw.Projects, Categories: raw.Categories}, nil
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := Document{
		Projects:   make([]Record, len(d.Projects)),
		Categories: append([]string(nil), d.Categories...),
	}
	for i, r := range d.Projects {
		out.Projects[i] = r.Clone()
	}
	return out
}

// Find returns the index of the record named name, or -1.
func (d Document) Find(name string) int {
	for i := range d.Projects {
		if d.Projects[i].Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Title = cloneString(r.Title)
	out.URL = cloneString(r.URL)
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	return out
}

// DisplayTitle returns the title when set, falling back to the name.
func (r Record) DisplayTitle() string {
	if r.Title != nil && *r.Title != "" {
		return *r.Title
	}
	return r.Name
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
