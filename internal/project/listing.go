package project

import "sync"

// Listing is the in-memory project listing served to clients. It is hydrated
// from the remote store and patched in place after successful writes, so it
// never has to re-fetch to reflect an edit.
//
// Listing is safe for concurrent use.
type Listing struct {
	mu  sync.RWMutex
	doc Document
}

// NewListing returns a listing holding doc.
func NewListing(doc Document) *Listing {
	return &Listing{doc: doc.Clone()}
}

// Replace swaps in a freshly hydrated document.
func (l *Listing) Replace(doc Document) {
	doc = doc.Clone()
	l.mu.Lock()
	l.doc = doc
	l.mu.Unlock()
}

// Snapshot returns a copy of the current document.
func (l *Listing) Snapshot() Document {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.doc.Clone()
}

// Get returns a copy of the record named name.
func (l *Listing) Get(name string) (Record, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i := l.doc.Find(name)
	if i < 0 {
		return Record{}, false
	}
	return l.doc.Projects[i].Clone(), true
}

// Filter applies Filter to the current records.
func (l *Listing) Filter(category, term string) []Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	matched := Filter(l.doc.Projects, category, term)
	for i := range matched {
		matched[i] = matched[i].Clone()
	}
	return matched
}

// Stats summarizes the current document.
func (l *Listing) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return Summarize(l.doc)
}

// Categories returns the declared category labels.
func (l *Listing) Categories() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.doc.Categories...)
}

// ApplyUpdate sets field on the record named name. It is the only way the
// listing changes between hydrations. It reports false when no such record
// is listed, which happens when the listing is older than the store.
func (l *Listing) ApplyUpdate(name string, field Field, value *string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.doc.Find(name)
	if i < 0 {
		return false
	}
	l.doc.Projects[i].Set(field, value)
	return true
}
