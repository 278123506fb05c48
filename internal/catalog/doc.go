// Package catalog implements the two operations on the project document:
// loading it for display and committing a single-field change.
//
// The two have opposite failure policies, encoded in their signatures.
// Accessor.Load returns a document and no error; remote failures fall back
// to a local copy and are only logged. Updater.UpdateField returns an error
// for every failure so the caller learns whether the commit happened.
//
// Update errors are classified with errors.Is:
//
//	ErrValidation     bad request, nothing was read
//	ErrConfiguration  no credentialed store, nothing was read
//	ErrNotFound       no record with that name, nothing was written
//	ErrUpstreamRead   the document could not be fetched or parsed
//	ErrUpstreamWrite  the commit failed
//	ErrConflict       the commit failed because the document changed
package catalog
