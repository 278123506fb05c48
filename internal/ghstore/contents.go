package ghstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v57/github"

	"github.com/fyrsmithlabs/projectindex/internal/project"
)

// ErrMissingVersion is returned when a write is attempted without the
// version obtained from a prior read.
var ErrMissingVersion = errors.New("version marker required for conditional write")

// ContentsStore reads and writes the document through the GitHub contents
// API. Reads carry the blob SHA as the version marker; writes are rejected
// by GitHub with 409 when that SHA is stale.
type ContentsStore struct {
	client *github.Client
	owner  string
	repo   string
	branch string
	path   string
}

// NewContentsStore creates a store for the document described by cfg.
func NewContentsStore(client *github.Client, cfg Config) (*ContentsStore, error) {
	if client == nil {
		return nil, fmt.Errorf("github client cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ContentsStore{
		client: client,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: cfg.Branch,
		path:   cfg.Path,
	}, nil
}

// Fetch returns the current document content and its SHA.
func (s *ContentsStore) Fetch(ctx context.Context) (project.Snapshot, error) {
	opts := &github.RepositoryContentGetOptions{Ref: s.branch}
	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, s.path, opts)
	if err != nil {
		return project.Snapshot{}, newAPIError("read", resp, err)
	}
	if file == nil {
		return project.Snapshot{}, &APIError{
			Op:         "read",
			StatusCode: getStatusCode(resp),
			Message:    fmt.Sprintf("%s is a directory", s.path),
		}
	}

	content, err := file.GetContent()
	if err != nil {
		return project.Snapshot{}, &APIError{
			Op:         "read",
			StatusCode: getStatusCode(resp),
			Message:    fmt.Sprintf("failed to decode file content: %v", err),
			Err:        err,
		}
	}

	return project.Snapshot{
		Content: []byte(content),
		Version: project.VersionMarker(file.GetSHA()),
	}, nil
}

// Commit overwrites the document with content as a single commit, provided
// the stored file still has the given version. It returns the new version.
func (s *ContentsStore) Commit(ctx context.Context, content []byte, message string, version project.VersionMarker) (project.VersionMarker, error) {
	if version == "" {
		return "", ErrMissingVersion
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		SHA:     github.String(string(version)),
	}
	if s.branch != "" {
		opts.Branch = github.String(s.branch)
	}

	result, resp, err := s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, s.path, opts)
	if err != nil {
		return "", newAPIError("write", resp, err)
	}
	if result == nil || result.Content == nil {
		return "", nil
	}
	return project.VersionMarker(result.Content.GetSHA()), nil
}
