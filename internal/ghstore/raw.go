package ghstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fyrsmithlabs/projectindex/internal/project"
)

// maxRawSize caps raw document downloads.
const maxRawSize = 10 << 20

// ErrDocumentTooLarge is returned when the raw document exceeds maxRawSize.
var ErrDocumentTooLarge = errors.New("document too large")

// RawReader fetches the document from the raw-content host without
// authentication. Every request carries a timestamp query parameter and
// no-cache headers so CDN copies are bypassed. It cannot supply a version.
type RawReader struct {
	httpClient *http.Client
	baseURL    string
	owner      string
	repo       string
	branch     string
	path       string
	now        func() time.Time
}

// NewRawReader creates a raw reader for the document described by cfg.
// A nil httpClient uses one bounded by cfg.Timeout.
func NewRawReader(httpClient *http.Client, cfg Config) (*RawReader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	base := cfg.RawBaseURL
	if base == "" {
		base = DefaultRawBaseURL
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	return &RawReader{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(base, "/"),
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		branch:     branch,
		path:       cfg.Path,
		now:        time.Now,
	}, nil
}

// URL returns the cache-busted document URL for the given instant.
func (r *RawReader) URL(at time.Time) string {
	u := fmt.Sprintf("%s/%s/%s/%s/%s",
		r.baseURL,
		url.PathEscape(r.owner),
		url.PathEscape(r.repo),
		url.PathEscape(r.branch),
		r.path,
	)
	return u + "?t=" + strconv.FormatInt(at.UnixMilli(), 10)
}

// Fetch downloads the current document content.
func (r *RawReader) Fetch(ctx context.Context) (project.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL(r.now()), nil)
	if err != nil {
		return project.Snapshot{}, fmt.Errorf("failed to build raw request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return project.Snapshot{}, &APIError{Op: "read", Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return project.Snapshot{}, &APIError{
			Op:         "read",
			StatusCode: resp.StatusCode,
			Message:    "Failed to fetch projects",
		}
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxRawSize+1))
	if err != nil {
		return project.Snapshot{}, &APIError{
			Op:         "read",
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("failed to read body: %v", err),
			Err:        err,
		}
	}
	if len(content) > maxRawSize {
		return project.Snapshot{}, &APIError{
			Op:         "read",
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("document too large (max %d bytes)", maxRawSize),
			Err:        ErrDocumentTooLarge,
		}
	}
	return project.Snapshot{Content: content}, nil
}
