// Package ghstore reads and writes the project document hosted in a GitHub
// repository. The contents API gives versioned reads and conditional writes;
// the raw-content endpoint gives cheap unauthenticated reads.
package ghstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/projectindex/internal/config"
)

// Config locates the document and the endpoints that serve it.
type Config struct {
	Owner  string
	Repo   string
	Branch string
	Path   string

	// Token authenticates contents API calls. Reads of public repositories
	// work without it; writes do not.
	Token config.Secret

	// APIBaseURL overrides https://api.github.com/ (GitHub Enterprise, tests).
	APIBaseURL string

	// RawBaseURL overrides https://raw.githubusercontent.com.
	RawBaseURL string

	// Timeout bounds each HTTP call. Zero leaves the transport default.
	Timeout time.Duration
}

// DefaultRawBaseURL serves unauthenticated raw file content.
const DefaultRawBaseURL = "https://raw.githubusercontent.com"

// Validate checks that the document location is complete.
func (c Config) Validate() error {
	if c.Owner == "" {
		return fmt.Errorf("github owner is required")
	}
	if c.Repo == "" {
		return fmt.Errorf("github repo is required")
	}
	if c.Path == "" {
		return fmt.Errorf("document path is required")
	}
	if strings.Contains(c.Path, "..") || strings.HasPrefix(c.Path, "/") {
		return fmt.Errorf("invalid document path: %s", c.Path)
	}
	return nil
}

// NewClient creates a GitHub client, authenticated when cfg.Token is set.
func NewClient(ctx context.Context, cfg Config) (*github.Client, error) {
	base := &http.Client{Timeout: cfg.Timeout}

	httpClient := base
	if cfg.Token.IsSet() {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token.Value()})
		httpClient = oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
		httpClient.Timeout = cfg.Timeout
	}

	client := github.NewClient(httpClient)
	if cfg.APIBaseURL != "" {
		u, err := url.Parse(withTrailingSlash(cfg.APIBaseURL))
		if err != nil {
			return nil, fmt.Errorf("invalid github api url %q: %w", cfg.APIBaseURL, err)
		}
		client.BaseURL = u
	}
	return client, nil
}

func withTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
