package ghstore

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/projectindex/internal/config"
	"github.com/fyrsmithlabs/projectindex/internal/ghstore/ghstoretest"
)

const testDocument = `{
  "projects": [],
  "categories": ["client"]
}
`

func newTestStore(t *testing.T, token config.Secret) (*ContentsStore, *ghstoretest.Server) {
	t.Helper()

	fake := ghstoretest.NewServer(t, "acme", "index", "main", "projects.json", []byte(testDocument))
	cfg := Config{
		Owner:      "acme",
		Repo:       "index",
		Branch:     "main",
		Path:       "projects.json",
		Token:      token,
		APIBaseURL: fake.APIURL(),
		Timeout:    5 * time.Second,
	}

	client, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)

	store, err := NewContentsStore(client, cfg)
	require.NoError(t, err)
	return store, fake
}

func TestContentsStore_Fetch(t *testing.T) {
	t.Run("returns content and blob sha", func(t *testing.T) {
		store, fake := newTestStore(t, "")

		snap, err := store.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testDocument, string(snap.Content))
		assert.Equal(t, fake.SHA(), string(snap.Version))
		assert.Equal(t, 1, fake.Reads())
	})

	t.Run("sends bearer token", func(t *testing.T) {
		store, fake := newTestStore(t, "ghp_test")
		fake.RequireToken("ghp_test")

		_, err := store.Fetch(context.Background())
		require.NoError(t, err)
	})

	t.Run("surfaces upstream status and message", func(t *testing.T) {
		store, fake := newTestStore(t, "")
		fake.RequireToken("expected")

		_, err := store.Fetch(context.Background())
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, "read", apiErr.Op)
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
		assert.Equal(t, "Bad credentials", apiErr.Message)
		assert.False(t, apiErr.Conflict())
	})

	t.Run("missing file is a 404", func(t *testing.T) {
		fake := ghstoretest.NewServer(t, "acme", "index", "main", "other.json", []byte("{}"))
		cfg := Config{Owner: "acme", Repo: "index", Branch: "main", Path: "projects.json", APIBaseURL: fake.APIURL()}
		client, err := NewClient(context.Background(), cfg)
		require.NoError(t, err)
		store, err := NewContentsStore(client, cfg)
		require.NoError(t, err)

		_, err = store.Fetch(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})
}

func TestContentsStore_Commit(t *testing.T) {
	t.Run("writes content with message and branch", func(t *testing.T) {
		store, fake := newTestStore(t, "")
		ctx := context.Background()

		snap, err := store.Fetch(ctx)
		require.NoError(t, err)

		next := strings.Replace(testDocument, `"client"`, `"client", "internal"`, 1)
		version, err := store.Commit(ctx, []byte(next), "Update categories", snap.Version)
		require.NoError(t, err)

		assert.Equal(t, next, string(fake.Content()))
		assert.Equal(t, fake.SHA(), string(version))
		assert.NotEqual(t, snap.Version, version)

		commits := fake.Commits()
		require.Len(t, commits, 1)
		assert.Equal(t, "Update categories", commits[0].Message)
		assert.Equal(t, "main", commits[0].Branch)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		store, fake := newTestStore(t, "")
		ctx := context.Background()

		snap, err := store.Fetch(ctx)
		require.NoError(t, err)

		_, err = store.Commit(ctx, []byte(`{"projects":[],"categories":["first"]}`), "first", snap.Version)
		require.NoError(t, err)

		_, err = store.Commit(ctx, []byte(`{"projects":[],"categories":["second"]}`), "second", snap.Version)
		require.Error(t, err)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.True(t, apiErr.Conflict())
		assert.Equal(t, "write", apiErr.Op)
		assert.Contains(t, apiErr.Message, "does not match")
		assert.Contains(t, string(fake.Content()), "first")
	})

	t.Run("refuses to write without a version", func(t *testing.T) {
		store, fake := newTestStore(t, "")

		_, err := store.Commit(context.Background(), []byte("{}"), "msg", "")
		assert.ErrorIs(t, err, ErrMissingVersion)
		assert.Zero(t, fake.Writes())
	})

	t.Run("server failure is not a conflict", func(t *testing.T) {
		store, fake := newTestStore(t, "")
		ctx := context.Background()

		snap, err := store.Fetch(ctx)
		require.NoError(t, err)

		fake.FailWrites(http.StatusBadGateway)
		_, err = store.Commit(ctx, []byte("{}"), "msg", snap.Version)

		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.False(t, apiErr.Conflict())
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{Owner: "o", Repo: "r", Path: "projects.json"}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing owner", cfg: Config{Repo: "r", Path: "p.json"}},
		{name: "missing repo", cfg: Config{Owner: "o", Path: "p.json"}},
		{name: "missing path", cfg: Config{Owner: "o", Repo: "r"}},
		{name: "traversal", cfg: Config{Owner: "o", Repo: "r", Path: "../p.json"}},
		{name: "absolute", cfg: Config{Owner: "o", Repo: "r", Path: "/p.json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.cfg.Validate())
		})
	}
}

func TestNewClient_BaseURL(t *testing.T) {
	client, err := NewClient(context.Background(), Config{APIBaseURL: "https://ghe.example.com/api/v3"})
	require.NoError(t, err)
	assert.Equal(t, "https://ghe.example.com/api/v3/", client.BaseURL.String())

	_, err = NewContentsStore(nil, Config{Owner: "o", Repo: "r", Path: "p"})
	assert.Error(t, err)
}
