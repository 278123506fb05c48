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

	"github.com/fyrsmithlabs/projectindex/internal/ghstore/ghstoretest"
)

func TestRawReader_Fetch(t *testing.T) {
	fake := ghstoretest.NewServer(t, "acme", "index", "main", "projects.json", []byte(testDocument))
	cfg := Config{Owner: "acme", Repo: "index", Branch: "main", Path: "projects.json", RawBaseURL: fake.RawURL()}

	t.Run("downloads content with cache busting", func(t *testing.T) {
		reader, err := NewRawReader(nil, cfg)
		require.NoError(t, err)
		reader.now = func() time.Time { return time.UnixMilli(1700000000123) }

		snap, err := reader.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, testDocument, string(snap.Content))
		assert.Empty(t, snap.Version, "raw reads carry no version")

		queries := fake.RawQueries()
		require.NotEmpty(t, queries)
		assert.Equal(t, "t=1700000000123", queries[len(queries)-1])
	})

	t.Run("non-success status is an error", func(t *testing.T) {
		reader, err := NewRawReader(nil, Config{Owner: "acme", Repo: "index", Branch: "dev", Path: "projects.json", RawBaseURL: fake.RawURL()})
		require.NoError(t, err)

		_, err = reader.Fetch(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		big := ghstoretest.NewServer(t, "acme", "index", "main", "projects.json", []byte(strings.Repeat(" ", maxRawSize+1)))
		reader, err := NewRawReader(nil, Config{Owner: "acme", Repo: "index", Branch: "main", Path: "projects.json", RawBaseURL: big.RawURL()})
		require.NoError(t, err)

		_, err = reader.Fetch(context.Background())
		require.ErrorIs(t, err, ErrDocumentTooLarge)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusOK, apiErr.StatusCode)
		assert.Contains(t, apiErr.Error(), "document too large")
	})

	t.Run("unreachable host is an error without status", func(t *testing.T) {
		reader, err := NewRawReader(nil, Config{Owner: "acme", Repo: "index", Path: "projects.json", RawBaseURL: "http://127.0.0.1:1"})
		require.NoError(t, err)

		_, err = reader.Fetch(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Zero(t, apiErr.StatusCode)
	})
}

func TestRawReader_URL(t *testing.T) {
	reader, err := NewRawReader(nil, Config{Owner: "vickaul-ai", Repo: "vercel-project-index", Path: "projects.json"})
	require.NoError(t, err)

	got := reader.URL(time.UnixMilli(42))
	assert.Equal(t, "https://raw.githubusercontent.com/vickaul-ai/vercel-project-index/main/projects.json?t=42", got)
}
