package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/projectindex/internal/ghstore"
	"github.com/fyrsmithlabs/projectindex/internal/ghstore/ghstoretest"
)

// testDocument is laid out exactly as the updater writes documents, so
// untouched content compares byte for byte after an update.
const testDocument = `{
  "projects": [
    {
      "name": "api-gateway",
      "title": "API Gateway",
      "purpose": "Routes edge traffic",
      "category": "client",
      "tags": [
        "api",
        "edge"
      ],
      "created": "2024-01-01",
      "lastUpdated": "2024-05-01",
      "deployment": {
        "region": "iad1",
        "framework": "nextjs"
      }
    },
    {
      "name": "paper-notes",
      "title": null,
      "purpose": "Reading notes <draft> & summaries",
      "category": "research",
      "created": "2024-02-01",
      "lastUpdated": "2024-02-10",
      "url": "https://notes.example.com"
    }
  ],
  "categories": [
    "client",
    "research"
  ]
}
`

func newTestStore(t *testing.T) (*ghstore.ContentsStore, *ghstoretest.Server) {
	t.Helper()

	fake := ghstoretest.NewServer(t, "acme", "index", "main", "projects.json", []byte(testDocument))
	cfg := ghstore.Config{
		Owner:      "acme",
		Repo:       "index",
		Branch:     "main",
		Path:       "projects.json",
		Token:      "ghp_test",
		APIBaseURL: fake.APIURL(),
		Timeout:    5 * time.Second,
	}
	fake.RequireToken("ghp_test")

	client, err := ghstore.NewClient(context.Background(), cfg)
	require.NoError(t, err)
	store, err := ghstore.NewContentsStore(client, cfg)
	require.NoError(t, err)
	return store, fake
}

func strPtr(s string) *string {
	return &s
}
