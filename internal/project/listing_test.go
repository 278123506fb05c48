package project

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListing_ApplyUpdate(t *testing.T) {
	t.Run("patches only the named record", func(t *testing.T) {
		doc := sampleDocument()
		l := NewListing(doc)

		ok := l.ApplyUpdate("paper-notes", FieldTitle, strPtr("Paper Notes"))
		require.True(t, ok)

		got := l.Snapshot()
		require.NotNil(t, got.Projects[1].Title)
		assert.Equal(t, "Paper Notes", *got.Projects[1].Title)

		got.Projects[1].Title = nil
		assert.Equal(t, doc, got, "no other field or record should change")
	})

	t.Run("clears nullable field", func(t *testing.T) {
		l := NewListing(sampleDocument())

		require.True(t, l.ApplyUpdate("api-gateway", FieldTitle, nil))

		r, ok := l.Get("api-gateway")
		require.True(t, ok)
		assert.Nil(t, r.Title)
	})

	t.Run("reports unknown record", func(t *testing.T) {
		l := NewListing(sampleDocument())
		assert.False(t, l.ApplyUpdate("missing", FieldTitle, strPtr("x")))
	})

	t.Run("does not alias the hydrating document", func(t *testing.T) {
		doc := sampleDocument()
		l := NewListing(doc)

		l.ApplyUpdate("api-gateway", FieldPurpose, strPtr("changed"))
		assert.Equal(t, "Routes traffic to backend services", doc.Projects[0].Purpose)
	})
}

func TestListing_SnapshotIsolation(t *testing.T) {
	l := NewListing(sampleDocument())

	snap := l.Snapshot()
	*snap.Projects[0].Title = "mutated"
	snap.Projects[0].Tags[0] = "mutated"

	r, ok := l.Get("api-gateway")
	require.True(t, ok)
	assert.Equal(t, "Public API Gateway", *r.Title)
	assert.Equal(t, "nextjs", r.Tags[0])
}

func TestListing_Replace(t *testing.T) {
	l := NewListing(sampleDocument())
	l.Replace(Document{Categories: []string{"client"}})

	assert.Empty(t, l.Filter("", ""))
	assert.Equal(t, []string{"client"}, l.Categories())
	assert.Equal(t, 0, l.Stats().Total)
}

func TestListing_ConcurrentAccess(t *testing.T) {
	l := NewListing(sampleDocument())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l.ApplyUpdate("api-gateway", FieldTitle, strPtr("t"))
		}()
		go func() {
			defer wg.Done()
			_ = l.Filter("client", "api")
			_ = l.Stats()
		}()
	}
	wg.Wait()

	r, _ := l.Get("api-gateway")
	assert.Equal(t, "t", *r.Title)
}
