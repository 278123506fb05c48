package catalog

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/projectindex/internal/logging"
	"github.com/fyrsmithlabs/projectindex/internal/project"
)

func TestUpdater_UpdateTitle(t *testing.T) {
	store, fake := newTestStore(t)
	tl := logging.NewTestLogger()
	updater := NewUpdater(store, tl.Logger)

	got, err := updater.UpdateTitle(context.Background(), "api-gateway", strPtr("Edge Router"))
	require.NoError(t, err)

	assert.Equal(t, "api-gateway", got.Name)
	assert.Equal(t, project.FieldTitle, got.Field)
	require.NotNil(t, got.Value)
	assert.Equal(t, "Edge Router", *got.Value)
	assert.Equal(t, fake.SHA(), string(got.Version))

	want := strings.Replace(testDocument, `"title": "API Gateway"`, `"title": "Edge Router"`, 1)
	assert.Equal(t, want, string(fake.Content()), "only the title changes")

	commits := fake.Commits()
	require.Len(t, commits, 1)
	assert.Equal(t, "Update title for api-gateway", commits[0].Message)
	assert.Equal(t, "main", commits[0].Branch)

	tl.AssertLogged(t, zapcore.InfoLevel, "field updated")
	tl.AssertField(t, "field updated", "project.name", "api-gateway")
	tl.AssertNoSecrets(t)
}

func TestUpdater_ClearNormalizesToNull(t *testing.T) {
	for name, value := range map[string]*string{"empty": strPtr(""), "nil": nil} {
		t.Run(name, func(t *testing.T) {
			store, fake := newTestStore(t)
			updater := NewUpdater(store, nil)

			got, err := updater.UpdateTitle(context.Background(), "api-gateway", value)
			require.NoError(t, err)
			assert.Nil(t, got.Value)

			want := strings.Replace(testDocument, `"title": "API Gateway"`, `"title": null`, 1)
			assert.Equal(t, want, string(fake.Content()))
		})
	}
}

func TestUpdater_UpdateField(t *testing.T) {
	t.Run("required field", func(t *testing.T) {
		store, fake := newTestStore(t)
		updater := NewUpdater(store, nil)

		_, err := updater.UpdateField(context.Background(), "paper-notes", "lastUpdated", strPtr("2024-07-04"))
		require.NoError(t, err)

		want := strings.Replace(testDocument, `"lastUpdated": "2024-02-10"`, `"lastUpdated": "2024-07-04"`, 1)
		assert.Equal(t, want, string(fake.Content()))
		assert.Equal(t, "Update lastUpdated for paper-notes", fake.Commits()[0].Message)
	})

	t.Run("absent optional field is appended", func(t *testing.T) {
		store, fake := newTestStore(t)
		updater := NewUpdater(store, nil)

		_, err := updater.UpdateField(context.Background(), "api-gateway", "url", strPtr("https://gw.example.com/?a=1&b=<2>"))
		require.NoError(t, err)

		content := string(fake.Content())
		assert.Contains(t, content, `"url": "https://gw.example.com/?a=1&b=<2>"`, "no HTML escaping")
		assert.Greater(t, strings.Index(content, `"url": "https://gw`), strings.Index(content, `"framework"`))
		assert.True(t, strings.HasSuffix(content, "}\n"))

		doc, err := project.ParseDocument(fake.Content())
		require.NoError(t, err)
		assert.Equal(t, "https://gw.example.com/?a=1&b=<2>", *doc.Projects[0].URL)
		assert.Equal(t, []string{"api", "edge"}, doc.Projects[0].Tags)
		assert.Equal(t, "https://notes.example.com", *doc.Projects[1].URL)
	})

	t.Run("clearing url writes null", func(t *testing.T) {
		store, fake := newTestStore(t)
		updater := NewUpdater(store, nil)

		_, err := updater.UpdateField(context.Background(), "paper-notes", "url", nil)
		require.NoError(t, err)

		want := strings.Replace(testDocument, `"url": "https://notes.example.com"`, `"url": null`, 1)
		assert.Equal(t, want, string(fake.Content()))
	})
}

func TestUpdater_Validation(t *testing.T) {
	tests := []struct {
		name    string
		project string
		field   string
		value   *string
		message string
	}{
		{"missing name", "", "title", strPtr("x"), "Project name is required"},
		{"immutable name", "api-gateway", "name", strPtr("x"), `Invalid field: field "name" is immutable`},
		{"unknown field", "api-gateway", "owner", strPtr("x"), `Invalid field: unknown field "owner"`},
		{"clearing required field", "api-gateway", "purpose", strPtr(""), `Field "purpose" cannot be cleared`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, fake := newTestStore(t)
			updater := NewUpdater(store, nil)

			_, err := updater.UpdateField(context.Background(), tt.project, tt.field, tt.value)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.message, err.Error())
			assert.Zero(t, fake.Reads(), "rejected before any I/O")
			assert.Zero(t, fake.Writes())
		})
	}
}

func TestUpdater_NotConfigured(t *testing.T) {
	updater := NewUpdater(nil, nil)
	assert.False(t, updater.Configured())

	_, err := updater.UpdateTitle(context.Background(), "api-gateway", strPtr("x"))
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = updater.UpdateTitle(context.Background(), "", strPtr("x"))
	assert.ErrorIs(t, err, ErrValidation, "validation is reported first")
}

func TestUpdater_NotFound(t *testing.T) {
	store, fake := newTestStore(t)
	updater := NewUpdater(store, nil)
	before := testutil.ToFloat64(NewMetrics().UpdatesTotal.WithLabelValues(outcomeNotFound))

	_, err := updater.UpdateTitle(context.Background(), "does-not-exist", strPtr("x"))
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, errors.Is(err, ErrUpstreamRead))

	assert.Equal(t, 1, fake.Reads())
	assert.Zero(t, fake.Writes(), "no write call")
	assert.Equal(t, testDocument, string(fake.Content()))
	assert.Equal(t, before+1, testutil.ToFloat64(NewMetrics().UpdatesTotal.WithLabelValues(outcomeNotFound)))
}

func TestUpdater_SequentialUpdatesSeeEachOther(t *testing.T) {
	store, fake := newTestStore(t)
	updater := NewUpdater(store, nil)
	ctx := context.Background()

	first, err := updater.UpdateTitle(ctx, "api-gateway", strPtr("X"))
	require.NoError(t, err)
	second, err := updater.UpdateTitle(ctx, "api-gateway", strPtr("Y"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Version, second.Version)
	assert.Equal(t, 2, fake.Reads())
	assert.Len(t, fake.Commits(), 2)

	doc, err := project.ParseDocument(fake.Content())
	require.NoError(t, err)
	assert.Equal(t, "Y", *doc.Projects[0].Title)
}

func TestUpdater_StaleVersionConflicts(t *testing.T) {
	store, fake := newTestStore(t)
	loser := NewUpdater(store, nil)
	winner := NewUpdater(store, nil)
	before := testutil.ToFloat64(NewMetrics().UpdatesTotal.WithLabelValues(outcomeConflict))

	// The winner commits between the loser's read and write.
	var winnerErr error
	fake.AfterNextRead(func() {
		_, winnerErr = winner.UpdateTitle(context.Background(), "api-gateway", strPtr("First"))
	})

	_, err := loser.UpdateTitle(context.Background(), "api-gateway", strPtr("Second"))
	require.NoError(t, winnerErr)

	require.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, ErrUpstreamWrite)

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusConflict, upstream.StatusCode)
	assert.True(t, upstream.Conflict)

	doc, err := project.ParseDocument(fake.Content())
	require.NoError(t, err)
	assert.Equal(t, "First", *doc.Projects[0].Title, "only the first writer's change")
	assert.Len(t, fake.Commits(), 1)
	assert.Equal(t, before+1, testutil.ToFloat64(NewMetrics().UpdatesTotal.WithLabelValues(outcomeConflict)))
}

func TestUpdater_UpstreamFailures(t *testing.T) {
	t.Run("read failure", func(t *testing.T) {
		store, fake := newTestStore(t)
		fake.FailReads(http.StatusInternalServerError)

		_, err := NewUpdater(store, nil).UpdateTitle(context.Background(), "api-gateway", strPtr("x"))
		require.ErrorIs(t, err, ErrUpstreamRead)
		assert.False(t, errors.Is(err, ErrUpstreamWrite))

		var upstream *UpstreamError
		require.ErrorAs(t, err, &upstream)
		assert.Equal(t, http.StatusInternalServerError, upstream.StatusCode)
		assert.Zero(t, fake.Writes())
	})

	t.Run("write failure", func(t *testing.T) {
		store, fake := newTestStore(t)
		fake.FailWrites(http.StatusInternalServerError)

		_, err := NewUpdater(store, nil).UpdateTitle(context.Background(), "api-gateway", strPtr("x"))
		require.ErrorIs(t, err, ErrUpstreamWrite)
		assert.False(t, errors.Is(err, ErrConflict))
		assert.Equal(t, "Internal Server Error", err.Error(), "upstream message is surfaced")
	})

	t.Run("malformed document", func(t *testing.T) {
		store, fake := newTestStore(t)
		fake.SetContent([]byte(`["not", "a", "document"]`))

		_, err := NewUpdater(store, nil).UpdateTitle(context.Background(), "api-gateway", strPtr("x"))
		require.ErrorIs(t, err, ErrUpstreamRead)
		assert.ErrorIs(t, err, project.ErrMalformedDocument)
		assert.Zero(t, fake.Writes())
	})
}
