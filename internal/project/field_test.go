package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseField(t *testing.T) {
	for _, name := range []string{"title", "purpose", "category", "created", "lastUpdated", "url"} {
		f, err := ParseField(name)
		require.NoError(t, err, name)
		assert.Equal(t, Field(name), f)
	}

	_, err := ParseField("name")
	assert.EqualError(t, err, `field "name" is immutable`)

	_, err = ParseField("Title")
	assert.EqualError(t, err, `unknown field "Title"`, "field names are case-sensitive")

	_, err = ParseField("tags")
	assert.EqualError(t, err, `unknown field "tags"`)
}

func TestField_Nullable(t *testing.T) {
	assert.True(t, FieldTitle.Nullable())
	assert.True(t, FieldURL.Nullable())
	assert.False(t, FieldPurpose.Nullable())
	assert.False(t, FieldCategory.Nullable())
	assert.False(t, FieldCreated.Nullable())
	assert.False(t, FieldLastUpdated.Nullable())
}

func TestNormalize(t *testing.T) {
	assert.Nil(t, Normalize(nil))
	assert.Nil(t, Normalize(strPtr("")))

	in := strPtr("  spaced  ")
	out := Normalize(in)
	require.NotNil(t, out)
	assert.Equal(t, "  spaced  ", *out, "whitespace is kept")
	assert.NotSame(t, in, out)
}

func TestRecord_Set(t *testing.T) {
	r := Record{Name: "api-gateway", Title: strPtr("Old"), URL: strPtr("https://old.example.com")}

	title := "New"
	r.Set(FieldTitle, &title)
	title = "mutated after set"
	assert.Equal(t, "New", *r.Title)

	r.Set(FieldURL, nil)
	assert.Nil(t, r.URL)

	r.Set(FieldPurpose, strPtr("Routes traffic"))
	r.Set(FieldCategory, strPtr("client"))
	r.Set(FieldCreated, strPtr("2024-01-01"))
	r.Set(FieldLastUpdated, strPtr("2024-02-01"))
	assert.Equal(t, "Routes traffic", r.Purpose)
	assert.Equal(t, "client", r.Category)
	assert.Equal(t, "2024-01-01", r.Created)
	assert.Equal(t, "2024-02-01", r.LastUpdated)
	assert.Equal(t, "api-gateway", r.Name)
}
