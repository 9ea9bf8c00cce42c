package index

import (
	"strings"
	"testing"

	"inkpress/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collection = `[
  {"id": "b", "slug": "b", "title": "B", "date": "2023-05-01", "category": "MLOps", "featured": "true"},
  {"id": "a", "slug": "a", "title": "A", "date": "2024-01-10", "category": "AI/ML"},
  {"id": "c", "slug": "c", "title": "C", "date": "soon", "category": "mlops"},
  {"id": "d", "slug": "d", "title": "D", "date": "", "publishDate": "2022-02-02", "category": "AI/ML"}
]`

func TestDecode_Lookup(t *testing.T) {
	idx, err := Decode(strings.NewReader(collection))
	require.NoError(t, err)

	assert.Equal(t, 4, idx.Len())

	s, ok := idx.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "A", s.Title)

	_, ok = idx.Lookup("missing")
	assert.False(t, ok)
}

func TestIndex_Filters(t *testing.T) {
	idx, err := Decode(strings.NewReader(collection))
	require.NoError(t, err)

	assert.Len(t, idx.ByCategory("mlops"), 2)
	require.Len(t, idx.Featured(), 1)
	assert.Equal(t, "b", idx.Featured()[0].Slug)
	assert.Equal(t, []string{"MLOps", "AI/ML", "mlops"}, idx.Categories())
}

func TestSortByDate(t *testing.T) {
	idx, err := Decode(strings.NewReader(collection))
	require.NoError(t, err)

	var slugs []string
	for _, s := range SortByDate(idx.All()) {
		slugs = append(slugs, s.Slug)
	}

	assert.Equal(t, []string{"a", "b", "d", "c"}, slugs)
	assert.Equal(t, "b", idx.All()[0].Slug, "sorting must not reorder the snapshot")
}

func TestNew_FirstSlugWins(t *testing.T) {
	idx := New([]model.Summary{{Slug: "x", Title: "first"}, {Slug: "x", Title: "second"}})

	s, _ := idx.Lookup("x")
	assert.Equal(t, "first", s.Title)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode(strings.NewReader("{not json"))
	assert.Error(t, err)
}
