package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/facultycredits/internal/app/models"
)

type fakeCatalog struct {
	titles []*models.CreditTitle
	filter models.TitleFilter
	err    error
}

func (f *fakeCatalog) ListTitles(_ context.Context, filter models.TitleFilter) ([]*models.CreditTitle, error) {
	f.filter = filter
	return f.titles, f.err
}

func catalog() *fakeCatalog {
	return &fakeCatalog{titles: []*models.CreditTitle{
		{ID: 1, Title: "Journal Publication", Points: 10, Sign: models.SignPositive, Description: "Article in an indexed journal", Active: true},
		{ID: 2, Title: "Conference Paper", Points: 5, Sign: models.SignPositive, Description: "Paper presented at a peer reviewed conference", Active: true},
		{ID: 3, Title: "Thesis Supervision", Points: 4, Sign: models.SignPositive, Active: true},
	}}
}

func TestRecommendRanksByOverlap(t *testing.T) {
	cat := catalog()
	m := NewCatalogMatcher(cat)

	got, err := m.Recommend(context.Background(), "Published two journal articles in indexed journals", 0)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, int64(1), got[0].TitleID)
	assert.Equal(t, int64(10), got[0].SuggestedPoints)
	assert.Contains(t, got[0].Rationale, "journal")
	assert.Equal(t, models.TitleFilter{Sign: models.SignPositive, ActiveOnly: true}, cat.filter)

	for _, s := range got {
		assert.NotEqual(t, int64(3), s.TitleID, "no shared keyword with supervision")
	}
}

func TestRecommendLimitAndEmptyInput(t *testing.T) {
	m := NewCatalogMatcher(catalog())

	got, err := m.Recommend(context.Background(), "paper journal thesis conference supervision", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = m.Recommend(context.Background(), "  a an of  ", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommendPropagatesCatalogErrors(t *testing.T) {
	cat := catalog()
	cat.err = errors.New("db down")
	_, err := NewCatalogMatcher(cat).Recommend(context.Background(), "journal", 1)
	assert.ErrorIs(t, err, cat.err)
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, map[string]bool{"journal": true, "article": true, "class": true}, keywords("The journal's Articles, class!"))
}
