// Package advisor suggests catalog titles for a free-text achievement
// description. Suggestions are advisory and never touch the ledger.
package advisor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/yigit/facultycredits/internal/app/models"
)

// DefaultLimit is used when Recommend gets a non-positive limit
const DefaultLimit = 3

// Suggestion is one ranked catalog match
type Suggestion struct {
	TitleID         int64   `json:"titleId"`
	Title           string  `json:"title"`
	SuggestedPoints int64   `json:"suggestedPoints"`
	Score           float64 `json:"score"`
	Rationale       string  `json:"rationale"`
}

// Recommender ranks catalog titles for an achievement description
type Recommender interface {
	Recommend(ctx context.Context, description string, limit int) ([]Suggestion, error)
}

// TitleLister is the part of the catalog the matcher reads
type TitleLister interface {
	ListTitles(ctx context.Context, filter models.TitleFilter) ([]*models.CreditTitle, error)
}

// CatalogMatcher ranks active positive titles by keyword overlap with the
// description.
type CatalogMatcher struct {
	titles TitleLister
}

// NewCatalogMatcher creates a CatalogMatcher
func NewCatalogMatcher(titles TitleLister) *CatalogMatcher {
	return &CatalogMatcher{titles: titles}
}

// Recommend returns at most limit suggestions, best first. Titles sharing no
// keyword with the description are left out.
func (m *CatalogMatcher) Recommend(ctx context.Context, description string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	wanted := keywords(description)
	if len(wanted) == 0 {
		return []Suggestion{}, nil
	}

	titles, err := m.titles.ListTitles(ctx, models.TitleFilter{Sign: models.SignPositive, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("error listing credit titles: %w", err)
	}

	suggestions := make([]Suggestion, 0, len(titles))
	for _, title := range titles {
		titleWords := keywords(title.Title + " " + title.Description)
		if len(titleWords) == 0 {
			continue
		}
		var matched []string
		for word := range titleWords {
			if wanted[word] {
				matched = append(matched, word)
			}
		}
		if len(matched) == 0 {
			continue
		}
		sort.Strings(matched)
		suggestions = append(suggestions, Suggestion{
			TitleID:         title.ID,
			Title:           title.Title,
			SuggestedPoints: title.Points,
			Score:           float64(len(matched)) / float64(len(titleWords)),
			Rationale:       "Matches keywords: " + strings.Join(matched, ", "),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].TitleID < suggestions[j].TitleID
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

var stopWords = map[string]bool{
	"and": true, "the": true, "for": true, "with": true, "from": true, "into": true,
	"that": true, "this": true, "was": true, "were": true, "are": true, "has": true,
	"have": true, "had": true, "our": true, "their": true, "his": true, "her": true,
	"its": true, "per": true, "any": true, "all": true, "not": true,
}

// keywords lowercases text and keeps words of three or more letters that are
// not stop words, with a trailing plural "s" removed.
func keywords(text string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if len([]rune(w)) < 3 || stopWords[w] {
			continue
		}
		if len(w) > 3 && strings.HasSuffix(w, "s") && !strings.HasSuffix(w, "ss") {
			w = strings.TrimSuffix(w, "s")
		}
		set[w] = true
	}
	return set
}
