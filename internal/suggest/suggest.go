package suggest

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// genreNames is the curated candidate set for genre autocomplete.
var genreNames = []string{
	"Adventure",
	"Biography",
	"Classics",
	"Crime",
	"Fantasy",
	"Historical Fiction",
	"History",
	"Horror",
	"Mystery",
	"Poetry",
	"Romance",
	"Science Fiction",
	"Short Stories",
	"Thriller",
	"Young Adult",
}

// recentYearSpan is how many calendar years back the year candidates reach.
const recentYearSpan = 10

// Catalog holds the fixed candidate lists both inputs autocomplete against.
// The lists are computed once and never mutated; filtering returns fresh
// slices.
type Catalog struct {
	genres []string
	years  []string
}

// NewCatalog builds the candidate lists. Year candidates are the
// recentYearSpan most recent calendar years counting down from currentYear.
func NewCatalog(currentYear int) *Catalog {
	years := make([]string, 0, recentYearSpan)
	for y := currentYear; y > currentYear-recentYearSpan; y-- {
		years = append(years, strconv.Itoa(y))
	}
	return &Catalog{
		genres: genreNames,
		years:  years,
	}
}

// Genres returns the full genre candidate list.
func (c *Catalog) Genres() []string {
	return c.genres
}

// Years returns the full year candidate list, most recent first.
func (c *Catalog) Years() []string {
	return c.years
}

// FilterGenres returns the genres containing the query, case-insensitively.
func (c *Catalog) FilterGenres(query string) []string {
	return filter(c.genres, query)
}

// FilterYears returns the years containing the query.
func (c *Catalog) FilterYears(query string) []string {
	return filter(c.years, query)
}

// filter does case-folded substring containment, preserving candidate order.
// Empty input yields no suggestions.
func filter(candidates []string, query string) []string {
	query = fold(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	var matched []string
	for _, candidate := range candidates {
		if strings.Contains(fold(candidate), query) {
			matched = append(matched, candidate)
		}
	}
	return matched
}

// fold lowercases via Unicode case folding. A Caser is stateful, so each
// call builds its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
