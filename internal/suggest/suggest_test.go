package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCatalogYears(t *testing.T) {
	catalog := NewCatalog(2026)

	years := catalog.Years()
	assert.Len(t, years, 10)
	assert.Equal(t, "2026", years[0])
	assert.Equal(t, "2017", years[9])
}

func TestFilterGenres(t *testing.T) {
	catalog := NewCatalog(2026)

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"exact fragment", "fan", []string{"Fantasy"}},
		{"uppercase query", "FAN", []string{"Fantasy"}},
		{"mid-word fragment", "fiction", []string{"Historical Fiction", "Science Fiction"}},
		{"single letter", "z", nil},
		{"empty input", "", nil},
		{"whitespace only", "   ", nil},
		{"full name", "Horror", []string{"Horror"}},
		{"no match", "cooking", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, catalog.FilterGenres(tt.query))
		})
	}
}

func TestFilterYears(t *testing.T) {
	catalog := NewCatalog(2026)

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"decade prefix", "202", []string{"2026", "2025", "2024", "2023", "2022", "2021", "2020"}},
		{"single year", "2019", []string{"2019"}},
		{"suffix fragment", "17", []string{"2017"}},
		{"empty input", "", nil},
		{"out of range", "1999", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, catalog.FilterYears(tt.query))
		})
	}
}

func TestFilterPreservesCandidateOrder(t *testing.T) {
	got := filter([]string{"Science Fiction", "Historical Fiction"}, "fiction")
	assert.Equal(t, []string{"Science Fiction", "Historical Fiction"}, got)
}

func TestCandidateListsAreStable(t *testing.T) {
	catalog := NewCatalog(2026)

	before := len(catalog.Genres())
	catalog.FilterGenres("fan")
	catalog.FilterYears("202")

	assert.Len(t, catalog.Genres(), before)
	assert.Contains(t, catalog.Genres(), "Fantasy")
}
