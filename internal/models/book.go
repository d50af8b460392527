package models

import "time"

// BookSummary is one search hit as returned by the book search API,
// in server order. ID is the Open Library work key (e.g. "/works/OL45883W").
type BookSummary struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Authors          []string `json:"authors,omitempty"`
	FirstPublishYear int      `json:"first_publish_year,omitempty"`
	CoverID          int      `json:"cover_id,omitempty"`
}

// BookDetail holds the per-work enrichment fields from the detail lookup.
type BookDetail struct {
	PageCount   int    `json:"page_count,omitempty"`
	Description string `json:"description,omitempty"`
}

// Recommendation is a search hit merged with its enrichment, ready to render.
// Items whose detail lookup failed keep their summary fields and carry no
// page count or description.
type Recommendation struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Authors          []string `json:"authors,omitempty"`
	FirstPublishYear int      `json:"first_publish_year,omitempty"`
	CoverID          int      `json:"cover_id,omitempty"`
	CoverURL         string   `json:"cover_url"`
	PageCount        int      `json:"page_count,omitempty"`
	Description      string   `json:"description,omitempty"`
}

// SearchQuery is the genre/year pair submitted to the search API.
// Both fields are free text; the year is passed through unvalidated.
type SearchQuery struct {
	Genre string `json:"genre"`
	Year  string `json:"year"`
}

// User represents a registered user
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// SavedBook is a recommendation pinned to an owner's shelf.
type SavedBook struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id,omitempty"`
	WorkID           string    `json:"work_id"`
	Title            string    `json:"title"`
	Authors          string    `json:"authors,omitempty"` // Comma-separated
	FirstPublishYear int       `json:"first_publish_year,omitempty"`
	CoverURL         string    `json:"cover_url"`
	PageCount        int       `json:"page_count,omitempty"`
	Description      string    `json:"description,omitempty"`
	SavedAt          time.Time `json:"saved_at"`
}

// SearchRecord is one row of an owner's search history.
type SearchRecord struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Genre     string    `json:"genre"`
	Year      string    `json:"year"`
	Results   int       `json:"results"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Search history statuses.
const (
	SearchStatusOK    = "ok"
	SearchStatusError = "error"
)

// SearchStats aggregates an owner's search activity.
type SearchStats struct {
	TotalSearches  int        `json:"total_searches"`
	OKSearches     int        `json:"ok_searches"`
	FailedSearches int        `json:"failed_searches"`
	DistinctGenres int        `json:"distinct_genres"`
	LastSearchAt   *time.Time `json:"last_search_at,omitempty"`
}
