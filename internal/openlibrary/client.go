package openlibrary

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/microcosm-cc/bluemonday"

	"github.com/justyntemme/bookscout/internal/config"
	"github.com/justyntemme/bookscout/internal/models"
)

// Sentinel errors for provider failures
var (
	ErrNoMatch     = errors.New("no matching record found")
	ErrRateLimited = errors.New("rate limited by provider")
)

// NoDescription is the fixed sentinel used when a work has no description.
const NoDescription = "No description available"

// CoverSize represents cover image size options
type CoverSize string

const (
	CoverSmall  CoverSize = "S"
	CoverMedium CoverSize = "M"
	CoverLarge  CoverSize = "L"
)

// Client talks to the Open Library search, works and covers endpoints
type Client struct {
	client    *http.Client
	baseURL   string
	coversURL string
	sanitize  *bluemonday.Policy
}

// NewClient creates an Open Library client from configuration
func NewClient(cfg config.OpenLibraryConfig) *Client {
	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout(),
		},
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		coversURL: strings.TrimSuffix(cfg.CoversURL, "/"),
		sanitize:  bluemonday.StrictPolicy(),
	}
}

// olSearchResponse represents an Open Library search response
type olSearchResponse struct {
	NumFound int           `json:"numFound"`
	Docs     []olSearchDoc `json:"docs"`
}

// olSearchDoc represents a document in search results
type olSearchDoc struct {
	Key              string   `json:"key"`
	Title            string   `json:"title"`
	AuthorName       []string `json:"author_name"`
	FirstPublishYear int      `json:"first_publish_year"`
	CoverI           int      `json:"cover_i"`
}

// olWork represents an Open Library work response
type olWork struct {
	Title       string `json:"title"`
	NumberPages int    `json:"number_of_pages"`
	Description any    `json:"description"` // Can be string or {type, value}
}

// Search finds books matching a genre and publication year. Docs are
// returned in server order; an empty result is not an error.
func (c *Client) Search(ctx context.Context, genre, year string) ([]models.BookSummary, error) {
	params := url.Values{}
	params.Set("q", genre)
	if year != "" {
		params.Set("first_publish_year", year)
	}
	params.Set("fields", "key,title,author_name,first_publish_year,cover_i")
	params.Set("limit", "10")

	searchURL := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var data olSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	results := make([]models.BookSummary, 0, len(data.Docs))
	for _, doc := range data.Docs {
		results = append(results, models.BookSummary{
			ID:               doc.Key,
			Title:            doc.Title,
			Authors:          doc.AuthorName,
			FirstPublishYear: doc.FirstPublishYear,
			CoverID:          doc.CoverI,
		})
	}
	return results, nil
}

// WorkDetail fetches page count and description for one work. The id is the
// key embedded in a search doc, e.g. "/works/OL45804W".
func (c *Client) WorkDetail(ctx context.Context, id string) (*models.BookDetail, error) {
	if !strings.HasPrefix(id, "/") {
		id = "/" + id
	}

	detailURL := fmt.Sprintf("%s%s.json", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, "GET", detailURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return nil, ErrNoMatch
	}
	if resp.StatusCode == 429 {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var work olWork
	if err := json.NewDecoder(resp.Body).Decode(&work); err != nil {
		return nil, err
	}

	return &models.BookDetail{
		PageCount:   work.NumberPages,
		Description: c.normalizeDescription(work.Description),
	}, nil
}

// CoverURL returns the CDN URL for a cover image, or "" when the book has no
// cover id and the caller should fall back to the placeholder asset.
func (c *Client) CoverURL(coverID int, size CoverSize) string {
	if coverID <= 0 {
		return ""
	}
	return fmt.Sprintf("%s/b/id/%d-%s.jpg", c.coversURL, coverID, size)
}

// FetchCover downloads the raw cover image bytes from the CDN.
func (c *Client) FetchCover(ctx context.Context, coverID int, size CoverSize) ([]byte, error) {
	coverURL := c.CoverURL(coverID, size)
	if coverURL == "" {
		return nil, ErrNoMatch
	}

	req, err := http.NewRequestWithContext(ctx, "GET", coverURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return nil, ErrNoMatch
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// normalizeDescription flattens the string-or-object description shape,
// strips any markup, and substitutes the sentinel when nothing remains.
func (c *Client) normalizeDescription(raw any) string {
	var text string
	switch desc := raw.(type) {
	case string:
		text = desc
	case map[string]any:
		if val, ok := desc["value"].(string); ok {
			text = val
		}
	}

	text = strings.TrimSpace(html.UnescapeString(c.sanitize.Sanitize(text)))
	if text == "" {
		return NoDescription
	}
	return text
}
