package recommend

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/justyntemme/bookscout/internal/logger"
	"github.com/justyntemme/bookscout/internal/models"
	"github.com/justyntemme/bookscout/internal/suggest"
)

// SearchFailedMessage is the single generic message shown when a search run
// fails. The underlying cause goes to the log, not the user.
const SearchFailedMessage = "Could not load recommendations. Please try again."

// ErrUnknownBook is returned when a selection refers to no rendered result.
var ErrUnknownBook = errors.New("book is not in the current result list")

// Runner is the pipeline seam; tests substitute their own.
type Runner interface {
	Run(ctx context.Context, query models.SearchQuery) ([]models.Recommendation, error)
}

// AppliedFunc observes each run whose outcome was published: the query, how
// many results it produced, models.SearchStatusOK or models.SearchStatusError,
// and how long the run took.
type AppliedFunc func(query models.SearchQuery, results int, status string, took time.Duration)

// State is a point-in-time snapshot of everything the frontend renders.
type State struct {
	Genre            string                  `json:"genre"`
	Year             string                  `json:"year"`
	GenreSuggestions []string                `json:"genre_suggestions,omitempty"`
	YearSuggestions  []string                `json:"year_suggestions,omitempty"`
	Loading          bool                    `json:"loading"`
	Error            string                  `json:"error,omitempty"`
	Results          []models.Recommendation `json:"results"`
	SelectedID       string                  `json:"selected_id,omitempty"`
}

// Controller owns the full recommendation state for one session: the two
// input fields with their suggestion lists, the result list, and the single
// expanded selection. All mutation goes through the mutex; runs execute in
// their own goroutines and publish back under it.
type Controller struct {
	mu       sync.Mutex
	catalog  *suggest.Catalog
	pipeline Runner

	genre      string
	year       string
	genreSugg  []string
	yearSugg   []string
	bothFilled bool

	loading    bool
	errMsg     string
	results    []models.Recommendation
	selectedID string

	nextGen uint64

	onApplied AppliedFunc
	runs      sync.WaitGroup
}

// NewController creates a controller with empty inputs and no results.
func NewController(catalog *suggest.Catalog, pipeline Runner) *Controller {
	return &Controller{
		catalog:  catalog,
		pipeline: pipeline,
	}
}

// OnApplied registers the hook invoked after a run's outcome is published.
// Must be called before the first run starts.
func (c *Controller) OnApplied(fn AppliedFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onApplied = fn
}

// SetGenre updates the genre field and recomputes its suggestions. When this
// edit makes both fields non-empty, a fetch starts automatically.
func (c *Controller) SetGenre(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.genre = text
	c.genreSugg = c.catalog.FilterGenres(text)
	c.maybeAutoFetchLocked()
}

// SetYear updates the year field and recomputes its suggestions. No
// validation happens; non-numeric text is accepted as-is.
func (c *Controller) SetYear(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.year = text
	c.yearSugg = c.catalog.FilterYears(text)
	c.maybeAutoFetchLocked()
}

// SelectSuggestion sets the named field to the exact suggestion value and
// clears that field's suggestion list.
func (c *Controller) SelectSuggestion(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch field {
	case "genre":
		c.genre = value
		c.genreSugg = nil
	case "year":
		c.year = value
		c.yearSugg = nil
	default:
		return errors.New("unknown suggestion field: " + field)
	}

	c.maybeAutoFetchLocked()
	return nil
}

// Submit starts a fetch unconditionally with whatever the fields hold.
func (c *Controller) Submit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startRunLocked()
}

// maybeAutoFetchLocked starts a run when the fields transition from
// incomplete to both non-empty. Further edits while both stay filled do not
// re-trigger; clearing a field re-arms the trigger.
func (c *Controller) maybeAutoFetchLocked() {
	both := c.genre != "" && c.year != ""
	if both && !c.bothFilled {
		c.startRunLocked()
	}
	c.bothFilled = both
}

// startRunLocked launches a pipeline run for the current field values. Runs
// are not cancelled by newer ones; the generation counter decides which
// outcome gets published.
func (c *Controller) startRunLocked() {
	c.nextGen++
	gen := c.nextGen
	query := models.SearchQuery{Genre: c.genre, Year: c.year}

	c.loading = true
	c.errMsg = ""

	c.runs.Add(1)
	go c.run(gen, query)
}

func (c *Controller) run(gen uint64, query models.SearchQuery) {
	defer c.runs.Done()

	ctx := context.Background()
	start := time.Now()
	results, err := c.pipeline.Run(ctx, query)
	took := time.Since(start)

	c.mu.Lock()

	// A newer run has started since; this outcome is stale. The newer run
	// owns the loading flag and the eventual publish.
	if gen != c.nextGen {
		c.mu.Unlock()
		return
	}
	c.loading = false

	status := models.SearchStatusOK
	if err != nil {
		// Previous results stay visible alongside the error banner.
		status = models.SearchStatusError
		c.errMsg = SearchFailedMessage
		logger.For(ctx).WithError(err).
			WithField("genre", query.Genre).
			WithField("year", query.Year).
			Warn("search run failed")
	} else {
		c.results = results
		c.errMsg = ""
		c.selectedID = ""
	}
	hook := c.onApplied
	c.mu.Unlock()

	if hook != nil {
		hook(query, len(results), status, took)
	}
}

// ToggleSelect expands the identified result, or collapses it when it is
// already expanded. At most one result is ever selected.
func (c *Controller) ToggleSelect(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// An empty id never names a result and must not match an empty selection.
	if id == "" {
		return ErrUnknownBook
	}
	if c.selectedID == id {
		c.selectedID = ""
		return nil
	}
	for _, rec := range c.results {
		if rec.ID == id {
			c.selectedID = id
			return nil
		}
	}
	return ErrUnknownBook
}

// Snapshot returns a copy of the rendered state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := make([]models.Recommendation, len(c.results))
	copy(results, c.results)

	return State{
		Genre:            c.genre,
		Year:             c.year,
		GenreSuggestions: append([]string(nil), c.genreSugg...),
		YearSuggestions:  append([]string(nil), c.yearSugg...),
		Loading:          c.loading,
		Error:            c.errMsg,
		Results:          results,
		SelectedID:       c.selectedID,
	}
}

// Wait blocks until every started run has settled. Used by shutdown and
// tests.
func (c *Controller) Wait() {
	c.runs.Wait()
}
