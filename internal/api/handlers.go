package api

import (
	"database/sql"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/justyntemme/bookscout/internal/logger"
	"github.com/justyntemme/bookscout/internal/models"
	"github.com/justyntemme/bookscout/internal/openlibrary"
	"github.com/justyntemme/bookscout/internal/recommend"
	"github.com/justyntemme/bookscout/internal/session"
	"github.com/justyntemme/bookscout/internal/storage"
)

// PlaceholderCover is the static image used for results without a cover id.
const PlaceholderCover = "/static/placeholder-cover.svg"

// CoverResolver builds the payload cover resolver: the Open Library CDN URL
// for books with a cover id, the bundled placeholder for the rest. Pages
// that want the caching proxy build /api/covers/<id>-M.jpg from the
// payload's cover_id instead.
func CoverResolver(client *openlibrary.Client) recommend.CoverResolver {
	return func(coverID int) string {
		if coverURL := client.CoverURL(coverID, openlibrary.CoverMedium); coverURL != "" {
			return coverURL
		}
		return PlaceholderCover
	}
}

// Handler contains all HTTP handlers
type Handler struct {
	registry  *session.Registry
	db        *storage.Database
	covers    *storage.CoverCache
	staticDir string
}

// NewHandler creates a new handler instance
func NewHandler(registry *session.Registry, db *storage.Database, covers *storage.CoverCache, staticDir string) *Handler {
	return &Handler{
		registry:  registry,
		db:        db,
		covers:    covers,
		staticDir: staticDir,
	}
}

// controller returns the recommendation controller bound to the calling
// session, creating it on first access.
func (h *Handler) controller(c *gin.Context) *recommend.Controller {
	return h.registry.Get(session.OwnerID(c))
}

// GetState returns the full rendered state for the calling session. Clients
// poll this while loading is true.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller(c).Snapshot())
}

// SetGenre updates the genre input field and returns the resulting state.
// An empty text clears the field and its suggestions.
func (h *Handler) SetGenre(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctrl := h.controller(c)
	ctrl.SetGenre(req.Text)
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// SetYear updates the year input field and returns the resulting state.
func (h *Handler) SetYear(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctrl := h.controller(c)
	ctrl.SetYear(req.Text)
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// SelectSuggestion commits one autocomplete suggestion into its field.
func (h *Handler) SelectSuggestion(c *gin.Context) {
	var req struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Field and value are required"})
		return
	}

	ctrl := h.controller(c)
	if err := ctrl.SelectSuggestion(req.Field, req.Value); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// Submit starts a recommendation fetch for whatever the fields currently
// hold, even when they are empty. The fetch runs in the background; the
// response carries the state with loading already set.
func (h *Handler) Submit(c *gin.Context) {
	ctrl := h.controller(c)
	ctrl.Submit()
	c.JSON(http.StatusAccepted, ctrl.Snapshot())
}

// ToggleSelection expands the identified result's detail card, or collapses
// it when it is already expanded. The id is a work key and contains slashes,
// so the route binds it as a wildcard.
func (h *Handler) ToggleSelection(c *gin.Context) {
	id := c.Param("id")

	ctrl := h.controller(c)
	if err := ctrl.ToggleSelect(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found in current results"})
		return
	}
	c.JSON(http.StatusOK, ctrl.Snapshot())
}

// GetSearchHistory returns the owner's recent searches, newest first.
func (h *Handler) GetSearchHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	history, err := h.db.ListSearchHistory(session.OwnerID(c), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}
	if history == nil {
		history = []models.SearchRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"history": history, "count": len(history)})
}

// ClearSearchHistory deletes all of the owner's search history.
func (h *Handler) ClearSearchHistory(c *gin.Context) {
	if err := h.db.ClearSearchHistory(session.OwnerID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "History cleared"})
}

// SaveToShelf pins one of the currently listed recommendations to the
// owner's shelf. The work id is bound as a wildcard for the same reason as
// ToggleSelection.
func (h *Handler) SaveToShelf(c *gin.Context) {
	workID := c.Param("id")

	state := h.controller(c).Snapshot()
	var rec *models.Recommendation
	for i := range state.Results {
		if state.Results[i].ID == workID {
			rec = &state.Results[i]
			break
		}
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found in current results"})
		return
	}

	ownerID := session.OwnerID(c)
	book := &models.SavedBook{
		ID:               uuid.New().String(),
		OwnerID:          ownerID,
		WorkID:           rec.ID,
		Title:            rec.Title,
		Authors:          strings.Join(rec.Authors, ", "),
		FirstPublishYear: rec.FirstPublishYear,
		CoverURL:         rec.CoverURL,
		PageCount:        rec.PageCount,
		Description:      rec.Description,
		SavedAt:          time.Now(),
	}

	// Saving a work that is already shelved refreshes the entry in place.
	created := true
	if existing, err := h.db.GetSavedBookByWork(ownerID, rec.ID); err == nil {
		book.ID = existing.ID
		created = false
	}

	if err := h.db.SaveBook(book); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save book"})
		return
	}

	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Book saved", "book": book})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book updated", "book": book})
}

// ListShelf returns the owner's saved books, most recently saved first.
func (h *Handler) ListShelf(c *gin.Context) {
	books, err := h.db.ListShelf(session.OwnerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shelf"})
		return
	}
	if books == nil {
		books = []models.SavedBook{}
	}

	c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
}

// DeleteFromShelf removes a saved book from the owner's shelf.
func (h *Handler) DeleteFromShelf(c *gin.Context) {
	id := c.Param("id")
	ownerID := session.OwnerID(c)

	book, err := h.db.GetSavedBook(id, ownerID)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "Book not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch book"})
		return
	}

	if err := h.db.DeleteSavedBook(id, ownerID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete book"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Book removed", "book": book})
}

// GetCover serves a cached, resized cover image. The path segment encodes
// the cover id and size class, e.g. "240727-M.jpg"; a bare id defaults to
// medium. On any fetch or decode failure the placeholder is served instead.
func (h *Handler) GetCover(c *gin.Context) {
	name := strings.TrimSuffix(c.Param("cover"), ".jpg")
	idPart, size, found := strings.Cut(name, "-")
	if !found {
		size = "M"
	}

	coverID, err := strconv.Atoi(idPart)
	if err != nil || coverID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cover id"})
		return
	}

	path, err := h.covers.Get(c.Request.Context(), coverID, size)
	if err != nil {
		logger.For(c.Request.Context()).WithError(err).
			WithField("cover", coverID).
			Warn("cover fetch failed, serving placeholder")
		c.File(filepath.Join(h.staticDir, "placeholder-cover.svg"))
		return
	}
	c.File(path)
}

// HealthCheck returns basic service health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
}

// APIInfo returns a JSON description of the API for non-browser clients
func (h *Handler) APIInfo(c *gin.Context) {
	endpoints := []gin.H{
		{"method": "GET", "path": "/health", "description": "Health check"},
		{"method": "GET", "path": "/api", "description": "API documentation"},

		// Auth
		{"method": "POST", "path": "/api/auth/register", "description": "Register new user", "body": "username, password"},
		{"method": "POST", "path": "/api/auth/login", "description": "Login", "body": "username, password"},
		{"method": "POST", "path": "/api/auth/refresh", "description": "Refresh session token", "body": "token"},
		{"method": "GET", "path": "/api/auth/me", "description": "Get current user", "auth": true},

		// Recommendations
		{"method": "GET", "path": "/api/state", "description": "Current input, loading, error, and result state"},
		{"method": "POST", "path": "/api/input/genre", "description": "Type into the genre field", "body": "text"},
		{"method": "POST", "path": "/api/input/year", "description": "Type into the year field", "body": "text"},
		{"method": "POST", "path": "/api/input/suggestion", "description": "Pick an autocomplete suggestion", "body": "field, value"},
		{"method": "POST", "path": "/api/search", "description": "Fetch recommendations for the current fields"},
		{"method": "POST", "path": "/api/selection/*id", "description": "Expand or collapse a result's details"},

		// History and shelf
		{"method": "GET", "path": "/api/history", "description": "Recent searches", "query": "limit"},
		{"method": "DELETE", "path": "/api/history", "description": "Clear search history"},
		{"method": "GET", "path": "/api/shelf", "description": "List saved books"},
		{"method": "POST", "path": "/api/shelf/*id", "description": "Save a currently listed book"},
		{"method": "DELETE", "path": "/api/shelf/:id", "description": "Remove a saved book"},
		{"method": "GET", "path": "/api/stats", "description": "Search and shelf activity summary"},

		// Covers
		{"method": "GET", "path": "/api/covers/:cover", "description": "Cached cover image, e.g. 240727-M.jpg"},
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        "Bookscout API",
		"version":     "1.0.0",
		"description": "Genre and year book recommendations for web and TUI clients",
		"endpoints":   endpoints,
	})
}
