package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionRouter(m *Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"owner_id": OwnerID(c),
			"username": Username(c),
			"guest":    IsGuest(c),
		})
	})
	router.GET("/account", RequireUser(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"username": Username(c)})
	})
	return router
}

func TestMiddlewareMintsGuestSession(t *testing.T) {
	m := testManager()
	router := setupSessionRouter(m)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	token := w.Header().Get(HeaderSession)
	require.NotEmpty(t, token, "fresh visitors get a session token")

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.True(t, claims.Guest)
	assert.NotEmpty(t, claims.OwnerID)
}

func TestMiddlewareHonorsExistingToken(t *testing.T) {
	m := testManager()
	router := setupSessionRouter(m)

	token, err := m.Generate("owner-42", "reader", false)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(HeaderSession), "no new token for a valid session")
	assert.Contains(t, w.Body.String(), "owner-42")
	assert.Contains(t, w.Body.String(), `"guest":false`)
}

func TestMiddlewareReplacesBadToken(t *testing.T) {
	m := testManager()
	router := setupSessionRouter(m)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderSession), "bad tokens are replaced with a guest session")
}

func TestRequireUserRejectsGuests(t *testing.T) {
	m := testManager()
	router := setupSessionRouter(m)

	// Guest session
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/account", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Registered account
	token, err := m.Generate("owner-42", "reader", false)
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/account", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
