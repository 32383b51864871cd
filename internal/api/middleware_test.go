package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"course-service/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func identityRouter(tokens *auth.Manager, required bool) *gin.Engine {
	r := gin.New()
	mw := optionalAuth(tokens)
	if required {
		mw = requireAuth(tokens)
	}
	r.GET("/whoami", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": currentUser(c),
			"role":    currentRole(c),
		})
	})
	return r
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	tokens := auth.NewManager("secret", time.Hour)
	r := identityRouter(tokens, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	tokens := auth.NewManager("secret", time.Hour)
	r := identityRouter(tokens, true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	tokens := auth.NewManager("secret", time.Hour)
	token, err := tokens.Issue(42, "student")
	require.NoError(t, err)

	r := identityRouter(tokens, true)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42,"role":"student"}`, w.Body.String())
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	tokens := auth.NewManager("secret", time.Hour)
	r := identityRouter(tokens, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"role":""}`, w.Body.String())
}

func TestOptionalAuthIgnoresExpiredToken(t *testing.T) {
	expired := auth.NewManager("secret", -time.Minute)
	token, err := expired.Issue(42, "student")
	require.NoError(t, err)

	tokens := auth.NewManager("secret", time.Hour)
	r := identityRouter(tokens, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"role":""}`, w.Body.String(),
		"an expired token reads as anonymous, not as an error")
}
