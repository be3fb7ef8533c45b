package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hassam-Ata/linklens/internal/models"
)

func TestAuthenticator_TokenRoundTrip(t *testing.T) {
	auth := NewAuthenticator("test-secret", time.Hour)

	signed, err := auth.signToken("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	userID, err := auth.parseToken(signed)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestAuthenticator_ParseToken(t *testing.T) {
	t.Run("garbage token", func(t *testing.T) {
		auth := NewAuthenticator("test-secret", time.Hour)

		userID, err := auth.parseToken("not-a-token")

		assert.Error(t, err)
		assert.Empty(t, userID)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		auth := NewAuthenticator("test-secret", time.Hour)
		other := NewAuthenticator("other-secret", time.Hour)

		signed, err := other.signToken("user-123")
		require.NoError(t, err)

		userID, err := auth.parseToken(signed)

		assert.Error(t, err)
		assert.Empty(t, userID)
	})

	t.Run("expired token", func(t *testing.T) {
		auth := NewAuthenticator("test-secret", -time.Hour)

		signed, err := auth.signToken("user-123")
		require.NoError(t, err)

		userID, err := auth.parseToken(signed)

		assert.Error(t, err)
		assert.Empty(t, userID)
	})
}

func identityProbe(got **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = userFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticator_Middleware(t *testing.T) {
	t.Run("no cookie yields no identity", func(t *testing.T) {
		auth := NewAuthenticator("test-secret", time.Hour)

		var got *models.User
		h := auth.Middleware(identityProbe(&got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Nil(t, got)
	})

	t.Run("invalid cookie yields no identity", func(t *testing.T) {
		auth := NewAuthenticator("test-secret", time.Hour)

		var got *models.User
		h := auth.Middleware(identityProbe(&got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: authCookieName, Value: "garbage"})
		h.ServeHTTP(httptest.NewRecorder(), req)

		assert.Nil(t, got)
	})

	t.Run("valid cookie yields identity", func(t *testing.T) {
		auth := NewAuthenticator("test-secret", time.Hour)

		var got *models.User
		h := auth.Middleware(identityProbe(&got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(authCookie(t, auth, "user-123"))
		h.ServeHTTP(httptest.NewRecorder(), req)

		require.NotNil(t, got)
		assert.Equal(t, "user-123", got.ID)
	})
}

func TestAuthenticator_Issue(t *testing.T) {
	t.Run("mints identity and sets cookie", func(t *testing.T) {
		auth := NewAuthenticator("test-secret", time.Hour)

		var got *models.User
		h := auth.Issue(identityProbe(&got))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.NotNil(t, got)
		assert.NotEmpty(t, got.ID)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, authCookieName, cookies[0].Name)

		userID, err := auth.parseToken(cookies[0].Value)
		assert.NoError(t, err)
		assert.Equal(t, got.ID, userID)
	})

	t.Run("keeps existing identity", func(t *testing.T) {
		auth := NewAuthenticator("test-secret", time.Hour)

		var got *models.User
		h := auth.Middleware(auth.Issue(identityProbe(&got)))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(authCookie(t, auth, "user-123"))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.NotNil(t, got)
		assert.Equal(t, "user-123", got.ID)
		assert.Empty(t, rec.Result().Cookies())
	})
}
