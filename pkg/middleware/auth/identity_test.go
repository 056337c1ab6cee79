package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-jwt-secret")

func newCtx(t *testing.T, setup func(r *http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func token(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := tokens.NewAccessToken(sub, role, time.Now().Add(time.Minute), secret)
	require.NoError(t, err)
	return tok
}

func TestRequireAuth_BearerHeader(t *testing.T) {
	t.Parallel()

	sub := uuid.New()
	c, _ := newCtx(t, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token(t, sub.String(), tokens.RoleUser))
	})

	mw := NewIdentityMiddleware(secret)
	var got uuid.UUID
	err := mw.RequireAuth(func(c echo.Context) error {
		var err error
		got, err = UserID(c)
		return err
	})(c)

	require.NoError(t, err)
	assert.Equal(t, sub, got)
	assert.False(t, IsAdmin(c))
}

func TestRequireAuth_Cookie(t *testing.T) {
	t.Parallel()

	sub := uuid.New()
	c, _ := newCtx(t, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: token(t, sub.String(), tokens.RoleUser)})
	})

	called := false
	err := NewIdentityMiddleware(secret).RequireAuth(func(echo.Context) error {
		called = true
		return nil
	})(c)

	require.NoError(t, err)
	assert.True(t, called)
}

func TestRequireAuth_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{name: "missing token", setup: nil},
		{name: "garbage token", setup: func(r *http.Request) {
			r.Header.Set(echo.HeaderAuthorization, "Bearer nope")
		}},
		{name: "non uuid subject", setup: func(r *http.Request) {
			r.Header.Set(echo.HeaderAuthorization, "Bearer "+token(t, "42", tokens.RoleUser))
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, _ := newCtx(t, tt.setup)
			err := NewIdentityMiddleware(secret).RequireAuth(func(echo.Context) error { return nil })(c)
			he, ok := err.(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, http.StatusUnauthorized, he.Code)
		})
	}
}

func TestRequireAdmin_ForbidsUsers(t *testing.T) {
	t.Parallel()

	c, _ := newCtx(t, func(r *http.Request) {
		r.Header.Set(echo.HeaderAuthorization, "Bearer "+token(t, uuid.NewString(), tokens.RoleUser))
	})

	err := NewIdentityMiddleware(secret).RequireAdmin(func(echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, he.Code)
}
