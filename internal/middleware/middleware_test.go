package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"estatehub/internal/permission"
	"estatehub/internal/service"
	"estatehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct {
	actors map[string]service.Actor
	err    error
}

func (s stubAuth) Authenticate(_ context.Context, token string) (service.Actor, error) {
	if s.err != nil {
		return service.Actor{}, s.err
	}
	a, ok := s.actors[token]
	if !ok {
		return service.Actor{}, service.ErrInvalidToken
	}
	return a, nil
}

func newRouter(auth AdminAuthenticator, m permission.Module, c permission.Capability) *gin.Engine {
	r := gin.New()
	r.GET("/x", RequireAdmin(auth), RequireCapability(m, c), func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID.String(), "ip": actor.IP})
	})
	return r
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAdmin_MissingToken(t *testing.T) {
	r := newRouter(stubAuth{}, permission.ModuleProperties, permission.View)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHENTICATED", decode(t, w).Code)
}

func TestRequireAdmin_BearerAndCookie(t *testing.T) {
	perms, _ := permission.Permissions{}.With(permission.ModuleProperties, permission.View, true)
	actor := service.Actor{Principal: permission.Principal{ID: uuid.New(), Role: permission.RoleModerator, Permissions: perms}}
	r := newRouter(stubAuth{actors: map[string]service.Actor{"good": actor}}, permission.ModuleProperties, permission.View)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), actor.ID.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "good"})
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Token good")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAdmin_SessionExpired(t *testing.T) {
	r := newRouter(stubAuth{err: service.ErrSessionExpired}, permission.ModuleProperties, permission.View)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer any")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "SESSION_EXPIRED", decode(t, w).Code)
}

func TestRequireAdmin_BackendFailure(t *testing.T) {
	r := newRouter(stubAuth{err: errors.New("db down")}, permission.ModuleProperties, permission.View)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer any")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireCapability_GenericMessage(t *testing.T) {
	actor := service.Actor{Principal: permission.Principal{ID: uuid.New(), Role: permission.RoleModerator}}
	r := newRouter(stubAuth{actors: map[string]service.Actor{"t": actor}}, permission.ModuleAdmins, permission.Delete)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer t")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decode(t, w)
	assert.Equal(t, "UNAUTHORIZED", body.Code)
	assert.Equal(t, "An error occurred", body.Message)
	assert.Equal(t, response.StatusError, body.Status)
}

func TestRequireCapability_SuperAdmin(t *testing.T) {
	actor := service.Actor{Principal: permission.Principal{ID: uuid.New(), Role: permission.RoleSuperAdmin}}
	r := newRouter(stubAuth{actors: map[string]service.Actor{"t": actor}}, permission.ModuleAdmins, permission.Delete)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer t")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

type stubOwner struct{ id uuid.UUID }

func (s stubOwner) AuthenticateOwner(_ context.Context, token string) (uuid.UUID, error) {
	if token != "owner" {
		return uuid.Nil, service.ErrInvalidToken
	}
	return s.id, nil
}

func TestRequireOwner(t *testing.T) {
	id := uuid.New()
	r := gin.New()
	r.GET("/mine", RequireOwner(stubOwner{id: id}), func(c *gin.Context) {
		got, _ := OwnerFrom(c)
		c.String(http.StatusOK, got.String())
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/mine", nil)
	req.Header.Set("Authorization", "Bearer owner")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/mine", nil)
	req.Header.Set("Authorization", "Bearer admin")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewIPRateLimiter(6, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("1.1.1.1"))
	assert.False(t, l.Allow("1.1.1.1"))
	assert.True(t, l.Allow("2.2.2.2"), "buckets are per IP")

	now = now.Add(10 * time.Second)
	assert.True(t, l.Allow("1.1.1.1"))
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	r := gin.New()
	r.POST("/login", l.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestSentry_RecoversPanic(t *testing.T) {
	r := gin.New()
	r.Use(Sentry())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
