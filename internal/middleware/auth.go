package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"estatehub/internal/locales"
	"estatehub/internal/permission"
	"estatehub/internal/service"
	"estatehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	CookieName = "access_token"

	actorKey = "actor"
	ownerKey = "ownerID"
)

// AdminAuthenticator resolves admin access tokens.
type AdminAuthenticator interface {
	Authenticate(ctx context.Context, token string) (service.Actor, error)
}

// OwnerAuthenticator resolves property owner tokens.
type OwnerAuthenticator interface {
	AuthenticateOwner(ctx context.Context, token string) (uuid.UUID, error)
}

// SetTokenCookie stores the admin token as an HttpOnly cookie. Cross-site
// deployments need secure=true so the cookie can be SameSite=None.
func SetTokenCookie(c *gin.Context, token string, maxAge int, secure bool) {
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	c.SetSameSite(sameSite)
	c.SetCookie(CookieName, token, maxAge, "/", "", secure, true)
}

// ClearTokenCookie removes the admin token cookie
func ClearTokenCookie(c *gin.Context, secure bool) {
	SetTokenCookie(c, "", -1, secure)
}

// abort writes a localized error envelope and stops the chain.
func abort(c *gin.Context, status int, code, msgID string) {
	msg := locales.Translate(c.GetHeader("Accept-Language"), msgID)
	c.AbortWithStatusJSON(status, response.Fail(status, code, msg))
}

// tokenFromRequest reads the cookie first, then the Authorization header.
func tokenFromRequest(c *gin.Context) (string, bool) {
	if token, err := c.Cookie(CookieName); err == nil && token != "" {
		return token, true
	}
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAdmin authenticates the admin session behind the request and
// stores the Actor in the context.
func RequireAdmin(auth AdminAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := tokenFromRequest(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "ErrUnauthenticated")
			return
		}

		actor, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrSessionExpired) {
				abort(c, http.StatusUnauthorized, "SESSION_EXPIRED", "ErrSessionExpired")
				return
			}
			if errors.Is(err, service.ErrInvalidToken) {
				abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "ErrUnauthenticated")
				return
			}
			_ = c.Error(err)
			abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "ErrGeneric")
			return
		}
		actor.IP = c.ClientIP()

		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the Actor set by RequireAdmin.
func ActorFrom(c *gin.Context) (service.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return service.Actor{}, false
	}
	actor, ok := v.(service.Actor)
	return actor, ok
}

// RequireCapability must run after RequireAdmin. A missing capability
// answers with the generic error message.
func RequireCapability(m permission.Module, capability permission.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "ErrUnauthenticated")
			return
		}
		if !permission.Can(actor.Principal, m, capability) {
			abort(c, http.StatusForbidden, "UNAUTHORIZED", "ErrGeneric")
			return
		}
		c.Next()
	}
}

// RequireOwner authenticates a property owner token.
func RequireOwner(auth OwnerAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := tokenFromRequest(c)
		if !ok {
			abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "ErrUnauthenticated")
			return
		}
		ownerID, err := auth.AuthenticateOwner(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				abort(c, http.StatusUnauthorized, "UNAUTHENTICATED", "ErrUnauthenticated")
				return
			}
			_ = c.Error(err)
			abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", "ErrGeneric")
			return
		}
		c.Set(ownerKey, ownerID)
		c.Next()
	}
}

// OwnerFrom returns the owner id set by RequireOwner.
func OwnerFrom(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ownerKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
