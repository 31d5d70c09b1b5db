package handler

import (
	"errors"
	"net/http"

	"estatehub/internal/locales"
	"estatehub/internal/logger"
	"estatehub/internal/middleware"
	"estatehub/internal/permission"
	"estatehub/internal/service"
	"estatehub/internal/validation"
	"estatehub/internal/workflow"
	"estatehub/pkg/response"

	"github.com/gin-gonic/gin"
)

var log = logger.New("HANDLER")

// Guards are the auth middlewares shared by every handler.
type Guards struct {
	Admin    gin.HandlerFunc
	Owner    gin.HandlerFunc
	Throttle gin.HandlerFunc
}

type errorMapping struct {
	target error
	status int
	code   string
	msgID  string
}

// errorTable is checked in order; the first errors.Is match wins.
var errorTable = []errorMapping{
	{permission.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED", "ErrGeneric"},
	{workflow.ErrMissingJustification, http.StatusBadRequest, "MISSING_JUSTIFICATION", "ErrMissingJustification"},
	{workflow.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION", "ErrInvalidTransition"},
	{workflow.ErrUnknownAction, http.StatusBadRequest, "VALIDATION_ERROR", "ErrValidation"},
	{service.ErrValidation, http.StatusBadRequest, "VALIDATION_ERROR", "ErrValidation"},
	{permission.ErrUnknownModule, http.StatusBadRequest, "VALIDATION_ERROR", "ErrValidation"},
	{permission.ErrUnknownCapability, http.StatusBadRequest, "VALIDATION_ERROR", "ErrValidation"},
	{permission.ErrUnknownRole, http.StatusBadRequest, "VALIDATION_ERROR", "ErrValidation"},
	{permission.ErrRoleNotAssignable, http.StatusBadRequest, "VALIDATION_ERROR", "ErrValidation"},
	{permission.ErrSuperAdminLocked, http.StatusForbidden, "SUPER_ADMIN_LOCKED", "ErrSuperAdminLocked"},
	{service.ErrSelfEdit, http.StatusForbidden, "SELF_EDIT", "ErrSelfEdit"},
	{service.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "ErrNotFound"},
	{service.ErrConflict, http.StatusConflict, "CONFLICT", "ErrConflict"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "ErrInvalidCredentials"},
	{service.ErrSessionExpired, http.StatusUnauthorized, "SESSION_EXPIRED", "ErrSessionExpired"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHENTICATED", "ErrUnauthenticated"},
	{service.ErrUploadsDisabled, http.StatusServiceUnavailable, "UPLOADS_DISABLED", "ErrUploadsDisabled"},
}

func localize(c *gin.Context, msgID string) string {
	return locales.Translate(c.GetHeader("Accept-Language"), msgID)
}

// respondError maps a service error to status, stable code and a localized
// message. Unknown errors become a 500 and are attached to the context for
// the Sentry middleware.
func respondError(c *gin.Context, err error) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			c.JSON(m.status, failBody(c, m.status, m.code, m.msgID))
			return
		}
	}
	log.Warn("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, failBody(c, http.StatusInternalServerError, "INTERNAL_ERROR", "ErrGeneric"))
}

func failBody(c *gin.Context, status int, code, msgID string) response.Response {
	return response.Fail(status, code, localize(c, msgID))
}

// respondBindError answers a 400 carrying the per-field messages.
func respondBindError(c *gin.Context, err error) {
	body := failBody(c, http.StatusBadRequest, "VALIDATION_ERROR", "ErrValidation")
	if fields := validation.FieldErrors(err); fields != nil {
		body.Data = fields
	} else {
		body.Error = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

func respondOK(c *gin.Context, status int, msgID string, data interface{}) {
	if msgID == "" {
		c.JSON(status, response.Success(status, data))
		return
	}
	c.JSON(status, response.SuccessWithMessage(status, localize(c, msgID), data))
}

// actorOrAbort fetches the authenticated admin. Routes are always mounted
// behind Guards.Admin, so a miss is a wiring bug.
func actorOrAbort(c *gin.Context) (service.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, failBody(c, http.StatusUnauthorized, "UNAUTHENTICATED", "ErrUnauthenticated"))
	}
	return actor, ok
}
