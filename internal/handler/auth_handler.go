package handler

import (
	"net/http"
	"time"

	"estatehub/internal/middleware"
	"estatehub/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService   service.AuthService
	cookieMaxAge  int
	secureCookies bool
}

func NewAuthHandler(authService service.AuthService, tokenTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		cookieMaxAge:  int(tokenTTL.Seconds()),
		secureCookies: secureCookies,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup, g Guards) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", g.Throttle, h.Login)
		auth.POST("/logout", g.Admin, h.Logout)
		auth.GET("/me", g.Admin, h.Me)
	}
}

// Login handles admin login and sets the session cookie
// @Summary      Admin login
// @Description  Returns a JWT bound to a new admin session. The token is also set as an HttpOnly cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body      service.AdminLoginRequest  true  "Credentials"
// @Success      200          {object}  response.Response{data=service.LoginResponse}
// @Failure      400          {object}  response.Response
// @Failure      401          {object}  response.Response
// @Failure      429          {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req, service.ClientInfo{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.SetTokenCookie(c, res.Token, h.cookieMaxAge, h.secureCookies)
	respondOK(c, http.StatusOK, "MsgLoggedIn", res)
}

// Logout ends the current session
// @Summary      Admin logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.authService.Logout(c.Request.Context(), actor); err != nil {
		respondError(c, err)
		return
	}
	middleware.ClearTokenCookie(c, h.secureCookies)
	respondOK(c, http.StatusOK, "MsgLoggedOut", nil)
}

// Me returns the signed-in admin with the effective permission matrix
// @Summary      Current admin
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.MeResponse}
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	res, err := h.authService.Me(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", res)
}
