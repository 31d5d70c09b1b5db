package handler

import (
	"net/http"

	"estatehub/internal/middleware"
	"estatehub/internal/permission"
	"estatehub/internal/service"
	"estatehub/pkg/pagination"

	"github.com/gin-gonic/gin"
)

// UserHandler handles property owner accounts
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRoutes registers owner account routes and the admin user listing
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup, g Guards) {
	users := router.Group("/users")
	{
		users.POST("/register", g.Throttle, h.Register)
		users.POST("/login", g.Throttle, h.Login)
		users.GET("", g.Admin, middleware.RequireCapability(permission.ModuleUsers, permission.View), h.List)
	}
}

// Register handles owner registration
// @Summary      Register a property owner
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        user  body      service.RegisterUserRequest  true  "User Registration Info"
// @Success      201   {object}  response.Response{data=service.OwnerTokenResponse}
// @Failure      400   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Router       /api/users/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req service.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "MsgSaved", res)
}

// Login handles owner login
// @Summary      Property owner login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        credentials  body      service.LoginRequest  true  "User Credentials"
// @Success      200          {object}  response.Response{data=service.OwnerTokenResponse}
// @Failure      401          {object}  response.Response
// @Router       /api/users/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgLoggedIn", res)
}

// List returns registered owners for the admin console
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page"
// @Param        limit  query     int  false  "Page size"
// @Success      200    {object}  response.Response{data=service.UserPage}
// @Router       /api/users [get]
func (h *UserHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	page, err := h.userService.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", page)
}
