package handler

import (
	"net/http"
	"strconv"

	"estatehub/internal/middleware"
	"estatehub/internal/permission"
	"estatehub/internal/service"
	"estatehub/pkg/pagination"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves admin accounts, their sessions and the activity feed.
type AdminHandler struct {
	adminService    service.AdminService
	sessionService  service.SessionService
	activityService service.ActivityService
}

func NewAdminHandler(adminService service.AdminService, sessionService service.SessionService, activityService service.ActivityService) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		sessionService:  sessionService,
		activityService: activityService,
	}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup, g Guards) {
	admins := router.Group("/admins", g.Admin)
	{
		admins.GET("", middleware.RequireCapability(permission.ModuleAdmins, permission.View), h.GetAdmins)
		admins.POST("", middleware.RequireCapability(permission.ModuleAdmins, permission.Create), h.CreateAdmin)
		admins.PUT("", middleware.RequireCapability(permission.ModuleAdmins, permission.Edit), h.UpdateAdmin)
		admins.DELETE("", middleware.RequireCapability(permission.ModuleAdmins, permission.Delete), h.DeleteAdmin)
		admins.GET("/permission-schema", middleware.RequireCapability(permission.ModuleAdmins, permission.View), h.PermissionSchema)

		// session scoping depends on the actor and lives in the service
		admins.GET("/sessions", h.ListSessions)
		admins.DELETE("/sessions", h.TerminateSession)

		admins.GET("/activities", middleware.RequireCapability(permission.ModuleAdmins, permission.View), h.RecentActivity)
	}
}

// GetAdmins lists admins, or returns one admin with its permission matrix when id is given
// @Summary      List admins or get one
// @Tags         admins
// @Produce      json
// @Security     BearerAuth
// @Param        id     query     string  false  "Admin ID"
// @Param        page   query     int     false  "Page"
// @Param        limit  query     int     false  "Page size"
// @Success      200    {object}  response.Response{data=service.AdminPage}
// @Router       /api/admins [get]
func (h *AdminHandler) GetAdmins(c *gin.Context) {
	if id := c.Query("id"); id != "" {
		admin, err := h.adminService.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, http.StatusOK, "", admin)
		return
	}

	p := pagination.Parse(c)
	page, err := h.adminService.List(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", page)
}

// @Summary      Create an admin
// @Tags         admins
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateAdminRequest  true  "Admin"
// @Success      201      {object}  response.Response{data=service.AdminResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/admins [post]
func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	admin, err := h.adminService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "MsgSaved", admin)
}

// UpdateAdmin applies a partial update
// @Summary      Update an admin
// @Description  Role and permission changes are rejected for the signed-in admin and for super admins
// @Tags         admins
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateAdminRequest  true  "Changes"
// @Success      200      {object}  response.Response{data=service.AdminResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/admins [put]
func (h *AdminHandler) UpdateAdmin(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.UpdateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	admin, err := h.adminService.Update(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgSaved", admin)
}

// @Summary      Delete an admin
// @Tags         admins
// @Security     BearerAuth
// @Param        id   query     string  true  "Admin ID"
// @Success      200  {object}  response.Response
// @Router       /api/admins [delete]
func (h *AdminHandler) DeleteAdmin(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.adminService.Delete(c.Request.Context(), actor, c.Query("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgDeleted", nil)
}

// @Summary      Permission schema
// @Description  Modules with their supported capabilities, for the permission editor
// @Tags         admins
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=[]permission.ModuleSchema}
// @Router       /api/admins/permission-schema [get]
func (h *AdminHandler) PermissionSchema(c *gin.Context) {
	respondOK(c, http.StatusOK, "", h.adminService.PermissionSchema())
}

// @Summary      List admin sessions
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        isActive  query     bool  false  "Only active sessions"
// @Success      200       {object}  response.Response{data=[]service.SessionResponse}
// @Router       /api/admins/sessions [get]
func (h *AdminHandler) ListSessions(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var isActive *bool
	if raw := c.Query("isActive"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, service.ErrValidation)
			return
		}
		isActive = &v
	}
	sessions, err := h.sessionService.List(c.Request.Context(), actor, isActive)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", sessions)
}

// TerminateSession ends an admin session; the owning client is signed out
// @Summary      Terminate a session
// @Tags         sessions
// @Security     BearerAuth
// @Param        sessionId  query     string  true  "Session ID"
// @Success      200        {object}  response.Response
// @Router       /api/admins/sessions [delete]
func (h *AdminHandler) TerminateSession(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.sessionService.Terminate(c.Request.Context(), actor, c.Query("sessionId")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgSessionTerminated", nil)
}

// @Summary      Recent admin activity
// @Tags         activities
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Number of entries (max 100)"
// @Success      200    {object}  response.Response{data=service.ActivityFeed}
// @Router       /api/admins/activities [get]
func (h *AdminHandler) RecentActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultActivityLimit)))
	feed, err := h.activityService.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", feed)
}
