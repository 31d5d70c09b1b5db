package handler

import (
	"net/http"

	"estatehub/internal/middleware"
	"estatehub/internal/permission"
	"estatehub/internal/service"
	"estatehub/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	appointmentService service.AppointmentService
}

func NewAppointmentHandler(appointmentService service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{appointmentService: appointmentService}
}

func (h *AppointmentHandler) RegisterRoutes(router *gin.RouterGroup, g Guards) {
	router.POST("/appointments", g.Throttle, h.Book)

	appointments := router.Group("/appointments", g.Admin)
	{
		appointments.GET("", middleware.RequireCapability(permission.ModuleAppointments, permission.View), h.List)
		appointments.PUT("/:id/status", middleware.RequireCapability(permission.ModuleAppointments, permission.Edit), h.UpdateStatus)
		appointments.DELETE("/:id", middleware.RequireCapability(permission.ModuleAppointments, permission.Delete), h.Delete)
	}
}

// Book records a viewing request from a visitor
// @Summary      Book a viewing
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Param        payload  body      service.BookAppointmentRequest  true  "Appointment"
// @Success      201      {object}  response.Response{data=service.AppointmentResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/appointments [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	var req service.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	appointment, err := h.appointmentService.Book(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "MsgAppointmentBooked", appointment)
}

// @Summary      List appointments
// @Tags         appointments
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Success      200     {object}  response.Response{data=service.AppointmentPage}
// @Router       /api/appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	p := pagination.Parse(c)
	page, err := h.appointmentService.List(c.Request.Context(), c.Query("status"), p.Page, p.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "", page)
}

// UpdateStatus moves an appointment forward
// @Summary      Update appointment status
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                                  true  "Appointment ID"
// @Param        payload  body      service.UpdateAppointmentStatusRequest  true  "Status"
// @Success      200      {object}  response.Response{data=service.AppointmentResponse}
// @Failure      409      {object}  response.Response
// @Router       /api/appointments/{id}/status [put]
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	var req service.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	appointment, err := h.appointmentService.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgSaved", appointment)
}

// @Summary      Delete an appointment
// @Tags         appointments
// @Security     BearerAuth
// @Param        id   path      string  true  "Appointment ID"
// @Success      200  {object}  response.Response
// @Router       /api/appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	if err := h.appointmentService.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "MsgDeleted", nil)
}
