package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"estatehub/internal/permission"
	"estatehub/internal/service"
	"estatehub/internal/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAppointmentService struct{ mock.Mock }

func (m *mockAppointmentService) Book(ctx context.Context, req service.BookAppointmentRequest) (*service.AppointmentResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*service.AppointmentResponse)
	return res, args.Error(1)
}

func (m *mockAppointmentService) List(ctx context.Context, status string, page, limit int) (*service.AppointmentPage, error) {
	args := m.Called(ctx, status, page, limit)
	res, _ := args.Get(0).(*service.AppointmentPage)
	return res, args.Error(1)
}

func (m *mockAppointmentService) UpdateStatus(ctx context.Context, a service.Actor, id string, req service.UpdateAppointmentStatusRequest) (*service.AppointmentResponse, error) {
	args := m.Called(ctx, a, id, req)
	res, _ := args.Get(0).(*service.AppointmentResponse)
	return res, args.Error(1)
}

func (m *mockAppointmentService) Delete(ctx context.Context, a service.Actor, id string) error {
	return m.Called(ctx, a, id).Error(0)
}

func TestBookAppointment_Public(t *testing.T) {
	appointments := &mockAppointmentService{}
	appointments.On("Book", mock.Anything, mock.MatchedBy(func(req service.BookAppointmentRequest) bool {
		return req.Email == "visitor@example.com"
	})).Return(&service.AppointmentResponse{ID: uuid.NewString(), Status: "PENDING"}, nil)
	r := newTestRouter(tokenAuth{}, ownerAuth{}, NewAppointmentHandler(appointments))

	w := do(r, http.MethodPost, "/api/appointments", "", map[string]interface{}{
		"name":        "Visitor",
		"email":       "visitor@example.com",
		"phone":       "+971500000000",
		"preferredAt": time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Your appointment request has been received", decode(t, w).Message)
}

func TestUpdateAppointmentStatus(t *testing.T) {
	id := uuid.NewString()
	appointments := &mockAppointmentService{}
	appointments.On("UpdateStatus", mock.Anything, mock.Anything, id, service.UpdateAppointmentStatusRequest{Status: "COMPLETED"}).
		Return(nil, workflow.ErrInvalidTransition)
	r := newTestRouter(tokenAuth{
		"viewer": actor(permission.RoleModerator, can(permission.ModuleAppointments, permission.View)),
		"editor": actor(permission.RoleModerator, can(permission.ModuleAppointments, permission.Edit)),
	}, ownerAuth{}, NewAppointmentHandler(appointments))

	w := do(r, http.MethodPut, "/api/appointments/"+id+"/status", "viewer", map[string]string{"status": "COMPLETED"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPut, "/api/appointments/"+id+"/status", "editor", map[string]string{"status": "COMPLETED"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", decode(t, w).Code)
}

func TestListAppointments(t *testing.T) {
	appointments := &mockAppointmentService{}
	appointments.On("List", mock.Anything, "CONFIRMED", 1, 20).Return(&service.AppointmentPage{}, nil)
	r := newTestRouter(tokenAuth{
		"v": actor(permission.RoleModerator, can(permission.ModuleAppointments, permission.View)),
	}, ownerAuth{}, NewAppointmentHandler(appointments))

	w := do(r, http.MethodGet, "/api/appointments?status=CONFIRMED", "v", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	appointments.AssertExpectations(t)
}
