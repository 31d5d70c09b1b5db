package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estatehub/internal/logger"
	"estatehub/internal/model"
	"estatehub/internal/notify"
	"estatehub/internal/permission"
	"estatehub/internal/repository"
	"estatehub/internal/workflow"
	"estatehub/pkg/pagination"

	"github.com/google/uuid"
)

type BookAppointmentRequest struct {
	PropertyID  string    `json:"propertyId" binding:"omitempty,uuid"`
	Name        string    `json:"name" binding:"required,max=255"`
	Email       string    `json:"email" binding:"required,email"`
	Phone       string    `json:"phone" binding:"required,max=30"`
	PreferredAt time.Time `json:"preferredAt" binding:"required"`
	Message     string    `json:"message" binding:"max=2000"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required,appointment_status"`
}

type AppointmentResponse struct {
	ID            string  `json:"id"`
	PropertyID    *string `json:"propertyId"`
	PropertyTitle string  `json:"propertyTitle,omitempty"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	PreferredAt   string  `json:"preferredAt"`
	Message       string  `json:"message"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"createdAt"`
}

type AppointmentPage struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Pagination   pagination.Meta       `json:"pagination"`
}

type AppointmentService interface {
	Book(ctx context.Context, req BookAppointmentRequest) (*AppointmentResponse, error)
	List(ctx context.Context, status string, page, limit int) (*AppointmentPage, error)
	UpdateStatus(ctx context.Context, actor Actor, id string, req UpdateAppointmentStatusRequest) (*AppointmentResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
}

type appointmentService struct {
	tx           repository.TransactionManager
	appointments repository.AppointmentRepository
	listings     repository.ListingRepository
	activities   repository.ActivityRepository
	publisher    notify.Publisher
	now          func() time.Time
	log          *logger.Logger
}

func NewAppointmentService(tx repository.TransactionManager, appointments repository.AppointmentRepository, listings repository.ListingRepository, activities repository.ActivityRepository, publisher notify.Publisher) AppointmentService {
	return &appointmentService{
		tx:           tx,
		appointments: appointments,
		listings:     listings,
		activities:   activities,
		publisher:    publisher,
		now:          time.Now,
		log:          logger.New("APPOINTMENT"),
	}
}

func toAppointmentResponse(a *model.Appointment) *AppointmentResponse {
	resp := &AppointmentResponse{
		ID:          a.ID.String(),
		Name:        a.Name,
		Email:       a.Email,
		Phone:       a.Phone,
		PreferredAt: a.PreferredAt.Format(time.RFC3339),
		Message:     a.Message,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
	}
	if a.PropertyID != nil {
		s := a.PropertyID.String()
		resp.PropertyID = &s
	}
	if a.Property != nil {
		resp.PropertyTitle = a.Property.Title
	}
	return resp
}

func (s *appointmentService) Book(ctx context.Context, req BookAppointmentRequest) (*AppointmentResponse, error) {
	if !req.PreferredAt.After(s.now()) {
		return nil, validationErr("preferredAt must be in the future")
	}

	a := &model.Appointment{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:       strings.TrimSpace(req.Phone),
		PreferredAt: req.PreferredAt.UTC(),
		Message:     strings.TrimSpace(req.Message),
		Status:      model.AppointmentPending,
	}
	if req.PropertyID != "" {
		pid, err := uuid.Parse(req.PropertyID)
		if err != nil {
			return nil, validationErr("invalid propertyId")
		}
		l, err := s.listings.GetByID(ctx, pid)
		if err != nil {
			return nil, mapNotFound(err, "property")
		}
		if !l.PubliclyVisible() {
			return nil, fmt.Errorf("property: %w", ErrNotFound)
		}
		a.PropertyID = &pid
		a.Property = l
	}

	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to book appointment: %w", err)
	}

	resp := toAppointmentResponse(a)
	notify.PublishAfterCommit(ctx, s.publisher, s.log, notify.EventAppointmentCreated, permission.ModuleAppointments.String(), resp)
	return resp, nil
}

func (s *appointmentService) List(ctx context.Context, status string, page, limit int) (*AppointmentPage, error) {
	st := model.AppointmentStatus(strings.ToUpper(strings.TrimSpace(status)))
	if st != "" && !st.Valid() {
		return nil, validationErr("unknown status %q", status)
	}
	p := pagination.New(page, limit)
	items, total, err := s.appointments.List(ctx, repository.AppointmentFilter{Status: st, Offset: p.Offset, Limit: p.Limit})
	if err != nil {
		return nil, err
	}
	out := make([]AppointmentResponse, 0, len(items))
	for i := range items {
		out = append(out, *toAppointmentResponse(&items[i]))
	}
	return &AppointmentPage{Appointments: out, Pagination: pagination.NewMeta(p, total)}, nil
}

func (s *appointmentService) UpdateStatus(ctx context.Context, actor Actor, id string, req UpdateAppointmentStatusRequest) (*AppointmentResponse, error) {
	if err := permission.Require(actor.Principal, permission.ModuleAppointments, permission.Edit); err != nil {
		return nil, err
	}
	aid, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErr("invalid appointment id")
	}
	next := model.AppointmentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	if !next.Valid() {
		return nil, validationErr("unknown status %q", req.Status)
	}

	var updated model.Appointment
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		a, err := s.appointments.GetByID(txCtx, aid)
		if err != nil {
			return mapNotFound(err, "appointment")
		}
		if err := workflow.MoveAppointment(a.Status, next); err != nil {
			return err
		}
		ok, err := s.appointments.CompareAndSetStatus(txCtx, a.ID, a.Status, next)
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: appointment changed concurrently", workflow.ErrInvalidTransition)
		}
		if err := recordActivity(txCtx, s.activities, actor, model.ActionUpdateAppointment, permission.ModuleAppointments, a.ID, a.Name, map[string]interface{}{
			"from": a.Status,
			"to":   next,
		}); err != nil {
			return fmt.Errorf("failed to write activity log: %w", err)
		}
		a.Status = next
		updated = *a
		return nil
	})
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) {
			s.log.Warn("appointment %s: %v", aid, err)
		}
		return nil, err
	}

	resp := toAppointmentResponse(&updated)
	notify.PublishAfterCommit(ctx, s.publisher, s.log, notify.EventAppointmentUpdated, permission.ModuleAppointments.String(), resp)
	return resp, nil
}

func (s *appointmentService) Delete(ctx context.Context, actor Actor, id string) error {
	if err := permission.Require(actor.Principal, permission.ModuleAppointments, permission.Delete); err != nil {
		return err
	}
	aid, err := uuid.Parse(id)
	if err != nil {
		return validationErr("invalid appointment id")
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		a, err := s.appointments.GetByID(txCtx, aid)
		if err != nil {
			return mapNotFound(err, "appointment")
		}
		if err := s.appointments.Delete(txCtx, a.ID); err != nil {
			return mapNotFound(err, "appointment")
		}
		return recordActivity(txCtx, s.activities, actor, model.ActionDeleteAppointment, permission.ModuleAppointments, a.ID, a.Name, nil)
	})
}
