package service

import (
	"context"
	"fmt"
	"time"

	"estatehub/internal/logger"
	"estatehub/internal/model"
	"estatehub/internal/notify"
	"estatehub/internal/permission"
	"estatehub/internal/repository"

	"github.com/google/uuid"
)

type SessionResponse struct {
	ID           string `json:"id"`
	AdminID      string `json:"adminId"`
	AdminName    string `json:"adminName"`
	AdminEmail   string `json:"adminEmail"`
	IPAddress    string `json:"ipAddress"`
	Device       string `json:"device"`
	Browser      string `json:"browser"`
	OS           string `json:"os"`
	LastActivity string `json:"lastActivity"`
	IsActive     bool   `json:"isActive"`
	Current      bool   `json:"current"`
}

type SessionService interface {
	// List returns every session for admins with admins.view and only the
	// actor's own sessions otherwise.
	List(ctx context.Context, actor Actor, isActive *bool) ([]SessionResponse, error)
	Terminate(ctx context.Context, actor Actor, sessionID string) error
	// Sweep ends sessions that are idle or past expiry.
	Sweep(ctx context.Context) (int64, error)
}

type sessionService struct {
	tx          repository.TransactionManager
	sessions    repository.SessionRepository
	activities  repository.ActivityRepository
	publisher   notify.Publisher
	idleTimeout time.Duration
	now         func() time.Time
	log         *logger.Logger
}

func NewSessionService(tx repository.TransactionManager, sessions repository.SessionRepository, activities repository.ActivityRepository, publisher notify.Publisher, idleTimeout time.Duration) SessionService {
	return &sessionService{
		tx:          tx,
		sessions:    sessions,
		activities:  activities,
		publisher:   publisher,
		idleTimeout: idleTimeout,
		now:         time.Now,
		log:         logger.New("SESSION"),
	}
}

func (s *sessionService) List(ctx context.Context, actor Actor, isActive *bool) ([]SessionResponse, error) {
	filter := repository.SessionFilter{IsActive: isActive}
	if !permission.Can(actor.Principal, permission.ModuleAdmins, permission.View) {
		filter.AdminID = &actor.ID
	}
	sessions, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]SessionResponse, 0, len(sessions))
	for _, ss := range sessions {
		r := SessionResponse{
			ID:           ss.ID.String(),
			AdminID:      ss.AdminID.String(),
			IPAddress:    ss.IPAddress,
			Device:       ss.Device,
			Browser:      ss.Browser,
			OS:           ss.OS,
			LastActivity: ss.LastActivity.Format(time.RFC3339),
			IsActive:     ss.IsActive,
			Current:      ss.ID == actor.SessionID,
		}
		if ss.Admin != nil {
			r.AdminName = ss.Admin.Name
			r.AdminEmail = ss.Admin.Email
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *sessionService) Terminate(ctx context.Context, actor Actor, sessionID string) error {
	sid, err := uuid.Parse(sessionID)
	if err != nil {
		return validationErr("invalid sessionId")
	}

	var target model.AdminSession
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		session, err := s.sessions.GetByID(txCtx, sid)
		if err != nil {
			return mapNotFound(err, "session")
		}
		if session.AdminID != actor.ID {
			if err := permission.Require(actor.Principal, permission.ModuleAdmins, permission.Edit); err != nil {
				return err
			}
		}
		if _, err := s.sessions.Deactivate(txCtx, session.ID); err != nil {
			return fmt.Errorf("failed to end session: %w", err)
		}
		target = *session
		return recordActivity(txCtx, s.activities, actor, model.ActionTerminateSession, permission.ModuleAdmins, session.ID, session.Device+" / "+session.Browser, map[string]interface{}{
			"adminId": session.AdminID,
		})
	})
	if err != nil {
		return err
	}

	// addressed to the session owner only, whatever their admins.view grant
	e, err := notify.NewEvent(notify.EventSessionTerminated, "", map[string]interface{}{
		"sessionId": target.ID,
	})
	if err != nil {
		s.log.Warn("event %s not encoded: %v", notify.EventSessionTerminated, err)
		return nil
	}
	e.AdminID = &target.AdminID
	e.SessionID = &target.ID
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.log.Warn("event %s not published: %v", e.Type, err)
	}
	return nil
}

func (s *sessionService) Sweep(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	n, err := s.sessions.DeactivateStale(ctx, now.Add(-s.idleTimeout), now)
	if err != nil {
		return 0, s.log.Error("session sweep failed", err)
	}
	if n > 0 {
		s.log.Info("ended %d stale sessions", n)
	}
	return n, nil
}
