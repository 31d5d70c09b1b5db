package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estatehub/internal/cache"
	"estatehub/internal/logger"
	"estatehub/internal/model"
	"estatehub/internal/permission"
	"estatehub/internal/repository"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"golang.org/x/crypto/bcrypt"
)

// touchInterval throttles lastActivity writes for busy sessions.
const touchInterval = time.Minute

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt string        `json:"expiresAt"`
	SessionID string        `json:"sessionId"`
	Admin     AdminResponse `json:"admin"`
}

type MeResponse struct {
	Admin     AdminResponse `json:"admin"`
	SessionID string        `json:"sessionId"`
}

type AuthService interface {
	Login(ctx context.Context, req AdminLoginRequest, client ClientInfo) (*LoginResponse, error)
	Logout(ctx context.Context, actor Actor) error
	// Authenticate resolves an admin access token. The session row is always
	// read so a revoked session stops working immediately.
	Authenticate(ctx context.Context, token string) (Actor, error)
	Me(ctx context.Context, actor Actor) (*MeResponse, error)
}

type authService struct {
	tx          repository.TransactionManager
	admins      repository.AdminRepository
	sessions    repository.SessionRepository
	activities  repository.ActivityRepository
	principals  cache.PrincipalCache
	tokens      *TokenManager
	idleTimeout time.Duration
	now         func() time.Time
	log         *logger.Logger
}

func NewAuthService(tx repository.TransactionManager, admins repository.AdminRepository, sessions repository.SessionRepository, activities repository.ActivityRepository, principals cache.PrincipalCache, tokens *TokenManager, idleTimeout time.Duration) AuthService {
	return &authService{
		tx:          tx,
		admins:      admins,
		sessions:    sessions,
		activities:  activities,
		principals:  principals,
		tokens:      tokens,
		idleTimeout: idleTimeout,
		now:         time.Now,
		log:         logger.New("AUTH"),
	}
}

// describeDevice extracts device, browser and OS labels from a User-Agent.
func describeDevice(userAgent string) (device, browser, os string) {
	if userAgent == "" {
		return "Unknown", "Unknown", "Unknown"
	}
	ua := useragent.New(userAgent)
	switch {
	case ua.Bot():
		device = "Bot"
	case ua.Mobile():
		device = "Mobile"
	default:
		device = "Desktop"
	}
	name, version := ua.Browser()
	browser = strings.TrimSpace(name + " " + version)
	os = ua.OS()
	if browser == "" {
		browser = "Unknown"
	}
	if os == "" {
		os = "Unknown"
	}
	return device, browser, os
}

func (s *authService) Login(ctx context.Context, req AdminLoginRequest, client ClientInfo) (*LoginResponse, error) {
	admin, err := s.admins.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, ErrInvalidCredentials
	}

	now := s.now().UTC()
	device, browser, os := describeDevice(client.UserAgent)
	session := &model.AdminSession{
		AdminID:      admin.ID,
		IPAddress:    client.IP,
		Device:       device,
		Browser:      browser,
		OS:           os,
		LastActivity: now,
		IsActive:     true,
		ExpiresAt:    now.Add(s.tokens.AdminTTL()),
	}

	var token string
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		// re-read under lock: the account may have been edited, disabled or
		// deleted since the credential check
		locked, err := s.admins.GetByIDForUpdate(txCtx, admin.ID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidCredentials
			}
			return err
		}
		if !locked.IsActive || locked.Password != admin.Password {
			return ErrInvalidCredentials
		}
		admin = locked

		if err := s.sessions.Create(txCtx, session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		if err := s.admins.TouchLastLogin(txCtx, admin.ID, now); err != nil {
			return fmt.Errorf("failed to update admin: %w", err)
		}
		admin.LastLoginAt = &now
		actor := Actor{Principal: admin.Principal(), SessionID: session.ID, IP: client.IP}
		if err := recordActivity(txCtx, s.activities, actor, model.ActionLogin, permission.ModuleAdmins, admin.ID, admin.Name, map[string]interface{}{
			"device":  device,
			"browser": browser,
			"os":      os,
		}); err != nil {
			return fmt.Errorf("failed to write activity log: %w", err)
		}
		token, err = s.tokens.IssueAdmin(admin.ID, session.ID, string(admin.Role), session.ExpiresAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("admin %s signed in from %s", admin.Email, client.IP)
	return &LoginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
		SessionID: session.ID.String(),
		Admin:     toAdminResponse(admin),
	}, nil
}

func (s *authService) Logout(ctx context.Context, actor Actor) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.sessions.Deactivate(txCtx, actor.SessionID); err != nil {
			return fmt.Errorf("failed to end session: %w", err)
		}
		return recordActivity(txCtx, s.activities, actor, model.ActionLogout, permission.ModuleAdmins, actor.ID, "", nil)
	})
}

func (s *authService) Authenticate(ctx context.Context, token string) (Actor, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Actor{}, err
	}
	adminID, err := claims.SubjectOf(TokenKindAdmin)
	if err != nil {
		return Actor{}, err
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: bad session id", ErrInvalidToken)
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Actor{}, ErrSessionExpired
		}
		return Actor{}, err
	}
	now := s.now().UTC()
	if session.AdminID != adminID || !session.Live(now) {
		return Actor{}, ErrSessionExpired
	}
	if s.idleTimeout > 0 && now.Sub(session.LastActivity) > s.idleTimeout {
		return Actor{}, ErrSessionExpired
	}
	if now.Sub(session.LastActivity) > touchInterval {
		if err := s.sessions.Touch(ctx, session.ID, now); err != nil {
			s.log.Warn("session %s not touched: %v", session.ID, err)
		}
	}

	principal, ok := s.principals.Get(ctx, adminID)
	if !ok {
		admin, err := s.admins.GetByID(ctx, adminID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return Actor{}, ErrSessionExpired
			}
			return Actor{}, err
		}
		if !admin.IsActive {
			return Actor{}, ErrSessionExpired
		}
		principal = admin.Principal()
		s.principals.Set(ctx, principal)
	}
	return Actor{Principal: principal, SessionID: session.ID}, nil
}

func (s *authService) Me(ctx context.Context, actor Actor) (*MeResponse, error) {
	admin, err := s.admins.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, mapNotFound(err, "admin")
	}
	resp := toAdminResponse(admin)
	return &MeResponse{Admin: resp, SessionID: actor.SessionID.String()}, nil
}
