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
	"estatehub/pkg/pagination"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// --- DTOs ---

type CreateAdminRequest struct {
	Name        string                  `json:"name" binding:"required,max=255"`
	Email       string                  `json:"email" binding:"required,email"`
	Password    string                  `json:"password" binding:"required,min=8,max=72"`
	Role        string                  `json:"role" binding:"required,admin_role"`
	Permissions *permission.Permissions `json:"permissions"`
}

// UpdateAdminRequest carries only the fields being changed.
type UpdateAdminRequest struct {
	ID          string                  `json:"id" binding:"required,uuid"`
	Name        *string                 `json:"name" binding:"omitempty,max=255"`
	Email       *string                 `json:"email" binding:"omitempty,email"`
	Password    *string                 `json:"password" binding:"omitempty,min=8,max=72"`
	Role        *string                 `json:"role" binding:"omitempty,admin_role"`
	Permissions *permission.Permissions `json:"permissions"`
	IsActive    *bool                   `json:"isActive"`
}

type AdminResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Email       string                 `json:"email"`
	Role        permission.Role        `json:"role"`
	Permissions permission.Permissions `json:"permissions"`
	IsActive    bool                   `json:"isActive"`
	LastLoginAt *string                `json:"lastLoginAt"`
	CreatedAt   string                 `json:"createdAt"`
	// Matrix is the permission editor grid, only filled for single-admin reads.
	Matrix []permission.MatrixRow `json:"matrix,omitempty"`
	Locked bool                   `json:"locked"`
}

type AdminPage struct {
	Admins     []AdminResponse `json:"admins"`
	Pagination pagination.Meta `json:"pagination"`
}

// --- Interface ---

type AdminService interface {
	List(ctx context.Context, page, limit int) (*AdminPage, error)
	Get(ctx context.Context, id string) (*AdminResponse, error)
	Create(ctx context.Context, actor Actor, req CreateAdminRequest) (*AdminResponse, error)
	Update(ctx context.Context, actor Actor, req UpdateAdminRequest) (*AdminResponse, error)
	Delete(ctx context.Context, actor Actor, id string) error
	PermissionSchema() []permission.ModuleSchema
	// EnsureSuperAdmin seeds the first SUPER_ADMIN when none exists.
	EnsureSuperAdmin(ctx context.Context, name, email, password string) error
}

type adminService struct {
	tx         repository.TransactionManager
	admins     repository.AdminRepository
	sessions   repository.SessionRepository
	activities repository.ActivityRepository
	principals cache.PrincipalCache
	log        *logger.Logger
}

func NewAdminService(tx repository.TransactionManager, admins repository.AdminRepository, sessions repository.SessionRepository, activities repository.ActivityRepository, principals cache.PrincipalCache) AdminService {
	return &adminService{
		tx:         tx,
		admins:     admins,
		sessions:   sessions,
		activities: activities,
		principals: principals,
		log:        logger.New("ADMIN"),
	}
}

func toAdminResponse(a *model.Admin) AdminResponse {
	resp := AdminResponse{
		ID:          a.ID.String(),
		Name:        a.Name,
		Email:       a.Email,
		Role:        a.Role,
		Permissions: permission.Effective(a.Principal()),
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt.Format(time.RFC3339),
		Locked:      a.Role == permission.RoleSuperAdmin,
	}
	if a.LastLoginAt != nil {
		s := a.LastLoginAt.Format(time.RFC3339)
		resp.LastLoginAt = &s
	}
	return resp
}

func parseAdminID(id string) (uuid.UUID, error) {
	aid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, validationErr("invalid admin id")
	}
	return aid, nil
}

func (s *adminService) List(ctx context.Context, page, limit int) (*AdminPage, error) {
	p := pagination.New(page, limit)
	admins, total, err := s.admins.List(ctx, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]AdminResponse, 0, len(admins))
	for i := range admins {
		out = append(out, toAdminResponse(&admins[i]))
	}
	return &AdminPage{Admins: out, Pagination: pagination.NewMeta(p, total)}, nil
}

func (s *adminService) Get(ctx context.Context, id string) (*AdminResponse, error) {
	aid, err := parseAdminID(id)
	if err != nil {
		return nil, err
	}
	a, err := s.admins.GetByID(ctx, aid)
	if err != nil {
		return nil, mapNotFound(err, "admin")
	}
	resp := toAdminResponse(a)
	resp.Matrix = permission.NewDraft(a.Role, a.Permissions.Data()).Matrix()
	return &resp, nil
}

func (s *adminService) PermissionSchema() []permission.ModuleSchema {
	return permission.Schema()
}

// grantable rejects permission objects that grant more than the actor holds.
func grantable(actor Actor, p permission.Permissions) error {
	if !permission.Effective(actor.Principal).Covers(p) {
		return fmt.Errorf("%w: cannot grant capabilities you do not hold", permission.ErrUnauthorized)
	}
	return nil
}

func (s *adminService) emailTaken(ctx context.Context, email string, except uuid.UUID) error {
	existing, err := s.admins.GetByEmail(ctx, email)
	if err == nil && existing.ID != except {
		return fmt.Errorf("email %w", ErrConflict)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func (s *adminService) Create(ctx context.Context, actor Actor, req CreateAdminRequest) (*AdminResponse, error) {
	role, err := permission.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	draft, err := permission.NewDraft(permission.RoleModerator, permission.Defaults(role)).WithRole(role)
	if err != nil {
		return nil, err
	}
	if req.Permissions != nil {
		if draft, err = draft.WithPermissions(*req.Permissions); err != nil {
			return nil, err
		}
	}
	if err := grantable(actor, draft.Permissions()); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.emailTaken(ctx, email, uuid.Nil); err != nil {
		return nil, err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.Admin{
		Name:        strings.TrimSpace(req.Name),
		Email:       email,
		Password:    string(hashed),
		Role:        draft.Role(),
		Permissions: datatypes.NewJSONType(draft.Permissions()),
		IsActive:    true,
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.admins.Create(txCtx, admin); err != nil {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		return recordActivity(txCtx, s.activities, actor, model.ActionCreateAdmin, permission.ModuleAdmins, admin.ID, admin.Name, map[string]interface{}{
			"role": admin.Role,
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("admin %s created by %s", admin.Email, actor.ID)
	resp := toAdminResponse(admin)
	return &resp, nil
}

// Update applies a partial edit. Role and permission changes go through a
// Draft so a SUPER_ADMIN account stays locked, and an admin can never
// change their own role, permissions or active flag.
func (s *adminService) Update(ctx context.Context, actor Actor, req UpdateAdminRequest) (*AdminResponse, error) {
	aid, err := parseAdminID(req.ID)
	if err != nil {
		return nil, err
	}

	var (
		updated     model.Admin
		deactivated bool
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		a, err := s.admins.GetByIDForUpdate(txCtx, aid)
		if err != nil {
			return mapNotFound(err, "admin")
		}
		if a.Role == permission.RoleSuperAdmin && actor.Role != permission.RoleSuperAdmin {
			return permission.ErrSuperAdminLocked
		}

		draft := permission.NewDraft(a.Role, a.Permissions.Data())
		if req.Role != nil {
			role, err := permission.ParseRole(*req.Role)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			if draft, err = draft.WithRole(role); err != nil {
				return err
			}
		}
		if req.Permissions != nil {
			if draft, err = draft.WithPermissions(*req.Permissions); err != nil {
				return err
			}
		}
		isActive := a.IsActive
		if req.IsActive != nil {
			isActive = *req.IsActive
		}

		privChanged := draft.Role() != a.Role || draft.Permissions() != a.Permissions.Data().Normalize() || isActive != a.IsActive
		if privChanged && a.ID == actor.ID {
			return ErrSelfEdit
		}
		if !isActive && a.Role == permission.RoleSuperAdmin {
			return permission.ErrSuperAdminLocked
		}
		if draft.Permissions() != a.Permissions.Data().Normalize() {
			if err := grantable(actor, draft.Permissions()); err != nil {
				return err
			}
		}

		if req.Name != nil {
			a.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if err := s.emailTaken(txCtx, email, a.ID); err != nil {
				return err
			}
			a.Email = email
		}
		if req.Password != nil {
			hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			a.Password = string(hashed)
		}
		deactivated = a.IsActive && !isActive
		a.Role = draft.Role()
		a.Permissions = datatypes.NewJSONType(draft.Permissions())
		a.IsActive = isActive

		if err := s.admins.Update(txCtx, a); err != nil {
			return fmt.Errorf("failed to update admin: %w", err)
		}
		if deactivated {
			if _, err := s.sessions.DeactivateForAdmin(txCtx, a.ID); err != nil {
				return fmt.Errorf("failed to end sessions: %w", err)
			}
		}
		if err := recordActivity(txCtx, s.activities, actor, model.ActionUpdateAdmin, permission.ModuleAdmins, a.ID, a.Name, map[string]interface{}{
			"role":     a.Role,
			"isActive": a.IsActive,
		}); err != nil {
			return fmt.Errorf("failed to write activity log: %w", err)
		}
		updated = *a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.principals.Invalidate(ctx, updated.ID)
	resp := toAdminResponse(&updated)
	resp.Matrix = permission.NewDraft(updated.Role, updated.Permissions.Data()).Matrix()
	return &resp, nil
}

func (s *adminService) Delete(ctx context.Context, actor Actor, id string) error {
	aid, err := parseAdminID(id)
	if err != nil {
		return err
	}
	if aid == actor.ID {
		return ErrSelfEdit
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		a, err := s.admins.GetByIDForUpdate(txCtx, aid)
		if err != nil {
			return mapNotFound(err, "admin")
		}
		if a.Role == permission.RoleSuperAdmin {
			return permission.ErrSuperAdminLocked
		}
		if _, err := s.sessions.DeactivateForAdmin(txCtx, a.ID); err != nil {
			return fmt.Errorf("failed to end sessions: %w", err)
		}
		if err := s.admins.Delete(txCtx, a.ID); err != nil {
			return mapNotFound(err, "admin")
		}
		return recordActivity(txCtx, s.activities, actor, model.ActionDeleteAdmin, permission.ModuleAdmins, a.ID, a.Name, nil)
	})
	if err != nil {
		return err
	}
	s.principals.Invalidate(ctx, aid)
	return nil
}

func (s *adminService) EnsureSuperAdmin(ctx context.Context, name, email, password string) error {
	exists, err := s.admins.ExistsWithRole(ctx, permission.RoleSuperAdmin)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if email == "" || password == "" {
		s.log.Warn("no SUPER_ADMIN exists and bootstrap credentials are not set")
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if name == "" {
		name = "Super Admin"
	}
	admin := &model.Admin{
		Name:        name,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Password:    string(hashed),
		Role:        permission.RoleSuperAdmin,
		Permissions: datatypes.NewJSONType(permission.All()),
		IsActive:    true,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed super admin: %w", err)
	}
	s.log.Success("seeded SUPER_ADMIN %s", admin.Email)
	return nil
}
