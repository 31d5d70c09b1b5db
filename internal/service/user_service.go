package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"estatehub/internal/model"
	"estatehub/internal/repository"
	"estatehub/pkg/pagination"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type RegisterUserRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone" binding:"required,max=20"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type OwnerTokenResponse struct {
	Token     string        `json:"token"`
	ExpiresAt string        `json:"expiresAt"`
	User      *UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type UserPage struct {
	Users      []UserResponse  `json:"users"`
	Pagination pagination.Meta `json:"pagination"`
}

// UserService covers property owner accounts.
type UserService interface {
	Register(ctx context.Context, req RegisterUserRequest) (*OwnerTokenResponse, error)
	Login(ctx context.Context, req LoginRequest) (*OwnerTokenResponse, error)
	GetByID(ctx context.Context, id string) (*UserResponse, error)
	List(ctx context.Context, page, limit int) (*UserPage, error)
	// AuthenticateOwner resolves an owner token to the owner's id.
	AuthenticateOwner(ctx context.Context, token string) (uuid.UUID, error)
}

type userService struct {
	repo   repository.UserRepository
	tokens *TokenManager
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, tokens *TokenManager) UserService {
	return &userService{repo: repo, tokens: tokens}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *userService) issue(user *model.User) (*OwnerTokenResponse, error) {
	token, exp, err := s.tokens.IssueOwner(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &OwnerTokenResponse{Token: token, ExpiresAt: exp.Format(time.RFC3339), User: mapToResponse(user)}, nil
}

func (s *userService) Register(ctx context.Context, req RegisterUserRequest) (*OwnerTokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("email %w", ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Phone:    strings.TrimSpace(req.Phone),
		Password: string(hashedPassword),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (*OwnerTokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *userService) GetByID(ctx context.Context, id string) (*UserResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, validationErr("invalid user id")
	}
	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, mapNotFound(err, "user")
	}
	return mapToResponse(user), nil
}

func (s *userService) List(ctx context.Context, page, limit int) (*UserPage, error) {
	p := pagination.New(page, limit)
	users, total, err := s.repo.List(ctx, p.Offset, p.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}
	return &UserPage{Users: responses, Pagination: pagination.NewMeta(p, total)}, nil
}

func (s *userService) AuthenticateOwner(ctx context.Context, token string) (uuid.UUID, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := claims.SubjectOf(TokenKindOwner)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return uuid.Nil, ErrInvalidToken
		}
		return uuid.Nil, err
	}
	return id, nil
}
