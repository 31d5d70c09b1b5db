package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"estatehub/internal/model"
	"estatehub/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.User
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = uuid.New()
	f.rows[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.rows))
	for _, u := range f.rows {
		out = append(out, u)
	}
	return out, int64(len(out)), nil
}

func TestOwnerRegisterLoginAuthenticate(t *testing.T) {
	users := &fakeUsers{rows: map[uuid.UUID]model.User{}}
	svc := NewUserService(users, NewTokenManager("secret", time.Hour, time.Hour))
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterUserRequest{Name: "Omar", Email: "Omar@Example.com", Phone: "0500", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, "omar@example.com", reg.User.Email)

	_, err = svc.Register(ctx, RegisterUserRequest{Name: "Dup", Email: "omar@example.com", Phone: "0", Password: "long-enough"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Login(ctx, LoginRequest{Email: "omar@example.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	login, err := svc.Login(ctx, LoginRequest{Email: "omar@example.com", Password: "long-enough"})
	require.NoError(t, err)

	id, err := svc.AuthenticateOwner(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, id.String())

	page, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Users, 1)
}

func TestOwnerTokenIsNotAdminToken(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour, time.Hour)
	svc := NewUserService(&fakeUsers{rows: map[uuid.UUID]model.User{}}, tokens)

	adminToken, err := tokens.IssueAdmin(uuid.New(), uuid.New(), "ADMIN", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = svc.AuthenticateOwner(context.Background(), adminToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
