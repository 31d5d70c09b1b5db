package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"estatehub/internal/middleware"
	"estatehub/internal/permission"
	"estatehub/internal/service"
	"estatehub/internal/storage"
	"estatehub/internal/validation"
	"estatehub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.Register(); err != nil {
		panic(err)
	}
}

// --- auth stubs ---

type tokenAuth map[string]service.Actor

func (a tokenAuth) Authenticate(_ context.Context, token string) (service.Actor, error) {
	actor, ok := a[token]
	if !ok {
		return service.Actor{}, service.ErrInvalidToken
	}
	return actor, nil
}

type ownerAuth map[string]uuid.UUID

func (a ownerAuth) AuthenticateOwner(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := a[token]
	if !ok {
		return uuid.Nil, service.ErrInvalidToken
	}
	return id, nil
}

type grantSpec struct {
	m permission.Module
	c permission.Capability
}

func can(m permission.Module, c permission.Capability) grantSpec { return grantSpec{m, c} }

func actor(role permission.Role, grants ...grantSpec) service.Actor {
	var perms permission.Permissions
	for _, g := range grants {
		perms, _ = perms.With(g.m, g.c, true)
	}
	return service.Actor{
		Principal: permission.Principal{ID: uuid.New(), Role: role, Permissions: perms},
		SessionID: uuid.New(),
	}
}

type registrar interface {
	RegisterRoutes(router *gin.RouterGroup, g Guards)
}

func newTestRouter(admins tokenAuth, owners ownerAuth, handlers ...registrar) *gin.Engine {
	r := gin.New()
	api := r.Group("/api")
	g := Guards{
		Admin:    middleware.RequireAdmin(admins),
		Owner:    middleware.RequireOwner(owners),
		Throttle: func(c *gin.Context) { c.Next() },
	}
	for _, h := range handlers {
		h.RegisterRoutes(api, g)
	}
	return r
}

func jsonBody(body interface{}) *bytes.Buffer {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	return &buf
}

func do(r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, jsonBody(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// --- service mocks ---

type mockReviewService struct{ mock.Mock }

func (m *mockReviewService) ListByReviewStatus(ctx context.Context, q service.ReviewListQuery) (*service.ReviewListResponse, error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(*service.ReviewListResponse)
	return res, args.Error(1)
}

func (m *mockReviewService) SubmitDecision(ctx context.Context, a service.Actor, req service.ReviewDecisionRequest) (*service.ListingResponse, error) {
	args := m.Called(ctx, a, req)
	res, _ := args.Get(0).(*service.ListingResponse)
	return res, args.Error(1)
}

type mockListingService struct{ mock.Mock }

func (m *mockListingService) Create(ctx context.Context, ownerID uuid.UUID, in service.ListingInput) (*service.ListingResponse, error) {
	args := m.Called(ctx, ownerID, in)
	res, _ := args.Get(0).(*service.ListingResponse)
	return res, args.Error(1)
}

func (m *mockListingService) ListMine(ctx context.Context, ownerID uuid.UUID, page, limit int) (*service.ListingPage, error) {
	args := m.Called(ctx, ownerID, page, limit)
	res, _ := args.Get(0).(*service.ListingPage)
	return res, args.Error(1)
}

func (m *mockListingService) GetMine(ctx context.Context, ownerID uuid.UUID, id string) (*service.ListingResponse, error) {
	args := m.Called(ctx, ownerID, id)
	res, _ := args.Get(0).(*service.ListingResponse)
	return res, args.Error(1)
}

func (m *mockListingService) UpdateMine(ctx context.Context, ownerID uuid.UUID, id string, in service.ListingInput) (*service.ListingResponse, error) {
	args := m.Called(ctx, ownerID, id, in)
	res, _ := args.Get(0).(*service.ListingResponse)
	return res, args.Error(1)
}

func (m *mockListingService) SetMyStatus(ctx context.Context, ownerID uuid.UUID, id string, status string) (*service.ListingResponse, error) {
	args := m.Called(ctx, ownerID, id, status)
	res, _ := args.Get(0).(*service.ListingResponse)
	return res, args.Error(1)
}

func (m *mockListingService) DeleteMine(ctx context.Context, ownerID uuid.UUID, id string) error {
	return m.Called(ctx, ownerID, id).Error(0)
}

func (m *mockListingService) ListPublic(ctx context.Context, q service.ListingQuery) (*service.ListingPage, error) {
	args := m.Called(ctx, q)
	res, _ := args.Get(0).(*service.ListingPage)
	return res, args.Error(1)
}

func (m *mockListingService) GetPublic(ctx context.Context, id string) (*service.ListingResponse, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*service.ListingResponse)
	return res, args.Error(1)
}

func (m *mockListingService) Manage(ctx context.Context, a service.Actor, id string, in service.ListingInput) (*service.ListingResponse, error) {
	args := m.Called(ctx, a, id, in)
	res, _ := args.Get(0).(*service.ListingResponse)
	return res, args.Error(1)
}

func (m *mockListingService) Remove(ctx context.Context, a service.Actor, id string) error {
	return m.Called(ctx, a, id).Error(0)
}

type mockAdminService struct{ mock.Mock }

func (m *mockAdminService) List(ctx context.Context, page, limit int) (*service.AdminPage, error) {
	args := m.Called(ctx, page, limit)
	res, _ := args.Get(0).(*service.AdminPage)
	return res, args.Error(1)
}

func (m *mockAdminService) Get(ctx context.Context, id string) (*service.AdminResponse, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*service.AdminResponse)
	return res, args.Error(1)
}

func (m *mockAdminService) Create(ctx context.Context, a service.Actor, req service.CreateAdminRequest) (*service.AdminResponse, error) {
	args := m.Called(ctx, a, req)
	res, _ := args.Get(0).(*service.AdminResponse)
	return res, args.Error(1)
}

func (m *mockAdminService) Update(ctx context.Context, a service.Actor, req service.UpdateAdminRequest) (*service.AdminResponse, error) {
	args := m.Called(ctx, a, req)
	res, _ := args.Get(0).(*service.AdminResponse)
	return res, args.Error(1)
}

func (m *mockAdminService) Delete(ctx context.Context, a service.Actor, id string) error {
	return m.Called(ctx, a, id).Error(0)
}

func (m *mockAdminService) PermissionSchema() []permission.ModuleSchema {
	return permission.Schema()
}

func (m *mockAdminService) EnsureSuperAdmin(ctx context.Context, name, email, password string) error {
	return m.Called(ctx, name, email, password).Error(0)
}

type mockSessionService struct{ mock.Mock }

func (m *mockSessionService) List(ctx context.Context, a service.Actor, isActive *bool) ([]service.SessionResponse, error) {
	args := m.Called(ctx, a, isActive)
	res, _ := args.Get(0).([]service.SessionResponse)
	return res, args.Error(1)
}

func (m *mockSessionService) Terminate(ctx context.Context, a service.Actor, sessionID string) error {
	return m.Called(ctx, a, sessionID).Error(0)
}

func (m *mockSessionService) Sweep(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockActivityService struct{ mock.Mock }

func (m *mockActivityService) Recent(ctx context.Context, limit int) (*service.ActivityFeed, error) {
	args := m.Called(ctx, limit)
	res, _ := args.Get(0).(*service.ActivityFeed)
	return res, args.Error(1)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Login(ctx context.Context, req service.AdminLoginRequest, client service.ClientInfo) (*service.LoginResponse, error) {
	args := m.Called(ctx, req, client)
	res, _ := args.Get(0).(*service.LoginResponse)
	return res, args.Error(1)
}

func (m *mockAuthService) Logout(ctx context.Context, a service.Actor) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockAuthService) Authenticate(ctx context.Context, token string) (service.Actor, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(service.Actor), args.Error(1)
}

func (m *mockAuthService) Me(ctx context.Context, a service.Actor) (*service.MeResponse, error) {
	args := m.Called(ctx, a)
	res, _ := args.Get(0).(*service.MeResponse)
	return res, args.Error(1)
}

type mockUploadService struct{ mock.Mock }

func (m *mockUploadService) PresignListingImage(ctx context.Context, ownerID uuid.UUID, req service.PresignRequest) (*storage.PresignedUpload, error) {
	args := m.Called(ctx, ownerID, req)
	res, _ := args.Get(0).(*storage.PresignedUpload)
	return res, args.Error(1)
}
