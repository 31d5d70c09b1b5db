package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"estatehub/internal/permission"
	"estatehub/internal/service"
	"estatehub/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockUserService struct{ mock.Mock }

func (m *mockUserService) Register(ctx context.Context, req service.RegisterUserRequest) (*service.OwnerTokenResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*service.OwnerTokenResponse)
	return res, args.Error(1)
}

func (m *mockUserService) Login(ctx context.Context, req service.LoginRequest) (*service.OwnerTokenResponse, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*service.OwnerTokenResponse)
	return res, args.Error(1)
}

func (m *mockUserService) GetByID(ctx context.Context, id string) (*service.UserResponse, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*service.UserResponse)
	return res, args.Error(1)
}

func (m *mockUserService) List(ctx context.Context, page, limit int) (*service.UserPage, error) {
	args := m.Called(ctx, page, limit)
	res, _ := args.Get(0).(*service.UserPage)
	return res, args.Error(1)
}

func (m *mockUserService) AuthenticateOwner(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func TestRegisterUser_Conflict(t *testing.T) {
	users := &mockUserService{}
	users.On("Register", mock.Anything, mock.Anything).Return(nil, service.ErrConflict)
	r := newTestRouter(tokenAuth{}, ownerAuth{}, NewUserHandler(users))

	w := do(r, http.MethodPost, "/api/users/register", "", map[string]string{
		"name": "Owner", "email": "owner@example.com", "phone": "+15550100", "password": "longenough",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", decode(t, w).Code)
}

func TestRegisterUser_ShortPassword(t *testing.T) {
	users := &mockUserService{}
	r := newTestRouter(tokenAuth{}, ownerAuth{}, NewUserHandler(users))

	w := do(r, http.MethodPost, "/api/users/register", "", map[string]string{
		"name": "Owner", "email": "owner@example.com", "phone": "+15550100", "password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode(t, w).Data.(map[string]interface{})
	assert.Equal(t, "password must be at least 8", fields["password"])
}

func TestListUsers_RequiresUsersView(t *testing.T) {
	users := &mockUserService{}
	users.On("List", mock.Anything, 1, 20).Return(&service.UserPage{}, nil)
	r := newTestRouter(tokenAuth{
		"none":   actor(permission.RoleModerator),
		"viewer": actor(permission.RoleModerator, can(permission.ModuleUsers, permission.View)),
	}, ownerAuth{}, NewUserHandler(users))

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/users", "none", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/users", "viewer", nil).Code)
	users.AssertNumberOfCalls(t, "List", 1)
}

func TestPresign(t *testing.T) {
	owner := uuid.New()
	uploads := &mockUploadService{}
	uploads.On("PresignListingImage", mock.Anything, owner, service.PresignRequest{FileName: "front.jpg", ContentType: "image/jpeg"}).
		Return(&storage.PresignedUpload{UploadURL: "https://bucket.example/put", Method: http.MethodPut}, nil).Once()
	uploads.On("PresignListingImage", mock.Anything, owner, mock.Anything).Return(nil, service.ErrUploadsDisabled)
	r := newTestRouter(tokenAuth{}, ownerAuth{"o": owner}, NewUploadHandler(uploads))

	w := do(r, http.MethodPost, "/api/uploads/presign", "o", map[string]string{"fileName": "front.jpg", "contentType": "image/jpeg"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://bucket.example/put")

	w = do(r, http.MethodPost, "/api/uploads/presign", "o", map[string]string{"fileName": "front.jpg", "contentType": "image/jpeg"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRespondError_Localized(t *testing.T) {
	reviews := &mockReviewService{}
	reviews.On("SubmitDecision", mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrNotFound)
	r := newTestRouter(tokenAuth{"m": actor(permission.RoleModerator)}, ownerAuth{}, NewReviewHandler(reviews, &mockListingService{}))

	req := httptest.NewRequest(http.MethodPut, "/api/properties/review", jsonBody(map[string]string{
		"propertyId": uuid.NewString(), "action": "approve",
	}))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer m")
	req.Header.Set("Accept-Language", "ar")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "السجل المطلوب لم يعد موجوداً", decode(t, w).Message)
}
