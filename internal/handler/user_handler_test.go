package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/petalworks/flowershop-backend/internal/domain"
	"github.com/petalworks/flowershop-backend/internal/dto"
)

// MockUserService is a mock implementation of UserService for testing
type MockUserService struct {
	RegisterFunc func(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	LoginFunc    func(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	LogoutFunc   func(ctx context.Context, key string) error
	GetByIDFunc  func(ctx context.Context, id int64) (*dto.UserResponse, error)
}

func (m *MockUserService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, req)
	}
	return &dto.UserResponse{UserID: 1, Username: req.Username, Email: req.Email}, nil
}

func (m *MockUserService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, req)
	}
	return nil, domain.ErrAuthFailed
}

func (m *MockUserService) Logout(ctx context.Context, key string) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, key)
	}
	return nil
}

func (m *MockUserService) GetByID(ctx context.Context, id int64) (*dto.UserResponse, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, domain.ErrUserNotFound
}

func setupUserRouter(svc *MockUserService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(svc)

	router := gin.New()
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
	router.POST("/auth/logout", h.Logout)
	router.GET("/users/:id", h.Get)
	return router
}

func TestRegisterCreated(t *testing.T) {
	router := setupUserRouter(&MockUserService{})

	body, _ := json.Marshal(dto.RegisterRequest{Username: "alice", Password: "pw", Email: "alice@example.com"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("pw")) {
		t.Error("response must not echo the password")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := &MockUserService{
		RegisterFunc: func(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
			return nil, domain.ErrDuplicateUser
		},
	}
	router := setupUserRouter(svc)

	body, _ := json.Marshal(dto.RegisterRequest{Username: "alice", Password: "pw", Email: "alice@example.com"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409; body = %s", w.Code, w.Body.String())
	}
}

func TestLoginBadCredentials(t *testing.T) {
	router := setupUserRouter(&MockUserService{})

	body, _ := json.Marshal(dto.LoginRequest{Username: "alice", Password: "wrong"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401; body = %s", w.Code, w.Body.String())
	}
}

func TestLoginReturnsSessionKey(t *testing.T) {
	svc := &MockUserService{
		LoginFunc: func(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
			return &dto.AuthResponse{
				SessionKey: "opaque-key",
				ExpiresIn:  3600,
				User:       &dto.UserResponse{UserID: 1, Username: req.Username},
			}, nil
		},
	}
	router := setupUserRouter(svc)

	body, _ := json.Marshal(dto.LoginRequest{Username: "alice", Password: "pw"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data dto.AuthResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.SessionKey != "opaque-key" || resp.Data.ExpiresIn != 3600 {
		t.Errorf("unexpected auth payload: %+v", resp.Data)
	}
}

func TestLogoutForwardsHeaderKey(t *testing.T) {
	var gotKey string
	svc := &MockUserService{
		LogoutFunc: func(ctx context.Context, key string) error {
			gotKey = key
			return nil
		},
	}
	router := setupUserRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set(SessionKeyHeader, "some-key")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotKey != "some-key" {
		t.Errorf("key = %q, want %q", gotKey, "some-key")
	}
}

func TestGetUserPermissions(t *testing.T) {
	svc := &MockUserService{
		GetByIDFunc: func(ctx context.Context, id int64) (*dto.UserResponse, error) {
			return &dto.UserResponse{UserID: id, Username: "someone"}, nil
		},
	}
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(svc)

	tests := []struct {
		name     string
		userID   int64
		isAdmin  bool
		target   string
		wantCode int
	}{
		{name: "own account", userID: 5, target: "/users/5", wantCode: http.StatusOK},
		{name: "other account as regular user", userID: 5, target: "/users/6", wantCode: http.StatusForbidden},
		{name: "other account as admin", userID: 5, isAdmin: true, target: "/users/6", wantCode: http.StatusOK},
		{name: "invalid id", userID: 5, target: "/users/zero", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/users/:id", func(c *gin.Context) {
				c.Set(ctxUserID, tt.userID)
				c.Set(ctxIsAdmin, tt.isAdmin)
			}, h.Get)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status = %d, want %d; body = %s", w.Code, tt.wantCode, w.Body.String())
			}
		})
	}
}
