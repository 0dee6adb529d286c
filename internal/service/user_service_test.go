package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/petalworks/flowershop-backend/internal/domain"
	"github.com/petalworks/flowershop-backend/internal/dto"
	"github.com/petalworks/flowershop-backend/internal/repository"
	"github.com/petalworks/flowershop-backend/internal/session"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	CreateFunc         func(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
	FindByUsernameFunc func(ctx context.Context, username string) (*domain.User, bool, error)
	FindByIDFunc       func(ctx context.Context, id int64) (*domain.User, bool, error)
}

func (m *MockUserRepository) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, username, email, passwordHash)
	}
	return nil, errors.New("not implemented")
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	if m.FindByUsernameFunc != nil {
		return m.FindByUsernameFunc(ctx, username)
	}
	return nil, false, domain.ErrUserNotFound
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, false, domain.ErrUserNotFound
}

// memoryUserRepo stores accounts in a map for roundtrip tests
type memoryUserRepo struct {
	users  map[string]*domain.User
	admins map[int64]bool
	nextID int64
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		users:  make(map[string]*domain.User),
		admins: make(map[int64]bool),
	}
}

func (r *memoryUserRepo) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	if _, exists := r.users[username]; exists {
		return nil, domain.ErrDuplicateUser
	}
	r.nextID++
	user := &domain.User{
		ID:           r.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	r.users[username] = user
	return user, nil
}

func (r *memoryUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, false, domain.ErrUserNotFound
	}
	return user, r.admins[user.ID], nil
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, r.admins[id], nil
		}
	}
	return nil, false, domain.ErrUserNotFound
}

func newTestUserService(t *testing.T, repo repository.UserRepository) UserService {
	t.Helper()
	store := session.NewMemoryStore(time.Minute)
	t.Cleanup(func() { store.Close() })
	return NewUserService(repo, session.NewRegistry(store))
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestUserService(t, &MockUserRepository{})
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.RegisterRequest
	}{
		{name: "missing username", req: dto.RegisterRequest{Password: "pw", Email: "a@b.c"}},
		{name: "missing password", req: dto.RegisterRequest{Username: "alice", Email: "a@b.c"}},
		{name: "missing email", req: dto.RegisterRequest{Username: "alice", Password: "pw"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, &tt.req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Register() = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegisterNeverReturnsPasswordHash(t *testing.T) {
	var storedHash string
	repo := &MockUserRepository{
		CreateFunc: func(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
			storedHash = passwordHash
			return &domain.User{ID: 1, Username: username, Email: email, PasswordHash: passwordHash}, nil
		},
	}
	svc := newTestUserService(t, repo)

	user, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username: "alice", Password: "s3cret", Email: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if storedHash == "s3cret" {
		t.Error("password stored in plaintext")
	}
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Errorf("unexpected response: %+v", user)
	}
}

func TestRegisterLoginRoundtrip(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestUserService(t, repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &dto.RegisterRequest{
		Username: "alice", Password: "s3cret", Email: "alice@example.com",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	auth, err := svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "s3cret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if auth.SessionKey == "" {
		t.Error("expected a session key")
	}
	if auth.ExpiresIn != int64(domain.SessionTTL.Seconds()) {
		t.Errorf("expires_in = %d, want %d", auth.ExpiresIn, int64(domain.SessionTTL.Seconds()))
	}
	if auth.User == nil || auth.User.Username != "alice" || auth.User.IsAdmin {
		t.Errorf("unexpected user: %+v", auth.User)
	}

	// logging out twice is fine
	if err := svc.Logout(ctx, auth.SessionKey); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := svc.Logout(ctx, auth.SessionKey); err != nil {
		t.Errorf("second Logout: %v", err)
	}
}

func TestLoginAdminFlag(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestUserService(t, repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, &dto.RegisterRequest{
		Username: "root", Password: "pw", Email: "root@example.com",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	repo.admins[user.UserID] = true

	auth, err := svc.Login(ctx, &dto.LoginRequest{Username: "root", Password: "pw"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !auth.User.IsAdmin {
		t.Error("expected is_admin to be set")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestUserService(t, repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &dto.RegisterRequest{
		Username: "alice", Password: "s3cret", Email: "alice@example.com",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, unknownErr := svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "s3cret"})
	_, wrongPwErr := svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "wrong"})

	if !errors.Is(unknownErr, domain.ErrAuthFailed) {
		t.Errorf("unknown user = %v, want ErrAuthFailed", unknownErr)
	}
	if !errors.Is(wrongPwErr, domain.ErrAuthFailed) {
		t.Errorf("wrong password = %v, want ErrAuthFailed", wrongPwErr)
	}
	if unknownErr.Error() != wrongPwErr.Error() {
		t.Errorf("failure messages differ: %q vs %q", unknownErr, wrongPwErr)
	}
}

func TestLoginValidation(t *testing.T) {
	svc := newTestUserService(t, &MockUserRepository{})
	ctx := context.Background()

	if _, err := svc.Login(ctx, &dto.LoginRequest{Password: "pw"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing username = %v, want ErrValidation", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Username: "alice"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("missing password = %v, want ErrValidation", err)
	}
}

func TestGetByID(t *testing.T) {
	repo := newMemoryUserRepo()
	svc := newTestUserService(t, repo)
	ctx := context.Background()

	created, err := svc.Register(ctx, &dto.RegisterRequest{
		Username: "alice", Password: "pw", Email: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := svc.GetByID(ctx, created.UserID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("username = %q", user.Username)
	}

	if _, err := svc.GetByID(ctx, 9999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("GetByID(unknown) = %v, want ErrUserNotFound", err)
	}
}
