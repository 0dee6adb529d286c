package service

import (
	"context"
	"errors"

	"github.com/petalworks/flowershop-backend/internal/domain"
	"github.com/petalworks/flowershop-backend/internal/dto"
	"github.com/petalworks/flowershop-backend/internal/metrics"
	"github.com/petalworks/flowershop-backend/internal/repository"
	"github.com/petalworks/flowershop-backend/internal/session"
	"github.com/petalworks/flowershop-backend/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

// UserService defines the interface for account operations
type UserService interface {
	// Register creates an account. The response never carries the password
	// or its hash.
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error)
	// Login verifies credentials and issues a session key
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	// Logout revokes a session key; revoking an unknown key succeeds
	Logout(ctx context.Context, key string) error
	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id int64) (*dto.UserResponse, error)
}

// userService implements UserService
type userService struct {
	userRepo repository.UserRepository
	sessions *session.Registry
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, sessions *session.Registry) UserService {
	return &userService{
		userRepo: userRepo,
		sessions: sessions,
	}
}

// Register creates an account with a bcrypt password hash
func (s *userService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.UserResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.register")
	defer span.End()

	if req.Username == "" || req.Password == "" || req.Email == "" {
		span.SetStatus(codes.Error, "missing required field")
		return nil, domain.ErrValidation
	}

	span.SetAttributes(attribute.String("username", req.Username))

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, req.Username, req.Email, string(hash))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return dto.NewUserResponse(user.Identity(false), user.Email), nil
}

// Login verifies credentials and issues a session. An unknown username and a
// wrong password both fail with the same error so callers cannot probe which
// usernames exist.
func (s *userService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.login")
	defer span.End()

	if req.Username == "" || req.Password == "" {
		span.SetStatus(codes.Error, "missing credentials")
		return nil, domain.ErrValidation
	}

	span.SetAttributes(attribute.String("username", req.Username))

	user, isAdmin, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// same failure as a wrong password; do not leak which usernames exist
			if metrics.LoginsFailed != nil {
				metrics.LoginsFailed.Add(ctx, 1)
			}
			span.SetStatus(codes.Error, "authentication failed")
			return nil, domain.ErrAuthFailed
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if metrics.LoginsFailed != nil {
			metrics.LoginsFailed.Add(ctx, 1)
		}
		span.SetStatus(codes.Error, "authentication failed")
		return nil, domain.ErrAuthFailed
	}

	sess, err := s.sessions.Create(ctx, user.Identity(isAdmin))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if metrics.LoginsSucceeded != nil {
		metrics.LoginsSucceeded.Add(ctx, 1)
	}

	span.SetAttributes(attribute.Int64("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return &dto.AuthResponse{
		SessionKey: sess.Key,
		ExpiresIn:  int64(domain.SessionTTL.Seconds()),
		User:       dto.NewUserResponse(sess.Identity(), user.Email),
	}, nil
}

// Logout revokes a session key
func (s *userService) Logout(ctx context.Context, key string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.user.logout")
	defer span.End()

	if err := s.sessions.Destroy(ctx, key); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// GetByID retrieves an account by ID
func (s *userService) GetByID(ctx context.Context, id int64) (*dto.UserResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.user.get")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", id))

	user, isAdmin, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.NewUserResponse(user.Identity(isAdmin), user.Email), nil
}
