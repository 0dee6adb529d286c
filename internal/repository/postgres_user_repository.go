package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/petalworks/flowershop-backend/internal/domain"
	"github.com/petalworks/flowershop-backend/pkg/database"
	"github.com/petalworks/flowershop-backend/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PostgresUserRepository implements UserRepository using PostgreSQL with pgxpool
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// Create inserts a new user. A unique violation on username or email maps to
// ErrDuplicateUser.
func (r *PostgresUserRepository) Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.user.create")
	defer span.End()

	span.SetAttributes(attribute.String("username", username))

	query := `
		INSERT INTO users (username, password, email)
		VALUES ($1, $2, $3)
		RETURNING user_id, created_at
	`

	user, err := database.WithinTxResult(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) (*domain.User, error) {
		user := &domain.User{
			Username:     username,
			Email:        email,
			PasswordHash: passwordHash,
		}
		err := tx.QueryRow(ctx, query, username, passwordHash, email).Scan(&user.ID, &user.CreatedAt)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return nil, domain.ErrDuplicateUser
			}
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		return user, nil
	})

	if err != nil {
		if !errors.Is(err, domain.ErrDuplicateUser) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("user_id", user.ID))
	span.SetStatus(codes.Ok, "")
	return user, nil
}

// FindByUsername retrieves a user and their admin status in one unit of work
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.user.find_by_username")
	defer span.End()

	span.SetAttributes(attribute.String("username", username))

	user, isAdmin, err := r.find(ctx, "username = $1", username)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}

	span.SetStatus(codes.Ok, "")
	return user, isAdmin, nil
}

// FindByID retrieves a user and their admin status in one unit of work
func (r *PostgresUserRepository) FindByID(ctx context.Context, id int64) (*domain.User, bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.user.find_by_id")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", id))

	user, isAdmin, err := r.find(ctx, "user_id = $1", id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}

	span.SetStatus(codes.Ok, "")
	return user, isAdmin, nil
}

type result struct {
	user    *domain.User
	isAdmin bool
}

func (r *PostgresUserRepository) find(ctx context.Context, where string, arg any) (*domain.User, bool, error) {
	query := "SELECT user_id, username, password, email, created_at FROM users WHERE " + where

	res, err := database.WithinTxResult(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) (result, error) {
		user := &domain.User{}
		err := tx.QueryRow(ctx, query, arg).Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Email,
			&user.CreatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return result{}, domain.ErrUserNotFound
			}
			return result{}, fmt.Errorf("failed to get user: %w", err)
		}

		// Admin status lives in a separate relation, not on the user row.
		var isAdmin bool
		err = tx.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM administrators WHERE user_id = $1)", user.ID,
		).Scan(&isAdmin)
		if err != nil {
			return result{}, fmt.Errorf("failed to check admin status: %w", err)
		}

		return result{user: user, isAdmin: isAdmin}, nil
	})

	if err != nil {
		return nil, false, err
	}

	return res.user, res.isAdmin, nil
}

// Ensure PostgresUserRepository implements UserRepository
var _ UserRepository = (*PostgresUserRepository)(nil)
