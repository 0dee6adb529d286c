package repository

import (
	"context"

	"github.com/petalworks/flowershop-backend/internal/domain"
)

// ProductRepository defines inventory storage operations. Every method is one
// unit of work: it runs inside its own transaction and either commits fully
// or rolls back.
type ProductRepository interface {
	// List returns products matching the compiled filters. The offset
	// argument is a page index: the row offset is limit*offset.
	List(ctx context.Context, filters []*domain.Filter, limit, offset int) ([]*domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	// Update locks the row, then applies the patch with COALESCE semantics:
	// nil patch fields keep the stored value.
	Update(ctx context.Context, id int64, patch *domain.ProductPatch) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	// AdjustStock locks the row for the duration of the transaction so
	// concurrent mutations of the same product serialize. Subtracting below
	// zero fails with ErrInsufficientStock before commit.
	AdjustStock(ctx context.Context, id int64, action domain.StockAction, quantity int) (*domain.Product, error)
}

// UserRepository defines account storage operations. FindBy* also resolve
// admin status from the administrators relation inside the same transaction.
type UserRepository interface {
	Create(ctx context.Context, username, email, passwordHash string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, bool, error)
	FindByID(ctx context.Context, id int64) (*domain.User, bool, error)
}
