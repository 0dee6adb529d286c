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

const productColumns = "product_id, name, price, description, stock, location"

// PostgresProductRepository implements ProductRepository using PostgreSQL
// with pgxpool. Every operation runs through database.WithinTx.
type PostgresProductRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresProductRepository creates a new PostgresProductRepository
func NewPostgresProductRepository(pool *pgxpool.Pool) *PostgresProductRepository {
	return &PostgresProductRepository{pool: pool}
}

// List returns products matching the filters, paged by limit and page index
func (r *PostgresProductRepository) List(ctx context.Context, filters []*domain.Filter, limit, offset int) ([]*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.list")
	defer span.End()

	span.SetAttributes(
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
	)

	fragment, args, err := domain.CompileFilters(filters, 0)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// Page-index pagination: offset counts pages of size limit, not rows.
	rowOffset := limit * offset

	query := fmt.Sprintf(
		"SELECT %s FROM products WHERE TRUE%s ORDER BY product_id LIMIT $%d OFFSET $%d",
		productColumns, fragment, len(args)+1, len(args)+2,
	)
	args = append(args, limit, rowOffset)

	products, err := database.WithinTxResult(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) ([]*domain.Product, error) {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		defer rows.Close()

		var products []*domain.Product
		for rows.Next() {
			product, err := scanProduct(rows)
			if err != nil {
				return nil, err
			}
			products = append(products, product)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("error iterating products: %w", err)
		}

		if len(products) == 0 {
			return nil, domain.ErrProductNotFound
		}
		return products, nil
	})

	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("count", len(products)))
	span.SetStatus(codes.Ok, "")
	return products, nil
}

// GetByID retrieves a product by its ID
func (r *PostgresProductRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.get_by_id")
	defer span.End()

	span.SetAttributes(attribute.Int64("product_id", id))

	query := fmt.Sprintf("SELECT %s FROM products WHERE product_id = $1", productColumns)

	product, err := database.WithinTxResult(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) (*domain.Product, error) {
		return scanProductRow(tx.QueryRow(ctx, query, id))
	})

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return product, nil
}

// Create inserts a new product and returns it with its assigned ID
func (r *PostgresProductRepository) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.create")
	defer span.End()

	span.SetAttributes(attribute.String("name", product.Name))

	query := `
		INSERT INTO products (name, price, description, stock, location)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING product_id
	`

	created, err := database.WithinTxResult(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) (*domain.Product, error) {
		var id int64
		err := tx.QueryRow(ctx, query,
			product.Name,
			product.Price,
			product.Description,
			product.Stock,
			nullString(product.Location),
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to create product: %w", err)
		}

		out := *product
		out.ID = id
		return &out, nil
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("product_id", created.ID))
	span.SetStatus(codes.Ok, "")
	return created, nil
}

// Update locks the row, applies the patch with COALESCE semantics and
// returns the resulting product. An empty patch leaves every field unchanged.
func (r *PostgresProductRepository) Update(ctx context.Context, id int64, patch *domain.ProductPatch) (*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.update")
	defer span.End()

	span.SetAttributes(attribute.Int64("product_id", id))

	updated, err := database.WithinTxResult(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) (*domain.Product, error) {
		if err := lockProductRow(ctx, tx, id); err != nil {
			return nil, err
		}

		query := `
			UPDATE products SET
				name = COALESCE($2, name),
				price = COALESCE($3, price),
				description = COALESCE($4, description),
				stock = COALESCE($5, stock),
				location = COALESCE($6, location)
			WHERE product_id = $1
			RETURNING ` + productColumns

		return scanProductRow(tx.QueryRow(ctx, query,
			id,
			patch.Name,
			patch.Price,
			patch.Description,
			patch.Stock,
			patch.Location,
		))
	})

	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return updated, nil
}

// Delete locks the row and removes it
func (r *PostgresProductRepository) Delete(ctx context.Context, id int64) error {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.delete")
	defer span.End()

	span.SetAttributes(attribute.Int64("product_id", id))

	err := database.WithinTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockProductRow(ctx, tx, id); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, "DELETE FROM products WHERE product_id = $1", id); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return nil
	})

	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// AdjustStock mutates the stock of a product under a row-level exclusive
// lock. Two concurrent subtracts on the same product serialize at the lock,
// so the sufficiency check always sees the committed stock of the winner.
func (r *PostgresProductRepository) AdjustStock(ctx context.Context, id int64, action domain.StockAction, quantity int) (*domain.Product, error) {
	ctx, span := telemetry.StartSpan(ctx, "repo.postgres.product.adjust_stock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", id),
		attribute.String("action", string(action)),
		attribute.Int("quantity", quantity),
	)

	product, err := database.WithinTxResult(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) (*domain.Product, error) {
		var stock int
		err := tx.QueryRow(ctx,
			"SELECT stock FROM products WHERE product_id = $1 FOR UPDATE", id,
		).Scan(&stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrProductNotFound
			}
			return nil, fmt.Errorf("failed to lock product: %w", err)
		}

		var delta int
		switch action {
		case domain.StockActionAdd:
			delta = quantity
		case domain.StockActionSubtract:
			if stock < quantity {
				return nil, domain.ErrInsufficientStock
			}
			delta = -quantity
		default:
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAction, action)
		}

		query := `
			UPDATE products SET stock = stock + $2
			WHERE product_id = $1
			RETURNING ` + productColumns

		return scanProductRow(tx.QueryRow(ctx, query, id, delta))
	})

	if err != nil {
		if !domain.IsValidationError(err) && !domain.IsNotFoundError(err) && !domain.IsConflictError(err) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("stock", product.Stock))
	span.SetStatus(codes.Ok, "")
	return product, nil
}

// lockProductRow takes the row-level exclusive lock for the enclosing
// transaction, or reports ErrProductNotFound.
func lockProductRow(ctx context.Context, tx pgx.Tx, id int64) error {
	var locked int64
	err := tx.QueryRow(ctx,
		"SELECT product_id FROM products WHERE product_id = $1 FOR UPDATE", id,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrProductNotFound
		}
		return fmt.Errorf("failed to lock product: %w", err)
	}
	return nil
}

func scanProduct(rows pgx.Rows) (*domain.Product, error) {
	product := &domain.Product{}
	var location *string

	err := rows.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Description,
		&product.Stock,
		&location,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if location != nil {
		product.Location = *location
	}
	return product, nil
}

func scanProductRow(row pgx.Row) (*domain.Product, error) {
	product := &domain.Product{}
	var location *string

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Price,
		&product.Description,
		&product.Stock,
		&location,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if location != nil {
		product.Location = *location
	}
	return product, nil
}

// nullString converts an empty string to a nil pointer
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ensure PostgresProductRepository implements ProductRepository
var _ ProductRepository = (*PostgresProductRepository)(nil)
