package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/petalworks/flowershop-backend/internal/domain"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

// getPostgresPool creates a PostgreSQL connection pool for testing.
// The target database must have migrations/001_init.sql applied.
func getPostgresPool(t *testing.T) *pgxpool.Pool {
	skipIfNoIntegration(t)

	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}

	port := os.Getenv("TEST_POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}

	user := os.Getenv("TEST_POSTGRES_USER")
	if user == "" {
		user = "postgres"
	}

	password := os.Getenv("TEST_POSTGRES_PASSWORD")
	if password == "" {
		password = "postgres"
	}

	dbname := os.Getenv("TEST_POSTGRES_DB")
	if dbname == "" {
		dbname = "flowershop_test"
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbname)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to create PostgreSQL pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping PostgreSQL: %v", err)
	}

	// Clean up test data
	cleanupTestProducts(t, pool)

	return pool
}

func cleanupTestProducts(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM products WHERE name LIKE 'test-%'")
	if err != nil {
		t.Logf("Warning: failed to clean up products: %v", err)
	}
}

func createTestProduct(t *testing.T, repo *PostgresProductRepository, name string, stock int) *domain.Product {
	created, err := repo.Create(context.Background(), &domain.Product{
		Name:        name,
		Price:       12.50,
		Description: "integration fixture",
		Stock:       stock,
		Location:    "aisle 3",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return created
}

func TestPostgresProductRepository_ListNoMatchReturnsNotFound(t *testing.T) {
	skipIfNoIntegration(t)

	pool := getPostgresPool(t)
	defer pool.Close()

	repo := NewPostgresProductRepository(pool)
	ctx := context.Background()

	createTestProduct(t, repo, "test-rose-bouquet", 5)

	filter, err := domain.NewFilter("name", domain.RuleContains, "test-no-such-product", false, "")
	if err != nil {
		t.Fatalf("NewFilter() error = %v", err)
	}

	products, err := repo.List(ctx, []*domain.Filter{filter}, 10, 0)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("List() error = %v, want ErrProductNotFound", err)
	}
	if products != nil {
		t.Errorf("List() = %v, want nil", products)
	}
}

func TestPostgresProductRepository_ListPastLastPageReturnsNotFound(t *testing.T) {
	skipIfNoIntegration(t)

	pool := getPostgresPool(t)
	defer pool.Close()

	repo := NewPostgresProductRepository(pool)
	ctx := context.Background()

	createTestProduct(t, repo, "test-tulip-bundle", 5)

	filter, err := domain.NewFilter("name", domain.RuleContains, "test-tulip-bundle", false, "")
	if err != nil {
		t.Fatalf("NewFilter() error = %v", err)
	}

	// One matching row, so page index 1 is past the end
	_, err = repo.List(ctx, []*domain.Filter{filter}, 10, 1)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("List() error = %v, want ErrProductNotFound", err)
	}
}

func TestPostgresProductRepository_UpdateEmptyPatchKeepsFields(t *testing.T) {
	skipIfNoIntegration(t)

	pool := getPostgresPool(t)
	defer pool.Close()

	repo := NewPostgresProductRepository(pool)
	ctx := context.Background()

	created := createTestProduct(t, repo, "test-orchid-pot", 7)

	updated, err := repo.Update(ctx, created.ID, &domain.ProductPatch{})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if *updated != *created {
		t.Errorf("Update() with empty patch = %+v, want %+v", updated, created)
	}
}

func TestPostgresProductRepository_UpdatePartialPatchKeepsOtherFields(t *testing.T) {
	skipIfNoIntegration(t)

	pool := getPostgresPool(t)
	defer pool.Close()

	repo := NewPostgresProductRepository(pool)
	ctx := context.Background()

	created := createTestProduct(t, repo, "test-lily-vase", 7)

	newPrice := 20.00
	updated, err := repo.Update(ctx, created.ID, &domain.ProductPatch{Price: &newPrice})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if updated.Price != newPrice {
		t.Errorf("Update() price = %v, want %v", updated.Price, newPrice)
	}
	if updated.Name != created.Name || updated.Description != created.Description ||
		updated.Stock != created.Stock || updated.Location != created.Location {
		t.Errorf("Update() changed unpatched fields: got %+v, want base %+v", updated, created)
	}
}

func TestPostgresProductRepository_ConcurrentSubtractsSerialize(t *testing.T) {
	skipIfNoIntegration(t)

	pool := getPostgresPool(t)
	defer pool.Close()

	repo := NewPostgresProductRepository(pool)
	ctx := context.Background()

	created := createTestProduct(t, repo, "test-peony-crate", 5)

	// Two subtracts of 3 against stock 5: the row lock serializes them,
	// so exactly one succeeds and one sees insufficient stock.
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.AdjustStock(ctx, created.ID, domain.StockActionSubtract, 3)
		}(i)
	}
	wg.Wait()

	insufficient := 0
	for _, err := range errs {
		if errors.Is(err, domain.ErrInsufficientStock) {
			insufficient++
		} else if err != nil {
			t.Fatalf("AdjustStock() error = %v", err)
		}
	}
	if insufficient != 1 {
		t.Errorf("got %d insufficient-stock results, want exactly 1", insufficient)
	}

	final, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if final.Stock != 2 {
		t.Errorf("final stock = %d, want 2", final.Stock)
	}
}
