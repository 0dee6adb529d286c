package service

import (
	"context"
	"errors"

	"github.com/petalworks/flowershop-backend/internal/domain"
	"github.com/petalworks/flowershop-backend/internal/dto"
	"github.com/petalworks/flowershop-backend/internal/metrics"
	"github.com/petalworks/flowershop-backend/internal/repository"
	"github.com/petalworks/flowershop-backend/pkg/logger"
	"github.com/petalworks/flowershop-backend/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// DefaultListLimit is used when the caller does not specify a limit
const DefaultListLimit = 10

// ProductService defines the interface for inventory operations
type ProductService interface {
	// ListProducts returns a page of products. The offset argument is a
	// page index, not a row offset.
	ListProducts(ctx context.Context, filters []*domain.Filter, limit, offset int) ([]*dto.ProductResponse, error)
	// GetProduct retrieves one product by ID
	GetProduct(ctx context.Context, id int64) (*dto.ProductResponse, error)
	// CreateProduct adds a new product to the inventory
	CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*dto.ProductResponse, error)
	// UpdateProduct applies a partial update; absent fields keep their value
	UpdateProduct(ctx context.Context, id int64, req *dto.UpdateProductRequest) (*dto.ProductResponse, error)
	// DeleteProduct removes a product
	DeleteProduct(ctx context.Context, id int64) error
	// AdjustStock adds to or subtracts from a product's stock
	AdjustStock(ctx context.Context, id int64, req *dto.StockRequest) (*dto.ProductResponse, error)
	// BuyProduct purchases a quantity (default 1) of a product
	BuyProduct(ctx context.Context, id int64, quantity int) (*dto.ProductResponse, error)
}

// productService implements ProductService
type productService struct {
	productRepo repository.ProductRepository
	events      EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(productRepo repository.ProductRepository, events EventPublisher) ProductService {
	if events == nil {
		events = NewNoOpEventPublisher()
	}
	return &productService{
		productRepo: productRepo,
		events:      events,
	}
}

// ListProducts returns a page of products matching the filters
func (s *productService) ListProducts(ctx context.Context, filters []*domain.Filter, limit, offset int) ([]*dto.ProductResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.product.list")
	defer span.End()

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	span.SetAttributes(
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
		attribute.Int("filters", len(filters)),
	)

	products, err := s.productRepo.List(ctx, filters, limit, offset)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	responses := make([]*dto.ProductResponse, 0, len(products))
	for _, p := range products {
		responses = append(responses, dto.NewProductResponse(p))
	}

	span.SetAttributes(attribute.Int("count", len(responses)))
	span.SetStatus(codes.Ok, "")
	return responses, nil
}

// GetProduct retrieves one product by ID
func (s *productService) GetProduct(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.product.get")
	defer span.End()

	span.SetAttributes(attribute.Int64("product_id", id))

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.NewProductResponse(product), nil
}

// CreateProduct validates and inserts a new product
func (s *productService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.product.create")
	defer span.End()

	// name, price, description and stock are all required
	if req.Name == nil || req.Price == nil || req.Description == nil || req.Stock == nil {
		span.SetStatus(codes.Error, "missing required field")
		return nil, domain.ErrValidation
	}

	product := &domain.Product{
		Name:        *req.Name,
		Price:       *req.Price,
		Description: *req.Description,
		Stock:       *req.Stock,
		Location:    req.Location,
	}
	if err := product.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	created, err := s.productRepo.Create(ctx, product)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int64("product_id", created.ID))
	span.SetStatus(codes.Ok, "")
	return dto.NewProductResponse(created), nil
}

// UpdateProduct applies a partial update under a row lock
func (s *productService) UpdateProduct(ctx context.Context, id int64, req *dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.product.update")
	defer span.End()

	span.SetAttributes(attribute.Int64("product_id", id))

	patch := req.ToPatch()
	if patch.Name != nil && *patch.Name == "" {
		span.SetStatus(codes.Error, "empty name")
		return nil, domain.ErrValidation
	}
	if patch.Price != nil && *patch.Price < 0 {
		span.SetStatus(codes.Error, "negative price")
		return nil, domain.ErrValidation
	}
	if patch.Stock != nil && *patch.Stock < 0 {
		span.SetStatus(codes.Error, "negative stock")
		return nil, domain.ErrValidation
	}

	updated, err := s.productRepo.Update(ctx, id, patch)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return dto.NewProductResponse(updated), nil
}

// DeleteProduct removes a product
func (s *productService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := telemetry.StartSpan(ctx, "service.product.delete")
	defer span.End()

	span.SetAttributes(attribute.Int64("product_id", id))

	if err := s.productRepo.Delete(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// AdjustStock adds to or subtracts from a product's stock
func (s *productService) AdjustStock(ctx context.Context, id int64, req *dto.StockRequest) (*dto.ProductResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.product.adjust_stock")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product_id", id),
		attribute.String("action", req.Action),
		attribute.Int("quantity", req.Quantity),
	)

	action, err := domain.ParseStockAction(req.Action)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if req.Quantity <= 0 {
		span.SetStatus(codes.Error, "invalid quantity")
		return nil, domain.ErrInvalidQuantity
	}

	product, err := s.productRepo.AdjustStock(ctx, id, action, req.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) && metrics.StockConflicts != nil {
			metrics.StockConflicts.Add(ctx, 1)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if metrics.StockAdjusted != nil {
		metrics.StockAdjusted.Add(ctx, 1, attribute.String("action", string(action)))
	}
	s.publishStockEvent(ctx, StockEventAdjusted, product, action, req.Quantity)

	span.SetAttributes(attribute.Int("stock", product.Stock))
	span.SetStatus(codes.Ok, "")
	return dto.NewProductResponse(product), nil
}

// BuyProduct purchases a quantity of a product; quantity defaults to 1
func (s *productService) BuyProduct(ctx context.Context, id int64, quantity int) (*dto.ProductResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.product.buy")
	defer span.End()

	if quantity == 0 {
		quantity = 1
	}
	if quantity < 0 {
		span.SetStatus(codes.Error, "invalid quantity")
		return nil, domain.ErrInvalidQuantity
	}

	span.SetAttributes(
		attribute.Int64("product_id", id),
		attribute.Int("quantity", quantity),
	)

	product, err := s.productRepo.AdjustStock(ctx, id, domain.StockActionSubtract, quantity)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) && metrics.StockConflicts != nil {
			metrics.StockConflicts.Add(ctx, 1)
		}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if metrics.ProductsSold != nil {
		metrics.ProductsSold.Add(ctx, int64(quantity))
	}
	s.publishStockEvent(ctx, StockEventSold, product, domain.StockActionSubtract, quantity)

	span.SetAttributes(attribute.Int("stock", product.Stock))
	span.SetStatus(codes.Ok, "")
	return dto.NewProductResponse(product), nil
}

// publishStockEvent is best-effort: the mutation already committed
func (s *productService) publishStockEvent(ctx context.Context, eventType string, product *domain.Product, action domain.StockAction, quantity int) {
	if err := s.events.PublishStockChanged(ctx, eventType, product, action, quantity); err != nil {
		logger.Get().Warn("failed to publish stock event",
			zap.String("event_type", eventType),
			zap.Int64("product_id", product.ID),
			zap.Error(err),
		)
	}
}
