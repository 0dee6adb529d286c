package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/petalworks/flowershop-backend/internal/domain"
	"github.com/petalworks/flowershop-backend/internal/dto"
	"github.com/petalworks/flowershop-backend/internal/service"
	"github.com/petalworks/flowershop-backend/pkg/response"
	"github.com/petalworks/flowershop-backend/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ProductHandler handles inventory HTTP requests
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List handles GET /products and POST /products/search.
// Filters arrive in an optional JSON body; limit and offset are query
// parameters, offset being a page index.
func (h *ProductHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.product.list")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	limit := 0
	offset := 0
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	if o := c.Query("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n > 0 {
			offset = n
		}
	}

	// the filter body is optional; an absent or empty body means no
	// filtering, but a body that fails to parse is a client error
	var req dto.ListProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		span.SetStatus(codes.Error, err.Error())
		response.BadRequest(c, "malformed filter body")
		return
	}

	filters, err := req.ToFilters()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(
		attribute.Int("limit", limit),
		attribute.Int("offset", offset),
		attribute.Int("filters", len(filters)),
	)

	products, err := h.productService.ListProducts(ctx, filters, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("count", len(products)))
	span.SetStatus(codes.Ok, "")
	response.Success(c, products)
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.product.get")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := productID(c)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("product_id", id))

	product, err := h.productService.GetProduct(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, product)
}

// Create handles POST /products (admin only)
func (h *ProductHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.product.create")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	var req dto.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.CreateProduct(ctx, &req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("product_id", product.ID))
	span.SetStatus(codes.Ok, "")
	response.Created(c, product)
}

// Update handles PUT /products/:id (admin only)
func (h *ProductHandler) Update(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.product.update")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := productID(c)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("product_id", id))

	var req dto.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(ctx, id, &req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, product)
}

// Delete handles DELETE /products/:id (admin only)
func (h *ProductHandler) Delete(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.product.delete")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := productID(c)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int64("product_id", id))

	if err := h.productService.DeleteProduct(ctx, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetStatus(codes.Ok, "")
	response.Success(c, gin.H{"deleted": id})
}

// AdjustStock handles POST /products/:id/stock
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.product.adjust_stock")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := productID(c)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	var req dto.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid request")
		response.BadRequest(c, err.Error())
		return
	}

	span.SetAttributes(
		attribute.Int64("product_id", id),
		attribute.String("action", req.Action),
		attribute.Int("quantity", req.Quantity),
	)

	product, err := h.productService.AdjustStock(ctx, id, &req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("stock", product.Stock))
	span.SetStatus(codes.Ok, "")
	response.Success(c, product)
}

// Buy handles POST /products/:id/buy
func (h *ProductHandler) Buy(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.product.buy")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	id, err := productID(c)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	// body is optional; quantity defaults to 1
	var req dto.BuyRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		span.SetStatus(codes.Error, err.Error())
		response.BadRequest(c, "malformed request body")
		return
	}

	span.SetAttributes(
		attribute.Int64("product_id", id),
		attribute.Int("quantity", req.Quantity),
	)

	product, err := h.productService.BuyProduct(ctx, id, req.Quantity)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		handleError(c, err)
		return
	}

	span.SetAttributes(attribute.Int("stock", product.Stock))
	span.SetStatus(codes.Ok, "")
	response.Success(c, product)
}

func productID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidProductID
	}
	return id, nil
}
