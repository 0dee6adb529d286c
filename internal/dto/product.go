package dto

import "github.com/petalworks/flowershop-backend/internal/domain"

// FilterRequest is one raw filter descriptor as supplied by the caller
type FilterRequest struct {
	Field      string `json:"field"`
	Rule       string `json:"rule"`
	Value      string `json:"value"`
	Negate     bool   `json:"negate"`
	Comparator string `json:"comparator"`
}

// ToFilter validates the descriptor into a domain filter
func (f *FilterRequest) ToFilter() (*domain.Filter, error) {
	return domain.NewFilter(f.Field, f.Rule, f.Value, f.Negate, f.Comparator)
}

// ListProductsRequest carries the optional filter list for a product query
type ListProductsRequest struct {
	Filters []FilterRequest `json:"filters"`
}

// ToFilters validates every descriptor into domain filters
func (r *ListProductsRequest) ToFilters() ([]*domain.Filter, error) {
	filters := make([]*domain.Filter, 0, len(r.Filters))
	for i := range r.Filters {
		f, err := r.Filters[i].ToFilter()
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// CreateProductRequest carries the fields of a new product. Pointer fields
// distinguish "absent" from zero values during validation.
type CreateProductRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Stock       *int     `json:"stock"`
	Location    string   `json:"location"`
}

// UpdateProductRequest is a partial update; nil means keep the stored value
type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Price       *float64 `json:"price"`
	Description *string  `json:"description"`
	Stock       *int     `json:"stock"`
	Location    *string  `json:"location"`
}

// ToPatch converts the request into a repository patch
func (r *UpdateProductRequest) ToPatch() *domain.ProductPatch {
	return &domain.ProductPatch{
		Name:        r.Name,
		Price:       r.Price,
		Description: r.Description,
		Stock:       r.Stock,
		Location:    r.Location,
	}
}

// StockRequest adjusts product stock in either direction
type StockRequest struct {
	Action   string `json:"action"`
	Quantity int    `json:"quantity"`
}

// BuyRequest purchases a quantity of a product; quantity defaults to 1
type BuyRequest struct {
	Quantity int `json:"quantity"`
}

// ProductResponse is the outward shape of a product
type ProductResponse struct {
	ID          int64   `json:"product_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Stock       int     `json:"stock"`
	Location    string  `json:"location,omitempty"`
}

// NewProductResponse converts a domain product
func NewProductResponse(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Stock:       p.Stock,
		Location:    p.Location,
	}
}
