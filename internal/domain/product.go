package domain

// StockAction is the direction of a stock adjustment
type StockAction string

const (
	StockActionAdd      StockAction = "add"
	StockActionSubtract StockAction = "subtract"
)

// ParseStockAction validates a raw action string from the caller
func ParseStockAction(s string) (StockAction, error) {
	switch StockAction(s) {
	case StockActionAdd, StockActionSubtract:
		return StockAction(s), nil
	default:
		return "", ErrInvalidAction
	}
}

// Product represents an item in the shop inventory.
// Stock is the concurrency-sensitive field: every mutation happens under a
// row-level lock and must leave stock >= 0.
type Product struct {
	ID          int64   `json:"product_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Stock       int     `json:"stock"`
	Location    string  `json:"location,omitempty"`
}

// Validate checks the invariants for a fully specified product
func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrValidation
	}
	if p.Price < 0 {
		return ErrValidation
	}
	if p.Stock < 0 {
		return ErrValidation
	}
	return nil
}

// ProductPatch is a partial update. Nil fields mean "keep the current value"
// (COALESCE semantics in the UPDATE statement).
type ProductPatch struct {
	Name        *string
	Price       *float64
	Description *string
	Stock       *int
	Location    *string
}

// IsEmpty reports whether the patch changes nothing
func (p *ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Description == nil &&
		p.Stock == nil && p.Location == nil
}
