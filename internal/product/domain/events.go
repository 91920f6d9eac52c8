package domain

const (
	EventTypeProductCreated = "ProductCreated"
	EventTypeProductUpdated = "ProductUpdated"
	EventTypeProductDeleted = "ProductDeleted"
	EventTypeStockAdjusted  = "StockAdjusted"
)

type ProductCreated struct {
	ProductID   string `json:"productId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
}

type ProductUpdated struct {
	ProductID   string `json:"productId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
}

type ProductDeleted struct {
	ProductID string `json:"productId"`
}

// StockAdjusted carries a signed delta for the local quantity replica.
// Consumers clamp the result at zero.
type StockAdjusted struct {
	ProductID     string `json:"productId"`
	QuantityDelta int    `json:"quantityDelta"`
}
