package domain

const (
	QueryTypeStockQuantity = "StockQuantity"
	QueryTypePrice         = "Price"
)

type StockQuantityRequest struct {
	ProductID string `json:"productId"`
}

// A missing product answers with zero availability, not a fault.
type StockQuantityResponse struct {
	ProductID         string `json:"productId"`
	AvailableQuantity int    `json:"availableQuantity"`
}

type PriceRequest struct {
	ProductID string `json:"productId"`
}

type PriceResponse struct {
	ProductID  string `json:"productId"`
	PriceCents int64  `json:"priceCents"`
}
