package domain

// ProductDocument is the denormalized projection of a product kept in the
// search index.
type ProductDocument struct {
	ProductID   string
	Name        string
	Description string
	PriceCents  int64
}
