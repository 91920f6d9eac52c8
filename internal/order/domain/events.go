package domain

const EventTypeCartCleared = "CartCleared"

// CartCleared tells the cart service to empty the user's cart after an
// order is finalized.
type CartCleared struct {
	UserID string `json:"userId"`
}
