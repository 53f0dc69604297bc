package domain

// CartItem is one line in the shopper's cart. The checkout core only
// reads these to compute totals; mutation belongs to the cart
// collaborator.
type CartItem struct {
	ID        int64   `json:"id"`
	ProductID int     `json:"productId"`
	NameAr    string  `json:"nameAr"`
	NameEn    string  `json:"nameEn"`
	Strength  string  `json:"strength"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	ImageURL  string  `json:"imageUrl"`
}

// Subtotal is the item's line total.
func (i CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}
