package ports

import "SidraStore/internal/core/domain"

// Cart is the shopper's cart collaborator. The checkout core only reads
// items for totals and calls Clear on success; mutations are driven by
// the storefront.
type Cart interface {
	Items() []domain.CartItem
	Add(product domain.Product, strength string, quantity int)
	Remove(productID int)
	UpdateQuantity(productID, quantity int)
	UpdateStrength(productID int, strength string)
	Clear()

	// Subtotal is the sum of line totals.
	Subtotal() float64
}
