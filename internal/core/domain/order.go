package domain

import "time"

// OrderStatus is a custom type for the order lifecycle ENUM.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is a finalized order in the relational store.
type Order struct {
	ID              int
	CustomerName    string
	CustomerPhone   *string // Encrypted at rest
	CustomerEmail   *string
	ShippingAddress map[string]any
	Subtotal        string
	ShippingCost    string
	Total           string
	Status          OrderStatus
	PaymentMethod   string
	PaymentStatus   string
	CreatedAt       time.Time
}

// OrderItem is one line of a finalized order.
type OrderItem struct {
	ID              int
	OrderID         int
	ProductID       int
	ProductName     string
	ProductStrength string
	Quantity        int
	PricePerUnit    string
	TotalPrice      string
}

// Pricing is the checkout total breakdown shown during checkout and
// written into the final order document.
type Pricing struct {
	Subtotal    float64 `json:"subtotal"`
	ShippingFee float64 `json:"shippingFee"`
	Tax         float64 `json:"tax"`
	TaxRate     float64 `json:"taxRate"`
	Total       float64 `json:"total"`
}

const (
	freeShippingOver = 100.0
	flatShippingFee  = 10.0
	taxRate          = 0.04
)

// ComputePricing derives the full breakdown from a cart subtotal.
// Shipping is free above the free-shipping threshold.
func ComputePricing(subtotal float64) Pricing {
	fee := flatShippingFee
	if subtotal > freeShippingOver {
		fee = 0
	}
	tax := subtotal * taxRate
	return Pricing{
		Subtotal:    subtotal,
		ShippingFee: fee,
		Tax:         tax,
		TaxRate:     taxRate,
		Total:       subtotal + fee + tax,
	}
}
