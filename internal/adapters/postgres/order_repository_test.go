package postgres

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"SidraStore/internal/core/domain"
)

func TestOrderRepository_Create_GetByID_Roundtrip(t *testing.T) {
	// 1. Setup
	nopLogger := zerolog.Nop()
	repo := NewOrderRepository(testDB, testSecSvc, &nopLogger)
	ctx := context.Background()

	phone := "0512345678"
	order := &domain.Order{
		CustomerName:    "Test Customer",
		CustomerPhone:   &phone,
		ShippingAddress: map[string]any{"city": "الرياض", "district": "العليا"},
		Subtotal:        "90.00",
		ShippingCost:    "10.00",
		Total:           "103.60",
		Status:          domain.OrderPending,
		PaymentMethod:   "card",
		PaymentStatus:   "pending",
	}
	items := []domain.OrderItem{
		{ProductID: 1, ProductName: "Test Product", ProductStrength: "medium", Quantity: 2, PricePerUnit: "45.00", TotalPrice: "90.00"},
	}

	// 2. Run Create
	if err := repo.Create(ctx, order, items); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	defer cleanupTestOrder(t, order.ID)

	// 3. Run GetByID
	found, err := repo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("Failed to get order by ID: %v", err)
	}
	if found == nil {
		t.Fatal("GetByID: order not found, but should exist")
	}

	// 4. Verify the phone decrypted back to the original
	if found.CustomerPhone == nil || *found.CustomerPhone != phone {
		t.Errorf("CustomerPhone mismatch: got %v, want %q", found.CustomerPhone, phone)
	}
	if found.Status != domain.OrderPending {
		t.Errorf("Status mismatch: got %q, want %q", found.Status, domain.OrderPending)
	}

	// 5. Verify the phone is not stored in the clear
	var stored *string
	err = testDB.pool.QueryRow(ctx, "SELECT customer_phone FROM orders WHERE id = $1", order.ID).Scan(&stored)
	if err != nil {
		t.Fatalf("Failed to read raw customer_phone: %v", err)
	}
	if stored == nil || *stored == phone {
		t.Error("customer_phone column holds the plaintext phone")
	}

	// 6. Verify items
	gotItems, err := repo.GetItems(ctx, order.ID)
	if err != nil {
		t.Fatalf("Failed to get order items: %v", err)
	}
	if len(gotItems) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(gotItems))
	}
	if gotItems[0].ProductName != "Test Product" || gotItems[0].Quantity != 2 {
		t.Errorf("Item mismatch: %+v", gotItems[0])
	}
}

func TestOrderRepository_ListRecent(t *testing.T) {
	nopLogger := zerolog.Nop()
	repo := NewOrderRepository(testDB, testSecSvc, &nopLogger)
	ctx := context.Background()

	order := &domain.Order{
		CustomerName:  "Recent Customer",
		Subtotal:      "10.00",
		ShippingCost:  "10.00",
		Total:         "20.40",
		Status:        domain.OrderPending,
		PaymentMethod: "card",
		PaymentStatus: "pending",
	}
	if err := repo.Create(ctx, order, nil); err != nil {
		t.Fatalf("Failed to create order: %v", err)
	}
	defer cleanupTestOrder(t, order.ID)

	orders, err := repo.ListRecent(ctx, 5)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(orders) == 0 {
		t.Fatal("ListRecent returned no orders")
	}
	if orders[0].ID != order.ID {
		t.Errorf("Expected newest order first, got #%d", orders[0].ID)
	}
}
