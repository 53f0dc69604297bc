package postgres

import (
	"context"
	"encoding/base64"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

type orderRepository struct {
	db     *DB
	secSvc ports.SecurityPort // We need this to encrypt/decrypt
	log    zerolog.Logger
}

var _ ports.OrderRepository = (*orderRepository)(nil) // Ensure compliance

// NewOrderRepository creates a new repository for order operations.
func NewOrderRepository(db *DB, secSvc ports.SecurityPort, baseLogger *zerolog.Logger) ports.OrderRepository {
	return &orderRepository{
		db:     db,
		secSvc: secSvc,
		log:    baseLogger.With().Str("component", "order_repo").Logger(),
	}
}

// Create encrypts the customer phone and saves the order together with
// its items in one transaction.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	// 1. Encrypt sensitive fields
	var encPhone *string
	if order.CustomerPhone != nil {
		encBytes, err := r.secSvc.Encrypt([]byte(*order.CustomerPhone))
		if err != nil {
			r.log.Error().Err(err).Msg("Failed to encrypt customer phone")
			return err
		}
		encStr := base64.StdEncoding.EncodeToString(encBytes)
		encPhone = &encStr
	}

	// 2. Insert order and items atomically
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to begin transaction")
		return err
	}
	defer tx.Rollback(ctx)

	orderQuery := `
		INSERT INTO orders (
			customer_name, customer_phone, customer_email, shipping_address,
			subtotal, shipping_cost, total, status, payment_method, payment_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`
	err = tx.QueryRow(ctx, orderQuery,
		order.CustomerName,
		encPhone,
		order.CustomerEmail,
		order.ShippingAddress,
		order.Subtotal,
		order.ShippingCost,
		order.Total,
		order.Status,
		order.PaymentMethod,
		order.PaymentStatus,
	).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to insert order")
		return err
	}

	itemQuery := `
		INSERT INTO order_items (
			order_id, product_id, product_name, product_strength,
			quantity, price_per_unit, total_price
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i := range items {
		items[i].OrderID = order.ID
		if _, err := tx.Exec(ctx, itemQuery,
			items[i].OrderID,
			items[i].ProductID,
			items[i].ProductName,
			items[i].ProductStrength,
			items[i].Quantity,
			items[i].PricePerUnit,
			items[i].TotalPrice,
		); err != nil {
			r.log.Error().Err(err).Int("order_id", order.ID).Msg("Failed to insert order item")
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error().Err(err).Int("order_id", order.ID).Msg("Failed to commit order")
		return err
	}
	return nil
}

const orderQueryCols = `
	id, customer_name, customer_phone, customer_email, shipping_address,
	subtotal, shipping_cost, total, status, payment_method, payment_status, created_at
`

// scanOrder is a helper to scan a row into an Order struct.
// It handles decryption internally.
func (r *orderRepository) scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	var encPhone *string // Read encrypted data first

	err := row.Scan(
		&order.ID,
		&order.CustomerName,
		&encPhone,
		&order.CustomerEmail,
		&order.ShippingAddress,
		&order.Subtotal,
		&order.ShippingCost,
		&order.Total,
		&order.Status,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		r.log.Error().Err(err).Msg("Failed to scan order row")
		return nil, err
	}

	if encPhone != nil {
		decBytes, err := base64.StdEncoding.DecodeString(*encPhone)
		if err != nil {
			r.log.Error().Err(err).Int("order_id", order.ID).Msg("Failed to base64-decode customer phone")
			return nil, err
		}
		dec, err := r.secSvc.Decrypt(decBytes)
		if err != nil {
			r.log.Error().Err(err).Int("order_id", order.ID).Msg("Failed to decrypt customer phone (tampered?)")
			return nil, err
		}
		decStr := string(dec)
		order.CustomerPhone = &decStr
	}

	return &order, nil
}

// GetByID finds and decrypts an order, returning nil, nil when not
// found.
func (r *orderRepository) GetByID(ctx context.Context, id int) (*domain.Order, error) {
	query := `SELECT ` + orderQueryCols + ` FROM orders WHERE id = $1`

	row := r.db.pool.QueryRow(ctx, query, id)
	order, err := r.scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.log.Info().Int("order_id", id).Msg("Order not found")
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

// ListRecent returns the latest orders, newest first.
func (r *orderRepository) ListRecent(ctx context.Context, limit int) ([]domain.Order, error) {
	query := `SELECT ` + orderQueryCols + ` FROM orders ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.pool.Query(ctx, query, limit)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query recent orders")
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := r.scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// GetItems returns the lines of an order.
func (r *orderRepository) GetItems(ctx context.Context, orderID int) ([]domain.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, product_strength,
		       quantity, price_per_unit, total_price
		FROM order_items WHERE order_id = $1 ORDER BY id
	`
	rows, err := r.db.pool.Query(ctx, query, orderID)
	if err != nil {
		r.log.Error().Err(err).Int("order_id", orderID).Msg("Failed to query order items")
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.ProductStrength,
			&item.Quantity,
			&item.PricePerUnit,
			&item.TotalPrice,
		); err != nil {
			r.log.Error().Err(err).Msg("Failed to scan order item row")
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
