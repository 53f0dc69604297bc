package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

type productRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.ProductRepository = (*productRepository)(nil) // Ensure compliance

// NewProductRepository creates a new repository for catalog operations.
func NewProductRepository(db *DB, baseLogger *zerolog.Logger) ports.ProductRepository {
	return &productRepository{
		db:  db,
		log: baseLogger.With().Str("component", "product_repo").Logger(),
	}
}

const productQueryCols = `
	id, name_ar, name_en, description_ar, description_en, price,
	strength, strength_dots, flavor, category, image_url, in_stock, created_at
`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.NameAr,
		&p.NameEn,
		&p.DescriptionAr,
		&p.DescriptionEn,
		&p.Price,
		&p.Strength,
		&p.StrengthDots,
		&p.Flavor,
		&p.Category,
		&p.ImageURL,
		&p.InStock,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAll returns the full catalog, newest first.
func (r *productRepository) GetAll(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productQueryCols + ` FROM products ORDER BY id`

	rows, err := r.db.pool.Query(ctx, query)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query products")
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.log.Error().Err(err).Msg("Failed to scan product row")
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// GetByID finds a product, returning nil, nil when not found.
func (r *productRepository) GetByID(ctx context.Context, id int) (*domain.Product, error) {
	query := `SELECT ` + productQueryCols + ` FROM products WHERE id = $1`

	row := r.db.pool.QueryRow(ctx, query, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.log.Info().Int("product_id", id).Msg("Product not found")
			return nil, nil
		}
		r.log.Error().Err(err).Int("product_id", id).Msg("Failed to scan product row")
		return nil, err
	}
	return p, nil
}

// Create saves a new catalog entry and fills in the generated ID.
func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (
			name_ar, name_en, description_ar, description_en, price,
			strength, strength_dots, flavor, category, image_url, in_stock
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`
	err := r.db.pool.QueryRow(ctx, query,
		p.NameAr,
		p.NameEn,
		p.DescriptionAr,
		p.DescriptionEn,
		p.Price,
		p.Strength,
		p.StrengthDots,
		p.Flavor,
		p.Category,
		p.ImageURL,
		p.InStock,
	).Scan(&p.ID, &p.CreatedAt)

	if err != nil {
		r.log.Error().Err(err).Str("name_en", p.NameEn).Msg("Failed to insert product")
	}
	return err
}
