package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-dispatcher/app/entity"
)

type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository constructs a repository over the product catalog.
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// SampleActive returns up to limit random active products.
func (r *ProductRepository) SampleActive(ctx context.Context, limit int) ([]entity.Product, error) {
	const query = `
		SELECT id, name, price_cents, currency, image_url
		FROM products
		WHERE active = 1
		ORDER BY RAND()
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceCents, &p.Currency, &p.ImageURL); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
