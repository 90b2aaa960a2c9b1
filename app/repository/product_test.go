package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestProductRepositorySampleActive(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewProductRepository(db)
	mock.ExpectQuery("ORDER BY RAND").
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price_cents", "currency", "image_url"}).
			AddRow(7, "Mug", 1250, "EUR", "https://cdn/mug.png").
			AddRow(9, "Shirt", 2000, "EUR", ""))

	products, err := repo.SampleActive(context.Background(), 3)
	if err != nil {
		t.Fatalf("SampleActive: %v", err)
	}
	if len(products) != 2 || products[0].Name != "Mug" || products[1].PriceCents != 2000 {
		t.Fatalf("unexpected products: %+v", products)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestProductRepositorySampleActiveQueryError(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM products").WithArgs(5).WillReturnError(boom)

	if _, err := NewProductRepository(db).SampleActive(context.Background(), 5); !errors.Is(err, boom) {
		t.Fatalf("expected query error, got %v", err)
	}
}
