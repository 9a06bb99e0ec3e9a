package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/bilemo/catalog-server/internal/models"
	"github.com/bilemo/catalog-server/internal/pagination"
)

var productColumns = []string{
	"id", "created_at", "name", "COALESCE(description, '')", "price",
	"COALESCE(color, '')", "available_quantity",
}

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(
		&p.ID, &p.CreatedAt, &p.Name, &p.Description, &p.Price, &p.Color, &p.AvailableQuantity,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProduct adds a product to the catalog and sets its id
func (s *PostgresStore) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}

	query, args, err := s.builder.Insert("products").
		Columns("created_at", "name", "description", "price", "color", "available_quantity").
		Values(product.CreatedAt, product.Name, nullString(product.Description), product.Price,
			nullString(product.Color), product.AvailableQuantity).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert product: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&product.ID); err != nil {
		return writeErr(err, "insert product")
	}
	return nil
}

// GetProduct gets a product by ID
func (s *PostgresStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	query, args, err := s.builder.Select(productColumns...).From("products").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select product: %w", err)
	}

	p, err := scanProduct(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, getOne(err, "product", id)
	}
	return p, nil
}

// ProductQuery returns a query over the whole catalog
func (s *PostgresStore) ProductQuery() pagination.Query[*models.Product] {
	return newSelectQuery(s.db, s.builder.Select(productColumns...).From("products"), scanProduct)
}
