package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/bilemo/catalog-server/internal/models"
	"github.com/bilemo/catalog-server/internal/pagination"
)

// CreateTenant creates a new customer and sets its id
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	query, args, err := s.builder.Insert("customers").
		Columns("name", "siret", "is_allowed", "expire_at").
		Values(tenant.Name, tenant.Siret, tenant.IsAllowed, tenant.ExpireAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert customer: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&tenant.ID); err != nil {
		return writeErr(err, "insert customer")
	}
	return nil
}

// GetTenant gets a customer by ID
func (s *PostgresStore) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	query, args, err := s.builder.
		Select("id", "name", "siret", "is_allowed", "expire_at").
		From("customers").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select customer: %w", err)
	}

	tenant := &models.Tenant{}
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&tenant.ID, &tenant.Name, &tenant.Siret, &tenant.IsAllowed, &tenant.ExpireAt,
	)
	if err != nil {
		return nil, getOne(err, "customer", id)
	}
	return tenant, nil
}

// ListTenantUsers lists every user of a customer ordered by id
func (s *PostgresStore) ListTenantUsers(ctx context.Context, tenantID int64) ([]*models.User, error) {
	q := s.UserQuery(tenantID)
	q.OrderBy("id", pagination.Asc)
	return q.All(ctx)
}
