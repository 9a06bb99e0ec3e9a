package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/bilemo/catalog-server/internal/models"
	"github.com/bilemo/catalog-server/internal/pagination"
)

var userColumns = []string{
	"id", "created_at", "customer_id", "username", "roles", "password",
	"first_name", "last_name", "COALESCE(email, '')",
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.CreatedAt, &user.TenantID, &user.Username, &user.Roles,
		&user.PasswordHash, &user.FirstName, &user.LastName, &user.Email,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// CreateUser creates a new user and sets its id
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	user.CreatedAt = time.Now().UTC()

	query, args, err := s.builder.Insert("users").
		Columns("created_at", "customer_id", "username", "roles", "password", "first_name", "last_name", "email").
		Values(user.CreatedAt, user.TenantID, user.Username, user.Roles, user.PasswordHash,
			user.FirstName, user.LastName, nullString(user.Email)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&user.ID); err != nil {
		return writeErr(err, "insert user")
	}
	return nil
}

// GetUser gets a user by ID
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, sq.Eq{"id": id}, "user", id)
}

// GetUserByUsername gets a user by username
func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, sq.Eq{"username": username}, "user", username)
}

func (s *PostgresStore) getUser(ctx context.Context, pred sq.Eq, what string, key interface{}) (*models.User, error) {
	query, args, err := s.builder.Select(userColumns...).From("users").Where(pred).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user: %w", err)
	}

	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, getOne(err, what, key)
	}
	return user, nil
}

// UpdateUser updates a user. The owning customer is never changed.
func (s *PostgresStore) UpdateUser(ctx context.Context, user *models.User) error {
	query, args, err := s.builder.Update("users").
		Set("username", user.Username).
		Set("roles", user.Roles).
		Set("password", user.PasswordHash).
		Set("first_name", user.FirstName).
		Set("last_name", user.LastName).
		Set("email", nullString(user.Email)).
		Where(sq.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return writeErr(err, "update user")
	}
	return affectedOne(res, "user", user.ID)
}

// DeleteUser deletes a user
func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	query, args, err := s.builder.Delete("users").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete user: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return affectedOne(res, "user", id)
}

// UserQuery returns a query over the users of a tenant
func (s *PostgresStore) UserQuery(tenantID int64) pagination.Query[*models.User] {
	sb := s.builder.Select(userColumns...).From("users").Where(sq.Eq{"customer_id": tenantID})
	return newSelectQuery(s.db, sb, scanUser)
}

func nullString(v string) interface{} {
	if v == "" {
		return nil
	}
	return v
}
