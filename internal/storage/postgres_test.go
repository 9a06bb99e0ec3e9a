package storage

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilemo/catalog-server/internal/fault"
	"github.com/bilemo/catalog-server/internal/models"
	"github.com/bilemo/catalog-server/internal/pagination"
)

const userSelect = "SELECT id, created_at, customer_id, username, roles, password, first_name, last_name, COALESCE(email, '') FROM users"

var userRowColumns = []string{
	"id", "created_at", "customer_id", "username", "roles", "password", "first_name", "last_name", "email",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresStoreFromDB(db), mock
}

func exact(query string) string {
	return "^" + regexp.QuoteMeta(query) + "$"
}

func TestUserQuery_TenantPredicateOrderAndWindow(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(exact(userSelect + " WHERE customer_id = $1 ORDER BY last_name DESC, id ASC LIMIT 5 OFFSET 10")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(11), created, int64(3), "jdoe", []byte(`["ROLE_ADMIN"]`), "hash", "John", "Doe", "jdoe@example.test").
			AddRow(int64(12), created, int64(3), "asmith", []byte(`[]`), "hash", "Ann", "Smith", ""))

	q := s.UserQuery(3)
	pagination.Apply(pagination.Plan{Page: 3, Limit: 5, Column: "last_name", Direction: pagination.Desc}, q)
	users, err := q.All(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)

	assert.Equal(t, int64(11), users[0].ID)
	assert.Equal(t, int64(3), users[0].TenantID)
	assert.Equal(t, models.Roles{models.RoleAdmin}, users[0].Roles)
	assert.Equal(t, created, users[0].CreatedAt)
	assert.Equal(t, "", users[1].Email)
}

func TestUserQuery_OrderByIDHasNoTieBreak(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(exact(userSelect + " WHERE customer_id = $1 ORDER BY id ASC")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	users, err := s.ListTenantUsers(context.Background(), 1)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestQuery_NullableColumnsSortAsEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(exact(userSelect + " WHERE customer_id = $1 ORDER BY COALESCE(email, '') ASC, id ASC")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(userRowColumns))
	mock.ExpectQuery(exact("SELECT id, created_at, name, COALESCE(description, ''), price, COALESCE(color, ''), available_quantity FROM products ORDER BY COALESCE(color, '') DESC, id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "name", "description", "price", "color", "available_quantity"}))

	uq := s.UserQuery(1)
	uq.OrderBy(UserColumns["email"], pagination.Asc)
	_, err := uq.All(context.Background())
	require.NoError(t, err)

	prq := s.ProductQuery()
	prq.OrderBy(ProductColumns["color"], pagination.Desc)
	_, err = prq.All(context.Background())
	require.NoError(t, err)
}

func TestProductQuery_Unbounded(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(exact("SELECT id, created_at, name, COALESCE(description, ''), price, COALESCE(color, ''), available_quantity FROM products ORDER BY price DESC, id ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "name", "description", "price", "color", "available_quantity"}).
			AddRow(int64(2), time.Now(), "Phone Y", "", 899.0, "red", 3).
			AddRow(int64(1), time.Now(), "Phone X", "desc", 499.9, "", 12))

	q := s.ProductQuery()
	pagination.Apply(pagination.Plan{Page: 4, Limit: 0, Column: "price", Direction: pagination.Desc}, q)
	products, err := q.All(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, 899.0, products[0].Price)
	assert.Equal(t, 12, products[1].AvailableQuantity)
}

func TestQuery_Error(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM products").WillReturnError(sql.ErrConnDone)

	_, err := s.ProductQuery().All(context.Background())
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestGetUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(exact(userSelect + " WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(9), time.Now(), int64(1), "jdoe", `["ROLE_USER"]`, "hash", "John", "Doe", ""))
	mock.ExpectQuery(exact(userSelect + " WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	u, err := s.GetUser(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "jdoe", u.Username)
	assert.Equal(t, "hash", u.PasswordHash)

	_, err = s.GetUser(context.Background(), 404)
	assert.ErrorIs(t, err, fault.ErrNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUserByUsername(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(exact(userSelect + " WHERE username = $1")).
		WithArgs("jdoe").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(int64(9), time.Now(), int64(1), "jdoe", `[]`, "hash", "John", "Doe", "j@example.test"))

	u, err := s.GetUserByUsername(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, int64(9), u.ID)
}

func TestCreateUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users (created_at,customer_id,username,roles,password,first_name,last_name,email) VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	u := &models.User{Username: "jdoe", FirstName: "John", LastName: "Doe", PasswordHash: "hash"}
	u.TenantID = 1
	require.NoError(t, s.CreateUser(context.Background(), u))
	assert.Equal(t, int64(42), u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestCreateUser_DuplicateIsConflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Message: `duplicate key value violates unique constraint "users_username_key"`})

	u := &models.User{Username: "jdoe"}
	err := s.CreateUser(context.Background(), u)
	require.Error(t, err)
	assert.ErrorIs(t, err, fault.ErrConflict)

	env := fault.Translate(err)
	assert.Equal(t, 400, env.Status)
	assert.Equal(t, fault.ConflictMessage, env.Message)
	assert.NotContains(t, env.Message, "users_username_key")
}

func TestCreateUser_OtherDriverErrorIsInternal(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23503"})

	err := s.CreateUser(context.Background(), &models.User{Username: "jdoe"})
	require.Error(t, err)
	assert.Equal(t, fault.KindInternal, fault.KindOf(err))
}

func TestUpdateUser_NeverTouchesCustomer(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(exact("UPDATE users SET username = $1, roles = $2, password = $3, first_name = $4, last_name = $5, email = $6 WHERE id = $7")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	u := &models.User{Username: "jdoe", FirstName: "John", LastName: "Doe"}
	u.ID = 9
	u.TenantID = 2
	require.NoError(t, s.UpdateUser(context.Background(), u))

	u.ID = 10
	assert.ErrorIs(t, s.UpdateUser(context.Background(), u), fault.ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(exact("DELETE FROM users WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(exact("DELETE FROM users WHERE id = $1")).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.DeleteUser(context.Background(), 9))
	assert.ErrorIs(t, s.DeleteUser(context.Background(), 10), fault.ErrNotFound)
}

func TestGetTenant(t *testing.T) {
	s, mock := newMockStore(t)
	expire := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(exact("SELECT id, name, siret, is_allowed, expire_at FROM customers WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "siret", "is_allowed", "expire_at"}).
			AddRow(int64(1), "Acme", "123", true, expire))
	mock.ExpectQuery("FROM customers").
		WithArgs(int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "siret", "is_allowed", "expire_at"}).
			AddRow(int64(2), "Globex", "456", false, nil))

	tn, err := s.GetTenant(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, tn.ExpireAt)
	assert.Equal(t, expire, *tn.ExpireAt)
	assert.True(t, tn.IsAllowed)

	tn, err = s.GetTenant(context.Background(), 2)
	require.NoError(t, err)
	assert.Nil(t, tn.ExpireAt)
	assert.True(t, tn.Blocked(time.Now()))
}
