package storage

import (
	"context"

	"github.com/bilemo/catalog-server/internal/fault"
	"github.com/bilemo/catalog-server/internal/models"
	"github.com/bilemo/catalog-server/internal/pagination"
)

// Common errors. Stores return errors matching these through errors.Is.
var (
	ErrNotFound     = fault.ErrNotFound
	ErrDuplicateKey = fault.ErrConflict
)

// Store defines the storage interface
type Store interface {
	// User methods
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
	// UserQuery returns an unexecuted query over the users of one tenant.
	UserQuery(tenantID int64) pagination.Query[*models.User]

	// Tenant methods
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
	ListTenantUsers(ctx context.Context, tenantID int64) ([]*models.User, error)

	// Product methods
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ProductQuery() pagination.Query[*models.Product]

	Ping(ctx context.Context) error

	// Close the store
	Close() error
}

// Nullable columns sort as the empty string they are read as, so both
// stores put them first in ascending order.
const (
	emailSortColumn = "COALESCE(email, '')"
	colorSortColumn = "COALESCE(color, '')"
)

// Sortable columns per resource type, keyed by public field name.
var (
	UserColumns = map[string]string{
		"id":        "id",
		"username":  "username",
		"firstName": "first_name",
		"lastName":  "last_name",
		"email":     emailSortColumn,
		"createdAt": "created_at",
	}
	ProductColumns = map[string]string{
		"id":                "id",
		"name":              "name",
		"price":             "price",
		"color":             colorSortColumn,
		"availableQuantity": "available_quantity",
		"createdAt":         "created_at",
	}
)

// Field aliases accepted in the orderby parameter.
var (
	UserAliases = map[string]string{
		"date": "createdAt",
		"name": "lastName",
	}
	ProductAliases = map[string]string{
		"date":     "createdAt",
		"quantity": "availableQuantity",
	}
)
