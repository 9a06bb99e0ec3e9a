package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bilemo/catalog-server/internal/fault"
	"github.com/bilemo/catalog-server/internal/models"
	"github.com/bilemo/catalog-server/internal/pagination"
)

// MemoryStore is an in-process Store used for development and tests.
// Returned entities are copies.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]*models.User
	tenants  map[int64]*models.Tenant
	products map[int64]*models.Product
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]*models.User),
		tenants:  make(map[int64]*models.Tenant),
		products: make(map[int64]*models.Product),
	}
}

func (s *MemoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

// CreateUser creates a new user
func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usernameTaken(user.Username, 0) {
		return fault.Conflict(fmt.Errorf("username %q already exists", user.Username))
	}
	user.ID = s.id()
	user.CreatedAt = time.Now().UTC()
	s.users[user.ID] = copyUser(user)
	return nil
}

// GetUser gets a user by ID
func (s *MemoryStore) GetUser(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fault.NotFound("user %d not found", id)
	}
	return copyUser(u), nil
}

// GetUserByUsername gets a user by username
func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return nil, fault.NotFound("user %s not found", username)
}

// UpdateUser updates a user. The owning customer is never changed.
func (s *MemoryStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.users[user.ID]
	if !ok {
		return fault.NotFound("user %d not found", user.ID)
	}
	if s.usernameTaken(user.Username, user.ID) {
		return fault.Conflict(fmt.Errorf("username %q already exists", user.Username))
	}
	next := copyUser(user)
	next.TenantID = cur.TenantID
	next.CreatedAt = cur.CreatedAt
	s.users[user.ID] = next
	return nil
}

// DeleteUser deletes a user
func (s *MemoryStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return fault.NotFound("user %d not found", id)
	}
	delete(s.users, id)
	return nil
}

// UserQuery returns a query over the users of a tenant
func (s *MemoryStore) UserQuery(tenantID int64) pagination.Query[*models.User] {
	return &memQuery[*models.User]{
		load: func() []*models.User {
			s.mu.RLock()
			defer s.mu.RUnlock()
			var out []*models.User
			for _, u := range s.users {
				if u.TenantID == tenantID {
					out = append(out, copyUser(u))
				}
			}
			return out
		},
		field: userField,
	}
}

// CreateTenant creates a new customer
func (s *MemoryStore) CreateTenant(_ context.Context, tenant *models.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tenant.ID = s.id()
	s.tenants[tenant.ID] = copyTenant(tenant)
	return nil
}

// GetTenant gets a customer by ID
func (s *MemoryStore) GetTenant(_ context.Context, id int64) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, fault.NotFound("customer %d not found", id)
	}
	return copyTenant(t), nil
}

// ListTenantUsers lists every user of a customer ordered by id
func (s *MemoryStore) ListTenantUsers(ctx context.Context, tenantID int64) ([]*models.User, error) {
	q := s.UserQuery(tenantID)
	q.OrderBy("id", pagination.Asc)
	return q.All(ctx)
}

// CreateProduct adds a product to the catalog
func (s *MemoryStore) CreateProduct(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product.ID = s.id()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	p := *product
	s.products[p.ID] = &p
	return nil
}

// GetProduct gets a product by ID
func (s *MemoryStore) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fault.NotFound("product %d not found", id)
	}
	cp := *p
	return &cp, nil
}

// ProductQuery returns a query over the whole catalog
func (s *MemoryStore) ProductQuery() pagination.Query[*models.Product] {
	return &memQuery[*models.Product]{
		load: func() []*models.Product {
			s.mu.RLock()
			defer s.mu.RUnlock()
			out := make([]*models.Product, 0, len(s.products))
			for _, p := range s.products {
				cp := *p
				out = append(out, &cp)
			}
			return out
		},
		field: productField,
	}
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) usernameTaken(username string, except int64) bool {
	for id, u := range s.users {
		if id != except && u.Username == username {
			return true
		}
	}
	return false
}

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.Roles = append(models.Roles(nil), u.Roles...)
	cp.Customer = nil
	return &cp
}

func copyTenant(t *models.Tenant) *models.Tenant {
	cp := *t
	cp.Users = nil
	if t.ExpireAt != nil {
		at := *t.ExpireAt
		cp.ExpireAt = &at
	}
	return &cp
}

// memQuery sorts and windows a snapshot of rows. Columns are the same
// storage column names the SQL queries use.
type memQuery[T any] struct {
	load   func() []T
	field  func(T, string) interface{}
	column string
	dir    pagination.Direction
	window bool
	offset uint64
	limit  uint64
}

func (q *memQuery[T]) OrderBy(column string, dir pagination.Direction) {
	q.column, q.dir = column, dir
}

func (q *memQuery[T]) Window(offset, limit uint64) {
	q.window, q.offset, q.limit = true, offset, limit
}

func (q *memQuery[T]) All(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows := q.load()
	column := q.column
	if column == "" {
		column = "id"
	}
	sort.SliceStable(rows, func(i, j int) bool {
		c := compare(q.field(rows[i], column), q.field(rows[j], column))
		if c == 0 {
			return compare(q.field(rows[i], "id"), q.field(rows[j], "id")) < 0
		}
		if q.dir == pagination.Desc {
			return c > 0
		}
		return c < 0
	})

	if !q.window {
		if rows == nil {
			rows = []T{}
		}
		return rows, nil
	}
	if q.offset >= uint64(len(rows)) {
		return []T{}, nil
	}
	end := q.offset + q.limit
	if end > uint64(len(rows)) {
		end = uint64(len(rows))
	}
	return rows[q.offset:end], nil
}

func userField(u *models.User, column string) interface{} {
	switch column {
	case "username":
		return u.Username
	case "first_name":
		return u.FirstName
	case "last_name":
		return u.LastName
	case emailSortColumn:
		return u.Email
	case "created_at":
		return u.CreatedAt
	default:
		return u.ID
	}
}

func productField(p *models.Product, column string) interface{} {
	switch column {
	case "name":
		return p.Name
	case "price":
		return p.Price
	case colorSortColumn:
		return p.Color
	case "available_quantity":
		return p.AvailableQuantity
	case "created_at":
		return p.CreatedAt
	default:
		return p.ID
	}
}

func compare(a, b interface{}) int {
	switch x := a.(type) {
	case int64:
		y := b.(int64)
		return cmpOrdered(x, y)
	case int:
		return cmpOrdered(x, b.(int))
	case float64:
		return cmpOrdered(x, b.(float64))
	case string:
		return strings.Compare(x, b.(string))
	case time.Time:
		return x.Compare(b.(time.Time))
	}
	return 0
}

func cmpOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
