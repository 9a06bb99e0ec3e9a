// Package access decides whether an actor may act on a resource.
package access

import (
	"time"

	"github.com/bilemo/catalog-server/internal/fault"
	"github.com/bilemo/catalog-server/internal/models"
)

// Action is an operation subject to authorization.
type Action uint8

const (
	See Action = iota + 1
	Add
	Edit
	Delete
)

// String returns the lower-case action name.
func (a Action) String() string {
	switch a {
	case See:
		return "see"
	case Add:
		return "add"
	case Edit:
		return "edit"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// String returns "allow" or "deny".
func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// Actor is the authenticated principal making a request.
type Actor struct {
	ID     int64
	Roles  models.Roles
	Tenant *models.Tenant
}

// TenantID returns the actor's tenant id, or 0 when it has none.
func (a *Actor) TenantID() int64 {
	if a == nil || a.Tenant == nil {
		return 0
	}
	return a.Tenant.ID
}

// IsAdmin reports whether the actor holds the administrative role.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.Roles.Has(models.RoleAdmin)
}

// Resource is anything subject to authorization.
type Resource interface {
	ResourceKind() models.Kind
	ResourceID() int64
	// OwnerTenantID returns false for tenant-agnostic resources.
	OwnerTenantID() (int64, bool)
}

// Observer receives every decision. It is used for metrics.
type Observer func(action Action, d Decision)

type rule func(actor *Actor, target Resource) Decision

// Engine evaluates authorization rules. It is safe for concurrent use.
type Engine struct {
	rules   map[Action]rule
	now     func() time.Time
	observe Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for tenant expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithObserver registers a decision observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observe = o }
}

// NewEngine returns an engine with the tenant rules.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rules: map[Action]rule{
			See:    sameTenant(true),
			Add:    sameTenant(false),
			Delete: sameTenant(false),
			Edit:   self,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Authorize decides whether actor may perform action on target. Add accepts a
// nil target, meaning a new resource under the actor's own tenant.
func (e *Engine) Authorize(actor *Actor, action Action, target Resource) Decision {
	d := e.decide(actor, action, target)
	if e.observe != nil {
		e.observe(action, d)
	}
	return d
}

// Require is Authorize returning fault.ErrDenied-kind errors on Deny.
func (e *Engine) Require(actor *Actor, action Action, target Resource) error {
	if e.Authorize(actor, action, target) == Deny {
		return fault.Denied("access denied")
	}
	return nil
}

func (e *Engine) decide(actor *Actor, action Action, target Resource) Decision {
	// The tenant gate comes before role escalation: a blocked tenant's
	// administrators are blocked too.
	if actor == nil || actor.Tenant.Blocked(e.now()) {
		return Deny
	}
	if actor.IsAdmin() {
		return Allow
	}
	r, ok := e.rules[action]
	if !ok {
		return Deny
	}
	if target == nil {
		if action == Add {
			return Allow
		}
		return Deny
	}
	return r(actor, target)
}

// sameTenant allows actors of the owning tenant. Tenant-agnostic resources
// are visible to everybody when shared is set, and closed otherwise.
func sameTenant(shared bool) rule {
	return func(actor *Actor, target Resource) Decision {
		owner, owned := target.OwnerTenantID()
		if !owned {
			return Decision(shared)
		}
		return Decision(owner == actor.Tenant.ID)
	}
}

// self allows a user to edit only itself.
func self(actor *Actor, target Resource) Decision {
	if target.ResourceKind() != models.KindUser {
		return Deny
	}
	return Decision(target.ResourceID() == actor.ID)
}

// TenantScope is the collection of resources owned by one tenant. It is the
// target of list operations.
type TenantScope int64

// ResourceKind implements Resource.
func (TenantScope) ResourceKind() models.Kind { return models.KindCustomer }

// ResourceID implements Resource.
func (s TenantScope) ResourceID() int64 { return int64(s) }

// OwnerTenantID implements Resource.
func (s TenantScope) OwnerTenantID() (int64, bool) { return int64(s), true }

// Catalog is the shared, tenant-agnostic product collection.
type Catalog struct{}

// ResourceKind implements Resource.
func (Catalog) ResourceKind() models.Kind { return models.KindProduct }

// ResourceID implements Resource.
func (Catalog) ResourceID() int64 { return 0 }

// OwnerTenantID implements Resource.
func (Catalog) OwnerTenantID() (int64, bool) { return 0, false }
