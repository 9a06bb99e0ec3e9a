package models

import (
    "time"
)

// Tenant represents a customer owning a set of users
type Tenant struct {
    ID        int64      `json:"id" db:"id"`
    Name      string     `json:"name" db:"name"`
    Siret     string     `json:"siret" db:"siret"`

    // Status
    IsAllowed bool       `json:"isAllowed" db:"is_allowed"`
    ExpireAt  *time.Time `json:"expireAt,omitempty" db:"expire_at"`

    // Users is loaded on demand for projection.
    Users     []*User    `json:"users,omitempty" db:"-"`
}

// Blocked reports whether the tenant may not act at time now, either because
// it was disallowed or because its subscription expired.
func (t *Tenant) Blocked(now time.Time) bool {
    if t == nil || !t.IsAllowed {
        return true
    }
    return t.ExpireAt != nil && !now.Before(*t.ExpireAt)
}

// ResourceKind implements access.Resource
func (t *Tenant) ResourceKind() Kind {
    return KindCustomer
}

// ResourceID implements access.Resource
func (t *Tenant) ResourceID() int64 {
    return t.ID
}

// OwnerTenantID implements access.Resource; a customer owns itself.
func (t *Tenant) OwnerTenantID() (int64, bool) {
    return t.ID, true
}
