package models

import (
    "database/sql/driver"
    "encoding/json"
    "fmt"
    "time"
)

// Kind names a resource type for authorization, pagination and projection.
type Kind string

const (
    KindUser     Kind = "user"
    KindProduct  Kind = "product"
    KindCustomer Kind = "customer"
)

// BaseModel contains common fields for all models
type BaseModel struct {
    ID        int64     `json:"id" db:"id"`
    CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// TenantModel extends BaseModel with tenant support
type TenantModel struct {
    BaseModel
    TenantID int64 `json:"tenantId" db:"customer_id"`
}

// ResourceID returns the entity id.
func (m *BaseModel) ResourceID() int64 {
    return m.ID
}

// OwnerTenantID returns the owning tenant.
func (m *TenantModel) OwnerTenantID() (int64, bool) {
    return m.TenantID, true
}

// Roles is a set of role tags stored as a JSON array
type Roles []string

// Has reports whether role is in the set
func (r Roles) Has(role string) bool {
    for _, v := range r {
        if v == role {
            return true
        }
    }
    return false
}

// Value implements driver.Valuer interface
func (r Roles) Value() (driver.Value, error) {
    if r == nil {
        return []byte("[]"), nil
    }
    return json.Marshal([]string(r))
}

// Scan implements sql.Scanner interface
func (r *Roles) Scan(value interface{}) error {
    if value == nil {
        *r = nil
        return nil
    }

    switch data := value.(type) {
    case []byte:
        return json.Unmarshal(data, r)
    case string:
        return json.Unmarshal([]byte(data), r)
    default:
        return fmt.Errorf("scan roles: unsupported type %T", value)
    }
}
