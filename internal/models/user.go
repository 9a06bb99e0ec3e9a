package models

// Role tags
const (
    RoleUser  = "ROLE_USER"
    RoleAdmin = "ROLE_ADMIN"
)

// User represents an API user belonging to a customer
type User struct {
    TenantModel

    Username     string `json:"username" db:"username"`
    Roles        Roles  `json:"roles" db:"roles"`
    PasswordHash string `json:"-" db:"password"`
    FirstName    string `json:"firstName" db:"first_name"`
    LastName     string `json:"lastName" db:"last_name"`
    Email        string `json:"email,omitempty" db:"email"`

    // Customer is loaded on demand for projection.
    Customer *Tenant `json:"customer,omitempty" db:"-"`
}

// ResourceKind implements access.Resource
func (u *User) ResourceKind() Kind {
    return KindUser
}

// EffectiveRoles returns the stored roles plus ROLE_USER, without duplicates.
func (u *User) EffectiveRoles() Roles {
    roles := make(Roles, 0, len(u.Roles)+1)
    seen := make(map[string]bool, len(u.Roles)+1)
    for _, r := range append(append(Roles{}, u.Roles...), RoleUser) {
        if seen[r] {
            continue
        }
        seen[r] = true
        roles = append(roles, r)
    }
    return roles
}

// UserInput is the body of create and update requests.
// On update only non-empty values overwrite.
type UserInput struct {
    Username  string `json:"username"`
    Password  string `json:"password"`
    FirstName string `json:"first_name"`
    LastName  string `json:"last_name"`
    Email     string `json:"email"`
}

// Apply copies the non-empty fields of in onto u.
func (u *User) Apply(in UserInput) {
    if in.Username != "" {
        u.Username = in.Username
    }
    if in.FirstName != "" {
        u.FirstName = in.FirstName
    }
    if in.LastName != "" {
        u.LastName = in.LastName
    }
    if in.Email != "" {
        u.Email = in.Email
    }
}
