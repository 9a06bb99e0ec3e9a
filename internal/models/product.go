package models

// Product is an entry of the shared catalog
type Product struct {
    BaseModel

    Name              string  `json:"name" db:"name"`
    Description       string  `json:"description,omitempty" db:"description"`
    Price             float64 `json:"price" db:"price"`
    Color             string  `json:"color,omitempty" db:"color"`
    AvailableQuantity int     `json:"availableQuantity" db:"available_quantity"`
}

// ResourceKind implements access.Resource
func (p *Product) ResourceKind() Kind {
    return KindProduct
}

// OwnerTenantID implements access.Resource; products belong to no tenant.
func (p *Product) OwnerTenantID() (int64, bool) {
    return 0, false
}
