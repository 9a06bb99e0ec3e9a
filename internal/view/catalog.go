package view

import (
	"net/http"

	"github.com/bilemo/catalog-server/internal/models"
)

// Resource paths used in links.
const (
	ProductsPath = "/api/products"
	ProductPath  = "/api/products/{id}"
	UsersPath    = "/api/users"
	UserPath     = "/api/users/{id}"
	CustomerPath = "/api/customers/{id}"
)

var (
	readAction   = Action{Name: "read", Method: http.MethodGet}
	updateAction = Action{Name: "update", Method: http.MethodPut}
	deleteAction = Action{Name: "delete", Method: http.MethodDelete}
)

// NewCatalog returns a registry with the views of products, users and
// customers.
func NewCatalog(baseURL string) *Registry {
	r := NewRegistry(baseURL)

	r.Register(models.KindProduct, List, View{
		Fields: []Field{
			Attr("id", func(p *models.Product) interface{} { return p.ID }),
			Attr("name", func(p *models.Product) interface{} { return p.Name }),
			Attr("price", func(p *models.Product) interface{} { return p.Price }),
			Attr("availableQuantity", func(p *models.Product) interface{} { return p.AvailableQuantity }),
		},
		Links: []Link{
			{Rel: "self", Path: ProductPath, Actions: []Action{readAction}},
		},
	})
	r.Register(models.KindProduct, Details, View{
		Fields: []Field{
			Attr("name", func(p *models.Product) interface{} { return p.Name }),
			Attr("createdAt", func(p *models.Product) interface{} { return p.CreatedAt }),
			Attr("description", func(p *models.Product) interface{} { return p.Description }),
			Attr("price", func(p *models.Product) interface{} { return p.Price }),
			Attr("color", func(p *models.Product) interface{} { return p.Color }),
			Attr("availableQuantity", func(p *models.Product) interface{} { return p.AvailableQuantity }),
		},
		Links: []Link{
			{Rel: "self", Path: ProductPath, Actions: []Action{readAction}},
			{Rel: "all", Path: ProductsPath, Actions: []Action{readAction}},
		},
	})

	r.Register(models.KindUser, List, View{
		Fields: []Field{
			Attr("id", func(u *models.User) interface{} { return u.ID }),
			Attr("username", func(u *models.User) interface{} { return u.Username }),
			Attr("firstName", func(u *models.User) interface{} { return u.FirstName }),
			Attr("lastName", func(u *models.User) interface{} { return u.LastName }),
		},
		Links: []Link{
			{Rel: "self", Path: UserPath, Actions: []Action{readAction, updateAction, deleteAction}},
		},
	})
	r.Register(models.KindUser, Details, View{
		Fields: []Field{
			Attr("username", func(u *models.User) interface{} { return u.Username }),
			Attr("firstName", func(u *models.User) interface{} { return u.FirstName }),
			Attr("lastName", func(u *models.User) interface{} { return u.LastName }),
			Attr("email", func(u *models.User) interface{} { return u.Email }),
			Embed("customer", Ref{Kind: models.KindCustomer, View: Summary},
				func(u *models.User) interface{} { return u.Customer }),
		},
		Links: []Link{
			{Rel: "self", Path: UserPath, Actions: []Action{readAction, updateAction, deleteAction}},
			{Rel: "all", Path: UsersPath, Actions: []Action{readAction}},
		},
	})

	r.Register(models.KindCustomer, Summary, View{
		Fields: []Field{
			Attr("id", func(t *models.Tenant) interface{} { return t.ID }),
			Attr("name", func(t *models.Tenant) interface{} { return t.Name }),
		},
	})
	r.Register(models.KindCustomer, Details, View{
		Fields: []Field{
			Attr("id", func(t *models.Tenant) interface{} { return t.ID }),
			Attr("name", func(t *models.Tenant) interface{} { return t.Name }),
			Embed("users", Ref{Kind: models.KindUser, View: List},
				func(t *models.Tenant) interface{} { return t.Users }),
		},
		Links: []Link{
			{Rel: "self", Path: CustomerPath, Actions: []Action{readAction}},
		},
	})

	return r
}
