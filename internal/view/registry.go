// Package view shapes entities into the representations returned by the API.
// A view is a named fieldset plus hypermedia links registered per resource
// kind; the projector applies it.
package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bilemo/catalog-server/internal/models"
)

// Standard view names.
const (
	List    = "list"
	Details = "details"
	Summary = "summary"
)

// Field is one exposed attribute of a view.
type Field struct {
	Name  string
	Value func(entity interface{}) (interface{}, error)
	// Nested, when set, projects the value (an entity or a slice of
	// entities) with another view instead of serializing it as is.
	Nested *Ref
}

// Ref names a view of a kind.
type Ref struct {
	Kind models.Kind
	View string
}

// Action is an HTTP method allowed on a link target.
type Action struct {
	Name   string
	Method string
}

// Link is a hypermedia relation. Path may contain {id}, replaced by the
// entity id.
type Link struct {
	Rel     string
	Path    string
	Actions []Action
}

// View is a fieldset with its links.
type View struct {
	Fields []Field
	Links  []Link
}

type key struct {
	kind models.Kind
	name string
}

// Registry holds views by kind and name. Register everything before use;
// lookups are safe for concurrent use afterwards.
type Registry struct {
	baseURL string
	views   map[key]View
}

// NewRegistry returns an empty registry building links under baseURL.
func NewRegistry(baseURL string) *Registry {
	return &Registry{
		baseURL: strings.TrimRight(baseURL, "/"),
		views:   make(map[key]View),
	}
}

// Register adds or replaces a view.
func (r *Registry) Register(kind models.Kind, name string, v View) {
	r.views[key{kind, name}] = v
}

// Lookup returns the view registered for kind and name.
func (r *Registry) Lookup(kind models.Kind, name string) (View, bool) {
	v, ok := r.views[key{kind, name}]
	return v, ok
}

// Href builds an absolute link for path and id.
func (r *Registry) Href(path string, id int64) string {
	return r.baseURL + strings.ReplaceAll(path, "{id}", strconv.FormatInt(id, 10))
}

// Attr declares a plain attribute read from an entity of type T.
func Attr[T any](name string, get func(T) interface{}) Field {
	return Field{Name: name, Value: accessor(name, get)}
}

// Embed declares a relation projected with the view ref.
func Embed[T any](name string, ref Ref, get func(T) interface{}) Field {
	return Field{Name: name, Value: accessor(name, get), Nested: &ref}
}

func accessor[T any](name string, get func(T) interface{}) func(interface{}) (interface{}, error) {
	return func(entity interface{}) (interface{}, error) {
		e, ok := entity.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("field %q: got %T, want %T", name, entity, zero)
		}
		return get(e), nil
	}
}
