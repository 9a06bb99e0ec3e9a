package view

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/bilemo/catalog-server/internal/models"
)

// LinksKey is the representation key holding hypermedia links.
const LinksKey = "_links"

// Representation is a projected entity. Keys keep their insertion order
// when encoded.
type Representation struct {
	keys   []string
	values map[string]interface{}
}

// Set adds or replaces a key.
func (r *Representation) Set(k string, v interface{}) {
	if r.values == nil {
		r.values = make(map[string]interface{})
	}
	if _, ok := r.values[k]; !ok {
		r.keys = append(r.keys, k)
	}
	r.values[k] = v
}

// Get returns the value stored under k.
func (r Representation) Get(k string) (interface{}, bool) {
	v, ok := r.values[k]
	return v, ok
}

// Keys returns the keys in order.
func (r Representation) Keys() []string {
	return append([]string(nil), r.keys...)
}

// MarshalJSON implements json.Marshaler.
func (r Representation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, fmt.Errorf("marshal %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// identified is implemented by entities that can be linked to.
type identified interface {
	ResourceID() int64
}

// Projector applies registered views. It holds no per-request state.
type Projector struct {
	reg *Registry
}

// NewProjector returns a projector over reg.
func NewProjector(reg *Registry) *Projector {
	return &Projector{reg: reg}
}

// Project shapes entity with the view name of kind.
func (p *Projector) Project(kind models.Kind, name string, entity interface{}) (Representation, error) {
	v, ok := p.reg.Lookup(kind, name)
	if !ok {
		return Representation{}, fmt.Errorf("no view %q for %s", name, kind)
	}

	var out Representation
	for _, f := range v.Fields {
		val, err := f.Value(entity)
		if err != nil {
			return Representation{}, fmt.Errorf("project %s/%s: %w", kind, name, err)
		}
		if f.Nested != nil {
			val, err = p.nested(*f.Nested, val)
			if err != nil {
				return Representation{}, fmt.Errorf("project %s/%s.%s: %w", kind, name, f.Name, err)
			}
		}
		out.Set(f.Name, val)
	}

	if len(v.Links) > 0 {
		links, err := p.links(v.Links, entity)
		if err != nil {
			return Representation{}, fmt.Errorf("project %s/%s links: %w", kind, name, err)
		}
		out.Set(LinksKey, links)
	}
	return out, nil
}

// ProjectList shapes every item with the same view, keeping order.
func ProjectList[T any](p *Projector, kind models.Kind, name string, items []T) ([]Representation, error) {
	out := make([]Representation, 0, len(items))
	for _, it := range items {
		r, err := p.Project(kind, name, it)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// nested projects a relation value: nil stays nil, slices are projected
// element by element, anything else as a single entity.
func (p *Projector) nested(ref Ref, val interface{}) (interface{}, error) {
	if val == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(val)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
	case reflect.Slice:
		items := make([]Representation, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			r, err := p.Project(ref.Kind, ref.View, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			items = append(items, r)
		}
		return items, nil
	}
	return p.Project(ref.Kind, ref.View, val)
}

func (p *Projector) links(links []Link, entity interface{}) (Representation, error) {
	var out Representation
	for _, l := range links {
		var id int64
		if e, ok := entity.(identified); ok {
			id = e.ResourceID()
		} else if strings.Contains(l.Path, "{id}") {
			return Representation{}, fmt.Errorf("link %q needs an id, got %T", l.Rel, entity)
		}

		var link Representation
		link.Set("href", p.reg.Href(l.Path, id))
		if len(l.Actions) > 0 {
			var actions Representation
			for _, a := range l.Actions {
				actions.Set(a.Name, a.Method)
			}
			link.Set("actions", actions)
		}
		out.Set(l.Rel, link)
	}
	return out, nil
}
