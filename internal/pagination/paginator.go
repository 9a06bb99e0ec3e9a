// Package pagination turns untrusted list query parameters into a bounded,
// deterministic query plan and runs it against a repository query.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/bilemo/catalog-server/internal/fault"
)

// Query parameter names.
const (
	ParamPage    = "page"
	ParamLimit   = "limit"
	ParamOrderBy = "orderby"
	ParamInverse = "inverse"
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection accepts "asc" or "desc" in any case.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToUpper(strings.TrimSpace(s))) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	}
	return "", fmt.Errorf("invalid direction %q", s)
}

// Defaults are the per resource type pagination settings.
type Defaults struct {
	Limit     int
	OrderBy   string
	Direction Direction
	// Sortable maps each public field name to its storage column. Only
	// fields listed here can reach the query.
	Sortable map[string]string
	// Aliases maps alternative names to public field names.
	Aliases map[string]string
}

// Validate checks that the defaults can produce a plan.
func (d Defaults) Validate() error {
	if d.Limit < 0 {
		return fmt.Errorf("default limit must not be negative, got %d", d.Limit)
	}
	if _, ok := d.Sortable[d.OrderBy]; !ok {
		return fmt.Errorf("default order field %q is not sortable", d.OrderBy)
	}
	if d.Direction != Asc && d.Direction != Desc {
		return fmt.Errorf("invalid default direction %q", d.Direction)
	}
	for alias, field := range d.Aliases {
		if _, ok := d.Sortable[field]; !ok {
			return fmt.Errorf("alias %q targets unknown field %q", alias, field)
		}
	}
	return nil
}

// Plan is a resolved pagination request.
type Plan struct {
	Page      int
	Limit     int // 0 means unbounded
	OrderBy   string
	Column    string
	Direction Direction
}

// Offset returns the number of rows to skip.
func (p Plan) Offset() int {
	if p.Limit == 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Unbounded reports whether the plan returns every row.
func (p Plan) Unbounded() bool {
	return p.Limit == 0
}

// Query is a repository query scoped to one resource type. Implementations
// accumulate ordering and windowing and run once on All.
type Query[T any] interface {
	OrderBy(column string, dir Direction)
	Window(offset, limit uint64)
	All(ctx context.Context) ([]T, error)
}

// NewPlan resolves params against d. Malformed page and limit values fall
// back to defaults; an unknown order field or a page whose offset does not
// fit an int is a validation error.
func NewPlan(params url.Values, d Defaults) (Plan, error) {
	page, ok := parsePage(params.Get(ParamPage))
	p := Plan{
		Page:      page,
		Limit:     parseLimit(params, d.Limit),
		Direction: d.Direction,
	}
	if !ok || (p.Limit > 0 && p.Page-1 > math.MaxInt/p.Limit) {
		return Plan{}, fault.Validation(fault.Violation{
			Field:   ParamPage,
			Message: "page is out of range",
		})
	}

	field := d.OrderBy
	if raw := strings.TrimSpace(params.Get(ParamOrderBy)); raw != "" {
		field = raw
	}
	if target, ok := d.Aliases[field]; ok {
		field = target
	}
	column, ok := d.Sortable[field]
	if !ok {
		return Plan{}, fault.Validation(fault.Violation{
			Field:   ParamOrderBy,
			Message: fmt.Sprintf("cannot order by %q", field),
		})
	}
	p.OrderBy = field
	p.Column = column

	if _, present := params[ParamInverse]; present {
		p.Direction = inverseDirection(params.Get(ParamInverse))
	}

	return p, nil
}

// Apply sets ordering and window of q according to p.
func Apply[T any](p Plan, q Query[T]) {
	q.OrderBy(p.Column, p.Direction)
	if !p.Unbounded() {
		q.Window(uint64(p.Offset()), uint64(p.Limit))
	}
}

// Paginate resolves params, applies the plan to q and runs it.
func Paginate[T any](ctx context.Context, params url.Values, d Defaults, q Query[T]) ([]T, Plan, error) {
	p, err := NewPlan(params, d)
	if err != nil {
		return nil, Plan{}, err
	}
	Apply(p, q)
	items, err := q.All(ctx)
	if err != nil {
		return nil, p, fmt.Errorf("run paginated query: %w", err)
	}
	return items, p, nil
}

// parsePage returns the requested page, 1 when absent or malformed. ok is
// false for numbers too large to represent.
func parsePage(raw string) (page int, ok bool) {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(strings.TrimSpace(raw), "-") {
		return 0, false
	}
	if err != nil || page < 1 {
		return 1, true
	}
	return page, true
}

func parseLimit(params url.Values, def int) int {
	if _, present := params[ParamLimit]; !present {
		return def
	}
	limit, err := strconv.Atoi(strings.TrimSpace(params.Get(ParamLimit)))
	if err != nil || limit < 0 {
		return def
	}
	return limit
}

// inverseDirection interprets the inverse flag: falsy tokens mean ascending,
// anything else descending.
func inverseDirection(raw string) Direction {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "no":
		return Asc
	default:
		return Desc
	}
}
