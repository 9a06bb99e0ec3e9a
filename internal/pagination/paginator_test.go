package pagination

import (
	"context"
	"errors"
	"math"
	"net/url"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilemo/catalog-server/internal/fault"
)

var productDefaults = Defaults{
	Limit:     10,
	OrderBy:   "name",
	Direction: Asc,
	Sortable: map[string]string{
		"id":                "id",
		"name":              "name",
		"price":             "price",
		"availableQuantity": "available_quantity",
		"createdAt":         "created_at",
	},
	Aliases: map[string]string{
		"quantity": "availableQuantity",
		"date":     "createdAt",
	},
}

func values(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Add(kv[i], kv[i+1])
	}
	return v
}

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
		want   Plan
	}{
		{
			name:   "defaults",
			params: values(),
			want:   Plan{Page: 1, Limit: 10, OrderBy: "name", Column: "name", Direction: Asc},
		},
		{
			name:   "explicit page and limit",
			params: values("page", "3", "limit", "5"),
			want:   Plan{Page: 3, Limit: 5, OrderBy: "name", Column: "name", Direction: Asc},
		},
		{
			name:   "non positive page",
			params: values("page", "-2"),
			want:   Plan{Page: 1, Limit: 10, OrderBy: "name", Column: "name", Direction: Asc},
		},
		{
			name:   "zero page",
			params: values("page", "0"),
			want:   Plan{Page: 1, Limit: 10, OrderBy: "name", Column: "name", Direction: Asc},
		},
		{
			name:   "malformed page",
			params: values("page", "abc"),
			want:   Plan{Page: 1, Limit: 10, OrderBy: "name", Column: "name", Direction: Asc},
		},
		{
			name:   "limit zero is unbounded",
			params: values("limit", "0", "page", "4"),
			want:   Plan{Page: 4, Limit: 0, OrderBy: "name", Column: "name", Direction: Asc},
		},
		{
			name:   "malformed limit",
			params: values("limit", "ten"),
			want:   Plan{Page: 1, Limit: 10, OrderBy: "name", Column: "name", Direction: Asc},
		},
		{
			name:   "negative limit",
			params: values("limit", "-5"),
			want:   Plan{Page: 1, Limit: 10, OrderBy: "name", Column: "name", Direction: Asc},
		},
		{
			name:   "alias quantity",
			params: values("orderby", "quantity"),
			want:   Plan{Page: 1, Limit: 10, OrderBy: "availableQuantity", Column: "available_quantity", Direction: Asc},
		},
		{
			name:   "alias date",
			params: values("orderby", "date"),
			want:   Plan{Page: 1, Limit: 10, OrderBy: "createdAt", Column: "created_at", Direction: Asc},
		},
		{
			name:   "inverse true",
			params: values("inverse", "true"),
			want:   Plan{Page: 1, Limit: 10, OrderBy: "name", Column: "name", Direction: Desc},
		},
		{
			name:   "inverse 1",
			params: values("inverse", "1"),
			want:   Plan{Page: 1, Limit: 10, OrderBy: "name", Column: "name", Direction: Desc},
		},
		{
			name:   "inverse arbitrary token",
			params: values("inverse", "yes"),
			want:   Plan{Page: 1, Limit: 10, OrderBy: "name", Column: "name", Direction: Desc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPlan(tt.params, productDefaults)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPlan_InverseOverridesDefault(t *testing.T) {
	d := productDefaults
	d.Direction = Desc

	for _, tok := range []string{"false", "FALSE", "no", "0", ""} {
		p, err := NewPlan(values("inverse", tok), d)
		require.NoError(t, err)
		assert.Equal(t, Asc, p.Direction, "token %q", tok)
	}

	// An already descending default stays descending; the flag is not a toggle.
	p, err := NewPlan(values("inverse", "true"), d)
	require.NoError(t, err)
	assert.Equal(t, Desc, p.Direction)
}

func TestNewPlan_UnknownOrderField(t *testing.T) {
	for _, field := range []string{"password", "name; DROP TABLE products", "customer_id"} {
		_, err := NewPlan(values("orderby", field), productDefaults)
		require.Error(t, err, field)
		assert.ErrorIs(t, err, fault.ErrValidation)

		env := fault.Translate(err)
		require.Len(t, env.Violations, 1)
		assert.Equal(t, ParamOrderBy, env.Violations[0].Field)
	}
}

func TestNewPlan_PageOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		params url.Values
	}{
		{"offset overflows int", values("page", "4611686018427387905", "limit", "4")},
		{"offset overflows with default limit", values("page", strconv.Itoa(math.MaxInt/10+2))},
		{"page overflows int", values("page", "99999999999999999999999")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlan(tt.params, productDefaults)
			require.Error(t, err)
			assert.ErrorIs(t, err, fault.ErrValidation)

			env := fault.Translate(err)
			require.Len(t, env.Violations, 1)
			assert.Equal(t, ParamPage, env.Violations[0].Field)
		})
	}
}

func TestNewPlan_LargestPageKeepsOffset(t *testing.T) {
	page := math.MaxInt/4 + 1
	p, err := NewPlan(values("page", strconv.Itoa(page), "limit", "4"), productDefaults)
	require.NoError(t, err)
	assert.Equal(t, (page-1)*4, p.Offset())
	assert.Greater(t, p.Offset(), 0)

	_, err = NewPlan(values("page", "99999999999999999999999", "limit", "0"), productDefaults)
	require.Error(t, err, "an unrepresentable page is rejected even when unbounded")

	p, err = NewPlan(values("page", "-99999999999999999999999"), productDefaults)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
}

func TestPlanOffset(t *testing.T) {
	assert.Equal(t, 0, Plan{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, Plan{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, Plan{Page: 7, Limit: 0}.Offset())
}

func TestDefaultsValidate(t *testing.T) {
	require.NoError(t, productDefaults.Validate())

	bad := productDefaults
	bad.OrderBy = "secret"
	assert.Error(t, bad.Validate())

	bad = productDefaults
	bad.Direction = "SIDEWAYS"
	assert.Error(t, bad.Validate())

	bad = productDefaults
	bad.Aliases = map[string]string{"q": "nope"}
	assert.Error(t, bad.Validate())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection(" desc ")
	require.NoError(t, err)
	assert.Equal(t, Desc, d)

	_, err = ParseDirection("up")
	assert.Error(t, err)
}

type row struct {
	id    int64
	price float64
}

// rowQuery is an in-memory Query recording what the paginator applied.
type rowQuery struct {
	rows    []row
	column  string
	dir     Direction
	offset  uint64
	limit   uint64
	windows int
	err     error
}

func (q *rowQuery) OrderBy(column string, dir Direction) { q.column, q.dir = column, dir }

func (q *rowQuery) Window(offset, limit uint64) {
	q.offset, q.limit = offset, limit
	q.windows++
}

func (q *rowQuery) All(context.Context) ([]row, error) {
	if q.err != nil {
		return nil, q.err
	}
	out := append([]row(nil), q.rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if q.column == "price" && a.price != b.price {
			if q.dir == Desc {
				return a.price > b.price
			}
			return a.price < b.price
		}
		return a.id < b.id
	})
	if q.windows == 0 {
		return out, nil
	}
	if q.offset >= uint64(len(out)) {
		return []row{}, nil
	}
	end := q.offset + q.limit
	if end > uint64(len(out)) {
		end = uint64(len(out))
	}
	return out[q.offset:end], nil
}

func sampleRows(n int) []row {
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{id: int64(i + 1), price: float64((i * 7) % 5)}
	}
	return rows
}

func TestPaginate_UnboundedIgnoresPage(t *testing.T) {
	for _, page := range []string{"1", "2", "99"} {
		q := &rowQuery{rows: sampleRows(23)}
		items, p, err := Paginate[row](context.Background(), values("limit", "0", "page", page), productDefaults, q)
		require.NoError(t, err)
		assert.Len(t, items, 23)
		assert.True(t, p.Unbounded())
		assert.Zero(t, q.windows, "no window applied")
	}
}

func TestPaginate_WindowsDoNotOverlap(t *testing.T) {
	for _, limit := range []string{"1", "4", "10"} {
		seen := map[int64]int{}
		for page := 1; page <= 3; page++ {
			q := &rowQuery{rows: sampleRows(11)}
			items, p, err := Paginate[row](context.Background(),
				values("limit", limit, "page", strconv.Itoa(page), "orderby", "price"),
				productDefaults, q)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(items), p.Limit)
			assert.Equal(t, uint64((page-1)*p.Limit), q.offset)
			for _, it := range items {
				seen[it.id]++
			}
		}
		for id, n := range seen {
			assert.Equal(t, 1, n, "row %d returned on several pages (limit %s)", id, limit)
		}
	}
}

func TestPaginate_OrderByPriceDescending(t *testing.T) {
	q := &rowQuery{rows: sampleRows(12)}
	items, _, err := Paginate[row](context.Background(),
		values("limit", "0", "orderby", "price", "inverse", "true"), productDefaults, q)
	require.NoError(t, err)
	require.Len(t, items, 12)
	assert.Equal(t, "price", q.column)
	assert.Equal(t, Desc, q.dir)
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].price, items[i].price)
	}
}

func TestPaginate_Errors(t *testing.T) {
	q := &rowQuery{}
	_, _, err := Paginate[row](context.Background(), values("orderby", "nope"), productDefaults, q)
	assert.ErrorIs(t, err, fault.ErrValidation)
	assert.Empty(t, q.column, "query untouched on invalid plan")

	boom := errors.New("connection reset")
	q = &rowQuery{err: boom}
	_, _, err = Paginate[row](context.Background(), values(), productDefaults, q)
	assert.ErrorIs(t, err, boom)
}
