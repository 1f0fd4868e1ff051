// Package query translates list-endpoint query parameters into a
// typed, store-agnostic specification and composes the SQL fragments
// repositories execute. Reserved parameter names (page, sort, limit,
// fields) never become filters, and only fields declared in an
// entity's Schema participate in filtering, sorting or projection.
package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Reserved parameter names excluded from the filter stage.
var reserved = map[string]bool{
	"page":   true,
	"sort":   true,
	"limit":  true,
	"fields": true,
}

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
)

var bracketOps = map[string]Op{
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

// Filter is a single field comparison.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// Sort is one ordered sort term.
type Sort struct {
	Field string
	Desc  bool
}

// Spec is the parsed query descriptor for a list endpoint.
type Spec struct {
	Filters []Filter
	Sort    []Sort
	Fields  []string // projection; empty means all schema fields
	Page    int
	Limit   int
}

// Offset converts page/limit into a row offset.
func (s Spec) Offset() int { return (s.Page - 1) * s.Limit }

// Schema declares which fields of an entity the query layer may
// touch and how API field names map to table columns.
type Schema struct {
	Table      string
	Columns    map[string]string // api field name -> column
	Filterable map[string]bool   // subset of Columns usable in filters
	Sortable   map[string]bool   // subset of Columns usable in sort
	Base       string            // predicate applied to every query, "" for none
}

// Defaults bound pagination when the request leaves it unspecified.
type Defaults struct {
	Limit    int
	MaxLimit int
}

// Parse builds a Spec from raw query parameters. Unknown or reserved
// fields are dropped rather than rejected; malformed page/limit fall
// back to defaults.
func Parse(values url.Values, sch Schema, def Defaults) Spec {
	spec := Spec{Page: 1, Limit: def.Limit}
	if spec.Limit <= 0 {
		spec.Limit = 100
	}

	for key, vals := range values {
		if len(vals) == 0 || reserved[key] {
			continue
		}
		field, op := splitBracket(key)
		if !sch.Filterable[field] {
			continue
		}
		spec.Filters = append(spec.Filters, Filter{Field: field, Op: op, Value: vals[0]})
	}

	for _, term := range strings.Split(values.Get("sort"), ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		desc := strings.HasPrefix(term, "-")
		field := strings.TrimPrefix(term, "-")
		if !sch.Sortable[field] {
			continue
		}
		spec.Sort = append(spec.Sort, Sort{Field: field, Desc: desc})
	}

	for _, f := range strings.Split(values.Get("fields"), ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := sch.Columns[f]; !ok {
			continue
		}
		spec.Fields = append(spec.Fields, f)
	}

	if n, err := strconv.Atoi(values.Get("page")); err == nil && n > 0 {
		spec.Page = n
	}
	if n, err := strconv.Atoi(values.Get("limit")); err == nil && n > 0 {
		spec.Limit = n
	}
	if def.MaxLimit > 0 && spec.Limit > def.MaxLimit {
		spec.Limit = def.MaxLimit
	}
	return spec
}

// splitBracket decomposes "price[gte]" into ("price", OpGte). Keys
// without a recognized bracket suffix are equality filters.
func splitBracket(key string) (string, Op) {
	open := strings.IndexByte(key, '[')
	if open <= 0 || !strings.HasSuffix(key, "]") {
		return key, OpEq
	}
	suffix := key[open+1 : len(key)-1]
	if op, ok := bracketOps[suffix]; ok {
		return key[:open], op
	}
	return key, OpEq
}
