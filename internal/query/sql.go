package query

import "strings"

// Clause is the SQL realization of a Spec against one schema. Where
// always holds at least "1=1" so callers can append it unconditionally.
type Clause struct {
	Where  string
	Args   []any
	Order  string // "" or "ORDER BY ..."
	Limit  int
	Offset int
}

// Build composes the WHERE/ORDER BY/LIMIT fragments for a spec. The
// schema's Base predicate is always injected first; this is how the
// active-only rule for users is enforced on every listing.
func Build(spec Spec, sch Schema) Clause {
	where := []string{}
	args := []any{}

	if sch.Base != "" {
		where = append(where, sch.Base)
	}
	for _, f := range spec.Filters {
		col, ok := sch.Columns[f.Field]
		if !ok {
			continue
		}
		where = append(where, col+" "+string(f.Op)+" ?")
		args = append(args, f.Value)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	order := ""
	if len(spec.Sort) > 0 {
		terms := make([]string, 0, len(spec.Sort))
		for _, s := range spec.Sort {
			col, ok := sch.Columns[s.Field]
			if !ok {
				continue
			}
			dir := "ASC"
			if s.Desc {
				dir = "DESC"
			}
			terms = append(terms, col+" "+dir)
		}
		if len(terms) > 0 {
			order = "ORDER BY " + strings.Join(terms, ", ")
		}
	}

	return Clause{
		Where:  cond,
		Args:   args,
		Order:  order,
		Limit:  spec.Limit,
		Offset: spec.Offset(),
	}
}
