package planner

import (
	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
)

// TableReference is a resolved, possibly partially-qualified table name:
// [database.]?[schema.]?table.
type TableReference struct {
	Database string
	Schema   string
	Table    string
}

// ScopeColumn is one column visible at a point in the plan: its output
// name, the table it is (optionally) qualified by, and its type.
type ScopeColumn struct {
	Column string
	Alias  *TableReference
	Type   bullet.DataType
}

// Scope is the set of columns visible to expression planning at one point
// in the logical plan, plus the scopes enclosing it (for correlated
// subqueries): lookups check this scope first, then each outer scope in
// order, so an inner reference shadows an outer one of the same name and a
// lookup can never walk back down into a sibling or child scope.
type Scope struct {
	Items []ScopeColumn
}

func EmptyScope() *Scope { return &Scope{} }

// WithColumns builds a scope naming each of names, optionally all qualified
// by the same table alias.
func WithColumns(alias *TableReference, names []string, types []bullet.DataType) *Scope {
	items := make([]ScopeColumn, len(names))
	for i, n := range names {
		var t bullet.DataType
		if i < len(types) {
			t = types[i]
		}
		items[i] = ScopeColumn{Column: n, Alias: alias, Type: t}
	}
	return &Scope{Items: items}
}

// ColumnRef locates a resolved column: which scope level it was found at
// (0 = current scope, 1 = immediately enclosing scope, ...) and its index
// within that scope's Items.
type ColumnRef struct {
	ScopeLevel int
	ItemIdx    int
}

// ResolveColumn looks up a column name (optionally qualified by table) in
// this scope, then in order in outerScopes. Returns an error if the name is
// ambiguous within a single scope level; a miss at one level falls through
// to the next rather than erroring immediately, since shadowing is
// resolved by which level answers first.
func (s *Scope) ResolveColumn(outerScopes []*Scope, table *TableReference, column string) (*ColumnRef, error) {
	levels := append([]*Scope{s}, outerScopes...)
	for level, sc := range levels {
		idx, err := sc.resolveInLevel(table, column)
		if err != nil {
			return nil, err
		}
		if idx >= 0 {
			return &ColumnRef{ScopeLevel: level, ItemIdx: idx}, nil
		}
	}
	return nil, nil
}

func (s *Scope) resolveInLevel(table *TableReference, column string) (int, error) {
	found := -1
	for i, item := range s.Items {
		if item.Column != column {
			continue
		}
		if table != nil {
			if item.Alias == nil || item.Alias.Table != table.Table {
				continue
			}
		}
		if found != -1 {
			return -1, enginerr.InvalidArgumentf("ambiguous column reference: %s", column)
		}
		found = i
	}
	return found, nil
}
