package planner

import (
	"strconv"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
	"github.com/bulletdb/bulletdb/internal/planner/ast"
)

// ExpandedSelectExpr is one item of a SELECT list after wildcard
// expansion: either a genuine expression (with its output name) or a
// direct reference into the current scope by index (what a wildcard
// expands to).
type ExpandedSelectExpr struct {
	// Exactly one of Expr or IsColumn is meaningful.
	Expr     ast.Expr
	Name     string
	IsColumn bool
	ColumnIdx int
}

// ExpressionContext carries everything needed to plan one expression:
// the enclosing PlanContext (for outer scopes and the resolver), and the
// scope expressions within it resolve against.
type ExpressionContext struct {
	plan  *PlanContext
	scope *Scope
}

func NewExpressionContext(plan *PlanContext, scope *Scope) *ExpressionContext {
	return &ExpressionContext{plan: plan, scope: scope}
}

// ExpandSelectExpr expands one SELECT-list item, resolving `*` and
// `table.*` wildcards against the current scope.
func (c *ExpressionContext) ExpandSelectExpr(expr ast.SelectExpr) ([]ExpandedSelectExpr, error) {
	switch {
	case expr.Wildcard:
		out := make([]ExpandedSelectExpr, len(c.scope.Items))
		for i, item := range c.scope.Items {
			out[i] = ExpandedSelectExpr{IsColumn: true, ColumnIdx: i, Name: item.Column}
		}
		return out, nil

	case expr.QualifiedWildcard != "":
		var out []ExpandedSelectExpr
		for i, item := range c.scope.Items {
			if item.Alias != nil && item.Alias.Table == expr.QualifiedWildcard {
				out = append(out, ExpandedSelectExpr{IsColumn: true, ColumnIdx: i, Name: item.Column})
			}
		}
		return out, nil

	case expr.Alias != "":
		return []ExpandedSelectExpr{{Expr: expr.Expr, Name: expr.Alias}}, nil

	default:
		return []ExpandedSelectExpr{{Expr: expr.Expr, Name: "?column?"}}, nil
	}
}

// PlanExpression lowers one AST expression into a LogicalExpression,
// resolving identifiers against the scope and outer scopes.
func (c *ExpressionContext) PlanExpression(expr ast.Expr) (LogicalExpression, error) {
	switch e := expr.(type) {
	case ast.Ident:
		return c.planIdent(e.Value)
	case ast.CompoundIdent:
		return c.planCompoundIdent(e.Parts)
	case ast.Literal:
		return c.planLiteral(e)
	case ast.BinaryExpr:
		left, err := c.PlanExpression(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.PlanExpression(e.Right)
		if err != nil {
			return nil, err
		}
		return BinaryOpExpr{Op: e.Op, Left: left, Right: right}, nil
	case ast.FunctionCall:
		args := make([]LogicalExpression, len(e.Args))
		for i, a := range e.Args {
			planned, err := c.PlanExpression(a)
			if err != nil {
				return nil, err
			}
			args[i] = planned
		}
		return FunctionCallExpr{Name: e.Name, Args: args}, nil
	default:
		return nil, enginerr.NotImplementedf("unsupported expression form %T", expr)
	}
}

// planLiteral parses a SQL numeric literal in i64 -> u64 -> f64 order,
// matching the reference parser exactly: the first representation the
// text fits is the one used, so "9223372036854775808" (too big for i64,
// fits u64) becomes UInt64 while "1e400" (too big for either) silently
// becomes a float, not an overflow error.
func (c *ExpressionContext) planLiteral(lit ast.Literal) (LogicalExpression, error) {
	switch lit.Kind {
	case ast.LiteralNumber:
		if n, err := strconv.ParseInt(lit.Number, 10, 64); err == nil {
			return LiteralExpr{Value: scalarInt64(n)}, nil
		}
		if n, err := strconv.ParseUint(lit.Number, 10, 64); err == nil {
			return LiteralExpr{Value: scalarUint64(n)}, nil
		}
		if n, err := strconv.ParseFloat(lit.Number, 64); err == nil {
			return LiteralExpr{Value: scalarFloat64(n)}, nil
		}
		return nil, enginerr.InvalidArgumentf("unable to parse %q as a number", lit.Number)

	case ast.LiteralBoolean:
		return LiteralExpr{Value: bullet.NewBooleanArray([]bool{lit.Boolean}, nil)}, nil

	case ast.LiteralNull:
		return LiteralExpr{Value: bullet.NewNullArray(1)}, nil

	case ast.LiteralString:
		data, offsets := bullet.BuildVarlenOffsets32([][]byte{[]byte(lit.Str)})
		return LiteralExpr{Value: bullet.NewVarlenArray(bullet.Simple(bullet.KindUtf8), data, offsets, nil)}, nil

	default:
		return nil, enginerr.NotImplementedf("unsupported literal kind")
	}
}

func scalarInt64(n int64) bullet.Array {
	return bullet.NewPrimitiveArray(bullet.Simple(bullet.KindInt64), []int64{n}, nil)
}

func scalarUint64(n uint64) bullet.Array {
	return bullet.NewPrimitiveArray(bullet.Simple(bullet.KindUInt64), []uint64{n}, nil)
}

func scalarFloat64(n float64) bullet.Array {
	return bullet.NewPrimitiveArray(bullet.Simple(bullet.KindFloat64), []float64{n}, nil)
}

// planIdent plans a single bare identifier: assumed to be a column name
// either in the current scope or one of the outer scopes.
func (c *ExpressionContext) planIdent(name string) (LogicalExpression, error) {
	ref, err := c.scope.ResolveColumn(c.plan.OuterScopes, nil, name)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, enginerr.Lookupf("missing column for reference: %s", name)
	}
	return ColumnRefExpr{Ref: *ref}, nil
}

// planCompoundIdent plans a 2-4 part qualified column reference:
// table.column, schema.table.column, or database.schema.table.column.
func (c *ExpressionContext) planCompoundIdent(parts []string) (LogicalExpression, error) {
	switch len(parts) {
	case 0:
		return nil, enginerr.InvalidArgumentf("empty identifier")
	case 1:
		return c.planIdent(parts[0])
	case 2, 3, 4:
		col := parts[len(parts)-1]
		rest := parts[:len(parts)-1]
		table := &TableReference{}
		switch len(rest) {
		case 1:
			table.Table = rest[0]
		case 2:
			table.Schema, table.Table = rest[0], rest[1]
		case 3:
			table.Database, table.Schema, table.Table = rest[0], rest[1], rest[2]
		}
		ref, err := c.scope.ResolveColumn(c.plan.OuterScopes, table, col)
		if err != nil {
			return nil, err
		}
		if ref == nil {
			return nil, enginerr.Lookupf("missing column for reference: %s.%s", table.Table, col)
		}
		return ColumnRefExpr{Ref: *ref}, nil
	default:
		return nil, enginerr.InvalidArgumentf("too many identifier parts in %v", parts)
	}
}
