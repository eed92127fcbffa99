package planner

import (
	"strconv"

	"github.com/bulletdb/bulletdb/internal/bullet"
	"github.com/bulletdb/bulletdb/internal/enginerr"
	"github.com/bulletdb/bulletdb/internal/planner/ast"
)

// Resolver looks up catalog entries and table functions the planner needs
// while lowering a FROM clause. internal/catalog provides the concrete
// implementation backing this during real planning.
type Resolver interface {
	ResolveTable(ref ast.ObjectReference) (*TableReference, []bullet.StructField, error)
	ResolveTableFunction(name string) (TableFunctionBinder, error)
}

// TableFunctionBinder binds a table function's constant arguments to a
// concrete output schema, e.g. read_parquet('path') binding to the
// Parquet file's column list.
type TableFunctionBinder interface {
	Bind(args []LogicalExpression) ([]bullet.StructField, error)
}

// PlanContext carries the state threaded through planning one query: the
// Resolver and the scopes enclosing the part of the query currently being
// planned (for correlated subqueries).
type PlanContext struct {
	Resolver    Resolver
	OuterScopes []*Scope
}

func NewPlanContext(resolver Resolver) *PlanContext {
	return &PlanContext{Resolver: resolver}
}

func (p *PlanContext) nested(outer *Scope) *PlanContext {
	scopes := make([]*Scope, 0, len(p.OuterScopes)+1)
	scopes = append(scopes, outer)
	scopes = append(scopes, p.OuterScopes...)
	return &PlanContext{Resolver: p.Resolver, OuterScopes: scopes}
}

// PlanStatement lowers a parsed statement into a logical plan.
func (p *PlanContext) PlanStatement(stmt *ast.Statement) (*LogicalQuery, error) {
	if stmt.Query == nil {
		return nil, enginerr.NotImplementedf("only query statements are supported")
	}
	return p.planQuery(stmt.Query)
}

func (p *PlanContext) planQuery(query *ast.QueryNode) (*LogicalQuery, error) {
	switch {
	case query.Select != nil:
		return p.planSelect(query.Select)
	case query.Values != nil:
		return p.planValues(query.Values)
	default:
		return nil, enginerr.InvalidArgumentf("query has neither a SELECT nor a VALUES body")
	}
}

func (p *PlanContext) planSelect(sel *ast.SelectNode) (*LogicalQuery, error) {
	plan := &LogicalQuery{Root: Empty{}, Scope: EmptyScope()}

	if sel.From != nil {
		planned, err := p.planFromNode(sel.From)
		if err != nil {
			return nil, err
		}
		plan = planned
	}

	if sel.Where != nil {
		exprCtx := NewExpressionContext(p, plan.Scope)
		predicate, err := exprCtx.PlanExpression(sel.Where)
		if err != nil {
			return nil, err
		}
		plan.Root = Filter{Predicate: predicate, Input: plan.Root}
	}

	exprCtx := NewExpressionContext(p, plan.Scope)
	var expanded []ExpandedSelectExpr
	for _, projExpr := range sel.Projections {
		items, err := exprCtx.ExpandSelectExpr(projExpr)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, items...)
	}

	exprs := make([]LogicalExpression, len(expanded))
	names := make([]string, len(expanded))
	for i, proj := range expanded {
		if proj.IsColumn {
			exprs[i] = ColumnRefExpr{Ref: ColumnRef{ScopeLevel: 0, ItemIdx: proj.ColumnIdx}}
			names[i] = proj.Name
			continue
		}
		e, err := exprCtx.PlanExpression(proj.Expr)
		if err != nil {
			return nil, err
		}
		exprs[i] = e
		names[i] = proj.Name
	}

	return &LogicalQuery{
		Root:  Projection{Exprs: exprs, Names: names, Input: plan.Root},
		Scope: WithColumns(nil, names, nil),
	}, nil
}

func (p *PlanContext) planFromNode(from *ast.FromNode) (*LogicalQuery, error) {
	var body *LogicalQuery
	var err error

	switch {
	case from.Body.BaseTable != nil:
		body, err = p.planBaseTable(*from.Body.BaseTable)
	case from.Body.Subquery != nil:
		nested := p.nested(EmptyScope())
		body, err = nested.planQuery(from.Body.Subquery)
	case from.Body.TableFunction != nil:
		body, err = p.planTableFunction(*from.Body.TableFunction)
	default:
		err = enginerr.NotImplementedf("unsupported FROM clause body")
	}
	if err != nil {
		return nil, err
	}

	scope, err := applyAlias(body.Scope, from.Alias, from.Columns)
	if err != nil {
		return nil, err
	}
	return &LogicalQuery{Root: body.Root, Scope: scope}, nil
}

func (p *PlanContext) planBaseTable(ref ast.ObjectReference) (*LogicalQuery, error) {
	table, fields, err := p.Resolver.ResolveTable(ref)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(fields))
	types := make([]bullet.DataType, len(fields))
	for i, f := range fields {
		names[i] = f.Name
		types[i] = f.Type
	}
	scope := WithColumns(table, names, types)
	return &LogicalQuery{
		Root:  Scan{Source: ScanSource{Table: table}, Schema: fields},
		Scope: scope,
	}, nil
}

func (p *PlanContext) planTableFunction(ref ast.TableFunctionRef) (*LogicalQuery, error) {
	name := ref.Reference.String()
	binder, err := p.Resolver.ResolveTableFunction(name)
	if err != nil {
		return nil, err
	}

	exprCtx := NewExpressionContext(p, EmptyScope())
	args := make([]LogicalExpression, len(ref.Args))
	for i, a := range ref.Args {
		planned, err := exprCtx.PlanExpression(a.Arg)
		if err != nil {
			return nil, err
		}
		if _, ok := planned.(LiteralExpr); !ok {
			return nil, enginerr.InvalidArgumentf("argument to table function %s is not a constant", name)
		}
		args[i] = planned
	}

	fields, err := binder.Bind(args)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(fields))
	types := make([]bullet.DataType, len(fields))
	for i, f := range fields {
		names[i] = f.Name
		types[i] = f.Type
	}
	scope := WithColumns(&TableReference{Table: name}, names, types)

	return &LogicalQuery{
		Root:  Scan{Source: ScanSource{TableFunction: name, FunctionArgs: args}, Schema: fields},
		Scope: scope,
	}, nil
}

func applyAlias(scope *Scope, alias string, columns []string) (*Scope, error) {
	if alias == "" {
		return scope, nil
	}
	if len(columns) > len(scope.Items) {
		return nil, enginerr.InvalidArgumentf("specified %d column aliases when only %d columns exist", len(columns), len(scope.Items))
	}

	ref := &TableReference{Table: alias}
	items := make([]ScopeColumn, len(scope.Items))
	copy(items, scope.Items)
	for i := range items {
		items[i].Alias = ref
	}
	for i, newName := range columns {
		items[i].Column = newName
	}
	return &Scope{Items: items}, nil
}

func (p *PlanContext) planValues(values *ast.ValuesNode) (*LogicalQuery, error) {
	if len(values.Rows) == 0 {
		return nil, enginerr.InvalidArgumentf("empty VALUES expression")
	}

	exprCtx := NewExpressionContext(p, EmptyScope())
	numCols := len(values.Rows[0])
	rows := make([][]LogicalExpression, len(values.Rows))
	for i, row := range values.Rows {
		planned := make([]LogicalExpression, len(row))
		for j, colExpr := range row {
			e, err := exprCtx.PlanExpression(colExpr)
			if err != nil {
				return nil, err
			}
			planned[j] = e
		}
		rows[i] = planned
	}

	names := make([]string, numCols)
	for i := range names {
		names[i] = columnDefaultName(i + 1)
	}

	return &LogicalQuery{
		Root:  ExpressionList{Rows: rows},
		Scope: WithColumns(nil, names, nil),
	}, nil
}

func columnDefaultName(n int) string {
	return "column" + strconv.Itoa(n)
}
