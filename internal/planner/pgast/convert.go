// Package pgast converts a pg_query_go-parsed Postgres statement into the
// planner's typed internal/planner/ast tree. It walks the parser's JSON
// output as map[string]any rather than the generated protobuf types,
// following the same shape the rest of this codebase already uses for
// talking to pg_query_go (see internal/catalog's provenance resolver): the
// JSON tree's field names are stable across pg_query_go's protobuf schema
// churn in a way hand-written protobuf field access is not.
package pgast

import (
	"encoding/json"
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"github.com/bulletdb/bulletdb/internal/enginerr"
	"github.com/bulletdb/bulletdb/internal/planner/ast"
)

// Parse parses a single SQL statement into the planner's AST.
func Parse(sql string) (*ast.Statement, error) {
	raw, err := pg_query.ParseToJSON(sql)
	if err != nil {
		return nil, enginerr.InvalidArgumentf("parse sql: %s", err)
	}

	var tree map[string]any
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return nil, enginerr.WrapConversion(err, "unmarshal parsed sql ast")
	}

	stmts, _ := tree["stmts"].([]any)
	if len(stmts) == 0 {
		return nil, enginerr.InvalidArgumentf("no statements")
	}
	stmt, ok := stmts[0].(map[string]any)["stmt"].(map[string]any)
	if !ok {
		return nil, enginerr.InvalidArgumentf("malformed statement node")
	}

	if selectStmt, ok := stmt["SelectStmt"].(map[string]any); ok {
		query, err := convertSelect(selectStmt)
		if err != nil {
			return nil, err
		}
		return &ast.Statement{Query: query}, nil
	}

	return nil, enginerr.NotImplementedf("only SELECT statements are supported")
}

func convertSelect(sel map[string]any) (*ast.QueryNode, error) {
	// valuesLists indicates this SelectStmt is really a VALUES clause.
	if valuesLists, ok := sel["valuesLists"].([]any); ok {
		rows := make([][]ast.Expr, len(valuesLists))
		for i, row := range valuesLists {
			list, ok := row.(map[string]any)["List"].(map[string]any)
			if !ok {
				return nil, enginerr.InvalidArgumentf("malformed VALUES row")
			}
			items, _ := list["items"].([]any)
			rowExprs := make([]ast.Expr, len(items))
			for j, item := range items {
				e, err := convertExpr(item.(map[string]any))
				if err != nil {
					return nil, err
				}
				rowExprs[j] = e
			}
			rows[i] = rowExprs
		}
		return &ast.QueryNode{Values: &ast.ValuesNode{Rows: rows}}, nil
	}

	node := &ast.SelectNode{}

	if fromClause, ok := sel["fromClause"].([]any); ok && len(fromClause) > 0 {
		from, err := convertFrom(fromClause[0].(map[string]any))
		if err != nil {
			return nil, err
		}
		node.From = from
	}

	if whereExpr, ok := sel["whereClause"].(map[string]any); ok {
		e, err := convertExpr(whereExpr)
		if err != nil {
			return nil, err
		}
		node.Where = e
	}

	tlist, _ := sel["targetList"].([]any)
	for _, t := range tlist {
		resTarget, ok := t.(map[string]any)["ResTarget"].(map[string]any)
		if !ok {
			continue
		}
		selExpr, err := convertTargetEntry(resTarget)
		if err != nil {
			return nil, err
		}
		node.Projections = append(node.Projections, selExpr)
	}

	return &ast.QueryNode{Select: node}, nil
}

func convertTargetEntry(resTarget map[string]any) (ast.SelectExpr, error) {
	alias, _ := resTarget["name"].(string)
	val, _ := resTarget["val"].(map[string]any)

	if colref, ok := val["ColumnRef"].(map[string]any); ok {
		fields := extractFields(colref)
		if len(fields) > 0 && fields[len(fields)-1] == "*" {
			if len(fields) == 1 {
				return ast.SelectExpr{Wildcard: true}, nil
			}
			return ast.SelectExpr{QualifiedWildcard: strings.Join(fields[:len(fields)-1], ".")}, nil
		}
	}

	e, err := convertExpr(val)
	if err != nil {
		return ast.SelectExpr{}, err
	}
	return ast.SelectExpr{Expr: e, Alias: alias}, nil
}

func convertFrom(node map[string]any) (*ast.FromNode, error) {
	if rv, ok := node["RangeVar"].(map[string]any); ok {
		parts := []string{}
		if sch, ok := rv["schemaname"].(string); ok && sch != "" {
			parts = append(parts, sch)
		}
		rel, _ := rv["relname"].(string)
		parts = append(parts, rel)

		from := &ast.FromNode{Body: ast.FromBody{BaseTable: &ast.ObjectReference{Parts: parts}}}
		if a, ok := rv["alias"].(map[string]any); ok {
			from.Alias, _ = a["aliasname"].(string)
		}
		return from, nil
	}

	if rf, ok := node["RangeFunction"].(map[string]any); ok {
		return convertTableFunction(rf)
	}

	if rs, ok := node["RangeSubselect"].(map[string]any); ok {
		sub, ok := rs["subquery"].(map[string]any)["SelectStmt"].(map[string]any)
		if !ok {
			return nil, enginerr.NotImplementedf("unsupported subquery form")
		}
		inner, err := convertSelect(sub)
		if err != nil {
			return nil, err
		}
		from := &ast.FromNode{Body: ast.FromBody{Subquery: inner}}
		if a, ok := rs["alias"].(map[string]any); ok {
			from.Alias, _ = a["aliasname"].(string)
		}
		return from, nil
	}

	return nil, enginerr.NotImplementedf("unsupported FROM clause item")
}

func convertTableFunction(rf map[string]any) (*ast.FromNode, error) {
	functions, _ := rf["functions"].([]any)
	if len(functions) == 0 {
		return nil, enginerr.InvalidArgumentf("RangeFunction with no functions")
	}
	list, ok := functions[0].(map[string]any)["List"].(map[string]any)
	if !ok {
		return nil, enginerr.InvalidArgumentf("malformed RangeFunction")
	}
	items, _ := list["items"].([]any)
	if len(items) == 0 {
		return nil, enginerr.InvalidArgumentf("RangeFunction with empty function list")
	}
	fn, ok := items[0].(map[string]any)["FuncCall"].(map[string]any)
	if !ok {
		return nil, enginerr.InvalidArgumentf("RangeFunction item is not a function call")
	}

	name := funcName(fn)
	var args []ast.FunctionArg
	if rawArgs, ok := fn["args"].([]any); ok {
		for _, a := range rawArgs {
			e, err := convertExpr(a.(map[string]any))
			if err != nil {
				return nil, err
			}
			args = append(args, ast.FunctionArg{Arg: e})
		}
	}

	from := &ast.FromNode{Body: ast.FromBody{TableFunction: &ast.TableFunctionRef{
		Reference: ast.ObjectReference{Parts: []string{name}},
		Args:      args,
	}}}
	if a, ok := rf["alias"].(map[string]any); ok {
		from.Alias, _ = a["aliasname"].(string)
	}
	return from, nil
}

func convertExpr(node map[string]any) (ast.Expr, error) {
	if node == nil {
		return nil, enginerr.InvalidArgumentf("nil expression node")
	}

	if colref, ok := node["ColumnRef"].(map[string]any); ok {
		fields := extractFields(colref)
		if len(fields) == 0 {
			return nil, enginerr.InvalidArgumentf("empty column reference")
		}
		if len(fields) == 1 {
			return ast.Ident{Value: fields[0]}, nil
		}
		return ast.CompoundIdent{Parts: fields}, nil
	}

	if c, ok := node["A_Const"].(map[string]any); ok {
		return convertConst(c)
	}

	if ae, ok := node["A_Expr"].(map[string]any); ok {
		op := opName(ae)
		left, err := convertExpr(mapField(ae["lexpr"]))
		if err != nil {
			return nil, err
		}
		right, err := convertExpr(mapField(ae["rexpr"]))
		if err != nil {
			return nil, err
		}
		return ast.BinaryExpr{Left: left, Op: op, Right: right}, nil
	}

	if fn, ok := node["FuncCall"].(map[string]any); ok {
		name := funcName(fn)
		var args []ast.Expr
		if rawArgs, ok := fn["args"].([]any); ok {
			for _, a := range rawArgs {
				e, err := convertExpr(a.(map[string]any))
				if err != nil {
					return nil, err
				}
				args = append(args, e)
			}
		}
		return ast.FunctionCall{Name: name, Args: args}, nil
	}

	return nil, enginerr.NotImplementedf("unsupported expression node: %v", keysOf(node))
}

func convertConst(c map[string]any) (ast.Expr, error) {
	if _, ok := c["isnull"]; ok {
		if isnull, _ := c["isnull"].(bool); isnull {
			return ast.Literal{Kind: ast.LiteralNull}, nil
		}
	}
	if iv, ok := c["ival"].(map[string]any); ok {
		n, _ := iv["ival"].(float64)
		return ast.Literal{Kind: ast.LiteralNumber, Number: fmt.Sprintf("%d", int64(n))}, nil
	}
	if fv, ok := c["fval"].(map[string]any); ok {
		s, _ := fv["fval"].(string)
		return ast.Literal{Kind: ast.LiteralNumber, Number: s}, nil
	}
	if sv, ok := c["sval"].(map[string]any); ok {
		s, _ := sv["sval"].(string)
		return ast.Literal{Kind: ast.LiteralString, Str: s}, nil
	}
	if bv, ok := c["boolval"].(map[string]any); ok {
		b, _ := bv["boolval"].(bool)
		return ast.Literal{Kind: ast.LiteralBoolean, Boolean: b}, nil
	}
	return ast.Literal{Kind: ast.LiteralNull}, nil
}

func mapField(v any) map[string]any {
	if v == nil {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

func opName(ae map[string]any) string {
	nameList, _ := ae["name"].([]any)
	for _, n := range nameList {
		if s, ok := n.(map[string]any)["String"].(map[string]any); ok {
			if v, ok := s["sval"].(string); ok {
				return v
			}
		}
	}
	return "?"
}

func funcName(fn map[string]any) string {
	nameList, _ := fn["funcname"].([]any)
	last := ""
	for _, n := range nameList {
		if s, ok := n.(map[string]any)["String"].(map[string]any); ok {
			if v, ok := s["sval"].(string); ok {
				last = v
			}
		}
	}
	return last
}

func extractFields(colref map[string]any) []string {
	raw, _ := colref["fields"].([]any)
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		m, ok := f.(map[string]any)
		if !ok {
			continue
		}
		if _, ok := m["A_Star"]; ok {
			fields = append(fields, "*")
			continue
		}
		if s, ok := m["String"].(map[string]any); ok {
			if v, ok := s["sval"].(string); ok {
				fields = append(fields, v)
			}
		}
	}
	return fields
}

func keysOf(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
