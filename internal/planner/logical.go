package planner

import "github.com/bulletdb/bulletdb/internal/bullet"

// LogicalExpression is the planner's typed scalar expression, resolved
// against a Scope: column references are positional (ScopeLevel/ItemIdx),
// not name-based, by the time they reach this form.
type LogicalExpression interface {
	isLogicalExpression()
}

type LiteralExpr struct {
	Value bullet.Array // length-1 array carrying the scalar
}

type ColumnRefExpr struct {
	Ref ColumnRef
}

type BinaryOpExpr struct {
	Op    string
	Left  LogicalExpression
	Right LogicalExpression
}

type FunctionCallExpr struct {
	Name string
	Args []LogicalExpression
}

func (LiteralExpr) isLogicalExpression()      {}
func (ColumnRefExpr) isLogicalExpression()    {}
func (BinaryOpExpr) isLogicalExpression()     {}
func (FunctionCallExpr) isLogicalExpression() {}

// LogicalOperator is a node in the logical plan tree, lowered from the
// typed AST and resolved against scopes. Physical planning
// (internal/exec/operators) walks this tree to build the poll-contract
// pipeline.
type LogicalOperator interface {
	isLogicalOperator()
}

// Empty is the logical form of a query with no FROM and no VALUES, e.g.
// SELECT 1 + 1.
type Empty struct{}

// ExpressionList is the logical form of a VALUES clause: each row is a
// list of expressions evaluated with no input schema.
type ExpressionList struct {
	Rows [][]LogicalExpression
}

// Projection evaluates Exprs against Input's output.
type Projection struct {
	Exprs []LogicalExpression
	Names []string
	Input LogicalOperator
}

// Filter keeps only the rows of Input where Predicate holds. Does not
// change the scope.
type Filter struct {
	Predicate LogicalExpression
	Input     LogicalOperator
}

// ScanSource names what a Scan operator reads from: a catalog table, or a
// bound table function (its name and already-evaluated constant args).
type ScanSource struct {
	Table         *TableReference
	TableFunction string
	FunctionArgs  []LogicalExpression
}

// Scan is the logical form of a FROM-clause base table or table function
// reference.
type Scan struct {
	Source ScanSource
	Schema []bullet.StructField
}

func (Empty) isLogicalOperator()          {}
func (ExpressionList) isLogicalOperator() {}
func (Projection) isLogicalOperator()     {}
func (Filter) isLogicalOperator()         {}
func (Scan) isLogicalOperator()           {}

// LogicalQuery is a fully planned query: its root operator and the scope
// describing its output columns.
type LogicalQuery struct {
	Root  LogicalOperator
	Scope *Scope
}
