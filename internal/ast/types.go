// Package ast holds the tagged, polymorphic query AST decoded from the
// JSON query language described in §3 of the specification. Decoding a
// node from its wire JSON form (picking "$field" from "$func" from a
// plain scalar) lives here; schema-aware validation of the decoded tree
// happens later in internal/eval and internal/resolve.
package ast

// FieldType is the domain-level type of a schema field, carried in
// Table configuration and used throughout type inference.
type FieldType string

const (
	TypeString   FieldType = "string"
	TypeNumber   FieldType = "number"
	TypeBoolean  FieldType = "boolean"
	TypeUUID     FieldType = "uuid"
	TypeDate     FieldType = "date"
	TypeDateTime FieldType = "datetime"
	TypeObject   FieldType = "object"
)

// ExprType is the type domain attached to an evaluated expression node:
// every FieldType plus "null" and "any".
type ExprType string

const (
	ExprString   ExprType = "string"
	ExprNumber   ExprType = "number"
	ExprBoolean  ExprType = "boolean"
	ExprUUID     ExprType = "uuid"
	ExprDate     ExprType = "date"
	ExprDateTime ExprType = "datetime"
	ExprObject   ExprType = "object"
	ExprNull     ExprType = "null"
	ExprAny      ExprType = "any"
)

// FromFieldType lifts a schema field type into the expression type domain.
func FromFieldType(t FieldType) ExprType { return ExprType(t) }

// ExprKind discriminates the variants of Expr.
type ExprKind int

const (
	KindString ExprKind = iota
	KindNumber
	KindBoolean
	KindNull
	KindDate
	KindTimestamp
	KindUUID
	KindJSONB
	KindField
	KindVar
	KindFunc
	KindCond
)

// CondKind discriminates the variants of Cond.
type CondKind int

const (
	CondAnd CondKind = iota
	CondOr
	CondNot
	CondExists
	CondFieldMap
	CondBoolExpr
)
