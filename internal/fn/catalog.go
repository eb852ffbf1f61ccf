// Package fn is the function catalog (§4.4): a registry mapping a
// function name to its arity, expected argument types, result type and
// a dialect-specific emitter, modeled as a plain record rather than a
// class hierarchy per the design notes in §9.
package fn

import (
	"fmt"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/dialect"
	"github.com/vellum-sql/sqlqc/internal/errs"
)

// Arg is one pre-evaluated argument handed to an emitter: its rendered
// SQL text, its inferred type, and the original AST node (needed by a
// handful of emitters, e.g. DIVIDE's literal-zero check).
type Arg struct {
	SQL  string
	Type ast.ExprType
	Node *ast.Expr
}

// Arity describes how many arguments a function accepts.
type Arity struct {
	Variadic bool
	Count    int // exact count when !Variadic
	Min      int // minimum count when Variadic
}

// Entry is one catalog record.
type Entry struct {
	Name       string
	Arity      Arity
	ArgType    ast.ExprType // expected type for every positional argument (this catalog's families are homogeneous per-position)
	ResultType ast.ExprType
	Emit       func(args []Arg, d dialect.Dialect) (string, error)
}

var catalog = map[string]*Entry{}

func register(e *Entry) { catalog[e.Name] = e }

// Lookup finds a catalog entry by name.
func Lookup(name string) (*Entry, bool) {
	e, ok := catalog[name]
	return e, ok
}

// CheckArity validates the argument count against the entry's arity,
// using the exact templated messages from §4.4.
func CheckArity(e *Entry, n int) error {
	if e.Arity.Variadic {
		if n < e.Arity.Min {
			return errs.New(errs.Arity, "Function '%s' requires at least %d arguments, got %d", e.Name, e.Arity.Min, n)
		}
		return nil
	}
	if n != e.Arity.Count {
		return errs.New(errs.Arity, "Function '%s' requires exactly %d argument(s), got %d", e.Name, e.Arity.Count, n)
	}
	return nil
}

// CheckArgTypes validates and, where allowed, auto-casts each argument
// to the entry's expected per-position type (§4.4): a mismatch may only
// be repaired by casting to TEXT when the expected type is string;
// anything else is a TypeError.
func CheckArgTypes(e *Entry, args []Arg, d dialect.Dialect) ([]Arg, error) {
	if e.ArgType == ast.ExprAny {
		return args, nil
	}
	out := make([]Arg, len(args))
	for i, a := range args {
		if a.Type == e.ArgType || a.Type == ast.ExprNull {
			out[i] = a
			continue
		}
		if e.ArgType == ast.ExprString {
			out[i] = Arg{SQL: fmt.Sprintf("CAST(%s AS %s)", a.SQL, d.StorageType(ast.TypeString)), Type: ast.ExprString, Node: a.Node}
			continue
		}
		if e.ArgType == ast.ExprDateTime && a.Type == ast.ExprDate {
			// A date is datetime-compatible (§4.4): no SQL rewrite needed,
			// just widen the reported type so the rest of the pipeline sees
			// a datetime.
			out[i] = Arg{SQL: a.SQL, Type: ast.ExprDateTime, Node: a.Node}
			continue
		}
		return nil, errs.New(errs.Type, "Function '%s' requires argument %d of type %s, got %s", e.Name, i+1, e.ArgType, a.Type)
	}
	return out, nil
}

func init() {
	registerArithmetic()
	registerNumericUnary()
	registerNumericVariadic()
	registerStringFns()
	registerDateTimeFns()
	registerAggregates()
}

func registerArithmetic() {
	ops := map[string]string{
		"ADD": "+", "SUBTRACT": "-", "MULTIPLY": "*", "MOD": "%", "POW": "^",
	}
	for name, op := range ops {
		name, op := name, op
		register(&Entry{
			Name:       name,
			Arity:      Arity{Count: 2},
			ArgType:    ast.ExprNumber,
			ResultType: ast.ExprNumber,
			Emit: func(args []Arg, d dialect.Dialect) (string, error) {
				return fmt.Sprintf("(%s %s %s)", args[0].SQL, op, args[1].SQL), nil
			},
		})
	}
	register(&Entry{
		Name:       "DIVIDE",
		Arity:      Arity{Count: 2},
		ArgType:    ast.ExprNumber,
		ResultType: ast.ExprNumber,
		Emit: func(args []Arg, d dialect.Dialect) (string, error) {
			if n := args[1].Node; n != nil && n.Kind == ast.KindNumber && n.Num == 0 {
				return "", errs.New(errs.Domain, "Division by zero is not allowed")
			}
			return fmt.Sprintf("(%s / %s)", args[0].SQL, args[1].SQL), nil
		},
	})
}

func registerNumericUnary() {
	names := map[string]string{"ABS": "ABS", "CEIL": "CEIL", "FLOOR": "FLOOR", "ROUND": "ROUND"}
	for name, sqlName := range names {
		name, sqlName := name, sqlName
		register(&Entry{
			Name:       name,
			Arity:      Arity{Count: 1},
			ArgType:    ast.ExprNumber,
			ResultType: ast.ExprNumber,
			Emit: func(args []Arg, d dialect.Dialect) (string, error) {
				return fmt.Sprintf("%s(%s)", sqlName, args[0].SQL), nil
			},
		})
	}
}

func registerNumericVariadic() {
	register(&Entry{
		Name:       "COALESCE_NUMBER",
		Arity:      Arity{Variadic: true, Min: 2},
		ArgType:    ast.ExprNumber,
		ResultType: ast.ExprNumber,
		Emit:       variadicCall("COALESCE"),
	})
	register(&Entry{
		Name:       "GREATEST_NUMBER",
		Arity:      Arity{Variadic: true, Min: 2},
		ArgType:    ast.ExprNumber,
		ResultType: ast.ExprNumber,
		Emit:       variadicCall("GREATEST"),
	})
	register(&Entry{
		Name:       "LEAST_NUMBER",
		Arity:      Arity{Variadic: true, Min: 2},
		ArgType:    ast.ExprNumber,
		ResultType: ast.ExprNumber,
		Emit:       variadicCall("LEAST"),
	})
}

func variadicCall(sqlName string) func([]Arg, dialect.Dialect) (string, error) {
	return func(args []Arg, d dialect.Dialect) (string, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.SQL
		}
		return sqlName + "(" + join(parts, ", ") + ")", nil
	}
}

func registerStringFns() {
	names := map[string]string{"UPPER": "UPPER", "LOWER": "LOWER", "TRIM": "TRIM"}
	for name, sqlName := range names {
		name, sqlName := name, sqlName
		register(&Entry{
			Name:       name,
			Arity:      Arity{Count: 1},
			ArgType:    ast.ExprString,
			ResultType: ast.ExprString,
			Emit: func(args []Arg, d dialect.Dialect) (string, error) {
				return fmt.Sprintf("%s(%s)", sqlName, args[0].SQL), nil
			},
		})
	}
	register(&Entry{
		Name:       "LENGTH",
		Arity:      Arity{Count: 1},
		ArgType:    ast.ExprString,
		ResultType: ast.ExprNumber,
		Emit: func(args []Arg, d dialect.Dialect) (string, error) {
			return fmt.Sprintf("LENGTH(%s)", args[0].SQL), nil
		},
	})
	register(&Entry{
		Name:       "CONCAT",
		Arity:      Arity{Variadic: true, Min: 2},
		ArgType:    ast.ExprString,
		ResultType: ast.ExprString,
		Emit: func(args []Arg, d dialect.Dialect) (string, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.SQL
			}
			return "(" + join(parts, " || ") + ")", nil
		},
	})
	register(&Entry{
		Name:       "COALESCE_STRING",
		Arity:      Arity{Variadic: true, Min: 2},
		ArgType:    ast.ExprString,
		ResultType: ast.ExprString,
		Emit:       variadicCall("COALESCE"),
	})
	register(&Entry{
		Name:       "SUBSTR",
		Arity:      Arity{Count: 3},
		ArgType:    ast.ExprAny,
		ResultType: ast.ExprString,
		Emit: func(args []Arg, d dialect.Dialect) (string, error) {
			return fmt.Sprintf("SUBSTR(%s, %s, %s)", args[0].SQL, args[1].SQL, args[2].SQL), nil
		},
	})
}

func registerDateTimeFns() {
	register(&Entry{
		Name:       "EXTRACT_EPOCH",
		Arity:      Arity{Count: 1},
		ArgType:    ast.ExprDateTime,
		ResultType: ast.ExprNumber,
		Emit: func(args []Arg, d dialect.Dialect) (string, error) {
			if d.IsSQLite() {
				return fmt.Sprintf("STRFTIME('%%s', %s)", args[0].SQL), nil
			}
			return fmt.Sprintf("EXTRACT(EPOCH FROM %s)", args[0].SQL), nil
		},
	})
}

func registerAggregates() {
	register(&Entry{Name: "COUNT", Arity: Arity{Count: 1}, ArgType: ast.ExprAny, ResultType: ast.ExprNumber,
		Emit: func(args []Arg, d dialect.Dialect) (string, error) { return fmt.Sprintf("COUNT(%s)", args[0].SQL), nil }})
	register(&Entry{Name: "COUNT_DISTINCT", Arity: Arity{Count: 1}, ArgType: ast.ExprAny, ResultType: ast.ExprNumber,
		Emit: func(args []Arg, d dialect.Dialect) (string, error) { return fmt.Sprintf("COUNT(DISTINCT %s)", args[0].SQL), nil }})
	for _, name := range []string{"SUM", "AVG", "MIN", "MAX"} {
		name := name
		register(&Entry{Name: name, Arity: Arity{Count: 1}, ArgType: ast.ExprNumber, ResultType: ast.ExprNumber,
			Emit: func(args []Arg, d dialect.Dialect) (string, error) { return fmt.Sprintf("%s(%s)", name, args[0].SQL), nil }})
	}
	register(&Entry{
		Name:       "STRING_AGG",
		Arity:      Arity{Count: 2},
		ArgType:    ast.ExprAny,
		ResultType: ast.ExprString,
		Emit: func(args []Arg, d dialect.Dialect) (string, error) {
			return fmt.Sprintf("%s(%s, %s)", d.StringAggName(), args[0].SQL, args[1].SQL), nil
		},
	})
}

func join(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
