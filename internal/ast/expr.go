package ast

import (
	"encoding/json"
	"fmt"
)

// Expr is the tagged union over every expression-AST variant in §3:
// scalar primitives, typed scalars ($date/$timestamp/$uuid/$jsonb) and
// expression objects ($field/$var/$func/$cond).
type Expr struct {
	Kind ExprKind

	Str  string // string literal / $date / $timestamp / $uuid value / $field path / $var name
	Num  float64
	Bool bool

	JSONB *JSONBObject // $jsonb payload

	FuncName string
	FuncArgs []*Expr

	CondIf   *Cond
	CondThen *Expr
	CondElse *Expr
}

// JSONBObject is the decoded payload of a $jsonb literal: an ordered map
// from key to expression, so that $field/$var references nested inside
// it can be resolved before the object is serialized (SPEC_FULL §3).
type JSONBObject struct {
	Keys []string
	Vals []*Expr
}

func (e *Expr) UnmarshalJSON(data []byte) error {
	trimmed := trimSpaceBytes(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty expression")
	}

	switch trimmed[0] {
	case 'n': // null
		e.Kind = KindNull
		return nil
	case 't', 'f': // true / false
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		e.Kind = KindBoolean
		e.Bool = b
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		e.Kind = KindString
		e.Str = s
		return nil
	case '{':
		return e.unmarshalObject(data)
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("invalid expression value: %w", err)
		}
		e.Kind = KindNumber
		e.Num = f
		return nil
	}
}

func (e *Expr) unmarshalObject(data []byte) error {
	var om OrderedMap
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}
	if om.Len() != 1 {
		// An object with a key that isn't one of the typed-scalar/expression
		// tags is invalid here; multi-key objects are only legal as $func's
		// single-key body, handled separately.
		return fmt.Errorf("invalid expression: expected a single-key tagged object, got %d keys", om.Len())
	}

	key, raw := om.Keys[0], om.Vals[0]
	switch key {
	case "$date":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("$date: %w", err)
		}
		e.Kind = KindDate
		e.Str = s

	case "$timestamp":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("$timestamp: %w", err)
		}
		e.Kind = KindTimestamp
		e.Str = s

	case "$uuid":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("$uuid: %w", err)
		}
		e.Kind = KindUUID
		e.Str = s

	case "$jsonb":
		var obj OrderedMap
		if err := obj.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("$jsonb: %w", err)
		}
		jb := &JSONBObject{Keys: obj.Keys}
		for _, v := range obj.Vals {
			ex := &Expr{}
			if err := ex.UnmarshalJSON(v); err != nil {
				return fmt.Errorf("$jsonb.%s", err)
			}
			jb.Vals = append(jb.Vals, ex)
		}
		e.Kind = KindJSONB
		e.JSONB = jb

	case "$field":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("$field: %w", err)
		}
		e.Kind = KindField
		e.Str = s

	case "$var":
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("$var: %w", err)
		}
		e.Kind = KindVar
		e.Str = s

	case "$func":
		var fom OrderedMap
		if err := fom.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("$func: %w", err)
		}
		if fom.Len() != 1 {
			return fmt.Errorf("$func object must contain exactly one key, got %d", fom.Len())
		}
		e.Kind = KindFunc
		e.FuncName = fom.Keys[0]

		var args []json.RawMessage
		if err := json.Unmarshal(fom.Vals[0], &args); err != nil {
			return fmt.Errorf("$func %q: arguments must be an array: %w", e.FuncName, err)
		}
		for _, a := range args {
			ax := &Expr{}
			if err := ax.UnmarshalJSON(a); err != nil {
				return fmt.Errorf("$func %q: %w", e.FuncName, err)
			}
			e.FuncArgs = append(e.FuncArgs, ax)
		}

	case "$cond":
		var condOm OrderedMap
		if err := condOm.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("$cond: %w", err)
		}
		e.Kind = KindCond
		for i, k := range condOm.Keys {
			switch k {
			case "if":
				c := &Cond{}
				if err := c.UnmarshalJSON(condOm.Vals[i]); err != nil {
					return fmt.Errorf("$cond.if: %w", err)
				}
				e.CondIf = c
			case "then":
				ex := &Expr{}
				if err := ex.UnmarshalJSON(condOm.Vals[i]); err != nil {
					return fmt.Errorf("$cond.then: %w", err)
				}
				e.CondThen = ex
			case "else":
				ex := &Expr{}
				if err := ex.UnmarshalJSON(condOm.Vals[i]); err != nil {
					return fmt.Errorf("$cond.else: %w", err)
				}
				e.CondElse = ex
			}
		}
		if e.CondIf == nil || e.CondThen == nil || e.CondElse == nil {
			return fmt.Errorf("$cond requires if, then and else")
		}

	default:
		return fmt.Errorf("unknown expression tag: %s", key)
	}

	return nil
}

func trimSpaceBytes(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}
