package ast

import (
	"encoding/json"
	"fmt"
)

// Cond is the tagged union over condition-AST variants in §3: boolean
// combinators, EXISTS subqueries, a bare boolean expression, and
// field-operator maps.
type Cond struct {
	Kind CondKind

	Children []*Cond // $and / $or (len >= 2), $not (len == 1)

	ExistsTable string
	ExistsCond  *Cond

	BoolExpr *Expr // plain boolean expression used as a condition

	Fields []FieldCond // $and of per-field clauses, in source key order
}

// FieldCond is one key of a field-operator map: either a compact
// operator map ({$eq, $ne, ...}) or a bare expression compared with
// implicit equality.
type FieldCond struct {
	Field string // may be "NEW_ROW.<f>" inside UPDATE conditions
	Ops   []OpClause
	Expr  *Expr // set when the value wasn't an operator map

	// LHSExpr is never populated by the wire decoder; the NEW_ROW
	// pre-pass (internal/newrow) sets it when a NEW_ROW.<f> reference's
	// update value can't be statically decided, so the condition
	// evaluator compares against this expression instead of resolving
	// Field through the schema.
	LHSExpr *Expr
}

// OpClause is one operator/value pair from a field-operator map,
// decoded in source order; the condition evaluator re-orders these into
// the canonical emission order from §4.5 before rendering. $in/$nin
// populate Values (an array); every other operator populates Value.
type OpClause struct {
	Op     string
	Value  *Expr
	Values []*Expr
}

var compactOps = map[string]bool{
	"$eq": true, "$ne": true, "$gt": true, "$gte": true, "$lt": true, "$lte": true,
	"$like": true, "$ilike": true, "$regex": true, "$in": true, "$nin": true,
}

func (c *Cond) UnmarshalJSON(data []byte) error {
	trimmed := trimSpaceBytes(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty condition")
	}

	// A bare boolean literal is a legal (degenerate) condition expression.
	if trimmed[0] == 't' || trimmed[0] == 'f' {
		ex := &Expr{}
		if err := ex.UnmarshalJSON(data); err != nil {
			return err
		}
		c.Kind = CondBoolExpr
		c.BoolExpr = ex
		return nil
	}

	if trimmed[0] != '{' {
		return fmt.Errorf("condition must be an object or boolean literal")
	}

	var om OrderedMap
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}

	if om.Len() == 1 {
		switch om.Keys[0] {
		case "$and", "$or":
			var items []json.RawMessage
			if err := json.Unmarshal(om.Vals[0], &items); err != nil {
				return fmt.Errorf("%s: must be an array: %w", om.Keys[0], err)
			}
			if len(items) == 0 {
				if om.Keys[0] == "$and" {
					return fmt.Errorf("$and condition should be a non-empty array.")
				}
				return fmt.Errorf("$or condition should be a non-empty array.")
			}
			if om.Keys[0] == "$and" {
				c.Kind = CondAnd
			} else {
				c.Kind = CondOr
			}
			for _, it := range items {
				child := &Cond{}
				if err := child.UnmarshalJSON(it); err != nil {
					return err
				}
				c.Children = append(c.Children, child)
			}
			return nil

		case "$not":
			child := &Cond{}
			if err := child.UnmarshalJSON(om.Vals[0]); err != nil {
				return err
			}
			c.Kind = CondNot
			c.Children = []*Cond{child}
			return nil

		case "$exists":
			var existsOm OrderedMap
			if err := existsOm.UnmarshalJSON(om.Vals[0]); err != nil {
				return fmt.Errorf("$exists: %w", err)
			}
			c.Kind = CondExists
			for i, k := range existsOm.Keys {
				switch k {
				case "table":
					var s string
					if err := json.Unmarshal(existsOm.Vals[i], &s); err != nil {
						return fmt.Errorf("$exists.table: %w", err)
					}
					c.ExistsTable = s
				case "condition":
					ic := &Cond{}
					if err := ic.UnmarshalJSON(existsOm.Vals[i]); err != nil {
						return fmt.Errorf("$exists.condition: %w", err)
					}
					c.ExistsCond = ic
				}
			}
			if c.ExistsTable == "" || c.ExistsCond == nil {
				return fmt.Errorf("$exists requires table and condition")
			}
			return nil
		}
	}

	// Otherwise: a field-operator map (possibly several fields ANDed
	// implicitly) or a single bare boolean expression object (e.g. $func).
	if om.Len() >= 1 && looksLikeFieldMap(om) {
		c.Kind = CondFieldMap
		for i, key := range om.Keys {
			fc, err := decodeFieldCond(key, om.Vals[i])
			if err != nil {
				return err
			}
			c.Fields = append(c.Fields, fc)
		}
		return nil
	}

	ex := &Expr{}
	if err := ex.UnmarshalJSON(data); err != nil {
		return err
	}
	c.Kind = CondBoolExpr
	c.BoolExpr = ex
	return nil
}

// looksLikeFieldMap decides whether an object node is a field-operator
// map (keys are field paths) as opposed to a single expression object
// like {$func: {...}}. A field map's keys never start with '$'.
func looksLikeFieldMap(om OrderedMap) bool {
	for _, k := range om.Keys {
		if len(k) > 0 && k[0] == '$' {
			return false
		}
	}
	return true
}

func decodeFieldCond(field string, raw json.RawMessage) (FieldCond, error) {
	fc := FieldCond{Field: field}

	trimmed := trimSpaceBytes(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var om OrderedMap
		if err := om.UnmarshalJSON(raw); err != nil {
			return fc, err
		}
		if hasCompactOp(om) {
			for i, k := range om.Keys {
				if !compactOps[k] {
					return fc, fmt.Errorf("field %q: unknown operator %q", field, k)
				}
				if k == "$in" || k == "$nin" {
					var items []json.RawMessage
					if err := json.Unmarshal(om.Vals[i], &items); err != nil {
						return fc, fmt.Errorf("field %q operator %q: must be an array: %w", field, k, err)
					}
					vals := make([]*Expr, len(items))
					for j, it := range items {
						v := &Expr{}
						if err := v.UnmarshalJSON(it); err != nil {
							return fc, fmt.Errorf("field %q operator %q: %w", field, k, err)
						}
						vals[j] = v
					}
					fc.Ops = append(fc.Ops, OpClause{Op: k, Values: vals})
					continue
				}
				v := &Expr{}
				if err := v.UnmarshalJSON(om.Vals[i]); err != nil {
					return fc, fmt.Errorf("field %q operator %q: %w", field, k, err)
				}
				fc.Ops = append(fc.Ops, OpClause{Op: k, Value: v})
			}
			return fc, nil
		}
	}

	ex := &Expr{}
	if err := ex.UnmarshalJSON(raw); err != nil {
		return fc, err
	}
	fc.Expr = ex
	return fc, nil
}

func hasCompactOp(om OrderedMap) bool {
	for _, k := range om.Keys {
		if compactOps[k] {
			return true
		}
	}
	return false
}
