// Package query holds the wire-shaped query inputs for each of the five
// operations (§6): the JSON documents callers build to describe a
// SELECT, aggregation, INSERT, UPDATE or DELETE before they're parsed
// against a schema.
package query

import (
	"encoding/json"

	"github.com/vellum-sql/sqlqc/internal/ast"
)

// SelectQuery is the input to parseSelectQuery.
type SelectQuery struct {
	RootTable string        `json:"rootTable"`
	Selection *ast.Selection `json:"selection"`
	Condition *ast.Cond      `json:"condition"`
	Limit     *float64       `json:"limit"`
	Offset    *float64       `json:"offset"`
}

// AggregatedField is one entry of an AggregationQuery's aggregatedFields.
type AggregatedField struct {
	Alias               string
	Function            string      `json:"function"`
	Field               string      `json:"field"`
	AdditionalArguments []*ast.Expr `json:"additionalArguments"`
}

// AggregationQuery is the input to parseAggregationQuery.
type AggregationQuery struct {
	Table            string
	GroupBy          []string
	Condition        *ast.Cond
	AggregatedFields []AggregatedField
}

func (q *AggregationQuery) UnmarshalJSON(data []byte) error {
	var om ast.OrderedMap
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}
	for i, key := range om.Keys {
		raw := om.Vals[i]
		switch key {
		case "table":
			if err := json.Unmarshal(raw, &q.Table); err != nil {
				return err
			}
		case "groupBy":
			if err := json.Unmarshal(raw, &q.GroupBy); err != nil {
				return err
			}
		case "condition":
			c := &ast.Cond{}
			if err := c.UnmarshalJSON(raw); err != nil {
				return err
			}
			q.Condition = c
		case "aggregatedFields":
			var fieldsOM ast.OrderedMap
			if err := fieldsOM.UnmarshalJSON(raw); err != nil {
				return err
			}
			for j, alias := range fieldsOM.Keys {
				var af AggregatedField
				if err := json.Unmarshal(fieldsOM.Vals[j], &af); err != nil {
					return err
				}
				af.Alias = alias
				q.AggregatedFields = append(q.AggregatedFields, af)
			}
		}
	}
	return nil
}

// InsertQuery is the input to parseInsertQuery.
type InsertQuery struct {
	Table     string
	NewRow    *ast.OrderedMap
	Condition *ast.Cond
}

func (q *InsertQuery) UnmarshalJSON(data []byte) error {
	var om ast.OrderedMap
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}
	for i, key := range om.Keys {
		raw := om.Vals[i]
		switch key {
		case "table":
			if err := json.Unmarshal(raw, &q.Table); err != nil {
				return err
			}
		case "newRow":
			nr := &ast.OrderedMap{}
			if err := nr.UnmarshalJSON(raw); err != nil {
				return err
			}
			q.NewRow = nr
		case "condition":
			c := &ast.Cond{}
			if err := c.UnmarshalJSON(raw); err != nil {
				return err
			}
			q.Condition = c
		}
	}
	return nil
}

// UpdateQuery is the input to parseUpdateQuery.
type UpdateQuery struct {
	Table     string
	Updates   *ast.OrderedMap
	Condition *ast.Cond
}

func (q *UpdateQuery) UnmarshalJSON(data []byte) error {
	var om ast.OrderedMap
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}
	for i, key := range om.Keys {
		raw := om.Vals[i]
		switch key {
		case "table":
			if err := json.Unmarshal(raw, &q.Table); err != nil {
				return err
			}
		case "updates":
			u := &ast.OrderedMap{}
			if err := u.UnmarshalJSON(raw); err != nil {
				return err
			}
			q.Updates = u
		case "condition":
			c := &ast.Cond{}
			if err := c.UnmarshalJSON(raw); err != nil {
				return err
			}
			q.Condition = c
		}
	}
	return nil
}

// DeleteQuery is the input to parseDeleteQuery.
type DeleteQuery struct {
	Table     string    `json:"table"`
	Condition *ast.Cond `json:"condition"`
}

// DecodeAny unmarshals raw JSON text directly into one of the typed
// query shapes above. raw must be the caller's original JSON bytes, not
// a Go map re-serialized through encoding/json: Go always emits map
// keys in sorted order, which would silently re-alphabetize every
// object-shaped section (selection trees, aggregatedFields, newRow,
// updates) before the order-preserving decoders in internal/ast ever
// saw it.
func DecodeAny(raw json.RawMessage, out interface{}) error {
	return json.Unmarshal(raw, out)
}
