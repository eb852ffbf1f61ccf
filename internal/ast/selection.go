package ast

import (
	"fmt"
)

// exprTags are the single-key object tags that mark an expression node
// rather than a nested selection map (§4.6's selection-tree grammar).
var exprTags = map[string]bool{
	"$field": true, "$var": true, "$func": true, "$cond": true,
	"$date": true, "$timestamp": true, "$uuid": true, "$jsonb": true,
}

// SelectionEntry is one key of a selection tree: a bare inclusion, an
// aliased expression, or a nested relationship projection.
type SelectionEntry struct {
	Key    string
	Include bool
	Expr   *Expr
	Nested *Selection
}

// Selection is the ordered selection tree from §4.6.
type Selection struct {
	Entries []SelectionEntry
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var om OrderedMap
	if err := om.UnmarshalJSON(data); err != nil {
		return err
	}
	for i, key := range om.Keys {
		raw := om.Vals[i]
		entry := SelectionEntry{Key: key}

		trimmed := trimSpaceBytes(raw)
		switch {
		case len(trimmed) > 0 && trimmed[0] == 't': // bare `true`
			entry.Include = true

		case len(trimmed) > 0 && trimmed[0] == '{':
			var inner OrderedMap
			if err := inner.UnmarshalJSON(raw); err != nil {
				return fmt.Errorf("selection %q: %w", key, err)
			}
			if inner.Len() == 1 && exprTags[inner.Keys[0]] {
				ex := &Expr{}
				if err := ex.UnmarshalJSON(raw); err != nil {
					return fmt.Errorf("selection %q: %w", key, err)
				}
				entry.Expr = ex
			} else {
				nested := &Selection{}
				if err := nested.UnmarshalJSON(raw); err != nil {
					return fmt.Errorf("selection %q: %w", key, err)
				}
				entry.Nested = nested
			}

		default:
			return fmt.Errorf("selection %q: invalid selection value", key)
		}

		s.Entries = append(s.Entries, entry)
	}
	return nil
}
