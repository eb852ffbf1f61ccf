package ast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedMap decodes a JSON object while preserving the source key order.
// The compiler relies on this for deterministic SQL text: selection trees,
// field-operator maps and INSERT row bodies all need to reproduce the
// caller's key order in the emitted SQL (round-trip determinism, §8).
type OrderedMap struct {
	Keys []string
	Vals []json.RawMessage
}

func (om *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string object key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		om.Keys = append(om.Keys, key)
		om.Vals = append(om.Vals, raw)
	}

	if _, err := dec.Token(); err != nil { // closing '}'
		return err
	}
	return nil
}

func (om *OrderedMap) Get(key string) (json.RawMessage, bool) {
	for i, k := range om.Keys {
		if k == key {
			return om.Vals[i], true
		}
	}
	return nil, false
}

func (om *OrderedMap) Len() int { return len(om.Keys) }
