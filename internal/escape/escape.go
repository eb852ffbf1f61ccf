// Package escape is the compiler's sole trust boundary between
// untrusted scalar values and generated SQL text (§4.1). Every literal
// that reaches the output SQL passes through one of these functions.
package escape

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/vellum-sql/sqlqc/internal/dialect"
	"github.com/vellum-sql/sqlqc/internal/errs"
)

// String converts a Go string to a single-quoted SQL literal, doubling
// every internal single quote. No other character is escaped: the
// dialects accept backslashes and control bytes verbatim inside a
// standard string literal.
func String(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Number converts a float64 to its decimal SQL literal form. Integers
// without a fractional part are rendered without a trailing ".0".
func Number(n float64) (string, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "", errs.New(errs.Domain, "Invalid numeric value")
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10), nil
	}
	return strconv.FormatFloat(n, 'g', -1, 64), nil
}

// Bool renders TRUE/FALSE, identical in both dialect families.
func Bool(b bool, d dialect.Dialect) string {
	return d.BoolLiteral(b)
}

// Null renders the SQL NULL literal.
func Null() string { return "NULL" }

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date validates and renders a $date scalar.
func Date(s string, d dialect.Dialect) (string, error) {
	if !dateRe.MatchString(s) {
		return "", errs.New(errs.Domain, "Invalid date format")
	}
	return "'" + s + "'" + d.DateLiteralSuffix(), nil
}

var timestampRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(\.\d+)?$`)

// Timestamp validates and renders a $timestamp scalar, normalizing the
// ISO "T" separator to a space.
func Timestamp(s string, d dialect.Dialect) (string, error) {
	if !timestampRe.MatchString(s) {
		return "", errs.New(errs.Domain, "Invalid timestamp format")
	}
	normalized := strings.Replace(s, "T", " ", 1)
	return "'" + normalized + "'" + d.TimestampLiteralSuffix(), nil
}

// UUID validates and renders a $uuid scalar, canonicalizing it via
// google/uuid (rather than a hand-rolled regex) the way the UUID
// validation in the wider example corpus does.
func UUID(s string, d dialect.Dialect) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil || len(s) != 36 {
		return "", errs.New(errs.Domain, "Invalid UUID format")
	}
	return "'" + id.String() + "'" + d.UUIDLiteralSuffix(), nil
}

// JSONB serializes an already-built JSON value, then escapes it as a
// quoted string literal per §4.1 (the object never gets a native JSONB
// constructor call — it travels as text with a cast).
func JSONB(v map[string]json.RawMessage, keys []string, d dialect.Dialect) (string, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return "", errs.Wrap(errs.Domain, err, "Invalid jsonb value")
		}
		b.Write(kb)
		b.WriteByte(':')
		b.Write(v[k])
	}
	b.WriteByte('}')
	return String(b.String()) + d.JSONBLiteralSuffix(), nil
}

// Identifier double-quotes a column/table name verbatim; field names
// are already constrained to ^[a-z][A-Za-z0-9_]*$ by the schema
// validator, so no rewriting beyond quoting is needed.
func Identifier(name string, d dialect.Dialect) string {
	return d.QuoteIdentifier(name)
}
