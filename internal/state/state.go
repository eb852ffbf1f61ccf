// Package state holds the per-invocation parser state record described
// in §3's Lifecycle and §9's "Join processing" state machine: the
// config snapshot, accumulated joins, the processed-tables set, the
// current root table and the expression-type memo. One State is
// allocated per parseXQuery call and discarded after compile, grounded
// on the teacher's compilerContext/aexpst pattern in
// core/internal/psql/query.go and core/internal/qcode/exp.go.
package state

import (
	"go.uber.org/zap"

	"github.com/vellum-sql/sqlqc/internal/ast"
	"github.com/vellum-sql/sqlqc/internal/dialect"
	"github.com/vellum-sql/sqlqc/internal/errs"
	"github.com/vellum-sql/sqlqc/internal/schema"
)

// Join is one LEFT JOIN accumulated while walking a selection or
// aggregation tree, keyed by the child table name so a second
// reference to the same table is idempotent (§4.9).
type Join struct {
	ParentTable string
	ParentField string
	ChildTable  string
	ChildField  string
}

// State is the per-invocation parser state.
type State struct {
	Config  *schema.Config
	Dialect dialect.Dialect

	RootTable string

	Joins      []Join
	joinSeen   map[string]bool
	typeMemo   map[string]ast.ExprType

	// IsUpdate and NewRowUpdates are set while compiling an UPDATE's
	// condition so NEW_ROW.<f> references can resolve (§4.7/I6).
	IsUpdate      bool
	NewRowUpdates map[string]*ast.Expr

	Log *zap.Logger
}

// New allocates a fresh parser state for one compile call.
func New(cfg *schema.Config, rootTable string, log *zap.Logger) (*State, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d, err := dialect.Resolve(cfg.Dialect)
	if err != nil {
		return nil, errs.Wrap(errs.Config, err, "invalid dialect")
	}
	if _, ok := cfg.Tables[rootTable]; !ok {
		return nil, errs.New(errs.Schema, "Table '%s' is not allowed or does not exist", rootTable)
	}
	return &State{
		Config:    cfg,
		Dialect:   d,
		RootTable: rootTable,
		joinSeen:  map[string]bool{},
		typeMemo:  map[string]ast.ExprType{},
		Log:       log,
	}, nil
}

// Table looks up an allowed table by name.
func (s *State) Table(name string) (schema.Table, bool) {
	t, ok := s.Config.Tables[name]
	return t, ok
}

// MemoType records the inferred type of an expression node, keyed by
// its canonical serialization (§4.3). A second write under a different
// key is a distinct entry; re-memoizing the same key is allowed (the
// same subtree may be evaluated more than once structurally).
func (s *State) MemoType(key string, t ast.ExprType) {
	s.typeMemo[key] = t
}

// LookupType reads a previously memoized expression type. Reading an
// unrecorded key is a programmer error per §4.3.
func (s *State) LookupType(key string) (ast.ExprType, bool) {
	t, ok := s.typeMemo[key]
	return t, ok
}

// FindRelationship looks for a configured relationship between parent
// and child in either direction and returns the field that belongs to
// each side of the join condition `parent.parentField = child.childField`.
func (s *State) FindRelationship(parent, child string) (parentField, childField string, ok bool) {
	for _, rel := range s.Config.Relationships {
		if rel.Table == parent && rel.ToTable == child {
			return rel.Field, rel.ToField, true
		}
		if rel.Table == child && rel.ToTable == parent {
			return rel.ToField, rel.Field, true
		}
	}
	return "", "", false
}

// AddJoin records a LEFT JOIN from parent to child, looking up the
// relationship and the returning a no-op if the child table was already
// joined (idempotent per the Join-processing state machine, §4.9). The
// returned bool reports whether a new join was appended.
func (s *State) AddJoin(parent, child string) (bool, error) {
	if s.joinSeen[child] {
		return false, nil
	}
	pf, cf, ok := s.FindRelationship(parent, child)
	if !ok {
		return false, errs.New(errs.Relationship, "No relationship found between '%s' and '%s'", parent, child)
	}
	s.Joins = append(s.Joins, Join{ParentTable: parent, ParentField: pf, ChildTable: child, ChildField: cf})
	s.joinSeen[child] = true
	return true, nil
}

// DataTable returns the active data-table config, if any.
func (s *State) DataTable() *schema.DataTable { return s.Config.DataTable }
