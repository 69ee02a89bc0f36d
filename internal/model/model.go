// Package model defines the dialect-neutral schema representation produced by
// the catalog loaders and consumed by the differ and the DDL generators.
package model

import (
	"sort"
	"strings"
)

// GenerationKind describes how a column value is generated by the database.
type GenerationKind string

const (
	GenerationNone          GenerationKind = "none"
	GenerationIdentity      GenerationKind = "identity"
	GenerationSequence      GenerationKind = "sequence"
	GenerationAutoIncrement GenerationKind = "auto_increment"
)

// RoutineKind distinguishes functions from procedures. A function and a
// procedure of the same name are distinct objects.
type RoutineKind string

const (
	RoutineFunction  RoutineKind = "function"
	RoutineProcedure RoutineKind = "procedure"
)

// TriggerTiming is when a trigger fires relative to its statement.
type TriggerTiming string

const (
	TriggerBefore TriggerTiming = "before"
	TriggerAfter  TriggerTiming = "after"
)

// Trigger events, in canonical emission order.
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// Schema is the in-memory model of one database schema. Collections are
// keyed by object name (or composite key, see Routine.Key and Trigger.Key);
// iteration order is never semantic, deterministic output comes from the
// sorted accessors.
type Schema struct {
	Name     string              `json:"name"`
	Tables   map[string]*Table   `json:"tables"`
	Views    map[string]*View    `json:"views"`
	Routines map[string]*Routine `json:"routines"` // keyed by Routine.Key()
	Triggers map[string]*Trigger `json:"triggers"` // keyed by Trigger.Key()
}

// NewSchema creates an empty schema model.
func NewSchema(name string) *Schema {
	return &Schema{
		Name:     name,
		Tables:   make(map[string]*Table),
		Views:    make(map[string]*View),
		Routines: make(map[string]*Routine),
		Triggers: make(map[string]*Trigger),
	}
}

// Table represents a base table with its columns and table-level objects.
type Table struct {
	Name        string                 `json:"name"`
	Columns     []*Column              `json:"columns"` // catalog ordinal order
	PrimaryKey  *PrimaryKey            `json:"primary_key,omitempty"`
	Indexes     map[string]*Index      `json:"indexes"`
	Checks      map[string]*Check      `json:"checks"`
	ForeignKeys map[string]*ForeignKey `json:"foreign_keys"`
}

// NewTable creates an empty table.
func NewTable(name string) *Table {
	return &Table{
		Name:        name,
		Indexes:     make(map[string]*Index),
		Checks:      make(map[string]*Check),
		ForeignKeys: make(map[string]*ForeignKey),
	}
}

// Column returns the named column, or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Column represents a table column.
type Column struct {
	Name      string         `json:"name"`
	DataType  string         `json:"data_type"`
	Length    *int           `json:"length,omitempty"`
	Precision *int           `json:"precision,omitempty"`
	Scale     *int           `json:"scale,omitempty"`
	Nullable  bool           `json:"nullable"`
	Default   *string        `json:"default,omitempty"`
	Generated GenerationKind `json:"generated"`
	Collation string         `json:"collation,omitempty"`
}

// PrimaryKey represents a table's primary key.
type PrimaryKey struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"` // constraint ordinal order
}

// Index represents a secondary index. The primary-key index is not modeled
// here; it lives on Table.PrimaryKey.
type Index struct {
	Name    string   `json:"name"`
	Unique  bool     `json:"unique"`
	Columns []string `json:"columns"` // index ordinal order
	Using   string   `json:"using,omitempty"`
}

// Check represents a check constraint.
type Check struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

// ForeignKey represents a foreign-key constraint.
type ForeignKey struct {
	Name       string   `json:"name"`
	Columns    []string `json:"columns"`
	RefTable   string   `json:"ref_table"`
	RefColumns []string `json:"ref_columns"`
	OnUpdate   string   `json:"on_update,omitempty"`
	OnDelete   string   `json:"on_delete,omitempty"`
}

// View represents a view and its raw definition.
type View struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

// Routine represents a stored function or procedure.
type Routine struct {
	Kind     RoutineKind `json:"kind"`
	Name     string      `json:"name"`
	Language string      `json:"language,omitempty"`
	Body     string      `json:"body"`
}

// Key returns the composite map key for a routine.
func (r *Routine) Key() string {
	return string(r.Kind) + ":" + r.Name
}

// Trigger represents a table trigger.
type Trigger struct {
	Table  string        `json:"table"`
	Name   string        `json:"name"`
	Timing TriggerTiming `json:"timing"`
	Events []string      `json:"events"`
	Body   string        `json:"body"`
}

// Key returns the composite map key for a trigger.
func (tr *Trigger) Key() string {
	return tr.Table + "." + tr.Name
}

// SortedKeys returns the keys of m in sorted order.
func SortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SortedKeysFold returns the keys of m sorted by their lowercased form.
func SortedKeysFold[T any](m map[string]T) []string {
	keys := SortedKeys(m)
	sort.SliceStable(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})
	return keys
}

// TableNames returns table names sorted by lowercased name.
func (s *Schema) TableNames() []string { return SortedKeysFold(s.Tables) }

// ViewNames returns view names sorted by lowercased name.
func (s *Schema) ViewNames() []string { return SortedKeysFold(s.Views) }

// RoutineKeys returns routine keys sorted by lowercased key.
func (s *Schema) RoutineKeys() []string { return SortedKeysFold(s.Routines) }

// TriggerKeys returns trigger keys sorted by lowercased key.
func (s *Schema) TriggerKeys() []string { return SortedKeysFold(s.Triggers) }

// IndexNames returns index names sorted by lowercased name.
func (t *Table) IndexNames() []string { return SortedKeysFold(t.Indexes) }

// CheckNames returns check names sorted by lowercased name.
func (t *Table) CheckNames() []string { return SortedKeysFold(t.Checks) }

// ForeignKeyNames returns foreign-key names sorted by lowercased name.
func (t *Table) ForeignKeyNames() []string { return SortedKeysFold(t.ForeignKeys) }
