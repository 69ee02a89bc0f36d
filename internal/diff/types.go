package diff

import (
	"github.com/dbdelta/dbdelta/internal/model"
)

// Result describes how schema A differs from schema B. In every bucket,
// Added means "present in B, absent in A", Removed means the converse, and
// Changed means present in both under the same key with at least one
// observable attribute differing. All lists are sorted by key and hold deep
// copies, so a Result stays valid after its source models are discarded.
type Result struct {
	Tables   TableBucket   `json:"tables"`
	Views    ViewBucket    `json:"views"`
	Routines RoutineBucket `json:"routines"`
	Triggers TriggerBucket `json:"triggers"`
}

// TableBucket holds table-level differences.
type TableBucket struct {
	Added   []*model.Table `json:"added"`
	Removed []*model.Table `json:"removed"`
	Changed []*TableChange `json:"changed"`
}

// ViewBucket holds view-level differences.
type ViewBucket struct {
	Added   []*model.View `json:"added"`
	Removed []*model.View `json:"removed"`
	Changed []*ViewChange `json:"changed"`
}

// RoutineBucket holds routine-level differences, keyed by (kind, name).
type RoutineBucket struct {
	Added   []*model.Routine `json:"added"`
	Removed []*model.Routine `json:"removed"`
	Changed []*RoutineChange `json:"changed"`
}

// TriggerBucket holds trigger-level differences, keyed by (table, name).
type TriggerBucket struct {
	Added   []*model.Trigger `json:"added"`
	Removed []*model.Trigger `json:"removed"`
	Changed []*TriggerChange `json:"changed"`
}

// TableChange decomposes the differences of one table present on both sides.
type TableChange struct {
	Name string `json:"name"`

	ColumnsAdded   []*model.Column `json:"columns_added,omitempty"`
	ColumnsRemoved []*model.Column `json:"columns_removed,omitempty"`
	ColumnsChanged []*ColumnChange `json:"columns_changed,omitempty"`

	IndexesAdded   []*model.Index `json:"indexes_added,omitempty"`
	IndexesRemoved []*model.Index `json:"indexes_removed,omitempty"`
	IndexesChanged []*IndexChange `json:"indexes_changed,omitempty"`

	ChecksAdded   []*model.Check `json:"checks_added,omitempty"`
	ChecksRemoved []*model.Check `json:"checks_removed,omitempty"`
	ChecksChanged []*CheckChange `json:"checks_changed,omitempty"`

	ForeignKeysAdded   []*model.ForeignKey `json:"foreign_keys_added,omitempty"`
	ForeignKeysRemoved []*model.ForeignKey `json:"foreign_keys_removed,omitempty"`
	ForeignKeysChanged []*ForeignKeyChange `json:"foreign_keys_changed,omitempty"`

	PrimaryKey *PrimaryKeyChange `json:"primary_key,omitempty"`
}

func (tc *TableChange) empty() bool {
	return len(tc.ColumnsAdded) == 0 && len(tc.ColumnsRemoved) == 0 && len(tc.ColumnsChanged) == 0 &&
		len(tc.IndexesAdded) == 0 && len(tc.IndexesRemoved) == 0 && len(tc.IndexesChanged) == 0 &&
		len(tc.ChecksAdded) == 0 && len(tc.ChecksRemoved) == 0 && len(tc.ChecksChanged) == 0 &&
		len(tc.ForeignKeysAdded) == 0 && len(tc.ForeignKeysRemoved) == 0 && len(tc.ForeignKeysChanged) == 0 &&
		tc.PrimaryKey == nil
}

// ColumnChange records a column present on both sides with differing
// attributes. Each flag marks one attribute so the generator can emit one
// ALTER clause per attribute.
type ColumnChange struct {
	Name string        `json:"name"`
	From *model.Column `json:"from"` // A side
	To   *model.Column `json:"to"`   // B side

	TypeChanged      bool `json:"type_changed,omitempty"`
	LengthChanged    bool `json:"length_changed,omitempty"`
	PrecisionChanged bool `json:"precision_changed,omitempty"`
	NullableChanged  bool `json:"nullable_changed,omitempty"`
	DefaultChanged   bool `json:"default_changed,omitempty"`
	GeneratedChanged bool `json:"generated_changed,omitempty"`
	CollationChanged bool `json:"collation_changed,omitempty"`
}

func (cc *ColumnChange) any() bool {
	return cc.TypeChanged || cc.LengthChanged || cc.PrecisionChanged ||
		cc.NullableChanged || cc.DefaultChanged || cc.GeneratedChanged || cc.CollationChanged
}

// IndexChange records an index whose definition differs between sides.
type IndexChange struct {
	Name string       `json:"name"`
	From *model.Index `json:"from"`
	To   *model.Index `json:"to"`
}

// CheckChange records a check constraint whose expression differs.
type CheckChange struct {
	Name string       `json:"name"`
	From *model.Check `json:"from"`
	To   *model.Check `json:"to"`
}

// ForeignKeyChange records a foreign key whose definition differs.
type ForeignKeyChange struct {
	Name string            `json:"name"`
	From *model.ForeignKey `json:"from"`
	To   *model.ForeignKey `json:"to"`
}

// PrimaryKeyChange records a primary key differing between sides. Either
// side may be nil when the key exists on one side only.
type PrimaryKeyChange struct {
	From *model.PrimaryKey `json:"from,omitempty"`
	To   *model.PrimaryKey `json:"to,omitempty"`
}

// ViewChange records a view whose definition differs.
type ViewChange struct {
	Name string      `json:"name"`
	From *model.View `json:"from"`
	To   *model.View `json:"to"`
}

// RoutineChange records a routine whose body or language differs.
type RoutineChange struct {
	Key  string         `json:"key"`
	From *model.Routine `json:"from"`
	To   *model.Routine `json:"to"`
}

// TriggerChange records a trigger whose definition differs.
type TriggerChange struct {
	Key  string         `json:"key"`
	From *model.Trigger `json:"from"`
	To   *model.Trigger `json:"to"`
}

// BucketCounts are per-bucket change counts.
type BucketCounts struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
	Changed int `json:"changed"`
}

// Summary is a compact per-bucket count view of a Result.
type Summary struct {
	Tables   BucketCounts `json:"tables"`
	Views    BucketCounts `json:"views"`
	Routines BucketCounts `json:"routines"`
	Triggers BucketCounts `json:"triggers"`
}

// Summary returns per-bucket counts.
func (r *Result) Summary() Summary {
	return Summary{
		Tables:   BucketCounts{len(r.Tables.Added), len(r.Tables.Removed), len(r.Tables.Changed)},
		Views:    BucketCounts{len(r.Views.Added), len(r.Views.Removed), len(r.Views.Changed)},
		Routines: BucketCounts{len(r.Routines.Added), len(r.Routines.Removed), len(r.Routines.Changed)},
		Triggers: BucketCounts{len(r.Triggers.Added), len(r.Triggers.Removed), len(r.Triggers.Changed)},
	}
}

// Empty reports whether the result carries no differences at all.
func (r *Result) Empty() bool {
	s := r.Summary()
	for _, b := range []BucketCounts{s.Tables, s.Views, s.Routines, s.Triggers} {
		if b.Added != 0 || b.Removed != 0 || b.Changed != 0 {
			return false
		}
	}
	return true
}
