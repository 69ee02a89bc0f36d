package diff

import (
	"sort"
	"strings"

	"github.com/dbdelta/dbdelta/internal/model"
)

// diffTable compares one table present on both sides. Returns nil when the
// two are observably identical.
func diffTable(a, b *model.Table) *TableChange {
	tc := &TableChange{Name: b.Name}

	diffColumns(a, b, tc)
	diffIndexes(a, b, tc)
	diffChecks(a, b, tc)
	diffForeignKeys(a, b, tc)

	if !primaryKeysEqual(a.PrimaryKey, b.PrimaryKey) {
		pkc := &PrimaryKeyChange{}
		if a.PrimaryKey != nil {
			pkc.From = a.PrimaryKey.Clone()
		}
		if b.PrimaryKey != nil {
			pkc.To = b.PrimaryKey.Clone()
		}
		tc.PrimaryKey = pkc
	}

	if tc.empty() {
		return nil
	}
	return tc
}

func diffColumns(a, b *model.Table, tc *TableChange) {
	for _, cb := range sortedColumns(b) {
		ca := a.Column(cb.Name)
		if ca == nil {
			tc.ColumnsAdded = append(tc.ColumnsAdded, cb.Clone())
			continue
		}
		if cc := compareColumns(ca, cb); cc != nil {
			tc.ColumnsChanged = append(tc.ColumnsChanged, cc)
		}
	}
	for _, ca := range sortedColumns(a) {
		if b.Column(ca.Name) == nil {
			tc.ColumnsRemoved = append(tc.ColumnsRemoved, ca.Clone())
		}
	}
}

// compareColumns reports each differing attribute individually, or nil when
// the two columns are equal.
func compareColumns(a, b *model.Column) *ColumnChange {
	cc := &ColumnChange{Name: b.Name, From: a.Clone(), To: b.Clone()}

	cc.TypeChanged = a.DataType != b.DataType
	cc.LengthChanged = !intPtrEqual(a.Length, b.Length)
	cc.PrecisionChanged = !intPtrEqual(a.Precision, b.Precision) || !intPtrEqual(a.Scale, b.Scale)
	cc.NullableChanged = a.Nullable != b.Nullable
	cc.DefaultChanged = !defaultsEqual(a.Default, b.Default)
	cc.GeneratedChanged = a.Generated != b.Generated
	cc.CollationChanged = !strings.EqualFold(a.Collation, b.Collation)

	if !cc.any() {
		return nil
	}
	return cc
}

// defaultsEqual treats a missing default and an explicit SQL NULL default as
// equal.
func defaultsEqual(a, b *string) bool {
	aNull := a == nil || strings.EqualFold(strings.TrimSpace(*a), "null")
	bNull := b == nil || strings.EqualFold(strings.TrimSpace(*b), "null")
	if aNull || bNull {
		return aNull == bNull
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func diffIndexes(a, b *model.Table, tc *TableChange) {
	for _, name := range b.IndexNames() {
		ib := b.Indexes[name]
		ia, ok := a.Indexes[name]
		if !ok {
			tc.IndexesAdded = append(tc.IndexesAdded, ib.Clone())
			continue
		}
		if !indexesEqual(ia, ib) {
			tc.IndexesChanged = append(tc.IndexesChanged, &IndexChange{
				Name: name,
				From: ia.Clone(),
				To:   ib.Clone(),
			})
		}
	}
	for _, name := range a.IndexNames() {
		if _, ok := b.Indexes[name]; !ok {
			tc.IndexesRemoved = append(tc.IndexesRemoved, a.Indexes[name].Clone())
		}
	}
}

// indexesEqual compares the unique flag, the access method
// (case-insensitively, absent equals absent) and the column lists as sorted
// sets of lowercased names. Column order is intentionally not significant.
func indexesEqual(a, b *model.Index) bool {
	if a.Unique != b.Unique {
		return false
	}
	if !strings.EqualFold(a.Using, b.Using) {
		return false
	}
	return columnSetsEqual(a.Columns, b.Columns)
}

func diffChecks(a, b *model.Table, tc *TableChange) {
	for _, name := range b.CheckNames() {
		cb := b.Checks[name]
		ca, ok := a.Checks[name]
		if !ok {
			tc.ChecksAdded = append(tc.ChecksAdded, cb.Clone())
			continue
		}
		if model.CollapseWhitespace(ca.Expression) != model.CollapseWhitespace(cb.Expression) {
			tc.ChecksChanged = append(tc.ChecksChanged, &CheckChange{
				Name: name,
				From: ca.Clone(),
				To:   cb.Clone(),
			})
		}
	}
	for _, name := range a.CheckNames() {
		if _, ok := b.Checks[name]; !ok {
			tc.ChecksRemoved = append(tc.ChecksRemoved, a.Checks[name].Clone())
		}
	}
}

func diffForeignKeys(a, b *model.Table, tc *TableChange) {
	for _, name := range b.ForeignKeyNames() {
		fb := b.ForeignKeys[name]
		fa, ok := a.ForeignKeys[name]
		if !ok {
			tc.ForeignKeysAdded = append(tc.ForeignKeysAdded, fb.Clone())
			continue
		}
		if !foreignKeysEqual(fa, fb) {
			tc.ForeignKeysChanged = append(tc.ForeignKeysChanged, &ForeignKeyChange{
				Name: name,
				From: fa.Clone(),
				To:   fb.Clone(),
			})
		}
	}
	for _, name := range a.ForeignKeyNames() {
		if _, ok := b.ForeignKeys[name]; !ok {
			tc.ForeignKeysRemoved = append(tc.ForeignKeysRemoved, a.ForeignKeys[name].Clone())
		}
	}
}

func foreignKeysEqual(a, b *model.ForeignKey) bool {
	if !strings.EqualFold(a.RefTable, b.RefTable) {
		return false
	}
	if !columnSetsEqual(a.Columns, b.Columns) || !columnSetsEqual(a.RefColumns, b.RefColumns) {
		return false
	}
	return actionsEqual(a.OnUpdate, b.OnUpdate) && actionsEqual(a.OnDelete, b.OnDelete)
}

// actionsEqual compares referential actions case-insensitively; an absent
// action equals an absent action.
func actionsEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// primaryKeysEqual compares by sorted column lists; constraint names are not
// significant.
func primaryKeysEqual(a, b *model.PrimaryKey) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return columnSetsEqual(a.Columns, b.Columns)
}

func sortedColumns(t *model.Table) []*model.Column {
	out := make([]*model.Column, len(t.Columns))
	copy(out, t.Columns)
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
