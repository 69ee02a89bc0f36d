// Package gen renders dialect-specific migration SQL from a diff result.
// The output is a reviewable proposal: destructive statements can be
// commented out (safe mode) and state-dependent changes are emitted as TODO
// markers rather than guessed DDL.
package gen

import (
	"strings"

	"github.com/dbdelta/dbdelta/internal/diff"
	"github.com/dbdelta/dbdelta/internal/fault"
	"github.com/dbdelta/dbdelta/internal/model"
)

// Direction selects which side of the diff the script treats as the desired
// end state.
type Direction string

const (
	// AtoB treats schema A as the desired end state.
	AtoB Direction = "AtoB"
	// BtoA treats schema B as the desired end state.
	BtoA Direction = "BtoA"
)

// ParseDirection parses a direction flag value.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case string(AtoB):
		return AtoB, nil
	case string(BtoA):
		return BtoA, nil
	default:
		return "", fault.Config("invalid direction %q (want AtoB or BtoA)", s)
	}
}

// Options control script generation.
type Options struct {
	Direction       Direction
	WithTransaction bool
	SafeMode        bool
	Cascade         bool
	IfExists        bool
}

// ToPostgres renders the migration script for a PostgreSQL target.
func ToPostgres(d *diff.Result, opts Options) (string, error) {
	return generate(d, postgresRenderer{}, opts)
}

// ToMariaDB renders the migration script for a MariaDB target.
func ToMariaDB(d *diff.Result, opts Options) (string, error) {
	return generate(d, mariadbRenderer{}, opts)
}

// renderer is the per-dialect rendering capability. Statements are returned
// without surrounding blank lines; the script writer handles separation and
// safe-mode commenting.
type renderer interface {
	begin() string
	commit() string
	createTable(t *model.Table) string
	dropTable(name string, opts Options) string
	addColumn(table string, c *model.Column) string
	dropColumn(table, column string) string
	alterColumn(table string, cc *diff.ColumnChange, target *model.Column) []string
	createIndex(table string, idx *model.Index) string
	dropIndex(table, name string, opts Options) string
	addCheck(table string, ck *model.Check) string
	dropCheck(table, name string) string
	addForeignKey(table string, fk *model.ForeignKey) string
	dropForeignKey(table, name string) string
	addPrimaryKey(table string, pk *model.PrimaryKey) string
	dropPrimaryKey(table string, pk *model.PrimaryKey) string
	createView(v *model.View) string
	dropView(name string, opts Options) string
	createRoutine(r *model.Routine) string
	dropRoutine(r *model.Routine, opts Options) string
	createTrigger(tr *model.Trigger) string
	dropTrigger(tr *model.Trigger, opts Options) string
}

func generate(d *diff.Result, r renderer, opts Options) (string, error) {
	switch opts.Direction {
	case AtoB, BtoA:
	default:
		return "", fault.Generation("unknown direction %q", opts.Direction)
	}

	s := newScript()

	if opts.WithTransaction {
		s.add(r.begin())
	}

	// Direction inversion: under AtoB the desired end state is A, so
	// diff-added objects (B-only) are dropped and diff-removed objects
	// (A-only) are created. BtoA is the mirror.
	toDrop, toCreate := d.Tables.Added, d.Tables.Removed
	if opts.Direction == BtoA {
		toDrop, toCreate = d.Tables.Removed, d.Tables.Added
	}

	if opts.SafeMode && len(toDrop) > 0 {
		s.add("-- SAFE MODE: destructive statements are commented out; review before applying.")
	}
	for _, t := range toDrop {
		s.addDestructive(r.dropTable(t.Name, opts))
	}
	for _, t := range toCreate {
		s.add(r.createTable(t))
		for _, name := range t.IndexNames() {
			s.add(r.createIndex(t.Name, t.Indexes[name]))
		}
	}

	for _, tc := range d.Tables.Changed {
		generateTableChange(s, r, tc, opts)
	}

	generateViews(s, r, d, opts)
	generateRoutines(s, r, d, opts)
	generateTriggers(s, r, d, opts)

	if opts.WithTransaction {
		s.add(r.commit())
	}

	return s.render(opts.SafeMode), nil
}

func generateTableChange(s *script, r renderer, tc *diff.TableChange, opts Options) {
	dropCols, addCols := tc.ColumnsAdded, tc.ColumnsRemoved
	dropIdx, addIdx := tc.IndexesAdded, tc.IndexesRemoved
	dropChecks, addChecks := tc.ChecksAdded, tc.ChecksRemoved
	dropFKs, addFKs := tc.ForeignKeysAdded, tc.ForeignKeysRemoved
	if opts.Direction == BtoA {
		dropCols, addCols = tc.ColumnsRemoved, tc.ColumnsAdded
		dropIdx, addIdx = tc.IndexesRemoved, tc.IndexesAdded
		dropChecks, addChecks = tc.ChecksRemoved, tc.ChecksAdded
		dropFKs, addFKs = tc.ForeignKeysRemoved, tc.ForeignKeysAdded
	}

	for _, c := range dropCols {
		s.addDestructive(r.dropColumn(tc.Name, c.Name))
	}
	for _, c := range addCols {
		s.add(r.addColumn(tc.Name, c))
	}
	for _, cc := range tc.ColumnsChanged {
		target := cc.From
		if opts.Direction == BtoA {
			target = cc.To
		}
		for _, stmt := range r.alterColumn(tc.Name, cc, target) {
			s.add(stmt)
		}
	}

	for _, idx := range dropIdx {
		s.addDestructive(r.dropIndex(tc.Name, idx.Name, opts))
	}
	for _, ic := range tc.IndexesChanged {
		s.addDestructive(r.dropIndex(tc.Name, ic.Name, opts))
	}
	for _, idx := range addIdx {
		s.add(r.createIndex(tc.Name, idx))
	}
	for _, ic := range tc.IndexesChanged {
		target := ic.From
		if opts.Direction == BtoA {
			target = ic.To
		}
		s.add(r.createIndex(tc.Name, target))
	}

	for _, ck := range dropChecks {
		s.addDestructive(r.dropCheck(tc.Name, ck.Name))
	}
	for _, cc := range tc.ChecksChanged {
		s.addDestructive(r.dropCheck(tc.Name, cc.Name))
	}
	for _, ck := range addChecks {
		s.add(r.addCheck(tc.Name, ck))
	}
	for _, cc := range tc.ChecksChanged {
		target := cc.From
		if opts.Direction == BtoA {
			target = cc.To
		}
		s.add(r.addCheck(tc.Name, target))
	}

	for _, fk := range dropFKs {
		s.addDestructive(r.dropForeignKey(tc.Name, fk.Name))
	}
	for _, fc := range tc.ForeignKeysChanged {
		s.addDestructive(r.dropForeignKey(tc.Name, fc.Name))
	}
	for _, fk := range addFKs {
		s.add(r.addForeignKey(tc.Name, fk))
	}
	for _, fc := range tc.ForeignKeysChanged {
		target := fc.From
		if opts.Direction == BtoA {
			target = fc.To
		}
		s.add(r.addForeignKey(tc.Name, target))
	}

	if pkc := tc.PrimaryKey; pkc != nil {
		old, target := pkc.To, pkc.From
		if opts.Direction == BtoA {
			old, target = pkc.From, pkc.To
		}
		if old != nil {
			s.addDestructive(r.dropPrimaryKey(tc.Name, old))
		}
		if target != nil {
			s.add(r.addPrimaryKey(tc.Name, target))
		}
	}
}

func generateViews(s *script, r renderer, d *diff.Result, opts Options) {
	toDrop, toCreate := d.Views.Added, d.Views.Removed
	if opts.Direction == BtoA {
		toDrop, toCreate = d.Views.Removed, d.Views.Added
	}
	for _, v := range toDrop {
		s.addDestructive(r.dropView(v.Name, opts))
	}
	for _, v := range toCreate {
		s.add(r.createView(v))
	}
	for _, vc := range d.Views.Changed {
		s.add("-- TODO: view " + vc.Name + " definition changed; drop and recreate manually.")
	}
}

func generateRoutines(s *script, r renderer, d *diff.Result, opts Options) {
	toDrop, toCreate := d.Routines.Added, d.Routines.Removed
	if opts.Direction == BtoA {
		toDrop, toCreate = d.Routines.Removed, d.Routines.Added
	}
	for _, rt := range toDrop {
		s.addDestructive(r.dropRoutine(rt, opts))
	}
	for _, rt := range toCreate {
		s.add(r.createRoutine(rt))
	}
	for _, rc := range d.Routines.Changed {
		name := rc.From.Name
		s.add("-- TODO: routine " + name + " definition changed; drop and recreate manually.")
	}
}

func generateTriggers(s *script, r renderer, d *diff.Result, opts Options) {
	toDrop, toCreate := d.Triggers.Added, d.Triggers.Removed
	if opts.Direction == BtoA {
		toDrop, toCreate = d.Triggers.Removed, d.Triggers.Added
	}
	for _, tr := range toDrop {
		s.addDestructive(r.dropTrigger(tr, opts))
	}
	for _, tr := range toCreate {
		s.add(r.createTrigger(tr))
	}
	for _, tc := range d.Triggers.Changed {
		s.add("-- TODO: trigger " + tc.Key + " definition changed; drop and recreate manually.")
	}
}

// completeStatement reports whether a stored definition is a full CREATE
// statement that can be replayed as-is.
func completeStatement(body string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(body)), "CREATE")
}

// terminate ensures a replayed definition ends with a semicolon.
func terminate(body string) string {
	body = strings.TrimRight(strings.TrimSpace(body), "\n")
	if !strings.HasSuffix(body, ";") {
		body += ";"
	}
	return body
}
