package gen

import (
	"fmt"
	"strings"

	"github.com/dbdelta/dbdelta/internal/diff"
	"github.com/dbdelta/dbdelta/internal/model"
	"github.com/lib/pq"
)

// postgresRenderer renders PostgreSQL DDL. Identifiers are double-quoted
// with internal quotes doubled (pq.QuoteIdentifier).
type postgresRenderer struct{}

func (postgresRenderer) begin() string  { return "BEGIN;" }
func (postgresRenderer) commit() string { return "COMMIT;" }

func pgQuote(name string) string {
	return pq.QuoteIdentifier(name)
}

func pgQuoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = pgQuote(n)
	}
	return out
}

// renderType renders the column type token with length or precision/scale.
func renderType(c *model.Column) string {
	switch {
	case c.Length != nil:
		return fmt.Sprintf("%s(%d)", c.DataType, *c.Length)
	case c.Precision != nil && c.Scale != nil:
		return fmt.Sprintf("%s(%d,%d)", c.DataType, *c.Precision, *c.Scale)
	case c.Precision != nil:
		return fmt.Sprintf("%s(%d)", c.DataType, *c.Precision)
	default:
		return c.DataType
	}
}

func (postgresRenderer) columnDef(c *model.Column) string {
	var b strings.Builder
	b.WriteString(pgQuote(c.Name))
	b.WriteString(" ")
	b.WriteString(renderType(c))
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(*c.Default)
	}
	if c.Collation != "" {
		b.WriteString(" COLLATE ")
		b.WriteString(pgQuote(c.Collation))
	}
	return b.String()
}

func (r postgresRenderer) createTable(t *model.Table) string {
	var defs []string
	var todos []string
	for _, c := range t.Columns {
		defs = append(defs, "  "+r.columnDef(c))
		if c.Generated == model.GenerationIdentity || c.Generated == model.GenerationSequence {
			todos = append(todos, fmt.Sprintf("-- TODO: ensure generation strategy is preserved for %s", pgQuote(c.Name)))
		}
	}
	if pk := t.PrimaryKey; pk != nil {
		defs = append(defs, "  PRIMARY KEY ("+strings.Join(pgQuoteAll(pk.Columns), ", ")+")")
	}
	for _, name := range t.CheckNames() {
		ck := t.Checks[name]
		defs = append(defs, fmt.Sprintf("  CONSTRAINT %s CHECK (%s)", pgQuote(ck.Name), ck.Expression))
	}
	for _, name := range t.ForeignKeyNames() {
		defs = append(defs, "  "+r.foreignKeyDef(t.ForeignKeys[name]))
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (\n%s\n);", pgQuote(t.Name), strings.Join(defs, ",\n"))
	if len(todos) > 0 {
		stmt += "\n" + strings.Join(todos, "\n")
	}
	return stmt
}

func (postgresRenderer) foreignKeyDef(fk *model.ForeignKey) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		pgQuote(fk.Name),
		strings.Join(pgQuoteAll(fk.Columns), ", "),
		pgQuote(fk.RefTable),
		strings.Join(pgQuoteAll(fk.RefColumns), ", "))
	if fk.OnUpdate != "" {
		b.WriteString(" ON UPDATE " + fk.OnUpdate)
	}
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE " + fk.OnDelete)
	}
	return b.String()
}

func (postgresRenderer) dropTable(name string, opts Options) string {
	var b strings.Builder
	b.WriteString("DROP TABLE ")
	if opts.IfExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(pgQuote(name))
	if opts.Cascade {
		b.WriteString(" CASCADE")
	}
	b.WriteString(";")
	return b.String()
}

func (r postgresRenderer) addColumn(table string, c *model.Column) string {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", pgQuote(table), r.columnDef(c))
	if c.Generated == model.GenerationIdentity || c.Generated == model.GenerationSequence {
		stmt += fmt.Sprintf("\n-- TODO: ensure generation strategy is preserved for %s", pgQuote(c.Name))
	}
	return stmt
}

func (postgresRenderer) dropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", pgQuote(table), pgQuote(column))
}

func (postgresRenderer) alterColumn(table string, cc *diff.ColumnChange, target *model.Column) []string {
	var out []string
	qt, qc := pgQuote(table), pgQuote(target.Name)

	if cc.TypeChanged || cc.LengthChanged || cc.PrecisionChanged {
		out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s;\n-- TODO: verify casts for %s",
			qt, qc, renderType(target), target.Name))
	}
	if cc.NullableChanged {
		if target.Nullable {
			out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL;", qt, qc))
		} else {
			out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL;", qt, qc))
		}
	}
	if cc.DefaultChanged {
		if target.Default == nil {
			out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", qt, qc))
		} else {
			out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", qt, qc, *target.Default))
		}
	}
	if cc.GeneratedChanged {
		out = append(out, fmt.Sprintf("-- TODO: reconcile generation strategy for %s", target.Name))
	}
	if cc.CollationChanged {
		out = append(out, fmt.Sprintf("-- TODO: adjust collation for %s", target.Name))
	}
	return out
}

func (postgresRenderer) createIndex(table string, idx *model.Index) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	fmt.Fprintf(&b, "INDEX %s ON %s", pgQuote(idx.Name), pgQuote(table))
	if idx.Using != "" {
		b.WriteString(" USING " + idx.Using)
	}
	fmt.Fprintf(&b, " (%s);", strings.Join(pgQuoteAll(idx.Columns), ", "))
	return b.String()
}

func (postgresRenderer) dropIndex(_ string, name string, opts Options) string {
	var b strings.Builder
	b.WriteString("DROP INDEX ")
	if opts.IfExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(pgQuote(name))
	if opts.Cascade {
		b.WriteString(" CASCADE")
	}
	b.WriteString(";")
	return b.String()
}

func (postgresRenderer) addCheck(table string, ck *model.Check) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);", pgQuote(table), pgQuote(ck.Name), ck.Expression)
}

func (postgresRenderer) dropCheck(table, name string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", pgQuote(table), pgQuote(name))
}

func (r postgresRenderer) addForeignKey(table string, fk *model.ForeignKey) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s;", pgQuote(table), r.foreignKeyDef(fk))
}

func (postgresRenderer) dropForeignKey(table, name string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", pgQuote(table), pgQuote(name))
}

func (postgresRenderer) addPrimaryKey(table string, pk *model.PrimaryKey) string {
	cols := strings.Join(pgQuoteAll(pk.Columns), ", ")
	if pk.Name != "" {
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s);", pgQuote(table), pgQuote(pk.Name), cols)
	}
	return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s);", pgQuote(table), cols)
}

func (postgresRenderer) dropPrimaryKey(table string, pk *model.PrimaryKey) string {
	if pk.Name == "" {
		return fmt.Sprintf("-- TODO: drop primary key on %s (constraint name unknown).", table)
	}
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", pgQuote(table), pgQuote(pk.Name))
}

func (postgresRenderer) createView(v *model.View) string {
	return fmt.Sprintf("CREATE VIEW %s AS\n%s", pgQuote(v.Name), terminate(v.Definition))
}

func (postgresRenderer) dropView(name string, opts Options) string {
	var b strings.Builder
	b.WriteString("DROP VIEW ")
	if opts.IfExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(pgQuote(name))
	if opts.Cascade {
		b.WriteString(" CASCADE")
	}
	b.WriteString(";")
	return b.String()
}

func (postgresRenderer) createRoutine(rt *model.Routine) string {
	if completeStatement(rt.Body) {
		return terminate(rt.Body)
	}
	return fmt.Sprintf("-- TODO: recreate %s %s manually (stored definition is not a complete statement).", rt.Kind, rt.Name)
}

func (postgresRenderer) dropRoutine(rt *model.Routine, opts Options) string {
	kind := "FUNCTION"
	if rt.Kind == model.RoutineProcedure {
		kind = "PROCEDURE"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "DROP %s ", kind)
	if opts.IfExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(pgQuote(rt.Name))
	if opts.Cascade {
		b.WriteString(" CASCADE")
	}
	b.WriteString(";")
	return b.String()
}

func (postgresRenderer) createTrigger(tr *model.Trigger) string {
	if completeStatement(tr.Body) {
		return terminate(tr.Body)
	}
	return fmt.Sprintf("-- TODO: recreate trigger %s on %s manually (stored definition is not a complete statement).", tr.Name, tr.Table)
}

func (postgresRenderer) dropTrigger(tr *model.Trigger, opts Options) string {
	var b strings.Builder
	b.WriteString("DROP TRIGGER ")
	if opts.IfExists {
		b.WriteString("IF EXISTS ")
	}
	fmt.Fprintf(&b, "%s ON %s;", pgQuote(tr.Name), pgQuote(tr.Table))
	return b.String()
}
