package gen

import (
	"fmt"
	"strings"

	"github.com/dbdelta/dbdelta/internal/diff"
	"github.com/dbdelta/dbdelta/internal/model"
)

// mariadbRenderer renders MariaDB DDL. Identifiers are backtick-quoted with
// internal backticks doubled.
type mariadbRenderer struct{}

func (mariadbRenderer) begin() string  { return "START TRANSACTION;" }
func (mariadbRenderer) commit() string { return "COMMIT;" }

func mdbQuote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func mdbQuoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = mdbQuote(n)
	}
	return out
}

func (mariadbRenderer) columnDef(c *model.Column) string {
	var b strings.Builder
	b.WriteString(mdbQuote(c.Name))
	b.WriteString(" ")
	b.WriteString(renderType(c))
	if !c.Nullable {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(*c.Default)
	}
	if c.Generated == model.GenerationAutoIncrement {
		b.WriteString(" AUTO_INCREMENT")
	}
	if c.Collation != "" {
		b.WriteString(" COLLATE " + c.Collation)
	}
	return b.String()
}

func (r mariadbRenderer) createTable(t *model.Table) string {
	var defs []string
	for _, c := range t.Columns {
		defs = append(defs, "  "+r.columnDef(c))
	}
	if pk := t.PrimaryKey; pk != nil {
		defs = append(defs, "  PRIMARY KEY ("+strings.Join(mdbQuoteAll(pk.Columns), ", ")+")")
	}
	for _, name := range t.CheckNames() {
		ck := t.Checks[name]
		defs = append(defs, fmt.Sprintf("  CONSTRAINT %s CHECK (%s)", mdbQuote(ck.Name), ck.Expression))
	}
	for _, name := range t.ForeignKeyNames() {
		defs = append(defs, "  "+r.foreignKeyDef(t.ForeignKeys[name]))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n) ENGINE=InnoDB;", mdbQuote(t.Name), strings.Join(defs, ",\n"))
}

func (mariadbRenderer) foreignKeyDef(fk *model.ForeignKey) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		mdbQuote(fk.Name),
		strings.Join(mdbQuoteAll(fk.Columns), ", "),
		mdbQuote(fk.RefTable),
		strings.Join(mdbQuoteAll(fk.RefColumns), ", "))
	if fk.OnUpdate != "" {
		b.WriteString(" ON UPDATE " + fk.OnUpdate)
	}
	if fk.OnDelete != "" {
		b.WriteString(" ON DELETE " + fk.OnDelete)
	}
	return b.String()
}

func (mariadbRenderer) dropTable(name string, opts Options) string {
	var b strings.Builder
	b.WriteString("DROP TABLE ")
	if opts.IfExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(mdbQuote(name))
	if opts.Cascade {
		b.WriteString(" CASCADE")
	}
	b.WriteString(";")
	return b.String()
}

func (r mariadbRenderer) addColumn(table string, c *model.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", mdbQuote(table), r.columnDef(c))
}

func (mariadbRenderer) dropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", mdbQuote(table), mdbQuote(column))
}

// alterColumn uses MODIFY COLUMN for type and nullability changes since
// MariaDB has no ALTER COLUMN ... TYPE / SET NOT NULL forms.
func (r mariadbRenderer) alterColumn(table string, cc *diff.ColumnChange, target *model.Column) []string {
	var out []string
	qt := mdbQuote(table)

	if cc.TypeChanged || cc.LengthChanged || cc.PrecisionChanged || cc.NullableChanged {
		out = append(out, fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s;\n-- TODO: verify casts for %s",
			qt, r.columnDef(target), target.Name))
	}
	if cc.DefaultChanged {
		if target.Default == nil {
			out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", qt, mdbQuote(target.Name)))
		} else {
			out = append(out, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", qt, mdbQuote(target.Name), *target.Default))
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

func (mariadbRenderer) createIndex(table string, idx *model.Index) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	fmt.Fprintf(&b, "INDEX %s ON %s", mdbQuote(idx.Name), mdbQuote(table))
	if idx.Using != "" {
		b.WriteString(" USING " + strings.ToUpper(idx.Using))
	}
	fmt.Fprintf(&b, " (%s);", strings.Join(mdbQuoteAll(idx.Columns), ", "))
	return b.String()
}

func (mariadbRenderer) dropIndex(table, name string, opts Options) string {
	var b strings.Builder
	b.WriteString("DROP INDEX ")
	if opts.IfExists {
		b.WriteString("IF EXISTS ")
	}
	fmt.Fprintf(&b, "%s ON %s;", mdbQuote(name), mdbQuote(table))
	return b.String()
}

func (mariadbRenderer) addCheck(table string, ck *model.Check) string {
	return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);", mdbQuote(table), mdbQuote(ck.Name), ck.Expression)
}

func (mariadbRenderer) dropCheck(table, name string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s;", mdbQuote(table), mdbQuote(name))
}

func (r mariadbRenderer) addForeignKey(table string, fk *model.ForeignKey) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s;", mdbQuote(table), r.foreignKeyDef(fk))
}

func (mariadbRenderer) dropForeignKey(table, name string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;", mdbQuote(table), mdbQuote(name))
}

func (mariadbRenderer) addPrimaryKey(table string, pk *model.PrimaryKey) string {
	return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s);", mdbQuote(table), strings.Join(mdbQuoteAll(pk.Columns), ", "))
}

func (mariadbRenderer) dropPrimaryKey(table string, _ *model.PrimaryKey) string {
	return fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY;", mdbQuote(table))
}

func (mariadbRenderer) createView(v *model.View) string {
	return fmt.Sprintf("CREATE VIEW %s AS\n%s", mdbQuote(v.Name), terminate(v.Definition))
}

func (mariadbRenderer) dropView(name string, opts Options) string {
	var b strings.Builder
	b.WriteString("DROP VIEW ")
	if opts.IfExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(mdbQuote(name))
	b.WriteString(";")
	return b.String()
}

func (mariadbRenderer) createRoutine(rt *model.Routine) string {
	if completeStatement(rt.Body) {
		return terminate(rt.Body)
	}
	return fmt.Sprintf("-- TODO: recreate %s %s manually (stored definition is not a complete statement).", rt.Kind, rt.Name)
}

func (mariadbRenderer) dropRoutine(rt *model.Routine, opts Options) string {
	kind := "FUNCTION"
	if rt.Kind == model.RoutineProcedure {
		kind = "PROCEDURE"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "DROP %s ", kind)
	if opts.IfExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(mdbQuote(rt.Name))
	b.WriteString(";")
	return b.String()
}

func (mariadbRenderer) createTrigger(tr *model.Trigger) string {
	if completeStatement(tr.Body) {
		return terminate(tr.Body)
	}
	return fmt.Sprintf("-- TODO: recreate trigger %s on %s manually (stored definition is not a complete statement).", tr.Name, tr.Table)
}

func (mariadbRenderer) dropTrigger(tr *model.Trigger, opts Options) string {
	var b strings.Builder
	b.WriteString("DROP TRIGGER ")
	if opts.IfExists {
		b.WriteString("IF EXISTS ")
	}
	b.WriteString(mdbQuote(tr.Name))
	b.WriteString(";")
	return b.String()
}
