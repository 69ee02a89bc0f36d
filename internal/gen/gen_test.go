package gen

import (
	"strings"
	"testing"

	"github.com/dbdelta/dbdelta/internal/diff"
	"github.com/dbdelta/dbdelta/internal/model"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func ordersTable() *model.Table {
	t := model.NewTable("orders")
	t.Columns = append(t.Columns,
		&model.Column{Name: "id", DataType: "bigint", Nullable: false, Generated: model.GenerationIdentity},
		&model.Column{Name: "total", DataType: "numeric", Precision: intp(10), Scale: intp(2), Nullable: false, Default: strp("0")},
	)
	t.PrimaryKey = &model.PrimaryKey{Name: "orders_pkey", Columns: []string{"id"}}
	t.Indexes["orders_total_idx"] = &model.Index{Name: "orders_total_idx", Columns: []string{"total"}, Using: "btree"}
	return t
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("AtoB")
	require.NoError(t, err)
	require.Equal(t, AtoB, d)

	d, err = ParseDirection("BtoA")
	require.NoError(t, err)
	require.Equal(t, BtoA, d)

	_, err = ParseDirection("sideways")
	require.Error(t, err)
}

func TestGenerateRejectsUnknownDirection(t *testing.T) {
	_, err := ToPostgres(&diff.Result{}, Options{Direction: "sideways"})
	require.Error(t, err)
}

func TestGenerateEmptyDiff(t *testing.T) {
	out, err := ToPostgres(&diff.Result{}, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Empty(t, out)
}

// A table present only in B: AtoB drops it, BtoA creates it.
func TestGenerateDirectionInversion(t *testing.T) {
	d := &diff.Result{}
	d.Tables.Added = append(d.Tables.Added, ordersTable())

	drop, err := ToPostgres(d, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Contains(t, drop, `DROP TABLE "orders";`)
	require.NotContains(t, drop, "CREATE TABLE")

	create, err := ToPostgres(d, Options{Direction: BtoA})
	require.NoError(t, err)
	require.Contains(t, create, `CREATE TABLE "orders" (`)
	require.Contains(t, create, `"id" bigint NOT NULL`)
	require.Contains(t, create, `"total" numeric(10,2) NOT NULL DEFAULT 0`)
	require.Contains(t, create, `PRIMARY KEY ("id")`)
	require.Contains(t, create, `CREATE INDEX "orders_total_idx" ON "orders" USING btree ("total");`)
	require.NotContains(t, create, "DROP TABLE")
}

func TestGenerateSafeMode(t *testing.T) {
	d := &diff.Result{}
	d.Tables.Added = append(d.Tables.Added, ordersTable())

	out, err := ToPostgres(d, Options{Direction: AtoB, SafeMode: true})
	require.NoError(t, err)
	require.Contains(t, out, "-- SAFE MODE: destructive statements are commented out; review before applying.")
	require.Contains(t, out, `-- DROP TABLE "orders";`)
	require.NotContains(t, out, "\nDROP TABLE", "the drop must only appear commented out")
}

func TestGenerateSafeModeBannerOnlyForTableDrops(t *testing.T) {
	d := &diff.Result{}
	d.Views.Added = append(d.Views.Added, &model.View{Name: "v", Definition: "SELECT 1"})

	out, err := ToPostgres(d, Options{Direction: AtoB, SafeMode: true})
	require.NoError(t, err)
	require.NotContains(t, out, "SAFE MODE:")
	require.Contains(t, out, `-- DROP VIEW "v";`)
}

func TestGenerateTransactionBracket(t *testing.T) {
	d := &diff.Result{}
	d.Tables.Removed = append(d.Tables.Removed, ordersTable())

	out, err := ToPostgres(d, Options{Direction: AtoB, WithTransaction: true})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "BEGIN;\n\n"))
	require.True(t, strings.HasSuffix(out, "\n\nCOMMIT;\n"))

	mdb, err := ToMariaDB(d, Options{Direction: AtoB, WithTransaction: true})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(mdb, "START TRANSACTION;\n\n"))
}

func TestGenerateStatementsSeparatedByBlankLine(t *testing.T) {
	d := &diff.Result{}
	d.Tables.Added = append(d.Tables.Added, model.NewTable("a"), model.NewTable("b"))

	out, err := ToPostgres(d, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Contains(t, out, "DROP TABLE \"a\";\n\nDROP TABLE \"b\";\n")
}

func TestGenerateDeterministic(t *testing.T) {
	d := &diff.Result{}
	d.Tables.Added = append(d.Tables.Added, ordersTable(), model.NewTable("users"))
	d.Views.Removed = append(d.Views.Removed, &model.View{Name: "v", Definition: "SELECT 1"})

	first, err := ToPostgres(d, Options{Direction: AtoB, SafeMode: true})
	require.NoError(t, err)
	for range 10 {
		again, err := ToPostgres(d, Options{Direction: AtoB, SafeMode: true})
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestGenerateColumnAlterations(t *testing.T) {
	tc := &diff.TableChange{
		Name: "users",
		ColumnsChanged: []*diff.ColumnChange{{
			Name:            "email",
			From:            &model.Column{Name: "email", DataType: "varchar", Length: intp(255), Nullable: false},
			To:              &model.Column{Name: "email", DataType: "varchar", Length: intp(512), Nullable: true},
			LengthChanged:   true,
			NullableChanged: true,
		}},
	}
	d := &diff.Result{}
	d.Tables.Changed = append(d.Tables.Changed, tc)

	// AtoB targets the A side: length back to 255, NOT NULL restored.
	out, err := ToPostgres(d, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Contains(t, out, `ALTER TABLE "users" ALTER COLUMN "email" TYPE varchar(255);`)
	require.Contains(t, out, "-- TODO: verify casts for email")
	require.Contains(t, out, `ALTER TABLE "users" ALTER COLUMN "email" SET NOT NULL;`)

	// BtoA targets the B side.
	out, err = ToPostgres(d, Options{Direction: BtoA})
	require.NoError(t, err)
	require.Contains(t, out, `ALTER TABLE "users" ALTER COLUMN "email" TYPE varchar(512);`)
	require.Contains(t, out, `ALTER TABLE "users" ALTER COLUMN "email" DROP NOT NULL;`)

	// MariaDB rebuilds the full column definition.
	mdb, err := ToMariaDB(d, Options{Direction: BtoA})
	require.NoError(t, err)
	require.Contains(t, mdb, "ALTER TABLE `users` MODIFY COLUMN `email` varchar(512);")
}

func TestGenerateColumnAddDrop(t *testing.T) {
	tc := &diff.TableChange{
		Name:         "users",
		ColumnsAdded: []*model.Column{{Name: "age", DataType: "int", Nullable: true}},
	}
	d := &diff.Result{}
	d.Tables.Changed = append(d.Tables.Changed, tc)

	// AtoB: the column exists only in B, so it is dropped.
	out, err := ToPostgres(d, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Contains(t, out, `ALTER TABLE "users" DROP COLUMN "age";`)

	out, err = ToPostgres(d, Options{Direction: BtoA})
	require.NoError(t, err)
	require.Contains(t, out, `ALTER TABLE "users" ADD COLUMN "age" int;`)
}

func TestGenerateDefaultChange(t *testing.T) {
	tc := &diff.TableChange{
		Name: "users",
		ColumnsChanged: []*diff.ColumnChange{{
			Name:           "state",
			From:           &model.Column{Name: "state", DataType: "text", Nullable: false, Default: strp("'new'")},
			To:             &model.Column{Name: "state", DataType: "text", Nullable: false},
			DefaultChanged: true,
		}},
	}
	d := &diff.Result{}
	d.Tables.Changed = append(d.Tables.Changed, tc)

	out, err := ToPostgres(d, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Contains(t, out, `ALTER TABLE "users" ALTER COLUMN "state" SET DEFAULT 'new';`)

	out, err = ToPostgres(d, Options{Direction: BtoA})
	require.NoError(t, err)
	require.Contains(t, out, `ALTER TABLE "users" ALTER COLUMN "state" DROP DEFAULT;`)
}

func TestGenerateChangedIndexRebuilt(t *testing.T) {
	tc := &diff.TableChange{
		Name: "users",
		IndexesChanged: []*diff.IndexChange{{
			Name: "users_email_idx",
			From: &model.Index{Name: "users_email_idx", Unique: true, Columns: []string{"email"}},
			To:   &model.Index{Name: "users_email_idx", Unique: false, Columns: []string{"email"}},
		}},
	}
	d := &diff.Result{}
	d.Tables.Changed = append(d.Tables.Changed, tc)

	out, err := ToPostgres(d, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Contains(t, out, `DROP INDEX "users_email_idx";`)
	require.Contains(t, out, `CREATE UNIQUE INDEX "users_email_idx" ON "users" ("email");`)

	out, err = ToPostgres(d, Options{Direction: BtoA})
	require.NoError(t, err)
	require.Contains(t, out, `CREATE INDEX "users_email_idx" ON "users" ("email");`)
}

func TestGeneratePrimaryKeyChange(t *testing.T) {
	tc := &diff.TableChange{
		Name: "users",
		PrimaryKey: &diff.PrimaryKeyChange{
			From: &model.PrimaryKey{Name: "users_pkey", Columns: []string{"id"}},
			To:   &model.PrimaryKey{Name: "users_pkey", Columns: []string{"id", "email"}},
		},
	}
	d := &diff.Result{}
	d.Tables.Changed = append(d.Tables.Changed, tc)

	out, err := ToPostgres(d, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Contains(t, out, `ALTER TABLE "users" DROP CONSTRAINT "users_pkey";`)
	require.Contains(t, out, `ALTER TABLE "users" ADD CONSTRAINT "users_pkey" PRIMARY KEY ("id");`)

	mdb, err := ToMariaDB(d, Options{Direction: BtoA})
	require.NoError(t, err)
	require.Contains(t, mdb, "ALTER TABLE `users` DROP PRIMARY KEY;")
	require.Contains(t, mdb, "ALTER TABLE `users` ADD PRIMARY KEY (`id`, `email`);")
}

func TestGenerateForeignKeys(t *testing.T) {
	fk := &model.ForeignKey{
		Name: "orders_user_fk", Columns: []string{"user_id"},
		RefTable: "users", RefColumns: []string{"id"}, OnDelete: "CASCADE",
	}
	tc := &diff.TableChange{Name: "orders", ForeignKeysRemoved: []*model.ForeignKey{fk}}
	d := &diff.Result{}
	d.Tables.Changed = append(d.Tables.Changed, tc)

	out, err := ToPostgres(d, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Contains(t, out, `ALTER TABLE "orders" ADD CONSTRAINT "orders_user_fk" FOREIGN KEY ("user_id") REFERENCES "users" ("id") ON DELETE CASCADE;`)

	mdb, err := ToMariaDB(d, Options{Direction: BtoA})
	require.NoError(t, err)
	require.Contains(t, mdb, "ALTER TABLE `orders` DROP FOREIGN KEY `orders_user_fk`;")
}

func TestGenerateDropOptions(t *testing.T) {
	d := &diff.Result{}
	d.Tables.Added = append(d.Tables.Added, model.NewTable("old"))

	out, err := ToPostgres(d, Options{Direction: AtoB, Cascade: true, IfExists: true})
	require.NoError(t, err)
	require.Contains(t, out, `DROP TABLE IF EXISTS "old" CASCADE;`)
}

func TestGenerateViewsRoutinesTriggers(t *testing.T) {
	d := &diff.Result{}
	d.Views.Removed = append(d.Views.Removed, &model.View{Name: "v", Definition: "SELECT 1 AS x"})
	d.Routines.Removed = append(d.Routines.Removed, &model.Routine{
		Kind: model.RoutineFunction, Name: "f", Language: "plpgsql",
		Body: "CREATE OR REPLACE FUNCTION f() RETURNS int AS $$ SELECT 1 $$ LANGUAGE sql",
	})
	d.Triggers.Removed = append(d.Triggers.Removed, &model.Trigger{
		Table: "users", Name: "touch", Timing: model.TriggerBefore,
		Events: []string{"insert"}, Body: "UPDATE users SET n = n",
	})
	d.Views.Changed = append(d.Views.Changed, &diff.ViewChange{Name: "w",
		From: &model.View{Name: "w"}, To: &model.View{Name: "w"}})

	out, err := ToPostgres(d, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Contains(t, out, "CREATE VIEW \"v\" AS\nSELECT 1 AS x;")
	require.Contains(t, out, "CREATE OR REPLACE FUNCTION f() RETURNS int AS $$ SELECT 1 $$ LANGUAGE sql;")
	// The trigger body is not a complete statement: a marker is emitted
	// instead of guessed DDL.
	require.Contains(t, out, "-- TODO: recreate trigger touch on users manually")
	require.Contains(t, out, "-- TODO: view w definition changed; drop and recreate manually.")
}

func TestGenerateRoutineDrops(t *testing.T) {
	d := &diff.Result{}
	d.Routines.Added = append(d.Routines.Added,
		&model.Routine{Kind: model.RoutineFunction, Name: "f"},
		&model.Routine{Kind: model.RoutineProcedure, Name: "p"},
	)

	out, err := ToPostgres(d, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Contains(t, out, `DROP FUNCTION "f";`)
	require.Contains(t, out, `DROP PROCEDURE "p";`)
}

func TestGenerateAutoIncrementColumn(t *testing.T) {
	tbl := model.NewTable("t")
	tbl.Columns = append(tbl.Columns, &model.Column{
		Name: "id", DataType: "bigint", Nullable: false, Generated: model.GenerationAutoIncrement,
	})
	d := &diff.Result{}
	d.Tables.Removed = append(d.Tables.Removed, tbl)

	mdb, err := ToMariaDB(d, Options{Direction: AtoB})
	require.NoError(t, err)
	require.Contains(t, mdb, "`id` bigint NOT NULL AUTO_INCREMENT")
	require.Contains(t, mdb, ") ENGINE=InnoDB;")
}

func TestCommentOutIdempotent(t *testing.T) {
	stmt := "DROP TABLE x;\n-- already commented"
	got := commentOut(stmt)
	require.Equal(t, "-- DROP TABLE x;\n-- already commented", got)
}
