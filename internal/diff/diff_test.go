package diff

import (
	"testing"

	"github.com/dbdelta/dbdelta/internal/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func baseSchema() *model.Schema {
	s := model.NewSchema("public")
	t := model.NewTable("users")
	t.Columns = append(t.Columns,
		&model.Column{Name: "id", DataType: "bigint", Nullable: false, Generated: model.GenerationIdentity},
		&model.Column{Name: "email", DataType: "varchar", Length: intp(255), Nullable: false},
	)
	t.PrimaryKey = &model.PrimaryKey{Name: "users_pkey", Columns: []string{"id"}}
	t.Indexes["users_email_idx"] = &model.Index{Name: "users_email_idx", Unique: true, Columns: []string{"email"}, Using: "btree"}
	s.Tables["users"] = t
	return s
}

func TestComputeIdenticalSchemas(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	r := Compute(a, b)
	require.True(t, r.Empty())
	require.Equal(t, Summary{}, r.Summary())
}

func TestComputeTableAddedAndRemoved(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	b.Tables["orders"] = model.NewTable("orders")
	delete(a.Tables, "users")

	r := Compute(a, b)
	require.Len(t, r.Tables.Added, 2)
	require.Empty(t, r.Tables.Removed)

	r2 := Compute(b, a)
	require.Len(t, r2.Tables.Removed, 2)
	require.Empty(t, r2.Tables.Added)
}

func TestComputeResultHoldsCopies(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	b.Tables["orders"] = model.NewTable("orders")

	r := Compute(a, b)
	require.Len(t, r.Tables.Added, 1)

	// Mutating the source must not reach into the result.
	b.Tables["orders"].Name = "mutated"
	require.Equal(t, "orders", r.Tables.Added[0].Name)
}

func TestComputeColumnChanges(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	users := b.Tables["users"]
	users.Column("email").Length = intp(512)
	users.Column("email").Nullable = true
	users.Columns = append(users.Columns, &model.Column{Name: "age", DataType: "int", Nullable: true})
	a.Tables["users"].Columns = append(a.Tables["users"].Columns,
		&model.Column{Name: "legacy", DataType: "text", Nullable: true})

	r := Compute(a, b)
	require.Len(t, r.Tables.Changed, 1)
	tc := r.Tables.Changed[0]
	require.Equal(t, "users", tc.Name)

	require.Len(t, tc.ColumnsAdded, 1)
	require.Equal(t, "age", tc.ColumnsAdded[0].Name)
	require.Len(t, tc.ColumnsRemoved, 1)
	require.Equal(t, "legacy", tc.ColumnsRemoved[0].Name)

	require.Len(t, tc.ColumnsChanged, 1)
	cc := tc.ColumnsChanged[0]
	require.Equal(t, "email", cc.Name)
	require.True(t, cc.LengthChanged)
	require.True(t, cc.NullableChanged)
	require.False(t, cc.TypeChanged)
	require.Equal(t, 255, *cc.From.Length)
	require.Equal(t, 512, *cc.To.Length)
}

func TestComputeDefaultNullEqualsAbsent(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	a.Tables["users"].Column("email").Default = strp("NULL")
	// b side has no default at all.

	r := Compute(a, b)
	require.True(t, r.Empty(), "an explicit NULL default equals no default")
}

func TestComputeDefaultChange(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	b.Tables["users"].Column("email").Default = strp("'unknown'")

	r := Compute(a, b)
	require.Len(t, r.Tables.Changed, 1)
	cc := r.Tables.Changed[0].ColumnsChanged[0]
	require.True(t, cc.DefaultChanged)
	require.False(t, cc.TypeChanged)
}

func TestComputeIndexColumnOrderInsignificant(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	a.Tables["users"].Indexes["composite"] = &model.Index{Name: "composite", Columns: []string{"a", "b"}}
	b.Tables["users"].Indexes["composite"] = &model.Index{Name: "composite", Columns: []string{"B", "A"}}

	r := Compute(a, b)
	require.True(t, r.Empty(), "index columns compare as case-insensitive sets")
}

func TestComputeIndexUniquenessChange(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	b.Tables["users"].Indexes["users_email_idx"].Unique = false

	r := Compute(a, b)
	require.Len(t, r.Tables.Changed, 1)
	require.Len(t, r.Tables.Changed[0].IndexesChanged, 1)
	ic := r.Tables.Changed[0].IndexesChanged[0]
	require.Equal(t, "users_email_idx", ic.Name)
	require.True(t, ic.From.Unique)
	require.False(t, ic.To.Unique)
}

func TestComputeCheckWhitespaceInsignificant(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	a.Tables["users"].Checks["c"] = &model.Check{Name: "c", Expression: "email <>  ''"}
	b.Tables["users"].Checks["c"] = &model.Check{Name: "c", Expression: "email <> ''"}

	r := Compute(a, b)
	require.True(t, r.Empty())
}

func TestComputeForeignKeyEquality(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	a.Tables["users"].ForeignKeys["fk"] = &model.ForeignKey{
		Name: "fk", Columns: []string{"org_id"}, RefTable: "Orgs", RefColumns: []string{"id"},
		OnUpdate: "NO ACTION", OnDelete: "CASCADE",
	}
	b.Tables["users"].ForeignKeys["fk"] = &model.ForeignKey{
		Name: "fk", Columns: []string{"ORG_ID"}, RefTable: "orgs", RefColumns: []string{"ID"},
		OnUpdate: "no action", OnDelete: "cascade",
	}

	r := Compute(a, b)
	require.True(t, r.Empty(), "foreign keys compare case-insensitively")

	b.Tables["users"].ForeignKeys["fk"].OnDelete = "SET NULL"
	r = Compute(a, b)
	require.Len(t, r.Tables.Changed, 1)
	require.Len(t, r.Tables.Changed[0].ForeignKeysChanged, 1)
}

func TestComputePrimaryKeyChange(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	b.Tables["users"].PrimaryKey = &model.PrimaryKey{Name: "users_pkey", Columns: []string{"id", "email"}}

	r := Compute(a, b)
	require.Len(t, r.Tables.Changed, 1)
	pk := r.Tables.Changed[0].PrimaryKey
	require.NotNil(t, pk)
	require.Equal(t, []string{"id"}, pk.From.Columns)
	require.Equal(t, []string{"id", "email"}, pk.To.Columns)
}

func TestComputePrimaryKeyDropped(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	b.Tables["users"].PrimaryKey = nil

	r := Compute(a, b)
	require.Len(t, r.Tables.Changed, 1)
	pk := r.Tables.Changed[0].PrimaryKey
	require.NotNil(t, pk.From)
	require.Nil(t, pk.To)
}

func TestComputeViews(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	a.Views["v1"] = &model.View{Name: "v1", Definition: "SELECT  1"}
	b.Views["v1"] = &model.View{Name: "v1", Definition: "SELECT 1"}
	b.Views["v2"] = &model.View{Name: "v2", Definition: "SELECT 2"}

	r := Compute(a, b)
	require.Empty(t, r.Views.Changed, "view definitions compare whitespace-collapsed")
	require.Len(t, r.Views.Added, 1)
	require.Equal(t, "v2", r.Views.Added[0].Name)

	b.Views["v1"].Definition = "SELECT 1 WHERE true"
	r = Compute(a, b)
	require.Len(t, r.Views.Changed, 1)
}

func TestComputeRoutines(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	fn := &model.Routine{Kind: model.RoutineFunction, Name: "f", Language: "plpgsql", Body: "body"}
	proc := &model.Routine{Kind: model.RoutineProcedure, Name: "f", Language: "plpgsql", Body: "body"}
	a.Routines[fn.Key()] = fn
	b.Routines[fn.Key()] = fn.Clone()
	b.Routines[proc.Key()] = proc

	r := Compute(a, b)
	require.Len(t, r.Routines.Added, 1, "a function and a procedure of the same name are distinct")
	require.Equal(t, model.RoutineProcedure, r.Routines.Added[0].Kind)

	b.Routines[fn.Key()].Body = "other body"
	r = Compute(a, b)
	require.Len(t, r.Routines.Changed, 1)
	require.Equal(t, "function:f", r.Routines.Changed[0].Key)
}

func TestComputeTriggers(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	tr := &model.Trigger{Table: "users", Name: "touch", Timing: model.TriggerBefore,
		Events: []string{"insert", "update"}, Body: "EXECUTE FUNCTION touch()"}
	a.Triggers[tr.Key()] = tr
	b.Triggers[tr.Key()] = tr.Clone()

	r := Compute(a, b)
	require.True(t, r.Empty())

	b.Triggers[tr.Key()].Events = []string{"insert"}
	r = Compute(a, b)
	require.Len(t, r.Triggers.Changed, 1)
	require.Equal(t, "users.touch", r.Triggers.Changed[0].Key)
}

func TestComputeSymmetry(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	b.Tables["orders"] = model.NewTable("orders")
	delete(b.Tables, "users")
	a.Views["v"] = &model.View{Name: "v", Definition: "SELECT 1"}

	ab := Compute(a, b)
	ba := Compute(b, a)

	require.Empty(t, cmp.Diff(ab.Tables.Added, ba.Tables.Removed))
	require.Empty(t, cmp.Diff(ab.Tables.Removed, ba.Tables.Added))
	require.Empty(t, cmp.Diff(ab.Views.Removed, ba.Views.Added))
}

func TestSummaryCounts(t *testing.T) {
	a, b := baseSchema(), baseSchema()
	b.Tables["orders"] = model.NewTable("orders")
	b.Tables["users"].Columns = append(b.Tables["users"].Columns,
		&model.Column{Name: "age", DataType: "int", Nullable: true})

	s := Compute(a, b).Summary()
	require.Equal(t, 1, s.Tables.Added)
	require.Equal(t, 0, s.Tables.Removed)
	require.Equal(t, 1, s.Tables.Changed)
}
