package load

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dbdelta/dbdelta/internal/fault"
	"github.com/dbdelta/dbdelta/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newMariaDBMock(t *testing.T) (*mariadbLoader, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &mariadbLoader{db: sqlx.NewDb(db, "mysql"), schema: "shop"}, mock
}

func TestMariaDBLoaderFullSchema(t *testing.T) {
	l, mock := newMariaDBMock(t)

	mock.ExpectQuery(mdbTablesQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name"}).AddRow("orders").AddRow("users"))

	columns := sqlmock.NewRows([]string{
		"table_name", "column_name", "data_type", "column_type",
		"character_maximum_length", "numeric_precision", "numeric_scale",
		"is_nullable", "column_default", "extra", "collation_name",
	}).
		AddRow("orders", "id", "int", "int(11)", nil, 10, 0, "NO", nil, "auto_increment", nil).
		AddRow("orders", "total", "decimal", "decimal(10,2)", nil, 10, 2, "NO", "0.00", "", nil).
		AddRow("orders", "active", "tinyint", "tinyint(1)", nil, 3, 0, "NO", "1", "", nil).
		AddRow("users", "id", "bigint", "bigint(20)", nil, 19, 0, "NO", nil, "auto_increment", nil).
		AddRow("users", "email", "varchar", "varchar(255)", 255, nil, nil, "NO", "NULL", "", "utf8mb4_general_ci")
	mock.ExpectQuery(mdbColumnsQuery).WithArgs("shop").WillReturnRows(columns)

	mock.ExpectQuery(mdbPrimaryKeysQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "constraint_name", "column_name"}).
			AddRow("orders", "PRIMARY", "id").
			AddRow("users", "PRIMARY", "id"))

	mock.ExpectQuery(mdbIndexesQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "index_name", "non_unique",
			"seq_in_index", "column_name", "index_type"}).
			AddRow("users", "users_email_idx", 0, 1, "email", "BTREE").
			AddRow("orders", "orders_user_idx", 1, 1, "user_id", "BTREE"))

	mock.ExpectQuery(mdbForeignKeysQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "constraint_name", "column_name",
			"referenced_table_name", "referenced_column_name", "update_rule", "delete_rule"}).
			AddRow("orders", "orders_user_fk", "user_id", "users", "id", "RESTRICT", "CASCADE"))

	mock.ExpectQuery(mdbChecksQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "constraint_name", "check_clause"}).
			AddRow("orders", "orders_total_check", "`total` >= 0"))

	mock.ExpectQuery(mdbViewsQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "view_definition"}).
			AddRow("active_users", "select `id` from `users` where `active` = 1"))

	mock.ExpectQuery(mdbRoutinesQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"routine_name", "routine_type", "routine_body", "routine_definition"}).
			AddRow("order_count", "FUNCTION", "SQL", "BEGIN RETURN (SELECT COUNT(*) FROM orders); END").
			AddRow("purge_orders", "PROCEDURE", "SQL", "BEGIN DELETE FROM orders; END"))

	mock.ExpectQuery(mdbTriggersQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"event_object_table", "trigger_name", "action_timing",
			"event_manipulation", "action_statement"}).
			AddRow("orders", "orders_audit", "AFTER", "INSERT", "INSERT INTO audit VALUES (NEW.id)"))

	s, err := l.load(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	orders := s.Tables["orders"]
	require.Equal(t, model.GenerationAutoIncrement, orders.Column("id").Generated)

	active := orders.Column("active")
	require.Equal(t, "tinyint", active.DataType)
	require.NotNil(t, active.Length, "display width from column_type")
	require.Equal(t, 1, *active.Length)

	total := orders.Column("total")
	require.Equal(t, 10, *total.Precision)
	require.Equal(t, 2, *total.Scale)

	email := s.Tables["users"].Column("email")
	require.Nil(t, email.Default, "literal NULL default means no default")
	require.Equal(t, "utf8mb4_general_ci", email.Collation)

	require.Equal(t, "PRIMARY", orders.PrimaryKey.Name)
	require.Equal(t, []string{"id"}, orders.PrimaryKey.Columns)

	idx := s.Tables["users"].Indexes["users_email_idx"]
	require.True(t, idx.Unique)
	require.Equal(t, "btree", idx.Using)
	require.False(t, orders.Indexes["orders_user_idx"].Unique)

	fk := orders.ForeignKeys["orders_user_fk"]
	require.Equal(t, "users", fk.RefTable)
	require.Equal(t, "CASCADE", fk.OnDelete)

	require.Contains(t, s.Views, "active_users")
	require.Contains(t, s.Routines, "function:order_count")
	require.Contains(t, s.Routines, "procedure:purge_orders")
	require.Equal(t, "sql", s.Routines["function:order_count"].Language)

	tr := s.Triggers["orders.orders_audit"]
	require.NotNil(t, tr)
	require.Equal(t, model.TriggerAfter, tr.Timing)
	require.Equal(t, []string{"insert"}, tr.Events)
}

func TestMariaDBLoaderCompositeIndex(t *testing.T) {
	l, mock := newMariaDBMock(t)

	mock.ExpectQuery(mdbTablesQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name"}).AddRow("t"))
	mock.ExpectQuery(mdbColumnsQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{
			"table_name", "column_name", "data_type", "column_type",
			"character_maximum_length", "numeric_precision", "numeric_scale",
			"is_nullable", "column_default", "extra", "collation_name",
		}))
	mock.ExpectQuery(mdbPrimaryKeysQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "constraint_name", "column_name"}))

	// Rows ordered by seq_in_index aggregate into one index.
	mock.ExpectQuery(mdbIndexesQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "index_name", "non_unique",
			"seq_in_index", "column_name", "index_type"}).
			AddRow("t", "t_ab_idx", 0, 1, "a", "BTREE").
			AddRow("t", "t_ab_idx", 0, 2, "b", "BTREE"))

	mock.ExpectQuery(mdbForeignKeysQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "constraint_name", "column_name",
			"referenced_table_name", "referenced_column_name", "update_rule", "delete_rule"}))
	mock.ExpectQuery(mdbChecksQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "constraint_name", "check_clause"}))
	mock.ExpectQuery(mdbViewsQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"table_name", "view_definition"}))
	mock.ExpectQuery(mdbRoutinesQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"routine_name", "routine_type", "routine_body", "routine_definition"}))
	mock.ExpectQuery(mdbTriggersQuery).WithArgs("shop").WillReturnRows(
		sqlmock.NewRows([]string{"event_object_table", "trigger_name", "action_timing",
			"event_manipulation", "action_statement"}))

	s, err := l.load(context.Background())
	require.NoError(t, err)

	idx := s.Tables["t"].Indexes["t_ab_idx"]
	require.NotNil(t, idx)
	require.Equal(t, []string{"a", "b"}, idx.Columns)
}

func TestMariaDBLoaderQueryFailure(t *testing.T) {
	l, mock := newMariaDBMock(t)

	mock.ExpectQuery(mdbTablesQuery).WithArgs("shop").WillReturnError(errClosed)

	_, err := l.load(context.Background())
	require.Error(t, err)
	require.True(t, fault.IsCatalog(err))
}
