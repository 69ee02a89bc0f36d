package load

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dbdelta/dbdelta/internal/conn"
	"github.com/dbdelta/dbdelta/internal/fault"
	"github.com/dbdelta/dbdelta/internal/model"
	"github.com/jmoiron/sqlx"

	_ "github.com/go-sql-driver/mysql"
)

// Explicit AS aliases keep information_schema column names lowercase so sqlx
// struct scanning works across server versions.

// LoadMariaDB introspects one MariaDB schema into a model.
func LoadMariaDB(ctx context.Context, cfg *conn.Config) (*model.Schema, error) {
	db, err := sqlx.Open("mysql", cfg.MariaDBDSN())
	if err != nil {
		return nil, fault.Connect(err, "open mariadb connection to %s", cfg.Addr())
	}
	defer db.Close()
	db.SetMaxOpenConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		return nil, fault.Connect(err, "connect to mariadb at %s", cfg.Addr())
	}

	l := &mariadbLoader{db: db, schema: cfg.Schema}
	return l.load(ctx)
}

type mariadbLoader struct {
	db     *sqlx.DB
	schema string
}

func (l *mariadbLoader) load(ctx context.Context) (*model.Schema, error) {
	s := model.NewSchema(l.schema)

	if err := l.loadTables(ctx, s); err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	if err := l.loadColumns(ctx, s); err != nil {
		return nil, fmt.Errorf("load columns: %w", err)
	}
	if err := l.loadPrimaryKeys(ctx, s); err != nil {
		return nil, fmt.Errorf("load primary keys: %w", err)
	}
	if err := l.loadIndexes(ctx, s); err != nil {
		return nil, fmt.Errorf("load indexes: %w", err)
	}
	if err := l.loadForeignKeys(ctx, s); err != nil {
		return nil, fmt.Errorf("load foreign keys: %w", err)
	}
	if err := l.loadChecks(ctx, s); err != nil {
		return nil, fmt.Errorf("load checks: %w", err)
	}
	if err := l.loadViews(ctx, s); err != nil {
		return nil, fmt.Errorf("load views: %w", err)
	}
	if err := l.loadRoutines(ctx, s); err != nil {
		return nil, fmt.Errorf("load routines: %w", err)
	}
	if err := l.loadTriggers(ctx, s); err != nil {
		return nil, fmt.Errorf("load triggers: %w", err)
	}
	return s, nil
}

const mdbTablesQuery = `
SELECT table_name AS table_name
FROM information_schema.tables
WHERE table_schema = ? AND table_type IN ('BASE TABLE', 'SYSTEM VERSIONED')
ORDER BY table_name`

func (l *mariadbLoader) loadTables(ctx context.Context, s *model.Schema) error {
	var names []string
	if err := l.db.SelectContext(ctx, &names, mdbTablesQuery, l.schema); err != nil {
		return fault.Catalog(err, "query information_schema.tables")
	}
	for _, name := range names {
		s.Tables[name] = model.NewTable(name)
	}
	return nil
}

type mdbColumnRow struct {
	TableName  string         `db:"table_name"`
	ColumnName string         `db:"column_name"`
	DataType   string         `db:"data_type"`
	ColumnType string         `db:"column_type"`
	MaxLength  sql.NullInt64  `db:"character_maximum_length"`
	Precision  sql.NullInt64  `db:"numeric_precision"`
	Scale      sql.NullInt64  `db:"numeric_scale"`
	IsNullable string         `db:"is_nullable"`
	Default    sql.NullString `db:"column_default"`
	Extra      string         `db:"extra"`
	Collation  sql.NullString `db:"collation_name"`
}

const mdbColumnsQuery = `
SELECT
  c.table_name AS table_name,
  c.column_name AS column_name,
  c.data_type AS data_type,
  c.column_type AS column_type,
  c.character_maximum_length AS character_maximum_length,
  c.numeric_precision AS numeric_precision,
  c.numeric_scale AS numeric_scale,
  c.is_nullable AS is_nullable,
  c.column_default AS column_default,
  c.extra AS extra,
  c.collation_name AS collation_name
FROM information_schema.columns c
WHERE c.table_schema = ?
ORDER BY c.table_name, c.ordinal_position`

// mdbDisplayWidth extracts the display width from a column_type such as
// "tinyint(1)"; needed for the tinyint(1)/bit(1) boolean synonyms.
var mdbDisplayWidth = regexp.MustCompile(`^(?:tinyint|bit)\((\d+)\)`)

func (l *mariadbLoader) loadColumns(ctx context.Context, s *model.Schema) error {
	var cols []mdbColumnRow
	if err := l.db.SelectContext(ctx, &cols, mdbColumnsQuery, l.schema); err != nil {
		return fault.Catalog(err, "query information_schema.columns")
	}

	for _, row := range cols {
		t, ok := s.Tables[row.TableName]
		if !ok {
			continue
		}
		c := &model.Column{
			Name:      row.ColumnName,
			DataType:  row.DataType,
			Nullable:  strings.EqualFold(row.IsNullable, "YES"),
			Generated: model.GenerationNone,
			Collation: row.Collation.String,
		}
		if row.MaxLength.Valid {
			v := int(row.MaxLength.Int64)
			c.Length = &v
		}
		if isNumericType(row.DataType) {
			if row.Precision.Valid {
				v := int(row.Precision.Int64)
				c.Precision = &v
			}
			if row.Scale.Valid {
				v := int(row.Scale.Int64)
				c.Scale = &v
			}
		}
		if m := mdbDisplayWidth.FindStringSubmatch(strings.ToLower(row.ColumnType)); m != nil {
			if width, err := strconv.Atoi(m[1]); err == nil {
				c.Length = &width
			}
		}
		if row.Default.Valid && !strings.EqualFold(row.Default.String, "null") {
			d := row.Default.String
			c.Default = &d
		}
		if strings.Contains(strings.ToLower(row.Extra), "auto_increment") {
			c.Generated = model.GenerationAutoIncrement
		}
		t.Columns = append(t.Columns, c)
	}
	return nil
}

type mdbKeyColumnRow struct {
	TableName      string `db:"table_name"`
	ConstraintName string `db:"constraint_name"`
	ColumnName     string `db:"column_name"`
}

const mdbPrimaryKeysQuery = `
SELECT
  tc.table_name AS table_name,
  tc.constraint_name AS constraint_name,
  kcu.column_name AS column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_schema = tc.constraint_schema
 AND kcu.constraint_name = tc.constraint_name
 AND kcu.table_name = tc.table_name
WHERE tc.table_schema = ? AND tc.constraint_type = 'PRIMARY KEY'
ORDER BY tc.table_name, kcu.ordinal_position`

func (l *mariadbLoader) loadPrimaryKeys(ctx context.Context, s *model.Schema) error {
	var rows []mdbKeyColumnRow
	if err := l.db.SelectContext(ctx, &rows, mdbPrimaryKeysQuery, l.schema); err != nil {
		return fault.Catalog(err, "query primary keys")
	}
	for _, row := range rows {
		t, ok := s.Tables[row.TableName]
		if !ok {
			continue
		}
		if t.PrimaryKey == nil {
			t.PrimaryKey = &model.PrimaryKey{Name: row.ConstraintName}
		}
		t.PrimaryKey.Columns = append(t.PrimaryKey.Columns, row.ColumnName)
	}
	return nil
}

type mdbIndexRow struct {
	TableName  string `db:"table_name"`
	IndexName  string `db:"index_name"`
	NonUnique  int    `db:"non_unique"`
	SeqInIndex int    `db:"seq_in_index"`
	ColumnName string `db:"column_name"`
	IndexType  string `db:"index_type"`
}

const mdbIndexesQuery = `
SELECT
  table_name AS table_name,
  index_name AS index_name,
  non_unique AS non_unique,
  seq_in_index AS seq_in_index,
  column_name AS column_name,
  index_type AS index_type
FROM information_schema.statistics
WHERE table_schema = ? AND index_name != 'PRIMARY'
ORDER BY table_name, index_name, seq_in_index`

// loadIndexes aggregates statistics rows sharing (table, index_name) into
// one index; uniqueness is non_unique = 0.
func (l *mariadbLoader) loadIndexes(ctx context.Context, s *model.Schema) error {
	var rows []mdbIndexRow
	if err := l.db.SelectContext(ctx, &rows, mdbIndexesQuery, l.schema); err != nil {
		return fault.Catalog(err, "query information_schema.statistics")
	}
	for _, row := range rows {
		t, ok := s.Tables[row.TableName]
		if !ok {
			continue
		}
		idx, ok := t.Indexes[row.IndexName]
		if !ok {
			idx = &model.Index{
				Name:   row.IndexName,
				Unique: row.NonUnique == 0,
				Using:  strings.ToLower(row.IndexType),
			}
			t.Indexes[row.IndexName] = idx
		}
		idx.Columns = append(idx.Columns, row.ColumnName)
	}
	return nil
}

type mdbForeignKeyRow struct {
	TableName      string `db:"table_name"`
	ConstraintName string `db:"constraint_name"`
	ColumnName     string `db:"column_name"`
	RefTable       string `db:"referenced_table_name"`
	RefColumn      string `db:"referenced_column_name"`
	UpdateRule     string `db:"update_rule"`
	DeleteRule     string `db:"delete_rule"`
}

const mdbForeignKeysQuery = `
SELECT
  kcu.table_name AS table_name,
  kcu.constraint_name AS constraint_name,
  kcu.column_name AS column_name,
  kcu.referenced_table_name AS referenced_table_name,
  kcu.referenced_column_name AS referenced_column_name,
  rc.update_rule AS update_rule,
  rc.delete_rule AS delete_rule
FROM information_schema.key_column_usage kcu
JOIN information_schema.referential_constraints rc
  ON rc.constraint_schema = kcu.constraint_schema AND rc.constraint_name = kcu.constraint_name
WHERE kcu.table_schema = ? AND kcu.referenced_table_name IS NOT NULL
ORDER BY kcu.table_name, kcu.constraint_name, kcu.ordinal_position`

func (l *mariadbLoader) loadForeignKeys(ctx context.Context, s *model.Schema) error {
	var rows []mdbForeignKeyRow
	if err := l.db.SelectContext(ctx, &rows, mdbForeignKeysQuery, l.schema); err != nil {
		return fault.Catalog(err, "query foreign keys")
	}
	for _, row := range rows {
		t, ok := s.Tables[row.TableName]
		if !ok {
			continue
		}
		fk, ok := t.ForeignKeys[row.ConstraintName]
		if !ok {
			fk = &model.ForeignKey{
				Name:     row.ConstraintName,
				RefTable: row.RefTable,
				OnUpdate: row.UpdateRule,
				OnDelete: row.DeleteRule,
			}
			t.ForeignKeys[row.ConstraintName] = fk
		}
		fk.Columns = append(fk.Columns, row.ColumnName)
		fk.RefColumns = append(fk.RefColumns, row.RefColumn)
	}
	return nil
}

type mdbCheckRow struct {
	TableName      string `db:"table_name"`
	ConstraintName string `db:"constraint_name"`
	CheckClause    string `db:"check_clause"`
}

const mdbChecksQuery = `
SELECT
  table_name AS table_name,
  constraint_name AS constraint_name,
  check_clause AS check_clause
FROM information_schema.check_constraints
WHERE constraint_schema = ?
ORDER BY table_name, constraint_name`

func (l *mariadbLoader) loadChecks(ctx context.Context, s *model.Schema) error {
	var rows []mdbCheckRow
	if err := l.db.SelectContext(ctx, &rows, mdbChecksQuery, l.schema); err != nil {
		return fault.Catalog(err, "query check constraints")
	}
	for _, row := range rows {
		t, ok := s.Tables[row.TableName]
		if !ok {
			continue
		}
		t.Checks[row.ConstraintName] = &model.Check{Name: row.ConstraintName, Expression: row.CheckClause}
	}
	return nil
}

type mdbViewRow struct {
	Name       string         `db:"table_name"`
	Definition sql.NullString `db:"view_definition"`
}

const mdbViewsQuery = `
SELECT
  table_name AS table_name,
  view_definition AS view_definition
FROM information_schema.views
WHERE table_schema = ?
ORDER BY table_name`

func (l *mariadbLoader) loadViews(ctx context.Context, s *model.Schema) error {
	var rows []mdbViewRow
	if err := l.db.SelectContext(ctx, &rows, mdbViewsQuery, l.schema); err != nil {
		return fault.Catalog(err, "query views")
	}
	for _, row := range rows {
		s.Views[row.Name] = &model.View{Name: row.Name, Definition: row.Definition.String}
	}
	return nil
}

type mdbRoutineRow struct {
	Name       string         `db:"routine_name"`
	Type       string         `db:"routine_type"`
	Body       string         `db:"routine_body"`
	Definition sql.NullString `db:"routine_definition"`
}

const mdbRoutinesQuery = `
SELECT
  routine_name AS routine_name,
  routine_type AS routine_type,
  routine_body AS routine_body,
  routine_definition AS routine_definition
FROM information_schema.routines
WHERE routine_schema = ?
ORDER BY routine_name`

func (l *mariadbLoader) loadRoutines(ctx context.Context, s *model.Schema) error {
	var rows []mdbRoutineRow
	if err := l.db.SelectContext(ctx, &rows, mdbRoutinesQuery, l.schema); err != nil {
		return fault.Catalog(err, "query routines")
	}
	for _, row := range rows {
		kind := model.RoutineFunction
		if strings.EqualFold(row.Type, "PROCEDURE") {
			kind = model.RoutineProcedure
		}
		r := &model.Routine{
			Kind:     kind,
			Name:     row.Name,
			Language: strings.ToLower(row.Body),
			Body:     row.Definition.String,
		}
		s.Routines[r.Key()] = r
	}
	return nil
}

type mdbTriggerRow struct {
	TableName string `db:"event_object_table"`
	Name      string `db:"trigger_name"`
	Timing    string `db:"action_timing"`
	Event     string `db:"event_manipulation"`
	Statement string `db:"action_statement"`
}

const mdbTriggersQuery = `
SELECT
  event_object_table AS event_object_table,
  trigger_name AS trigger_name,
  action_timing AS action_timing,
  event_manipulation AS event_manipulation,
  action_statement AS action_statement
FROM information_schema.triggers
WHERE trigger_schema = ?
ORDER BY event_object_table, trigger_name, event_manipulation`

func (l *mariadbLoader) loadTriggers(ctx context.Context, s *model.Schema) error {
	var rows []mdbTriggerRow
	if err := l.db.SelectContext(ctx, &rows, mdbTriggersQuery, l.schema); err != nil {
		return fault.Catalog(err, "query triggers")
	}
	for _, row := range rows {
		key := row.TableName + "." + row.Name
		tr, ok := s.Triggers[key]
		if !ok {
			tr = &model.Trigger{
				Table:  row.TableName,
				Name:   row.Name,
				Timing: model.TriggerTiming(strings.ToLower(row.Timing)),
				Body:   row.Statement,
			}
			s.Triggers[key] = tr
		}
		appendUnique(&tr.Events, strings.ToLower(row.Event))
	}
	return nil
}
