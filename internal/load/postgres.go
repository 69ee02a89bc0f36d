package load

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/dbdelta/dbdelta/internal/conn"
	"github.com/dbdelta/dbdelta/internal/fault"
	"github.com/dbdelta/dbdelta/internal/model"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// LoadPostgres introspects one PostgreSQL schema into a model.
func LoadPostgres(ctx context.Context, cfg *conn.Config) (*model.Schema, error) {
	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		return nil, fault.Connect(err, "open postgres connection to %s", cfg.Addr())
	}
	defer db.Close()
	db.SetMaxOpenConns(maxConns)

	if err := db.PingContext(ctx); err != nil {
		return nil, fault.Connect(err, "connect to postgres at %s", cfg.Addr())
	}

	l := &postgresLoader{db: db, schema: cfg.Schema}
	return l.load(ctx)
}

type postgresLoader struct {
	db     *sql.DB
	schema string
}

// load assembles the model incrementally: tables first, then per-table
// objects keyed back to their tables, then schema-level objects.
func (l *postgresLoader) load(ctx context.Context) (*model.Schema, error) {
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

const pgTablesQuery = `
SELECT c.relname
FROM pg_catalog.pg_class c
JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = $1 AND c.relkind IN ('r', 'p')
ORDER BY c.relname`

func (l *postgresLoader) loadTables(ctx context.Context, s *model.Schema) error {
	rows, err := l.db.QueryContext(ctx, pgTablesQuery, l.schema)
	if err != nil {
		return fault.Catalog(err, "query pg_class")
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fault.Catalog(err, "scan table row")
		}
		s.Tables[name] = model.NewTable(name)
	}
	return rows.Err()
}

const pgColumnsQuery = `
SELECT
  c.table_name,
  c.column_name,
  c.data_type,
  c.character_maximum_length,
  c.numeric_precision,
  c.numeric_scale,
  c.is_nullable,
  c.column_default,
  c.is_identity,
  c.collation_name
FROM information_schema.columns c
WHERE c.table_schema = $1
ORDER BY c.table_name, c.ordinal_position`

func (l *postgresLoader) loadColumns(ctx context.Context, s *model.Schema) error {
	rows, err := l.db.QueryContext(ctx, pgColumnsQuery, l.schema)
	if err != nil {
		return fault.Catalog(err, "query information_schema.columns")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tableName, columnName, dataType, isNullable, isIdentity string
			maxLength, precision, scale                             sql.NullInt64
			columnDefault, collation                                sql.NullString
		)
		if err := rows.Scan(&tableName, &columnName, &dataType, &maxLength, &precision, &scale,
			&isNullable, &columnDefault, &isIdentity, &collation); err != nil {
			return fault.Catalog(err, "scan column row")
		}
		t, ok := s.Tables[tableName]
		if !ok {
			// Views also appear in information_schema.columns.
			continue
		}

		c := &model.Column{
			Name:      columnName,
			DataType:  dataType,
			Nullable:  isNullable == "YES",
			Generated: model.GenerationNone,
			Collation: collation.String,
		}
		if maxLength.Valid {
			v := int(maxLength.Int64)
			c.Length = &v
		}
		// Every integer type reports a storage precision; only keep
		// user-declared precision so cross-dialect diffs stay quiet.
		if isNumericType(dataType) {
			if precision.Valid {
				v := int(precision.Int64)
				c.Precision = &v
			}
			if scale.Valid {
				v := int(scale.Int64)
				c.Scale = &v
			}
		}
		if columnDefault.Valid {
			d := columnDefault.String
			c.Default = &d
		}
		switch {
		case isIdentity == "YES":
			c.Generated = model.GenerationIdentity
		case columnDefault.Valid && strings.HasPrefix(columnDefault.String, "nextval("):
			// Owned-sequence default, i.e. serial columns.
			c.Generated = model.GenerationSequence
			c.Default = nil
		}
		t.Columns = append(t.Columns, c)
	}
	return rows.Err()
}

func isNumericType(dataType string) bool {
	switch strings.ToLower(dataType) {
	case "numeric", "decimal":
		return true
	default:
		return false
	}
}

const pgPrimaryKeysQuery = `
SELECT tc.table_name, tc.constraint_name, kcu.column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_schema = tc.constraint_schema AND kcu.constraint_name = tc.constraint_name
WHERE tc.table_schema = $1 AND tc.constraint_type = 'PRIMARY KEY'
ORDER BY tc.table_name, kcu.ordinal_position`

func (l *postgresLoader) loadPrimaryKeys(ctx context.Context, s *model.Schema) error {
	rows, err := l.db.QueryContext(ctx, pgPrimaryKeysQuery, l.schema)
	if err != nil {
		return fault.Catalog(err, "query primary keys")
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, constraintName, columnName string
		if err := rows.Scan(&tableName, &constraintName, &columnName); err != nil {
			return fault.Catalog(err, "scan primary key row")
		}
		t, ok := s.Tables[tableName]
		if !ok {
			continue
		}
		if t.PrimaryKey == nil {
			t.PrimaryKey = &model.PrimaryKey{Name: constraintName}
		}
		t.PrimaryKey.Columns = append(t.PrimaryKey.Columns, columnName)
	}
	return rows.Err()
}

const pgIndexesQuery = `
SELECT i.tablename, i.indexname, i.indexdef
FROM pg_catalog.pg_indexes i
WHERE i.schemaname = $1
ORDER BY i.tablename, i.indexname`

// pgIndexDef recovers uniqueness, the access method and the parenthesized
// column list from a pg_indexes.indexdef text blob.
var pgIndexDef = regexp.MustCompile(`(?i)^CREATE\s+(UNIQUE\s+)?INDEX\s+\S+\s+ON\s+\S+(?:\s+USING\s+(\w+))?\s*\((.+?)\)(?:\s+WHERE\s+.+)?$`)

func (l *postgresLoader) loadIndexes(ctx context.Context, s *model.Schema) error {
	rows, err := l.db.QueryContext(ctx, pgIndexesQuery, l.schema)
	if err != nil {
		return fault.Catalog(err, "query pg_indexes")
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, indexName, indexDef string
		if err := rows.Scan(&tableName, &indexName, &indexDef); err != nil {
			return fault.Catalog(err, "scan index row")
		}
		t, ok := s.Tables[tableName]
		if !ok {
			continue
		}
		// The primary-key index is modeled on Table.PrimaryKey.
		if t.PrimaryKey != nil && t.PrimaryKey.Name == indexName {
			continue
		}

		m := pgIndexDef.FindStringSubmatch(strings.TrimSpace(indexDef))
		if m == nil {
			return fault.Catalog(nil, "index %s.%s: unparsable indexdef %q", tableName, indexName, indexDef)
		}
		idx := &model.Index{
			Name:   indexName,
			Unique: m[1] != "",
			Using:  strings.ToLower(m[2]),
		}
		for _, col := range strings.Split(m[3], ",") {
			col = strings.TrimSpace(col)
			col = strings.Trim(col, `"`)
			if col != "" {
				idx.Columns = append(idx.Columns, col)
			}
		}
		t.Indexes[indexName] = idx
	}
	return rows.Err()
}

const pgForeignKeysQuery = `
SELECT
  tc.table_name,
  tc.constraint_name,
  kcu.column_name,
  ccu.table_name AS referenced_table,
  ccu.column_name AS referenced_column,
  rc.update_rule,
  rc.delete_rule
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
  ON kcu.constraint_schema = tc.constraint_schema AND kcu.constraint_name = tc.constraint_name
JOIN information_schema.referential_constraints rc
  ON rc.constraint_schema = tc.constraint_schema AND rc.constraint_name = tc.constraint_name
JOIN information_schema.constraint_column_usage ccu
  ON ccu.constraint_schema = tc.constraint_schema AND ccu.constraint_name = tc.constraint_name
WHERE tc.table_schema = $1 AND tc.constraint_type = 'FOREIGN KEY'
ORDER BY tc.table_name, tc.constraint_name, kcu.ordinal_position`

func (l *postgresLoader) loadForeignKeys(ctx context.Context, s *model.Schema) error {
	rows, err := l.db.QueryContext(ctx, pgForeignKeysQuery, l.schema)
	if err != nil {
		return fault.Catalog(err, "query foreign keys")
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, constraintName, columnName, refTable, refColumn, updateRule, deleteRule string
		if err := rows.Scan(&tableName, &constraintName, &columnName, &refTable, &refColumn,
			&updateRule, &deleteRule); err != nil {
			return fault.Catalog(err, "scan foreign key row")
		}
		t, ok := s.Tables[tableName]
		if !ok {
			continue
		}
		fk, ok := t.ForeignKeys[constraintName]
		if !ok {
			fk = &model.ForeignKey{
				Name:     constraintName,
				RefTable: refTable,
				OnUpdate: updateRule,
				OnDelete: deleteRule,
			}
			t.ForeignKeys[constraintName] = fk
		}
		appendUnique(&fk.Columns, columnName)
		appendUnique(&fk.RefColumns, refColumn)
	}
	return rows.Err()
}

// appendUnique accumulates constraint columns in ordinal order while
// filtering the row multiplication the constraint_column_usage join produces
// for multi-column keys.
func appendUnique(list *[]string, name string) {
	for _, have := range *list {
		if have == name {
			return
		}
	}
	*list = append(*list, name)
}

const pgChecksQuery = `
SELECT tc.table_name, tc.constraint_name, cc.check_clause
FROM information_schema.table_constraints tc
JOIN information_schema.check_constraints cc
  ON cc.constraint_schema = tc.constraint_schema AND cc.constraint_name = tc.constraint_name
WHERE tc.table_schema = $1 AND tc.constraint_type = 'CHECK'
  AND tc.constraint_name NOT LIKE '%_not_null'
ORDER BY tc.table_name, tc.constraint_name`

func (l *postgresLoader) loadChecks(ctx context.Context, s *model.Schema) error {
	rows, err := l.db.QueryContext(ctx, pgChecksQuery, l.schema)
	if err != nil {
		return fault.Catalog(err, "query check constraints")
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, constraintName, checkClause string
		if err := rows.Scan(&tableName, &constraintName, &checkClause); err != nil {
			return fault.Catalog(err, "scan check row")
		}
		t, ok := s.Tables[tableName]
		if !ok {
			continue
		}
		t.Checks[constraintName] = &model.Check{Name: constraintName, Expression: checkClause}
	}
	return rows.Err()
}

const pgViewsQuery = `
SELECT table_name, view_definition
FROM information_schema.views
WHERE table_schema = $1
ORDER BY table_name`

func (l *postgresLoader) loadViews(ctx context.Context, s *model.Schema) error {
	rows, err := l.db.QueryContext(ctx, pgViewsQuery, l.schema)
	if err != nil {
		return fault.Catalog(err, "query views")
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var definition sql.NullString
		if err := rows.Scan(&name, &definition); err != nil {
			return fault.Catalog(err, "scan view row")
		}
		s.Views[name] = &model.View{Name: name, Definition: definition.String}
	}
	return rows.Err()
}

const pgRoutinesQuery = `
SELECT
  p.proname,
  CASE p.prokind WHEN 'p' THEN 'procedure' ELSE 'function' END AS kind,
  l.lanname,
  pg_catalog.pg_get_functiondef(p.oid)
FROM pg_catalog.pg_proc p
JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
JOIN pg_catalog.pg_language l ON l.oid = p.prolang
WHERE n.nspname = $1 AND p.prokind IN ('f', 'p')
ORDER BY p.proname`

func (l *postgresLoader) loadRoutines(ctx context.Context, s *model.Schema) error {
	rows, err := l.db.QueryContext(ctx, pgRoutinesQuery, l.schema)
	if err != nil {
		return fault.Catalog(err, "query pg_proc")
	}
	defer rows.Close()

	for rows.Next() {
		var name, kind, language string
		var body sql.NullString
		if err := rows.Scan(&name, &kind, &language, &body); err != nil {
			return fault.Catalog(err, "scan routine row")
		}
		r := &model.Routine{
			Kind:     model.RoutineKind(kind),
			Name:     name,
			Language: language,
			Body:     body.String,
		}
		s.Routines[r.Key()] = r
	}
	return rows.Err()
}

const pgTriggersQuery = `
SELECT event_object_table, trigger_name, action_timing, event_manipulation, action_statement
FROM information_schema.triggers
WHERE trigger_schema = $1
ORDER BY event_object_table, trigger_name, event_manipulation`

func (l *postgresLoader) loadTriggers(ctx context.Context, s *model.Schema) error {
	rows, err := l.db.QueryContext(ctx, pgTriggersQuery, l.schema)
	if err != nil {
		return fault.Catalog(err, "query triggers")
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, triggerName, timing, event, statement string
		if err := rows.Scan(&tableName, &triggerName, &timing, &event, &statement); err != nil {
			return fault.Catalog(err, "scan trigger row")
		}
		key := tableName + "." + triggerName
		tr, ok := s.Triggers[key]
		if !ok {
			tr = &model.Trigger{
				Table:  tableName,
				Name:   triggerName,
				Timing: model.TriggerTiming(strings.ToLower(timing)),
				Body:   statement,
			}
			s.Triggers[key] = tr
		}
		appendUnique(&tr.Events, strings.ToLower(event))
	}
	return rows.Err()
}
