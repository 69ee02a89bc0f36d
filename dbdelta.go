// Package dbdelta provides a programmatic API for comparing two live
// relational schemas and generating a migration script. The pipeline is
// load → normalize → diff → generate; everything after loading is a pure
// function, so the same inputs always produce the same script.
package dbdelta

import (
	"context"

	"github.com/dbdelta/dbdelta/internal/conn"
	"github.com/dbdelta/dbdelta/internal/diff"
	"github.com/dbdelta/dbdelta/internal/gen"
	"github.com/dbdelta/dbdelta/internal/load"
	"github.com/dbdelta/dbdelta/internal/model"
)

// NewSchema creates an empty schema model.
func NewSchema(name string) *Schema { return model.NewSchema(name) }

// NewTable creates an empty table.
func NewTable(name string) *Table { return model.NewTable(name) }

// ParseURL parses a connection URL of the shape
// {postgres|mariadb}://user[:pass]@host[:port]/database?schema=NAME[&ssl=true].
func ParseURL(raw string) (*Connection, error) {
	return conn.ParseURL(raw)
}

// Load introspects one schema, dispatching on the connection's engine.
func Load(ctx context.Context, cfg *Connection) (*Schema, error) {
	return load.Load(ctx, cfg)
}

// LoadPostgres introspects one PostgreSQL schema.
func LoadPostgres(ctx context.Context, cfg *Connection) (*Schema, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return load.LoadPostgres(ctx, cfg)
}

// LoadMariaDB introspects one MariaDB schema.
func LoadMariaDB(ctx context.Context, cfg *Connection) (*Schema, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return load.LoadMariaDB(ctx, cfg)
}

// Normalize returns a normalized deep copy of the schema. The input is not
// mutated and the operation is idempotent.
func Normalize(s *Schema, opts NormalizeOptions) *Schema {
	return model.Normalize(s, opts)
}

// ComputeDiff compares two normalized schemas. In the result, added means
// present in B only and removed means present in A only.
func ComputeDiff(a, b *Schema) *DiffResult {
	return diff.Compute(a, b)
}

// ToPostgres renders the migration script for a PostgreSQL target.
func ToPostgres(d *DiffResult, opts GenerateOptions) (string, error) {
	return gen.ToPostgres(d, opts)
}

// ToMariaDB renders the migration script for a MariaDB target.
func ToMariaDB(d *DiffResult, opts GenerateOptions) (string, error) {
	return gen.ToMariaDB(d, opts)
}
