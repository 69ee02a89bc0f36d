package dbdelta

import (
	"github.com/dbdelta/dbdelta/internal/conn"
	"github.com/dbdelta/dbdelta/internal/diff"
	"github.com/dbdelta/dbdelta/internal/gen"
	"github.com/dbdelta/dbdelta/internal/model"
)

// Re-exported types for external consumption.

// Connection is a connection descriptor for one schema endpoint.
type Connection = conn.Config

// Engine identifies the target database engine.
type Engine = conn.Kind

// Supported engines.
const (
	EnginePostgres = conn.KindPostgres
	EngineMariaDB  = conn.KindMariaDB
)

// Schema is the dialect-neutral model of one database schema.
type Schema = model.Schema

// Table represents a base table with its columns and table-level objects.
type Table = model.Table

// Column represents a table column.
type Column = model.Column

// Index represents a secondary index.
type Index = model.Index

// ForeignKey represents a foreign-key constraint.
type ForeignKey = model.ForeignKey

// View represents a view and its definition.
type View = model.View

// Routine represents a stored function or procedure.
type Routine = model.Routine

// Trigger represents a table trigger.
type Trigger = model.Trigger

// NormalizeOptions configures Normalize.
type NormalizeOptions = model.NormalizeOptions

// NameCase configures name folding during normalization.
type NameCase = model.NameCase

// DiffResult describes how schema A differs from schema B.
type DiffResult = diff.Result

// DiffSummary holds per-bucket change counts.
type DiffSummary = diff.Summary

// GenerateOptions control migration script generation.
type GenerateOptions = gen.Options

// Direction selects which side of the diff is the desired end state.
type Direction = gen.Direction

// Directions.
const (
	AtoB = gen.AtoB
	BtoA = gen.BtoA
)
