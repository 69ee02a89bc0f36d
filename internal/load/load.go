// Package load introspects a live database catalog into a schema model.
// One adapter exists per supported engine; both produce the same
// dialect-neutral model.
package load

import (
	"context"

	"github.com/dbdelta/dbdelta/internal/conn"
	"github.com/dbdelta/dbdelta/internal/fault"
	"github.com/dbdelta/dbdelta/internal/logger"
	"github.com/dbdelta/dbdelta/internal/model"
	"golang.org/x/sync/errgroup"
)

// maxConns caps each loader's pool so introspection cannot overwhelm small
// databases.
const maxConns = 2

// Load validates the descriptor, dispatches to the engine adapter and
// returns the complete schema model. The connection is released on every
// exit path.
func Load(ctx context.Context, cfg *conn.Config) (*model.Schema, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.Get()
	log.Debug("loading schema",
		"engine", string(cfg.Kind),
		"addr", cfg.Addr(),
		"database", cfg.Database,
		"schema", cfg.Schema,
	)

	switch cfg.Kind {
	case conn.KindPostgres:
		return LoadPostgres(ctx, cfg)
	case conn.KindMariaDB:
		return LoadMariaDB(ctx, cfg)
	default:
		return nil, fault.Config("unsupported engine %q", cfg.Kind)
	}
}

// Pair loads two schemas concurrently. Each load owns a private connection
// pool; a failure on either side cancels the other.
func Pair(ctx context.Context, from, to *conn.Config) (*model.Schema, *model.Schema, error) {
	var a, b *model.Schema
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		a, err = Load(ctx, from)
		return err
	})
	g.Go(func() (err error) {
		b, err = Load(ctx, to)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
