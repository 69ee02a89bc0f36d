package cmd

import (
	"context"

	"github.com/dbdelta/dbdelta/internal/conn"
	"github.com/dbdelta/dbdelta/internal/diff"
	"github.com/dbdelta/dbdelta/internal/fault"
	"github.com/dbdelta/dbdelta/internal/fingerprint"
	"github.com/dbdelta/dbdelta/internal/load"
	"github.com/dbdelta/dbdelta/internal/logger"
	"github.com/dbdelta/dbdelta/internal/model"
	"github.com/spf13/cobra"
)

// Environment fallbacks for the endpoint flags.
const (
	envFrom = "DBDELTA_FROM"
	envTo   = "DBDELTA_TO"
)

// endpointFlags are the flags shared by compare, generate and prompt.
type endpointFlags struct {
	from   string
	to     string
	schema string
}

func (f *endpointFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "Connection URL of schema A (env "+envFrom+")")
	cmd.Flags().StringVar(&f.to, "to", "", "Connection URL of schema B (env "+envTo+")")
	cmd.Flags().StringVar(&f.schema, "schema", "", "Schema name, overrides the URL ?schema= parameter")
}

// resolve parses both endpoint URLs, applying env fallbacks and the --schema
// override.
func (f *endpointFlags) resolve(getenv func(string) string) (from, to *conn.Config, err error) {
	fromURL := f.from
	if fromURL == "" {
		fromURL = getenv(envFrom)
	}
	if fromURL == "" {
		return nil, nil, fault.Config("no source A: pass --from or set %s", envFrom)
	}
	toURL := f.to
	if toURL == "" {
		toURL = getenv(envTo)
	}
	if toURL == "" {
		return nil, nil, fault.Config("no source B: pass --to or set %s", envTo)
	}

	if from, err = conn.ParseURL(fromURL); err != nil {
		return nil, nil, err
	}
	if to, err = conn.ParseURL(toURL); err != nil {
		return nil, nil, err
	}
	if f.schema != "" {
		from.Schema = f.schema
		to.Schema = f.schema
	}
	return from, to, nil
}

// comparison is the output of the shared pipeline.
type comparison struct {
	result          *diff.Result
	fromFingerprint *fingerprint.Fingerprint
	toFingerprint   *fingerprint.Fingerprint
}

// compare runs the shared pipeline: concurrent load, normalize, fingerprint,
// diff. When the fingerprints match, the diff is skipped entirely.
func compare(ctx context.Context, from, to *conn.Config) (*comparison, error) {
	a, b, err := load.Pair(ctx, from, to)
	if err != nil {
		return nil, err
	}
	opts := model.NormalizeOptions{NormalizeDefaults: true}
	a, b = model.Normalize(a, opts), model.Normalize(b, opts)

	fa, err := fingerprint.Compute(a)
	if err != nil {
		return nil, err
	}
	fb, err := fingerprint.Compute(b)
	if err != nil {
		return nil, err
	}
	log := logger.Get()
	log.Debug("schemas fingerprinted", "a", fa.Short(), "b", fb.Short())

	c := &comparison{fromFingerprint: fa, toFingerprint: fb}
	if fa.Equal(fb) {
		c.result = &diff.Result{}
		return c, nil
	}
	c.result = diff.Compute(a, b)
	return c, nil
}
