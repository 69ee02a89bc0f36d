package dbdelta

import (
	"context"

	"github.com/dbdelta/dbdelta/internal/diff"
	"github.com/dbdelta/dbdelta/internal/load"
	"github.com/dbdelta/dbdelta/internal/model"
)

// CompareURLs is a convenience function that parses both URLs, loads the two
// schemas concurrently, normalizes them and computes the diff.
func CompareURLs(ctx context.Context, fromURL, toURL, schema string, opts NormalizeOptions) (*DiffResult, error) {
	from, err := ParseURL(fromURL)
	if err != nil {
		return nil, err
	}
	to, err := ParseURL(toURL)
	if err != nil {
		return nil, err
	}
	if schema != "" {
		from.Schema = schema
		to.Schema = schema
	}

	a, b, err := load.Pair(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return diff.Compute(model.Normalize(a, opts), model.Normalize(b, opts)), nil
}

// CompareSchemas normalizes both models with the same options and diffs them.
func CompareSchemas(a, b *Schema, opts NormalizeOptions) *DiffResult {
	return ComputeDiff(Normalize(a, opts), Normalize(b, opts))
}
