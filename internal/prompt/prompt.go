// Package prompt renders a migration review prompt in Markdown. The output
// is meant to be pasted into a review thread or an assistant alongside the
// generated script.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dbdelta/dbdelta/internal/diff"
)

const (
	maxDiffChars = 1000
	maxSQLChars  = 4000
)

// Meta carries the comparison context shown in the prompt header. Endpoint
// strings must already be credential-free.
type Meta struct {
	From      string
	To        string
	Schema    string
	Target    string
	Direction string
}

// Build renders the review prompt for one comparison.
func Build(d *diff.Result, sql string, meta Meta) string {
	var b strings.Builder

	b.WriteString("# Schema migration review\n\n")
	fmt.Fprintf(&b, "- Source (A): `%s`\n", meta.From)
	fmt.Fprintf(&b, "- Source (B): `%s`\n", meta.To)
	if meta.Schema != "" {
		fmt.Fprintf(&b, "- Schema: `%s`\n", meta.Schema)
	}
	if meta.Target != "" {
		fmt.Fprintf(&b, "- Target dialect: %s\n", meta.Target)
	}
	if meta.Direction != "" {
		fmt.Fprintf(&b, "- Direction: %s\n", meta.Direction)
	}
	b.WriteString("\n## Summary\n\n")

	s := d.Summary()
	b.WriteString("| Object | Added | Changed | Removed |\n")
	b.WriteString("|--------|-------|---------|---------|\n")
	writeSummaryRow(&b, "Tables", s.Tables)
	writeSummaryRow(&b, "Views", s.Views)
	writeSummaryRow(&b, "Routines", s.Routines)
	writeSummaryRow(&b, "Triggers", s.Triggers)

	b.WriteString("\n## Diff (excerpt)\n\n```json\n")
	b.WriteString(truncate(diffJSON(d), maxDiffChars))
	b.WriteString("\n```\n")

	b.WriteString("\n## Proposed script (excerpt)\n\n```sql\n")
	b.WriteString(truncate(strings.TrimRight(sql, "\n"), maxSQLChars))
	b.WriteString("\n```\n")

	b.WriteString(`
## Review checklist

- [ ] Destructive statements (drops) are intended and data loss is acceptable.
- [ ] Column type changes have valid casts for existing rows.
- [ ] New NOT NULL columns have defaults or the tables are empty.
- [ ] Index rebuilds are sized for the table and can run in the maintenance window.
- [ ] TODO markers in the script have been resolved by hand.
`)

	return b.String()
}

func writeSummaryRow(b *strings.Builder, label string, c diff.BucketCounts) {
	fmt.Fprintf(b, "| %s | %d | %d | %d |\n", label, c.Added, c.Changed, c.Removed)
}

func diffJSON(d *diff.Result) string {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// truncate cuts s at limit, preferring the last full line, and marks the cut.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	return cut + "\n… truncated …"
}
