package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// CaseStrategy selects how object names are folded during normalization.
type CaseStrategy string

const (
	CasePreserve CaseStrategy = "preserve"
	CaseLower    CaseStrategy = "lower"
	CaseUpper    CaseStrategy = "upper"
)

// NameCase configures name folding. Names listed in Ignore bypass folding.
type NameCase struct {
	Strategy CaseStrategy `json:"strategy"`
	Ignore   []string     `json:"ignore,omitempty"`
}

// NormalizeOptions configures Normalize.
type NormalizeOptions struct {
	// NameCase folds object names; nil means lowercase, the engine default.
	NameCase *NameCase
	// NormalizeDefaults enables default-expression canonicalization.
	NormalizeDefaults bool
	// TypeMap augments (and overrides) the built-in type-synonym table.
	// Keys are matched case-insensitively.
	TypeMap map[string]string
}

// builtinTypeSynonyms collapses dialect type spellings to one canonical,
// lowercase token. Keys with a parenthesized length are matched against the
// rendered "type(length)" form.
var builtinTypeSynonyms = map[string]string{
	"double precision":            "double",
	"character varying":           "varchar",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestamptz",
	"integer":                     "int",
	"int4":                        "int",
	"int8":                        "bigint",
	"int2":                        "smallint",
	"tinyint(1)":                  "boolean",
	"bool":                        "boolean",
	"bit(1)":                      "boolean",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize returns a normalized deep copy of s. The input is not mutated.
// Normalization is idempotent: applying it twice yields the same model.
func Normalize(s *Schema, opts NormalizeOptions) *Schema {
	out := s.Clone()
	fold := newNameFolder(opts.NameCase)
	types := newTypeMapper(opts.TypeMap)

	tables := make(map[string]*Table, len(out.Tables))
	for _, t := range out.Tables {
		normalizeTable(t, fold, types, opts.NormalizeDefaults)
		tables[t.Name] = t
	}
	out.Tables = tables

	views := make(map[string]*View, len(out.Views))
	for _, v := range out.Views {
		v.Name = fold(v.Name)
		views[v.Name] = v
	}
	out.Views = views

	routines := make(map[string]*Routine, len(out.Routines))
	for _, r := range out.Routines {
		r.Name = fold(r.Name)
		routines[r.Key()] = r
	}
	out.Routines = routines

	triggers := make(map[string]*Trigger, len(out.Triggers))
	for _, tr := range out.Triggers {
		tr.Name = fold(tr.Name)
		tr.Table = fold(tr.Table)
		tr.Timing = TriggerTiming(strings.ToLower(string(tr.Timing)))
		tr.Events = normalizeEvents(tr.Events)
		triggers[tr.Key()] = tr
	}
	out.Triggers = triggers

	return out
}

func normalizeTable(t *Table, fold nameFolder, types typeMapper, defaults bool) {
	t.Name = fold(t.Name)

	for _, c := range t.Columns {
		c.Name = fold(c.Name)
		types(c)
		if defaults && c.Default != nil {
			d := NormalizeDefault(*c.Default)
			c.Default = &d
		}
	}

	if pk := t.PrimaryKey; pk != nil {
		pk.Name = fold(pk.Name)
		foldAll(pk.Columns, fold)
	}

	indexes := make(map[string]*Index, len(t.Indexes))
	for _, idx := range t.Indexes {
		idx.Name = fold(idx.Name)
		foldAll(idx.Columns, fold)
		indexes[idx.Name] = idx
	}
	t.Indexes = indexes

	checks := make(map[string]*Check, len(t.Checks))
	for _, ck := range t.Checks {
		ck.Name = fold(ck.Name)
		ck.Expression = CollapseWhitespace(ck.Expression)
		checks[ck.Name] = ck
	}
	t.Checks = checks

	fks := make(map[string]*ForeignKey, len(t.ForeignKeys))
	for _, fk := range t.ForeignKeys {
		fk.Name = fold(fk.Name)
		foldAll(fk.Columns, fold)
		fk.RefTable = fold(fk.RefTable)
		foldAll(fk.RefColumns, fold)
		fk.OnUpdate = strings.ToUpper(fk.OnUpdate)
		fk.OnDelete = strings.ToUpper(fk.OnDelete)
		fks[fk.Name] = fk
	}
	t.ForeignKeys = fks
}

type nameFolder func(string) string

func newNameFolder(nc *NameCase) nameFolder {
	strategy := CaseLower
	var ignore map[string]bool
	if nc != nil {
		strategy = nc.Strategy
		if len(nc.Ignore) > 0 {
			ignore = make(map[string]bool, len(nc.Ignore))
			for _, name := range nc.Ignore {
				ignore[name] = true
			}
		}
	}
	return func(name string) string {
		if name == "" || ignore[name] {
			return name
		}
		switch strategy {
		case CaseUpper:
			return strings.ToUpper(name)
		case CasePreserve:
			return name
		default:
			return strings.ToLower(name)
		}
	}
}

func foldAll(names []string, fold nameFolder) {
	for i, name := range names {
		names[i] = fold(name)
	}
}

type typeMapper func(*Column)

func newTypeMapper(userMap map[string]string) typeMapper {
	merged := make(map[string]string, len(builtinTypeSynonyms)+len(userMap))
	for from, to := range builtinTypeSynonyms {
		merged[from] = to
	}
	for from, to := range userMap {
		merged[strings.ToLower(from)] = strings.ToLower(to)
	}
	return func(c *Column) {
		dt := strings.ToLower(strings.TrimSpace(c.DataType))
		// The "type(length)" spelling first, so tinyint(1) and bit(1)
		// collapse to boolean and shed their length.
		if c.Length != nil {
			if canonical, ok := merged[fmt.Sprintf("%s(%d)", dt, *c.Length)]; ok {
				c.DataType = canonical
				c.Length = nil
				return
			}
		}
		if canonical, ok := merged[dt]; ok {
			c.DataType = canonical
			return
		}
		c.DataType = dt
	}
}

// NormalizeDefault canonicalizes a default expression: surrounding
// whitespace is trimmed, fully-wrapping parentheses are stripped
// iteratively, and now() becomes CURRENT_TIMESTAMP.
func NormalizeDefault(expr string) string {
	expr = strings.TrimSpace(expr)
	for fullyWrapped(expr) {
		inner := strings.TrimSpace(expr[1 : len(expr)-1])
		if inner == "" {
			break
		}
		expr = inner
	}
	if strings.EqualFold(expr, "now()") {
		return "CURRENT_TIMESTAMP"
	}
	return expr
}

// fullyWrapped reports whether expr is enclosed by one matching pair of
// parentheses, e.g. "(now())" but not "(a),(b)".
func fullyWrapped(expr string) bool {
	if len(expr) < 2 || expr[0] != '(' || expr[len(expr)-1] != ')' {
		return false
	}
	depth := 0
	for i, r := range expr {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && i < len(expr)-1 {
			return false
		}
	}
	return depth == 0
}

// CollapseWhitespace trims expr and collapses internal whitespace runs to a
// single space.
func CollapseWhitespace(expr string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(expr, " "))
}

// normalizeEvents lowercases, deduplicates and orders trigger events as
// insert, update, delete; unknown events sort after the known ones.
func normalizeEvents(events []string) []string {
	seen := make(map[string]bool, len(events))
	var out []string
	for _, ev := range events {
		ev = strings.ToLower(strings.TrimSpace(ev))
		if ev == "" || seen[ev] {
			continue
		}
		seen[ev] = true
		out = append(out, ev)
	}
	rank := map[string]int{EventInsert: 0, EventUpdate: 1, EventDelete: 2}
	sort.SliceStable(out, func(i, j int) bool {
		ri, iKnown := rank[out[i]]
		rj, jKnown := rank[out[j]]
		switch {
		case iKnown && jKnown:
			return ri < rj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}
