// Package diff computes a structured, symmetric delta between two
// normalized schema models.
package diff

import (
	"sort"
	"strings"

	"github.com/dbdelta/dbdelta/internal/model"
)

// Compute compares two normalized schema models and returns their delta.
// Added entries come from b only, Removed entries from a only. Compute is a
// pure function: identical input pairs yield identical results.
func Compute(a, b *model.Schema) *Result {
	r := &Result{}
	diffTables(a, b, r)
	diffViews(a, b, r)
	diffRoutines(a, b, r)
	diffTriggers(a, b, r)
	return r
}

func diffTables(a, b *model.Schema, r *Result) {
	for _, name := range b.TableNames() {
		tb := b.Tables[name]
		ta, ok := a.Tables[name]
		if !ok {
			r.Tables.Added = append(r.Tables.Added, tb.Clone())
			continue
		}
		if tc := diffTable(ta, tb); tc != nil {
			r.Tables.Changed = append(r.Tables.Changed, tc)
		}
	}
	for _, name := range a.TableNames() {
		if _, ok := b.Tables[name]; !ok {
			r.Tables.Removed = append(r.Tables.Removed, a.Tables[name].Clone())
		}
	}
}

func diffViews(a, b *model.Schema, r *Result) {
	for _, name := range b.ViewNames() {
		vb := b.Views[name]
		va, ok := a.Views[name]
		if !ok {
			r.Views.Added = append(r.Views.Added, vb.Clone())
			continue
		}
		if model.CollapseWhitespace(va.Definition) != model.CollapseWhitespace(vb.Definition) {
			r.Views.Changed = append(r.Views.Changed, &ViewChange{
				Name: name,
				From: va.Clone(),
				To:   vb.Clone(),
			})
		}
	}
	for _, name := range a.ViewNames() {
		if _, ok := b.Views[name]; !ok {
			r.Views.Removed = append(r.Views.Removed, a.Views[name].Clone())
		}
	}
}

func diffRoutines(a, b *model.Schema, r *Result) {
	for _, key := range b.RoutineKeys() {
		rb := b.Routines[key]
		ra, ok := a.Routines[key]
		if !ok {
			r.Routines.Added = append(r.Routines.Added, rb.Clone())
			continue
		}
		if ra.Body != rb.Body || !strings.EqualFold(ra.Language, rb.Language) {
			r.Routines.Changed = append(r.Routines.Changed, &RoutineChange{
				Key:  key,
				From: ra.Clone(),
				To:   rb.Clone(),
			})
		}
	}
	for _, key := range a.RoutineKeys() {
		if _, ok := b.Routines[key]; !ok {
			r.Routines.Removed = append(r.Routines.Removed, a.Routines[key].Clone())
		}
	}
}

func diffTriggers(a, b *model.Schema, r *Result) {
	for _, key := range b.TriggerKeys() {
		tb := b.Triggers[key]
		ta, ok := a.Triggers[key]
		if !ok {
			r.Triggers.Added = append(r.Triggers.Added, tb.Clone())
			continue
		}
		if !triggersEqual(ta, tb) {
			r.Triggers.Changed = append(r.Triggers.Changed, &TriggerChange{
				Key:  key,
				From: ta.Clone(),
				To:   tb.Clone(),
			})
		}
	}
	for _, key := range a.TriggerKeys() {
		if _, ok := b.Triggers[key]; !ok {
			r.Triggers.Removed = append(r.Triggers.Removed, a.Triggers[key].Clone())
		}
	}
}

func triggersEqual(a, b *model.Trigger) bool {
	if !strings.EqualFold(string(a.Timing), string(b.Timing)) {
		return false
	}
	if !stringSlicesEqual(a.Events, b.Events) {
		return false
	}
	return model.CollapseWhitespace(a.Body) == model.CollapseWhitespace(b.Body)
}

// sortedLowerSet lowercases names and returns them sorted, for the
// position-insensitive column-list comparisons.
func sortedLowerSet(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToLower(n)
	}
	sort.Strings(out)
	return out
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func columnSetsEqual(a, b []string) bool {
	return stringSlicesEqual(sortedLowerSet(a), sortedLowerSet(b))
}
