package model

// Deep copies. The normalizer and the differ hand out copies so no stage
// mutates another stage's input and diff results stay valid after the source
// models are discarded.

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	out := NewSchema(s.Name)
	for name, t := range s.Tables {
		out.Tables[name] = t.Clone()
	}
	for name, v := range s.Views {
		out.Views[name] = v.Clone()
	}
	for key, r := range s.Routines {
		out.Routines[key] = r.Clone()
	}
	for key, tr := range s.Triggers {
		out.Triggers[key] = tr.Clone()
	}
	return out
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := NewTable(t.Name)
	out.Columns = make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		out.Columns[i] = c.Clone()
	}
	if t.PrimaryKey != nil {
		out.PrimaryKey = t.PrimaryKey.Clone()
	}
	for name, idx := range t.Indexes {
		out.Indexes[name] = idx.Clone()
	}
	for name, ck := range t.Checks {
		out.Checks[name] = ck.Clone()
	}
	for name, fk := range t.ForeignKeys {
		out.ForeignKeys[name] = fk.Clone()
	}
	return out
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := *c
	out.Length = cloneInt(c.Length)
	out.Precision = cloneInt(c.Precision)
	out.Scale = cloneInt(c.Scale)
	out.Default = cloneString(c.Default)
	return &out
}

// Clone returns a deep copy of the primary key.
func (pk *PrimaryKey) Clone() *PrimaryKey {
	return &PrimaryKey{Name: pk.Name, Columns: cloneStrings(pk.Columns)}
}

// Clone returns a deep copy of the index.
func (i *Index) Clone() *Index {
	out := *i
	out.Columns = cloneStrings(i.Columns)
	return &out
}

// Clone returns a deep copy of the check constraint.
func (ck *Check) Clone() *Check {
	out := *ck
	return &out
}

// Clone returns a deep copy of the foreign key.
func (fk *ForeignKey) Clone() *ForeignKey {
	out := *fk
	out.Columns = cloneStrings(fk.Columns)
	out.RefColumns = cloneStrings(fk.RefColumns)
	return &out
}

// Clone returns a deep copy of the view.
func (v *View) Clone() *View {
	out := *v
	return &out
}

// Clone returns a deep copy of the routine.
func (r *Routine) Clone() *Routine {
	out := *r
	return &out
}

// Clone returns a deep copy of the trigger.
func (tr *Trigger) Clone() *Trigger {
	out := *tr
	out.Events = cloneStrings(tr.Events)
	return &out
}
