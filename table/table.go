package table

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownColumn = errors.New("unknown column")

// Table is the active column set, filters and sort of one curation view.
type Table struct {
	columns []ColumnDescriptor
	catalog map[string]ColumnDescriptor
	filters []ColumnFilter
	sorting []SortState
}

// New creates a table with the built-in columns. catalog lists the columns that may be added.
func New(catalog []ColumnDescriptor) *Table {
	t := &Table{catalog: make(map[string]ColumnDescriptor)}
	for _, c := range BuiltinColumns() {
		t.columns = append(t.columns, c)
		t.catalog[c.ID] = c
	}
	for _, c := range catalog {
		if _, exists := t.catalog[c.ID]; !exists {
			t.catalog[c.ID] = c
		}
	}
	return t
}

// Columns returns the active columns, built-ins first.
func (t *Table) Columns() []ColumnDescriptor {
	return t.columns
}

// Available returns the catalog columns that are not active.
func (t *Table) Available() []ColumnDescriptor {
	var out []ColumnDescriptor
	for _, id := range sortedKeys(t.catalog) {
		if _, ok := t.column(id); !ok {
			out = append(out, t.catalog[id])
		}
	}
	return out
}

func (t *Table) Filters() []ColumnFilter { return t.filters }
func (t *Table) Sorting() []SortState    { return t.sorting }

func (t *Table) column(id string) (ColumnDescriptor, bool) {
	for _, c := range t.columns {
		if c.ID == id {
			return c, true
		}
	}
	return ColumnDescriptor{}, false
}

// AddColumn activates a column. Descriptors not yet in the catalog are registered.
func (t *Table) AddColumn(c ColumnDescriptor) bool {
	if _, ok := t.column(c.ID); ok {
		return false
	}
	if c.Accessor == nil {
		known, ok := t.catalog[c.ID]
		if !ok {
			return false
		}
		c = known
	}
	t.catalog[c.ID] = c
	t.columns = append(t.columns, c)
	return true
}

// AddColumnByID activates a catalog column.
func (t *Table) AddColumnByID(id string) bool {
	c, ok := t.catalog[id]
	if !ok {
		return false
	}
	return t.AddColumn(c)
}

// RemoveColumn deactivates a column and drops filters and sorts on it. Built-ins stay.
func (t *Table) RemoveColumn(id string) bool {
	for i, c := range t.columns {
		if c.ID != id {
			continue
		}
		if c.Builtin {
			return false
		}
		t.columns = append(t.columns[:i:i], t.columns[i+1:]...)
		t.ClearFilter(id)
		kept := t.sorting[:0:0]
		for _, s := range t.sorting {
			if s.ID != id {
				kept = append(kept, s)
			}
		}
		t.sorting = kept
		return true
	}
	return false
}

// SetFilter replaces the filter of a column. An empty filter clears it.
func (t *Table) SetFilter(f ColumnFilter) error {
	c, ok := t.column(f.ID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, f.ID)
	}
	if err := f.Validate(c.FilterVariant); err != nil {
		return err
	}
	t.ClearFilter(f.ID)
	if !f.IsEmpty() {
		t.filters = append(t.filters, f)
	}
	return nil
}

func (t *Table) ClearFilter(id string) {
	kept := t.filters[:0:0]
	for _, f := range t.filters {
		if f.ID != id {
			kept = append(kept, f)
		}
	}
	t.filters = kept
}

// SetSorting replaces the sort. nil or empty means insertion order.
func (t *Table) SetSorting(sorting []SortState) error {
	for _, s := range sorting {
		c, ok := t.column(s.ID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, s.ID)
		}
		if !c.Sortable {
			return fmt.Errorf("column %s is not sortable", s.ID)
		}
	}
	t.sorting = append([]SortState(nil), sorting...)
	return nil
}

// Apply filters rows (all filters must match) and sorts them stably.
func (t *Table) Apply(rows []Row) []Row {
	type filterFn struct {
		f   ColumnFilter
		acc func(Row) Cell
	}
	var active []filterFn
	for _, f := range t.filters {
		if c, ok := t.column(f.ID); ok {
			active = append(active, filterFn{f: f, acc: c.Accessor})
		}
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		keep := true
		for _, af := range active {
			if !af.f.Matches(af.acc(r)) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}

	if len(t.sorting) == 0 {
		return out
	}
	var sorters []SortState
	var descs []ColumnDescriptor
	for _, s := range t.sorting {
		if c, ok := t.column(s.ID); ok && c.Sortable {
			sorters = append(sorters, s)
			descs = append(descs, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		for k, s := range sorters {
			d := descs[k]
			cmp := d.compare(d.Accessor(out[i]), d.Accessor(out[j]))
			if cmp == 0 {
				continue
			}
			if s.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return out
}

// State captures the persisted view settings.
func (t *Table) State() State {
	st := State{SelectedColumns: []string{}, ColumnFilters: []ColumnFilter{}, Sorting: []SortState{}}
	for _, c := range t.columns {
		if !c.Builtin {
			st.SelectedColumns = append(st.SelectedColumns, c.ID)
		}
	}
	st.ColumnFilters = append(st.ColumnFilters, t.filters...)
	st.Sorting = append(st.Sorting, t.sorting...)
	return st
}

// Restore applies a persisted state. Entries referring to unknown columns or invalid
// filters are dropped instead of failing.
func (t *Table) Restore(st State) {
	for _, id := range st.SelectedColumns {
		t.AddColumnByID(id)
	}
	for _, f := range st.ColumnFilters {
		_ = t.SetFilter(f)
	}
	var sorting []SortState
	for _, s := range st.Sorting {
		if c, ok := t.column(s.ID); ok && c.Sortable {
			sorting = append(sorting, s)
		}
	}
	t.sorting = sorting
}
