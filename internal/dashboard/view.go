package dashboard

import (
	"context"
	"strings"
	"time"

	"crmdash/internal/model"
	"crmdash/internal/query"
	"crmdash/internal/table"
)

// FilterAll is the auxiliary filter value that lets every record through.
const FilterAll = "all"

// ColumnInfo is the untyped part of a column a renderer needs.
type ColumnInfo struct {
	Key      string
	Label    string
	Width    int
	Sortable bool
}

// Grid is a View with its record type erased, so the TUI and the headless
// commands can drive every table the same way.
type Grid interface {
	ID() string
	Title() string
	Resource() model.Resource
	Columns() []ColumnInfo
	Rows() [][]string
	Meta() table.PageMeta
	Len() int

	Search() string
	SetSearch(term string)
	FilterValue() string
	FilterOptions() []string
	SetFilterValue(value string)
	CycleFilter() string

	Sort() (string, table.Direction)
	ToggleSort(key string) bool
	SetSort(key string, dir table.Direction) bool

	NextPage()
	PrevPage()
	SetPage(n int)
	PageSize() int
	SetPageSize(size int)
	CyclePageSize() int
	SetPageSizes(sizes []int)

	ExportCSV(now time.Time) (table.Export, error)

	Refresh(ctx context.Context) bool
	Sync() query.Status
	Status() query.Status
	Err() error
	Stale() bool
	LastUpdated() time.Time
}

// View owns the store and table controller of one dashboard list. The store
// clears its data on a failed load; the controller keeps the records of the
// last successful one, so a failed refresh leaves the table as it was.
type View[R any] struct {
	resource model.Resource
	title    string
	options  []string

	Store *query.Store[[]R]
	Table *table.Controller[R]

	state       query.State[[]R]
	data        []R
	hasData     bool
	applied     uint64
	lastUpdated time.Time
}

// NewView builds a view over store with the given columns.
func NewView[R any](res model.Resource, title string, store *query.Store[[]R], columns []table.Column[R], filter table.FilterFunc[R], filterOptions []string, pageSizes []int) *View[R] {
	opts := table.Options[R]{PageSizes: pageSizes, Filter: filter}
	if len(filterOptions) > 0 {
		opts.FilterValue = filterOptions[0]
	}
	return &View[R]{
		resource: res,
		title:    title,
		options:  filterOptions,
		Store:    store,
		Table:    table.New(string(res), columns, opts),
	}
}

func (v *View[R]) ID() string               { return v.Table.ID() }
func (v *View[R]) Title() string            { return v.title }
func (v *View[R]) Resource() model.Resource { return v.resource }
func (v *View[R]) Len() int                 { return v.Table.Len() }

func (v *View[R]) Columns() []ColumnInfo {
	cols := v.Table.Columns()
	out := make([]ColumnInfo, len(cols))
	for i, col := range cols {
		out[i] = ColumnInfo{Key: col.Key, Label: col.Header(), Width: col.Width, Sortable: col.Sortable}
	}
	return out
}

// Rows renders the current page as display strings, one per column.
func (v *View[R]) Rows() [][]string {
	page := v.Table.Page()
	cols := v.Table.Columns()
	out := make([][]string, len(page.Rows))
	for i, rec := range page.Rows {
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = col.Display(rec)
		}
		out[i] = row
	}
	return out
}

// All returns every record of the last successful load, unfiltered.
func (v *View[R]) All() []R { return v.data }

// Records returns the records of the current page.
func (v *View[R]) Records() []R { return v.Table.Page().Rows }

func (v *View[R]) Meta() table.PageMeta { return v.Table.Page().Meta }

func (v *View[R]) Search() string          { return v.Table.Search() }
func (v *View[R]) SetSearch(term string)   { v.Table.SetSearch(term) }
func (v *View[R]) FilterValue() string     { return v.Table.FilterValue() }
func (v *View[R]) FilterOptions() []string { return append([]string(nil), v.options...) }

// SetFilterValue applies one of the filter options. Unknown values fall
// back to FilterAll.
func (v *View[R]) SetFilterValue(value string) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, opt := range v.options {
		if opt == value {
			v.Table.SetFilterValue(value)
			return
		}
	}
	v.Table.SetFilterValue(FilterAll)
}

// CycleFilter moves to the next filter option and returns it.
func (v *View[R]) CycleFilter() string {
	if len(v.options) == 0 {
		return ""
	}
	next := v.options[0]
	for i, opt := range v.options {
		if opt == v.Table.FilterValue() {
			next = v.options[(i+1)%len(v.options)]
			break
		}
	}
	v.Table.SetFilterValue(next)
	return next
}

func (v *View[R]) Sort() (string, table.Direction)              { return v.Table.Sort() }
func (v *View[R]) ToggleSort(key string) bool                   { return v.Table.ToggleSort(key) }
func (v *View[R]) SetSort(key string, dir table.Direction) bool { return v.Table.SetSort(key, dir) }

func (v *View[R]) NextPage()                { v.Table.NextPage() }
func (v *View[R]) PrevPage()                { v.Table.PrevPage() }
func (v *View[R]) SetPage(n int)            { v.Table.SetPage(n) }
func (v *View[R]) PageSize() int            { return v.Table.PageSize() }
func (v *View[R]) SetPageSize(size int)     { v.Table.SetPageSize(size) }
func (v *View[R]) CyclePageSize() int       { return v.Table.CyclePageSize() }
func (v *View[R]) SetPageSizes(sizes []int) { v.Table.SetPageSizes(sizes) }

func (v *View[R]) ExportCSV(now time.Time) (table.Export, error) { return v.Table.ExportCSV(now) }

// Refresh runs the store's loader. See query.Store.Refresh.
func (v *View[R]) Refresh(ctx context.Context) bool { return v.Store.Refresh(ctx) }

// Sync pulls the store state into the table. The table data is only
// replaced when the store finished a load the view has not applied yet. It
// must run on the goroutine that owns the table.
func (v *View[R]) Sync() query.Status {
	v.state = v.Store.State()
	if v.state.Status == query.StatusSuccess && v.state.Generation != v.applied {
		v.applied = v.state.Generation
		v.Table.SetData(v.state.Data)
		v.data = v.state.Data
		v.hasData = true
		v.lastUpdated = v.state.LastUpdated
	}
	return v.state.Status
}

func (v *View[R]) Status() query.Status { return v.state.Status }
func (v *View[R]) Err() error           { return v.state.Err }

// Stale reports whether the table shows records from an earlier load
// because the latest one failed.
func (v *View[R]) Stale() bool {
	return v.state.Status == query.StatusError && v.hasData
}

// LastUpdated is the time of the last successful load shown in the table.
func (v *View[R]) LastUpdated() time.Time { return v.lastUpdated }

// equalFilter matches field against value, treating "" and FilterAll as a
// wildcard.
func equalFilter[R any](field func(R) string) table.FilterFunc[R] {
	return func(rec R, value string) bool {
		if value == "" || value == FilterAll {
			return true
		}
		return strings.EqualFold(field(rec), value)
	}
}

// escalationFilter treats "open" as anything not resolved or closed.
func escalationFilter(rec model.Escalation, value string) bool {
	switch value {
	case "", FilterAll:
		return true
	case "open":
		return !isClosed(rec.Status)
	case "resolved":
		return isClosed(rec.Status)
	}
	return strings.EqualFold(rec.Status, value)
}

func isClosed(status string) bool {
	switch strings.ToLower(status) {
	case "resolved", "closed":
		return true
	}
	return false
}
