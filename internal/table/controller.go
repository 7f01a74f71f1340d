package table

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// DefaultPageSizes is used when no page size options are configured.
var DefaultPageSizes = []int{10, 25, 50}

// FilterFunc is the auxiliary predicate applied next to search.
type FilterFunc[R any] func(rec R, value string) bool

// Options configures a Controller.
type Options[R any] struct {
	PageSizes []int
	Locale    language.Tag
	Filter    FilterFunc[R]
	// FilterValue is the initial auxiliary filter value, usually "all".
	FilterValue string
}

// PageMeta describes the page handed to a renderer.
type PageMeta struct {
	CurrentPage     int
	TotalPages      int
	TotalMatched    int
	PageSize        int
	PageSizeOptions []int
	// Start and End are the 1-based positions of the first and last row
	// on this page; both are 0 when nothing matched.
	Start int
	End   int
}

// Page is one rendered slice of the filtered records.
type Page[R any] struct {
	Rows []R
	Meta PageMeta
}

// Controller owns a working copy of records and derives the filtered,
// sorted and paginated view from it. It is not safe for concurrent use; the
// UI loop owns it.
type Controller[R any] struct {
	id      string
	columns []Column[R]
	cmp     *comparer

	source   []R
	filtered []R

	search      string
	filterValue string
	filter      FilterFunc[R]

	sortKey string
	sortDir Direction

	page      int
	pageSize  int
	pageSizes []int
}

// New creates a controller for the table identified by id.
func New[R any](id string, columns []Column[R], opts Options[R]) *Controller[R] {
	sizes := make([]int, 0, len(opts.PageSizes))
	for _, size := range opts.PageSizes {
		if size > 0 {
			sizes = append(sizes, size)
		}
	}
	if len(sizes) == 0 {
		sizes = append(sizes, DefaultPageSizes...)
	}
	locale := opts.Locale
	if locale == language.Und {
		locale = language.Indonesian
	}
	c := &Controller[R]{
		id:          id,
		columns:     columns,
		cmp:         newComparer(locale),
		filter:      opts.Filter,
		filterValue: opts.FilterValue,
		page:        1,
		pageSize:    sizes[0],
		pageSizes:   sizes,
	}
	c.applyFilters()
	return c
}

// ID returns the table identifier used in export filenames.
func (c *Controller[R]) ID() string { return c.id }

// Columns returns the column definitions.
func (c *Controller[R]) Columns() []Column[R] { return c.columns }

// Column looks up a column by key.
func (c *Controller[R]) Column(key string) (Column[R], bool) {
	for _, col := range c.columns {
		if col.Key == key {
			return col, true
		}
	}
	return Column[R]{}, false
}

// SetData replaces the source records. Search, filter, sort and page are
// kept; the page is clamped if the data shrank.
func (c *Controller[R]) SetData(records []R) {
	c.source = append([]R(nil), records...)
	c.applyFilters()
}

// Len returns the number of source records.
func (c *Controller[R]) Len() int { return len(c.source) }

// SetSearch sets the search term and goes back to the first page.
func (c *Controller[R]) SetSearch(term string) {
	c.search = strings.ToLower(strings.TrimSpace(term))
	c.page = 1
	c.applyFilters()
}

// Search returns the normalized search term.
func (c *Controller[R]) Search() string { return c.search }

// SetFilterValue sets the auxiliary filter value and goes back to the first
// page.
func (c *Controller[R]) SetFilterValue(value string) {
	c.filterValue = value
	c.page = 1
	c.applyFilters()
}

// FilterValue returns the auxiliary filter value.
func (c *Controller[R]) FilterValue() string { return c.filterValue }

// ToggleSort sorts by key. Selecting the active key flips the direction; a
// new key starts ascending. It returns false for unknown or unsortable keys.
func (c *Controller[R]) ToggleSort(key string) bool {
	col, ok := c.Column(key)
	if !ok || !col.Sortable {
		return false
	}
	if c.sortKey == key {
		if c.sortDir == Asc {
			c.sortDir = Desc
		} else {
			c.sortDir = Asc
		}
	} else {
		c.sortKey = key
		c.sortDir = Asc
	}
	c.applyFilters()
	return true
}

// SetSort sets the sort key and direction directly. An empty key clears
// sorting and restores source order.
func (c *Controller[R]) SetSort(key string, dir Direction) bool {
	if key != "" {
		col, ok := c.Column(key)
		if !ok || !col.Sortable {
			return false
		}
	}
	c.sortKey = key
	c.sortDir = dir
	c.applyFilters()
	return true
}

// Sort returns the active sort key and direction.
func (c *Controller[R]) Sort() (string, Direction) { return c.sortKey, c.sortDir }

// SetPage moves to page n, clamped to the valid range.
func (c *Controller[R]) SetPage(n int) {
	c.page = n
	c.clampPage()
}

// NextPage advances one page if possible.
func (c *Controller[R]) NextPage() { c.SetPage(c.page + 1) }

// PrevPage goes back one page if possible.
func (c *Controller[R]) PrevPage() { c.SetPage(c.page - 1) }

// SetPageSize changes the page size and returns to the first page.
// Non-positive sizes are ignored.
func (c *Controller[R]) SetPageSize(size int) {
	if size <= 0 {
		return
	}
	c.pageSize = size
	c.page = 1
}

// CyclePageSize switches to the next configured page size.
func (c *Controller[R]) CyclePageSize() int {
	next := c.pageSizes[0]
	for i, size := range c.pageSizes {
		if size == c.pageSize {
			next = c.pageSizes[(i+1)%len(c.pageSizes)]
			break
		}
	}
	c.SetPageSize(next)
	return next
}

// SetPageSizes replaces the page size options. The current size is kept if
// it is still an option, otherwise the first option is used and the page
// resets.
func (c *Controller[R]) SetPageSizes(sizes []int) {
	valid := make([]int, 0, len(sizes))
	for _, size := range sizes {
		if size > 0 {
			valid = append(valid, size)
		}
	}
	if len(valid) == 0 {
		return
	}
	c.pageSizes = valid
	for _, size := range valid {
		if size == c.pageSize {
			return
		}
	}
	c.SetPageSize(valid[0])
}

// PageSizes returns the page size options.
func (c *Controller[R]) PageSizes() []int { return append([]int(nil), c.pageSizes...) }

// PageSize returns the current page size.
func (c *Controller[R]) PageSize() int { return c.pageSize }

// TotalPages is ceil(matched/pageSize), never below 1.
func (c *Controller[R]) TotalPages() int {
	pages := (len(c.filtered) + c.pageSize - 1) / c.pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// Filtered returns every record that passed search and filter, in sort
// order.
func (c *Controller[R]) Filtered() []R {
	return append([]R(nil), c.filtered...)
}

// Page returns the current page.
func (c *Controller[R]) Page() Page[R] {
	c.clampPage()
	start := (c.page - 1) * c.pageSize
	end := min(start+c.pageSize, len(c.filtered))
	rows := append([]R(nil), c.filtered[start:end]...)

	meta := PageMeta{
		CurrentPage:     c.page,
		TotalPages:      c.TotalPages(),
		TotalMatched:    len(c.filtered),
		PageSize:        c.pageSize,
		PageSizeOptions: append([]int(nil), c.pageSizes...),
	}
	if len(rows) > 0 {
		meta.Start = start + 1
		meta.End = end
	}
	return Page[R]{Rows: rows, Meta: meta}
}

func (c *Controller[R]) clampPage() {
	if total := c.TotalPages(); c.page > total {
		c.page = total
	}
	if c.page < 1 {
		c.page = 1
	}
}

func (c *Controller[R]) applyFilters() {
	filtered := make([]R, 0, len(c.source))
	for _, rec := range c.source {
		if c.matchesSearch(rec) && c.matchesFilter(rec) {
			filtered = append(filtered, rec)
		}
	}

	if c.sortKey != "" {
		if col, ok := c.Column(c.sortKey); ok {
			desc := c.sortDir == Desc
			sort.SliceStable(filtered, func(i, j int) bool {
				order := c.cmp.compare(col.Value(filtered[i]), col.Value(filtered[j]))
				if desc {
					return order > 0
				}
				return order < 0
			})
		}
	}

	c.filtered = filtered
	c.clampPage()
}

func (c *Controller[R]) matchesSearch(rec R) bool {
	if c.search == "" {
		return true
	}
	for _, col := range c.columns {
		if col.ExcludeFromSearch {
			continue
		}
		if strings.Contains(strings.ToLower(col.Display(rec)), c.search) {
			return true
		}
	}
	return false
}

func (c *Controller[R]) matchesFilter(rec R) bool {
	if c.filter == nil {
		return true
	}
	return c.filter(rec, c.filterValue)
}
