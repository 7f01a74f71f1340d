// Package table implements the grid engine behind every dashboard list:
// search, auxiliary filter, sort, pagination and CSV export over an owned
// copy of the records.
package table

import (
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Fielder lets a record resolve a column key without an accessor.
type Fielder interface {
	Field(key string) any
}

// Column describes one grid column. When Accessor is nil the value is looked
// up by Key, through Fielder or a map[string]any record.
type Column[R any] struct {
	Key               string
	Label             string
	Width             int
	Accessor          func(R) any
	Render            func(R) string
	Sortable          bool
	ExcludeFromSearch bool
	ExcludeFromExport bool
	ExportAccessor    func(R) any
}

// Value resolves the column's raw value for rec. A nil result is a null.
func (c Column[R]) Value(rec R) any {
	if c.Accessor != nil {
		return deref(c.Accessor(rec))
	}
	switch r := any(rec).(type) {
	case Fielder:
		return deref(r.Field(c.Key))
	case map[string]any:
		return deref(r[c.Key])
	}
	return nil
}

// Display is the text shown in a cell and matched by search.
func (c Column[R]) Display(rec R) string {
	if c.Render != nil {
		return c.Render(rec)
	}
	return FormatValue(c.Value(rec))
}

// ExportValue is the text written to CSV.
func (c Column[R]) ExportValue(rec R) string {
	if c.ExportAccessor != nil {
		return FormatValue(deref(c.ExportAccessor(rec)))
	}
	return FormatValue(c.Value(rec))
}

// Header returns the label, falling back to the key.
func (c Column[R]) Header() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Key
}

// FormatValue renders a raw value as plain text. Nulls become "".
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// deref turns typed nil pointers into untyped nil and unwraps the rest, so
// *float64(nil) sorts as a null instead of a value.
func deref(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	out := rv.Interface()
	if t, ok := out.(time.Time); ok && t.IsZero() {
		return nil
	}
	return out
}
