package normalize

import (
	"sort"
	"strconv"
)

// Kind tags the shape of a decoded JSON value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindScalar
	KindList
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "missing"
	}
}

// Shape is a decoded value together with its kind. Exactly one of List,
// Object or Scalar is set, matching Kind.
type Shape struct {
	Kind   Kind
	List   []any
	Object Record
	Scalar any
}

// Classify wraps v in a Shape.
func Classify(v any) Shape {
	switch t := v.(type) {
	case nil:
		return Shape{Kind: KindMissing}
	case []any:
		return Shape{Kind: KindList, List: t}
	case []Record:
		list := make([]any, len(t))
		for i := range t {
			list[i] = t[i]
		}
		return Shape{Kind: KindList, List: list}
	case Record:
		return Shape{Kind: KindObject, Object: t}
	default:
		return Shape{Kind: KindScalar, Scalar: t}
	}
}

// CollectionKeys are the envelope fields checked, in order, for a record list.
var CollectionKeys = []string{"data", "items", "results", "records", "rows", "list"}

// EnsureSequence extracts the record list from an arbitrary response
// envelope. The result is never nil.
//
// A list is used as is. An object yields its first collection field holding a
// list. Any other object is flattened: its own values are visited in key
// order (numeric keys first, so n8n's {"0": {...}, "1": {...}} keeps its
// order), lists are spread and objects kept. Scalars are dropped.
// Items wrapped as {"json": {...}} are unwrapped.
func EnsureSequence(v any) []Record {
	out := make([]Record, 0)
	shape := Classify(v)
	switch shape.Kind {
	case KindList:
		return appendRecords(out, shape.List)
	case KindObject:
		for _, key := range CollectionKeys {
			if inner := Classify(shape.Object[key]); inner.Kind == KindList {
				return appendRecords(out, inner.List)
			}
		}
		for _, key := range orderedKeys(shape.Object) {
			inner := Classify(shape.Object[key])
			switch inner.Kind {
			case KindList:
				out = appendRecords(out, inner.List)
			case KindObject:
				out = append(out, unwrap(inner.Object))
			}
		}
	}
	return out
}

func appendRecords(out []Record, items []any) []Record {
	for _, item := range items {
		if rec, ok := item.(Record); ok {
			out = append(out, unwrap(rec))
		}
	}
	return out
}

func unwrap(rec Record) Record {
	if inner, ok := rec["json"].(Record); ok {
		return inner
	}
	return rec
}

func orderedKeys(obj Record) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(keys[i])
		nj, errJ := strconv.Atoi(keys[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

// List is a paginated list response.
type List struct {
	Items    []Record
	Total    int
	Page     int
	PageSize int
}

// NormalizeList reads a paginated envelope. Missing counters default to
// the size of the extracted list and page 1.
func NormalizeList(v any) List {
	items := EnsureSequence(v)
	list := List{Items: items, Total: len(items), Page: 1, PageSize: len(items)}

	obj, ok := v.(Record)
	if !ok {
		return list
	}
	if total, ok := LookupNumeric(obj, "total", "count", "total_count"); ok && total >= 0 {
		list.Total = int(total)
	}
	if page, ok := LookupNumeric(obj, "page", "current_page"); ok && page >= 1 {
		list.Page = int(page)
	}
	if size, ok := LookupNumeric(obj, "page_size", "pageSize", "per_page"); ok && size > 0 {
		list.PageSize = int(size)
	}
	return list
}
