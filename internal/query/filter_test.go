package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type person struct {
	Name  string
	Phone string
}

func personStore(people []person, err error) *Store[[]person] {
	return NewStore("people", func(context.Context) ([]person, error) {
		if err != nil {
			return nil, err
		}
		return people, nil
	})
}

func byNameOrPhone() MatchFunc[person] {
	return MatchFields(
		func(p person) string { return p.Name },
		func(p person) string { return p.Phone },
	)
}

func TestFilterViewSearch(t *testing.T) {
	store := personStore([]person{{Name: "Budi Santoso"}, {Name: "Siti Rahma"}}, nil)
	view := NewFilterView(store, byNameOrPhone())
	defer view.Close()

	assert.Empty(t, view.Items(), "nothing before the first load")

	store.Refresh(context.Background())
	assert.Len(t, view.Items(), 2)

	view.SetSearch("  BUDI ")
	assert.Equal(t, "budi", view.Search())
	assert.Equal(t, []person{{Name: "Budi Santoso"}}, view.Items())

	view.SetSearch("")
	assert.Len(t, view.Items(), 2)
}

func TestFilterViewRecomputesOnStoreChange(t *testing.T) {
	people := []person{{Name: "Budi", Phone: "0812"}}
	store := NewStore("people", func(context.Context) ([]person, error) { return people, nil })
	view := NewFilterView(store, byNameOrPhone())
	defer view.Close()

	var published [][]person
	view.Subscribe(func(items []person) { published = append(published, items) })

	view.SetSearch("0812")
	store.Refresh(context.Background())
	assert.Equal(t, []person{{Name: "Budi", Phone: "0812"}}, view.Items())

	people = append(people, person{Name: "Agus", Phone: "08123"})
	store.Refresh(context.Background())
	assert.Len(t, view.Items(), 2)

	// search change, loading, success, loading, success
	assert.Len(t, published, 5)
}

func TestFilterViewEmptiesOnError(t *testing.T) {
	fail := false
	store := NewStore("people", func(context.Context) ([]person, error) {
		if fail {
			return nil, errors.New("offline")
		}
		return []person{{Name: "Budi"}}, nil
	})
	view := NewFilterView(store, byNameOrPhone())

	store.Refresh(context.Background())
	assert.Len(t, view.Items(), 1)

	fail = true
	store.Refresh(context.Background())
	assert.Empty(t, view.Items())

	view.Close()
	fail = false
	store.Refresh(context.Background())
	assert.Empty(t, view.Items(), "closed view no longer follows the store")
}
