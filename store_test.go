package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string) Record {
	return Record{ID: id, Title: "title " + id, Body: "body " + id, Date: "2024-01-15", Sticker: "star"}
}

func ids(list []Record) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.ID
	}
	return out
}

func TestInsertAppends(t *testing.T) {
	s := NewRecordStore()
	s.Insert(rec("a"))
	list := s.Insert(rec("b"))
	assert.Equal(t, []string{"a", "b"}, ids(list))
}

func TestReplaceByKeyMutatesOnlyMatch(t *testing.T) {
	s := NewRecordStore()
	s.Insert(rec("a"))
	s.Insert(rec("b"))

	updated := rec("b")
	updated.Title = "changed"
	updated.Done = true
	list := s.ReplaceByKey(updated)

	require.Len(t, list, 2)
	assert.Equal(t, rec("a"), list[0])
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, "changed", list[1].Title)
	assert.True(t, list[1].Done)
}

func TestReplaceByKeyNormalizesDate(t *testing.T) {
	s := NewRecordStore()
	s.Insert(rec("a"))

	updated := rec("a")
	updated.Date = "2024-3-1"
	list := s.ReplaceByKey(updated)

	assert.Equal(t, "2024-03-01", list[0].Date)
}

func TestReplaceByKeyMissIsNoOp(t *testing.T) {
	s := NewRecordStore()
	s.Insert(rec("a"))
	list := s.ReplaceByKey(rec("missing"))
	assert.Equal(t, []string{"a"}, ids(list))
	assert.Equal(t, rec("a"), list[0])
}

func TestRemoveByKeyKeepsOrder(t *testing.T) {
	s := NewRecordStore()
	s.Insert(rec("a"))
	s.Insert(rec("b"))
	s.Insert(rec("c"))

	list := s.RemoveByKey(Record{ID: "b"})
	assert.Equal(t, []string{"a", "c"}, ids(list))
}

func TestRemoveByKeyIsIdempotent(t *testing.T) {
	s := NewRecordStore()
	s.Insert(rec("a"))
	s.Insert(rec("b"))

	first := s.RemoveByKey(Record{ID: "b"})
	second := s.RemoveByKey(Record{ID: "b"})
	assert.Equal(t, first, second)
}

func TestRemoveByKeyMissIsNoOp(t *testing.T) {
	s := NewRecordStore()
	s.Insert(rec("a"))
	list := s.RemoveByKey(Record{ID: "missing"})
	assert.Equal(t, []string{"a"}, ids(list))
}

func TestClearThenReplaceAll(t *testing.T) {
	s := NewRecordStore()
	s.Insert(rec("old"))

	require.Empty(t, s.Clear())

	want := []Record{rec("x"), rec("y"), rec("z")}
	list := s.ReplaceAll(want)
	assert.Equal(t, want, list)
	assert.Equal(t, want, s.List())
}

func TestSnapshotIsACopy(t *testing.T) {
	s := NewRecordStore()
	s.Insert(rec("a"))

	list := s.List()
	list[0].Title = "mutated elsewhere"

	assert.Equal(t, "title a", s.List()[0].Title)
}
