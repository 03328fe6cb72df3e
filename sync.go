package main

import (
	"context"
	"fmt"
)

// sortCriteria are the orderings the UI may ask for. The intent is
// accepted and validated but performs no reordering; the list keeps the
// order the remote fetch returned.
var sortCriteria = map[string]bool{
	"title":   true,
	"date":    true,
	"sticker": true,
	"done":    true,
}

// Synchronizer pairs every user intent with its two effects: the local
// store mutation, applied immediately, and the remote write, dispatched on
// a tracked goroutine. The two are not transactional; when the remote half
// fails the store keeps the optimistic result until the next full fetch.
type Synchronizer struct {
	store  *RecordStore
	remote *RemoteGateway
	tasks  *taskGroup
}

func NewSynchronizer(store *RecordStore, remote *RemoteGateway, tasks *taskGroup) *Synchronizer {
	return &Synchronizer{store: store, remote: remote, tasks: tasks}
}

// List returns the current store snapshot.
func (s *Synchronizer) List() []Record {
	return s.store.List()
}

// AddTodo inserts the record locally and creates the remote document.
// Done is forced to false on both paths.
func (s *Synchronizer) AddTodo(rec Record) []Record {
	rec.Done = false
	list := s.store.Insert(rec)
	s.tasks.Go("create", func() error {
		return s.remote.Create(context.Background(), rec)
	})
	return list
}

// UpdateTodo replaces the record locally and updates the remote document.
func (s *Synchronizer) UpdateTodo(rec Record) []Record {
	list := s.store.ReplaceByKey(rec)
	s.tasks.Go("update", func() error {
		return s.remote.Update(context.Background(), rec)
	})
	return list
}

// DeleteTodo removes the record locally and deletes the remote document.
func (s *Synchronizer) DeleteTodo(rec Record) []Record {
	list := s.store.RemoveByKey(rec)
	s.tasks.Go("delete", func() error {
		return s.remote.Delete(context.Background(), rec)
	})
	return list
}

// ClearTodo empties the store immediately, then issues one independent
// remote delete per record that was in the list at the time of the call.
func (s *Synchronizer) ClearTodo() []Record {
	recs := s.store.List()
	list := s.store.Clear()
	s.remote.ClearAll(context.Background(), recs)
	return list
}

// SortTodo accepts a sort intent. See sortCriteria.
func (s *Synchronizer) SortTodo(criterion string) ([]Record, error) {
	if !sortCriteria[criterion] {
		return nil, fmt.Errorf("unknown sort criterion %q", criterion)
	}
	return s.store.List(), nil
}

// LoadInitial fetches the whole remote collection and replaces the store
// contents with it. On failure the store is left untouched and the typed
// error goes back to the caller to log or drop.
func (s *Synchronizer) LoadInitial(ctx context.Context) error {
	recs, err := s.remote.FetchAll(ctx)
	if err != nil {
		return err
	}
	s.store.ReplaceAll(recs)
	return nil
}

// Wait drains the remote halves still in flight.
func (s *Synchronizer) Wait() {
	s.tasks.Wait()
}
