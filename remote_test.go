package main

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDocs is an in-memory documents backend that records every call.
type fakeDocs struct {
	mu       sync.Mutex
	docs     map[string]Record
	fetch    []Record
	fetchErr error
	failOps  map[string]error // "set", "update", "delete"
	ops      []string
}

func newFakeDocs() *fakeDocs {
	return &fakeDocs{docs: map[string]Record{}, failOps: map[string]error{}}
}

func (f *fakeDocs) FindAll(ctx context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "findAll")
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]Record, len(f.fetch))
	copy(out, f.fetch)
	return out, nil
}

func (f *fakeDocs) Set(ctx context.Context, id string, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "set:"+id)
	if err := f.failOps["set"]; err != nil {
		return err
	}
	f.docs[id] = rec
	return nil
}

func (f *fakeDocs) Update(ctx context.Context, id string, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "update:"+id)
	if err := f.failOps["update"]; err != nil {
		return err
	}
	stored, ok := f.docs[id]
	if !ok {
		return errors.New("document not found")
	}
	stored.Title = rec.Title
	stored.Body = rec.Body
	stored.Date = rec.Date
	stored.Sticker = rec.Sticker
	stored.Done = rec.Done
	f.docs[id] = stored
	return nil
}

func (f *fakeDocs) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "delete:"+id)
	if err := f.failOps["delete"]; err != nil {
		return err
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeDocs) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ops))
	copy(out, f.ops)
	return out
}

func (f *fakeDocs) stored(id string) (Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.docs[id]
	return r, ok
}

func TestCreateForcesDoneFalse(t *testing.T) {
	docs := newFakeDocs()
	g := NewRemoteGateway(docs, &taskGroup{})

	in := rec("a")
	in.Done = true
	require.NoError(t, g.Create(context.Background(), in))

	stored, ok := docs.stored("a")
	require.True(t, ok)
	assert.False(t, stored.Done)
}

func TestCreateStoresDateVerbatim(t *testing.T) {
	docs := newFakeDocs()
	g := NewRemoteGateway(docs, &taskGroup{})

	in := rec("a")
	in.Date = "2024-3-1"
	require.NoError(t, g.Create(context.Background(), in))

	stored, _ := docs.stored("a")
	assert.Equal(t, "2024-3-1", stored.Date)
}

func TestUpdateNormalizesDate(t *testing.T) {
	docs := newFakeDocs()
	docs.docs["a"] = rec("a")
	g := NewRemoteGateway(docs, &taskGroup{})

	in := rec("a")
	in.Date = "2024-3-1"
	require.NoError(t, g.Update(context.Background(), in))

	stored, _ := docs.stored("a")
	assert.Equal(t, "2024-03-01", stored.Date)
}

func TestFetchAllWrapsFailure(t *testing.T) {
	docs := newFakeDocs()
	docs.fetchErr = errors.New("network down")
	g := NewRemoteGateway(docs, &taskGroup{})

	_, err := g.FetchAll(context.Background())
	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "fetchAll", rerr.Op)
	assert.ErrorIs(t, err, docs.fetchErr)
}

func TestDeleteWrapsFailure(t *testing.T) {
	docs := newFakeDocs()
	cause := errors.New("permission denied")
	docs.failOps["delete"] = cause
	g := NewRemoteGateway(docs, &taskGroup{})

	err := g.Delete(context.Background(), rec("a"))
	var rerr *RemoteError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "delete", rerr.Op)
	assert.Equal(t, "a", rerr.ID)
	assert.ErrorIs(t, err, cause)
}

func TestClearAllIssuesIndependentDeletes(t *testing.T) {
	docs := newFakeDocs()
	docs.docs["a"] = rec("a")
	docs.docs["b"] = rec("b")
	tasks := &taskGroup{}
	g := NewRemoteGateway(docs, tasks)

	g.ClearAll(context.Background(), []Record{rec("a"), rec("b")})
	tasks.Wait()

	ops := docs.opLog()
	assert.Len(t, ops, 2)
	assert.ElementsMatch(t, []string{"delete:a", "delete:b"}, ops)
	_, okA := docs.stored("a")
	_, okB := docs.stored("b")
	assert.False(t, okA)
	assert.False(t, okB)
}

func TestClearAllPartialFailureStillIssuesEveryDelete(t *testing.T) {
	docs := newFakeDocs()
	docs.failOps["delete"] = errors.New("flaky backend")
	tasks := &taskGroup{}
	g := NewRemoteGateway(docs, tasks)

	g.ClearAll(context.Background(), []Record{rec("a"), rec("b"), rec("c")})
	tasks.Wait()

	assert.ElementsMatch(t, []string{"delete:a", "delete:b", "delete:c"}, docs.opLog())
}
