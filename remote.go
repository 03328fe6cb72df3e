package main

import (
	"context"
	"fmt"
)

// documents is the slice of the document store the gateway needs: one
// collection, keyed by record id. mongo.go implements it; the tests use an
// in-memory fake.
type documents interface {
	// FindAll returns every document in the collection, in query order.
	FindAll(ctx context.Context) ([]Record, error)
	// Set writes the full document at the given key, creating it if absent.
	Set(ctx context.Context, id string, rec Record) error
	// Update overwrites only the mutable fields of an existing document.
	Update(ctx context.Context, id string, rec Record) error
	// Delete removes the document at the given key.
	Delete(ctx context.Context, id string) error
}

// RemoteError wraps any document-store failure with the operation and the
// record it was about. Calls are never retried; one error is the end of
// that call.
type RemoteError struct {
	Op  string
	ID  string
	Err error
}

func (e *RemoteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s %q: %v", e.Op, e.ID, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// RemoteGateway issues one document-store call per logical operation.
type RemoteGateway struct {
	docs  documents
	tasks *taskGroup
}

func NewRemoteGateway(docs documents, tasks *taskGroup) *RemoteGateway {
	return &RemoteGateway{docs: docs, tasks: tasks}
}

// FetchAll reads the whole collection.
func (g *RemoteGateway) FetchAll(ctx context.Context) ([]Record, error) {
	recs, err := g.docs.FindAll(ctx)
	if err != nil {
		return nil, &RemoteError{Op: "fetchAll", Err: err}
	}
	return recs, nil
}

// Create writes a new document at rec.ID. Done is forced to false no
// matter what the caller sent.
func (g *RemoteGateway) Create(ctx context.Context, rec Record) error {
	rec.Done = false
	if err := g.docs.Set(ctx, rec.ID, rec); err != nil {
		return &RemoteError{Op: "create", ID: rec.ID, Err: err}
	}
	return nil
}

// Update rewrites the mutable fields of the document at rec.ID, with the
// date normalized. Unlike Create, which stores the date verbatim.
func (g *RemoteGateway) Update(ctx context.Context, rec Record) error {
	rec.Date = normalizeDate(rec.Date)
	if err := g.docs.Update(ctx, rec.ID, rec); err != nil {
		return &RemoteError{Op: "update", ID: rec.ID, Err: err}
	}
	return nil
}

// Delete removes the document at rec.ID.
func (g *RemoteGateway) Delete(ctx context.Context, rec Record) error {
	if err := g.docs.Delete(ctx, rec.ID); err != nil {
		return &RemoteError{Op: "delete", ID: rec.ID, Err: err}
	}
	return nil
}

// ClearAll issues one independent delete per record. The deletes do not
// wait on each other and their results are not aggregated; a partial
// failure only shows up in the logs and the failure counter.
func (g *RemoteGateway) ClearAll(ctx context.Context, recs []Record) {
	for _, rec := range recs {
		rec := rec
		g.tasks.Go("clear", func() error {
			return g.Delete(ctx, rec)
		})
	}
}
