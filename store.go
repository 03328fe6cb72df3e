package main

import "sync"

// RecordStore holds the session-local list of records. It is owned by the
// Synchronizer; nothing else mutates it. The lock is there because gin
// serves handlers on separate goroutines.
type RecordStore struct {
	mu   sync.Mutex
	list []Record
}

func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

// List returns a copy of the current contents.
func (s *RecordStore) List() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Insert appends a record and returns the new contents. Uniqueness of the
// id is the caller's invariant; it is not checked here.
func (s *RecordStore) Insert(rec Record) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append(s.list, rec)
	return s.snapshot()
}

// ReplaceByKey overwrites the mutable fields of the first record whose id
// matches. A miss is a no-op. The date is normalized on the way in.
func (s *RecordStore) ReplaceByKey(rec Record) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		if s.list[i].ID == rec.ID {
			s.list[i].Title = rec.Title
			s.list[i].Body = rec.Body
			s.list[i].Date = normalizeDate(rec.Date)
			s.list[i].Sticker = rec.Sticker
			s.list[i].Done = rec.Done
			break
		}
	}
	return s.snapshot()
}

// RemoveByKey deletes the first record whose id matches. A miss is a no-op.
func (s *RecordStore) RemoveByKey(rec Record) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		if s.list[i].ID == rec.ID {
			s.list = append(s.list[:i], s.list[i+1:]...)
			break
		}
	}
	return s.snapshot()
}

// ReplaceAll discards the current contents and adopts recs wholesale,
// preserving their order. Used after a full remote fetch.
func (s *RecordStore) ReplaceAll(recs []Record) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = make([]Record, len(recs))
	copy(s.list, recs)
	return s.snapshot()
}

// Clear empties the store.
func (s *RecordStore) Clear() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = nil
	return s.snapshot()
}

func (s *RecordStore) snapshot() []Record {
	out := make([]Record, len(s.list))
	copy(out, s.list)
	return out
}
