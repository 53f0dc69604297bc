// Package docstore provides the in-process document store backing the
// checkout flow: keyed JSON-like documents with deep merge-writes and
// per-key change subscriptions.
package docstore

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"SidraStore/internal/core/domain"
	"SidraStore/internal/core/ports"
)

// MemoryStore implements ports.DocumentStore entirely in memory.
// Every snapshot handed to a subscriber is a deep copy, so handlers may
// hold or mutate it freely, and each subscriber receives snapshots in
// write order. An optional archive repository receives a write-through
// copy of each merged document.
type MemoryStore struct {
	mu      sync.RWMutex
	log     zerolog.Logger
	docs    map[string]domain.Record
	subs    map[string]map[int]*subscriber
	nextSub int
	archive ports.CheckoutRecordRepository
}

// subscriber delivers snapshots to one handler through an ordered
// queue drained by a single goroutine, so a handler never observes an
// older snapshot after a newer one.
type subscriber struct {
	mu       sync.Mutex
	handler  func(domain.Record)
	queue    []domain.Record
	draining bool
}

// enqueue appends a snapshot and starts a drain if none is running.
// Callers must guarantee their own ordering; the store enqueues under
// its write lock.
func (s *subscriber) enqueue(rec domain.Record) {
	s.mu.Lock()
	s.queue = append(s.queue, rec)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()
	go s.drain()
}

func (s *subscriber) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		rec := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.handler(rec)
	}
}

var _ ports.DocumentStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. archive may be nil.
func NewMemoryStore(archive ports.CheckoutRecordRepository, baseLogger *zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		log:     baseLogger.With().Str("component", "docstore").Logger(),
		docs:    make(map[string]domain.Record),
		subs:    make(map[string]map[int]*subscriber),
		archive: archive,
	}
}

// WriteMerge deep-merges partial into the document at key, creating it
// when absent, then notifies every subscriber of that key.
func (s *MemoryStore) WriteMerge(ctx context.Context, key string, partial map[string]any) error {
	s.mu.Lock()
	doc, ok := s.docs[key]
	if !ok {
		doc = domain.Record{}
		s.docs[key] = doc
	}
	doc.Merge(partial)
	snapshot := doc.Clone()
	// Enqueue under the store lock so concurrent writes reach every
	// subscriber's queue in the same order they were merged.
	for _, sub := range s.subs[key] {
		sub.enqueue(snapshot.Clone())
	}
	s.mu.Unlock()

	if s.archive != nil {
		if err := s.archive.Upsert(ctx, key, snapshot); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Archive write failed")
		}
	}
	return nil
}

// ReadOnce returns a copy of the document at key, or nil when absent.
func (s *MemoryStore) ReadOnce(ctx context.Context, key string) (domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, nil
	}
	return doc.Clone(), nil
}

// Subscribe registers onChange for every future write to key. If the
// document already exists its current state is delivered shortly after
// subscribing, ahead of any later write. The returned function cancels
// the subscription and is safe to call more than once.
func (s *MemoryStore) Subscribe(key string, onChange func(domain.Record), onError func(error)) func() {
	sub := &subscriber{handler: onChange}

	s.mu.Lock()
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]*subscriber)
	}
	id := s.nextSub
	s.nextSub++
	s.subs[key][id] = sub

	if doc, ok := s.docs[key]; ok {
		sub.enqueue(doc.Clone())
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs[key], id)
			if len(s.subs[key]) == 0 {
				delete(s.subs, key)
			}
		})
	}
}
