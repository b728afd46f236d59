// Package memory provides in-process document and allowlist stores with the
// same semantics as the database backends.
package memory

import (
	"context"
	"sync"

	"capacitor/internal/capacitor/domain"
)

type collectionKey struct {
	namespace  string
	collection string
}

// Documents stores documents per namespace and collection.
type Documents struct {
	mu   sync.RWMutex
	docs map[collectionKey][]domain.Document
}

func NewDocuments() *Documents {
	return &Documents{docs: make(map[collectionKey][]domain.Document)}
}

func (s *Documents) InsertOne(ctx context.Context, namespace, collection string, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := collectionKey{namespace: namespace, collection: collection}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append(s.docs[key], doc.Clone())
	return nil
}

// UpsertByCapID sets the fields of doc on the first document whose cap_id equals
// capID, or inserts doc when none matches.
func (s *Documents) UpsertByCapID(ctx context.Context, namespace, collection, capID string, doc domain.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := collectionKey{namespace: namespace, collection: collection}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.docs[key] {
		if existing[domain.FieldCapID] != capID {
			continue
		}
		for k, v := range doc.Clone() {
			existing[k] = v
		}
		return nil
	}
	inserted := doc.Clone()
	inserted[domain.FieldCapID] = capID
	s.docs[key] = append(s.docs[key], inserted)
	return nil
}

// Find returns copies of every document in a collection, in insertion order.
func (s *Documents) Find(namespace, collection string) []domain.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.docs[collectionKey{namespace: namespace, collection: collection}]
	out := make([]domain.Document, 0, len(stored))
	for _, doc := range stored {
		out = append(out, doc.Clone())
	}
	return out
}

// Count returns the total number of stored documents across all collections.
func (s *Documents) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, docs := range s.docs {
		n += len(docs)
	}
	return n
}
