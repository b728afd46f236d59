package ports

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks DocumentStore,AllowlistStore

import (
	"context"

	"capacitor/internal/capacitor/domain"
)

// DocumentStore persists log documents into a namespaced document store.
// Implementations wrap sentinel.ErrRejected for writes that must not be retried.
type DocumentStore interface {
	InsertOne(ctx context.Context, namespace, collection string, doc domain.Document) error
	UpsertByCapID(ctx context.Context, namespace, collection, capID string, doc domain.Document) error
}

// AllowlistStore is the durable source of truth for monitored accounts.
type AllowlistStore interface {
	List(ctx context.Context) ([]string, error)
	Exists(ctx context.Context, accountID string) (bool, error)
	Insert(ctx context.Context, accountID string) error
}
