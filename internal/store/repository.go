package store

import (
	"context"
	"time"
)

// Entity is implemented by every persisted record (see models.Base).
type Entity interface {
	GetID() string
	SetID(id string)
	GetUserID() string
	SetUserID(uid string)
	GetVersion() int64
	SetVersion(v int64)
	GetCreatedAt() time.Time
	Touch(now time.Time)
}

// Filter is an equality match on bson field names.
type Filter map[string]interface{}

// Repository is the owner-scoped persistence contract shared by all collections.
// An empty owner disables owner scoping (used for public share-token lookups).
type Repository[T Entity] interface {
	// Insert assigns an id when missing, stamps timestamps and sets version 1.
	Insert(ctx context.Context, e T) error
	Get(ctx context.Context, owner, id string) (T, error)
	// FindOne returns the most recently created match.
	FindOne(ctx context.Context, owner string, f Filter) (T, error)
	// List returns matches ordered by createdAt descending.
	List(ctx context.Context, owner string, f Filter) ([]T, error)
	// Replace writes e if the stored version still equals e's version, then bumps it.
	// A version mismatch returns a domain conflict error.
	Replace(ctx context.Context, e T) error
	Delete(ctx context.Context, owner, id string) error
}

func scoped(owner string, f Filter) Filter {
	out := make(Filter, len(f)+1)
	for k, v := range f {
		out[k] = v
	}
	if owner != "" {
		out["userId"] = owner
	}
	return out
}
