package models

import (
	"strings"
	"time"
)

// Base carries the fields every stored record shares: id, owner, optimistic-lock
// version and timestamps. Embed it inline.
type Base struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"userId" json:"userId"`
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (b *Base) GetID() string           { return b.ID }
func (b *Base) SetID(id string)         { b.ID = id }
func (b *Base) GetUserID() string       { return b.UserID }
func (b *Base) SetUserID(uid string)    { b.UserID = uid }
func (b *Base) GetVersion() int64       { return b.Version }
func (b *Base) SetVersion(v int64)      { b.Version = v }
func (b *Base) GetCreatedAt() time.Time { return b.CreatedAt }

// Touch sets CreatedAt on first write and UpdatedAt on every write.
func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// Listable is implemented by records exposed through the generic list endpoints.
type Listable interface {
	GetStatus() string
	SearchText() string
}

func joinSearch(parts ...string) string {
	return strings.ToLower(strings.Join(parts, " "))
}

// oneOf adapts a typed enum list to validation.In, which compares with ==.
func oneOf[T ~string](values []T) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Names converts a typed enum list to plain strings.
func Names[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
