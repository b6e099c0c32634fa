// Package crud implements the owner-scoped create/read/update/delete flow shared by every
// resource, with per-resource hooks for defaults, invariants and list statistics.
package crud

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/internal/models"
	"github.com/tuma-app/tuma/backend/internal/store"
)

// Record is a persisted, validated, listable resource.
type Record interface {
	store.Entity
	models.Listable
	Validate() error
	Defaults()
}

// Patch is a decoded PATCH body keyed by JSON field name. Hooks use it to see which
// fields the caller actually sent and to read flags that are not part of the record.
type Patch map[string]json.RawMessage

// Has reports whether the caller sent key.
func (p Patch) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Bool decodes a boolean flag, false when absent or malformed.
func (p Patch) Bool(key string) bool {
	var b bool
	if raw, ok := p[key]; ok {
		_ = json.Unmarshal(raw, &b)
	}
	return b
}

// Hooks customise a Service. Every field is optional.
type Hooks[T Record] struct {
	// Protected lists JSON fields a PATCH may not change, on top of id, userId,
	// createdAt and updatedAt.
	Protected []string
	// Transient lists JSON fields that are request flags rather than record fields.
	Transient []string
	// BeforeCreate runs after Defaults and before validation.
	BeforeCreate func(ctx context.Context, owner string, e T) error
	// BeforeUpdate runs on the merged record before validation.
	BeforeUpdate func(ctx context.Context, prev, next T, p Patch) error
	// AfterUpdate runs once the record is stored; it may return a fresher copy.
	AfterUpdate func(ctx context.Context, prev, next T) T
	// Decorate fills computed, non-persisted fields before records are returned.
	Decorate func(ctx context.Context, owner string, items []T) error
	// Stats computes list statistics over the owner's whole collection.
	Stats func(all []T, now time.Time) map[string]interface{}
}

// Service is the generic resource service.
type Service[T Record] struct {
	Repo     store.Repository[T]
	resource string
	newFn    func() T
	hooks    Hooks[T]
	now      func() time.Time
}

func NewService[T Record](repo store.Repository[T], resource string, newFn func() T, hooks Hooks[T]) *Service[T] {
	return &Service[T]{Repo: repo, resource: resource, newFn: newFn, hooks: hooks, now: func() time.Time { return time.Now().UTC() }}
}

// Resource returns the singular resource name used in error messages.
func (s *Service[T]) Resource() string { return s.resource }

// New returns an empty record, for decoding request bodies.
func (s *Service[T]) New() T { return s.newFn() }

// Now returns the service clock.
func (s *Service[T]) Now() time.Time { return s.now() }

// SetClock replaces the clock; for tests.
func (s *Service[T]) SetClock(now func() time.Time) { s.now = now }

func (s *Service[T]) decorate(ctx context.Context, owner string, items ...T) error {
	if s.hooks.Decorate == nil || len(items) == 0 {
		return nil
	}
	return s.hooks.Decorate(ctx, owner, items)
}

// Create stores e for owner after defaults, hooks and validation.
func (s *Service[T]) Create(ctx context.Context, owner string, e T) (T, error) {
	var zero T
	e.SetID("")
	e.SetUserID(owner)
	e.SetVersion(0)
	e.Defaults()
	if s.hooks.BeforeCreate != nil {
		if err := s.hooks.BeforeCreate(ctx, owner, e); err != nil {
			return zero, err
		}
	}
	if err := e.Validate(); err != nil {
		return zero, domain.FromValidation(err)
	}
	if err := s.Repo.Insert(ctx, e); err != nil {
		return zero, err
	}
	if err := s.decorate(ctx, owner, e); err != nil {
		return zero, err
	}
	return e, nil
}

func (s *Service[T]) Get(ctx context.Context, owner, id string) (T, error) {
	var zero T
	e, err := s.Repo.Get(ctx, owner, id)
	if err != nil {
		return zero, err
	}
	if err := s.decorate(ctx, owner, e); err != nil {
		return zero, err
	}
	return e, nil
}

// Update merges the JSON body into the stored record and writes it back. A body carrying
// a stale version fails with a conflict.
func (s *Service[T]) Update(ctx context.Context, owner, id string, body []byte) (T, error) {
	var zero T
	var patch Patch
	if err := json.Unmarshal(body, &patch); err != nil {
		return zero, domain.Invalid("invalid JSON body")
	}
	prev, err := s.Repo.Get(ctx, owner, id)
	if err != nil {
		return zero, err
	}
	next, err := s.merge(prev, patch)
	if err != nil {
		return zero, err
	}
	if s.hooks.BeforeUpdate != nil {
		if err := s.hooks.BeforeUpdate(ctx, prev, next, patch); err != nil {
			return zero, err
		}
	}
	if err := next.Validate(); err != nil {
		return zero, domain.FromValidation(err)
	}
	if err := s.Repo.Replace(ctx, next); err != nil {
		return zero, err
	}
	if s.hooks.AfterUpdate != nil {
		next = s.hooks.AfterUpdate(ctx, prev, next)
	}
	if err := s.decorate(ctx, owner, next); err != nil {
		return zero, err
	}
	return next, nil
}

// Save replaces e as is (no merge); used by services that mutate records themselves.
func (s *Service[T]) Save(ctx context.Context, e T) error {
	if err := e.Validate(); err != nil {
		return domain.FromValidation(err)
	}
	return s.Repo.Replace(ctx, e)
}

// merge overlays the sent top-level fields on prev and decodes the result into a fresh
// record. A sent field replaces the stored value whole; slices are never merged element
// by element.
func (s *Service[T]) merge(prev T, p Patch) (T, error) {
	var zero T
	b, err := json.Marshal(prev)
	if err != nil {
		return zero, err
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return zero, err
	}
	for k, v := range s.strip(p) {
		doc[k] = v
	}
	if b, err = json.Marshal(doc); err != nil {
		return zero, err
	}
	next := s.newFn()
	if err := json.Unmarshal(b, next); err != nil {
		return zero, domain.Invalid("invalid field: " + err.Error())
	}
	return next, nil
}

func (s *Service[T]) strip(p Patch) Patch {
	drop := append([]string{"id", "userId", "createdAt", "updatedAt"}, s.hooks.Protected...)
	drop = append(drop, s.hooks.Transient...)
	clean := make(Patch, len(p))
	for k, v := range p {
		clean[k] = v
	}
	for _, k := range drop {
		delete(clean, k)
	}
	return clean
}

func (s *Service[T]) Delete(ctx context.Context, owner, id string) error {
	return s.Repo.Delete(ctx, owner, id)
}

// All returns every record of owner, newest first, without decoration.
func (s *Service[T]) All(ctx context.Context, owner string) ([]T, error) {
	return s.Repo.List(ctx, owner, nil)
}

// Query selects and paginates a list.
type Query[T Record] struct {
	Status string
	Search string
	Page   int
	Limit  int
	// Filter holds extra equality matches on bson field names (e.g. missionId).
	Filter store.Filter
	// Where is an optional in-memory predicate (e.g. a date window).
	Where func(T) bool
	// Less overrides the default newest-first order.
	Less func(a, b T) bool
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page is a list response.
type Page[T Record] struct {
	Items []T                    `json:"items"`
	Total int                    `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
	Stats map[string]interface{} `json:"stats"`
}

// List rescans the owner's collection, computes stats over all of it, then filters,
// sorts and paginates.
func (s *Service[T]) List(ctx context.Context, owner string, q Query[T]) (*Page[T], error) {
	all, err := s.Repo.List(ctx, owner, nil)
	if err != nil {
		return nil, err
	}
	stats := CountByStatus(all)
	if s.hooks.Stats != nil {
		for k, v := range s.hooks.Stats(all, s.now()) {
			stats[k] = v
		}
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	var items []T
	if len(q.Filter) > 0 {
		if items, err = s.Repo.List(ctx, owner, q.Filter); err != nil {
			return nil, err
		}
	} else {
		items = all
	}
	filtered := make([]T, 0, len(items))
	for _, e := range items {
		if q.Status != "" && e.GetStatus() != q.Status {
			continue
		}
		if search != "" && !strings.Contains(e.SearchText(), search) {
			continue
		}
		if q.Where != nil && !q.Where(e) {
			continue
		}
		filtered = append(filtered, e)
	}
	if q.Less != nil {
		sort.SliceStable(filtered, func(i, j int) bool { return q.Less(filtered[i], filtered[j]) })
	}

	page, limit := normalizePage(q.Page, q.Limit)
	start := (page - 1) * limit
	end := start + limit
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}
	out := filtered[start:end]
	if err := s.decorate(ctx, owner, out...); err != nil {
		return nil, err
	}
	return &Page[T]{Items: out, Total: len(filtered), Page: page, Limit: limit, Stats: stats}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// CountByStatus returns {"total": n, "byStatus": {status: count}}.
func CountByStatus[T models.Listable](items []T) map[string]interface{} {
	by := map[string]int{}
	for _, e := range items {
		by[e.GetStatus()]++
	}
	return map[string]interface{}{"total": len(items), "byStatus": by}
}
