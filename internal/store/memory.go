package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
)

// MemoryRepository is an in-memory Repository used for development without MongoDB and
// in tests. Records are kept bson-encoded so callers never share state with the store
// and filters see the same field names as in Mongo.
type MemoryRepository[T Entity] struct {
	mu       sync.RWMutex
	docs     map[string][]byte
	resource string
	newFn    func() T
	unique   [][]string
}

func NewMemoryRepository[T Entity](resource string, newFn func() T) *MemoryRepository[T] {
	return &MemoryRepository[T]{docs: make(map[string][]byte), resource: resource, newFn: newFn}
}

// WithUnique declares a sparse unique key: records missing any of the fields are not constrained.
func (m *MemoryRepository[T]) WithUnique(fields ...string) *MemoryRepository[T] {
	m.unique = append(m.unique, fields)
	return m
}

func (m *MemoryRepository[T]) decode(raw []byte) (T, bson.M, error) {
	var zero T
	e := m.newFn()
	if err := bson.Unmarshal(raw, e); err != nil {
		return zero, nil, fmt.Errorf("decode %s: %w", m.resource, err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return zero, nil, fmt.Errorf("decode %s: %w", m.resource, err)
	}
	return e, fields, nil
}

func matches(fields bson.M, f Filter) bool {
	for k, want := range f {
		got, ok := fields[k]
		if !ok {
			if fmt.Sprint(want) == "" {
				continue
			}
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// violatesUnique must be called with the lock held.
func (m *MemoryRepository[T]) violatesUnique(id string, fields bson.M) bool {
	for _, key := range m.unique {
		want := Filter{}
		sparse := false
		for _, k := range key {
			v, ok := fields[k]
			if !ok || fmt.Sprint(v) == "" {
				sparse = true
				break
			}
			want[k] = v
		}
		if sparse {
			continue
		}
		for otherID, raw := range m.docs {
			if otherID == id {
				continue
			}
			var other bson.M
			if err := bson.Unmarshal(raw, &other); err == nil && matches(other, want) {
				return true
			}
		}
	}
	return false
}

func (m *MemoryRepository[T]) write(id string, e T) error {
	raw, err := bson.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", m.resource, err)
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("encode %s: %w", m.resource, err)
	}
	if m.violatesUnique(id, fields) {
		return domain.Conflict(m.resource + " already exists")
	}
	m.docs[id] = raw
	return nil
}

func (m *MemoryRepository[T]) Insert(ctx context.Context, e T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.GetID() == "" {
		e.SetID(uuid.NewString())
	}
	if _, ok := m.docs[e.GetID()]; ok {
		return domain.Conflict(m.resource + " already exists")
	}
	e.Touch(time.Now().UTC())
	e.SetVersion(1)
	return m.write(e.GetID(), e)
}

func (m *MemoryRepository[T]) Get(ctx context.Context, owner, id string) (T, error) {
	return m.FindOne(ctx, owner, Filter{"_id": id})
}

func (m *MemoryRepository[T]) FindOne(ctx context.Context, owner string, f Filter) (T, error) {
	var zero T
	list, err := m.List(ctx, owner, f)
	if err != nil {
		return zero, err
	}
	if len(list) == 0 {
		return zero, domain.NotFound(m.resource)
	}
	return list[0], nil
}

func (m *MemoryRepository[T]) List(ctx context.Context, owner string, f Filter) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := scoped(owner, f)
	out := []T{}
	for _, raw := range m.docs {
		e, fields, err := m.decode(raw)
		if err != nil {
			return nil, err
		}
		if matches(fields, want) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].GetCreatedAt(), out[j].GetCreatedAt()
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return strings.Compare(out[i].GetID(), out[j].GetID()) < 0
	})
	return out, nil
}

func (m *MemoryRepository[T]) Replace(ctx context.Context, e T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[e.GetID()]
	if !ok {
		return domain.NotFound(m.resource)
	}
	cur, _, err := m.decode(raw)
	if err != nil {
		return err
	}
	if cur.GetUserID() != e.GetUserID() {
		return domain.NotFound(m.resource)
	}
	if cur.GetVersion() != e.GetVersion() {
		return domain.Conflict(m.resource + " was modified concurrently")
	}
	prev := e.GetVersion()
	e.SetVersion(prev + 1)
	e.Touch(time.Now().UTC())
	if err := m.write(e.GetID(), e); err != nil {
		e.SetVersion(prev)
		return err
	}
	return nil
}

func (m *MemoryRepository[T]) Delete(ctx context.Context, owner, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.docs[id]
	if !ok {
		return domain.NotFound(m.resource)
	}
	if owner != "" {
		cur, _, err := m.decode(raw)
		if err != nil {
			return err
		}
		if cur.GetUserID() != owner {
			return domain.NotFound(m.resource)
		}
	}
	delete(m.docs, id)
	return nil
}
