package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tuma-app/tuma/backend/internal/domain"
	"github.com/tuma-app/tuma/backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository on a MongoDB collection. Ids are uuid strings stored in _id.
type MongoRepository[T Entity] struct {
	col      *mongo.Collection
	resource string
	newFn    func() T
}

// NewMongoRepository wraps col. Every collection gets a userId index; extra indexes
// (unique keys) are created best-effort as well.
func NewMongoRepository[T Entity](col *mongo.Collection, resource string, newFn func() T, indexes ...mongo.IndexModel) *MongoRepository[T] {
	models := append([]mongo.IndexModel{{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}}, indexes...)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
		logger.Warnf("create indexes on %s: %v", col.Name(), err)
	}
	return &MongoRepository[T]{col: col, resource: resource, newFn: newFn}
}

func toBSON(f Filter) bson.M {
	m := bson.M{}
	for k, v := range f {
		m[k] = v
	}
	return m
}

func (r *MongoRepository[T]) Insert(ctx context.Context, e T) error {
	if e.GetID() == "" {
		e.SetID(uuid.NewString())
	}
	e.Touch(time.Now().UTC())
	e.SetVersion(1)
	if _, err := r.col.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict(r.resource + " already exists")
		}
		return fmt.Errorf("insert %s: %w", r.resource, err)
	}
	return nil
}

func (r *MongoRepository[T]) Get(ctx context.Context, owner, id string) (T, error) {
	return r.FindOne(ctx, owner, Filter{"_id": id})
}

func (r *MongoRepository[T]) FindOne(ctx context.Context, owner string, f Filter) (T, error) {
	var zero T
	out := r.newFn()
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if err := r.col.FindOne(ctx, toBSON(scoped(owner, f)), opts).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return zero, domain.NotFound(r.resource)
		}
		return zero, fmt.Errorf("find %s: %w", r.resource, err)
	}
	return out, nil
}

func (r *MongoRepository[T]) List(ctx context.Context, owner string, f Filter) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, toBSON(scoped(owner, f)), opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.resource, err)
	}
	defer cur.Close(ctx)
	out := []T{}
	for cur.Next(ctx) {
		e := r.newFn()
		if err := cur.Decode(e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.resource, err)
		}
		out = append(out, e)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", r.resource, err)
	}
	return out, nil
}

func (r *MongoRepository[T]) Replace(ctx context.Context, e T) error {
	prev := e.GetVersion()
	filter := bson.M{"_id": e.GetID(), "userId": e.GetUserID(), "version": prev}
	e.SetVersion(prev + 1)
	e.Touch(time.Now().UTC())
	res, err := r.col.ReplaceOne(ctx, filter, e)
	if err != nil {
		e.SetVersion(prev)
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict(r.resource + " already exists")
		}
		return fmt.Errorf("replace %s: %w", r.resource, err)
	}
	if res.MatchedCount == 0 {
		e.SetVersion(prev)
		n, cerr := r.col.CountDocuments(ctx, bson.M{"_id": e.GetID(), "userId": e.GetUserID()})
		if cerr == nil && n > 0 {
			return domain.Conflict(r.resource + " was modified concurrently")
		}
		return domain.NotFound(r.resource)
	}
	return nil
}

func (r *MongoRepository[T]) Delete(ctx context.Context, owner, id string) error {
	res, err := r.col.DeleteOne(ctx, toBSON(scoped(owner, Filter{"_id": id})))
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.resource, err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound(r.resource)
	}
	return nil
}
