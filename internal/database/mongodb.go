package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tuma-app/tuma/backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	Users         = "users"
	Sessions      = "sessions"
	Clients       = "clients"
	Quotes        = "quotes"
	Missions      = "missions"
	Invoices      = "invoices"
	Events        = "events"
	Tasks         = "tasks"
	TimeEntries   = "time_entries"
	Opportunities = "opportunities"
	Documents     = "documents"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// ConnectWithRetry retries ConnectMongo with exponential backoff to tolerate startup races.
func ConnectWithRetry(ctx context.Context, uri string, timeout time.Duration, attempts int) (*mongo.Client, error) {
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := ConnectMongo(ctx, uri, timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, attempts, err)
		if attempt < attempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return nil, lastErr
}

// Indexes returns the extra indexes of a collection on top of the (userId, createdAt)
// index every repository creates.
func Indexes(collection string) []mongo.IndexModel {
	switch collection {
	case Users:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "sub", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		}
	case Missions:
		// at most one mission per accepted quote; missions without a quote are unconstrained
		return []mongo.IndexModel{{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "quoteId", Value: 1}},
			Options: options.Index().SetUnique(true).
				SetPartialFilterExpression(bson.M{"quoteId": bson.M{"$type": "string"}}),
		}}
	case Quotes:
		return []mongo.IndexModel{
			{Keys: bson.D{{Key: "shareToken", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "quoteNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		}
	case Invoices:
		// numbering retries on a duplicate key
		return []mongo.IndexModel{{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "invoiceNumber", Value: 1}},
			Options: options.Index().SetUnique(true),
		}}
	case Events:
		return []mongo.IndexModel{{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "start", Value: 1}}}}
	}
	return nil
}
