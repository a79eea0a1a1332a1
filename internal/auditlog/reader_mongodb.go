package auditlog

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoDBReader implements Reader for MongoDB.
type MongoDBReader struct {
	collection *mongo.Collection
}

// NewMongoDBReader creates a new MongoDB audit log reader.
func NewMongoDBReader(database *mongo.Database) (*MongoDBReader, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &MongoDBReader{collection: database.Collection(auditCollection)}, nil
}

// List returns a page of audit log entries.
func (r *MongoDBReader) List(ctx context.Context, q Query) (*ListResult, error) {
	limit, offset := clampLimitOffset(q.Limit, q.Offset)
	filter := mongoFilter(q)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count audit log entries: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]LogEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit logs: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   int(total),
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// Get returns a single audit log entry by ID.
func (r *MongoDBReader) Get(ctx context.Context, id string) (*LogEntry, error) {
	var e LogEntry
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&e)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log by id: %w", err)
	}
	return &e, nil
}

func mongoFilter(q Query) bson.D {
	filter := bson.D{}

	ts := bson.D{}
	if !q.Since.IsZero() {
		ts = append(ts, bson.E{Key: "$gte", Value: q.Since.UTC()})
	}
	if !q.Until.IsZero() {
		ts = append(ts, bson.E{Key: "$lt", Value: q.Until.UTC()})
	}
	if len(ts) > 0 {
		filter = append(filter, bson.E{Key: "timestamp", Value: ts})
	}

	for _, f := range []struct{ key, value string }{
		{"transaction_id", q.TransactionID},
		{"scenario", q.Scenario},
		{"mode", q.Mode},
		{"error_type", q.ErrorType},
		{"payload_hash", q.PayloadHash},
	} {
		if f.value != "" {
			filter = append(filter, bson.E{Key: f.key, Value: f.value})
		}
	}

	if q.FailedOnly && q.ErrorType == "" {
		filter = append(filter, bson.E{Key: "error_type", Value: bson.D{
			{Key: "$exists", Value: true},
			{Key: "$ne", Value: ""},
		}})
	}
	return filter
}
