package mongodb

import (
	"context"
	"errors"
	"fmt"
	"trust-multisig/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	eventsCollection = "events"
)

// AppendEvents stores committed notifications. Events are keyed by their id, so a
// repeated append of the same batch fails instead of duplicating the log.
func (r Repository) AppendEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	coll := r.collection(eventsCollection)

	docs := make([]interface{}, len(events))
	for i, event := range events {
		docs[i] = event
	}

	result, err := coll.InsertMany(ctx, docs)
	if err != nil {
		return errors.New("failed to insert events: " + err.Error())
	}
	if len(result.InsertedIDs) != len(events) {
		return errors.New(fmt.Sprint("inserted ", len(result.InsertedIDs), " events; expected: ", len(events)))
	}

	return nil
}

// EventsAfter returns the events with a sequence number above the given one, oldest first.
func (r Repository) EventsAfter(ctx context.Context, sequence uint64, limit int) ([]model.Event, error) {
	coll := r.collection(eventsCollection)

	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := coll.Find(ctx, bson.M{"sequence": bson.M{"$gt": sequence}}, opts)
	if err != nil {
		return nil, errors.New("failed to find events: " + err.Error())
	}

	var events []model.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, errors.New("failed to decode events: " + err.Error())
	}
	return events, nil
}
