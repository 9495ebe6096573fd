package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"
	"trust-multisig/internal/hashing"
	"trust-multisig/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	snapshotsCollection = "snapshots"
)

func (r Repository) SaveSnapshot(ctx context.Context, snapshot model.Snapshot) error {
	coll := r.collection(snapshotsCollection)

	content, digest, err := hashing.EncodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	stored := storedSnapshot{
		ID:       snapshotID,
		Snapshot: snapshot,
		Content:  content,
		Hash:     digest,
		SavedAt:  time.Now().UTC(),
	}

	filter := bson.M{"_id": snapshotID}
	if _, err := coll.ReplaceOne(ctx, filter, stored, options.Replace().SetUpsert(true)); err != nil {
		return errors.New("failed to save the snapshot: " + err.Error())
	}

	r.logger.Debug("snapshot saved", zap.Int("quorum", snapshot.Quorum), zap.Uint64("sequence", snapshot.LastEventSequence))
	return nil
}

// LoadSnapshot returns model.ErrSnapshotNotFound for an empty database.
func (r Repository) LoadSnapshot(ctx context.Context) (model.Snapshot, error) {
	coll := r.collection(snapshotsCollection)

	var stored storedSnapshot
	err := coll.FindOne(ctx, bson.M{"_id": snapshotID}).Decode(&stored)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Snapshot{}, model.ErrSnapshotNotFound
	}
	if err != nil {
		return model.Snapshot{}, errors.New("failed to find the snapshot: " + err.Error())
	}

	snapshot, err := hashing.DecodeSnapshot(stored.Content, stored.Hash)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("snapshot saved at %s: %w", stored.SavedAt.Format(time.RFC3339), err)
	}

	return snapshot, nil
}
