package mongodb

import (
	"time"
	"trust-multisig/internal/model"
)

// the engine keeps a single snapshot document, replaced on every commit
const snapshotID = "engine"

// Snapshot holds the queryable form; Content is the canonical encoding the hash is
// computed over and the one restored from.
type storedSnapshot struct {
	ID       string         `bson:"_id" json:"id"`
	Snapshot model.Snapshot `bson:"snapshot" json:"snapshot"`
	Content  []byte         `bson:"content" json:"content"`
	Hash     string         `bson:"hash" json:"hash"`
	SavedAt  time.Time      `bson:"savedAt" json:"savedAt"`
}
