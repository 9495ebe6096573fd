package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
	"trust-multisig/internal/model"
	"trust-multisig/internal/repository/sqlite"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openStore(t *testing.T) (*sqlite.Store, string) {
	path := filepath.Join(t.TempDir(), "data", "multisig.db")
	store, err := sqlite.Open(zap.NewNop(), path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, path
}

func testSnapshot() model.Snapshot {
	owners := model.Addresses("a", "b", "c")
	return model.Snapshot{
		Quorum:         2,
		RevocationRule: "half",
		Owners: []model.Owner{
			{ID: "a", Supporters: owners},
			{ID: "b", Supporters: owners},
			{ID: "c", Supporters: owners},
			{ID: "n", Supporters: model.Addresses("a")},
		},
		Transactions: []model.Transaction{{
			Index:         0,
			Destination:   "recipient",
			Value:         12,
			Payload:       []byte{0xca, 0xfe},
			Confirmations: 1,
			ConfirmedBy:   model.Addresses("b"),
			Status:        model.TxStatusPending,
		}},
		LastEventSequence: 6,
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	_, err := store.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, model.ErrSnapshotNotFound)

	snapshot := testSnapshot()
	require.NoError(t, store.SaveSnapshot(ctx, snapshot))

	snapshot.Quorum = 3
	require.NoError(t, store.SaveSnapshot(ctx, snapshot))

	loaded, err := store.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Quorum)
	assert.Equal(t, snapshot.Owners, loaded.Owners)
	require.Len(t, loaded.Transactions, 1)
	assert.Equal(t, snapshot.Transactions[0].Payload, loaded.Transactions[0].Payload)
	assert.Equal(t, snapshot.Transactions[0].ConfirmedBy, loaded.Transactions[0].ConfirmedBy)
	assert.Equal(t, uint64(6), loaded.LastEventSequence)
}

func TestSnapshotSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	store, path := openStore(t)
	require.NoError(t, store.SaveSnapshot(ctx, testSnapshot()))
	require.NoError(t, store.Close())

	reopened, err := sqlite.Open(zap.NewNop(), path)
	require.NoError(t, err)
	defer reopened.Close()

	loaded, err := reopened.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Quorum)
}

func TestCorruptSnapshotIsDetected(t *testing.T) {
	ctx := context.Background()
	store, path := openStore(t)
	require.NoError(t, store.SaveSnapshot(ctx, testSnapshot()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`UPDATE snapshots SET hash = 'deadbeef' WHERE id = 1`)
	require.NoError(t, err)

	_, err = store.LoadSnapshot(ctx)
	assert.ErrorIs(t, err, model.ErrSnapshotCorrupt)
}

func TestEventLog(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	now := time.Date(2026, 10, 17, 12, 30, 0, 123456789, time.UTC)
	events := []model.Event{
		{ID: uuid.NewString(), Sequence: 1, Type: model.EventTxSubmitted, Timestamp: now, Index: 0, Destination: "r", Value: 3},
		{ID: uuid.NewString(), Sequence: 2, Type: model.EventTxConfirmed, Timestamp: now, Principal: "a", Count: 1},
		{ID: uuid.NewString(), Sequence: 3, Type: model.EventTxExecutionFailed, Timestamp: now, Reason: "rejected"},
	}
	require.NoError(t, store.AppendEvents(ctx, events))
	assert.Error(t, store.AppendEvents(ctx, events[2:]), "sequence numbers are unique")

	stored, err := store.EventsAfter(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, events, stored)

	stored, err = store.EventsAfter(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, model.EventTxConfirmed, stored[0].Type)
}
