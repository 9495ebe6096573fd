package events_test

import (
	"errors"
	"testing"
	"trust-multisig/internal/events"
	"trust-multisig/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuffer(t *testing.T) {
	buf := events.NewBuffer()
	buf.Emit(model.OwnerConfirmed("n"))
	buf.Emit(model.OwnerTrustedBy("n", "o2"))

	got := buf.Events()
	require.Len(t, got, 2)
	assert.Equal(t, model.EventOwnerConfirmed, got[0].Type)
	assert.Equal(t, model.EventOwnerTrustedBy, got[1].Type)

	buf.Emit(model.OwnerRevoked("n"))
	assert.Len(t, got, 2, "returned slice is a copy")
	assert.Len(t, buf.Events(), 3)
}

func TestDispatcherStampsAndDelivers(t *testing.T) {
	d := events.NewDispatcher(zap.NewNop())
	d.SetSequence(10)

	var typed, all []model.Event
	d.SetHandler(model.EventTxConfirmed, func(e model.Event) error {
		typed = append(typed, e)
		return nil
	})
	d.Subscribe(func(e model.Event) error {
		all = append(all, e)
		return errors.New("subscriber failure does not stop delivery")
	})

	stamped := d.Stamp([]model.Event{
		model.TxConfirmed("o1", 0, 1),
		model.TxQuorumReached(0),
	})
	d.Dispatch(stamped)

	require.Len(t, all, 2)
	require.Len(t, typed, 1)
	assert.Equal(t, uint64(11), all[0].Sequence)
	assert.Equal(t, uint64(12), all[1].Sequence)
	assert.NotEmpty(t, all[0].ID)
	assert.NotEqual(t, all[0].ID, all[1].ID)
	assert.False(t, all[0].Timestamp.IsZero())
	assert.Equal(t, uint64(12), d.Sequence())
	assert.Equal(t, 1, typed[0].Count)
}

func TestHandlerMayRegisterHandlers(t *testing.T) {
	d := events.NewDispatcher(zap.NewNop())

	var late int
	d.SetHandler(model.EventQuorumChanged, func(e model.Event) error {
		d.Subscribe(func(model.Event) error {
			late++
			return nil
		})
		assert.Zero(t, d.Sequence(), "sequence stays readable during delivery")
		return nil
	})

	d.Dispatch([]model.Event{model.QuorumChanged(3, 2)})
	assert.Zero(t, late, "handlers added during delivery start with the next call")

	d.Dispatch([]model.Event{model.QuorumChanged(2, 2)})
	assert.Equal(t, 1, late)
}
