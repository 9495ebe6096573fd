package membership_test

import (
	"testing"
	"trust-multisig/internal/events"
	"trust-multisig/internal/membership"
	"trust-multisig/internal/model"
	"trust-multisig/internal/quorum"
	"trust-multisig/internal/trustgraph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	graph   *trustgraph.Graph
	policy  *quorum.Policy
	manager membership.Manager
	buf     *events.Buffer
}

func newFixture(t *testing.T, q int, eligibility membership.Eligibility, ids ...string) fixture {
	g := trustgraph.New()
	for _, id := range ids {
		require.NoError(t, g.AddOwner(model.Address(id), model.Addresses(ids...)))
	}
	p, err := quorum.New(g, q, quorum.RevokeAtHalfQuorum)
	require.NoError(t, err)

	return fixture{
		graph:   g,
		policy:  p,
		manager: membership.NewManager(zap.NewNop(), g, p, eligibility),
		buf:     events.NewBuffer(),
	}
}

func eventTypes(evts []model.Event) []model.EventType {
	out := make([]model.EventType, len(evts))
	for i, e := range evts {
		out[i] = e.Type
	}
	return out
}

type denyList map[model.Address]bool

func (d denyList) IsEligiblePrincipal(id model.Address) bool {
	return !d[id]
}

func TestSubmitOwner(t *testing.T) {
	f := newFixture(t, 2, nil, "o1", "o2", "o3")

	require.NoError(t, f.manager.SubmitOwner("o1", "n", f.buf))
	assert.Equal(t, []model.EventType{model.EventOwnerSubmitted}, eventTypes(f.buf.Events()))

	value, err := f.policy.TrustValue("n")
	require.NoError(t, err)
	assert.Equal(t, -1, value)

	supporters, err := f.graph.Supporters("n")
	require.NoError(t, err)
	assert.Equal(t, model.Addresses("o1"), supporters)

	// the new owner cannot act until it is trusted
	assert.ErrorIs(t, f.manager.SubmitOwner("n", "m", f.buf), model.ErrNotTrusted)
	assert.ErrorIs(t, f.manager.SubmitOwner("stranger", "m", f.buf), model.ErrOwnerNotFound)
	assert.ErrorIs(t, f.manager.SubmitOwner("o2", "n", f.buf), model.ErrAlreadyOwner)
	assert.ErrorIs(t, f.manager.SubmitOwner("o2", "", f.buf), model.ErrInvalidPrincipal)
	assert.Len(t, f.buf.Events(), 1, "failed calls emit nothing")
}

func TestSubmitIneligibleOwner(t *testing.T) {
	f := newFixture(t, 2, denyList{"contract": true}, "o1", "o2", "o3")

	err := f.manager.SubmitOwner("o1", "contract", f.buf)
	assert.ErrorIs(t, err, model.ErrIneligiblePrincipal)
	assert.False(t, f.graph.IsOwner("contract"))
}

func TestSupportOwnerConfirmsOnce(t *testing.T) {
	f := newFixture(t, 2, nil, "o1", "o2", "o3")
	require.NoError(t, f.manager.SubmitOwner("o1", "n", f.buf))
	f.buf = events.NewBuffer()

	require.NoError(t, f.manager.SupportOwner("o2", "n", f.buf))
	got := f.buf.Events()
	require.Len(t, got, 2)
	assert.Equal(t, model.OwnerConfirmed("n"), got[0])
	assert.Equal(t, model.OwnerTrustedBy("n", "o2"), got[1])

	value, err := f.policy.TrustValue("n")
	require.NoError(t, err)
	assert.Equal(t, 0, value)

	f.buf = events.NewBuffer()
	require.NoError(t, f.manager.SupportOwner("o3", "n", f.buf))
	assert.Equal(t, []model.EventType{model.EventOwnerTrustedBy}, eventTypes(f.buf.Events()))

	f.buf = events.NewBuffer()
	assert.ErrorIs(t, f.manager.SupportOwner("o3", "n", f.buf), model.ErrAlreadySupporting)
	assert.ErrorIs(t, f.manager.SupportOwner("o3", "ghost", f.buf), model.ErrOwnerNotFound)
	assert.Empty(t, f.buf.Events())

	// once trusted, the new owner can act
	assert.NoError(t, f.manager.SubmitOwner("n", "m", f.buf))
}

func TestUnsupportOwnerRevokes(t *testing.T) {
	f := newFixture(t, 2, nil, "o1", "o2", "o3", "o4")
	require.NoError(t, f.manager.SubmitOwner("o1", "n", f.buf))
	require.NoError(t, f.manager.SupportOwner("o2", "n", f.buf))
	f.buf = events.NewBuffer()

	require.NoError(t, f.manager.UnsupportOwner("o2", "n", f.buf))
	got := f.buf.Events()
	require.Len(t, got, 2)
	assert.Equal(t, model.OwnerRevoked("n"), got[0])
	assert.Equal(t, model.OwnerUntrustedBy("n", "o2"), got[1])
	assert.False(t, f.policy.IsTrusted("n"))
	assert.Equal(t, 2, f.policy.Quorum())

	f.buf = events.NewBuffer()
	assert.ErrorIs(t, f.manager.UnsupportOwner("o2", "n", f.buf), model.ErrNotSupporter)
	assert.ErrorIs(t, f.manager.UnsupportOwner("o2", "ghost", f.buf), model.ErrOwnerNotFound)
	assert.Empty(t, f.buf.Events())
}

func TestUnsupportOwnerRollsBackBelowFloor(t *testing.T) {
	f := newFixture(t, 2, nil, "o1", "o2", "o3")

	require.NoError(t, f.manager.UnsupportOwner("o2", "o1", f.buf))
	f.buf = events.NewBuffer()

	before, err := f.graph.Supporters("o1")
	require.NoError(t, err)

	err = f.manager.UnsupportOwner("o3", "o1", f.buf)
	assert.ErrorIs(t, err, model.ErrInsufficientTrustedOwners)
	assert.Empty(t, f.buf.Events())

	after, err := f.graph.Supporters("o1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, f.policy.IsTrusted("o1"))
	assert.Equal(t, 2, f.policy.Quorum())
	assert.Equal(t, 3, f.policy.TrustedCount())
}

func TestUnsupportOwnerLowersQuorum(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f"}
	g := trustgraph.New()
	for _, id := range ids[:3] {
		require.NoError(t, g.AddOwner(model.Address(id), model.Addresses(ids...)))
	}
	for _, id := range ids[3:] {
		require.NoError(t, g.AddOwner(model.Address(id), model.Addresses("a", "b", "c", "d")))
	}
	p, err := quorum.New(g, 5, quorum.RevokeAtHalfQuorum)
	require.NoError(t, err)
	m := membership.NewManager(zap.NewNop(), g, p, nil)
	buf := events.NewBuffer()

	require.NoError(t, m.UnsupportOwner("b", "a", buf))
	require.NoError(t, m.UnsupportOwner("c", "a", buf))

	assert.Equal(t, []model.EventType{
		model.EventOwnerUntrustedBy,
		model.EventOwnerUntrustedBy,
		model.EventQuorumChanged,
		model.EventOwnerConfirmed,
		model.EventOwnerConfirmed,
		model.EventOwnerConfirmed,
	}, eventTypes(buf.Events()))
	assert.Equal(t, 4, p.Quorum())
	changed := buf.Events()[2]
	assert.Equal(t, 5, changed.OldQuorum)
	assert.Equal(t, 4, changed.NewQuorum)

	var confirmed []model.Address
	for _, e := range buf.Events()[3:] {
		confirmed = append(confirmed, e.Owner)
	}
	assert.Equal(t, model.Addresses("d", "e", "f"), confirmed, "owners trusted by the lowered quorum")
}

func TestUntrustedCallerIsGated(t *testing.T) {
	f := newFixture(t, 2, nil, "o1", "o2", "o3")
	require.NoError(t, f.manager.SubmitOwner("o1", "n", f.buf))

	assert.ErrorIs(t, f.manager.SupportOwner("n", "o1", f.buf), model.ErrNotTrusted)
	assert.ErrorIs(t, f.manager.UnsupportOwner("n", "o1", f.buf), model.ErrNotTrusted)
}
