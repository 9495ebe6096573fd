package quorum_test

import (
	"testing"
	"trust-multisig/internal/model"
	"trust-multisig/internal/quorum"
	"trust-multisig/internal/trustgraph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newFullyConnected registers owners that all support each other.
func newFullyConnected(t *testing.T, ids ...string) *trustgraph.Graph {
	g := trustgraph.New()
	for _, id := range ids {
		require.NoError(t, g.AddOwner(model.Address(id), model.Addresses(ids...)))
	}
	return g
}

func TestNewValidation(t *testing.T) {
	_, err := quorum.New(newFullyConnected(t, "a", "b", "c"), 1, quorum.RevokeAtHalfQuorum)
	assert.ErrorIs(t, err, model.ErrInvalidQuorum)

	_, err = quorum.New(newFullyConnected(t, "a", "b", "c"), 4, quorum.RevokeAtHalfQuorum)
	assert.ErrorIs(t, err, model.ErrInvalidQuorum)

	_, err = quorum.New(newFullyConnected(t, "a", "b"), 2, quorum.RevokeAtHalfQuorum)
	assert.ErrorIs(t, err, model.ErrNotEnoughOwners)

	_, err = quorum.New(newFullyConnected(t, "a", "b", "c"), 2, "majority")
	assert.ErrorIs(t, err, model.ErrInvalidQuorum)

	p, err := quorum.New(newFullyConnected(t, "a", "b", "c"), 2, "")
	require.NoError(t, err)
	assert.Equal(t, quorum.DefaultRevocationRule, p.Rule())
}

func TestNewRequiresTrustedFloor(t *testing.T) {
	g := newFullyConnected(t, "a", "b")
	require.NoError(t, g.AddOwner("c", model.Addresses("a")))

	_, err := quorum.New(g, 2, quorum.RevokeAtHalfQuorum)
	assert.ErrorIs(t, err, model.ErrInsufficientTrustedOwners)
}

func TestTrustValueAndGate(t *testing.T) {
	g := newFullyConnected(t, "o1", "o2", "o3")
	p, err := quorum.New(g, 2, quorum.RevokeAtHalfQuorum)
	require.NoError(t, err)

	value, err := p.TrustValue("o1")
	require.NoError(t, err)
	assert.Equal(t, 1, value)
	assert.Equal(t, 3, p.TrustedCount())

	require.NoError(t, g.AddOwner("n", model.Addresses("o1")))
	value, err = p.TrustValue("n")
	require.NoError(t, err)
	assert.Equal(t, -1, value)
	assert.False(t, p.IsTrusted("n"))

	assert.ErrorIs(t, p.Gate("n"), model.ErrNotTrusted)
	assert.ErrorIs(t, p.Gate("stranger"), model.ErrOwnerNotFound)
	assert.NoError(t, p.Gate("o2"))

	_, err = p.TrustValue("stranger")
	assert.ErrorIs(t, err, model.ErrOwnerNotFound)

	assert.Equal(t, model.Addresses("o1", "o2", "o3"), p.TrustedOwners())
}

func TestSupporterLossWithoutTransition(t *testing.T) {
	g := newFullyConnected(t, "o1", "o2", "o3")
	p, err := quorum.New(g, 2, quorum.RevokeAtHalfQuorum)
	require.NoError(t, err)

	_, err = g.RemoveSupport("o1", "o2")
	require.NoError(t, err)

	adj, err := p.OnSupporterCountDecreased("o1", true)
	require.NoError(t, err)
	assert.False(t, adj.BecameUntrusted)
	assert.False(t, adj.QuorumChanged())
	assert.Equal(t, 2, p.Quorum())
}

func TestSupporterLossMakesOwnerUntrusted(t *testing.T) {
	g := newFullyConnected(t, "a", "b", "c", "d", "e")
	p, err := quorum.New(g, 4, quorum.RevokeAtHalfQuorum)
	require.NoError(t, err)

	_, err = g.RemoveSupport("a", "b")
	require.NoError(t, err)
	_, err = p.OnSupporterCountDecreased("a", true)
	require.NoError(t, err)

	_, err = g.RemoveSupport("a", "c")
	require.NoError(t, err)
	adj, err := p.OnSupporterCountDecreased("a", true)
	require.NoError(t, err)

	assert.True(t, adj.BecameUntrusted)
	assert.False(t, adj.QuorumChanged(), "four trusted owners can still reach quorum 4")
	assert.False(t, p.IsTrusted("a"))
	assert.Equal(t, 4, p.TrustedCount())
}

func TestSupporterLossLowersQuorum(t *testing.T) {
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
	require.Equal(t, 3, p.TrustedCount())

	_, err = g.RemoveSupport("a", "f")
	require.NoError(t, err)
	_, err = p.OnSupporterCountDecreased("a", true)
	require.NoError(t, err)

	_, err = g.RemoveSupport("a", "e")
	require.NoError(t, err)
	adj, err := p.OnSupporterCountDecreased("a", true)
	require.NoError(t, err)

	assert.True(t, adj.QuorumChanged())
	assert.Equal(t, 5, adj.OldQuorum)
	assert.Equal(t, 4, adj.NewQuorum)
	assert.Equal(t, 4, p.Quorum())
	// at the lowered quorum the owner is trusted again, and so are d, e and f
	assert.False(t, adj.BecameUntrusted)
	assert.Equal(t, 6, p.TrustedCount())
}

func TestSupporterLossBelowFloorIsRejected(t *testing.T) {
	g := newFullyConnected(t, "a", "b", "c")
	p, err := quorum.New(g, 3, quorum.RevokeAtHalfQuorum)
	require.NoError(t, err)

	_, err = g.RemoveSupport("a", "b")
	require.NoError(t, err)

	_, err = p.OnSupporterCountDecreased("a", true)
	assert.ErrorIs(t, err, model.ErrInsufficientTrustedOwners)
	assert.Equal(t, 3, p.Quorum())
}

func TestSupporterLossOfUntrustedOwner(t *testing.T) {
	g := newFullyConnected(t, "a", "b", "c")
	p, err := quorum.New(g, 2, quorum.RevokeAtHalfQuorum)
	require.NoError(t, err)
	require.NoError(t, g.AddOwner("n", model.Addresses("a")))

	_, err = g.AddSupport("n", "b")
	require.NoError(t, err)
	_, err = g.RemoveSupport("n", "b")
	require.NoError(t, err)
	_, err = g.RemoveSupport("n", "a")
	require.NoError(t, err)

	adj, err := p.OnSupporterCountDecreased("n", false)
	require.NoError(t, err)
	assert.False(t, adj.BecameUntrusted)
	assert.Equal(t, 2, p.Quorum())
}

func TestRevocationThreshold(t *testing.T) {
	cases := []struct {
		rule   quorum.RevocationRule
		quorum int
		want   int
	}{
		{quorum.RevokeAtHalfQuorum, 2, 1},
		{quorum.RevokeAtHalfQuorum, 3, 1},
		{quorum.RevokeAtHalfQuorum, 4, 2},
		{quorum.RevokeAboveHalfQuorum, 2, 2},
		{quorum.RevokeAboveHalfQuorum, 3, 2},
		{quorum.RevokeAboveHalfQuorum, 4, 3},
		{quorum.RevokeAtHalfQuorum, 1, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.rule.Threshold(c.quorum), "%s at quorum %d", c.rule, c.quorum)
	}

	g := newFullyConnected(t, "a", "b", "c", "d")
	p, err := quorum.New(g, 4, quorum.RevokeAboveHalfQuorum)
	require.NoError(t, err)
	assert.Equal(t, 3, p.RevocationThreshold())
}
