// Package quorum derives trust from the owner graph and owns the live threshold.
package quorum

import (
	"fmt"
	"trust-multisig/internal/model"
	"trust-multisig/internal/trustgraph"
)

const (
	// MinQuorum is the smallest threshold an engine can be created with.
	MinQuorum = 2
	// MinTrustedOwners is the floor on owners with a non-negative trust value.
	MinTrustedOwners = 3
)

// Adjustment describes the outcome of a supporter loss.
type Adjustment struct {
	BecameUntrusted bool
	OldQuorum       int
	NewQuorum       int
}

func (a Adjustment) QuorumChanged() bool {
	return a.OldQuorum != a.NewQuorum
}

type Policy struct {
	graph      *trustgraph.Graph
	quorum     int
	revocation RevocationRule
}

// New validates the threshold against the registered owners: the quorum must be at
// least MinQuorum, at most the owner count, and at least MinTrustedOwners owners must
// be trusted under it.
func New(graph *trustgraph.Graph, quorum int, rule RevocationRule) (*Policy, error) {
	rule, err := ParseRevocationRule(string(rule))
	if err != nil {
		return nil, err
	}
	if quorum < MinQuorum {
		return nil, fmt.Errorf("quorum %d is below %d: %w", quorum, MinQuorum, model.ErrInvalidQuorum)
	}
	if graph.Len() < MinTrustedOwners {
		return nil, fmt.Errorf("%d owners, need at least %d: %w", graph.Len(), MinTrustedOwners, model.ErrNotEnoughOwners)
	}
	if quorum > graph.Len() {
		return nil, fmt.Errorf("quorum %d exceeds %d owners: %w", quorum, graph.Len(), model.ErrInvalidQuorum)
	}

	p := &Policy{graph: graph, quorum: quorum, revocation: rule}
	if trusted := p.TrustedCount(); trusted < MinTrustedOwners {
		return nil, fmt.Errorf("%d trusted owners under quorum %d: %w", trusted, quorum, model.ErrInsufficientTrustedOwners)
	}
	return p, nil
}

func (p *Policy) Quorum() int {
	return p.quorum
}

func (p *Policy) Rule() RevocationRule {
	return p.revocation
}

// RevocationThreshold is the revocation count at which a transaction becomes revoked
// under the current quorum.
func (p *Policy) RevocationThreshold() int {
	return p.revocation.Threshold(p.quorum)
}

// TrustValue is the owner's supporter count minus the current quorum.
func (p *Policy) TrustValue(id model.Address) (int, error) {
	count, err := p.graph.SupporterCount(id)
	if err != nil {
		return 0, err
	}
	return count - p.quorum, nil
}

func (p *Policy) IsTrusted(id model.Address) bool {
	value, err := p.TrustValue(id)
	return err == nil && value >= 0
}

// Gate admits only trusted owners to mutating operations.
func (p *Policy) Gate(caller model.Address) error {
	value, err := p.TrustValue(caller)
	if err != nil {
		return err
	}
	if value < 0 {
		return fmt.Errorf("%s has trust value %d: %w", caller, value, model.ErrNotTrusted)
	}
	return nil
}

func (p *Policy) TrustedCount() int {
	return p.countTrusted("")
}

// TrustedOwners lists trusted owners in registration order.
func (p *Policy) TrustedOwners() []model.Address {
	var trusted []model.Address
	for _, id := range p.graph.Owners() {
		if p.IsTrusted(id) {
			trusted = append(trusted, id)
		}
	}
	return trusted
}

// OnSupporterCountDecreased runs after a support removal from owner. wasTrusted is the
// owner's trust state before the removal.
//
// When the owner has just lost trust, the quorum drops by one if the remaining trusted
// owners could no longer reach it. The call fails with ErrInsufficientTrustedOwners if
// fewer than MinTrustedOwners would stay trusted; the quorum is restored in that case
// and the caller must undo the support removal.
func (p *Policy) OnSupporterCountDecreased(owner model.Address, wasTrusted bool) (Adjustment, error) {
	adj := Adjustment{OldQuorum: p.quorum, NewQuorum: p.quorum}

	value, err := p.TrustValue(owner)
	if err != nil {
		return adj, err
	}
	if !wasTrusted || value >= 0 {
		return adj, nil
	}

	if others := p.countTrusted(owner); others < p.quorum-1 {
		p.quorum--
	}

	if trusted := p.TrustedCount(); trusted < MinTrustedOwners {
		p.quorum = adj.OldQuorum
		return adj, fmt.Errorf("%d trusted owners after %s lost trust, need %d: %w",
			trusted, owner, MinTrustedOwners, model.ErrInsufficientTrustedOwners)
	}

	adj.NewQuorum = p.quorum
	adj.BecameUntrusted = !p.IsTrusted(owner)
	return adj, nil
}

func (p *Policy) countTrusted(exclude model.Address) int {
	n := 0
	for _, id := range p.graph.Owners() {
		if id == exclude {
			continue
		}
		if p.IsTrusted(id) {
			n++
		}
	}
	return n
}
