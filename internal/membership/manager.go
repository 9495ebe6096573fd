// Package membership admits owners and moves support between them.
package membership

import (
	"fmt"
	"trust-multisig/internal/events"
	"trust-multisig/internal/model"
	"trust-multisig/internal/quorum"
	"trust-multisig/internal/trustgraph"

	"go.uber.org/zap"
)

// Eligibility decides whether a principal may become an owner at all.
type Eligibility interface {
	IsEligiblePrincipal(id model.Address) bool
}

// AnyPrincipal admits every non-null principal.
type AnyPrincipal struct{}

func (AnyPrincipal) IsEligiblePrincipal(model.Address) bool {
	return true
}

type Manager struct {
	logger      *zap.Logger
	graph       *trustgraph.Graph
	policy      *quorum.Policy
	eligibility Eligibility
}

func NewManager(logger *zap.Logger, graph *trustgraph.Graph, policy *quorum.Policy, eligibility Eligibility) Manager {
	if eligibility == nil {
		eligibility = AnyPrincipal{}
	}
	return Manager{
		logger:      logger,
		graph:       graph,
		policy:      policy,
		eligibility: eligibility,
	}
}

// SubmitOwner registers newOwner with the caller as its only supporter. The new owner
// stays untrusted until enough further support arrives.
func (m Manager) SubmitOwner(caller, newOwner model.Address, emit events.Emitter) error {
	if err := m.policy.Gate(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return fmt.Errorf("owner %q: %w", newOwner, model.ErrInvalidPrincipal)
	}
	if !m.eligibility.IsEligiblePrincipal(newOwner) {
		return fmt.Errorf("owner %s: %w", newOwner, model.ErrIneligiblePrincipal)
	}
	if err := m.graph.AddOwner(newOwner, []model.Address{caller}); err != nil {
		return err
	}

	m.logger.Info("owner submitted", zap.String("owner", newOwner.String()), zap.String("submitter", caller.String()))
	emit.Emit(model.OwnerSubmitted(newOwner))
	return nil
}

// SupportOwner adds the caller's support. When the owner's trust value crosses to
// non-negative an owner-confirmed notification precedes the trusted-by one.
func (m Manager) SupportOwner(caller, owner model.Address, emit events.Emitter) error {
	if err := m.policy.Gate(caller); err != nil {
		return err
	}

	wasTrusted := m.policy.IsTrusted(owner)
	if _, err := m.graph.AddSupport(owner, caller); err != nil {
		return err
	}

	if !wasTrusted && m.policy.IsTrusted(owner) {
		m.logger.Info("owner confirmed", zap.String("owner", owner.String()))
		emit.Emit(model.OwnerConfirmed(owner))
	}
	emit.Emit(model.OwnerTrustedBy(owner, caller))
	return nil
}

// UnsupportOwner withdraws the caller's support and lets the quorum policy react.
// If the trusted-owner floor would be violated the support is restored and the call
// fails without any visible change. Owners that become trusted because the quorum
// was lowered get an owner-confirmed notification after the quorum change.
func (m Manager) UnsupportOwner(caller, owner model.Address, emit events.Emitter) error {
	if err := m.policy.Gate(caller); err != nil {
		return err
	}

	before, err := m.graph.Supporters(owner)
	if err != nil {
		return err
	}
	wasTrusted := m.policy.IsTrusted(owner)
	trustedBefore := m.policy.TrustedOwners()

	if _, err := m.graph.RemoveSupport(owner, caller); err != nil {
		return err
	}

	adj, err := m.policy.OnSupporterCountDecreased(owner, wasTrusted)
	if err != nil {
		if restoreErr := m.graph.ResetSupporters(owner, before); restoreErr != nil {
			m.logger.Error("failed to restore supporters: "+restoreErr.Error(), zap.String("owner", owner.String()))
		}
		m.logger.Warn("unsupport rejected: "+err.Error(), zap.String("owner", owner.String()), zap.String("supporter", caller.String()))
		return err
	}

	if adj.BecameUntrusted {
		m.logger.Info("owner revoked", zap.String("owner", owner.String()))
		emit.Emit(model.OwnerRevoked(owner))
	}
	emit.Emit(model.OwnerUntrustedBy(owner, caller))
	if adj.QuorumChanged() {
		m.logger.Info("quorum lowered", zap.Int("old", adj.OldQuorum), zap.Int("new", adj.NewQuorum))
		emit.Emit(model.QuorumChanged(adj.OldQuorum, adj.NewQuorum))
		m.confirmNewlyTrusted(trustedBefore, emit)
	}
	return nil
}

func (m Manager) confirmNewlyTrusted(trustedBefore []model.Address, emit events.Emitter) {
	before := make(map[model.Address]bool, len(trustedBefore))
	for _, id := range trustedBefore {
		before[id] = true
	}
	for _, id := range m.policy.TrustedOwners() {
		if before[id] {
			continue
		}
		m.logger.Info("owner confirmed by a lowered quorum", zap.String("owner", id.String()))
		emit.Emit(model.OwnerConfirmed(id))
	}
}
