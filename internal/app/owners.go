package app

import (
	"context"
	"trust-multisig/internal/events"
	"trust-multisig/internal/model"
)

func (a *App) SubmitOwner(ctx context.Context, caller, newOwner model.Address) error {
	caller, newOwner = caller.Normalize(), newOwner.Normalize()
	return a.mutate(ctx, "submit-owner", func(emit events.Emitter) error {
		return a.members.SubmitOwner(caller, newOwner, emit)
	})
}

func (a *App) SupportOwner(ctx context.Context, caller, owner model.Address) error {
	caller, owner = caller.Normalize(), owner.Normalize()
	return a.mutate(ctx, "support-owner", func(emit events.Emitter) error {
		return a.members.SupportOwner(caller, owner, emit)
	})
}

// UnsupportOwner withdraws support. When the quorum drops as a consequence, pending
// transactions that already meet the new quorum reach it within the same call.
func (a *App) UnsupportOwner(ctx context.Context, caller, owner model.Address) error {
	caller, owner = caller.Normalize(), owner.Normalize()
	return a.mutate(ctx, "unsupport-owner", func(emit events.Emitter) error {
		before := a.policy.Quorum()
		if err := a.members.UnsupportOwner(caller, owner, emit); err != nil {
			return err
		}
		if a.policy.Quorum() < before {
			a.ledger.OnQuorumLowered(ctx, emit)
		}
		return nil
	})
}

func (a *App) Quorum() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.policy.Quorum()
}

func (a *App) RevocationThreshold() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.policy.RevocationThreshold()
}

func (a *App) TrustValue(id model.Address) (int, error) {
	id = id.Normalize()
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.policy.TrustValue(id)
}

func (a *App) IsTrusted(id model.Address) bool {
	id = id.Normalize()
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.policy.IsTrusted(id)
}

func (a *App) TrustedOwners() []model.Address {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.policy.TrustedOwners()
}

func (a *App) Owner(id model.Address) (model.Owner, error) {
	id = id.Normalize()
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.owner(id)
}

// Owners lists every owner in registration order.
func (a *App) Owners() []model.Owner {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.owners()
}

func (a *App) owner(id model.Address) (model.Owner, error) {
	supporters, err := a.graph.Supporters(id)
	if err != nil {
		return model.Owner{}, err
	}
	value, err := a.policy.TrustValue(id)
	if err != nil {
		return model.Owner{}, err
	}
	return model.Owner{
		ID:         id,
		Supporters: supporters,
		TrustValue: value,
		Trusted:    value >= 0,
	}, nil
}

func (a *App) owners() []model.Owner {
	ids := a.graph.Owners()
	out := make([]model.Owner, 0, len(ids))
	for _, id := range ids {
		o, err := a.owner(id)
		if err != nil {
			a.logger.Error("inconsistent owner registry: " + err.Error())
			continue
		}
		out = append(out, o)
	}
	return out
}
