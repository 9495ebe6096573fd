package app

import (
	"context"
	"trust-multisig/internal/events"
	"trust-multisig/internal/model"
)

func (a *App) SubmitTransaction(ctx context.Context, caller, destination model.Address, value uint64, payload []byte) (uint64, error) {
	caller, destination = caller.Normalize(), destination.Normalize()
	var index uint64
	err := a.mutate(ctx, "submit-transaction", func(emit events.Emitter) error {
		var err error
		index, err = a.ledger.Submit(caller, destination, value, payload, emit)
		return err
	})
	return index, err
}

func (a *App) ConfirmTransaction(ctx context.Context, caller model.Address, index uint64) error {
	caller = caller.Normalize()
	return a.mutate(ctx, "confirm-transaction", func(emit events.Emitter) error {
		return a.ledger.Confirm(ctx, caller, index, emit)
	})
}

func (a *App) RevokeTransaction(ctx context.Context, caller model.Address, index uint64) error {
	caller = caller.Normalize()
	return a.mutate(ctx, "revoke-transaction", func(emit events.Emitter) error {
		return a.ledger.Revoke(caller, index, emit)
	})
}

// ExecuteTransaction performs an approved transaction. On model.ErrExecutionFailed the
// transaction stays marked as executed. With a store configured the executed mark is
// saved before the action starts; model.ErrPersistence means the action did not run.
func (a *App) ExecuteTransaction(ctx context.Context, caller model.Address, index uint64) error {
	caller = caller.Normalize()
	return a.mutate(ctx, "execute-transaction", func(emit events.Emitter) error {
		return a.ledger.Execute(ctx, caller, index, emit)
	})
}

func (a *App) Transaction(index uint64) (model.Transaction, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ledger.Transaction(index)
}

func (a *App) Transactions() []model.Transaction {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ledger.Transactions()
}

func (a *App) TransactionCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ledger.Len()
}

func (a *App) IsConfirmedBy(index uint64, owner model.Address) (bool, error) {
	owner = owner.Normalize()
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ledger.IsConfirmedBy(index, owner)
}

func (a *App) IsRevokedBy(index uint64, owner model.Address) (bool, error) {
	owner = owner.Normalize()
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ledger.IsRevokedBy(index, owner)
}

func (a *App) Confirmations(index uint64) ([]model.Address, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ledger.Confirmations(index)
}

// Snapshot returns a consistent copy of the whole engine state.
func (a *App) Snapshot() model.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot()
}

func (a *App) snapshot() model.Snapshot {
	return model.Snapshot{
		Quorum:            a.policy.Quorum(),
		RevocationRule:    a.policy.Rule().String(),
		AutoExecute:       a.ledger.AutoExecute(),
		Owners:            a.owners(),
		Transactions:      a.ledger.Transactions(),
		LastEventSequence: a.dispatcher.Sequence(),
	}
}
