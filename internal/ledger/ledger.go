// Package ledger keeps the transactions owners vote on and decides when they may run.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"trust-multisig/internal/events"
	"trust-multisig/internal/executor"
	"trust-multisig/internal/model"
	"trust-multisig/internal/quorum"

	"go.uber.org/zap"
)

type record struct {
	index         uint64
	destination   model.Address
	value         uint64
	payload       []byte
	executed      bool
	revoked       bool
	quorumReached bool

	confirmed  map[model.Address]bool
	revokedBy  map[model.Address]bool
	confirmers []model.Address
	revokers   []model.Address
}

// Ledger is not safe for concurrent use; the engine serializes access.
type Ledger struct {
	logger       *zap.Logger
	policy       *quorum.Policy
	exec         executor.Executor
	autoExecute  bool
	beforeAction func(ctx context.Context) error
	records      []*record
}

// New creates an empty ledger. With autoExecute set, a confirmation that brings a
// transaction to quorum executes it within the same call.
func New(logger *zap.Logger, policy *quorum.Policy, exec executor.Executor, autoExecute bool) *Ledger {
	return &Ledger{
		logger:      logger,
		policy:      policy,
		exec:        exec,
		autoExecute: autoExecute,
	}
}

func (l *Ledger) AutoExecute() bool {
	return l.autoExecute
}

// BeforeAction installs a hook that runs after a transaction is marked executed and
// before its action starts. When the hook fails the mark is undone and the action
// does not run.
func (l *Ledger) BeforeAction(hook func(ctx context.Context) error) {
	l.beforeAction = hook
}

func (l *Ledger) Submit(caller, destination model.Address, value uint64, payload []byte, emit events.Emitter) (uint64, error) {
	if err := l.policy.Gate(caller); err != nil {
		return 0, err
	}
	if destination.IsZero() {
		return 0, fmt.Errorf("destination %q: %w", destination, model.ErrInvalidPrincipal)
	}

	rec := &record{
		index:       uint64(len(l.records)),
		destination: destination,
		value:       value,
		confirmed:   make(map[model.Address]bool),
		revokedBy:   make(map[model.Address]bool),
	}
	if len(payload) > 0 {
		rec.payload = append([]byte(nil), payload...)
	}
	l.records = append(l.records, rec)

	l.logger.Debug("transaction submitted",
		zap.Uint64("index", rec.index), zap.String("destination", destination.String()), zap.Uint64("value", value))
	emit.Emit(model.TxSubmitted(rec.index, destination, value))
	return rec.index, nil
}

// Confirm records the caller's approval. The quorum-reached notification is raised by
// the first confirmation that finds the count at or above the quorum.
func (l *Ledger) Confirm(ctx context.Context, caller model.Address, index uint64, emit events.Emitter) error {
	if err := l.policy.Gate(caller); err != nil {
		return err
	}
	rec, err := l.open(index)
	if err != nil {
		return err
	}
	if rec.revokedBy[caller] {
		return fmt.Errorf("transaction %d was revoked by %s: %w", index, caller, model.ErrAlreadyRevoked)
	}
	if rec.confirmed[caller] {
		return fmt.Errorf("transaction %d by %s: %w", index, caller, model.ErrAlreadyConfirmed)
	}

	rec.confirmed[caller] = true
	rec.confirmers = append(rec.confirmers, caller)
	emit.Emit(model.TxConfirmed(caller, index, len(rec.confirmers)))

	if rec.quorumReached || len(rec.confirmers) < l.policy.Quorum() {
		return nil
	}
	rec.quorumReached = true
	emit.Emit(model.TxQuorumReached(index))
	l.logger.Info("transaction reached quorum", zap.Uint64("index", index), zap.Int("confirmations", len(rec.confirmers)))

	if !l.autoExecute {
		return nil
	}
	return l.autoPerform(ctx, rec, emit)
}

// OnQuorumLowered latches pending transactions whose confirmations already meet the
// lowered quorum. With auto-execution on they are executed right away; an execution
// failure is reported through its notification only.
func (l *Ledger) OnQuorumLowered(ctx context.Context, emit events.Emitter) {
	q := l.policy.Quorum()
	for _, rec := range l.records {
		if rec.executed || rec.quorumReached || l.isRevoked(rec) || len(rec.confirmers) < q {
			continue
		}
		rec.quorumReached = true
		emit.Emit(model.TxQuorumReached(rec.index))
		l.logger.Info("transaction reached the lowered quorum", zap.Uint64("index", rec.index), zap.Int("quorum", q))

		if !l.autoExecute {
			continue
		}
		if err := l.autoPerform(ctx, rec, emit); err != nil && !errors.Is(err, model.ErrExecutionFailed) {
			l.logger.Error("auto-execution skipped: "+err.Error(), zap.Uint64("index", rec.index))
		}
	}
}

// autoPerform executes a transaction that just reached quorum. If the executed mark
// cannot be persisted the transaction is left approved for an explicit execute.
func (l *Ledger) autoPerform(ctx context.Context, rec *record, emit events.Emitter) error {
	err := l.perform(ctx, rec, emit)
	if errors.Is(err, model.ErrPersistence) {
		l.logger.Warn("auto-execution postponed: "+err.Error(), zap.Uint64("index", rec.index))
		return nil
	}
	return err
}

// Revoke records the caller's veto. Once the revocations reach the policy threshold
// the transaction is revoked for good.
func (l *Ledger) Revoke(caller model.Address, index uint64, emit events.Emitter) error {
	if err := l.policy.Gate(caller); err != nil {
		return err
	}
	rec, err := l.open(index)
	if err != nil {
		return err
	}
	if rec.confirmed[caller] {
		return fmt.Errorf("transaction %d was confirmed by %s: %w", index, caller, model.ErrAlreadyConfirmed)
	}
	if rec.revokedBy[caller] {
		return fmt.Errorf("transaction %d by %s: %w", index, caller, model.ErrAlreadyRevoked)
	}

	rec.revokedBy[caller] = true
	rec.revokers = append(rec.revokers, caller)
	if len(rec.revokers) >= l.policy.RevocationThreshold() {
		rec.revoked = true
		l.logger.Info("transaction revoked", zap.Uint64("index", index), zap.Int("revocations", len(rec.revokers)))
	}
	emit.Emit(model.TxRevoked(index, caller))
	return nil
}

// Execute runs an approved transaction through the executor. The transaction is
// marked executed before the action starts and stays so if the action fails: the
// attempt is consumed and a new transaction has to be submitted. A failing
// BeforeAction hook rejects the call without consuming the attempt.
func (l *Ledger) Execute(ctx context.Context, caller model.Address, index uint64, emit events.Emitter) error {
	if err := l.policy.Gate(caller); err != nil {
		return err
	}
	rec, err := l.open(index)
	if err != nil {
		return err
	}
	if q := l.policy.Quorum(); len(rec.confirmers) < q {
		return fmt.Errorf("transaction %d has %d of %d confirmations: %w", index, len(rec.confirmers), q, model.ErrQuorumNotReached)
	}
	return l.perform(ctx, rec, emit)
}

func (l *Ledger) perform(ctx context.Context, rec *record, emit events.Emitter) error {
	rec.executed = true
	if l.beforeAction != nil {
		if err := l.beforeAction(ctx); err != nil {
			rec.executed = false
			return fmt.Errorf("transaction %d not executed: %w", rec.index, err)
		}
	}

	if err := l.exec.PerformAction(ctx, rec.destination, rec.value, rec.payload); err != nil {
		l.logger.Warn("transaction execution failed", zap.Uint64("index", rec.index), zap.Error(err))
		emit.Emit(model.TxExecutionFailed(rec.index, rec.destination, rec.value, err.Error()))
		return fmt.Errorf("transaction %d: %v: %w", rec.index, err, model.ErrExecutionFailed)
	}

	l.logger.Info("transaction executed", zap.Uint64("index", rec.index))
	emit.Emit(model.TxExecuted(rec.index, rec.destination, rec.value))
	return nil
}

// open returns a record that still accepts votes and execution.
func (l *Ledger) open(index uint64) (*record, error) {
	rec, err := l.get(index)
	if err != nil {
		return nil, err
	}
	if rec.executed {
		return nil, fmt.Errorf("transaction %d: %w", index, model.ErrAlreadyExecuted)
	}
	if l.isRevoked(rec) {
		return nil, fmt.Errorf("transaction %d: %w", index, model.ErrAlreadyRevoked)
	}
	return rec, nil
}

func (l *Ledger) get(index uint64) (*record, error) {
	if index >= uint64(len(l.records)) {
		return nil, fmt.Errorf("index %d of %d: %w", index, len(l.records), model.ErrTransactionNotFound)
	}
	return l.records[index], nil
}

// isRevoked holds once the latch is set or the revocations reach the threshold of the
// current quorum. The quorum only decreases, so the predicate never turns false again.
func (l *Ledger) isRevoked(rec *record) bool {
	return rec.revoked || len(rec.revokers) >= l.policy.RevocationThreshold()
}

func (l *Ledger) status(rec *record) model.TxStatus {
	switch {
	case rec.executed:
		return model.TxStatusExecuted
	case l.isRevoked(rec):
		return model.TxStatusRevoked
	case len(rec.confirmers) >= l.policy.Quorum():
		return model.TxStatusConfirmed
	}
	return model.TxStatusPending
}

func (l *Ledger) view(rec *record) model.Transaction {
	tx := model.Transaction{
		Index:         rec.index,
		Destination:   rec.destination,
		Value:         rec.value,
		Executed:      rec.executed,
		Revoked:       l.isRevoked(rec),
		QuorumReached: rec.quorumReached,
		Confirmations: len(rec.confirmers),
		Revocations:   len(rec.revokers),
		ConfirmedBy:   append([]model.Address{}, rec.confirmers...),
		RevokedBy:     append([]model.Address{}, rec.revokers...),
		Status:        l.status(rec),
	}
	if len(rec.payload) > 0 {
		tx.Payload = append([]byte(nil), rec.payload...)
	}
	return tx
}

func (l *Ledger) Transaction(index uint64) (model.Transaction, error) {
	rec, err := l.get(index)
	if err != nil {
		return model.Transaction{}, err
	}
	return l.view(rec), nil
}

func (l *Ledger) Transactions() []model.Transaction {
	out := make([]model.Transaction, 0, len(l.records))
	for _, rec := range l.records {
		out = append(out, l.view(rec))
	}
	return out
}

func (l *Ledger) Len() int {
	return len(l.records)
}

func (l *Ledger) IsConfirmedBy(index uint64, owner model.Address) (bool, error) {
	rec, err := l.get(index)
	if err != nil {
		return false, err
	}
	return rec.confirmed[owner], nil
}

func (l *Ledger) IsRevokedBy(index uint64, owner model.Address) (bool, error) {
	rec, err := l.get(index)
	if err != nil {
		return false, err
	}
	return rec.revokedBy[owner], nil
}

// Confirmations lists the owners who confirmed the transaction, in confirmation order.
func (l *Ledger) Confirmations(index uint64) ([]model.Address, error) {
	rec, err := l.get(index)
	if err != nil {
		return nil, err
	}
	return append([]model.Address{}, rec.confirmers...), nil
}

// Restore replaces the ledger content with previously saved transactions. Indexes
// must be sequential from zero.
func (l *Ledger) Restore(transactions []model.Transaction) error {
	records := make([]*record, 0, len(transactions))
	for i, tx := range transactions {
		if tx.Index != uint64(i) {
			return fmt.Errorf("transaction at position %d has index %d", i, tx.Index)
		}
		rec := &record{
			index:         tx.Index,
			destination:   tx.Destination,
			value:         tx.Value,
			payload:       tx.Payload,
			executed:      tx.Executed,
			revoked:       tx.Revoked,
			quorumReached: tx.QuorumReached,
			confirmed:     make(map[model.Address]bool, len(tx.ConfirmedBy)),
			revokedBy:     make(map[model.Address]bool, len(tx.RevokedBy)),
		}
		for _, owner := range tx.ConfirmedBy {
			if !rec.confirmed[owner] {
				rec.confirmed[owner] = true
				rec.confirmers = append(rec.confirmers, owner)
			}
		}
		for _, owner := range tx.RevokedBy {
			if !rec.revokedBy[owner] {
				rec.revokedBy[owner] = true
				rec.revokers = append(rec.revokers, owner)
			}
		}
		records = append(records, rec)
	}
	l.records = records
	return nil
}
