package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"trust-multisig/internal/model"

	"go.uber.org/zap"
)

var (
	ErrInsufficientFunds   = errors.New("insufficient treasury funds")
	ErrDestinationRejected = errors.New("destination rejected the action")
)

// Book is an in-memory value ledger: every action moves value from the treasury to
// the destination's balance.
type Book struct {
	logger   *zap.Logger
	mu       sync.Mutex
	treasury uint64
	balances map[model.Address]uint64
	rejected map[model.Address]bool
	actions  []Action
}

func NewBook(logger *zap.Logger, treasury uint64) *Book {
	return &Book{
		logger:   logger,
		treasury: treasury,
		balances: make(map[model.Address]uint64),
		rejected: make(map[model.Address]bool),
	}
}

// Reject makes every future action towards destination fail.
func (b *Book) Reject(destination model.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejected[destination] = true
}

func (b *Book) PerformAction(ctx context.Context, destination model.Address, value uint64, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rejected[destination] {
		return fmt.Errorf("%s: %w", destination, ErrDestinationRejected)
	}
	if value > b.treasury {
		return fmt.Errorf("need %d, have %d: %w", value, b.treasury, ErrInsufficientFunds)
	}

	b.treasury -= value
	b.balances[destination] += value
	b.actions = append(b.actions, Action{Destination: destination.String(), Value: value, Payload: payload})

	b.logger.Debug("action performed", zap.String("destination", destination.String()), zap.Uint64("value", value))
	return nil
}

func (b *Book) Balance(account model.Address) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balances[account]
}

func (b *Book) Treasury() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.treasury
}

func (b *Book) Actions() []Action {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Action, len(b.actions))
	copy(out, b.actions)
	return out
}
