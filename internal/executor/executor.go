// Package executor performs the actions of approved transactions.
package executor

import (
	"context"
	"trust-multisig/internal/model"
)

// Executor attempts an action and reports whether it succeeded. It is called exactly
// once per executed transaction.
type Executor interface {
	PerformAction(ctx context.Context, destination model.Address, value uint64, payload []byte) error
}

// Func adapts a plain function to the Executor interface.
type Func func(ctx context.Context, destination model.Address, value uint64, payload []byte) error

func (f Func) PerformAction(ctx context.Context, destination model.Address, value uint64, payload []byte) error {
	return f(ctx, destination, value, payload)
}

// Action is the record of one performed action.
type Action struct {
	Destination string `cbor:"destination" json:"destination"`
	Value       uint64 `cbor:"value" json:"value"`
	Payload     []byte `cbor:"payload" json:"payload,omitempty"`
}
