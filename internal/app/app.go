// Package app composes the trust graph, the quorum policy, membership and the
// transaction ledger into one engine.
//
// Every mutating call holds the state lock for its whole duration, including the
// executed action. Notifications raised by a call are buffered and dispatched, in
// order, only after the call succeeded and the state lock was released. Handlers run
// on the calling goroutine before the next mutating call starts, so they may read the
// engine and see the state their notifications describe. They must not call back
// into mutating methods. Addresses are normalized on the way in.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"trust-multisig/internal/events"
	"trust-multisig/internal/executor"
	"trust-multisig/internal/ledger"
	"trust-multisig/internal/membership"
	"trust-multisig/internal/metrics"
	"trust-multisig/internal/model"
	"trust-multisig/internal/quorum"
	"trust-multisig/internal/trustgraph"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	persistTimeout = 10 * time.Second
)

// Settings is the genesis configuration of an engine.
type Settings struct {
	Owners      []model.Address
	Quorum      int
	Rule        quorum.RevocationRule
	AutoExecute bool
}

// Store keeps the latest snapshot and the event log. LoadSnapshot returns
// model.ErrSnapshotNotFound when nothing was saved yet.
type Store interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot model.Snapshot) error
	AppendEvents(ctx context.Context, events []model.Event) error
	EventsAfter(ctx context.Context, sequence uint64, limit int) ([]model.Event, error)
}

type Option func(a *App)

func WithStore(store Store) Option {
	return func(a *App) {
		a.store = store
	}
}

func WithEligibility(eligibility membership.Eligibility) Option {
	return func(a *App) {
		a.eligibility = eligibility
	}
}

// WithName sets the engine label of the state gauges. Engines get a random name
// otherwise.
func WithName(name string) Option {
	return func(a *App) {
		a.name = name
	}
}

type App struct {
	logger      *zap.Logger
	name        string
	opMu        sync.Mutex // serializes mutating calls with their dispatch
	mu          sync.RWMutex
	exec        executor.Executor
	store       Store
	eligibility membership.Eligibility
	dispatcher  *events.Dispatcher

	graph   *trustgraph.Graph
	policy  *quorum.Policy
	members membership.Manager
	ledger  *ledger.Ledger
}

// New creates an engine from the genesis settings. Every initial owner is supported by
// all initial owners, itself included.
func New(logger *zap.Logger, settings Settings, exec executor.Executor, opts ...Option) (*App, error) {
	a := newApp(logger, exec, opts...)
	if err := a.genesis(settings); err != nil {
		return nil, err
	}
	a.updateGauges()
	return a, nil
}

// Open restores the engine from the store when a snapshot exists and falls back to
// the genesis settings otherwise. The auto-execute switch is always taken from
// settings; owners, quorum and revocation rule come from the snapshot.
func Open(ctx context.Context, logger *zap.Logger, settings Settings, exec executor.Executor, opts ...Option) (*App, error) {
	a := newApp(logger, exec, opts...)
	if a.store == nil {
		return New(logger, settings, exec, opts...)
	}

	snapshot, err := a.store.LoadSnapshot(ctx)
	switch {
	case errors.Is(err, model.ErrSnapshotNotFound):
		logger.Info("no snapshot stored, starting from genesis", zap.Int("owners", len(settings.Owners)), zap.Int("quorum", settings.Quorum))
		if err := a.genesis(settings); err != nil {
			return nil, err
		}
		if err := a.store.SaveSnapshot(ctx, a.snapshot()); err != nil {
			return nil, fmt.Errorf("failed to save the genesis snapshot: %w", err)
		}

	case err != nil:
		return nil, fmt.Errorf("failed to load the snapshot: %w", err)

	default:
		if err := a.restore(snapshot, settings.AutoExecute); err != nil {
			return nil, fmt.Errorf("failed to restore the snapshot: %w", err)
		}
		logger.Info("engine restored", zap.Int("owners", a.graph.Len()), zap.Int("quorum", a.policy.Quorum()),
			zap.Int("transactions", a.ledger.Len()), zap.Uint64("sequence", snapshot.LastEventSequence))
	}

	a.updateGauges()
	return a, nil
}

func newApp(logger *zap.Logger, exec executor.Executor, opts ...Option) *App {
	a := &App{
		logger:     logger,
		exec:       exec,
		dispatcher: events.NewDispatcher(logger),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.eligibility == nil {
		a.eligibility = membership.AnyPrincipal{}
	}
	if a.name == "" {
		a.name = uuid.NewString()[:8]
	}
	return a
}

func (a *App) genesis(settings Settings) error {
	g := trustgraph.New()
	owners := model.NormalizeAll(settings.Owners)
	for _, id := range owners {
		if !id.IsZero() && !a.eligibility.IsEligiblePrincipal(id) {
			return fmt.Errorf("initial owner %s: %w", id, model.ErrIneligiblePrincipal)
		}
		if err := g.AddOwner(id, owners); err != nil {
			return err
		}
	}

	policy, err := quorum.New(g, settings.Quorum, settings.Rule)
	if err != nil {
		return err
	}
	a.assemble(g, policy, settings.AutoExecute)
	return nil
}

func (a *App) restore(snapshot model.Snapshot, autoExecute bool) error {
	g := trustgraph.New()
	for _, owner := range snapshot.Owners {
		if err := g.RestoreOwner(owner.ID, owner.Supporters); err != nil {
			return err
		}
	}

	policy, err := quorum.New(g, snapshot.Quorum, quorum.RevocationRule(snapshot.RevocationRule))
	if err != nil {
		return err
	}
	a.assemble(g, policy, autoExecute)
	if err := a.ledger.Restore(snapshot.Transactions); err != nil {
		return err
	}
	a.dispatcher.SetSequence(snapshot.LastEventSequence)
	return nil
}

func (a *App) assemble(g *trustgraph.Graph, policy *quorum.Policy, autoExecute bool) {
	a.graph = g
	a.policy = policy
	a.members = membership.NewManager(a.logger, g, policy, a.eligibility)
	a.ledger = ledger.New(a.logger, policy, a.exec, autoExecute)
	if a.store != nil {
		a.ledger.BeforeAction(a.persistExecuting)
	}
}

// Subscribe registers a handler for every notification.
func (a *App) Subscribe(handler events.Handler) {
	a.dispatcher.Subscribe(handler)
}

// SetHandler registers a handler for one notification type.
func (a *App) SetHandler(eventType model.EventType, handler events.Handler) {
	a.dispatcher.SetHandler(eventType, handler)
}

// mutate runs op under the state lock and commits its notifications. A failed
// execution is committed as well: the attempt has been consumed.
func (a *App) mutate(ctx context.Context, name string, op func(emit events.Emitter) error) error {
	start := time.Now()
	a.opMu.Lock()
	defer a.opMu.Unlock()
	a.mu.Lock()

	buf := events.NewBuffer()
	err := op(buf)
	metrics.RecordOperation(name, err, time.Since(start))
	if err != nil && !errors.Is(err, model.ErrExecutionFailed) {
		a.mu.Unlock()
		a.logger.Debug("operation rejected: "+err.Error(), zap.String("operation", name))
		return err
	}

	committed := a.dispatcher.Stamp(buf.Events())
	a.persist(ctx, committed)
	a.updateGauges()
	a.mu.Unlock()

	a.dispatcher.Dispatch(committed)
	for _, event := range committed {
		metrics.RecordEvent(event.Type.String())
	}
	return err
}

// persist writes the committed state. The in-memory state stays authoritative when
// the store is unavailable; the next successful save overwrites the snapshot.
func (a *App) persist(ctx context.Context, committed []model.Event) {
	if a.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if len(committed) > 0 {
		if err := a.store.AppendEvents(ctx, committed); err != nil {
			a.logger.Error("failed to append events: "+err.Error(), zap.Int("count", len(committed)))
		}
	}
	if err := a.store.SaveSnapshot(ctx, a.snapshot()); err != nil {
		a.logger.Error("failed to save the snapshot: " + err.Error())
	}
}

// persistExecuting saves the state while a transaction is marked executed and its
// action has not started yet, so a restarted engine cannot run the action again.
func (a *App) persistExecuting(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := a.store.SaveSnapshot(ctx, a.snapshot()); err != nil {
		a.logger.Error("failed to save the snapshot before an action: " + err.Error())
		return fmt.Errorf("%v: %w", err, model.ErrPersistence)
	}
	return nil
}

// Events reads the stored notification log after the given sequence number, oldest
// first. A limit of zero or less returns everything.
func (a *App) Events(ctx context.Context, after uint64, limit int) ([]model.Event, error) {
	if a.store == nil {
		return nil, model.ErrNoEventLog
	}
	return a.store.EventsAfter(ctx, after, limit)
}

func (a *App) updateGauges() {
	metrics.UpdateState(a.name, a.policy.Quorum(), a.graph.Len(), a.policy.TrustedCount(), a.ledger.Len())
}
