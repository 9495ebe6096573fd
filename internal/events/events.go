// Package events buffers the notifications raised while an operation runs and hands
// them to subscribers once the operation has been committed.
package events

import (
	"sync"
	"time"
	"trust-multisig/internal/model"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Emitter collects notifications in the order they are raised.
type Emitter interface {
	Emit(event model.Event)
}

// Buffer is an Emitter that keeps everything it is given.
type Buffer struct {
	events []model.Event
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Emit(event model.Event) {
	b.events = append(b.events, event)
}

func (b *Buffer) Events() []model.Event {
	out := make([]model.Event, len(b.events))
	copy(out, b.events)
	return out
}

type Handler func(event model.Event) error

// Dispatcher stamps committed notifications and calls the registered handlers
// synchronously, in emission order.
type Dispatcher struct {
	log      *zap.Logger
	now      func() time.Time
	mu       sync.RWMutex
	sequence uint64
	handlers map[model.EventType][]Handler
	all      []Handler
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		log:      logger,
		now:      time.Now,
		handlers: make(map[model.EventType][]Handler),
	}
}

// SetHandler registers a handler for one event type.
func (d *Dispatcher) SetHandler(eventType model.EventType, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// Subscribe registers a handler for every event type.
func (d *Dispatcher) Subscribe(handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.all = append(d.all, handler)
}

// Sequence returns the sequence number of the last stamped event.
func (d *Dispatcher) Sequence() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sequence
}

// SetSequence continues numbering after a restored event log.
func (d *Dispatcher) SetSequence(sequence uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sequence = sequence
}

// Stamp assigns an id, a sequence number and a timestamp to each event.
func (d *Dispatcher) Stamp(events []model.Event) []model.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now().UTC()
	stamped := make([]model.Event, len(events))
	for i, event := range events {
		d.sequence++
		event.ID = uuid.NewString()
		event.Sequence = d.sequence
		event.Timestamp = now
		stamped[i] = event
	}
	return stamped
}

// Dispatch delivers the events to their handlers. A failing handler is logged and does
// not stop delivery to the others. Handlers run without the dispatcher lock held and
// may register further handlers; those take effect from the next call.
func (d *Dispatcher) Dispatch(events []model.Event) {
	d.mu.RLock()
	handlers := make(map[model.EventType][]Handler, len(events))
	for _, event := range events {
		handlers[event.Type] = d.handlers[event.Type]
	}
	all := d.all
	d.mu.RUnlock()

	for _, event := range events {
		d.log.Debug("event", zap.String("type", event.Type.String()), zap.Uint64("sequence", event.Sequence))

		for _, handler := range handlers[event.Type] {
			d.call(handler, event)
		}
		for _, handler := range all {
			d.call(handler, event)
		}
	}
}

func (d *Dispatcher) call(handler Handler, event model.Event) {
	if err := handler(event); err != nil {
		d.log.Error("error when handling the event: "+err.Error(), zap.String("type", event.Type.String()))
	}
}
