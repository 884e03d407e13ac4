// Package events fans engine updates out to the delivery sinks.
package events

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
)

var ErrDispatcherFull = errors.New("event dispatcher queue is full")

// Handler handles a published update.
type Handler func(ctx context.Context, u models.LfgUpdate) error

type subscription struct {
	name    string
	types   []models.UpdateType
	handler Handler
}

func (s subscription) wants(t models.UpdateType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

type envelope struct {
	ctx context.Context
	u   models.LfgUpdate
}

// Dispatcher queues updates and runs the subscribed handlers on a single
// worker, in publish order. A failing handler is logged and does not stop
// the others.
type Dispatcher struct {
	l     logger.Logger
	queue chan envelope

	mu       sync.RWMutex
	handlers []subscription
	dropped  int64
}

func NewDispatcher(l logger.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Dispatcher{
		l:     l,
		queue: make(chan envelope, buffer),
	}
}

// Subscribe registers a handler for the given update types, or for every
// update when no type is given.
func (d *Dispatcher) Subscribe(name string, h Handler, types ...models.UpdateType) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, subscription{name: name, types: types, handler: h})
}

// Publish enqueues an update without blocking.
func (d *Dispatcher) Publish(ctx context.Context, u models.LfgUpdate) error {
	select {
	case d.queue <- envelope{ctx: context.WithoutCancel(ctx), u: u}:
		return nil
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		d.l.Errorf(ctx, "events.Dispatcher.Publish: %v: update %s for ticket %s", ErrDispatcherFull, u.ID, u.TicketID)
		return ErrDispatcherFull
	}
}

// Notify lets the dispatcher act as the engine notifier.
func (d *Dispatcher) Notify(ctx context.Context, u models.LfgUpdate) {
	_ = d.Publish(ctx, u)
}

// Run delivers updates until ctx is done, then drains what is already
// queued.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case env := <-d.queue:
			d.deliver(env)
		case <-ctx.Done():
			for {
				select {
				case env := <-d.queue:
					d.deliver(env)
				default:
					return nil
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(env envelope) {
	d.mu.RLock()
	handlers := append([]subscription(nil), d.handlers...)
	d.mu.RUnlock()

	for _, s := range handlers {
		if !s.wants(env.u.Type) {
			continue
		}
		if err := s.handler(env.ctx, env.u); err != nil {
			d.l.Errorw(env.ctx, "events.Dispatcher.deliver: handler failed",
				"handler", s.name,
				"update_id", env.u.ID,
				"update_type", env.u.Type.String(),
				"error", err,
			)
		}
	}
}

func (d *Dispatcher) Dropped() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.dropped
}
