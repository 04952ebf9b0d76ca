package core

import (
	"context"
	"sync"

	"fishynet/pkg/domain"
)

// EventEmitter receives one event per successfully committed transaction.
// Emission is fire-and-forget: a failing or slow consumer never rolls back or
// delays a committed mutation.
type EventEmitter interface {
	Emit(ctx context.Context, event domain.Event)
}

// NopEmitter discards all events.
type NopEmitter struct{}

// Emit implements EventEmitter.
func (NopEmitter) Emit(context.Context, domain.Event) {}

// EmitterFunc adapts a function to the EventEmitter interface.
type EmitterFunc func(ctx context.Context, event domain.Event)

// Emit implements EventEmitter.
func (f EmitterFunc) Emit(ctx context.Context, event domain.Event) { f(ctx, event) }

// Bus fans events out to subscriber channels. Sends are non-blocking: a
// subscriber whose buffer is full loses the event rather than stalling the
// engine.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan domain.Event
	closed bool
}

// NewBus constructs an event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber with the given channel buffer.
func (b *Bus) Subscribe(buffer int) <-chan domain.Event {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan domain.Event, buffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Emit implements EventEmitter.
func (b *Bus) Emit(_ context.Context, event domain.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Close closes all subscriber channels. Subsequent Emit calls are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
