package pubsub

import "context"

// Listener wraps one subscription for loops that consume events one at a time.
type Listener[T any] struct {
	ctx context.Context
	ch  <-chan Event[T]
}

// NewListener subscribes to broker for the given types. The subscription ends
// when ctx is done.
func NewListener[T any](ctx context.Context, broker Subscriber[T], types ...EventType) *Listener[T] {
	return &Listener[T]{
		ctx: ctx,
		ch:  broker.Subscribe(ctx, types...),
	}
}

// Next blocks for the next event. It returns false once the context is done
// or the channel is closed.
func (l *Listener[T]) Next() (Event[T], bool) {
	select {
	case <-l.ctx.Done():
		return Event[T]{}, false
	case event, ok := <-l.ch:
		return event, ok
	}
}

// Each calls fn for every event until the subscription ends or fn returns false.
func (l *Listener[T]) Each(fn func(Event[T]) bool) {
	for {
		event, ok := l.Next()
		if !ok || !fn(event) {
			return
		}
	}
}
