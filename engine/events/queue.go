package events

import (
	"github.com/spaghettifunk/loop/engine/core"
)

// key is the registry identity of event type T. Distinct type arguments
// produce distinct map keys without runtime type inspection.
type key[T any] struct{}

// handlerList is replaced, never mutated, so a Send in progress keeps
// iterating the slice it started with.
type handlerList[T any] struct {
	handlers []*EventHandler[T]
}

func (l *handlerList[T]) contains(h *EventHandler[T]) bool {
	if l == nil {
		return false
	}
	for _, existing := range l.handlers {
		if existing == h {
			return true
		}
	}
	return false
}

// EventQueue maps event types to their ordered handlers. It is not safe for
// concurrent use; the engine drives it from the main loop only.
//
// Registration is idempotent by pointer identity: a handler added twice is
// still invoked at most once per Send.
type EventQueue struct {
	registry map[any]any
}

func NewEventQueue() *EventQueue {
	return &EventQueue{registry: make(map[any]any)}
}

func lookup[T any](q *EventQueue) *handlerList[T] {
	if q.registry == nil {
		return nil
	}
	l, ok := q.registry[key[T]{}]
	if !ok {
		return nil
	}
	return l.(*handlerList[T])
}

// Send invokes every handler registered for T in subscription order.
// Handlers added while Send runs wait for the next Send. A handler removed
// while Send runs is not invoked again, not even later in the same Send.
func Send[T any](q *EventQueue, ev T) {
	l := lookup[T](q)
	if l == nil {
		return
	}
	for _, h := range l.handlers {
		if current := lookup[T](q); current != l && !current.contains(h) {
			continue
		}
		h.Handle(ev)
	}
}

// AddHandler appends h to the handlers of T. It reports false when h was
// already registered or is nil.
func AddHandler[T any](q *EventQueue, h *EventHandler[T]) bool {
	if h == nil {
		return false
	}
	if q.registry == nil {
		q.registry = make(map[any]any)
	}
	var current []*EventHandler[T]
	if l := lookup[T](q); l != nil {
		if l.contains(h) {
			core.LogDebug("event handler %p already registered for %T", h, *new(T))
			return false
		}
		current = l.handlers
	}
	next := make([]*EventHandler[T], len(current), len(current)+1)
	copy(next, current)
	next = append(next, h)
	q.registry[key[T]{}] = &handlerList[T]{handlers: next}
	return true
}

// RemoveHandler removes h from the handlers of T. Removing a handler that is
// not registered is a no-op and reports false.
func RemoveHandler[T any](q *EventQueue, h *EventHandler[T]) bool {
	l := lookup[T](q)
	if l == nil || h == nil {
		return false
	}
	idx := -1
	for i, existing := range l.handlers {
		if existing == h {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	if len(l.handlers) == 1 {
		delete(q.registry, key[T]{})
		return true
	}
	next := make([]*EventHandler[T], 0, len(l.handlers)-1)
	next = append(next, l.handlers[:idx]...)
	next = append(next, l.handlers[idx+1:]...)
	q.registry[key[T]{}] = &handlerList[T]{handlers: next}
	return true
}

// HandlerCount returns how many handlers are registered for T.
func HandlerCount[T any](q *EventQueue) int {
	l := lookup[T](q)
	if l == nil {
		return 0
	}
	return len(l.handlers)
}

// Subscribe registers fn for T and returns the token that removes it.
func Subscribe[T any](q *EventQueue, fn func(T)) *Subscription {
	return Attach(q, NewEventHandler(fn))
}

// Attach registers h for T and returns the token that removes it. When h was
// already registered the token is inert, so closing it leaves the earlier
// registration in place.
func Attach[T any](q *EventQueue, h *EventHandler[T]) *Subscription {
	if !AddHandler(q, h) {
		return &Subscription{}
	}
	return &Subscription{remove: func() { RemoveHandler(q, h) }}
}
