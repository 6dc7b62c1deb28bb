package events

// EventHandler binds one Delegate to one event type. The queue only keeps a
// pointer to it, so the owner decides how long it lives. Fan out by creating
// more handlers, not by rebinding one.
type EventHandler[T any] struct {
	delegate Delegate[T]
}

func NewEventHandler[T any](fn func(T)) *EventHandler[T] {
	return &EventHandler[T]{delegate: NewDelegate(fn)}
}

// NewMethodHandler builds a handler that calls method on obj.
func NewMethodHandler[O, T any](obj *O, method func(*O, T)) *EventHandler[T] {
	return &EventHandler[T]{delegate: MethodDelegate(obj, method)}
}

// Connect replaces the bound callback.
func (h *EventHandler[T]) Connect(fn func(T)) {
	h.delegate = NewDelegate(fn)
}

// ConnectMethod replaces the bound callback of h with a method on obj.
func ConnectMethod[O, T any](h *EventHandler[T], obj *O, method func(*O, T)) {
	h.delegate = MethodDelegate(obj, method)
}

func (h *EventHandler[T]) Bound() bool {
	return h.delegate.Bound()
}

// Handle forwards ev to the bound callback. Unbound handlers ignore it.
func (h *EventHandler[T]) Handle(ev T) {
	h.delegate.Invoke(ev)
}
