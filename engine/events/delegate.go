package events

// Delegate holds at most one callback for events of type T. The zero value is
// unbound and invoking it does nothing.
type Delegate[T any] struct {
	fn func(T)
}

// NewDelegate binds a free function.
func NewDelegate[T any](fn func(T)) Delegate[T] {
	return Delegate[T]{fn: fn}
}

// MethodDelegate binds obj to a method expression, e.g.
//
//	events.MethodDelegate(p, (*ParticleSystem).onDeath)
func MethodDelegate[O, T any](obj *O, method func(*O, T)) Delegate[T] {
	if obj == nil || method == nil {
		return Delegate[T]{}
	}
	return Delegate[T]{fn: func(ev T) { method(obj, ev) }}
}

func (d Delegate[T]) Bound() bool {
	return d.fn != nil
}

func (d Delegate[T]) Invoke(ev T) {
	if d.fn == nil {
		return
	}
	d.fn(ev)
}
