package events

// Subscription removes a registration when closed. Close is idempotent.
type Subscription struct {
	remove func()
}

func (s *Subscription) Close() {
	if s == nil || s.remove == nil {
		return
	}
	remove := s.remove
	s.remove = nil
	remove()
}

// Active reports whether closing s would still remove a handler.
func (s *Subscription) Active() bool {
	return s != nil && s.remove != nil
}

// Subscriptions closes a group of tokens together, newest first.
type Subscriptions struct {
	subs []*Subscription
}

func (g *Subscriptions) Add(subs ...*Subscription) {
	g.subs = append(g.subs, subs...)
}

func (g *Subscriptions) Len() int {
	return len(g.subs)
}

func (g *Subscriptions) Close() {
	for i := len(g.subs) - 1; i >= 0; i-- {
		g.subs[i].Close()
	}
	g.subs = nil
}
