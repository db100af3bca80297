package client

import (
	"context"
	"sync"
)

// subscriberBuffer bounds how many undelivered identity changes a slow
// subscriber may queue. A subscriber that falls further behind loses its
// oldest undelivered changes first; the newest state is always delivered.
const subscriberBuffer = 16

// Session is the single authoritative source of truth for the current
// identity. Consumers read the resolved state or subscribe to changes; every
// transition, including sign-out, is observed through the same subscription
// channel.
type Session struct {
	mu        sync.Mutex
	identity  *Identity
	resolved  bool
	resolving bool
	closed    bool
	subs      map[int]chan *Identity
	nextSub   int
}

func NewSession() *Session {
	return &Session{subs: make(map[int]chan *Identity)}
}

// Current returns the identity, or nil when anonymous. ok is false until the
// first resolution settles.
func (s *Session) Current() (identity *Identity, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity, s.resolved
}

// Resolving reports whether a status check is in flight.
func (s *Session) Resolving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolving
}

// Subscribe registers for identity changes, delivered in order. A subscriber
// that stops draining loses its oldest undelivered changes, never the latest
// state. The returned cancel func removes the subscription and closes its
// channel.
func (s *Session) Subscribe() (<-chan *Identity, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan *Identity, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

// Resolve asks the gateway who the current user is and settles the session
// state either way. The in-progress flag clears on success and failure
// alike.
func (s *Session) Resolve(ctx context.Context, gw Gateway) error {
	s.mu.Lock()
	s.resolving = true
	s.mu.Unlock()

	identity, err := gw.Me(ctx)

	s.mu.Lock()
	s.resolving = false
	s.mu.Unlock()

	if err != nil {
		s.set(nil)
		return err
	}
	s.set(identity)
	return nil
}

// SignOut clears the session through the gateway. Completion is observed via
// the subscription channel, not a separate state update.
func (s *Session) SignOut(ctx context.Context, gw Gateway) error {
	err := gw.Logout(ctx)
	s.set(nil)
	return err
}

// Close tears down every subscription deterministically.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Session) set(identity *Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.identity = identity
	s.resolved = true
	for _, ch := range s.subs {
		select {
		case ch <- identity:
		default:
			// subscriber is behind; evict its oldest queued change so the
			// newest state always lands
			select {
			case <-ch:
			default:
			}
			ch <- identity
		}
	}
}
