package session

import "sync"

// Event names a session state change.
type Event string

const (
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventUserUpdated    Event = "USER_UPDATED"
)

// Listener observes session changes. Listeners run synchronously on the
// goroutine that caused the change, so they must not block.
type Listener func(event Event, session *Session)

// Subscription detaches a listener.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops further notifications. It is safe to call repeatedly.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.once.Do(s.cancel)
}

type subscriber struct {
	id       uint64
	listener Listener
}

type broadcaster struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber
}

func (b *broadcaster) subscribe(listener Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, listener: listener})
	return &Subscription{cancel: func() { b.remove(id) }}
}

func (b *broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

func (b *broadcaster) emit(event Event, session *Session) {
	b.mu.Lock()
	subs := make([]subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()
	for _, sub := range subs {
		sub.listener(event, session)
	}
}
