package session

import (
	"context"
	"sync"
)

const subscriptionBuffer = 16

// Event is a chat event a command may be waiting for. Key is the id of the
// message it relates to.
type Event struct {
	Key    string
	UserID string
	Emoji  string
}

// Dispatcher routes inbound events to the subscriptions registered on their key
type Dispatcher struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string]map[uint64]*Subscription
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[string]map[uint64]*Subscription)}
}

type Subscription struct {
	d     *Dispatcher
	id    uint64
	key   string
	match func(Event) bool

	events chan Event
	done   chan struct{}
	once   sync.Once
}

// Subscribe waits for events on key accepted by match. A nil match accepts
// everything.
func (d *Dispatcher) Subscribe(key string, match func(Event) bool) *Subscription {
	if match == nil {
		match = func(Event) bool { return true }
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	s := &Subscription{
		d:      d,
		id:     d.nextID,
		key:    key,
		match:  match,
		events: make(chan Event, subscriptionBuffer),
		done:   make(chan struct{}),
	}
	if d.subs[key] == nil {
		d.subs[key] = make(map[uint64]*Subscription)
	}
	d.subs[key][s.id] = s
	return s
}

// Dispatch hands ev to every matching subscription and reports how many got
// it. A subscription whose buffer is full misses the event.
func (d *Dispatcher) Dispatch(ev Event) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	delivered := 0
	for _, s := range d.subs[ev.Key] {
		if !s.match(ev) {
			continue
		}
		select {
		case s.events <- ev:
			delivered++
		default:
		}
	}
	return delivered
}

func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, subs := range d.subs {
		n += len(subs)
	}
	return n
}

func (d *Dispatcher) unsubscribe(s *Subscription) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if subs, ok := d.subs[s.key]; ok {
		delete(subs, s.id)
		if len(subs) == 0 {
			delete(d.subs, s.key)
		}
	}
}

// Next blocks until an event arrives, ctx is done or the subscription is
// closed.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	select {
	case ev := <-s.events:
		return ev, nil
	case <-s.done:
		return Event{}, ErrClosed
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.d.unsubscribe(s)
		close(s.done)
	})
}
