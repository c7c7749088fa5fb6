// Package session tracks who is busy with an interactive command and routes
// chat events to the command waiting for them.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindTrade  Kind = "trade"
	KindBattle Kind = "battle"
	KindEvolve Kind = "evolve"
)

type State string

const (
	StateOpen            State = "open"
	StateAwaitingConfirm State = "awaiting-confirm"
	StateRunning         State = "running"
)

// Session is an interactive command holding its participants
type Session struct {
	ID           uuid.UUID
	Kind         Kind
	State        State
	Participants []string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

func (s *Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s *Session) copy() Session {
	c := *s
	c.Participants = append([]string(nil), s.Participants...)
	return c
}

// Table maps every participant to the single session it belongs to
type Table struct {
	mu            sync.Mutex
	byID          map[uuid.UUID]*Session
	byParticipant map[string]*Session
	now           func() time.Time
}

func NewTable() *Table {
	return &Table{
		byID:          make(map[uuid.UUID]*Session),
		byParticipant: make(map[string]*Session),
		now:           time.Now,
	}
}

// busy must be called with the lock held. Expired sessions do not count.
func (t *Table) busy(participant string, now time.Time) *Session {
	s, ok := t.byParticipant[participant]
	if !ok {
		return nil
	}
	if s.expired(now) {
		t.remove(s)
		return nil
	}
	return s
}

func (t *Table) remove(s *Session) {
	delete(t.byID, s.ID)
	for _, p := range s.Participants {
		if t.byParticipant[p] == s {
			delete(t.byParticipant, p)
		}
	}
}

// Acquire opens a session for every participant at once, or for none of
// them when one is already busy.
func (t *Table) Acquire(kind Kind, ttl time.Duration, participants ...string) (Session, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	seen := make(map[string]bool, len(participants))
	var ids []string
	for _, p := range participants {
		if seen[p] {
			continue
		}
		seen[p] = true
		if t.busy(p, now) != nil {
			return Session{}, fmt.Errorf("%s: %w", p, ErrBusy)
		}
		ids = append(ids, p)
	}

	s := &Session{
		ID:           uuid.New(),
		Kind:         kind,
		State:        StateOpen,
		Participants: ids,
		CreatedAt:    now,
	}
	if ttl > 0 {
		s.ExpiresAt = now.Add(ttl)
	}
	t.byID[s.ID] = s
	for _, p := range ids {
		t.byParticipant[p] = s
	}
	return s.copy(), nil
}

func (t *Table) Transition(id uuid.UUID, state State) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.byID[id]
	if !ok {
		return ErrUnknownSession
	}
	s.State = state
	return nil
}

// Release frees every participant of the session. Releasing twice is a no-op.
func (t *Table) Release(id uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.byID[id]; ok {
		t.remove(s)
	}
}

// Busy returns the live session participant belongs to
func (t *Table) Busy(participant string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.busy(participant, t.now())
	if s == nil {
		return Session{}, false
	}
	return s.copy(), true
}

// Sweep drops the sessions expired at now and returns them
func (t *Table) Sweep(now time.Time) []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	var out []Session
	for _, s := range t.byID {
		if s.expired(now) {
			out = append(out, s.copy())
			t.remove(s)
		}
	}
	return out
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}
