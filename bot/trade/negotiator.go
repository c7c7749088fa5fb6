// Package trade pairs two trainers' offers and swaps the creatures once both
// have confirmed with a reaction.
package trade

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vincent-heng/discord-pokebot/bot/db"
	"github.com/vincent-heng/discord-pokebot/bot/session"
)

type State string

const (
	StateNone            State = "none"
	StateOpen            State = "open"
	StateAwaitingConfirm State = "awaiting-confirm"
	StateCompleted       State = "completed"
	StateCancelled       State = "cancelled"
	StateExpired         State = "expired"
)

const (
	Confirm = "🔄"
	Cancel  = "❌"

	DefaultTimeout = 30 * time.Minute
)

// Store is the persistence a trade needs
type Store interface {
	FetchCreature(ownerID, tag string) (db.Creature, error)
	FetchParty(ownerID string) (db.Party, error)
	SwapCreatures(ownerA, tagA, ownerB, tagB string) (db.Creature, db.Creature, error)
}

// Offer is one side of a trade. ChannelID is where the offer was made and
// where its expiry is announced.
type Offer struct {
	GuildID   string
	ChannelID string
	OwnerID   string
	Tag       string
	Species   string
	Level     int
	OpenedAt  time.Time
	ExpiresAt time.Time

	seq uint64
}

type Negotiator struct {
	store    Store
	sessions *session.Table
	timeout  time.Duration
	now      func() time.Time

	mu     sync.Mutex
	seq    uint64
	offers map[string]Offer
}

func New(store Store, sessions *session.Table, timeout time.Duration) *Negotiator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Negotiator{
		store:    store,
		sessions: sessions,
		timeout:  timeout,
		now:      time.Now,
		offers:   make(map[string]Offer),
	}
}

// Timeout is how long offers and deals stay open
func (n *Negotiator) Timeout() time.Duration {
	return n.timeout
}

// tradable loads the creature behind tag, refusing party members
func (n *Negotiator) tradable(ownerID, tag string) (db.Creature, error) {
	c, err := n.store.FetchCreature(ownerID, tag)
	if err != nil {
		return c, err
	}
	party, err := n.store.FetchParty(ownerID)
	if err != nil && !errors.Is(err, db.ErrPartyNotFound) {
		return c, err
	}
	if party.Contains(c.Tag) {
		return c, db.ErrCreatureInParty
	}
	return c, nil
}

// Open puts a creature up for trade in guild. An open offer does not hold
// its owner in the session table; the owner is only locked once the offer
// is matched.
func (n *Negotiator) Open(guildID, channelID, ownerID, tag string) (Offer, error) {
	if s, busy := n.sessions.Busy(ownerID); busy && s.Kind == session.KindTrade {
		return Offer{}, fmt.Errorf("%s: %w", ownerID, session.ErrBusy)
	}
	c, err := n.tradable(ownerID, tag)
	if err != nil {
		return Offer{}, err
	}

	now := n.now()
	o := Offer{
		GuildID:   guildID,
		ChannelID: channelID,
		OwnerID:   ownerID,
		Tag:       c.Tag,
		Species:   c.Name,
		Level:     c.Level,
		OpenedAt:  now,
		ExpiresAt: now.Add(n.timeout),
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.offers[ownerID]; ok {
		return Offer{}, ErrOfferOpen
	}
	n.seq++
	o.seq = n.seq
	n.offers[ownerID] = o
	return o, nil
}

// Offers lists the open offers of guild, oldest first
func (n *Negotiator) Offers(guildID string) []Offer {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []Offer
	for _, o := range n.offers {
		if o.GuildID == guildID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// Pending reports whether someone other than ownerID has an open offer
// that a trade command from ownerID would answer.
func (n *Negotiator) Pending(guildID, ownerID, targetID string) bool {
	_, err := n.pick(guildID, ownerID, targetID)
	return err == nil
}

func (n *Negotiator) pick(guildID, ownerID, targetID string) (Offer, error) {
	if targetID == ownerID {
		return Offer{}, ErrSelfTrade
	}
	if targetID != "" {
		n.mu.Lock()
		o, ok := n.offers[targetID]
		n.mu.Unlock()
		if !ok || o.GuildID != guildID {
			return Offer{}, ErrNoOffer
		}
		return o, nil
	}
	for _, o := range n.Offers(guildID) {
		if o.OwnerID != ownerID {
			return o, nil
		}
	}
	return Offer{}, ErrNoOffer
}

// Match answers an open offer with the creature behind tag. The offer of
// targetID is answered when given, the oldest one of the guild otherwise.
func (n *Negotiator) Match(guildID, ownerID, tag, targetID string) (*Deal, error) {
	o, err := n.pick(guildID, ownerID, targetID)
	if err != nil {
		return nil, err
	}
	c, err := n.tradable(ownerID, tag)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	current, ok := n.offers[o.OwnerID]
	if !ok || current.seq != o.seq {
		n.mu.Unlock()
		return nil, ErrNoOffer
	}
	s, err := n.sessions.Acquire(session.KindTrade, n.timeout, o.OwnerID, ownerID)
	if err != nil {
		n.mu.Unlock()
		return nil, err
	}
	delete(n.offers, o.OwnerID)
	n.mu.Unlock()

	if err := n.sessions.Transition(s.ID, session.StateAwaitingConfirm); err != nil {
		return nil, err
	}

	now := n.now()
	return &Deal{
		store:     n.store,
		sessions:  n.sessions,
		sessionID: s.ID,
		Offer:     o,
		Counter: Offer{
			GuildID:   guildID,
			ChannelID: o.ChannelID,
			OwnerID:   ownerID,
			Tag:       c.Tag,
			Species:   c.Name,
			Level:     c.Level,
			OpenedAt:  now,
			ExpiresAt: now.Add(n.timeout),
		},
		state:     StateAwaitingConfirm,
		confirmed: make(map[string]bool, 2),
	}, nil
}

// Withdraw cancels the open offer of ownerID
func (n *Negotiator) Withdraw(ownerID string) (Offer, error) {
	n.mu.Lock()
	o, ok := n.offers[ownerID]
	delete(n.offers, ownerID)
	n.mu.Unlock()

	if !ok {
		return Offer{}, ErrNoOffer
	}
	return o, nil
}

// Expire drops the offers nobody answered before now, oldest first
func (n *Negotiator) Expire(now time.Time) []Offer {
	n.mu.Lock()
	defer n.mu.Unlock()

	var expired []Offer
	for owner, o := range n.offers {
		if !now.Before(o.ExpiresAt) {
			expired = append(expired, o)
			delete(n.offers, owner)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].seq < expired[j].seq })
	return expired
}

// StateOf is the offer state of ownerID outside of a running deal
func (n *Negotiator) StateOf(ownerID string) State {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.offers[ownerID]; ok {
		return StateOpen
	}
	return StateNone
}
