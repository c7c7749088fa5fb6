package trade

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vincent-heng/discord-pokebot/bot/db"
	"github.com/vincent-heng/discord-pokebot/bot/session"
)

// Deal is a matched pair of offers waiting for both confirmations
type Deal struct {
	store     Store
	sessions  *session.Table
	sessionID uuid.UUID

	Offer   Offer
	Counter Offer

	mu        sync.Mutex
	state     State
	confirmed map[string]bool
	received  [2]db.Creature
}

func (d *Deal) Participants() []string {
	return []string{d.Offer.OwnerID, d.Counter.OwnerID}
}

func (d *Deal) participant(userID string) bool {
	return userID == d.Offer.OwnerID || userID == d.Counter.OwnerID
}

func (d *Deal) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// React applies the reaction of userID. Reactions of anyone else are
// ignored; any emoji but Confirm from a participant cancels the deal.
func (d *Deal) React(userID, emoji string) (State, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateAwaitingConfirm {
		return d.state, ErrDealClosed
	}
	if !d.participant(userID) {
		return d.state, nil
	}
	if emoji != Confirm {
		d.close(StateCancelled)
		return d.state, nil
	}

	d.confirmed[userID] = true
	if !d.confirmed[d.Offer.OwnerID] || !d.confirmed[d.Counter.OwnerID] {
		return d.state, nil
	}

	gotByOffer, gotByCounter, err := d.store.SwapCreatures(d.Offer.OwnerID, d.Offer.Tag, d.Counter.OwnerID, d.Counter.Tag)
	if err != nil {
		d.close(StateCancelled)
		return d.state, err
	}
	d.received = [2]db.Creature{gotByOffer, gotByCounter}
	d.close(StateCompleted)
	return d.state, nil
}

// Expire ends a deal nobody finished confirming
func (d *Deal) Expire() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateAwaitingConfirm {
		d.close(StateExpired)
	}
}

func (d *Deal) close(state State) {
	d.state = state
	d.sessions.Release(d.sessionID)
}

// Received returns what each side got, in Participants order, once completed
func (d *Deal) Received() (byOffer, byCounter db.Creature) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.received[0], d.received[1]
}
