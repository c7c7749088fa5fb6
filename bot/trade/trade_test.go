package trade

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vincent-heng/discord-pokebot/bot/db"
	"github.com/vincent-heng/discord-pokebot/bot/session"
	"github.com/vincent-heng/discord-pokebot/config"
)

type fixture struct {
	store    *db.DB
	sessions *session.Table
	n        *Negotiator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := db.New(config.Database{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "pokemon.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sessions := session.NewTable()
	return fixture{store: store, sessions: sessions, n: New(store, sessions, time.Minute)}
}

func (f fixture) catch(t *testing.T, owner, name string) db.Creature {
	t.Helper()
	c, err := f.store.CatchCreature(owner, 1, name, 5)
	require.NoError(t, err)
	return c
}

func TestTrade_Completed(t *testing.T) {
	f := newFixture(t)
	bulba := f.catch(t, "ash", "Bulbasaur")
	charm := f.catch(t, "gary", "Charmander")

	offer, err := f.n.Open("guild", "chan", "ash", bulba.Tag)
	require.NoError(t, err)
	assert.Equal(t, "Bulbasaur", offer.Species)
	assert.Equal(t, "chan", offer.ChannelID)
	assert.Equal(t, StateOpen, f.n.StateOf("ash"))

	// an open offer does not lock its owner
	_, busy := f.sessions.Busy("ash")
	assert.False(t, busy)

	deal, err := f.n.Match("guild", "gary", charm.Tag, "")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingConfirm, deal.State())
	assert.Equal(t, []string{"ash", "gary"}, deal.Participants())
	assert.Equal(t, StateNone, f.n.StateOf("ash"))

	for _, owner := range []string{"ash", "gary"} {
		s, busy := f.sessions.Busy(owner)
		require.True(t, busy)
		assert.Equal(t, session.KindTrade, s.Kind)
		assert.Equal(t, session.StateAwaitingConfirm, s.State)
	}
	_, err = f.n.Open("guild", "chan", "ash", bulba.Tag)
	assert.ErrorIs(t, err, session.ErrBusy)

	// strangers do not count
	state, err := deal.React("misty", Cancel)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingConfirm, state)

	state, err = deal.React("ash", Confirm)
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingConfirm, state)

	state, err = deal.React("gary", Confirm)
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, state)

	byAsh, byGary := deal.Received()
	assert.Equal(t, "Charmander", byAsh.Name)
	assert.Equal(t, "ash", byAsh.OwnerID)
	assert.Equal(t, "Bulbasaur", byGary.Name)

	for _, owner := range []string{"ash", "gary"} {
		n, err := f.store.CountCreatures(owner)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
		_, busy := f.sessions.Busy(owner)
		assert.False(t, busy)
	}

	_, err = deal.React("ash", Confirm)
	assert.ErrorIs(t, err, ErrDealClosed)
}

func TestTrade_AnyOtherEmojiCancels(t *testing.T) {
	f := newFixture(t)
	bulba := f.catch(t, "ash", "Bulbasaur")
	charm := f.catch(t, "gary", "Charmander")

	_, err := f.n.Open("guild", "chan", "ash", bulba.Tag)
	require.NoError(t, err)
	deal, err := f.n.Match("guild", "gary", charm.Tag, "ash")
	require.NoError(t, err)

	_, err = deal.React("ash", Confirm)
	require.NoError(t, err)
	state, err := deal.React("gary", "👍")
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, state)

	c, err := f.store.FetchCreature("ash", bulba.Tag)
	require.NoError(t, err)
	assert.Equal(t, "Bulbasaur", c.Name)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestTrade_Expire(t *testing.T) {
	f := newFixture(t)
	bulba := f.catch(t, "ash", "Bulbasaur")
	charm := f.catch(t, "gary", "Charmander")

	offer, err := f.n.Open("guild", "chan", "ash", bulba.Tag)
	require.NoError(t, err)

	assert.Empty(t, f.n.Expire(offer.ExpiresAt.Add(-time.Second)))
	expired := f.n.Expire(offer.ExpiresAt)
	require.Len(t, expired, 1)
	assert.Equal(t, "chan", expired[0].ChannelID)
	assert.Equal(t, "Bulbasaur", expired[0].Species)
	assert.Equal(t, StateNone, f.n.StateOf("ash"))

	_, err = f.n.Match("guild", "gary", charm.Tag, "")
	assert.ErrorIs(t, err, ErrNoOffer)

	// a matched deal left unconfirmed expires too
	_, err = f.n.Open("guild", "chan", "ash", bulba.Tag)
	require.NoError(t, err)
	deal, err := f.n.Match("guild", "gary", charm.Tag, "")
	require.NoError(t, err)
	deal.Expire()
	assert.Equal(t, StateExpired, deal.State())
	assert.Equal(t, 0, f.sessions.Len())
}

func TestTrade_Withdraw(t *testing.T) {
	f := newFixture(t)
	bulba := f.catch(t, "ash", "Bulbasaur")

	_, err := f.n.Open("guild", "chan", "ash", bulba.Tag)
	require.NoError(t, err)
	_, err = f.n.Withdraw("ash")
	require.NoError(t, err)
	_, err = f.n.Withdraw("ash")
	assert.ErrorIs(t, err, ErrNoOffer)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestTrade_MultipleOffers(t *testing.T) {
	f := newFixture(t)
	bulba := f.catch(t, "ash", "Bulbasaur")
	squirtle := f.catch(t, "misty", "Squirtle")
	charm := f.catch(t, "gary", "Charmander")
	pidgey := f.catch(t, "brock", "Pidgey")

	_, err := f.n.Open("guild", "chan", "ash", bulba.Tag)
	require.NoError(t, err)
	_, err = f.n.Open("guild", "chan", "misty", squirtle.Tag)
	require.NoError(t, err)
	require.Len(t, f.n.Offers("guild"), 2)
	assert.Empty(t, f.n.Offers("other"))

	deal, err := f.n.Match("guild", "gary", charm.Tag, "misty")
	require.NoError(t, err)
	assert.Equal(t, "misty", deal.Offer.OwnerID)

	// without a target the oldest offer is answered
	deal, err = f.n.Match("guild", "brock", pidgey.Tag, "")
	require.NoError(t, err)
	assert.Equal(t, "ash", deal.Offer.OwnerID)
}

func TestTrade_Rejections(t *testing.T) {
	f := newFixture(t)
	bulba := f.catch(t, "ash", "Bulbasaur")
	rattata := f.catch(t, "ash", "Rattata")
	charm := f.catch(t, "gary", "Charmander")

	_, err := f.store.SetParty("ash", []string{rattata.Tag})
	require.NoError(t, err)

	_, err = f.n.Open("guild", "chan", "ash", rattata.Tag)
	assert.ErrorIs(t, err, db.ErrCreatureInParty)

	_, err = f.n.Open("guild", "chan", "ash", "zzzzzz")
	assert.ErrorIs(t, err, db.ErrCreatureNotFound)

	_, err = f.n.Open("guild", "chan", "ash", bulba.Tag)
	require.NoError(t, err)
	_, err = f.n.Open("guild", "chan", "ash", bulba.Tag)
	assert.ErrorIs(t, err, ErrOfferOpen)

	_, err = f.n.Match("guild", "ash", bulba.Tag, "ash")
	assert.ErrorIs(t, err, ErrSelfTrade)
	_, err = f.n.Match("guild", "ash", bulba.Tag, "")
	assert.ErrorIs(t, err, ErrNoOffer)
	_, err = f.n.Match("other", "gary", charm.Tag, "")
	assert.ErrorIs(t, err, ErrNoOffer)

	// a trainer busy in a battle cannot answer
	_, err = f.sessions.Acquire(session.KindBattle, 0, "gary")
	require.NoError(t, err)
	_, err = f.n.Match("guild", "gary", charm.Tag, "")
	assert.ErrorIs(t, err, session.ErrBusy)
	assert.Equal(t, StateOpen, f.n.StateOf("ash"))
}

func TestTrade_OfferOwnerCanBattle(t *testing.T) {
	f := newFixture(t)
	bulba := f.catch(t, "ash", "Bulbasaur")
	charm := f.catch(t, "gary", "Charmander")

	_, err := f.n.Open("guild", "chan", "ash", bulba.Tag)
	require.NoError(t, err)

	battle, err := f.sessions.Acquire(session.KindBattle, 0, "ash", "misty")
	require.NoError(t, err)

	// nobody can answer while the owner is battling
	_, err = f.n.Match("guild", "gary", charm.Tag, "")
	assert.ErrorIs(t, err, session.ErrBusy)
	assert.Equal(t, StateOpen, f.n.StateOf("ash"))
	_, busy := f.sessions.Busy("gary")
	assert.False(t, busy)

	f.sessions.Release(battle.ID)
	deal, err := f.n.Match("guild", "gary", charm.Tag, "")
	require.NoError(t, err)
	assert.Equal(t, "ash", deal.Offer.OwnerID)
}
