package pokeapi

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vincent-heng/discord-pokebot/bot/battle"
)

// fixtures are served under the test server; {{URL}} is replaced with its
// address so resources can reference each other.
var fixtures = map[string]string{
	"/pokemon/bulbasaur": `{
		"id": 1, "name": "bulbasaur",
		"species": {"name": "bulbasaur", "url": "{{URL}}/pokemon-species/1/"},
		"stats": [{"base_stat": 45, "stat": {"name": "hp"}}],
		"types": [{"slot": 1, "type": {"name": "grass"}}, {"slot": 2, "type": {"name": "poison"}}],
		"sprites": {"front_default": "sprite.png", "other": {"official-artwork": {"front_default": "art.png"}}},
		"moves": [
			{"move": {"name": "tackle", "url": "{{URL}}/move/33/"},
			 "version_group_details": [{"level_learned_at": 1, "move_learn_method": {"name": "level-up"}}]},
			{"move": {"name": "growl", "url": "{{URL}}/move/45/"},
			 "version_group_details": [{"level_learned_at": 3, "move_learn_method": {"name": "level-up"}}]},
			{"move": {"name": "helping-hand", "url": "{{URL}}/move/270/"},
			 "version_group_details": [{"level_learned_at": 1, "move_learn_method": {"name": "level-up"}}]},
			{"move": {"name": "vine-whip", "url": "{{URL}}/move/22/"},
			 "version_group_details": [{"level_learned_at": 7, "move_learn_method": {"name": "level-up"}}]},
			{"move": {"name": "solar-beam", "url": "{{URL}}/move/76/"},
			 "version_group_details": [{"level_learned_at": 0, "move_learn_method": {"name": "machine"}}]}
		]
	}`,
	"/pokemon/1": `{"id": 1, "name": "bulbasaur", "sprites": {"other": {"official-artwork": {"front_default": "art.png"}}}}`,
	"/move/33/":  `{"name": "tackle", "power": 40, "type": {"name": "normal"}}`,
	"/move/45/":  `{"name": "growl", "power": null, "type": {"name": "normal"}}`,
	"/move/270/": `{"name": "helping-hand", "power": null, "type": {"name": "normal"}}`,
	"/move/22/":  `{"name": "vine-whip", "power": 45, "type": {"name": "grass"}}`,
	"/type/grass": `{"name": "grass", "damage_relations": {
		"double_damage_to": [{"name": "water"}, {"name": "ground"}],
		"half_damage_to": [{"name": "fire"}, {"name": "grass"}],
		"no_damage_to": []}}`,
	"/type/normal": `{"name": "normal", "damage_relations": {
		"double_damage_to": [], "half_damage_to": [{"name": "rock"}], "no_damage_to": [{"name": "ghost"}]}}`,
	"/pokemon-species/1": `{"id": 1, "name": "bulbasaur", "is_legendary": false, "is_mythical": false,
		"evolution_chain": {"url": "{{URL}}/evolution-chain/1/"},
		"varieties": [{"is_default": true, "pokemon": {"name": "bulbasaur", "url": "{{URL}}/pokemon/1/"}}]}`,
	"/evolution-chain/1/": `{"id": 1, "chain": {
		"species": {"name": "bulbasaur", "url": "{{URL}}/pokemon-species/1/"},
		"evolution_details": [],
		"evolves_to": [{
			"species": {"name": "ivysaur", "url": "{{URL}}/pokemon-species/2/"},
			"evolution_details": [{"min_level": 16, "trigger": {"name": "level-up"}}],
			"evolves_to": [{
				"species": {"name": "venusaur", "url": "{{URL}}/pokemon-species/3/"},
				"evolution_details": [{"min_level": 32, "trigger": {"name": "level-up"}}],
				"evolves_to": []
			}]
		}]
	}}`,
	"/pokemon/1/encounters": `[{"version_details": [{"encounter_details": [
		{"min_level": 2, "max_level": 4}, {"min_level": 5, "max_level": 5}]}]}]`,
}

func newFixtureServer(t *testing.T) (*httptest.Server, *int64) {
	t.Helper()
	var hits int64
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		body, ok := fixtures[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(strings.ReplaceAll(body, "{{URL}}", srv.URL)))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "mr-mime", Slug("Mr. Mime"))
	assert.Equal(t, "tapu-koko", Slug(" Tapu Koko "))
}

func TestIDFromURL(t *testing.T) {
	id, ok := IDFromURL("https://pokeapi.co/api/v2/pokemon/10107/")
	assert.True(t, ok)
	assert.Equal(t, 10107, id)

	_, ok = IDFromURL("https://pokeapi.co/api/v2/pokemon/")
	assert.False(t, ok)
}

func TestClient_PokemonIsCached(t *testing.T) {
	srv, hits := newFixtureServer(t)
	c := New(srv.URL, time.Second, 0)

	p, err := c.Pokemon(context.Background(), "Bulbasaur")
	require.NoError(t, err)
	assert.Equal(t, 45, p.BaseHP())
	assert.Equal(t, []string{"grass", "poison"}, p.TypeNames())
	assert.Equal(t, "art.png", p.Artwork())

	_, err = c.Pokemon(context.Background(), "bulbasaur")
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt64(hits))
}

func TestClient_CacheIsBounded(t *testing.T) {
	srv, hits := newFixtureServer(t)
	c := New(srv.URL, time.Second, 2)
	ctx := context.Background()

	_, err := c.Pokemon(ctx, "bulbasaur")
	require.NoError(t, err)
	_, err = c.Species(ctx, 1)
	require.NoError(t, err)
	_, err = c.Type(ctx, "grass")
	require.NoError(t, err)
	assert.Equal(t, 2, c.CacheLen())
	assert.EqualValues(t, 3, atomic.LoadInt64(hits))

	// the least recently used entry was evicted and is fetched again
	_, err = c.Pokemon(ctx, "bulbasaur")
	require.NoError(t, err)
	assert.EqualValues(t, 4, atomic.LoadInt64(hits))
	assert.Equal(t, 2, c.CacheLen())
}

func TestClient_PokemonKeepsLevelUpMoves(t *testing.T) {
	srv, _ := newFixtureServer(t)
	c := New(srv.URL, time.Second, 0)

	p, err := c.Pokemon(context.Background(), "bulbasaur")
	require.NoError(t, err)

	var names []string
	for _, m := range p.Moves {
		names = append(names, m.Move.Name)
		assert.Len(t, m.VersionGroupDetails, 1)
	}
	// solar-beam is only learnt by machine
	assert.Equal(t, []string{"tackle", "growl", "helping-hand", "vine-whip"}, names)
	assert.Len(t, p.LevelUpMoves(3), 3)
}

func TestClient_NotFound(t *testing.T) {
	srv, _ := newFixtureServer(t)
	c := New(srv.URL, time.Second, 0)

	_, err := c.Pokemon(context.Background(), "missingno")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_SpeciesAndChain(t *testing.T) {
	srv, _ := newFixtureServer(t)
	c := New(srv.URL, time.Second, 0)
	ctx := context.Background()

	s, err := c.Species(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, s.AllowedVarieties())

	ch, err := c.EvolutionChain(ctx, s.EvolutionChain.URL)
	require.NoError(t, err)
	assert.Equal(t, 2, ch.Stage("ivysaur"))

	enc, err := c.Encounters(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 5, 5}, enc.Levels())
}

func TestDex_DamagingMoves(t *testing.T) {
	srv, _ := newFixtureServer(t)
	dex := NewDex(New(srv.URL, time.Second, 0), rand.New(rand.NewSource(1)))

	moves, err := dex.DamagingMoves(context.Background(), "bulbasaur", 5)
	require.NoError(t, err)
	assert.Equal(t, []battle.Move{{Name: "tackle", Type: "normal", Power: 40}}, moves)

	moves, err = dex.DamagingMoves(context.Background(), "bulbasaur", 10)
	require.NoError(t, err)
	assert.Len(t, moves, 2)

	move, err := dex.PickMove(context.Background(), &battle.Combatant{Name: "Bulbasaur", Level: 5})
	require.NoError(t, err)
	assert.Equal(t, "tackle", move.Name)
}

func TestDex_UnknownPokemonHasNoMove(t *testing.T) {
	srv, _ := newFixtureServer(t)
	dex := NewDex(New(srv.URL, time.Second, 0), nil)

	move, err := dex.PickMove(context.Background(), &battle.Combatant{Name: "Missingno", Level: 5})
	assert.Error(t, err)
	assert.Zero(t, move)
}

func TestDex_Multiplier(t *testing.T) {
	srv, _ := newFixtureServer(t)
	dex := NewDex(New(srv.URL, time.Second, 0), nil)
	ctx := context.Background()

	for _, tc := range []struct {
		move     string
		defender []string
		want     float64
	}{
		{"grass", []string{"water"}, 2},
		{"grass", []string{"fire"}, 0.5},
		{"grass", []string{"fire", "ground"}, 2},
		{"grass", []string{"electric"}, 1},
		{"normal", []string{"ghost"}, 0},
	} {
		got, err := dex.Multiplier(ctx, tc.move, tc.defender)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s vs %v", tc.move, tc.defender)
	}

	got, err := dex.Multiplier(ctx, "shadow", []string{"fire"})
	assert.Error(t, err)
	assert.Equal(t, 1.0, got)
}

func TestDex_Combatant(t *testing.T) {
	srv, _ := newFixtureServer(t)
	dex := NewDex(New(srv.URL, time.Second, 0), nil)

	c := dex.Combatant(context.Background(), "abc123", "Bulbasaur", 1, 5)
	assert.Equal(t, battle.MaxHP(45, 5), c.MaxHP)
	assert.Equal(t, c.MaxHP, c.HP)
	assert.Equal(t, "art.png", c.Artwork)

	fallback := dex.Combatant(context.Background(), "def456", "Missingno", 0, 5)
	assert.Equal(t, battle.MaxHP(10, 5), fallback.MaxHP)
	assert.Empty(t, fallback.Types)
}
