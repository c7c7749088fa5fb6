package pokeapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eeveeChain = `{"id": 67, "chain": {
	"species": {"name": "eevee"},
	"evolves_to": [
		{"species": {"name": "vaporeon"}, "evolution_details": [{"trigger": {"name": "use-item"}, "item": {"name": "water-stone"}}]},
		{"species": {"name": "espeon"}, "evolution_details": [{"trigger": {"name": "level-up"}, "min_level": null}]},
		{"species": {"name": "sylveon"}, "evolution_details": [{"trigger": {"name": "level-up"}, "min_level": 30}]}
	]
}}`

const porygonChain = `{"id": 101, "chain": {
	"species": {"name": "porygon"},
	"evolves_to": [{
		"species": {"name": "porygon2"},
		"evolution_details": [{"trigger": {"name": "trade"}}],
		"evolves_to": [{"species": {"name": "porygon-z"}, "evolution_details": [{"trigger": {"name": "trade"}}]}]
	}]
}}`

func chain(t *testing.T, raw string) EvolutionChain {
	t.Helper()
	var ch EvolutionChain
	require.NoError(t, json.Unmarshal([]byte(raw), &ch))
	return ch
}

func TestEvolutionChain_Stage(t *testing.T) {
	ch := chain(t, porygonChain)
	assert.Equal(t, 1, ch.Stage("Porygon"))
	assert.Equal(t, 2, ch.Stage("porygon2"))
	assert.Equal(t, 3, ch.Stage("Porygon-Z"))
	assert.Equal(t, 0, ch.Stage("pikachu"))

	assert.True(t, ch.HasFurtherEvolutions("porygon"))
	assert.False(t, ch.HasFurtherEvolutions("porygon-z"))
}

func TestEvolutionChain_RegionalForm(t *testing.T) {
	ch := chain(t, `{"chain": {"species": {"name": "vulpix"},
		"evolves_to": [{"species": {"name": "ninetales"}, "evolution_details": [{"trigger": {"name": "use-item"}}]}]}}`)
	assert.Equal(t, 1, ch.Stage("vulpix-alola"))
	assert.True(t, ch.HasFurtherEvolutions("vulpix-alola"))

	lvl, ok := ch.EvolvedAtLevel("ninetales-alola")
	assert.True(t, ok)
	assert.Equal(t, defaultEvolutionLevel, lvl)
}

func TestEvolutionChain_EvolvedAtLevel(t *testing.T) {
	ch := chain(t, `{"chain": {"species": {"name": "charmander"},
		"evolves_to": [{"species": {"name": "charmeleon"}, "evolution_details": [{"trigger": {"name": "level-up"}, "min_level": 16}],
			"evolves_to": [{"species": {"name": "charizard"}, "evolution_details": [{"trigger": {"name": "level-up"}, "min_level": 36}]}]}]}}`)

	lvl, ok := ch.EvolvedAtLevel("charmeleon")
	assert.True(t, ok)
	assert.Equal(t, 16, lvl)

	lvl, ok = ch.EvolvedAtLevel("charizard")
	assert.True(t, ok)
	assert.Equal(t, 36, lvl)

	_, ok = ch.EvolvedAtLevel("charmander")
	assert.False(t, ok)
}

func TestEvolutionChain_EligibleEvolutions(t *testing.T) {
	ch := chain(t, eeveeChain)

	names := func(evos []Evolution) []string {
		var out []string
		for _, e := range evos {
			out = append(out, e.Name)
		}
		return out
	}

	assert.Equal(t, []string{"espeon"}, names(ch.EligibleEvolutions("eevee", 5)))
	assert.Equal(t, []string{"vaporeon", "espeon"}, names(ch.EligibleEvolutions("eevee", 20)))
	assert.Equal(t, []string{"vaporeon", "espeon", "sylveon"}, names(ch.EligibleEvolutions("eevee", 30)))
	assert.Empty(t, ch.EligibleEvolutions("sylveon", 100))
	assert.Empty(t, ch.EligibleEvolutions("pikachu", 100))
}

func TestSpecies_AllowedVarieties(t *testing.T) {
	var s Species
	require.NoError(t, json.Unmarshal([]byte(`{"varieties": [
		{"is_default": true, "pokemon": {"name": "raichu", "url": "https://pokeapi.co/api/v2/pokemon/26/"}},
		{"pokemon": {"name": "raichu-alola", "url": "https://pokeapi.co/api/v2/pokemon/10100/"}},
		{"pokemon": {"name": "raichu-mega-x", "url": "https://pokeapi.co/api/v2/pokemon/10300/"}}
	]}`), &s))
	assert.Equal(t, []int{26, 10100}, s.AllowedVarieties())
}

func TestPokemon_BaseHPFallback(t *testing.T) {
	assert.Equal(t, defaultBaseHP, Pokemon{}.BaseHP())
}

func TestSpecies_Variety(t *testing.T) {
	var ninetales Species
	require.NoError(t, json.Unmarshal([]byte(`{"id": 38, "name": "ninetales", "varieties": [
		{"is_default": true, "pokemon": {"name": "ninetales", "url": "https://pokeapi.co/api/v2/pokemon/38/"}},
		{"pokemon": {"name": "ninetales-alola", "url": "https://pokeapi.co/api/v2/pokemon/10104/"}}]}`), &ninetales))

	assert.Equal(t, "ninetales", ninetales.Variety("Vulpix").Name)
	alola := ninetales.Variety("Vulpix Alola")
	assert.Equal(t, "ninetales-alola", alola.Name)
	id, ok := IDFromURL(alola.URL)
	require.True(t, ok)
	assert.Equal(t, 10104, id)

	// no galarian ninetales: the default form is used
	assert.Equal(t, "ninetales", ninetales.Variety("vulpix-galar").Name)
}
