// Package spawn decides when wild pokémon appear and who catches them.
package spawn

import (
	"context"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vincent-heng/discord-pokebot/bot/pokeapi"
)

// Source is the part of the pokeapi client a spawn needs
type Source interface {
	Pokemon(ctx context.Context, nameOrID string) (pokeapi.Pokemon, error)
	Species(ctx context.Context, id int) (pokeapi.Species, error)
	Encounters(ctx context.Context, id int) (pokeapi.Encounters, error)
	EvolutionChain(ctx context.Context, url string) (pokeapi.EvolutionChain, error)
}

// Wild is a spawned pokémon waiting to be caught
type Wild struct {
	GuildID   string
	ChannelID string
	MessageID string
	// PokemonID is the variety id, SpeciesID the species it was drawn from
	PokemonID int
	SpeciesID int
	Name      string
	Level     int
	Artwork   string
	SpawnedAt time.Time
}

type Spawner struct {
	src          Source
	speciesCount int
	cooldown     *Cooldown
	clk          Clock

	rngMu sync.Mutex
	rng   *rand.Rand

	mu   sync.Mutex
	wild map[string]Wild
}

func New(src Source, speciesCount int, clk Clock, rng *rand.Rand) *Spawner {
	if clk == nil {
		clk = RealClock{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Spawner{
		src:          src,
		speciesCount: speciesCount,
		cooldown:     NewCooldown(clk),
		clk:          clk,
		rng:          rng,
		wild:         make(map[string]Wild),
	}
}

func (s *Spawner) float64() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

// between draws uniformly in [lo, hi], lo when the range is empty
func (s *Spawner) between(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return lo + s.rng.Intn(hi-lo+1)
}

// Roll draws against rate for one message and reports whether a spawn
// should happen in guild. A successful roll starts the cooldown.
func (s *Spawner) Roll(guildID string, rate float64, cooldown time.Duration) bool {
	if rate <= 0 || math.IsNaN(rate) {
		return false
	}
	if s.float64() >= rate {
		return false
	}
	return s.cooldown.TryMark(guildID, cooldown)
}

// Cancel forgets a roll whose spawn could not be posted
func (s *Spawner) Cancel(guildID string) {
	s.cooldown.Reset(guildID)
}

// Generate draws a random species and resolves the variety, artwork and
// level of the wild pokémon.
func (s *Spawner) Generate(ctx context.Context) (Wild, error) {
	speciesID := s.between(1, s.speciesCount)
	pokemonID := speciesID

	if species, err := s.src.Species(ctx, speciesID); err == nil {
		if ids := species.AllowedVarieties(); len(ids) > 0 {
			pokemonID = ids[s.between(0, len(ids)-1)]
		}
	} else {
		log.Debug().Err(err).Int("species", speciesID).Msg("spawn: species lookup failed, using default form")
	}

	p, err := s.src.Pokemon(ctx, strconv.Itoa(pokemonID))
	if err != nil {
		return Wild{}, err
	}

	return Wild{
		PokemonID: pokemonID,
		SpeciesID: speciesID,
		Name:      p.Name,
		Level:     s.EstimateLevel(ctx, pokemonID, speciesID, p.Name),
		Artwork:   p.Artwork(),
	}, nil
}

// Appear registers w as the guild's wild pokémon and starts its cooldown.
// A previous uncaught pokémon flees.
func (s *Spawner) Appear(w Wild) Wild {
	w.SpawnedAt = s.clk.Now()

	s.mu.Lock()
	s.wild[w.GuildID] = w
	s.mu.Unlock()

	s.cooldown.Mark(w.GuildID)
	return w
}

func (s *Spawner) Current(guildID string) (Wild, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wild[guildID]
	return w, ok
}

func normalizeName(name string) string {
	return pokeapi.Slug(name)
}

// Matches accepts a guess contained in the name, or containing it
func Matches(name, guess string) bool {
	n, g := normalizeName(name), normalizeName(guess)
	if n == "" || g == "" {
		return false
	}
	return strings.Contains(n, g) || strings.Contains(g, n)
}

// Return puts back a claimed pokémon unless another one appeared since
func (s *Spawner) Return(w Wild) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wild[w.GuildID]; !ok {
		s.wild[w.GuildID] = w
	}
}

// Claim hands the guild's wild pokémon to the first correct guess. The
// pokémon is removed so a second guess cannot catch it too.
func (s *Spawner) Claim(guildID, guess string) (Wild, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wild[guildID]
	if !ok {
		return Wild{}, ErrNoWild
	}
	if !Matches(w.Name, guess) {
		return Wild{}, ErrWrongGuess
	}
	delete(s.wild, guildID)
	return w, nil
}
