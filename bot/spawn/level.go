package spawn

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/vincent-heng/discord-pokebot/bot/db"
)

const (
	maxVariation    = 5
	legendaryMin    = 40
	legendaryMax    = 70
	evolvedFormBase = 20
)

func (s *Spawner) vary(level int) int {
	return db.ClampLevel(level + s.between(0, maxVariation))
}

func average(levels []int) int {
	sum := 0
	for _, l := range levels {
		sum += l
	}
	return int(math.Round(float64(sum) / float64(len(levels))))
}

// EstimateLevel guesses how strong a wild pokémon should be. Encounter data
// wins when the api has some, otherwise rarity and the position in the
// evolution chain decide. Any lookup error leaves the pokémon around level 1.
func (s *Spawner) EstimateLevel(ctx context.Context, pokemonID, speciesID int, name string) int {
	levels := s.encounterLevels(ctx, pokemonID)
	if len(levels) == 0 && speciesID != pokemonID {
		levels = s.encounterLevels(ctx, speciesID)
	}
	if len(levels) > 0 {
		return s.vary(average(levels))
	}

	species, err := s.src.Species(ctx, speciesID)
	if err != nil {
		log.Debug().Err(err).Int("species", speciesID).Msg("spawn: level falls back to 1")
		return s.vary(db.MinLevel)
	}
	if species.IsLegendary || species.IsMythical {
		return s.vary(s.between(legendaryMin, legendaryMax))
	}
	if species.EvolutionChain.URL == "" {
		return s.vary(evolvedFormBase)
	}

	chain, err := s.src.EvolutionChain(ctx, species.EvolutionChain.URL)
	if err != nil {
		log.Debug().Err(err).Int("species", speciesID).Msg("spawn: level falls back to 1")
		return s.vary(db.MinLevel)
	}
	if level, ok := chain.EvolvedAtLevel(name); ok {
		return s.vary(level)
	}
	if chain.Stage(name) >= 3 || !chain.HasFurtherEvolutions(name) {
		return s.vary(evolvedFormBase)
	}
	return s.vary(db.MinLevel)
}

func (s *Spawner) encounterLevels(ctx context.Context, id int) []int {
	enc, err := s.src.Encounters(ctx, id)
	if err != nil {
		return nil
	}
	return enc.Levels()
}
