package pokeapi

import "strings"

type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Pokemon struct {
	ID      int           `json:"id"`
	Name    string        `json:"name"`
	Species NamedResource `json:"species"`
	Stats   []struct {
		BaseStat int           `json:"base_stat"`
		Stat     NamedResource `json:"stat"`
	} `json:"stats"`
	Types []struct {
		Slot int           `json:"slot"`
		Type NamedResource `json:"type"`
	} `json:"types"`
	Moves []struct {
		Move                NamedResource `json:"move"`
		VersionGroupDetails []struct {
			LevelLearnedAt  int           `json:"level_learned_at"`
			MoveLearnMethod NamedResource `json:"move_learn_method"`
		} `json:"version_group_details"`
	} `json:"moves"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
		Other        struct {
			OfficialArtwork struct {
				FrontDefault string `json:"front_default"`
			} `json:"official-artwork"`
		} `json:"other"`
	} `json:"sprites"`
}

const defaultBaseHP = 10

// BaseHP is the hp base stat, 10 when the api does not list it
func (p Pokemon) BaseHP() int {
	for _, s := range p.Stats {
		if s.Stat.Name == "hp" {
			return s.BaseStat
		}
	}
	if len(p.Stats) > 0 && p.Stats[0].BaseStat > 0 {
		return p.Stats[0].BaseStat
	}
	return defaultBaseHP
}

func (p Pokemon) TypeNames() []string {
	out := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		out = append(out, t.Type.Name)
	}
	return out
}

// Artwork prefers the official artwork over the game sprite
func (p Pokemon) Artwork() string {
	if a := p.Sprites.Other.OfficialArtwork.FrontDefault; a != "" {
		return a
	}
	return p.Sprites.FrontDefault
}

// LevelUpMoves lists the moves learnt by leveling up at or below level
func (p Pokemon) LevelUpMoves(level int) []NamedResource {
	var out []NamedResource
	for _, m := range p.Moves {
		for _, vg := range m.VersionGroupDetails {
			if vg.MoveLearnMethod.Name == "level-up" && vg.LevelLearnedAt <= level {
				out = append(out, m.Move)
				break
			}
		}
	}
	return out
}

// compact keeps, for every move learnt by leveling up, only its lowest
// level-up entry and drops the other moves.
func (p *Pokemon) compact() {
	moves := p.Moves[:0:0]
	for _, m := range p.Moves {
		best := -1
		for i, vg := range m.VersionGroupDetails {
			if vg.MoveLearnMethod.Name != "level-up" {
				continue
			}
			if best < 0 || vg.LevelLearnedAt < m.VersionGroupDetails[best].LevelLearnedAt {
				best = i
			}
		}
		if best < 0 {
			continue
		}
		m.VersionGroupDetails = append(m.VersionGroupDetails[:0:0], m.VersionGroupDetails[best])
		moves = append(moves, m)
	}
	p.Moves = moves
}

type Species struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	IsLegendary    bool          `json:"is_legendary"`
	IsMythical     bool          `json:"is_mythical"`
	EvolutionChain NamedResource `json:"evolution_chain"`
	Varieties      []struct {
		IsDefault bool          `json:"is_default"`
		Pokemon   NamedResource `json:"pokemon"`
	} `json:"varieties"`
}

var regionalSuffixes = []string{"-alola", "-galar", "-hisui", "-paldea"}

func allowedVariety(name string) bool {
	if !strings.Contains(name, "-") {
		return true
	}
	for _, suffix := range regionalSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// AllowedVarieties returns the pokémon ids a spawn of this species may use:
// plain forms and regional forms. Megas, gigantamax and the like are left out.
func (s Species) AllowedVarieties() []int {
	var out []int
	for _, v := range s.Varieties {
		if len(s.Varieties) > 1 && !allowedVariety(v.Pokemon.Name) {
			continue
		}
		if id, ok := IDFromURL(v.Pokemon.URL); ok {
			out = append(out, id)
		}
	}
	return out
}

// Variety picks the form a creature named current becomes when it evolves
// into this species: the matching regional form if there is one, the
// default form otherwise.
func (s Species) Variety(current string) NamedResource {
	current = Slug(current)
	def := NamedResource{Name: s.Name}
	for _, v := range s.Varieties {
		if v.IsDefault {
			def = v.Pokemon
		}
	}
	for _, suffix := range regionalSuffixes {
		if !strings.HasSuffix(current, suffix) {
			continue
		}
		for _, v := range s.Varieties {
			if v.Pokemon.Name == s.Name+suffix {
				return v.Pokemon
			}
		}
	}
	return def
}

type Encounters []struct {
	VersionDetails []struct {
		EncounterDetails []struct {
			MinLevel int `json:"min_level"`
			MaxLevel int `json:"max_level"`
		} `json:"encounter_details"`
	} `json:"version_details"`
}

// Levels flattens every min and max encounter level
func (e Encounters) Levels() []int {
	var out []int
	for _, loc := range e {
		for _, v := range loc.VersionDetails {
			for _, d := range v.EncounterDetails {
				out = append(out, d.MinLevel, d.MaxLevel)
			}
		}
	}
	return out
}

type Move struct {
	Name  string        `json:"name"`
	Power *int          `json:"power"`
	Type  NamedResource `json:"type"`
}

type Type struct {
	Name            string `json:"name"`
	DamageRelations struct {
		DoubleDamageTo []NamedResource `json:"double_damage_to"`
		HalfDamageTo   []NamedResource `json:"half_damage_to"`
		NoDamageTo     []NamedResource `json:"no_damage_to"`
	} `json:"damage_relations"`
}

func hitsAny(relation []NamedResource, defender []string) bool {
	for _, r := range relation {
		for _, d := range defender {
			if r.Name == d {
				return true
			}
		}
	}
	return false
}

// Multiplier is the strongest damage relation of t against any of the
// defender types, 1 when none applies.
func (t Type) Multiplier(defender []string) float64 {
	best, found := 0.0, false
	for _, rel := range []struct {
		list []NamedResource
		mult float64
	}{
		{t.DamageRelations.DoubleDamageTo, 2},
		{t.DamageRelations.HalfDamageTo, 0.5},
		{t.DamageRelations.NoDamageTo, 0},
	} {
		if hitsAny(rel.list, defender) && (!found || rel.mult > best) {
			best, found = rel.mult, true
		}
	}
	if !found {
		return 1
	}
	return best
}
