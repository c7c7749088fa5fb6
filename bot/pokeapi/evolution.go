package pokeapi

import "strings"

// defaultEvolutionLevel is used for evolutions not driven by a level
const defaultEvolutionLevel = 20

type EvolutionDetail struct {
	MinLevel *int           `json:"min_level"`
	Trigger  NamedResource  `json:"trigger"`
	Item     *NamedResource `json:"item"`
}

type ChainLink struct {
	Species          NamedResource     `json:"species"`
	EvolutionDetails []EvolutionDetail `json:"evolution_details"`
	EvolvesTo        []ChainLink       `json:"evolves_to"`
}

type EvolutionChain struct {
	ID    int       `json:"id"`
	Chain ChainLink `json:"chain"`
}

// Evolution is a species a creature can become
type Evolution struct {
	Name       string
	SpeciesURL string
}

func (l *ChainLink) walk(match func(species string) bool, depth int) (*ChainLink, int) {
	if match(l.Species.Name) {
		return l, depth
	}
	for i := range l.EvolvesTo {
		if found, d := l.EvolvesTo[i].walk(match, depth+1); found != nil {
			return found, d
		}
	}
	return nil, 0
}

// find looks name up by exact species first, then accepts regional forms
// ("vulpix-alola") for their species.
func (l *ChainLink) find(name string, depth int) (*ChainLink, int) {
	name = Slug(name)
	if found, d := l.walk(func(species string) bool { return species == name }, depth); found != nil {
		return found, d
	}
	return l.walk(func(species string) bool { return strings.HasPrefix(name, species+"-") }, depth)
}

// Stage is the 1-based position of name in the chain, 0 if absent
func (ch EvolutionChain) Stage(name string) int {
	_, depth := ch.Chain.find(name, 1)
	return depth
}

func (ch EvolutionChain) HasFurtherEvolutions(name string) bool {
	link, _ := ch.Chain.find(name, 1)
	return link != nil && len(link.EvolvesTo) > 0
}

// EvolvedAtLevel is the level at which name is reached from its previous
// stage, false for the first stage of a chain.
func (ch EvolutionChain) EvolvedAtLevel(name string) (int, bool) {
	link, depth := ch.Chain.find(name, 1)
	if link == nil || depth < 2 {
		return 0, false
	}
	if len(link.EvolutionDetails) > 0 {
		d := link.EvolutionDetails[0]
		if d.Trigger.Name == "level-up" && d.MinLevel != nil && *d.MinLevel > 0 {
			return *d.MinLevel, true
		}
	}
	return defaultEvolutionLevel, true
}

func eligible(details []EvolutionDetail, level int) bool {
	for _, d := range details {
		switch d.Trigger.Name {
		case "level-up":
			if d.MinLevel == nil || level >= *d.MinLevel {
				return true
			}
		case "use-item", "trade":
			if level >= defaultEvolutionLevel {
				return true
			}
		}
	}
	return false
}

// EligibleEvolutions lists the direct evolutions of name reachable at level
func (ch EvolutionChain) EligibleEvolutions(name string, level int) []Evolution {
	link, _ := ch.Chain.find(name, 1)
	if link == nil {
		return nil
	}
	var out []Evolution
	for _, next := range link.EvolvesTo {
		if eligible(next.EvolutionDetails, level) {
			out = append(out, Evolution{Name: next.Species.Name, SpeciesURL: next.Species.URL})
		}
	}
	return out
}
