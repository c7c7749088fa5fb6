// Package battle simulates turn based fights between two parties.
package battle

import "math"

type Move struct {
	Name  string
	Type  string
	Power int
}

// Combatant is a creature taking part in a battle
type Combatant struct {
	Tag       string
	Name      string
	SpeciesID int
	Level     int
	Types     []string
	Artwork   string
	MaxHP     int
	HP        int
}

// MaxHP derives battle hit points from the hp base stat
func MaxHP(baseHP, level int) int {
	return int(math.Round(float64(baseHP*2)*float64(level)/100 + float64(level) + 10))
}

func NewCombatant(tag, name string, speciesID, level, baseHP int, types []string) *Combatant {
	hp := MaxHP(baseHP, level)
	return &Combatant{
		Tag:       tag,
		Name:      name,
		SpeciesID: speciesID,
		Level:     level,
		Types:     types,
		MaxHP:     hp,
		HP:        hp,
	}
}

func (c *Combatant) Alive() bool { return c.HP > 0 }

func (c *Combatant) Damage(n int) {
	c.HP -= n
	if c.HP < 0 {
		c.HP = 0
	}
}

// Side is one trainer and the party fighting for them
type Side struct {
	OwnerID string
	Name    string
	Party   []*Combatant
}

// Active is the first creature still standing, nil when none is
func (s *Side) Active() *Combatant {
	for _, c := range s.Party {
		if c.Alive() {
			return c
		}
	}
	return nil
}

func (s *Side) Remaining() int {
	n := 0
	for _, c := range s.Party {
		if c.Alive() {
			n++
		}
	}
	return n
}
