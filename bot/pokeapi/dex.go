package pokeapi

import (
	"context"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vincent-heng/discord-pokebot/bot/battle"
)

// moveDenylist holds level-up moves that never deal damage in a single battle
var moveDenylist = map[string]bool{
	"after-you":     true,
	"quash":         true,
	"helping-hand":  true,
	"ally-switch":   true,
	"follow-me":     true,
	"rage-powder":   true,
	"aromatic-mist": true,
	"hold-hands":    true,
	"spotlight":     true,
}

const moveFetchLimit = 4

// Dex serves battle data from the api
type Dex struct {
	client *Client

	mu  sync.Mutex
	rng *rand.Rand
}

func NewDex(client *Client, rng *rand.Rand) *Dex {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Dex{client: client, rng: rng}
}

func (d *Dex) intn(n int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rng.Intn(n)
}

// DamagingMoves lists the moves with power a pokémon knows at level
func (d *Dex) DamagingMoves(ctx context.Context, name string, level int) ([]battle.Move, error) {
	p, err := d.client.Pokemon(ctx, name)
	if err != nil {
		return nil, err
	}

	var candidates []NamedResource
	for _, m := range p.LevelUpMoves(level) {
		if !moveDenylist[m.Name] {
			candidates = append(candidates, m)
		}
	}

	found := make([]*battle.Move, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(moveFetchLimit)
	for i, m := range candidates {
		i, m := i, m
		g.Go(func() error {
			move, err := d.client.Move(gctx, m.URL)
			if err != nil {
				// a single unreachable move only shrinks the pool
				return nil
			}
			if move.Power != nil && *move.Power > 0 {
				found[i] = &battle.Move{Name: move.Name, Type: move.Type.Name, Power: *move.Power}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []battle.Move
	for _, m := range found {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

// PickMove draws a random damaging move, the zero Move when none exists
func (d *Dex) PickMove(ctx context.Context, c *battle.Combatant) (battle.Move, error) {
	moves, err := d.DamagingMoves(ctx, c.Name, c.Level)
	if err != nil || len(moves) == 0 {
		return battle.Move{}, err
	}
	return moves[d.intn(len(moves))], nil
}

func (d *Dex) Multiplier(ctx context.Context, moveType string, defender []string) (float64, error) {
	t, err := d.client.Type(ctx, moveType)
	if err != nil {
		return 1, err
	}
	return t.Multiplier(defender), nil
}

// Combatant builds a battle combatant, falling back to a 10 hp base stat and
// no type when the api cannot be reached.
func (d *Dex) Combatant(ctx context.Context, tag, name string, speciesID, level int) *battle.Combatant {
	p, err := d.client.Pokemon(ctx, name)
	if err != nil {
		return battle.NewCombatant(tag, name, speciesID, level, defaultBaseHP, nil)
	}
	c := battle.NewCombatant(tag, name, speciesID, level, p.BaseHP(), p.TypeNames())
	c.Artwork = p.Artwork()
	return c
}
