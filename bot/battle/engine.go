package battle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// struggleDamage is dealt when no damaging move is available
	struggleDamage = 25
	// maxTurns bounds battles where neither side can hurt the other
	maxTurns = 200
)

var ErrEmptyParty = errors.New("both trainers need a party to battle")

// Dex provides move and type data to the engine
type Dex interface {
	PickMove(ctx context.Context, c *Combatant) (Move, error)
	Multiplier(ctx context.Context, moveType string, defender []string) (float64, error)
}

// Action is one hit of a turn
type Action struct {
	Side       int
	Attacker   string
	Defender   string
	Move       Move
	Damage     int
	Multiplier float64
	Knockout   bool
}

// Turn is handed to the observer after every resolved turn
type Turn struct {
	Number   int
	Actions  []Action
	Active   [2]*Combatant
	Defeated []string
}

type Outcome int

const (
	OutcomeTie Outcome = iota
	OutcomeFirst
	OutcomeSecond
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFirst:
		return "first"
	case OutcomeSecond:
		return "second"
	default:
		return "tie"
	}
}

type Result struct {
	Outcome  Outcome
	Winner   *Side // nil on a tie
	Turns    int
	Defeated []string
}

type Engine struct {
	dex     Dex
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	observe func(Turn)
}

type Option func(*Engine)

// WithDelay sets the pause between two turns
func WithDelay(d time.Duration) Option {
	return func(e *Engine) { e.delay = d }
}

// WithObserver registers a callback run after every turn
func WithObserver(fn func(Turn)) Option {
	return func(e *Engine) { e.observe = fn }
}

func New(dex Dex, opts ...Option) *Engine {
	e := &Engine{
		dex:     dex,
		delay:   1500 * time.Millisecond,
		sleep:   sleepCtx,
		observe: func(Turn) {},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run fights until one side, or both at once, has no creature standing
func (e *Engine) Run(ctx context.Context, first, second *Side) (Result, error) {
	if first.Active() == nil || second.Active() == nil {
		return Result{}, ErrEmptyParty
	}

	sides := [2]*Side{first, second}
	var res Result

	for res.Turns < maxTurns && first.Active() != nil && second.Active() != nil {
		res.Turns++
		turn := Turn{Number: res.Turns}
		active := [2]*Combatant{first.Active(), second.Active()}

		for i := range sides {
			turn.Actions = append(turn.Actions, e.attack(ctx, i, active[i], active[1-i]))
		}

		// both hits land before knock-outs are checked
		for _, a := range turn.Actions {
			active[1-a.Side].Damage(a.Damage)
		}
		for i := range turn.Actions {
			a := &turn.Actions[i]
			def := active[1-a.Side]
			if !def.Alive() {
				a.Knockout = true
				res.Defeated = append(res.Defeated, fmt.Sprintf("%s (%s)", def.Name, sides[1-a.Side].Name))
			}
		}

		turn.Active = [2]*Combatant{first.Active(), second.Active()}
		turn.Defeated = append([]string(nil), res.Defeated...)
		e.observe(turn)

		if first.Active() == nil || second.Active() == nil {
			break
		}
		if err := e.sleep(ctx, e.delay); err != nil {
			return res, err
		}
	}

	res.Outcome = decide(first, second)
	switch res.Outcome {
	case OutcomeFirst:
		res.Winner = first
	case OutcomeSecond:
		res.Winner = second
	}
	return res, nil
}

func (e *Engine) attack(ctx context.Context, side int, attacker, defender *Combatant) Action {
	a := Action{
		Side:       side,
		Attacker:   attacker.Name,
		Defender:   defender.Name,
		Multiplier: 1,
	}

	move, err := e.dex.PickMove(ctx, attacker)
	if err != nil || move.Power <= 0 {
		a.Damage = struggleDamage
		return a
	}
	a.Move = move

	mult, err := e.dex.Multiplier(ctx, move.Type, defender.Types)
	if err == nil {
		a.Multiplier = mult
	}
	a.Damage = int(math.Round(float64(move.Power) * a.Multiplier))
	return a
}

// decide names the side left standing. A battle stopped by the turn cap
// with both sides standing is a tie, whatever their remaining counts.
func decide(first, second *Side) Outcome {
	a, b := first.Remaining(), second.Remaining()
	switch {
	case a > 0 && b == 0:
		return OutcomeFirst
	case b > 0 && a == 0:
		return OutcomeSecond
	default:
		return OutcomeTie
	}
}
