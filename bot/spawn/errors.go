package spawn

import "errors"

var (
	ErrNoWild     = errors.New("there is no wild pokémon to catch")
	ErrWrongGuess = errors.New("that is not the correct pokémon name")
)
