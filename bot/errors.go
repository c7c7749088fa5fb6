package bot

import "errors"

var (
	errNotGameMaster   = errors.New("you are not the game master")
	errNotManager      = errors.New("you need the manage server permission")
	errGuildOnly       = errors.New("this command only works in a server")
	errIllegalArgument = errors.New("illegal argument")
	errNoSpawnChannel  = errors.New("no spawn channel configured")
	errBotOpponent     = errors.New("bots cannot battle")
	errEmptyParty      = errors.New("empty party")
	errNoEvolution     = errors.New("no eligible evolution")
	errTimeout         = errors.New("interaction timed out")
	errPanic           = errors.New("handler panicked")
)
