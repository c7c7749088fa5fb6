package session

import "errors"

var (
	ErrBusy           = errors.New("already busy with a trade or a battle")
	ErrUnknownSession = errors.New("unknown session")
	ErrClosed         = errors.New("subscription closed")
)
