package db

import "errors"

var (
	ErrCreatureNotFound = errors.New("creature not found")
	ErrCreatureInParty  = errors.New("creature is in the party")
	ErrPartyNotFound    = errors.New("party not found")
	ErrPartySize        = errors.New("a party holds between 1 and 6 slots")
	ErrDuplicateTag     = errors.New("tag listed twice")
	ErrSameOwner        = errors.New("both creatures belong to the same trainer")
	errTagExhausted     = errors.New("cannot generate a free tag")
)
