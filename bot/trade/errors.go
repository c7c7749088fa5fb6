package trade

import "errors"

var (
	ErrNoOffer    = errors.New("there is no trade offer to answer")
	ErrOfferOpen  = errors.New("you already have an open trade offer")
	ErrSelfTrade  = errors.New("you cannot trade with yourself")
	ErrDealClosed = errors.New("this trade is already over")
)
