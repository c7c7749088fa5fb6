package market

import "errors"

var (
	ErrBadAmount    = errors.New("the amount must be positive")
	ErrBadCurrency  = errors.New("the currency codes must be three letters long")
	ErrUnknownRate  = errors.New("the conversion rate for these currencies is not available")
	ErrUpstream     = errors.New("the price service did not answer")
	ErrPriceMissing = errors.New("the token price could not be found on the page")
)
