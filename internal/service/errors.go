package service

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrOutcomeLocked    = errors.New("outcome locked: bets already settled against it")
	ErrRatingNotFound   = errors.New("rating not found")
	ErrRatingInactive   = errors.New("rating inactive")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrMarketInactive   = errors.New("market inactive")
	ErrMarketNotOpen    = errors.New("market not opened yet, please wait")
	ErrMarketClosed     = errors.New("market has been closed")
	ErrFeatureDisabled  = errors.New("feature disabled")
)
