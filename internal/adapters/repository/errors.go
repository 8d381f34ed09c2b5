package repository

import "errors"

// Sentinel kinds for leaderboard errors.
var (
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrDuplicate     = errors.New("duplicate submission")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrClosed        = errors.New("store closed")
)
