package domain

import "errors"

var (
	ErrPollNotFound      = errors.New("poll not found")
	ErrPollClosed        = errors.New("poll is not open for voting")
	ErrInvalidChoice     = errors.New("invalid choice for this poll")
	ErrMissingToken      = errors.New("voter token is required")
	ErrAlreadyVoted      = errors.New("token has already voted")
	ErrNotAuthorized     = errors.New("token is not authorized for this poll")
	ErrPollStillOpen     = errors.New("poll is still open")
	ErrAlreadyFinalized  = errors.New("poll already finalized")
	ErrResultNotFound    = errors.New("poll result not found")
	ErrPollNotRestricted = errors.New("poll is not in restricted mode")
)
