package service

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrInvalidQueue     = errors.New("unknown queue type")
	ErrStreamClosed     = errors.New("update stream closed")
	ErrEngineNotReady   = errors.New("matchmaking engine is not running")
	ErrNotParticipant   = errors.New("member is not part of this ticket or proposal")
	ErrWrongTicketStep  = errors.New("ticket is not waiting for this action")

	ErrTokenEmpty               = errors.New("entry token is empty")
	ErrTokenInvalid             = errors.New("entry token is invalid")
	ErrTokenUnexpectedSignature = errors.New("unexpected signing method")
	ErrTokenNotValid            = errors.New("entry token is not valid")
	ErrTokenInvalidClaims       = errors.New("entry token has invalid claims")
	ErrTokenExpired             = errors.New("entry token expired")
	ErrTokenStale               = errors.New("entry token no longer matches the ticket")
)
