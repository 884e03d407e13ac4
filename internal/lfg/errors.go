package lfg

import (
	"errors"
	"fmt"

	"github.com/vogiaan1904/realm-lfg/internal/models"
)

var (
	ErrEngineStopped    = errors.New("lfg engine is not running")
	ErrEngineRunning    = errors.New("lfg engine is already running")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrProposalNotFound = errors.New("proposal not found")
	ErrNotInRoleCheck   = errors.New("ticket is not in role check")
	ErrNotMember        = errors.New("member does not belong to this ticket or proposal")
	ErrInvalidRoles     = errors.New("invalid role selection")
)

// JoinError rejects a submission. The ticket is never created.
type JoinError struct {
	Result models.JoinResult
	Msg    string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join rejected (%d): %s", e.Result, e.Msg)
}

func joinError(r models.JoinResult, format string, args ...any) error {
	return &JoinError{Result: r, Msg: fmt.Sprintf(format, args...)}
}

// JoinResultOf extracts the join result carried by err, if any.
func JoinResultOf(err error) (models.JoinResult, bool) {
	var je *JoinError
	if errors.As(err, &je) {
		return je.Result, true
	}
	return models.JoinResultOK, false
}
