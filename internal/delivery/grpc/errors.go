package grpc

import (
	"errors"
	"fmt"

	"github.com/vogiaan1904/realm-lfg/internal/lfg"
	"github.com/vogiaan1904/realm-lfg/internal/service"
	pkgErrors "github.com/vogiaan1904/realm-lfg/pkg/errors"
	"google.golang.org/grpc/codes"
)

var (
	errTicketNotFound   = pkgErrors.NewGRPCError("LFG001", codes.NotFound, "Ticket not found")
	errProposalNotFound = pkgErrors.NewGRPCError("LFG002", codes.NotFound, "Proposal not found")
	errInvalidInput     = pkgErrors.NewGRPCError("LFG003", codes.InvalidArgument, "Invalid input")
	errNotParticipant   = pkgErrors.NewGRPCError("LFG004", codes.PermissionDenied, "Member is not part of this ticket or proposal")
	errWrongTicketStep  = pkgErrors.NewGRPCError("LFG005", codes.FailedPrecondition, "Ticket is not waiting for this action")
	errEngineNotReady   = pkgErrors.NewGRPCError("LFG006", codes.Unavailable, "Matchmaking engine is not running")
	errInvalidQueue     = pkgErrors.NewGRPCError("LFG007", codes.InvalidArgument, "Unknown queue type")

	errTokenEmpty   = pkgErrors.NewGRPCError("LFG020", codes.InvalidArgument, "Entry token is empty")
	errTokenInvalid = pkgErrors.NewGRPCError("LFG021", codes.Unauthenticated, "Entry token is invalid")
	errTokenExpired = pkgErrors.NewGRPCError("LFG022", codes.Unauthenticated, "Entry token expired")
	errTokenStale   = pkgErrors.NewGRPCError("LFG023", codes.PermissionDenied, "Entry token no longer matches the ticket")
)

// errJoinRejected carries the join result in the error code, LFG1xx where
// xx is the result value.
func errJoinRejected(je *lfg.JoinError) error {
	return pkgErrors.NewGRPCError(fmt.Sprintf("LFG%d", 100+int(je.Result)), codes.FailedPrecondition, je.Msg)
}

func (s *grpcService) mapGRPCError(err error) error {
	var je *lfg.JoinError
	switch {
	case errors.As(err, &je):
		return errJoinRejected(je)
	case errors.Is(err, service.ErrTicketNotFound):
		return errTicketNotFound
	case errors.Is(err, service.ErrProposalNotFound):
		return errProposalNotFound
	case errors.Is(err, service.ErrInvalidInput):
		return errInvalidInput
	case errors.Is(err, service.ErrNotParticipant):
		return errNotParticipant
	case errors.Is(err, service.ErrWrongTicketStep):
		return errWrongTicketStep
	case errors.Is(err, service.ErrEngineNotReady):
		return errEngineNotReady
	case errors.Is(err, service.ErrInvalidQueue):
		return errInvalidQueue
	case errors.Is(err, service.ErrTokenEmpty):
		return errTokenEmpty
	case errors.Is(err, service.ErrTokenExpired):
		return errTokenExpired
	case errors.Is(err, service.ErrTokenStale):
		return errTokenStale
	case errors.Is(err, service.ErrTokenInvalid),
		errors.Is(err, service.ErrTokenNotValid),
		errors.Is(err, service.ErrTokenInvalidClaims),
		errors.Is(err, service.ErrTokenUnexpectedSignature):
		return errTokenInvalid
	default:
		return err
	}
}
