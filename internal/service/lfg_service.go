package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"github.com/vogiaan1904/realm-lfg/internal/events"
	"github.com/vogiaan1904/realm-lfg/internal/lfg"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	repo "github.com/vogiaan1904/realm-lfg/internal/repository/redis"
	"github.com/vogiaan1904/realm-lfg/pkg/clock"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
)

// Engine is the part of the matchmaking engine the service drives.
type Engine interface {
	SubmitTicket(ctx context.Context, req lfg.TicketRequest) (string, error)
	CancelTicket(ctx context.Context, ticketID string) error
	GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error)
	TicketOfMember(ctx context.Context, member string) (*models.Ticket, error)
	ListQueue(ctx context.Context, qt models.QueueType) ([]*models.Ticket, error)
	SubmitRole(ctx context.Context, ticketID, member string, mask models.RoleMask) error
	AnswerProposal(ctx context.Context, proposalID, member string, agree bool) error
	GetProposal(ctx context.Context, proposalID string) (*models.Proposal, error)
	MemberChanged(ctx context.Context, ch lfg.MembershipChange) error
	CompleteInstance(ctx context.Context, instanceRef string) (int, error)
	CompleteDungeon(ctx context.Context, ticketID string) error
	Status() lfg.EngineStatus
}

type LfgService interface {
	SubmitTicket(ctx context.Context, in SubmitTicketInput) (*SubmitTicketOutput, error)
	CancelTicket(ctx context.Context, ticketID string) error
	GetTicketState(ctx context.Context, ticketID string) (*TicketStateOutput, error)
	SubmitRole(ctx context.Context, in SubmitRoleInput) error
	AnswerProposal(ctx context.Context, in AnswerProposalInput) error
	GetProposal(ctx context.Context, proposalID string) (*models.Proposal, error)
	ListQueue(ctx context.Context, qt models.QueueType) ([]QueueEntry, error)
	ValidateEntryToken(ctx context.Context, token string) (*EntryTokenOutput, error)

	HandleMembershipChanged(ctx context.Context, in MembershipChangedInput) error
	HandleDungeonCompleted(ctx context.Context, in DungeonCompletedInput) error

	// Real-time member updates
	StreamUpdates(ctx context.Context, member string, upds chan<- models.LfgUpdate) error

	GetEngineStatus() lfg.EngineStatus
}

type lfgService struct {
	engine   Engine
	hub      *events.Hub
	tokens   TokenService
	mirror   repo.TicketRepository
	clock    clock.Clock
	validate *validator.Validate
	l        logger.Logger
}

// NewLfgService builds the service. mirror may be nil when Redis is
// disabled; queue positions are then computed from the engine.
func NewLfgService(
	engine Engine,
	hub *events.Hub,
	tokens TokenService,
	mirror repo.TicketRepository,
	clk clock.Clock,
	l logger.Logger,
) LfgService {
	if clk == nil {
		clk = clock.Real()
	}
	return &lfgService{
		engine:   engine,
		hub:      hub,
		tokens:   tokens,
		mirror:   mirror,
		clock:    clk,
		validate: validator.New(),
		l:        l,
	}
}

func (s *lfgService) SubmitTicket(ctx context.Context, in SubmitTicketInput) (*SubmitTicketOutput, error) {
	if err := s.validate.Struct(in); err != nil {
		s.l.Warnf(ctx, "service.lfgService.SubmitTicket: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	id, err := s.engine.SubmitTicket(ctx, lfg.TicketRequest{
		Members:    in.Members,
		Roles:      in.Roles,
		Dungeons:   in.Dungeons,
		QueueType:  in.QueueType,
		LfgGroupID: in.LfgGroupID,
		Ignores:    in.Ignores,
	})
	if err != nil {
		return nil, s.mapEngineError(ctx, "SubmitTicket", err)
	}

	t, err := s.engine.GetTicket(ctx, id)
	if err != nil {
		// A solo ticket can be matched and released before we look.
		s.l.Debugf(ctx, "service.lfgService.SubmitTicket: ticket %s: %v", id, err)
		return &SubmitTicketOutput{
			TicketID:  id,
			QueueType: in.QueueType,
			Dungeons:  in.Dungeons,
			QueuedAt:  s.clock.Now(),
		}, nil
	}

	s.l.Infow(ctx, "Ticket accepted",
		"ticket_id", id,
		"leader", t.Leader(),
		"state", t.State.String(),
	)

	return &SubmitTicketOutput{
		TicketID:  t.ID,
		State:     t.State,
		QueueType: t.QueueType,
		Dungeons:  t.Dungeons,
		QueuedAt:  t.JoinedAt,
	}, nil
}

func (s *lfgService) CancelTicket(ctx context.Context, ticketID string) error {
	if ticketID == "" {
		return fmt.Errorf("%w: ticket id is required", ErrInvalidInput)
	}
	if err := s.engine.CancelTicket(ctx, ticketID); err != nil {
		return s.mapEngineError(ctx, "CancelTicket", err)
	}
	s.l.Infow(ctx, "Ticket cancelled", "ticket_id", ticketID)
	return nil
}

func (s *lfgService) GetTicketState(ctx context.Context, ticketID string) (*TicketStateOutput, error) {
	if ticketID == "" {
		return nil, fmt.Errorf("%w: ticket id is required", ErrInvalidInput)
	}

	t, err := s.engine.GetTicket(ctx, ticketID)
	if errors.Is(err, lfg.ErrEngineStopped) && s.mirror != nil {
		return s.mirroredTicketState(ctx, ticketID)
	}
	if err != nil {
		return nil, s.mapEngineError(ctx, "GetTicketState", err)
	}

	out := &TicketStateOutput{
		TicketID:          t.ID,
		State:             t.State,
		StateName:         t.State.String(),
		Members:           t.Members,
		QueueType:         t.QueueType,
		Dungeons:          t.Dungeons,
		ProposalID:        t.ProposalID,
		InstanceRef:       t.InstanceRef,
		QueuedAt:          t.JoinedAt,
		WaitTime:          s.clock.Now().Sub(t.JoinedAt),
		BestCompatibility: t.BestCompatibility,
	}

	if t.State == models.TicketStateQueued || t.State == models.TicketStateRaidBrowser {
		pos, length, err := s.queuePosition(ctx, t)
		if err != nil {
			s.l.Errorf(ctx, "service.lfgService.GetTicketState: %v", err)
		} else {
			out.Position = pos
			out.QueueLength = length
		}
	}

	return out, nil
}

// mirroredTicketState answers from the Redis mirror while the engine is
// not running.
func (s *lfgService) mirroredTicketState(ctx context.Context, ticketID string) (*TicketStateOutput, error) {
	rec, err := s.mirror.GetTicket(ctx, ticketID)
	if err != nil {
		if errors.Is(err, repo.ErrTicketNotFound) {
			return nil, ErrTicketNotFound
		}
		s.l.Errorf(ctx, "service.lfgService.mirroredTicketState: %v", err)
		return nil, ErrEngineNotReady
	}

	out := &TicketStateOutput{
		TicketID:    rec.ID,
		State:       rec.State,
		StateName:   rec.State.String(),
		Members:     rec.Members,
		QueueType:   rec.QueueType,
		Dungeons:    rec.Dungeons,
		ProposalID:  rec.ProposalID,
		InstanceRef: rec.InstanceRef,
		QueuedAt:    rec.QueuedAt,
		WaitTime:    s.clock.Now().Sub(rec.QueuedAt),
	}

	if rec.State == models.TicketStateQueued || rec.State == models.TicketStateRaidBrowser {
		pos, length, err := s.mirror.GetQueuePosition(ctx, rec.QueueType, rec.ID)
		if err != nil {
			s.l.Warnf(ctx, "service.lfgService.mirroredTicketState: %v", err)
		} else if pos > 0 {
			out.Position = pos
			out.QueueLength = length
		}
	}

	return out, nil
}

// queuePosition prefers the Redis mirror and falls back to the engine's
// own queue listing.
func (s *lfgService) queuePosition(ctx context.Context, t *models.Ticket) (int64, int64, error) {
	if s.mirror != nil {
		pos, length, err := s.mirror.GetQueuePosition(ctx, t.QueueType, t.ID)
		if err == nil && pos > 0 {
			return pos, length, nil
		}
		if err != nil {
			s.l.Warnf(ctx, "service.lfgService.queuePosition: mirror: %v", err)
		}
	}

	queue, err := s.engine.ListQueue(ctx, t.QueueType)
	if err != nil {
		return 0, 0, err
	}
	idx := slices.IndexFunc(queue, func(q *models.Ticket) bool { return q.ID == t.ID })
	return int64(idx + 1), int64(len(queue)), nil
}

func (s *lfgService) SubmitRole(ctx context.Context, in SubmitRoleInput) error {
	if err := s.validate.Struct(in); err != nil {
		s.l.Warnf(ctx, "service.lfgService.SubmitRole: %v", err)
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.engine.SubmitRole(ctx, in.TicketID, in.Member, in.Roles); err != nil {
		return s.mapEngineError(ctx, "SubmitRole", err)
	}
	return nil
}

func (s *lfgService) AnswerProposal(ctx context.Context, in AnswerProposalInput) error {
	if err := s.validate.Struct(in); err != nil {
		s.l.Warnf(ctx, "service.lfgService.AnswerProposal: %v", err)
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.engine.AnswerProposal(ctx, in.ProposalID, in.Member, in.Agree); err != nil {
		return s.mapEngineError(ctx, "AnswerProposal", err)
	}
	return nil
}

func (s *lfgService) GetProposal(ctx context.Context, proposalID string) (*models.Proposal, error) {
	p, err := s.engine.GetProposal(ctx, proposalID)
	if err != nil {
		return nil, s.mapEngineError(ctx, "GetProposal", err)
	}
	return p, nil
}

func (s *lfgService) ListQueue(ctx context.Context, qt models.QueueType) ([]QueueEntry, error) {
	if !qt.Valid() {
		return nil, ErrInvalidQueue
	}

	tickets, err := s.engine.ListQueue(ctx, qt)
	if err != nil {
		return nil, s.mapEngineError(ctx, "ListQueue", err)
	}

	now := s.clock.Now()
	out := make([]QueueEntry, 0, len(tickets))
	for i, t := range tickets {
		out = append(out, QueueEntry{
			TicketID: t.ID,
			Members:  t.Members,
			Roles:    t.Roles,
			Dungeons: t.Dungeons,
			State:    t.State,
			Position: int64(i + 1),
			QueuedAt: t.JoinedAt,
			WaitTime: now.Sub(t.JoinedAt),
		})
	}
	return out, nil
}

// ValidateEntryToken checks a token and that its ticket is still headed
// for, or inside, the dungeon it names.
func (s *lfgService) ValidateEntryToken(ctx context.Context, token string) (*EntryTokenOutput, error) {
	claims, err := s.tokens.ParseEntryToken(ctx, token)
	if err != nil {
		return nil, err
	}

	t, err := s.engine.GetTicket(ctx, claims.TicketID)
	if err != nil {
		if errors.Is(err, lfg.ErrTicketNotFound) {
			s.l.Warnf(ctx, "service.lfgService.ValidateEntryToken: ticket %s is gone", claims.TicketID)
			return nil, ErrTokenStale
		}
		return nil, s.mapEngineError(ctx, "ValidateEntryToken", err)
	}

	switch {
	case !t.HasMember(claims.Member):
		return nil, ErrTokenStale
	case t.State == models.TicketStateProposal && t.ProposalID == claims.ProposalID:
	case t.State == models.TicketStateDungeon:
	default:
		s.l.Warnf(ctx, "Entry token presented for ticket %s in state %s", t.ID, t.State)
		return nil, ErrTokenStale
	}

	s.l.Debugf(ctx, "Entry token validated - member: %s, ticket: %s, dungeon: %d",
		claims.Member, claims.TicketID, claims.DungeonID)

	return &EntryTokenOutput{
		Member:      claims.Member,
		TicketID:    claims.TicketID,
		ProposalID:  claims.ProposalID,
		DungeonID:   claims.DungeonID,
		Role:        claims.Role,
		InstanceRef: t.InstanceRef,
		ExpiresAt:   expiryOf(claims),
	}, nil
}

func (s *lfgService) HandleMembershipChanged(ctx context.Context, in MembershipChangedInput) error {
	if err := s.validate.Struct(in); err != nil {
		s.l.Warnf(ctx, "service.lfgService.HandleMembershipChanged: %v", err)
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var kind lfg.MembershipKind
	switch in.Kind {
	case "added":
		kind = lfg.MemberAdded
	case "removed":
		kind = lfg.MemberRemoved
	case "offline":
		kind = lfg.MemberOffline
	}

	if err := s.engine.MemberChanged(ctx, lfg.MembershipChange{
		Kind:   kind,
		Member: in.Member,
		Party:  in.Party,
		Method: in.Method,
	}); err != nil {
		return s.mapEngineError(ctx, "HandleMembershipChanged", err)
	}
	return nil
}

func (s *lfgService) HandleDungeonCompleted(ctx context.Context, in DungeonCompletedInput) error {
	if err := s.validate.Struct(in); err != nil {
		s.l.Warnf(ctx, "service.lfgService.HandleDungeonCompleted: %v", err)
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if in.TicketID != "" {
		if err := s.engine.CompleteDungeon(ctx, in.TicketID); err != nil {
			if errors.Is(err, lfg.ErrTicketNotFound) {
				s.l.Warnf(ctx, "Ticket not found for completed dungeon: %s", in.TicketID)
				return nil
			}
			return s.mapEngineError(ctx, "HandleDungeonCompleted", err)
		}
		return nil
	}

	n, err := s.engine.CompleteInstance(ctx, in.InstanceRef)
	if err != nil {
		return s.mapEngineError(ctx, "HandleDungeonCompleted", err)
	}
	if n == 0 {
		s.l.Warnf(ctx, "No tickets bound to completed instance %s", in.InstanceRef)
	}
	return nil
}

// StreamUpdates sends the member's current ticket state, then every update
// concerning the member until ctx ends.
func (s *lfgService) StreamUpdates(ctx context.Context, member string, upds chan<- models.LfgUpdate) error {
	if member == "" {
		return fmt.Errorf("%w: member is required", ErrInvalidInput)
	}

	ctx = logger.WithFields(ctx, s.l, "member", member)

	// Subscribe before the snapshot so nothing falls between the two.
	sub := s.hub.Subscribe(member)
	defer sub.Close()

	initUpd, found, err := s.memberSnapshot(ctx, member)
	if err != nil {
		return err
	}
	if found {
		select {
		case upds <- initUpd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.l.Info(ctx, "Started streaming member updates")

	for {
		select {
		case <-ctx.Done():
			s.l.Info(ctx, "Update stream closed by context")
			return ctx.Err()
		case u, ok := <-sub.C:
			if !ok {
				return ErrStreamClosed
			}
			select {
			case upds <- u:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// memberSnapshot builds the status update opening a member's stream. The
// Redis mirror stands in while the engine is not running.
func (s *lfgService) memberSnapshot(ctx context.Context, member string) (models.LfgUpdate, bool, error) {
	upd := models.LfgUpdate{
		Type:      models.UpdateTypeUpdateStatus,
		Timestamp: s.clock.Now(),
	}

	t, err := s.engine.TicketOfMember(ctx, member)
	switch {
	case err == nil:
		upd.TicketID = t.ID
		upd.ProposalID = t.ProposalID
		upd.Members = t.Members
		upd.QueueType = t.QueueType
		upd.State = t.State
		upd.PrevState = t.State
		upd.Dungeons = t.Dungeons
		upd.QueuedAt = t.JoinedAt
		return upd, true, nil
	case errors.Is(err, lfg.ErrTicketNotFound):
		return upd, false, nil
	case !errors.Is(err, lfg.ErrEngineStopped) || s.mirror == nil:
		return upd, false, s.mapEngineError(ctx, "StreamUpdates", err)
	}

	ticketID, err := s.mirror.TicketOfMember(ctx, member)
	if err == nil {
		var rec *repo.TicketRecord
		if rec, err = s.mirror.GetTicket(ctx, ticketID); err == nil {
			upd.TicketID = rec.ID
			upd.ProposalID = rec.ProposalID
			upd.Members = rec.Members
			upd.QueueType = rec.QueueType
			upd.State = rec.State
			upd.PrevState = rec.State
			upd.Dungeons = rec.Dungeons
			upd.DungeonID = rec.DungeonID
			upd.InstanceRef = rec.InstanceRef
			upd.QueuedAt = rec.QueuedAt
			return upd, true, nil
		}
	}
	if errors.Is(err, repo.ErrTicketNotFound) {
		return upd, false, nil
	}
	s.l.Errorf(ctx, "service.lfgService.memberSnapshot: %v", err)
	return upd, false, ErrEngineNotReady
}

func (s *lfgService) GetEngineStatus() lfg.EngineStatus {
	return s.engine.Status()
}

// mapEngineError translates engine sentinels into service errors. Join
// rejections pass through so the caller can read the join result.
func (s *lfgService) mapEngineError(ctx context.Context, op string, err error) error {
	var mapped error
	switch {
	case errors.Is(err, lfg.ErrTicketNotFound):
		mapped = ErrTicketNotFound
	case errors.Is(err, lfg.ErrProposalNotFound):
		mapped = ErrProposalNotFound
	case errors.Is(err, lfg.ErrEngineStopped):
		mapped = ErrEngineNotReady
	case errors.Is(err, lfg.ErrNotMember):
		mapped = ErrNotParticipant
	case errors.Is(err, lfg.ErrNotInRoleCheck):
		mapped = ErrWrongTicketStep
	case errors.Is(err, lfg.ErrInvalidRoles):
		mapped = fmt.Errorf("%w: %v", ErrInvalidInput, err)
	default:
		if _, ok := lfg.JoinResultOf(err); ok {
			s.l.Warnf(ctx, "service.lfgService.%s: %v", op, err)
			return err
		}
		s.l.Errorf(ctx, "service.lfgService.%s: %v", op, err)
		return err
	}
	s.l.Warnf(ctx, "service.lfgService.%s: %v", op, err)
	return mapped
}
