package lfg

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/vogiaan1904/realm-lfg/internal/catalog"
	"github.com/vogiaan1904/realm-lfg/internal/models"
)

type TicketRequest struct {
	// Members lists the party, leader first.
	Members   []string
	Roles     map[string]models.RoleMask
	Dungeons  []uint32
	QueueType models.QueueType

	LfgGroupID string
	Ignores    map[string][]string
}

type MembershipKind uint8

const (
	MemberAdded MembershipKind = iota + 1
	MemberRemoved
	MemberOffline
)

func (k MembershipKind) String() string {
	switch k {
	case MemberAdded:
		return "added"
	case MemberRemoved:
		return "removed"
	case MemberOffline:
		return "offline"
	default:
		return fmt.Sprintf("membership_kind(%d)", uint8(k))
	}
}

type MembershipChange struct {
	Kind   MembershipKind
	Member string
	// Party is the member list after the change. Used to find the ticket
	// when a player joins a queued party.
	Party  []string
	Method models.RemoveMethod
}

func (e *Engine) SubmitTicket(ctx context.Context, req TicketRequest) (string, error) {
	var (
		id  string
		err error
	)
	if doErr := e.do(ctx, func() {
		id, err = e.submit(ctx, req)
	}); doErr != nil {
		return "", doErr
	}
	return id, err
}

func (e *Engine) submit(ctx context.Context, req TicketRequest) (string, error) {
	dungeons, err := e.validate(req)
	if err != nil {
		e.l.Warnf(ctx, "lfg.Engine.SubmitTicket: %v", err)
		return "", err
	}

	for _, m := range req.Members {
		if t := e.store.byMemberID(m); t != nil {
			err := joinError(models.JoinResultFailed, "member %s is already queued", m)
			e.l.Warnf(ctx, "lfg.Engine.SubmitTicket: %v", err)
			return "", err
		}
	}

	now := e.clock.Now()
	t := &models.Ticket{
		ID:         uuid.NewString(),
		Members:    slices.Clone(req.Members),
		Roles:      make(map[string]models.RoleMask, len(req.Members)),
		Dungeons:   dungeons,
		QueueType:  req.QueueType,
		State:      models.TicketStateNone,
		JoinedAt:   now,
		CreatedAt:  now,
		UpdatedAt:  now,
		LfgGroupID: req.LfgGroupID,
	}
	if len(req.Ignores) > 0 {
		t.Ignores = make(map[string][]string, len(req.Ignores))
		for m, ignored := range req.Ignores {
			t.Ignores[m] = slices.Clone(ignored)
		}
	}

	leader := t.Leader()
	t.Roles[leader] = req.Roles[leader]
	e.store.add(t)

	e.l.Infow(ctx, "Ticket submitted",
		"ticket_id", t.ID,
		"members", len(t.Members),
		"queue_type", t.QueueType.String(),
		"dungeons", t.Dungeons,
	)

	if t.IsSolo() {
		e.enqueue(ctx, t, models.LfgUpdate{Type: models.UpdateTypeAddedToQueue})
		return t.ID, nil
	}
	e.startRoleCheck(ctx, t)
	return t.ID, nil
}

// validate checks a submission and returns its dungeon set sorted and
// without duplicates.
func (e *Engine) validate(req TicketRequest) ([]uint32, error) {
	if len(req.Members) == 0 {
		return nil, joinError(models.JoinResultFailed, "no members")
	}
	seen := make(map[string]struct{}, len(req.Members))
	for _, m := range req.Members {
		if m == "" {
			return nil, joinError(models.JoinResultFailed, "empty member id")
		}
		if _, dup := seen[m]; dup {
			return nil, joinError(models.JoinResultFailed, "duplicate member %s", m)
		}
		seen[m] = struct{}{}
	}
	if e.cfg.MaxPartySize > 0 && len(req.Members) > e.cfg.MaxPartySize {
		return nil, joinError(models.JoinResultTooManyMembers, "%d members exceed party limit %d", len(req.Members), e.cfg.MaxPartySize)
	}
	if !req.QueueType.Valid() {
		return nil, joinError(models.JoinResultFailed, "unknown queue type %d", req.QueueType)
	}

	leaderMask := req.Roles[req.Members[0]]
	if !leaderMask.Valid() || !leaderMask.HasCombatRole() {
		return nil, joinError(models.JoinResultNotMeetReqs, "leader %s selected no role", req.Members[0])
	}

	if len(req.Dungeons) == 0 {
		return nil, joinError(models.JoinResultDungeonInvalid, "no dungeons selected")
	}
	dungeons := slices.Clone(req.Dungeons)
	slices.Sort(dungeons)
	dungeons = slices.Compact(dungeons)

	fits := false
	for _, id := range dungeons {
		d, err := e.catalog.Get(id)
		if errors.Is(err, catalog.ErrDungeonNotFound) {
			return nil, joinError(models.JoinResultDungeonInvalid, "unknown dungeon %d", id)
		}
		if err != nil {
			return nil, joinError(models.JoinResultInternalError, "dungeon %d: %v", id, err)
		}
		if d.QueueType != req.QueueType {
			return nil, joinError(models.JoinResultMixedRaidDungeon, "dungeon %d is %s content, ticket is %s", id, d.QueueType, req.QueueType)
		}
		if len(req.Members) <= d.MaxPlayers {
			fits = true
		}
	}
	if !fits {
		return nil, joinError(models.JoinResultTooManyMembers, "%d members do not fit any selected dungeon", len(req.Members))
	}
	return dungeons, nil
}

func (e *Engine) CancelTicket(ctx context.Context, ticketID string) error {
	var err error
	if doErr := e.do(ctx, func() {
		t := e.store.get(ticketID)
		if t == nil {
			err = ErrTicketNotFound
			return
		}
		e.cancel(ctx, t, models.UpdateReason(models.UpdateTypeRemovedFromQueue))
	}); doErr != nil {
		return doErr
	}
	return err
}

// cancel takes a ticket out of whatever it is doing. A ticket inside a
// proposal fails the proposal as if it had declined.
func (e *Engine) cancel(ctx context.Context, t *models.Ticket, reason models.Reason) {
	e.l.Infow(ctx, "Cancelling ticket",
		"ticket_id", t.ID,
		"state", t.State.String(),
		"reason_kind", string(reason.Kind),
		"reason_code", reason.Code,
	)

	switch t.State {
	case models.TicketStateRoleCheck:
		if rc, ok := e.roleChecks[t.ID]; ok {
			e.failRoleCheck(ctx, rc, models.RoleCheckStateAborted)
			return
		}
	case models.TicketStateProposal:
		if run, ok := e.proposals[t.ProposalID]; ok {
			e.failProposal(ctx, run, map[string]models.Reason{t.ID: reason}, models.UpdateTypeProposalDeclined,
				models.UpdateReason(models.UpdateTypeProposalFailed))
			return
		}
	}
	e.removeTicket(ctx, t, models.UpdateTypeRemovedFromQueue, reason)
}

// GetState reports the current state of a ticket. Destroyed tickets are
// reported as None together with ErrTicketNotFound.
func (e *Engine) GetState(ctx context.Context, ticketID string) (models.TicketState, error) {
	t, err := e.GetTicket(ctx, ticketID)
	if err != nil {
		return models.TicketStateNone, err
	}
	return t.State, nil
}

func (e *Engine) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var t *models.Ticket
	if err := e.do(ctx, func() {
		if found := e.store.get(ticketID); found != nil {
			t = found.Clone()
		}
	}); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTicketNotFound
	}
	return t, nil
}

// TicketOfMember returns the queued ticket a member belongs to.
func (e *Engine) TicketOfMember(ctx context.Context, member string) (*models.Ticket, error) {
	var t *models.Ticket
	if err := e.do(ctx, func() {
		if found := e.store.byMemberID(member); found != nil {
			t = found.Clone()
		}
	}); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTicketNotFound
	}
	return t, nil
}

// ListQueue returns the waiting tickets of a queue type by priority. For
// the raid browser this is the listing.
func (e *Engine) ListQueue(ctx context.Context, qt models.QueueType) ([]*models.Ticket, error) {
	var out []*models.Ticket
	err := e.do(ctx, func() {
		for _, t := range e.store.inQueue(qt) {
			out = append(out, t.Clone())
		}
	})
	return out, err
}

// MemberChanged applies a party membership event. A ticket's member set is
// fixed once submitted, so any change cancels the ticket.
func (e *Engine) MemberChanged(ctx context.Context, ch MembershipChange) error {
	return e.do(ctx, func() {
		var (
			t      *models.Ticket
			reason models.Reason
		)
		switch ch.Kind {
		case MemberAdded:
			for _, m := range ch.Party {
				if m == ch.Member {
					continue
				}
				if t = e.store.byMemberID(m); t != nil {
					break
				}
			}
			reason = models.JoinReason(models.JoinResultFailed)
		case MemberRemoved:
			t = e.store.byMemberID(ch.Member)
			reason = models.RemoveReason(ch.Method)
		case MemberOffline:
			t = e.store.byMemberID(ch.Member)
			reason = models.JoinReason(models.JoinResultDisconnected)
		}
		if t == nil {
			e.l.Debugw(ctx, "Membership change for member without ticket",
				"member", ch.Member,
				"kind", ch.Kind.String(),
			)
			return
		}
		e.cancel(ctx, t, reason)
	})
}

// CompleteInstance finishes every ticket bound to an instance and returns
// how many were finished.
func (e *Engine) CompleteInstance(ctx context.Context, instanceRef string) (int, error) {
	n := 0
	err := e.do(ctx, func() {
		for _, t := range e.store.byInstance(instanceRef) {
			e.finishDungeon(ctx, t)
			n++
		}
	})
	return n, err
}

func (e *Engine) CompleteDungeon(ctx context.Context, ticketID string) error {
	var err error
	if doErr := e.do(ctx, func() {
		t := e.store.get(ticketID)
		if t == nil {
			err = ErrTicketNotFound
			return
		}
		if t.State != models.TicketStateDungeon {
			err = fmt.Errorf("ticket %s is %s, not in a dungeon", t.ID, t.State)
			return
		}
		e.finishDungeon(ctx, t)
	}); doErr != nil {
		return doErr
	}
	return err
}

// finishDungeon marks the ticket FinishedDungeon and destroys it.
func (e *Engine) finishDungeon(ctx context.Context, t *models.Ticket) {
	e.store.remove(t.ID)
	e.matcher.forget(t.ID)
	e.transition(ctx, t, models.TicketStateFinishedDungeon, models.LfgUpdate{
		Type:        models.UpdateTypeUpdateStatus,
		InstanceRef: t.InstanceRef,
	})
	e.l.Infow(ctx, "Dungeon finished",
		"ticket_id", t.ID,
		"instance_ref", t.InstanceRef,
	)
}
