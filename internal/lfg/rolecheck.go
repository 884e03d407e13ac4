package lfg

import (
	"context"
	"fmt"
	"slices"

	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/pkg/clock"
)

type roleCheckRun struct {
	session *models.RoleCheckSession
	ticket  *models.Ticket
	timer   *clock.Timer
}

func (e *Engine) startRoleCheck(ctx context.Context, t *models.Ticket) {
	leader := t.Leader()
	session := &models.RoleCheckSession{
		TicketID: t.ID,
		Leader:   leader,
		Members:  slices.Clone(t.Members),
		Answers:  map[string]models.RoleMask{leader: t.Roles[leader] | models.RoleLeader},
		State:    models.RoleCheckStateInitializing,
		Deadline: e.clock.Now().Add(e.cfg.RoleCheckTimeout),
	}
	rc := &roleCheckRun{session: session, ticket: t}
	e.roleChecks[t.ID] = rc

	e.transition(ctx, t, models.TicketStateRoleCheck, models.LfgUpdate{
		Type:           models.UpdateTypeJoinQueue,
		RoleCheckState: session.State,
		RoleAnswers:    copyRoles(session.Answers),
	})

	rc.timer = e.after(e.cfg.RoleCheckTimeout, func() {
		e.roleCheckExpired(e.ctx, rc)
	})
}

func (e *Engine) SubmitRole(ctx context.Context, ticketID, member string, mask models.RoleMask) error {
	var err error
	if doErr := e.do(ctx, func() {
		err = e.submitRole(ctx, ticketID, member, mask)
	}); doErr != nil {
		return doErr
	}
	return err
}

func (e *Engine) submitRole(ctx context.Context, ticketID, member string, mask models.RoleMask) error {
	rc, ok := e.roleChecks[ticketID]
	if !ok {
		if e.store.get(ticketID) == nil {
			return ErrTicketNotFound
		}
		return ErrNotInRoleCheck
	}
	s := rc.session
	if !slices.Contains(s.Members, member) {
		return ErrNotMember
	}
	if !mask.Valid() {
		return fmt.Errorf("%w: unknown bits in %#x", ErrInvalidRoles, uint8(mask))
	}

	if !mask.HasCombatRole() {
		s.Answers[member] = mask
		e.failRoleCheck(ctx, rc, models.RoleCheckStateNoRole)
		return nil
	}

	if member == s.Leader {
		mask |= models.RoleLeader
	} else {
		mask &^= models.RoleLeader
	}
	s.Answers[member] = mask

	if !s.AllAnswered() {
		e.emit(ctx, models.LfgUpdate{
			Type:           models.UpdateTypeUpdateStatus,
			TicketID:       rc.ticket.ID,
			Members:        slices.Clone(rc.ticket.Members),
			QueueType:      rc.ticket.QueueType,
			State:          rc.ticket.State,
			PrevState:      rc.ticket.State,
			RoleCheckState: s.State,
			RoleAnswers:    copyRoles(s.Answers),
		})
		return nil
	}

	e.resolveRoleCheck(ctx, rc)
	return nil
}

// resolveRoleCheck runs once every member answered: the party is queued
// when its roles fit at least one selected dungeon.
func (e *Engine) resolveRoleCheck(ctx context.Context, rc *roleCheckRun) {
	s, t := rc.session, rc.ticket
	masks := s.Masks()

	fits := false
	for _, id := range t.Dungeons {
		d, err := e.catalog.Get(id)
		if err != nil {
			e.l.Warnf(ctx, "lfg.Engine.resolveRoleCheck: %v", err)
			continue
		}
		if d.RolesAssignable(masks) {
			fits = true
			break
		}
	}
	if !fits {
		e.failRoleCheck(ctx, rc, models.RoleCheckStateWrongRoles)
		return
	}

	rc.timer.Stop()
	delete(e.roleChecks, t.ID)
	s.State = models.RoleCheckStateFinished
	t.Roles = copyRoles(s.Answers)

	e.l.Infow(ctx, "Role check finished", "ticket_id", t.ID)
	e.enqueue(ctx, t, models.LfgUpdate{
		Type:           models.UpdateTypeAddedToQueue,
		RoleCheckState: s.State,
		RoleAnswers:    copyRoles(s.Answers),
	})
}

func (e *Engine) roleCheckExpired(ctx context.Context, rc *roleCheckRun) {
	if e.roleChecks[rc.session.TicketID] != rc {
		return
	}
	e.l.Infow(ctx, "Role check timed out",
		"ticket_id", rc.session.TicketID,
		"missing", rc.session.Missing(),
	)
	e.failRoleCheck(ctx, rc, models.RoleCheckStateMissingRole)
}

// failRoleCheck discards the ticket and reports state to every member.
func (e *Engine) failRoleCheck(ctx context.Context, rc *roleCheckRun, state models.RoleCheckState) {
	rc.timer.Stop()
	delete(e.roleChecks, rc.session.TicketID)
	rc.session.State = state

	typ := models.UpdateTypeRoleCheckFailed
	if state == models.RoleCheckStateAborted {
		typ = models.UpdateTypeRoleCheckAborted
	}

	e.store.remove(rc.ticket.ID)
	e.matcher.forget(rc.ticket.ID)
	e.transition(ctx, rc.ticket, models.TicketStateNone, models.LfgUpdate{
		Type:           typ,
		Reason:         models.RoleCheckReason(state),
		RoleCheckState: state,
		RoleAnswers:    copyRoles(rc.session.Answers),
	})
}

func copyRoles(in map[string]models.RoleMask) map[string]models.RoleMask {
	out := make(map[string]models.RoleMask, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
