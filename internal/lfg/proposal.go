package lfg

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/vogiaan1904/realm-lfg/internal/catalog"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/pkg/clock"
)

type bindPhase uint8

const (
	phaseVoting bindPhase = iota
	phaseBind
	phaseBindRetryWait
	phaseTeleport
	phaseTeleportRetryWait
)

type proposalRun struct {
	p       *models.Proposal
	tickets []*models.Ticket
	roster  []models.RosterEntry

	phase bindPhase
	// seq identifies the binder call in flight; results carrying an older
	// seq are stale.
	seq        int
	deadline   *clock.Timer
	bindTimer  *clock.Timer
	retryTimer *clock.Timer
	callCancel context.CancelFunc

	teleportMembers []string
}

func (r *proposalRun) stopTimers() {
	r.deadline.Stop()
	r.bindTimer.Stop()
	r.retryTimer.Stop()
	if r.callCancel != nil {
		r.callCancel()
		r.callCancel = nil
	}
}

func (r *proposalRun) ticketOf(member string) *models.Ticket {
	for _, t := range r.tickets {
		if t.HasMember(member) {
			return t
		}
	}
	return nil
}

// createProposal reserves every ticket of a matched group and opens the
// vote. A ticket that is already reserved is an invariant breach: the
// other proposal is aborted and nothing new is opened.
func (e *Engine) createProposal(ctx context.Context, d catalog.Dungeon, group []*models.Ticket) {
	for _, t := range group {
		if !t.IsReserved() {
			continue
		}
		e.count(func(s *EngineStatus) { s.InvariantErrors++ })
		e.l.Errorw(ctx, "lfg.Engine.createProposal: ticket already reserved by another proposal",
			"ticket_id", t.ID,
			"proposal_id", t.ProposalID,
			"dungeon_id", d.ID,
		)
		if other, ok := e.proposals[t.ProposalID]; ok {
			e.failProposal(ctx, other, nil, models.UpdateTypeProposalFailed,
				models.JoinReason(models.JoinResultInternalError))
		}
		return
	}

	masks := groupMasks(group)
	assigned, ok := d.Assign(masks)
	if !ok {
		e.l.Errorw(ctx, "lfg.Engine.createProposal: roles not assignable for matched group", "dungeon_id", d.ID)
		return
	}

	now := e.clock.Now()
	p := &models.Proposal{
		ID:        uuid.NewString(),
		DungeonID: d.ID,
		Answers:   make(map[string]models.ProposalAnswer),
		Roles:     make(map[string]models.RoleMask),
		State:     models.ProposalStateInitiating,
		Deadline:  now.Add(e.cfg.ProposalTimeout),
		CreatedAt: now,
	}
	run := &proposalRun{p: p, tickets: slices.Clone(group)}

	i := 0
	for _, t := range group {
		p.TicketIDs = append(p.TicketIDs, t.ID)
		for _, m := range t.Members {
			p.Members = append(p.Members, m)
			p.Answers[m] = models.ProposalAnswerPending
			p.Roles[m] = assigned[i]
			run.roster = append(run.roster, models.RosterEntry{Member: m, TicketID: t.ID, Role: assigned[i]})
			i++
		}
	}
	p.Leader = electLeader(group)
	for i := range run.roster {
		run.roster[i].Leader = run.roster[i].Member == p.Leader
	}

	e.proposals[p.ID] = run
	for _, t := range group {
		t.ProposalID = p.ID
		e.matcher.forget(t.ID)
	}
	e.count(func(s *EngineStatus) { s.TotalProposals++ })

	e.l.Infow(ctx, "Proposal created",
		"proposal_id", p.ID,
		"dungeon_id", d.ID,
		"tickets", len(group),
		"members", len(p.Members),
		"leader", p.Leader,
	)

	for _, t := range group {
		e.transition(ctx, t, models.TicketStateProposal, models.LfgUpdate{
			Type:       models.UpdateTypeProposalBegin,
			ProposalID: p.ID,
			DungeonID:  d.ID,
			Roster:     slices.Clone(run.roster),
			Answers:    p.AnswerSnapshot(),
		})
	}

	run.deadline = e.after(e.cfg.ProposalTimeout, func() {
		e.proposalExpired(e.ctx, run)
	})
}

// electLeader picks the first member flagged Leader, otherwise the first
// member of the oldest ticket.
func electLeader(group []*models.Ticket) string {
	for _, t := range group {
		for _, m := range t.Members {
			if t.Roles[m].IsLeader() {
				return m
			}
		}
	}
	oldest := slices.MinFunc(group, comparePriority)
	return oldest.Leader()
}

func (e *Engine) AnswerProposal(ctx context.Context, proposalID, member string, agree bool) error {
	var err error
	if doErr := e.do(ctx, func() {
		err = e.answer(ctx, proposalID, member, agree)
	}); doErr != nil {
		return doErr
	}
	return err
}

// answer records a member's vote. Votes are write-once; repeats and votes
// arriving after the vote closed are ignored.
func (e *Engine) answer(ctx context.Context, proposalID, member string, agree bool) error {
	run, ok := e.proposals[proposalID]
	if !ok {
		return ErrProposalNotFound
	}
	p := run.p
	if !p.HasMember(member) {
		return ErrNotMember
	}
	if run.phase != phaseVoting || p.Answers[member] != models.ProposalAnswerPending {
		e.l.Debugw(ctx, "Ignoring repeated proposal answer",
			"proposal_id", proposalID,
			"member", member,
		)
		return nil
	}

	if !agree {
		p.Answers[member] = models.ProposalAnswerDeny
		t := run.ticketOf(member)
		e.l.Infow(ctx, "Proposal declined",
			"proposal_id", p.ID,
			"member", member,
			"ticket_id", t.ID,
		)
		e.failProposal(ctx, run,
			map[string]models.Reason{t.ID: models.UpdateReason(models.UpdateTypeProposalDeclined)},
			models.UpdateTypeProposalDeclined,
			models.UpdateReason(models.UpdateTypeProposalFailed))
		return nil
	}

	p.Answers[member] = models.ProposalAnswerAgree
	e.emit(ctx, models.LfgUpdate{
		Type:       models.UpdateTypeUpdateStatus,
		ProposalID: p.ID,
		Members:    slices.Clone(p.Members),
		State:      models.TicketStateProposal,
		PrevState:  models.TicketStateProposal,
		DungeonID:  p.DungeonID,
		Answers:    p.AnswerSnapshot(),
	})

	if p.AllAgreed() {
		e.beginBind(ctx, run)
	}
	return nil
}

func (e *Engine) GetProposal(ctx context.Context, proposalID string) (*models.Proposal, error) {
	var p *models.Proposal
	if err := e.do(ctx, func() {
		if run, ok := e.proposals[proposalID]; ok {
			c := *run.p
			c.TicketIDs = slices.Clone(run.p.TicketIDs)
			c.Members = slices.Clone(run.p.Members)
			c.Answers = run.p.AnswerSnapshot()
			c.Roles = copyRoles(run.p.Roles)
			c.EntryTokens = nil
			c.TeleportRetried = nil
			p = &c
		}
	}); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProposalNotFound
	}
	return p, nil
}

func (e *Engine) proposalExpired(ctx context.Context, run *proposalRun) {
	if e.proposals[run.p.ID] != run || run.phase != phaseVoting {
		return
	}

	culprits := make(map[string]models.Reason)
	for _, m := range run.p.Pending() {
		if t := run.ticketOf(m); t != nil {
			culprits[t.ID] = models.UpdateReason(models.UpdateTypeProposalFailed)
		}
	}
	e.l.Infow(ctx, "Proposal timed out",
		"proposal_id", run.p.ID,
		"pending", run.p.Pending(),
	)
	e.failProposal(ctx, run, culprits, models.UpdateTypeProposalFailed,
		models.UpdateReason(models.UpdateTypeProposalFailed))
}

// failProposal closes a proposal. Culprit tickets are discarded whole with
// their reason; every other ticket goes back to Queued with its original
// join time.
func (e *Engine) failProposal(
	ctx context.Context,
	run *proposalRun,
	culprits map[string]models.Reason,
	culpritType models.UpdateType,
	releaseReason models.Reason,
) {
	run.stopTimers()
	run.p.State = models.ProposalStateFailed
	delete(e.proposals, run.p.ID)
	e.count(func(s *EngineStatus) { s.FailedProposals++ })

	e.l.Infow(ctx, "Proposal failed",
		"proposal_id", run.p.ID,
		"culprits", len(culprits),
	)

	for _, t := range run.tickets {
		if e.store.get(t.ID) != t || t.ProposalID != run.p.ID {
			continue
		}
		t.ProposalID = ""

		if reason, ok := culprits[t.ID]; ok {
			e.removeTicket(ctx, t, culpritType, reason)
			continue
		}
		e.transition(ctx, t, models.TicketStateQueued, models.LfgUpdate{
			Type:       models.UpdateTypeProposalFailed,
			ProposalID: run.p.ID,
			DungeonID:  run.p.DungeonID,
			Reason:     releaseReason,
			Answers:    run.p.AnswerSnapshot(),
		})
		e.store.markFresh(t.ID)
	}
}

// beginBind issues entry tokens and hands the group to the binder.
func (e *Engine) beginBind(ctx context.Context, run *proposalRun) {
	p := run.p
	run.deadline.Stop()
	p.State = models.ProposalStateSuccess
	p.Binding = true
	p.EntryTokens = make(map[string]string, len(p.Members))
	p.TeleportRetried = make(map[string]bool)

	for _, entry := range run.roster {
		tok, err := e.tokens.IssueEntryToken(EntryClaims{
			Member:     entry.Member,
			TicketID:   entry.TicketID,
			ProposalID: p.ID,
			DungeonID:  p.DungeonID,
			Role:       entry.Role,
		})
		if err != nil {
			e.l.Errorf(ctx, "lfg.Engine.beginBind: %v", err)
			e.failProposal(ctx, run, nil, models.UpdateTypeProposalFailed,
				models.JoinReason(models.JoinResultInternalError))
			return
		}
		p.EntryTokens[entry.Member] = tok
	}

	e.l.Infow(ctx, "Proposal accepted, binding instance",
		"proposal_id", p.ID,
		"dungeon_id", p.DungeonID,
	)
	e.startBind(run, 1)
}

func (e *Engine) startBind(run *proposalRun, attempt int) {
	p := run.p
	p.BindAttempt = attempt
	run.phase = phaseBind
	run.seq++
	seq := run.seq

	req := BindRequest{
		ProposalID: p.ID,
		DungeonID:  p.DungeonID,
		Leader:     p.Leader,
		Roster:     slices.Clone(run.roster),
		Attempt:    attempt,
	}

	callCtx, cancel := context.WithCancel(e.ctx)
	run.callCancel = cancel
	run.bindTimer = e.after(e.cfg.BindTimeout, func() {
		e.bindTimedOut(e.ctx, run, seq)
	})

	go func() {
		res, err := e.binder.Bind(callCtx, req)
		e.post(func() {
			e.bindDone(e.ctx, run, seq, res, err)
		})
	}()
}

func (e *Engine) current(run *proposalRun, seq int) bool {
	return e.proposals[run.p.ID] == run && run.seq == seq
}

func (e *Engine) bindTimedOut(ctx context.Context, run *proposalRun, seq int) {
	if !e.current(run, seq) {
		return
	}
	e.l.Warnw(ctx, "Binder call timed out",
		"proposal_id", run.p.ID,
		"phase", int(run.phase),
	)
	if run.callCancel != nil {
		run.callCancel()
		run.callCancel = nil
	}
	switch run.phase {
	case phaseBind:
		e.bindFailed(ctx, run)
	case phaseTeleport:
		failed := make(map[string]models.TeleportResult, len(run.teleportMembers))
		for _, m := range run.teleportMembers {
			failed[m] = models.TeleportResultNone
		}
		e.teleportFailed(ctx, run, failed)
	}
}

func (e *Engine) bindDone(ctx context.Context, run *proposalRun, seq int, res BindResult, err error) {
	if !e.current(run, seq) || run.phase != phaseBind {
		return
	}
	run.bindTimer.Stop()
	run.callCancel()
	run.callCancel = nil

	if err != nil {
		e.l.Warnf(ctx, "lfg.Engine.bindDone: %v", err)
		e.bindFailed(ctx, run)
		return
	}

	run.p.InstanceRef = res.InstanceRef
	failed := make(map[string]models.TeleportResult)
	for m, r := range res.Teleports {
		if !r.OK() && run.p.HasMember(m) {
			failed[m] = r
		}
	}
	if len(failed) == 0 {
		e.completeProposal(ctx, run)
		return
	}
	e.teleportFailed(ctx, run, failed)
}

// bindFailed retries a failed bind once, then gives up without blaming
// anyone.
func (e *Engine) bindFailed(ctx context.Context, run *proposalRun) {
	defer e.count(func(s *EngineStatus) { s.BindFailures++ })
	if run.p.BindAttempt >= 2 {
		e.failProposal(ctx, run, nil, models.UpdateTypeProposalFailed,
			models.PartyReason(models.PartyResultLfgTeleportInCombat))
		return
	}

	run.phase = phaseBindRetryWait
	run.seq++
	seq := run.seq
	run.retryTimer = e.after(e.cfg.BindRetryDelay, func() {
		if e.current(run, seq) {
			e.startBind(run, run.p.BindAttempt+1)
		}
	})
}

// teleportFailed retries members that have not been retried yet; members
// that fail their retry are the culprits.
func (e *Engine) teleportFailed(ctx context.Context, run *proposalRun, failed map[string]models.TeleportResult) {
	var retry []string
	culprits := make(map[string]models.Reason)
	for _, m := range run.p.Members {
		r, ok := failed[m]
		if !ok {
			continue
		}
		if !run.p.TeleportRetried[m] {
			retry = append(retry, m)
			continue
		}
		if t := run.ticketOf(m); t != nil {
			culprits[t.ID] = models.PartyReason(models.PartyResultLfgTeleportInCombat)
		}
		e.l.Infow(ctx, "Teleport failed after retry",
			"proposal_id", run.p.ID,
			"member", m,
			"result", int(r),
		)
	}

	if len(culprits) > 0 {
		e.failProposal(ctx, run, culprits, models.UpdateTypeProposalFailed,
			models.PartyReason(models.PartyResultLfgTeleportInCombat))
		return
	}

	for _, m := range retry {
		run.p.TeleportRetried[m] = true
	}

	run.phase = phaseTeleportRetryWait
	run.seq++
	seq := run.seq
	run.retryTimer = e.after(e.cfg.BindRetryDelay, func() {
		if e.current(run, seq) {
			e.startTeleport(run, retry)
		}
	})
	e.count(func(s *EngineStatus) { s.TeleportRetries++ })
}

func (e *Engine) startTeleport(run *proposalRun, members []string) {
	run.phase = phaseTeleport
	run.teleportMembers = members
	run.seq++
	seq := run.seq

	req := TeleportRequest{
		ProposalID:  run.p.ID,
		InstanceRef: run.p.InstanceRef,
		DungeonID:   run.p.DungeonID,
		Members:     slices.Clone(members),
	}

	callCtx, cancel := context.WithCancel(e.ctx)
	run.callCancel = cancel
	run.bindTimer = e.after(e.cfg.BindTimeout, func() {
		e.bindTimedOut(e.ctx, run, seq)
	})

	go func() {
		res, err := e.binder.Teleport(callCtx, req)
		e.post(func() {
			e.teleportDone(e.ctx, run, seq, res, err)
		})
	}()
}

func (e *Engine) teleportDone(ctx context.Context, run *proposalRun, seq int, res map[string]models.TeleportResult, err error) {
	if !e.current(run, seq) || run.phase != phaseTeleport {
		return
	}
	run.bindTimer.Stop()
	run.callCancel()
	run.callCancel = nil

	failed := make(map[string]models.TeleportResult)
	for _, m := range run.teleportMembers {
		if err != nil {
			failed[m] = models.TeleportResultNone
			continue
		}
		if r := res[m]; !r.OK() {
			failed[m] = r
		}
	}
	if err != nil {
		e.l.Warnf(ctx, "lfg.Engine.teleportDone: %v", err)
	}
	if len(failed) == 0 {
		e.completeProposal(ctx, run)
		return
	}
	e.teleportFailed(ctx, run, failed)
}

// completeProposal moves every ticket into the dungeon. The members are
// free to queue again from here on.
func (e *Engine) completeProposal(ctx context.Context, run *proposalRun) {
	run.stopTimers()
	p := run.p
	p.Binding = false
	delete(e.proposals, p.ID)
	e.count(func(s *EngineStatus) { s.TotalGroups++ })

	e.l.Infow(ctx, "Group entered dungeon",
		"proposal_id", p.ID,
		"dungeon_id", p.DungeonID,
		"instance_ref", p.InstanceRef,
	)

	for _, t := range run.tickets {
		if e.store.get(t.ID) != t {
			continue
		}
		t.ProposalID = ""
		t.InstanceRef = p.InstanceRef
		e.store.unindexMembers(t)
		e.matcher.forget(t.ID)
		e.transition(ctx, t, models.TicketStateDungeon, models.LfgUpdate{
			Type:        models.UpdateTypeGroupFound,
			ProposalID:  p.ID,
			DungeonID:   p.DungeonID,
			Roster:      slices.Clone(run.roster),
			Answers:     p.AnswerSnapshot(),
			InstanceRef: p.InstanceRef,
			EntryTokens: tokensFor(p.EntryTokens, t.Members),
		})
	}
}

func tokensFor(all map[string]string, members []string) map[string]string {
	out := make(map[string]string, len(members))
	for _, m := range members {
		if tok, ok := all[m]; ok {
			out[m] = tok
		}
	}
	return out
}
