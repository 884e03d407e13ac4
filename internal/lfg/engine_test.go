package lfg

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/vogiaan1904/realm-lfg/internal/catalog"
	"github.com/vogiaan1904/realm-lfg/internal/models"
)

const testDungeon = 1

var ctx = context.Background()

// fiveSolos queues a tank, a healer and three damage dealers for the test
// dungeon and returns their ticket ids in that order.
func fiveSolos(t *testing.T, h *harness) []string {
	t.Helper()
	roles := []models.RoleMask{models.RoleTank, models.RoleHealer, models.RoleDamage, models.RoleDamage, models.RoleDamage}
	ids := make([]string, len(roles))
	for i, r := range roles {
		ids[i] = h.submit(t, solo(soloName(i), r, testDungeon))
	}
	return ids
}

func soloName(i int) string {
	return []string{"s1", "s2", "s3", "s4", "s5"}[i]
}

func TestPartyOfFiveReachesDungeon(t *testing.T) {
	h := newHarness(t)

	id := h.submit(t, party(models.RoleTank, testDungeon, "p1", "p2", "p3", "p4", "p5"))
	h.wantState(t, id, models.TicketStateRoleCheck)

	answers := map[string]models.RoleMask{
		"p2": models.RoleHealer,
		"p3": models.RoleDamage,
		"p4": models.RoleDamage,
		"p5": models.RoleDamage,
	}
	for _, m := range []string{"p2", "p3", "p4", "p5"} {
		if err := h.e.SubmitRole(ctx, id, m, answers[m]); err != nil {
			t.Fatalf("SubmitRole(%s) error = %v", m, err)
		}
	}

	// The matcher proposes the party to itself right after the role check.
	h.wantState(t, id, models.TicketStateProposal)
	pid := h.notes.lastProposal(t)

	p, err := h.e.GetProposal(ctx, pid)
	if err != nil {
		t.Fatalf("GetProposal() error = %v", err)
	}
	if p.Leader != "p1" {
		t.Errorf("leader = %s, want p1", p.Leader)
	}
	if p.Roles["p1"] != models.RoleTank || p.Roles["p2"] != models.RoleHealer {
		t.Errorf("unexpected role assignment %v", p.Roles)
	}

	for _, m := range []string{"p1", "p2", "p3", "p4", "p5"} {
		if err := h.e.AnswerProposal(ctx, pid, m, true); err != nil {
			t.Fatalf("AnswerProposal(%s) error = %v", m, err)
		}
	}

	eventually(t, "ticket to enter the dungeon", func() bool {
		return h.state(t, id) == models.TicketStateDungeon
	})

	var transitions []models.LfgUpdate
	for _, u := range h.notes.forTicket(id) {
		if u.IsTransition() {
			transitions = append(transitions, u)
		}
	}
	want := []models.TicketState{
		models.TicketStateRoleCheck,
		models.TicketStateQueued,
		models.TicketStateProposal,
		models.TicketStateDungeon,
	}
	if len(transitions) != len(want) {
		t.Fatalf("got %d transitions, want %d", len(transitions), len(want))
	}
	prev := models.TicketStateNone
	for i, u := range transitions {
		if u.PrevState != prev || u.State != want[i] {
			t.Errorf("transition %d = %s -> %s, want %s -> %s", i, u.PrevState, u.State, prev, want[i])
		}
		prev = u.State
	}

	found := transitions[len(transitions)-1]
	if found.Type != models.UpdateTypeGroupFound || found.InstanceRef == "" {
		t.Errorf("final update = %+v", found)
	}
	if len(found.EntryTokens) != 5 {
		t.Errorf("got %d entry tokens, want 5", len(found.EntryTokens))
	}

	// Members are free to queue again while inside the dungeon.
	if _, err := h.e.TicketOfMember(ctx, "p1"); !errors.Is(err, ErrTicketNotFound) {
		t.Errorf("TicketOfMember() error = %v, want ErrTicketNotFound", err)
	}

	n, err := h.e.CompleteInstance(ctx, found.InstanceRef)
	if err != nil || n != 1 {
		t.Fatalf("CompleteInstance() = %d, %v", n, err)
	}
	if _, err := h.e.GetState(ctx, id); !errors.Is(err, ErrTicketNotFound) {
		t.Errorf("GetState() after completion error = %v", err)
	}
	last := h.notes.forTicket(id)
	if got := last[len(last)-1]; got.State != models.TicketStateFinishedDungeon || got.PrevState != models.TicketStateDungeon {
		t.Errorf("completion update = %s -> %s", got.PrevState, got.State)
	}
}

func TestDeclineDiscardsDecliningTicket(t *testing.T) {
	h := newHarness(t)

	three := h.submit(t, party(models.RoleTank, testDungeon, "a1", "a2", "a3"))
	if err := h.e.SubmitRole(ctx, three, "a2", models.RoleHealer); err != nil {
		t.Fatal(err)
	}
	if err := h.e.SubmitRole(ctx, three, "a3", models.RoleDamage); err != nil {
		t.Fatal(err)
	}
	h.wantState(t, three, models.TicketStateQueued)

	h.clk.Advance(time.Second)

	two := h.submit(t, party(models.RoleDamage, testDungeon, "b1", "b2"))
	if err := h.e.SubmitRole(ctx, two, "b2", models.RoleDamage); err != nil {
		t.Fatal(err)
	}
	h.wantState(t, three, models.TicketStateProposal)
	h.wantState(t, two, models.TicketStateProposal)
	h.checkReservations(t)

	pid := h.notes.lastProposal(t)
	if err := h.e.AnswerProposal(ctx, pid, "a1", true); err != nil {
		t.Fatal(err)
	}
	if err := h.e.AnswerProposal(ctx, pid, "b2", false); err != nil {
		t.Fatal(err)
	}

	if _, err := h.e.GetProposal(ctx, pid); !errors.Is(err, ErrProposalNotFound) {
		t.Errorf("proposal still open: %v", err)
	}
	h.wantState(t, two, models.TicketStateNone)

	tk, err := h.e.GetTicket(ctx, three)
	if err != nil {
		t.Fatal(err)
	}
	if tk.State != models.TicketStateQueued || !tk.JoinedAt.Equal(epoch) || tk.IsReserved() {
		t.Errorf("released ticket = state %s joined %s reserved %v", tk.State, tk.JoinedAt, tk.IsReserved())
	}

	updates := h.notes.forTicket(two)
	declined := updates[len(updates)-1]
	if declined.Type != models.UpdateTypeProposalDeclined || declined.State != models.TicketStateNone {
		t.Errorf("declining ticket update = %s / %s", declined.Type, declined.State)
	}
	if declined.Reason != models.UpdateReason(models.UpdateTypeProposalDeclined) {
		t.Errorf("declining ticket reason = %+v", declined.Reason)
	}

	updates = h.notes.forTicket(three)
	released := updates[len(updates)-1]
	if released.Type != models.UpdateTypeProposalFailed || released.State != models.TicketStateQueued {
		t.Errorf("released ticket update = %s / %s", released.Type, released.State)
	}
	h.checkReservations(t)
}

func TestRoleCheckOutcomes(t *testing.T) {
	t.Run("missing answer at deadline", func(t *testing.T) {
		h := newHarness(t)
		id := h.submit(t, party(models.RoleTank, testDungeon, "a1", "a2", "a3"))
		if err := h.e.SubmitRole(ctx, id, "a2", models.RoleHealer); err != nil {
			t.Fatal(err)
		}

		h.clk.Advance(2*time.Minute - time.Second)
		h.wantState(t, id, models.TicketStateRoleCheck)

		h.clk.Advance(time.Second)
		h.wantState(t, id, models.TicketStateNone)

		failed := h.notes.ofType(models.UpdateTypeRoleCheckFailed)
		if len(failed) != 1 {
			t.Fatalf("got %d role check failures, want 1", len(failed))
		}
		u := failed[0]
		if u.RoleCheckState != models.RoleCheckStateMissingRole || u.Reason != models.RoleCheckReason(models.RoleCheckStateMissingRole) {
			t.Errorf("failure = %s reason %+v", u.RoleCheckState, u.Reason)
		}
		if len(u.Members) != 3 {
			t.Errorf("notified %v, want all three members", u.Members)
		}
	})

	t.Run("no role resolves immediately", func(t *testing.T) {
		h := newHarness(t)
		id := h.submit(t, party(models.RoleTank, testDungeon, "a1", "a2", "a3"))
		if err := h.e.SubmitRole(ctx, id, "a2", models.RoleNone); err != nil {
			t.Fatal(err)
		}
		h.wantState(t, id, models.TicketStateNone)

		failed := h.notes.ofType(models.UpdateTypeRoleCheckFailed)
		if len(failed) != 1 || failed[0].RoleCheckState != models.RoleCheckStateNoRole {
			t.Fatalf("unexpected failures %+v", failed)
		}
	})

	t.Run("wrong roles", func(t *testing.T) {
		h := newHarness(t)
		id := h.submit(t, party(models.RoleHealer, testDungeon, "a1", "a2"))
		if err := h.e.SubmitRole(ctx, id, "a2", models.RoleHealer); err != nil {
			t.Fatal(err)
		}
		h.wantState(t, id, models.TicketStateNone)

		failed := h.notes.ofType(models.UpdateTypeRoleCheckFailed)
		if len(failed) != 1 || failed[0].RoleCheckState != models.RoleCheckStateWrongRoles {
			t.Fatalf("unexpected failures %+v", failed)
		}
	})

	t.Run("answers can change until resolved", func(t *testing.T) {
		h := newHarness(t)
		id := h.submit(t, party(models.RoleTank, testDungeon, "a1", "a2", "a3"))
		if err := h.e.SubmitRole(ctx, id, "a2", models.RoleTank); err != nil {
			t.Fatal(err)
		}
		if err := h.e.SubmitRole(ctx, id, "a2", models.RoleHealer); err != nil {
			t.Fatal(err)
		}
		if err := h.e.SubmitRole(ctx, id, "a3", models.RoleDamage); err != nil {
			t.Fatal(err)
		}
		h.wantState(t, id, models.TicketStateQueued)

		tk, err := h.e.GetTicket(ctx, id)
		if err != nil {
			t.Fatal(err)
		}
		if tk.Roles["a2"] != models.RoleHealer || !tk.Roles["a1"].IsLeader() {
			t.Errorf("roles = %v", tk.Roles)
		}
	})

	t.Run("member leaving aborts", func(t *testing.T) {
		h := newHarness(t)
		id := h.submit(t, party(models.RoleTank, testDungeon, "a1", "a2"))
		err := h.e.MemberChanged(ctx, MembershipChange{Kind: MemberRemoved, Member: "a2", Method: models.RemoveMethodLeave})
		if err != nil {
			t.Fatal(err)
		}
		h.wantState(t, id, models.TicketStateNone)

		aborted := h.notes.ofType(models.UpdateTypeRoleCheckAborted)
		if len(aborted) != 1 || aborted[0].RoleCheckState != models.RoleCheckStateAborted {
			t.Fatalf("unexpected aborts %+v", aborted)
		}

		// The cancelled deadline must not produce a second transition.
		h.clk.Advance(3 * time.Minute)
		h.wantState(t, id, models.TicketStateNone)
		if n := len(h.notes.ofType(models.UpdateTypeRoleCheckFailed)); n != 0 {
			t.Errorf("got %d late role check failures", n)
		}
	})

	t.Run("non member rejected", func(t *testing.T) {
		h := newHarness(t)
		id := h.submit(t, party(models.RoleTank, testDungeon, "a1", "a2"))
		if err := h.e.SubmitRole(ctx, id, "zz", models.RoleDamage); !errors.Is(err, ErrNotMember) {
			t.Errorf("SubmitRole() error = %v, want ErrNotMember", err)
		}
	})
}

func TestAnswerIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ids := fiveSolos(t, h)
	h.wantState(t, ids[0], models.TicketStateProposal)
	pid := h.notes.lastProposal(t)

	progress := func() int {
		n := 0
		for _, u := range h.notes.ofType(models.UpdateTypeUpdateStatus) {
			if u.ProposalID == pid {
				n++
			}
		}
		return n
	}

	if err := h.e.AnswerProposal(ctx, pid, "s1", true); err != nil {
		t.Fatal(err)
	}
	once := progress()

	if err := h.e.AnswerProposal(ctx, pid, "s1", true); err != nil {
		t.Fatal(err)
	}
	if err := h.e.AnswerProposal(ctx, pid, "s1", false); err != nil {
		t.Fatal(err)
	}
	if got := progress(); got != once {
		t.Errorf("repeated answers emitted %d updates, want %d", got, once)
	}

	p, err := h.e.GetProposal(ctx, pid)
	if err != nil {
		t.Fatalf("proposal closed by a repeated answer: %v", err)
	}
	if p.Answers["s1"] != models.ProposalAnswerAgree {
		t.Errorf("s1 answer = %s, want agree", p.Answers["s1"])
	}
	if p.State != models.ProposalStateInitiating {
		t.Errorf("proposal state = %s", p.State)
	}
	h.checkReservations(t)
}

func TestProposalSucceedsOnlyWhenAllAgree(t *testing.T) {
	h := newHarness(t)
	ids := fiveSolos(t, h)
	pid := h.notes.lastProposal(t)

	for i := 0; i < 4; i++ {
		if err := h.e.AnswerProposal(ctx, pid, soloName(i), true); err != nil {
			t.Fatal(err)
		}
	}
	p, err := h.e.GetProposal(ctx, pid)
	if err != nil {
		t.Fatal(err)
	}
	if p.State != models.ProposalStateInitiating || p.Binding {
		t.Fatalf("proposal moved on with a pending answer: %s binding=%v", p.State, p.Binding)
	}

	// Deadline with one pending answer fails the proposal.
	h.clk.Advance(45 * time.Second)
	h.wantState(t, ids[4], models.TicketStateNone)
	for _, id := range ids[:4] {
		h.wantState(t, id, models.TicketStateQueued)
	}

	updates := h.notes.forTicket(ids[4])
	last := updates[len(updates)-1]
	if last.Type != models.UpdateTypeProposalFailed || last.Reason != models.UpdateReason(models.UpdateTypeProposalFailed) {
		t.Errorf("timed out ticket update = %s reason %+v", last.Type, last.Reason)
	}
	if _, err := h.e.GetProposal(ctx, pid); !errors.Is(err, ErrProposalNotFound) {
		t.Errorf("proposal still open: %v", err)
	}
}

func TestCancelDuringProposalFailsIt(t *testing.T) {
	h := newHarness(t)
	ids := fiveSolos(t, h)
	pid := h.notes.lastProposal(t)

	if err := h.e.CancelTicket(ctx, ids[0]); err != nil {
		t.Fatal(err)
	}
	if _, err := h.e.GetProposal(ctx, pid); !errors.Is(err, ErrProposalNotFound) {
		t.Fatalf("proposal still open: %v", err)
	}
	h.wantState(t, ids[0], models.TicketStateNone)
	for _, id := range ids[1:] {
		h.wantState(t, id, models.TicketStateQueued)
	}
	h.checkReservations(t)
}

func TestCancelWhileBindingFailsProposal(t *testing.T) {
	h := newHarness(t)
	h.binder.block = true
	ids := fiveSolos(t, h)
	pid := h.notes.lastProposal(t)

	for i := range ids {
		if err := h.e.AnswerProposal(ctx, pid, soloName(i), true); err != nil {
			t.Fatal(err)
		}
	}
	eventually(t, "bind call", func() bool {
		n, _ := h.binder.calls()
		return n == 1
	})

	if err := h.e.CancelTicket(ctx, ids[2]); err != nil {
		t.Fatal(err)
	}
	h.wantState(t, ids[2], models.TicketStateNone)
	for _, id := range []string{ids[0], ids[1], ids[3], ids[4]} {
		h.wantState(t, id, models.TicketStateQueued)
	}
	h.checkReservations(t)
}

func TestReleasePreservesJoinOrder(t *testing.T) {
	h := newHarness(t)

	early := h.submit(t, solo("early", models.RoleDamage, testDungeon))
	h.clk.Advance(time.Second)
	bystander := h.submit(t, solo("bystander", models.RoleDamage, 2))
	h.clk.Advance(time.Second)

	tank := h.submit(t, solo("tank", models.RoleTank, testDungeon))
	h.submit(t, solo("healer", models.RoleHealer, testDungeon))
	h.submit(t, solo("dps1", models.RoleDamage, testDungeon))
	h.submit(t, solo("dps2", models.RoleDamage, testDungeon))

	h.wantState(t, early, models.TicketStateProposal)
	h.wantState(t, bystander, models.TicketStateQueued)

	pid := h.notes.lastProposal(t)
	if err := h.e.AnswerProposal(ctx, pid, "tank", false); err != nil {
		t.Fatal(err)
	}
	h.wantState(t, tank, models.TicketStateNone)

	queue, err := h.e.ListQueue(ctx, models.QueueTypeDungeon)
	if err != nil {
		t.Fatal(err)
	}
	if len(queue) != 5 {
		t.Fatalf("queue has %d tickets, want 5", len(queue))
	}
	if queue[0].ID != early || queue[1].ID != bystander {
		t.Errorf("queue order = %s, %s; want early then bystander", queue[0].Members[0], queue[1].Members[0])
	}
	for i := 1; i < len(queue); i++ {
		if queue[i].Before(queue[i-1]) {
			t.Errorf("queue not in priority order at %d", i)
		}
	}
}

func TestDoubleReservationAbortsBothProposals(t *testing.T) {
	h := newHarness(t)
	a := h.submit(t, solo("a", models.RoleDamage, testDungeon))
	b := h.submit(t, solo("b", models.RoleTank, testDungeon))
	h.wantState(t, a, models.TicketStateQueued)

	d, err := catalog.Default().Get(testDungeon)
	if err != nil {
		t.Fatal(err)
	}

	err = h.e.do(ctx, func() {
		h.e.createProposal(ctx, d, []*models.Ticket{h.e.store.get(a), h.e.store.get(b)})
	})
	if err != nil {
		t.Fatal(err)
	}
	h.wantState(t, b, models.TicketStateProposal)

	err = h.e.do(ctx, func() {
		h.e.createProposal(ctx, d, []*models.Ticket{h.e.store.get(b)})
	})
	if err != nil {
		t.Fatal(err)
	}

	h.wantState(t, a, models.TicketStateQueued)
	h.wantState(t, b, models.TicketStateQueued)
	h.checkReservations(t)

	st := h.e.Status()
	if st.InvariantErrors != 1 || st.Proposals != 0 {
		t.Errorf("status = %+v", st)
	}
	for _, id := range []string{a, b} {
		updates := h.notes.forTicket(id)
		last := updates[len(updates)-1]
		if last.Reason != models.JoinReason(models.JoinResultInternalError) {
			t.Errorf("ticket %s released with reason %+v", id, last.Reason)
		}
	}
}

func TestBindFailureRetriedOnce(t *testing.T) {
	h := newHarness(t)
	h.binder.binds = []bindCall{{err: errors.New("no free instance")}}
	ids := fiveSolos(t, h)
	pid := h.notes.lastProposal(t)

	for i := range ids {
		if err := h.e.AnswerProposal(ctx, pid, soloName(i), true); err != nil {
			t.Fatal(err)
		}
	}

	eventually(t, "first bind failure", func() bool { return h.e.Status().BindFailures == 1 })
	h.clk.Advance(2 * time.Second)

	eventually(t, "group to enter the dungeon", func() bool {
		return h.state(t, ids[0]) == models.TicketStateDungeon
	})
	if binds, _ := h.binder.calls(); binds != 2 {
		t.Errorf("bind calls = %d, want 2", binds)
	}
}

func TestBindFailsTwiceReleasesEveryone(t *testing.T) {
	h := newHarness(t)
	h.binder.binds = []bindCall{{err: errors.New("down")}, {err: errors.New("still down")}}
	ids := fiveSolos(t, h)
	pid := h.notes.lastProposal(t)

	for i := range ids {
		if err := h.e.AnswerProposal(ctx, pid, soloName(i), true); err != nil {
			t.Fatal(err)
		}
	}
	eventually(t, "first bind failure", func() bool { return h.e.Status().BindFailures == 1 })
	h.clk.Advance(2 * time.Second)
	eventually(t, "second bind failure", func() bool { return h.e.Status().BindFailures == 2 })

	released := 0
	for _, u := range h.notes.ofType(models.UpdateTypeProposalFailed) {
		if u.ProposalID == pid && u.Reason == models.PartyReason(models.PartyResultLfgTeleportInCombat) {
			released++
		}
	}
	if released != 5 {
		t.Errorf("released %d tickets, want 5", released)
	}
	for _, id := range ids {
		if _, err := h.e.GetTicket(ctx, id); err != nil {
			t.Errorf("ticket %s discarded after a bind failure: %v", id, err)
		}
	}
}

func TestTeleportFailureAfterRetryDiscardsCulprit(t *testing.T) {
	h := newHarness(t)
	h.binder.binds = []bindCall{{res: BindResult{
		InstanceRef: "inst-1",
		Teleports:   map[string]models.TeleportResult{"s3": models.TeleportResultDead},
	}}}
	h.binder.teleports = []teleportCall{{res: map[string]models.TeleportResult{"s3": models.TeleportResultDead}}}

	ids := fiveSolos(t, h)
	pid := h.notes.lastProposal(t)
	for i := range ids {
		if err := h.e.AnswerProposal(ctx, pid, soloName(i), true); err != nil {
			t.Fatal(err)
		}
	}

	eventually(t, "teleport retry", func() bool { return h.e.Status().TeleportRetries == 1 })
	h.clk.Advance(2 * time.Second)

	eventually(t, "culprit discarded", func() bool {
		return h.state(t, ids[2]) == models.TicketStateNone
	})
	for _, i := range []int{0, 1, 3, 4} {
		h.wantState(t, ids[i], models.TicketStateQueued)
	}

	updates := h.notes.forTicket(ids[2])
	last := updates[len(updates)-1]
	if last.Reason != models.PartyReason(models.PartyResultLfgTeleportInCombat) {
		t.Errorf("culprit reason = %+v", last.Reason)
	}
	if _, teleports := h.binder.calls(); teleports != 1 {
		t.Errorf("teleport calls = %d, want 1", teleports)
	}
}

func TestTeleportRetrySucceeds(t *testing.T) {
	h := newHarness(t)
	h.binder.binds = []bindCall{{res: BindResult{
		InstanceRef: "inst-2",
		Teleports:   map[string]models.TeleportResult{"s1": models.TeleportResultFalling},
	}}}

	ids := fiveSolos(t, h)
	pid := h.notes.lastProposal(t)
	for i := range ids {
		if err := h.e.AnswerProposal(ctx, pid, soloName(i), true); err != nil {
			t.Fatal(err)
		}
	}

	eventually(t, "teleport retry", func() bool { return h.e.Status().TeleportRetries == 1 })
	h.clk.Advance(2 * time.Second)

	eventually(t, "group to enter the dungeon", func() bool {
		return h.state(t, ids[0]) == models.TicketStateDungeon
	})
	tk, err := h.e.GetTicket(ctx, ids[0])
	if err != nil {
		t.Fatal(err)
	}
	if tk.InstanceRef != "inst-2" {
		t.Errorf("instance ref = %q", tk.InstanceRef)
	}
}

func TestSubmitTicketRejections(t *testing.T) {
	h := newHarness(t)
	h.submit(t, solo("taken", models.RoleDamage, testDungeon))

	tests := []struct {
		name string
		req  TicketRequest
		want models.JoinResult
	}{
		{
			name: "no members",
			req:  TicketRequest{Dungeons: []uint32{testDungeon}, QueueType: models.QueueTypeDungeon},
			want: models.JoinResultFailed,
		},
		{
			name: "duplicate members",
			req:  party(models.RoleTank, testDungeon, "x", "x"),
			want: models.JoinResultFailed,
		},
		{
			name: "unknown dungeon",
			req:  solo("x", models.RoleDamage, 9999),
			want: models.JoinResultDungeonInvalid,
		},
		{
			name: "no dungeon",
			req:  solo("x", models.RoleDamage),
			want: models.JoinResultDungeonInvalid,
		},
		{
			name: "raid mixed with dungeon",
			req:  solo("x", models.RoleDamage, testDungeon, 100),
			want: models.JoinResultMixedRaidDungeon,
		},
		{
			name: "leader without role",
			req:  solo("x", models.RoleLeader, testDungeon),
			want: models.JoinResultNotMeetReqs,
		},
		{
			name: "too many for the dungeon",
			req:  party(models.RoleTank, testDungeon, "m1", "m2", "m3", "m4", "m5", "m6"),
			want: models.JoinResultTooManyMembers,
		},
		{
			name: "already queued",
			req:  solo("taken", models.RoleDamage, testDungeon),
			want: models.JoinResultFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.e.SubmitTicket(ctx, tt.req)
			got, ok := JoinResultOf(err)
			if !ok {
				t.Fatalf("SubmitTicket() error = %v, want a JoinError", err)
			}
			if got != tt.want {
				t.Errorf("join result = %d, want %d", got, tt.want)
			}
		})
	}

	if n := h.e.Status().Tickets; n != 1 {
		t.Errorf("rejected submissions created tickets: %d", n)
	}
}

func TestRaidBrowserTicketsAreListed(t *testing.T) {
	h := newHarness(t)
	req := solo("raider", models.RoleHealer, 100)
	req.QueueType = models.QueueTypeRaidBrowser
	id := h.submit(t, req)

	h.wantState(t, id, models.TicketStateRaidBrowser)

	listing, err := h.e.ListQueue(ctx, models.QueueTypeRaidBrowser)
	if err != nil {
		t.Fatal(err)
	}
	if len(listing) != 1 || listing[0].ID != id {
		t.Fatalf("listing = %v", listing)
	}

	updates := h.notes.forTicket(id)
	if len(updates) != 2 || updates[0].State != models.TicketStateQueued || updates[1].State != models.TicketStateRaidBrowser {
		t.Errorf("unexpected updates %+v", updates)
	}
}

func TestQueueTimeoutSweep(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.MaxQueueTime = 5 * time.Minute })
	id := h.submit(t, solo("waiter", models.RoleDamage, testDungeon))

	h.clk.Advance(5 * time.Minute)
	eventually(t, "ticket to time out", func() bool {
		return h.state(t, id) == models.TicketStateNone
	})
	if n := h.e.Status().QueueTimeouts; n != 1 {
		t.Errorf("queue timeouts = %d, want 1", n)
	}
}

func TestMemberOfflineRemovesTicket(t *testing.T) {
	h := newHarness(t)
	id := h.submit(t, solo("solo", models.RoleDamage, testDungeon))

	if err := h.e.MemberChanged(ctx, MembershipChange{Kind: MemberOffline, Member: "solo"}); err != nil {
		t.Fatal(err)
	}
	h.wantState(t, id, models.TicketStateNone)

	updates := h.notes.forTicket(id)
	last := updates[len(updates)-1]
	if last.Type != models.UpdateTypeRemovedFromQueue || last.Reason != models.JoinReason(models.JoinResultDisconnected) {
		t.Errorf("removal update = %s reason %+v", last.Type, last.Reason)
	}
}

func TestEngineStoppedRejectsCommands(t *testing.T) {
	h := newHarness(t)
	if err := h.e.Stop(); err != nil {
		t.Fatal(err)
	}
	if _, err := h.e.SubmitTicket(ctx, solo("late", models.RoleDamage, testDungeon)); !errors.Is(err, ErrEngineStopped) {
		t.Errorf("SubmitTicket() after Stop error = %v", err)
	}
	if err := h.e.Start(ctx); !errors.Is(err, ErrEngineRunning) {
		t.Errorf("restart error = %v", err)
	}
}

func TestScanCutShortByBudgetRetriesAnchor(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.MaxScanSteps = 3 })

	// The last damage dealer needs a fourth step to complete the group.
	ids := fiveSolos(t, h)
	h.wantState(t, ids[4], models.TicketStateQueued)

	eventually(t, "the group to be proposed on a later scan", func() bool {
		h.clk.Advance(h.e.cfg.ScanInterval)
		return h.state(t, ids[4]) == models.TicketStateProposal
	})
	for _, id := range ids {
		h.wantState(t, id, models.TicketStateProposal)
	}
	if n := len(h.notes.ofType(models.UpdateTypeProposalBegin)); n != 5 {
		t.Errorf("proposal-begin updates = %d, want one per ticket", n)
	}
	h.checkReservations(t)
}

func TestDroppedProposalUpdateStillResolves(t *testing.T) {
	h := newHarness(t)

	// The first solo never hears that a proposal opened.
	h.notes.dropWhen(func(u models.LfgUpdate) bool {
		return u.Type == models.UpdateTypeProposalBegin && slices.Contains(u.Members, soloName(0))
	})
	ids := fiveSolos(t, h)
	for _, id := range ids {
		h.wantState(t, id, models.TicketStateProposal)
	}
	if n := h.notes.droppedCount(); n != 1 {
		t.Fatalf("dropped updates = %d, want 1", n)
	}

	pid := h.notes.lastProposal(t)
	for i := 1; i < len(ids); i++ {
		if err := h.e.AnswerProposal(ctx, pid, soloName(i), true); err != nil {
			t.Fatal(err)
		}
	}
	h.checkReservations(t)

	h.clk.Advance(h.e.cfg.ProposalTimeout)
	eventually(t, "the silent ticket to be removed", func() bool {
		return h.state(t, ids[0]) == models.TicketStateNone
	})

	for _, id := range ids[1:] {
		h.wantState(t, id, models.TicketStateQueued)
	}
	if _, err := h.e.GetProposal(ctx, pid); !errors.Is(err, ErrProposalNotFound) {
		t.Errorf("proposal still open: %v", err)
	}
	if binds, _ := h.binder.calls(); binds != 0 {
		t.Errorf("bind calls = %d, want 0", binds)
	}
	h.checkReservations(t)

	// A replacement tank completes the group again.
	h.submit(t, solo("s6", models.RoleTank, testDungeon))
	for _, id := range ids[1:] {
		h.wantState(t, id, models.TicketStateProposal)
	}
	h.checkReservations(t)
}

func TestStopTimeoutFollowsEngineClock(t *testing.T) {
	h := newHarness(t)

	running, release := make(chan struct{}), make(chan struct{})
	defer close(release)
	h.e.post(func() {
		close(running)
		<-release
	})
	<-running

	stopped := make(chan error, 1)
	go func() { stopped <- h.e.Stop() }()

	// The scan ticker plus the shutdown timer.
	h.clk.WaitForTimers(2)
	select {
	case err := <-stopped:
		t.Fatalf("Stop() returned %v before the shutdown timeout", err)
	default:
	}

	h.clk.Advance(h.e.cfg.ShutdownTimeout)
	select {
	case err := <-stopped:
		if err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return after the shutdown timeout")
	}
}
