package lfg

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vogiaan1904/realm-lfg/internal/catalog"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/pkg/clock"
	"github.com/vogiaan1904/realm-lfg/pkg/logger"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu      sync.Mutex
	updates []models.LfgUpdate
	// drop loses matching updates the way a full stream buffer would.
	drop    func(models.LfgUpdate) bool
	dropped int
}

func (n *recordingNotifier) Notify(_ context.Context, u models.LfgUpdate) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.drop != nil && n.drop(u) {
		n.dropped++
		return
	}
	n.updates = append(n.updates, u)
}

func (n *recordingNotifier) dropWhen(f func(models.LfgUpdate) bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.drop = f
}

func (n *recordingNotifier) droppedCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped
}

func (n *recordingNotifier) all() []models.LfgUpdate {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.LfgUpdate(nil), n.updates...)
}

func (n *recordingNotifier) forTicket(id string) []models.LfgUpdate {
	var out []models.LfgUpdate
	for _, u := range n.all() {
		if u.TicketID == id {
			out = append(out, u)
		}
	}
	return out
}

func (n *recordingNotifier) ofType(typ models.UpdateType) []models.LfgUpdate {
	var out []models.LfgUpdate
	for _, u := range n.all() {
		if u.Type == typ {
			out = append(out, u)
		}
	}
	return out
}

// lastProposal returns the id of the most recently opened proposal.
func (n *recordingNotifier) lastProposal(t *testing.T) string {
	t.Helper()
	begins := n.ofType(models.UpdateTypeProposalBegin)
	if len(begins) == 0 {
		t.Fatal("no proposal was opened")
	}
	return begins[len(begins)-1].ProposalID
}

type bindCall struct {
	res BindResult
	err error
}

type teleportCall struct {
	res map[string]models.TeleportResult
	err error
}

// scriptedBinder answers calls from queued scripts and succeeds once a
// script runs out.
type scriptedBinder struct {
	mu        sync.Mutex
	binds     []bindCall
	teleports []teleportCall
	bindN     int
	teleportN int
	block     bool
}

func (b *scriptedBinder) Bind(ctx context.Context, req BindRequest) (BindResult, error) {
	b.mu.Lock()
	b.bindN++
	block := b.block
	var call *bindCall
	if len(b.binds) > 0 {
		call = &b.binds[0]
		b.binds = b.binds[1:]
	}
	b.mu.Unlock()

	if block {
		<-ctx.Done()
		return BindResult{}, ctx.Err()
	}
	if call != nil {
		return call.res, call.err
	}
	return BindResult{InstanceRef: "instance-" + req.ProposalID}, nil
}

func (b *scriptedBinder) Teleport(_ context.Context, req TeleportRequest) (map[string]models.TeleportResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teleportN++
	if len(b.teleports) > 0 {
		call := b.teleports[0]
		b.teleports = b.teleports[1:]
		return call.res, call.err
	}
	return map[string]models.TeleportResult{}, nil
}

func (b *scriptedBinder) calls() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bindN, b.teleportN
}

type stubTokens struct{}

func (stubTokens) IssueEntryToken(c EntryClaims) (string, error) {
	return fmt.Sprintf("token:%s:%s", c.ProposalID, c.Member), nil
}

type harness struct {
	e      *Engine
	clk    *clock.FakeClock
	notes  *recordingNotifier
	binder *scriptedBinder
}

func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()

	cfg := DefaultConfig()
	cfg.MaxQueueTime = 0
	for _, m := range mutate {
		m(&cfg)
	}

	h := &harness{
		clk:    clock.Fake(epoch),
		notes:  &recordingNotifier{},
		binder: &scriptedBinder{},
	}
	h.e = New(cfg, catalog.Default(), h.notes, h.binder, stubTokens{}, logger.InitializeTestZapLogger(), WithClock(h.clk))
	if err := h.e.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = h.e.Stop() })
	return h
}

func (h *harness) submit(t *testing.T, req TicketRequest) string {
	t.Helper()
	id, err := h.e.SubmitTicket(context.Background(), req)
	if err != nil {
		t.Fatalf("SubmitTicket(%v) error = %v", req.Members, err)
	}
	return id
}

func solo(member string, role models.RoleMask, dungeons ...uint32) TicketRequest {
	return TicketRequest{
		Members:   []string{member},
		Roles:     map[string]models.RoleMask{member: role},
		Dungeons:  dungeons,
		QueueType: models.QueueTypeDungeon,
	}
}

func party(leaderRole models.RoleMask, dungeon uint32, members ...string) TicketRequest {
	return TicketRequest{
		Members:   members,
		Roles:     map[string]models.RoleMask{members[0]: leaderRole},
		Dungeons:  []uint32{dungeon},
		QueueType: models.QueueTypeDungeon,
	}
}

func (h *harness) state(t *testing.T, id string) models.TicketState {
	t.Helper()
	s, err := h.e.GetState(context.Background(), id)
	if err != nil && !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("GetState(%s) error = %v", id, err)
	}
	return s
}

func (h *harness) wantState(t *testing.T, id string, want models.TicketState) {
	t.Helper()
	if got := h.state(t, id); got != want {
		t.Fatalf("ticket %s state = %s, want %s", id, got, want)
	}
}

// eventually polls cond until it holds or a second passes. Used only for
// results that come back from binder goroutines.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// checkReservations asserts every ticket in Proposal is held by exactly one
// open proposal and every proposal only holds tickets reserved for it.
func (h *harness) checkReservations(t *testing.T) {
	t.Helper()
	var problems []string
	err := h.e.do(context.Background(), func() {
		holders := make(map[string]int)
		for pid, run := range h.e.proposals {
			for _, tk := range run.tickets {
				holders[tk.ID]++
				if tk.ProposalID != pid {
					problems = append(problems, fmt.Sprintf("ticket %s held by %s but reserved for %q", tk.ID, pid, tk.ProposalID))
				}
			}
		}
		for id, tk := range h.e.store.tickets {
			if tk.State == models.TicketStateProposal && holders[id] != 1 {
				problems = append(problems, fmt.Sprintf("ticket %s in proposal held by %d proposals", id, holders[id]))
			}
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range problems {
		t.Error(p)
	}
}
