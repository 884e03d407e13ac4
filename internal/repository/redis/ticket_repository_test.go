package repository

import (
	"testing"
	"time"

	"github.com/vogiaan1904/realm-lfg/internal/models"
)

func TestKeys(t *testing.T) {
	if got := ticketKey("t1"); got != "lfg:ticket:t1" {
		t.Errorf("ticketKey = %s", got)
	}
	if got := memberKey("alice"); got != "lfg:member:alice" {
		t.Errorf("memberKey = %s", got)
	}
	if got := queueKey(models.QueueTypeRaidBrowser); got != "lfg:queue:2" {
		t.Errorf("queueKey = %s", got)
	}
	if got := UpdatesChannel("bob"); got != "lfg:updates:bob" {
		t.Errorf("UpdatesChannel = %s", got)
	}
}

func TestStateClassification(t *testing.T) {
	tests := []struct {
		state    models.TicketState
		terminal bool
		waiting  bool
	}{
		{models.TicketStateNone, true, false},
		{models.TicketStateRoleCheck, false, false},
		{models.TicketStateQueued, false, true},
		{models.TicketStateProposal, false, false},
		{models.TicketStateDungeon, false, false},
		{models.TicketStateFinishedDungeon, true, false},
		{models.TicketStateRaidBrowser, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := terminal(tt.state); got != tt.terminal {
				t.Errorf("terminal() = %v", got)
			}
			if got := waiting(tt.state); got != tt.waiting {
				t.Errorf("waiting() = %v", got)
			}
		})
	}
}

func TestRecordOf(t *testing.T) {
	queued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	u := models.LfgUpdate{
		TicketID:    "t1",
		Members:     []string{"a", "b"},
		QueueType:   models.QueueTypeDungeon,
		State:       models.TicketStateDungeon,
		PrevState:   models.TicketStateProposal,
		ProposalID:  "p1",
		DungeonID:   3,
		InstanceRef: "inst-1",
		QueuedAt:    queued,
		Timestamp:   queued.Add(time.Minute),
	}
	rec := recordOf(u)
	if rec.ID != "t1" || rec.State != models.TicketStateDungeon || rec.InstanceRef != "inst-1" {
		t.Errorf("recordOf() = %+v", rec)
	}
	if !rec.UpdatedAt.Equal(u.Timestamp) || !rec.QueuedAt.Equal(queued) {
		t.Errorf("recordOf() times = %v %v", rec.QueuedAt, rec.UpdatedAt)
	}
}

func TestRecordOfDropsReleasedProposal(t *testing.T) {
	tests := []struct {
		name  string
		state models.TicketState
		want  string
	}{
		{name: "proposal", state: models.TicketStateProposal, want: "p1"},
		{name: "released to queue", state: models.TicketStateQueued, want: ""},
		{name: "in dungeon", state: models.TicketStateDungeon, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := recordOf(models.LfgUpdate{
				Type:       models.UpdateTypeProposalFailed,
				TicketID:   "t1",
				State:      tt.state,
				PrevState:  models.TicketStateProposal,
				ProposalID: "p1",
			})
			if rec.ProposalID != tt.want {
				t.Errorf("recordOf().ProposalID = %q, want %q", rec.ProposalID, tt.want)
			}
		})
	}
}
