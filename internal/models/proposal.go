package models

import (
	"fmt"
	"slices"
	"time"
)

type ProposalAnswer int8

const (
	ProposalAnswerPending ProposalAnswer = -1
	ProposalAnswerDeny    ProposalAnswer = 0
	ProposalAnswerAgree   ProposalAnswer = 1
)

func (a ProposalAnswer) String() string {
	switch a {
	case ProposalAnswerPending:
		return "pending"
	case ProposalAnswerDeny:
		return "deny"
	case ProposalAnswerAgree:
		return "agree"
	default:
		return fmt.Sprintf("proposal_answer(%d)", int8(a))
	}
}

type ProposalState uint8

const (
	ProposalStateInitiating ProposalState = 0
	ProposalStateFailed     ProposalState = 1
	ProposalStateSuccess    ProposalState = 2
)

func (s ProposalState) String() string {
	switch s {
	case ProposalStateInitiating:
		return "initiating"
	case ProposalStateFailed:
		return "failed"
	case ProposalStateSuccess:
		return "success"
	default:
		return fmt.Sprintf("proposal_state(%d)", uint8(s))
	}
}

// Proposal is a tentative group waiting for every member to agree. After
// unanimous agreement it stays in Success with Binding set until the
// instance binder confirms.
type Proposal struct {
	ID        string                    `json:"id"`
	DungeonID uint32                    `json:"dungeon_id"`
	TicketIDs []string                  `json:"ticket_ids"`
	Members   []string                  `json:"members"`
	Answers   map[string]ProposalAnswer `json:"answers"`
	Roles     map[string]RoleMask       `json:"roles"`
	Leader    string                    `json:"leader"`
	State     ProposalState             `json:"state"`
	Deadline  time.Time                 `json:"deadline"`
	CreatedAt time.Time                 `json:"created_at"`

	Binding     bool              `json:"binding"`
	BindAttempt int               `json:"bind_attempt"`
	InstanceRef string            `json:"instance_ref,omitempty"`
	EntryTokens map[string]string `json:"-"`

	// TeleportRetried holds members whose teleport already got its one retry.
	TeleportRetried map[string]bool `json:"-"`
}

func (p *Proposal) HasMember(member string) bool {
	return slices.Contains(p.Members, member)
}

func (p *Proposal) HasTicket(ticketID string) bool {
	return slices.Contains(p.TicketIDs, ticketID)
}

func (p *Proposal) AllAgreed() bool {
	for _, m := range p.Members {
		if p.Answers[m] != ProposalAnswerAgree {
			return false
		}
	}
	return true
}

// Pending lists members that have not answered, in roster order.
func (p *Proposal) Pending() []string {
	var out []string
	for _, m := range p.Members {
		if p.Answers[m] == ProposalAnswerPending {
			out = append(out, m)
		}
	}
	return out
}

// AnswerSnapshot copies the answer map for notifications.
func (p *Proposal) AnswerSnapshot() map[string]ProposalAnswer {
	out := make(map[string]ProposalAnswer, len(p.Answers))
	for k, v := range p.Answers {
		out[k] = v
	}
	return out
}

// RosterEntry is one seat in a proposal as shown to the client.
type RosterEntry struct {
	Member   string   `json:"member"`
	TicketID string   `json:"ticket_id"`
	Role     RoleMask `json:"role"`
	Leader   bool     `json:"leader,omitempty"`
}
