package models

import (
	"fmt"
	"time"
)

type RoleCheckState uint8

const (
	RoleCheckStateDefault      RoleCheckState = 0
	RoleCheckStateFinished     RoleCheckState = 1
	RoleCheckStateInitializing RoleCheckState = 2
	RoleCheckStateMissingRole  RoleCheckState = 3
	RoleCheckStateWrongRoles   RoleCheckState = 4
	RoleCheckStateAborted      RoleCheckState = 5
	RoleCheckStateNoRole       RoleCheckState = 6
)

func (s RoleCheckState) String() string {
	switch s {
	case RoleCheckStateDefault:
		return "default"
	case RoleCheckStateFinished:
		return "finished"
	case RoleCheckStateInitializing:
		return "initializing"
	case RoleCheckStateMissingRole:
		return "missing_role"
	case RoleCheckStateWrongRoles:
		return "wrong_roles"
	case RoleCheckStateAborted:
		return "aborted"
	case RoleCheckStateNoRole:
		return "no_role"
	default:
		return fmt.Sprintf("role_check_state(%d)", uint8(s))
	}
}

// Resolved reports whether the session reached a final outcome.
func (s RoleCheckState) Resolved() bool {
	switch s {
	case RoleCheckStateDefault, RoleCheckStateInitializing:
		return false
	default:
		return true
	}
}

// RoleCheckSession tracks the pre-queue role handshake of a party ticket.
// A member missing from Answers has not responded yet.
type RoleCheckSession struct {
	TicketID string              `json:"ticket_id"`
	Leader   string              `json:"leader"`
	Members  []string            `json:"members"`
	Answers  map[string]RoleMask `json:"answers"`
	State    RoleCheckState      `json:"state"`
	Deadline time.Time           `json:"deadline"`
}

func (s *RoleCheckSession) Answered(member string) bool {
	_, ok := s.Answers[member]
	return ok
}

func (s *RoleCheckSession) AllAnswered() bool {
	for _, m := range s.Members {
		if !s.Answered(m) {
			return false
		}
	}
	return true
}

// Missing lists members that have not answered, in party order.
func (s *RoleCheckSession) Missing() []string {
	var out []string
	for _, m := range s.Members {
		if !s.Answered(m) {
			out = append(out, m)
		}
	}
	return out
}

// Masks returns the answers in party order.
func (s *RoleCheckSession) Masks() []RoleMask {
	out := make([]RoleMask, len(s.Members))
	for i, m := range s.Members {
		out[i] = s.Answers[m]
	}
	return out
}
