package models

import "time"

// ReasonKind names the catalog a Reason code belongs to.
type ReasonKind string

const (
	ReasonKindNone           ReasonKind = ""
	ReasonKindJoinResult     ReasonKind = "join_result"
	ReasonKindRoleCheckState ReasonKind = "role_check_state"
	ReasonKindCompatibility  ReasonKind = "compatibility"
	ReasonKindTeleportResult ReasonKind = "teleport_result"
	ReasonKindPartyResult    ReasonKind = "party_result"
	ReasonKindUpdateType     ReasonKind = "update_type"
	ReasonKindRemoveMethod   ReasonKind = "remove_method"
)

// Reason is the code attached to a terminal or failure transition.
type Reason struct {
	Kind ReasonKind `json:"kind,omitempty"`
	Code int        `json:"code"`
}

func (r Reason) IsZero() bool {
	return r.Kind == ReasonKindNone
}

func JoinReason(r JoinResult) Reason {
	return Reason{Kind: ReasonKindJoinResult, Code: int(r)}
}

func RoleCheckReason(s RoleCheckState) Reason {
	return Reason{Kind: ReasonKindRoleCheckState, Code: int(s)}
}

func TeleportReason(r TeleportResult) Reason {
	return Reason{Kind: ReasonKindTeleportResult, Code: int(r)}
}

func PartyReason(r PartyResult) Reason {
	return Reason{Kind: ReasonKindPartyResult, Code: int(r)}
}

func UpdateReason(u UpdateType) Reason {
	return Reason{Kind: ReasonKindUpdateType, Code: int(u)}
}

func RemoveReason(m RemoveMethod) Reason {
	return Reason{Kind: ReasonKindRemoveMethod, Code: int(m)}
}

// LfgUpdate is emitted once per ticket transition and for proposal and
// role-check progress. It is fanned out to Kafka, Redis pub/sub and the
// member streams.
type LfgUpdate struct {
	ID             string                    `json:"id"`
	Type           UpdateType                `json:"type"`
	TicketID       string                    `json:"ticket_id,omitempty"`
	ProposalID     string                    `json:"proposal_id,omitempty"`
	Members        []string                  `json:"members"`
	QueueType      QueueType                 `json:"queue_type,omitempty"`
	State          TicketState               `json:"state"`
	PrevState      TicketState               `json:"prev_state"`
	Reason         Reason                    `json:"reason"`
	RoleCheckState RoleCheckState            `json:"role_check_state,omitempty"`
	RoleAnswers    map[string]RoleMask       `json:"role_answers,omitempty"`
	DungeonID      uint32                    `json:"dungeon_id,omitempty"`
	Dungeons       []uint32                  `json:"dungeons,omitempty"`
	Roster         []RosterEntry             `json:"roster,omitempty"`
	Answers        map[string]ProposalAnswer `json:"answers,omitempty"`
	InstanceRef    string                    `json:"instance_ref,omitempty"`
	EntryTokens    map[string]string         `json:"-"`
	TeleportResult TeleportResult            `json:"teleport_result,omitempty"`
	QueuedAt       time.Time                 `json:"queued_at,omitempty"`
	Timestamp      time.Time                 `json:"timestamp"`
}

// IsTransition reports whether the update moved a ticket between states.
func (u LfgUpdate) IsTransition() bool {
	return u.TicketID != "" && u.State != u.PrevState
}

// ForMember returns a copy holding only the member's own entry token.
func (u LfgUpdate) ForMember(member string) LfgUpdate {
	c := u
	if tok, ok := u.EntryTokens[member]; ok {
		c.EntryTokens = map[string]string{member: tok}
	} else {
		c.EntryTokens = nil
	}
	return c
}
