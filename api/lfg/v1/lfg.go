// Package lfgv1 holds the messages and service descriptor of
// lfg.v1.LfgService. Messages travel with the JSON codec from pkg/grpc.
package lfgv1

type SubmitTicketRequest struct {
	Members    []string            `json:"members"`
	Roles      map[string]uint32   `json:"roles"`
	Dungeons   []uint32            `json:"dungeons"`
	QueueType  uint32              `json:"queue_type"`
	LfgGroupID string              `json:"lfg_group_id,omitempty"`
	Ignores    map[string][]string `json:"ignores,omitempty"`
}

type SubmitTicketResponse struct {
	TicketID   string `json:"ticket_id"`
	State      uint32 `json:"state"`
	StateName  string `json:"state_name"`
	QueuedAt   string `json:"queued_at"`
	JoinResult uint32 `json:"join_result"`
}

type CancelTicketRequest struct {
	TicketID string `json:"ticket_id"`
}

type CancelTicketResponse struct {
	TicketID string `json:"ticket_id"`
	Message  string `json:"message"`
}

type GetTicketStateRequest struct {
	TicketID string `json:"ticket_id"`
}

type TicketStateResponse struct {
	TicketID          string   `json:"ticket_id"`
	State             uint32   `json:"state"`
	StateName         string   `json:"state_name"`
	Members           []string `json:"members"`
	QueueType         uint32   `json:"queue_type"`
	Dungeons          []uint32 `json:"dungeons"`
	ProposalID        string   `json:"proposal_id,omitempty"`
	InstanceRef       string   `json:"instance_ref,omitempty"`
	Position          int64    `json:"position"`
	QueueLength       int64    `json:"queue_length"`
	QueuedAt          string   `json:"queued_at"`
	WaitSeconds       int64    `json:"wait_seconds"`
	BestCompatibility uint32   `json:"best_compatibility"`
}

type SubmitRoleRequest struct {
	TicketID string `json:"ticket_id"`
	Member   string `json:"member"`
	Roles    uint32 `json:"roles"`
}

type SubmitRoleResponse struct{}

type AnswerProposalRequest struct {
	ProposalID string `json:"proposal_id"`
	Member     string `json:"member"`
	Agree      bool   `json:"agree"`
}

type AnswerProposalResponse struct{}

type StreamUpdatesRequest struct {
	Member string `json:"member"`
}

type RosterEntry struct {
	Member   string `json:"member"`
	TicketID string `json:"ticket_id"`
	Role     uint32 `json:"role"`
	Leader   bool   `json:"leader"`
}

// Update is one engine update as seen by a single member.
type Update struct {
	ID             string            `json:"id"`
	Type           uint32            `json:"type"`
	TypeName       string            `json:"type_name"`
	TicketID       string            `json:"ticket_id,omitempty"`
	ProposalID     string            `json:"proposal_id,omitempty"`
	Members        []string          `json:"members"`
	State          uint32            `json:"state"`
	PrevState      uint32            `json:"prev_state"`
	ReasonKind     string            `json:"reason_kind,omitempty"`
	ReasonCode     uint32            `json:"reason_code"`
	RoleCheckState uint32            `json:"role_check_state"`
	RoleAnswers    map[string]uint32 `json:"role_answers,omitempty"`
	DungeonID      uint32            `json:"dungeon_id,omitempty"`
	Dungeons       []uint32          `json:"dungeons,omitempty"`
	Roster         []RosterEntry     `json:"roster,omitempty"`
	Answers        map[string]int32  `json:"answers,omitempty"`
	InstanceRef    string            `json:"instance_ref,omitempty"`
	EntryToken     string            `json:"entry_token,omitempty"`
	TeleportResult uint32            `json:"teleport_result"`
	QueuedAt       string            `json:"queued_at,omitempty"`
	Timestamp      string            `json:"timestamp"`
}

type ValidateEntryTokenRequest struct {
	Token string `json:"token"`
}

type ValidateEntryTokenResponse struct {
	Valid       bool   `json:"valid"`
	Member      string `json:"member"`
	TicketID    string `json:"ticket_id"`
	ProposalID  string `json:"proposal_id"`
	DungeonID   uint32 `json:"dungeon_id"`
	Role        uint32 `json:"role"`
	InstanceRef string `json:"instance_ref,omitempty"`
	ExpiresAt   string `json:"expires_at"`
}
