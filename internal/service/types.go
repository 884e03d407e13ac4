package service

import (
	"time"

	"github.com/vogiaan1904/realm-lfg/internal/models"
)

type SubmitTicketInput struct {
	// Members lists the party, leader first.
	Members    []string                   `json:"members" validate:"required,min=1,dive,required"`
	Roles      map[string]models.RoleMask `json:"roles" validate:"required"`
	Dungeons   []uint32                   `json:"dungeons" validate:"required,min=1,dive,gt=0"`
	QueueType  models.QueueType           `json:"queue_type" validate:"required,gte=1,lte=5"`
	LfgGroupID string                     `json:"lfg_group_id,omitempty"`
	Ignores    map[string][]string        `json:"ignores,omitempty"`
}

type SubmitTicketOutput struct {
	TicketID  string             `json:"ticket_id"`
	State     models.TicketState `json:"state"`
	QueueType models.QueueType   `json:"queue_type"`
	Dungeons  []uint32           `json:"dungeons"`
	QueuedAt  time.Time          `json:"queued_at"`
}

type TicketStateOutput struct {
	TicketID    string             `json:"ticket_id"`
	State       models.TicketState `json:"state"`
	StateName   string             `json:"state_name"`
	Members     []string           `json:"members"`
	QueueType   models.QueueType   `json:"queue_type"`
	Dungeons    []uint32           `json:"dungeons"`
	ProposalID  string             `json:"proposal_id,omitempty"`
	InstanceRef string             `json:"instance_ref,omitempty"`
	Position    int64              `json:"position,omitempty"`
	QueueLength int64              `json:"queue_length,omitempty"`
	QueuedAt    time.Time          `json:"queued_at"`
	WaitTime    time.Duration      `json:"wait_time"`
	// BestCompatibility is the best outcome the matcher has seen for the
	// ticket so far.
	BestCompatibility models.Compatibility `json:"best_compatibility"`
}

type SubmitRoleInput struct {
	TicketID string          `json:"ticket_id" validate:"required"`
	Member   string          `json:"member" validate:"required"`
	Roles    models.RoleMask `json:"roles"`
}

type AnswerProposalInput struct {
	ProposalID string `json:"proposal_id" validate:"required"`
	Member     string `json:"member" validate:"required"`
	Agree      bool   `json:"agree"`
}

type QueueEntry struct {
	TicketID string                     `json:"ticket_id"`
	Members  []string                   `json:"members"`
	Roles    map[string]models.RoleMask `json:"roles"`
	Dungeons []uint32                   `json:"dungeons"`
	State    models.TicketState         `json:"state"`
	Position int64                      `json:"position"`
	QueuedAt time.Time                  `json:"queued_at"`
	WaitTime time.Duration              `json:"wait_time"`
}

type EntryTokenOutput struct {
	Member      string          `json:"member"`
	TicketID    string          `json:"ticket_id"`
	ProposalID  string          `json:"proposal_id"`
	DungeonID   uint32          `json:"dungeon_id"`
	Role        models.RoleMask `json:"role"`
	InstanceRef string          `json:"instance_ref,omitempty"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

type MembershipChangedInput struct {
	Kind   string              `json:"kind" validate:"required,oneof=added removed offline"`
	Member string              `json:"member" validate:"required"`
	Party  []string            `json:"party,omitempty"`
	Method models.RemoveMethod `json:"method,omitempty"`
}

type DungeonCompletedInput struct {
	InstanceRef string    `json:"instance_ref" validate:"required_without=TicketID"`
	TicketID    string    `json:"ticket_id,omitempty"`
	DungeonID   uint32    `json:"dungeon_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}
