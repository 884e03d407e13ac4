package kafka

import (
	"time"

	"github.com/vogiaan1904/realm-lfg/internal/models"
)

// Events published BY the LFG service

// LfgUpdateEvent mirrors an engine update. Entry tokens never leave the
// process through Kafka.
type LfgUpdateEvent struct {
	UpdateID       string                           `json:"update_id"`
	Type           models.UpdateType                `json:"type"`
	TypeName       string                           `json:"type_name"`
	TicketID       string                           `json:"ticket_id,omitempty"`
	ProposalID     string                           `json:"proposal_id,omitempty"`
	Members        []string                         `json:"members"`
	QueueType      models.QueueType                 `json:"queue_type,omitempty"`
	State          models.TicketState               `json:"state"`
	PrevState      models.TicketState               `json:"prev_state"`
	Reason         models.Reason                    `json:"reason"`
	RoleCheckState models.RoleCheckState            `json:"role_check_state,omitempty"`
	RoleAnswers    map[string]models.RoleMask       `json:"role_answers,omitempty"`
	DungeonID      uint32                           `json:"dungeon_id,omitempty"`
	Dungeons       []uint32                         `json:"dungeons,omitempty"`
	Roster         []models.RosterEntry             `json:"roster,omitempty"`
	Answers        map[string]models.ProposalAnswer `json:"answers,omitempty"`
	InstanceRef    string                           `json:"instance_ref,omitempty"`
	TeleportResult models.TeleportResult            `json:"teleport_result,omitempty"`
	QueuedAt       time.Time                        `json:"queued_at,omitempty"`
	Timestamp      time.Time                        `json:"timestamp"`
}

func NewLfgUpdateEvent(u models.LfgUpdate) LfgUpdateEvent {
	return LfgUpdateEvent{
		UpdateID:       u.ID,
		Type:           u.Type,
		TypeName:       u.Type.String(),
		TicketID:       u.TicketID,
		ProposalID:     u.ProposalID,
		Members:        u.Members,
		QueueType:      u.QueueType,
		State:          u.State,
		PrevState:      u.PrevState,
		Reason:         u.Reason,
		RoleCheckState: u.RoleCheckState,
		RoleAnswers:    u.RoleAnswers,
		DungeonID:      u.DungeonID,
		Dungeons:       u.Dungeons,
		Roster:         u.Roster,
		Answers:        u.Answers,
		InstanceRef:    u.InstanceRef,
		TeleportResult: u.TeleportResult,
		QueuedAt:       u.QueuedAt,
		Timestamp:      u.Timestamp,
	}
}

type DungeonReadyEvent struct {
	ProposalID  string               `json:"proposal_id"`
	TicketID    string               `json:"ticket_id"`
	DungeonID   uint32               `json:"dungeon_id"`
	InstanceRef string               `json:"instance_ref"`
	Members     []string             `json:"members"`
	Roster      []models.RosterEntry `json:"roster"`
	ReadyAt     time.Time            `json:"ready_at"`
	Timestamp   time.Time            `json:"timestamp"`
}

// Events consumed BY the LFG service (from Party and Instance services)

type PartyMemberChangedEvent struct {
	Kind      string              `json:"kind"` // added, removed, offline
	Member    string              `json:"member"`
	Party     []string            `json:"party,omitempty"`
	Method    models.RemoveMethod `json:"method,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type DungeonCompletedEvent struct {
	InstanceRef string    `json:"instance_ref"`
	TicketID    string    `json:"ticket_id,omitempty"`
	DungeonID   uint32    `json:"dungeon_id,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
	Timestamp   time.Time `json:"timestamp"`
}
