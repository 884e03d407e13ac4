package models

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type QueueType uint8

const (
	QueueTypeDungeon     QueueType = 1
	QueueTypeRaidBrowser QueueType = 2
	QueueTypeScenario    QueueType = 3
	QueueTypeFlex        QueueType = 4
	QueueTypeWorldPvP    QueueType = 5
)

var queueTypeNames = map[QueueType]string{
	QueueTypeDungeon:     "dungeon",
	QueueTypeRaidBrowser: "raid_browser",
	QueueTypeScenario:    "scenario",
	QueueTypeFlex:        "flex",
	QueueTypeWorldPvP:    "world_pvp",
}

func (q QueueType) String() string {
	if name, ok := queueTypeNames[q]; ok {
		return name
	}
	return fmt.Sprintf("queue_type(%d)", uint8(q))
}

func (q QueueType) Valid() bool {
	_, ok := queueTypeNames[q]
	return ok
}

// ParseQueueType accepts either the name or the numeric wire value.
func ParseQueueType(s string) (QueueType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for q, name := range queueTypeNames {
		if name == s || fmt.Sprint(uint8(q)) == s {
			return q, nil
		}
	}
	return 0, fmt.Errorf("unknown queue type %q", s)
}

// TicketState is the lifecycle state of a queue ticket. Value 4 belongs to
// the group vote-kick flow and is never assigned here.
type TicketState uint8

const (
	TicketStateNone            TicketState = 0
	TicketStateRoleCheck       TicketState = 1
	TicketStateQueued          TicketState = 2
	TicketStateProposal        TicketState = 3
	TicketStateDungeon         TicketState = 5
	TicketStateFinishedDungeon TicketState = 6
	TicketStateRaidBrowser     TicketState = 7
)

func (s TicketState) String() string {
	switch s {
	case TicketStateNone:
		return "none"
	case TicketStateRoleCheck:
		return "role_check"
	case TicketStateQueued:
		return "queued"
	case TicketStateProposal:
		return "proposal"
	case TicketStateDungeon:
		return "dungeon"
	case TicketStateFinishedDungeon:
		return "finished_dungeon"
	case TicketStateRaidBrowser:
		return "raid_browser"
	default:
		return fmt.Sprintf("ticket_state(%d)", uint8(s))
	}
}

// InQueue reports whether the ticket still occupies its members' queue slot.
func (s TicketState) InQueue() bool {
	switch s {
	case TicketStateRoleCheck, TicketStateQueued, TicketStateProposal, TicketStateRaidBrowser:
		return true
	default:
		return false
	}
}

type Ticket struct {
	ID        string              `json:"id"`
	Members   []string            `json:"members"`
	Roles     map[string]RoleMask `json:"roles"`
	Dungeons  []uint32            `json:"dungeons"`
	QueueType QueueType           `json:"queue_type"`
	State     TicketState         `json:"state"`
	JoinedAt  time.Time           `json:"joined_at"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`

	// LfgGroupID is set when the party was itself formed by LFG and is
	// queueing for replacements.
	LfgGroupID string `json:"lfg_group_id,omitempty"`

	// Ignores maps a member to the players they have on ignore.
	Ignores map[string][]string `json:"ignores,omitempty"`

	// ProposalID is the reservation flag: non-empty while an open
	// proposal holds the ticket.
	ProposalID string `json:"proposal_id,omitempty"`

	// InstanceRef is the bound instance once the ticket entered a dungeon.
	InstanceRef string `json:"instance_ref,omitempty"`

	// BestCompatibility is the best result the matcher has seen for this
	// ticket as an anchor.
	BestCompatibility Compatibility `json:"best_compatibility"`
}

func (t *Ticket) Leader() string {
	if len(t.Members) == 0 {
		return ""
	}
	return t.Members[0]
}

func (t *Ticket) Size() int {
	return len(t.Members)
}

func (t *Ticket) IsSolo() bool {
	return len(t.Members) == 1
}

func (t *Ticket) HasMember(member string) bool {
	return slices.Contains(t.Members, member)
}

func (t *Ticket) AcceptsDungeon(id uint32) bool {
	return slices.Contains(t.Dungeons, id)
}

func (t *Ticket) IsReserved() bool {
	return t.ProposalID != ""
}

// Ignoring reports whether any member of t ignores any member of other.
func (t *Ticket) Ignoring(other *Ticket) bool {
	for _, ignored := range t.Ignores {
		for _, id := range ignored {
			if other.HasMember(id) {
				return true
			}
		}
	}
	return false
}

// Before orders tickets by queue priority: earlier join time first, ticket
// id as the tie-break.
func (t *Ticket) Before(other *Ticket) bool {
	if !t.JoinedAt.Equal(other.JoinedAt) {
		return t.JoinedAt.Before(other.JoinedAt)
	}
	return t.ID < other.ID
}

// Clone returns a deep copy safe to hand outside the coordinator.
func (t *Ticket) Clone() *Ticket {
	c := *t
	c.Members = slices.Clone(t.Members)
	c.Dungeons = slices.Clone(t.Dungeons)
	c.Roles = make(map[string]RoleMask, len(t.Roles))
	for k, v := range t.Roles {
		c.Roles[k] = v
	}
	if t.Ignores != nil {
		c.Ignores = make(map[string][]string, len(t.Ignores))
		for k, v := range t.Ignores {
			c.Ignores[k] = slices.Clone(v)
		}
	}
	return &c
}

// QueueScore is the sorted-set score used for queue position lookups.
func (t *Ticket) QueueScore() float64 {
	return float64(t.JoinedAt.UnixMilli())
}
