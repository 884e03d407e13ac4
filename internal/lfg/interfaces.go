package lfg

import (
	"context"

	"github.com/vogiaan1904/realm-lfg/internal/catalog"
	"github.com/vogiaan1904/realm-lfg/internal/models"
)

// Notifier receives every update the engine emits. Notify is called from
// the engine loop and must not block.
type Notifier interface {
	Notify(ctx context.Context, u models.LfgUpdate)
}

type NotifierFunc func(ctx context.Context, u models.LfgUpdate)

func (f NotifierFunc) Notify(ctx context.Context, u models.LfgUpdate) {
	f(ctx, u)
}

type Catalog interface {
	Get(id uint32) (catalog.Dungeon, error)
}

type BindRequest struct {
	ProposalID string               `json:"proposal_id"`
	DungeonID  uint32               `json:"dungeon_id"`
	Leader     string               `json:"leader"`
	Roster     []models.RosterEntry `json:"roster"`
	Attempt    int                  `json:"attempt"`
}

type BindResult struct {
	InstanceRef string `json:"instance_ref"`
	// Teleports holds a result per member. Missing members count as
	// teleported.
	Teleports map[string]models.TeleportResult `json:"teleports"`
}

type TeleportRequest struct {
	ProposalID  string   `json:"proposal_id"`
	InstanceRef string   `json:"instance_ref"`
	DungeonID   uint32   `json:"dungeon_id"`
	Members     []string `json:"members"`
}

// InstanceBinder allocates instances and moves players into them. Calls
// are made off the engine loop.
type InstanceBinder interface {
	Bind(ctx context.Context, req BindRequest) (BindResult, error)
	Teleport(ctx context.Context, req TeleportRequest) (map[string]models.TeleportResult, error)
}

type EntryClaims struct {
	Member     string          `json:"member"`
	TicketID   string          `json:"ticket_id"`
	ProposalID string          `json:"proposal_id"`
	DungeonID  uint32          `json:"dungeon_id"`
	Role       models.RoleMask `json:"role"`
}

type TokenIssuer interface {
	IssueEntryToken(claims EntryClaims) (string, error)
}
