package grpc

import (
	"math"

	lfgv1 "github.com/vogiaan1904/realm-lfg/api/lfg/v1"
	"github.com/vogiaan1904/realm-lfg/internal/models"
	"github.com/vogiaan1904/realm-lfg/pkg/util"
)

// toUpdate renders an update for the member whose stream carries it.
func toUpdate(member string, u models.LfgUpdate) *lfgv1.Update {
	out := &lfgv1.Update{
		ID:             u.ID,
		Type:           uint32(u.Type),
		TypeName:       u.Type.String(),
		TicketID:       u.TicketID,
		ProposalID:     u.ProposalID,
		Members:        u.Members,
		State:          uint32(u.State),
		PrevState:      uint32(u.PrevState),
		ReasonKind:     string(u.Reason.Kind),
		ReasonCode:     uint32(u.Reason.Code),
		RoleCheckState: uint32(u.RoleCheckState),
		DungeonID:      u.DungeonID,
		Dungeons:       u.Dungeons,
		InstanceRef:    u.InstanceRef,
		EntryToken:     u.EntryTokens[member],
		TeleportResult: uint32(u.TeleportResult),
		QueuedAt:       util.TimeToISO8601Str(u.QueuedAt),
		Timestamp:      util.TimeToISO8601Str(u.Timestamp),
	}

	if len(u.RoleAnswers) > 0 {
		out.RoleAnswers = make(map[string]uint32, len(u.RoleAnswers))
		for m, r := range u.RoleAnswers {
			out.RoleAnswers[m] = uint32(r)
		}
	}
	if len(u.Answers) > 0 {
		out.Answers = make(map[string]int32, len(u.Answers))
		for m, a := range u.Answers {
			out.Answers[m] = int32(a)
		}
	}
	for _, e := range u.Roster {
		out.Roster = append(out.Roster, lfgv1.RosterEntry{
			Member:   e.Member,
			TicketID: e.TicketID,
			Role:     uint32(e.Role),
			Leader:   e.Leader,
		})
	}
	return out
}

func toRoles(in map[string]uint32) map[string]models.RoleMask {
	out := make(map[string]models.RoleMask, len(in))
	for m, r := range in {
		// Out of range masks stay invalid instead of wrapping.
		if r > math.MaxUint8 {
			r = math.MaxUint8
		}
		out[m] = models.RoleMask(r)
	}
	return out
}
