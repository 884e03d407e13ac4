package lfg

import (
	"github.com/vogiaan1904/realm-lfg/internal/catalog"
	"github.com/vogiaan1904/realm-lfg/internal/models"
)

// checkCompatibility grades a candidate group against one dungeon. The
// checks run in a fixed order and the first failing one decides.
func checkCompatibility(d catalog.Dungeon, group []*models.Ticket) models.Compatibility {
	if len(group) == 0 {
		return models.CompatibilityPending
	}

	players := 0
	for _, t := range group {
		players += t.Size()
	}
	if players > d.MaxPlayers {
		if len(group) == 1 {
			return models.CompatibilityWrongGroupSize
		}
		return models.CompatibilityTooMuchPlayers
	}

	lfgGroups := 0
	for _, t := range group {
		if t.LfgGroupID != "" {
			lfgGroups++
		}
	}
	if lfgGroups > 1 {
		return models.CompatibilityMultipleLfgGroups
	}

	for i, a := range group {
		for j, b := range group {
			if i != j && a.Ignoring(b) {
				return models.CompatibilityHasIgnores
			}
		}
	}

	if !d.RolesAssignable(groupMasks(group)) {
		return models.CompatibilityNoRoles
	}

	for _, t := range group {
		if t.QueueType != d.QueueType || !t.AcceptsDungeon(d.ID) {
			return models.CompatibilityNoDungeons
		}
	}

	for _, t := range group {
		if t.State != models.TicketStateQueued || t.IsReserved() {
			return models.CompatibilityBadStates
		}
	}

	if players < d.MaxPlayers {
		return models.CompatibilityWithLessPlayers
	}
	return models.CompatibilityMatch
}

// groupMasks lists every member's selection, ticket by ticket.
func groupMasks(group []*models.Ticket) []models.RoleMask {
	var masks []models.RoleMask
	for _, t := range group {
		for _, m := range t.Members {
			masks = append(masks, t.Roles[m])
		}
	}
	return masks
}
