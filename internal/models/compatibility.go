package models

import "fmt"

// Compatibility is the outcome of checking a candidate group of tickets
// against one dungeon pool. Wire values are fixed; ordering comes from
// compatibilityRank, not from the numeric values.
type Compatibility uint8

const (
	CompatibilityPending           Compatibility = 0
	CompatibilityWrongGroupSize    Compatibility = 1
	CompatibilityTooMuchPlayers    Compatibility = 2
	CompatibilityMultipleLfgGroups Compatibility = 3
	CompatibilityHasIgnores        Compatibility = 4
	CompatibilityNoRoles           Compatibility = 5
	CompatibilityNoDungeons        Compatibility = 6
	CompatibilityWithLessPlayers   Compatibility = 7
	CompatibilityBadStates         Compatibility = 8
	CompatibilityMatch             Compatibility = 9
)

// compatibilityRank is worst to best.
var compatibilityRank = map[Compatibility]int{
	CompatibilityPending:           0,
	CompatibilityWrongGroupSize:    10,
	CompatibilityTooMuchPlayers:    20,
	CompatibilityMultipleLfgGroups: 30,
	CompatibilityHasIgnores:        40,
	CompatibilityNoRoles:           50,
	CompatibilityNoDungeons:        60,
	CompatibilityWithLessPlayers:   70,
	CompatibilityBadStates:         80,
	CompatibilityMatch:             90,
}

var compatibilityNames = map[Compatibility]string{
	CompatibilityPending:           "pending",
	CompatibilityWrongGroupSize:    "wrong_group_size",
	CompatibilityTooMuchPlayers:    "too_much_players",
	CompatibilityMultipleLfgGroups: "multiple_lfg_groups",
	CompatibilityHasIgnores:        "has_ignores",
	CompatibilityNoRoles:           "no_roles",
	CompatibilityNoDungeons:        "no_dungeons",
	CompatibilityWithLessPlayers:   "with_less_players",
	CompatibilityBadStates:         "bad_states",
	CompatibilityMatch:             "match",
}

// AllCompatibilities lists every result worst to best.
func AllCompatibilities() []Compatibility {
	return []Compatibility{
		CompatibilityPending,
		CompatibilityWrongGroupSize,
		CompatibilityTooMuchPlayers,
		CompatibilityMultipleLfgGroups,
		CompatibilityHasIgnores,
		CompatibilityNoRoles,
		CompatibilityNoDungeons,
		CompatibilityWithLessPlayers,
		CompatibilityBadStates,
		CompatibilityMatch,
	}
}

func (c Compatibility) Rank() int {
	rank, ok := compatibilityRank[c]
	if !ok {
		return -1
	}
	return rank
}

func (c Compatibility) Less(other Compatibility) bool {
	return c.Rank() < other.Rank()
}

// Terminal reports whether the pairing is rejected for good.
func (c Compatibility) Terminal() bool {
	return c.Less(CompatibilityWithLessPlayers)
}

// Retained reports whether the pairing stays a candidate for later scans.
func (c Compatibility) Retained() bool {
	return !c.Terminal() && c != CompatibilityMatch
}

func (c Compatibility) String() string {
	if name, ok := compatibilityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("compatibility(%d)", uint8(c))
}
